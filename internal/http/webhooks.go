package http

import (
	"errors"
	"io"
	"net/http"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/preferredrecruit/intake-gateway/internal/model"
	"github.com/preferredrecruit/intake-gateway/internal/service/intake"
	"github.com/preferredrecruit/intake-gateway/internal/tally"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// readRawBody captures the body bytes before any JSON decoding: the signature
// covers the exact bytes the provider sent, and re-serialization would not
// byte-match them.
func readRawBody(r *http.Request, limit int64) ([]byte, error) {
	defer r.Body.Close()
	lr := io.LimitReader(r.Body, limit+1)

	b, err := io.ReadAll(lr)
	if err != nil {
		return nil, errors.New("failed to read body")
	}
	if int64(len(b)) > limit {
		return nil, errors.New("payload too large")
	}
	return b, nil
}

// webhookHandler serves all three Tally forms; the :form path segment picks
// the pipeline.
func webhookHandler(svc *intake.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		form, ok := model.ParseFormType(c.Param("form"))
		if !ok {
			return c.JSON(http.StatusNotFound, map[string]any{"success": false, "error": "unknown form"})
		}

		body, err := readRawBody(c.Request(), maxBodyBytes)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "error": err.Error()})
		}

		sig := c.Request().Header.Get(tally.SignatureHeader)

		res, err := svc.Handle(c.Request().Context(), form, body, sig)
		if err != nil {
			switch {
			case errors.Is(err, intake.ErrSignature):
				return c.JSON(http.StatusUnauthorized, map[string]any{"success": false, "error": "invalid signature"})
			case errors.Is(err, intake.ErrMalformed):
				return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "error": "malformed payload"})
			case errors.Is(err, intake.ErrNotFound):
				return c.JSON(http.StatusNotFound, map[string]any{"success": false, "error": "athlete not found"})
			}

			log.Errorf("webhook %s failed: %v", form, err)

			// 500 so the provider's retry policy redelivers
			return c.JSON(http.StatusInternalServerError, map[string]any{"success": false, "error": "persistence failure"})
		}

		if res.Deferred() {
			return c.JSON(http.StatusOK, map[string]any{"success": true, "deferred": true})
		}
		return c.JSON(http.StatusOK, map[string]any{"success": true})
	}
}
