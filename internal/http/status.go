package http

import (
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/preferredrecruit/intake-gateway/internal/metrics"
	"github.com/preferredrecruit/intake-gateway/internal/service/intake"
)

// statusHandler is the server half of the submission-status bridge. The
// client poller calls it until the kickoff webhook has landed or its ceiling
// expires.
func statusHandler(svc *intake.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		submissionID := strings.TrimSpace(c.QueryParam("submissionId"))
		if submissionID == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing submissionId parameter"})
		}

		st, err := svc.SubmissionStatus(c.Request().Context(), submissionID)
		if err != nil {
			metrics.StatusPollsTotal.WithLabelValues("error").Inc()
			log.Errorf("submission status lookup failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "lookup failed"})
		}

		if st.Found {
			metrics.StatusPollsTotal.WithLabelValues("found").Inc()
		} else {
			metrics.StatusPollsTotal.WithLabelValues("pending").Inc()
		}
		return c.JSON(http.StatusOK, st)
	}
}
