package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/preferredrecruit/intake-gateway/internal/service/intake"
)

// HTTPQuery builds a QueryFunc against a running gateway's status endpoint.
func HTTPQuery(baseURL string, client *http.Client) QueryFunc {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, submissionID string) (intake.Status, error) {
		u := baseURL + "/api/onboarding-redirect?submissionId=" + url.QueryEscape(submissionID)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return intake.Status{}, err
		}

		res, err := client.Do(req)
		if err != nil {
			return intake.Status{}, err
		}
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			return intake.Status{}, fmt.Errorf("status query: unexpected status %d", res.StatusCode)
		}

		body, err := io.ReadAll(io.LimitReader(res.Body, 1<<16))
		if err != nil {
			return intake.Status{}, err
		}

		var st intake.Status
		if err := json.Unmarshal(body, &st); err != nil {
			return intake.Status{}, err
		}
		return st, nil
	}
}
