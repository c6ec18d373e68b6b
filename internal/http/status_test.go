package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	echo "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preferredrecruit/intake-gateway/internal/service/intake"
)

func getStatus(svc *intake.Service, query string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/onboarding-redirect"+query, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = statusHandler(svc)(c)
	return rec
}

func TestStatusMissingSubmissionID(t *testing.T) {
	svc := newTestService(newMemAthletes())

	rec := getStatus(svc, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Missing submissionId parameter"}`, rec.Body.String())
}

func TestStatusNotFoundYet(t *testing.T) {
	svc := newTestService(newMemAthletes())

	rec := getStatus(svc, "?submissionId=abc123")
	assert.Equal(t, http.StatusOK, rec.Code)

	var st intake.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.False(t, st.Found)
}

func TestStatusFoundAfterKickoff(t *testing.T) {
	athletes := newMemAthletes()
	svc := newTestService(athletes)

	body, sig := kickoffBody(t, "evt_1", "abc123")
	rec := postWebhook(svc, "kickoff", body, sig)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = getStatus(svc, "?submissionId=abc123")
	assert.Equal(t, http.StatusOK, rec.Code)

	var st intake.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.True(t, st.Found)
	assert.NotEmpty(t, st.AthleteID)
	assert.Equal(t, "Jordan", st.AthleteName)
	assert.True(t, st.NeedsPoster)
}
