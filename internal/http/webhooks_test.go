package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	echo "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmoiron/sqlx"

	"github.com/preferredrecruit/intake-gateway/internal/model"
	"github.com/preferredrecruit/intake-gateway/internal/service/intake"
	"github.com/preferredrecruit/intake-gateway/internal/tally"
)

const testSecret = "whsec_test"

type memAthletes struct {
	bySub map[string]model.Athlete
	byID  map[string]model.Athlete
}

func newMemAthletes() *memAthletes {
	return &memAthletes{bySub: map[string]model.Athlete{}, byID: map[string]model.Athlete{}}
}

func (m *memAthletes) InsertIfAbsent(_ context.Context, _ *sqlx.Tx, a model.Athlete) (bool, error) {
	if _, ok := m.bySub[a.TallySubmissionID]; ok {
		return false, nil
	}
	m.bySub[a.TallySubmissionID] = a
	m.byID[a.ID] = a
	return true, nil
}

func (m *memAthletes) FindBySubmissionID(_ context.Context, id string) (*model.Athlete, error) {
	a, ok := m.bySub[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *memAthletes) FindByID(_ context.Context, id string) (*model.Athlete, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *memAthletes) MergeFormData(_ context.Context, _ *sqlx.Tx, _ string, _ []byte) error {
	return nil
}

func (m *memAthletes) SetPoster(_ context.Context, _ *sqlx.Tx, id, url string) error {
	a := m.byID[id]
	a.PosterURL = url
	a.PosterReceived = true
	m.byID[id] = a
	m.bySub[a.TallySubmissionID] = a
	return nil
}

type memOutbox struct{ n int }

func (m *memOutbox) Insert(_ context.Context, _ *sqlx.Tx, _, _, _ string, _ []byte) error {
	m.n++
	return nil
}

func newTestService(athletes *memAthletes) *intake.Service {
	return intake.New(nil, athletes, &memOutbox{}, nil, nil, intake.Secrets{
		Kickoff:    testSecret,
		Onboarding: testSecret,
		Poster:     testSecret,
	})
}

func kickoffBody(t *testing.T, eventID, submissionID string) ([]byte, string) {
	t.Helper()
	env := model.Envelope{
		EventID:      eventID,
		SubmissionID: submissionID,
		Fields: []model.Field{
			{Key: tally.KickoffMapping[tally.FieldFirstName], Type: model.FieldInputText, Value: json.RawMessage(`"Jordan"`)},
			{Key: tally.KickoffMapping[tally.FieldNeedsPoster], Type: model.FieldInputText, Value: json.RawMessage(`"Yes"`)},
		},
	}
	body, err := json.Marshal(env)
	require.NoError(t, err)
	return body, tally.Sign([]byte(testSecret), body)
}

func postWebhook(svc *intake.Service, form string, body []byte, sig string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/tally/"+form, strings.NewReader(string(body)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if sig != "" {
		req.Header.Set(tally.SignatureHeader, sig)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/webhooks/tally/:form")
	c.SetParamNames("form")
	c.SetParamValues(form)
	_ = webhookHandler(svc)(c)
	return rec
}

func TestWebhookKickoffSuccess(t *testing.T) {
	athletes := newMemAthletes()
	svc := newTestService(athletes)

	body, sig := kickoffBody(t, "evt_1", "abc123")
	rec := postWebhook(svc, "kickoff", body, sig)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.Len(t, athletes.bySub, 1)
}

func TestWebhookInvalidSignature(t *testing.T) {
	svc := newTestService(newMemAthletes())

	body, _ := kickoffBody(t, "evt_1", "abc123")
	rec := postWebhook(svc, "kickoff", body, "bad-signature")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
}

func TestWebhookMissingSignature(t *testing.T) {
	svc := newTestService(newMemAthletes())

	body, _ := kickoffBody(t, "evt_1", "abc123")
	rec := postWebhook(svc, "kickoff", body, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookMalformedPayload(t *testing.T) {
	svc := newTestService(newMemAthletes())

	body := []byte(`{"eventId":"evt_1","fields":[]}`)
	rec := postWebhook(svc, "kickoff", body, tally.Sign([]byte(testSecret), body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookUnknownForm(t *testing.T) {
	svc := newTestService(newMemAthletes())

	rec := postWebhook(svc, "mystery", []byte(`{}`), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhookOnboardingDeferred(t *testing.T) {
	svc := newTestService(newMemAthletes())

	env := model.Envelope{
		EventID:      "evt_ob",
		SubmissionID: "never-seen",
		Fields: []model.Field{
			{Key: tally.OnboardingMapping[tally.FieldGPA], Type: model.FieldInputText, Value: json.RawMessage(`"3.8"`)},
		},
	}
	body, err := json.Marshal(env)
	require.NoError(t, err)

	rec := postWebhook(svc, "onboarding", body, tally.Sign([]byte(testSecret), body))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"deferred":true}`, rec.Body.String())
}

func TestWebhookPosterUnknownAthlete(t *testing.T) {
	svc := newTestService(newMemAthletes())

	env := model.Envelope{
		EventID: "evt_p",
		Fields: []model.Field{
			{Key: tally.PosterMapping[tally.FieldAthleteID], Type: model.FieldHiddenField, Value: json.RawMessage(`"b2f7c7a0-9e4b-4f7d-bb6e-2f1a9c8d7e6f"`)},
			{Key: tally.PosterMapping[tally.FieldPosterFile], Type: model.FieldFileUpload, Value: json.RawMessage(`[{"url":"https://cdn.example.com/p.png"}]`)},
		},
	}
	body, err := json.Marshal(env)
	require.NoError(t, err)

	rec := postWebhook(svc, "poster", body, tally.Sign([]byte(testSecret), body))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhookPosterFlow(t *testing.T) {
	athletes := newMemAthletes()
	svc := newTestService(athletes)

	body, sig := kickoffBody(t, "evt_1", "abc123")
	rec := postWebhook(svc, "kickoff", body, sig)
	require.Equal(t, http.StatusOK, rec.Code)

	var athleteID string
	for id := range athletes.byID {
		athleteID = id
	}

	env := model.Envelope{
		EventID: "evt_p",
		Fields: []model.Field{
			{Key: tally.PosterMapping[tally.FieldAthleteID], Type: model.FieldHiddenField, Value: json.RawMessage(fmt.Sprintf("%q", athleteID))},
			{Key: tally.PosterMapping[tally.FieldPosterFile], Type: model.FieldFileUpload, Value: json.RawMessage(`[{"name":"p.png","url":"https://cdn.example.com/p.png","mimeType":"image/png"}]`)},
		},
	}
	pBody, err := json.Marshal(env)
	require.NoError(t, err)

	rec = postWebhook(svc, "poster", pBody, tally.Sign([]byte(testSecret), pBody))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, athletes.byID[athleteID].PosterReceived)
}
