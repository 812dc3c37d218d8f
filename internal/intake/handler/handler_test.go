package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docmodels "enrollment/internal/document/models"
	"enrollment/internal/intake/models"
	jwttoken "enrollment/internal/jwt_token"
	"enrollment/internal/ratelimit"
	"enrollment/pkg/platform/sentinel"
	"enrollment/pkg/testutil"
)

type stubMachine struct {
	started []string
	inputs  []models.Input
	session *models.Session
}

func (m *stubMachine) Start(_ context.Context, id string, lang models.Language) models.Response {
	m.started = append(m.started, id)
	return models.Response{Text: "consent?", Kind: models.ResponsePrompt, Expecting: models.ExpectConsent, Step: models.StepConsent}
}

func (m *stubMachine) Handle(_ context.Context, in models.Input) models.Response {
	m.inputs = append(m.inputs, in)
	return models.Response{Text: "ok", Kind: models.ResponsePrompt, Step: models.StepUploadPrimaryID}
}

func (m *stubMachine) Session(_ context.Context, id string) (*models.Session, error) {
	if m.session == nil || m.session.ID != id {
		return nil, sentinel.ErrNotFound
	}
	return m.session, nil
}

func newRouter(t *testing.T) (http.Handler, *stubMachine, *jwttoken.JWTService) {
	t.Helper()
	jwt := jwttoken.NewJWTService("test-signing-key", "intake", "intake-dispatcher")
	machine := &stubMachine{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(machine, jwt, jwttoken.NewJWTServiceAdapter(jwt), logger, nil, WithMaxUpload(1024))
	r := chi.NewRouter()
	h.Register(r)
	return r, machine, jwt
}

type startBody struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	Response  string `json:"response"`
	Type      string `json:"type"`
	Waiting   string `json:"waiting_for"`
	Step      string `json:"step"`
}

func TestStartAndMessage(t *testing.T) {
	router, machine, _ := newRouter(t)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/intake/sessions", map[string]string{"language": "marathi"}))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	started := testutil.UnmarshalResponse[startBody](t, rr)
	require.NotEmpty(t, started.SessionID)
	require.NotEmpty(t, started.Token)
	assert.Equal(t, "consent", started.Waiting)
	assert.Equal(t, "consent", started.Step)
	assert.Equal(t, []string{started.SessionID}, machine.started)

	req := testutil.NewMultipartRequest(t, http.MethodPost, "/intake/sessions/"+started.SessionID+"/messages",
		map[string]string{"message": "yes", "doc_type": "aadhaar", "language": "hi"},
		&testutil.Upload{Field: "file", Filename: "aadhaar.pdf", Content: []byte("%PDF-1.4")})
	rr = testutil.DoRequest(router, testutil.WithBearer(req, started.Token))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "response", "ok")

	require.Len(t, machine.inputs, 1)
	in := machine.inputs[0]
	assert.Equal(t, started.SessionID, in.SessionID)
	assert.Equal(t, "yes", in.Message)
	assert.Equal(t, docmodels.KindAadhaar, in.DeclaredKind)
	assert.Equal(t, models.LanguageHindi, in.Language)
	assert.Equal(t, []byte("%PDF-1.4"), in.File)
}

func TestMessageRequiresToken(t *testing.T) {
	router, machine, _ := newRouter(t)
	req := testutil.NewMultipartRequest(t, http.MethodPost, "/intake/sessions/abc/messages", map[string]string{"message": "yes"}, nil)
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	assert.Empty(t, machine.inputs)
}

func TestTokenIsBoundToItsSession(t *testing.T) {
	router, machine, jwt := newRouter(t)
	token, err := jwt.GenerateSessionToken("session-a", "web", time.Hour)
	require.NoError(t, err)

	req := testutil.NewMultipartRequest(t, http.MethodPost, "/intake/sessions/session-b/messages", map[string]string{"message": "yes"}, nil)
	rr := testutil.DoRequest(router, testutil.WithBearer(req, token))
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	assert.Empty(t, machine.inputs)
}

func TestUnknownDocType(t *testing.T) {
	router, _, jwt := newRouter(t)
	token, err := jwt.GenerateSessionToken("s1", "web", time.Hour)
	require.NoError(t, err)

	req := testutil.NewMultipartRequest(t, http.MethodPost, "/intake/sessions/s1/messages", map[string]string{"doc_type": "passport"}, nil)
	rr := testutil.DoRequest(router, testutil.WithBearer(req, token))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
}

func TestOversizedUpload(t *testing.T) {
	router, machine, jwt := newRouter(t)
	token, err := jwt.GenerateSessionToken("s1", "web", time.Hour)
	require.NoError(t, err)

	req := testutil.NewMultipartRequest(t, http.MethodPost, "/intake/sessions/s1/messages", nil,
		&testutil.Upload{Field: "file", Filename: "big.pdf", Content: make([]byte, 2048)})
	rr := testutil.DoRequest(router, testutil.WithBearer(req, token))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.Empty(t, machine.inputs)
}

func TestStatus(t *testing.T) {
	router, machine, jwt := newRouter(t)
	machine.session = &models.Session{ID: "s1", Step: models.StepCollectEmail, Language: models.LanguageMarathi}
	token, err := jwt.GenerateSessionToken("s1", "web", time.Hour)
	require.NoError(t, err)

	rr := testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/intake/sessions/s1"), token))
	testutil.AssertStatusOK(t, rr)
	status := testutil.UnmarshalResponse[statusResponse](t, rr)
	assert.Equal(t, models.StepCollectEmail, status.Step)
	assert.Equal(t, models.LanguageMarathi, status.Language)

	missing, err := jwt.GenerateSessionToken("s2", "web", time.Hour)
	require.NoError(t, err)
	rr = testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/intake/sessions/s2"), missing))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestMessagesAreRateLimitedPerSession(t *testing.T) {
	jwt := jwttoken.NewJWTService("test-signing-key", "intake", "intake-dispatcher")
	machine := &stubMachine{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	limiter := ratelimit.NewMiddleware(ratelimit.NewInMemoryStore(), logger)
	h := New(machine, jwt, jwttoken.NewJWTServiceAdapter(jwt), logger, nil,
		WithRateLimits(nil, limiter.PerSession("messages", ratelimit.Policy{Limit: 1, Window: time.Minute})))
	router := chi.NewRouter()
	h.Register(router)

	token, err := jwt.GenerateSessionToken("s1", "web", time.Hour)
	require.NoError(t, err)
	send := func() *http.Request {
		req := testutil.NewMultipartRequest(t, http.MethodPost, "/intake/sessions/s1/messages", map[string]string{"message": "hi"}, nil)
		return testutil.WithBearer(req, token)
	}

	testutil.AssertStatusOK(t, testutil.DoRequest(router, send()))
	testutil.AssertStatusAndError(t, testutil.DoRequest(router, send()), http.StatusTooManyRequests, "rate_limit_exceeded")
	assert.Len(t, machine.inputs, 1)
}
