package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appservice "enrollment/internal/application/service"
	appstore "enrollment/internal/application/store"
	docmodels "enrollment/internal/document/models"
	"enrollment/internal/document/storage"
	"enrollment/internal/evidence/linkage"
	"enrollment/internal/intake/handler"
	"enrollment/internal/intake/messages"
	"enrollment/internal/intake/service"
	"enrollment/internal/intake/store/session"
	jwttoken "enrollment/internal/jwt_token"
	"enrollment/pkg/platform/pii"
	"enrollment/pkg/testutil"
)

const (
	flowAadhaar = "482177301294"
	flowPAN     = "ABCDE1234F"
)

var flowPDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")

// fixedAnalyzer accepts every document with canned fields per kind.
type fixedAnalyzer map[docmodels.Kind]docmodels.Fields

func (a fixedAnalyzer) Analyze(_ context.Context, _ []byte, kind docmodels.Kind, _, _ string) (*docmodels.Result, error) {
	return docmodels.Accepted(kind, "", a[kind]), nil
}

type openedSession struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	Step      string `json:"step"`
}

type reply struct {
	Response string `json:"response"`
	Type     string `json:"type"`
	Step     string `json:"step"`
}

func newIntakeServer(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	registry := linkage.NewInMemoryRegistry()
	registry.Link(flowAadhaar, flowPAN)
	analyzer := fixedAnalyzer{
		docmodels.KindAadhaar: {
			docmodels.FieldAadhaarNumber: flowAadhaar,
			docmodels.FieldName:          "Sunita Rao",
			docmodels.FieldDOB:           "14/08/1990",
			docmodels.FieldGender:        "Female",
			docmodels.FieldAddress:       "Ward 4, Nashik",
		},
		docmodels.KindPANCard: {docmodels.FieldPANNumber: flowPAN},
	}
	hasher := pii.NewHasher("flow-test")
	finalizer := appservice.New(appstore.NewInMemoryStore(), service.DefaultIncomeCeiling, hasher, logger)
	machine := service.New(session.NewInMemoryStore(), analyzer, registry, storage.NewInMemoryStore(), finalizer,
		messages.NewCatalog(logger), logger, service.WithHasher(hasher))

	jwt := jwttoken.NewJWTService("flow-signing-key", "intake", "intake-dispatcher")
	r := chi.NewRouter()
	handler.New(machine, jwt, jwttoken.NewJWTServiceAdapter(jwt), logger, nil).Register(r)
	return r
}

func open(t *testing.T, srv http.Handler) *openedSession {
	t.Helper()
	rr := testutil.DoRequest(srv, testutil.NewJSONRequest(t, http.MethodPost, "/intake/sessions", map[string]string{}))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	return testutil.UnmarshalResponse[openedSession](t, rr)
}

func say(t *testing.T, srv http.Handler, s *openedSession, fields map[string]string, upload *testutil.Upload) (*reply, *httptest.ResponseRecorder) {
	t.Helper()
	req := testutil.NewMultipartRequest(t, http.MethodPost, "/intake/sessions/"+s.SessionID+"/messages", fields, upload)
	rr := testutil.DoRequest(srv, testutil.WithBearer(req, s.Token))
	testutil.AssertStatusOK(t, rr)
	return testutil.UnmarshalResponse[reply](t, rr), rr
}

func document(name string) *testutil.Upload {
	return &testutil.Upload{Field: "file", Filename: name, Content: flowPDF}
}

func TestIntakeOverHTTP(t *testing.T) {
	testutil.Given(t, "an intake server with in-memory stores", func(t *testing.T) {
		srv := newIntakeServer(t)

		testutil.When(t, "the applicant declines consent", func(t *testing.T) {
			s := open(t, srv)
			require.Equal(t, "consent", s.Step)
			r, _ := say(t, srv, s, map[string]string{"message": "no"}, nil)

			testutil.Then(t, "the session ends and its status says so", func(t *testing.T) {
				assert.Equal(t, "terminal", r.Type)
				assert.Equal(t, "declined", r.Step)

				rr := testutil.DoRequest(srv, testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/intake/sessions/"+s.SessionID), s.Token))
				testutil.AssertStatusOK(t, rr)
				testutil.AssertJSONContains(t, rr, "step", "declined")
			})
		})

		testutil.When(t, "the applicant sends a text file as identity proof", func(t *testing.T) {
			s := open(t, srv)
			say(t, srv, s, map[string]string{"message": "yes"}, nil)
			r, _ := say(t, srv, s, nil, &testutil.Upload{Field: "file", Filename: "id.txt", Content: []byte("plain text only")})

			testutil.Then(t, "the upload is refused and the step is kept", func(t *testing.T) {
				assert.Equal(t, "rejection", r.Type)
				assert.Equal(t, "upload_primary_id", r.Step)
			})
		})

		testutil.When(t, "the applicant verifies both identity documents", func(t *testing.T) {
			s := open(t, srv)
			say(t, srv, s, map[string]string{"message": "yes"}, nil)
			confirm, _ := say(t, srv, s, map[string]string{"doc_type": "aadhaar"}, document("aadhaar.pdf"))
			require.Equal(t, "confirm_primary_id", confirm.Step)
			say(t, srv, s, map[string]string{"message": "yes"}, nil)
			r, _ := say(t, srv, s, nil, document("pan.pdf"))

			testutil.Then(t, "the flow asks for contact details", func(t *testing.T) {
				assert.Equal(t, "collect_mobile", r.Step)
				assert.Equal(t, "prompt", r.Type)
				assert.NotContains(t, confirm.Response, flowAadhaar, "identity number must be masked")
			})
		})
	})
}
