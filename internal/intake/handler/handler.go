// Package handler exposes the intake machine over HTTP. A dispatcher (web
// chat, messaging bot) opens a session, then relays each applicant message
// and upload with the session token it was given.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	docmodels "enrollment/internal/document/models"
	"enrollment/internal/intake/models"
	"enrollment/internal/platform/metrics"
	"enrollment/internal/platform/middleware"
	dErrors "enrollment/pkg/domain-errors"
	"enrollment/pkg/platform/httputil"
	"enrollment/pkg/platform/sentinel"
	"enrollment/pkg/requestcontext"
)

// Machine is the intake conversation.
type Machine interface {
	Start(ctx context.Context, id string, lang models.Language) models.Response
	Handle(ctx context.Context, in models.Input) models.Response
	Session(ctx context.Context, id string) (*models.Session, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	GenerateSessionToken(sessionID, channel string, expiresIn time.Duration) (string, error)
}

const (
	defaultMaxUpload = 10 << 20
	defaultTokenTTL  = 24 * time.Hour
	requestTimeout   = 3 * time.Minute
)

type Handler struct {
	machine   Machine
	tokens    TokenIssuer
	validator middleware.TokenValidator
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tokenTTL  time.Duration
	maxUpload int64

	openLimit    func(http.Handler) http.Handler
	messageLimit func(http.Handler) http.Handler
}

type Option func(*Handler)

func WithTokenTTL(ttl time.Duration) Option {
	return func(h *Handler) {
		if ttl > 0 {
			h.tokenTTL = ttl
		}
	}
}

// WithMaxUpload bounds the size of one uploaded file in bytes.
func WithMaxUpload(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUpload = n
		}
	}
}

// WithRateLimits installs limits on opening sessions and on messages; the
// message limit runs after the session token is checked.
func WithRateLimits(open, message func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		if open != nil {
			h.openLimit = open
		}
		if message != nil {
			h.messageLimit = message
		}
	}
}

func passThrough(next http.Handler) http.Handler { return next }

func New(machine Machine, tokens TokenIssuer, validator middleware.TokenValidator,
	logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Handler {
	h := &Handler{
		machine:   machine,
		tokens:    tokens,
		validator: validator,
		logger:    logger,
		metrics:   m,
		tokenTTL:  defaultTokenTTL,
		maxUpload: defaultMaxUpload,

		openLimit:    passThrough,
		messageLimit: passThrough,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the intake routes on r.
func (h *Handler) Register(r chi.Router) {
	intake := chi.NewRouter()
	intake.Use(middleware.Timeout(requestTimeout))
	intake.Use(middleware.LatencyMiddleware(h.metrics))
	intake.With(h.openLimit).Post("/", h.handleStart)
	intake.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireSession(h.validator, h.logger))
		authed.With(h.messageLimit).Post("/{id}/messages", h.handleMessage)
		authed.Get("/{id}", h.handleStatus)
	})

	r.Mount("/intake/sessions", intake)
}

type startRequest struct {
	Language string `json:"language"`
}

type startResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	models.Response
}

type statusResponse struct {
	SessionID     string          `json:"session_id"`
	Step          models.Step     `json:"step"`
	Language      models.Language `json:"language"`
	ApplicationID string          `json:"application_id,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var req startRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid start request", "request_id", requestID, "error", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	lang := models.Language("")
	if req.Language != "" {
		parsed, ok := models.ParseLanguage(req.Language)
		if !ok {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unsupported language"))
			return
		}
		lang = parsed
	}

	id := uuid.NewString()
	channel := string(requestcontext.ClientChannel(ctx))
	token, err := h.tokens.GenerateSessionToken(id, channel, h.tokenTTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to sign session token", "request_id", requestID, "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to open session"))
		return
	}

	resp := h.machine.Start(ctx, id, lang)
	h.logger.InfoContext(ctx, "intake session opened", "request_id", requestID, "session_id", id, "channel", channel)
	httputil.WriteJSON(w, http.StatusCreated, startResponse{SessionID: id, Token: token, Response: resp})
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id, ok := h.authorize(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.logger.WarnContext(ctx, "invalid message form", "request_id", requestID, "session_id", id, "error", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid message form"))
		return
	}

	in := models.Input{SessionID: id, Message: r.FormValue("message")}
	if v := r.FormValue("language"); v != "" {
		lang, ok := models.ParseLanguage(v)
		if !ok {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unsupported language"))
			return
		}
		in.Language = lang
	}
	if v := r.FormValue("doc_type"); v != "" {
		kind, ok := docmodels.ParseKind(v)
		if !ok {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown doc_type"))
			return
		}
		in.DeclaredKind = kind
	}

	file, err := h.readFile(r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid upload", "request_id", requestID, "session_id", id, "error", err)
		httputil.WriteError(w, err)
		return
	}
	in.File = file

	httputil.WriteJSON(w, http.StatusOK, h.machine.Handle(ctx, in))
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.authorize(w, r)
	if !ok {
		return
	}
	sess, err := h.machine.Session(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "session not found"))
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load session",
			"request_id", requestcontext.RequestID(ctx), "session_id", id, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statusResponse{
		SessionID:     sess.ID,
		Step:          sess.Step,
		Language:      sess.Language,
		ApplicationID: sess.ApplicationID,
		UpdatedAt:     sess.UpdatedAt,
	})
}

// decodeJSON reads an optional JSON body; an empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// authorize checks that the path session is the one the token was issued for.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if bound := requestcontext.SessionID(r.Context()); bound == "" || bound != id {
		h.logger.WarnContext(r.Context(), "session token does not match path",
			"request_id", requestcontext.RequestID(r.Context()), "session_id", id)
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "token is not valid for this session"))
		return "", false
	}
	return id, true
}

func (h *Handler) readFile(r *http.Request) ([]byte, error) {
	f, _, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable file part")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUpload+1))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable file part")
	}
	if int64(len(data)) > h.maxUpload {
		return nil, dErrors.New(dErrors.CodeBadRequest, "file is too large")
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}
