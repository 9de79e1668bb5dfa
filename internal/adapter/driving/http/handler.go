// Package httphandler is the HTTP driving adapter. It serves the chat
// endpoint and a small REST API over the application services.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/requisitionbot/internal/application"
	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
)

const (
	defaultDocumentLimit = 20
	maxDocumentLimit     = 100
	tokenPreviewLength   = 20
)

// Deps bundles the services a Handler serves.
type Deps struct {
	Chat        *application.ChatService
	Templates   application.TemplateSource
	Dimensions  *application.DimensionService
	Submissions *application.SubmissionService
	Tokens      application.TokenProvider
	Health      *application.HealthService
	Version     string
	Logger      *slog.Logger
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	chat        *application.ChatService
	templates   application.TemplateSource
	dimensions  *application.DimensionService
	submissions *application.SubmissionService
	tokens      application.TokenProvider
	health      *application.HealthService
	version     string
	logger      *slog.Logger
}

// NewHandler creates a Handler from deps.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		chat:        deps.Chat,
		templates:   deps.Templates,
		dimensions:  deps.Dimensions,
		submissions: deps.Submissions,
		tokens:      deps.Tokens,
		health:      deps.Health,
		version:     deps.Version,
		logger:      deps.Logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with request ID, logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/health/services", h.ServicesHealth)
	mux.HandleFunc("GET /api/v1/version", h.Version)
	mux.HandleFunc("POST /api/test-auth", h.TestAuth)
	mux.HandleFunc("POST /api/chat", h.Chat)
	mux.HandleFunc("GET /api/v1/templates/fields", h.TemplateFields)
	mux.HandleFunc("GET /api/v1/templates/dimensions", h.TemplateDimensions)
	mux.HandleFunc("POST /api/v1/requisitions", h.CreateRequisition)
	mux.HandleFunc("GET /api/v1/documents", h.ListDocuments)
	mux.HandleFunc("GET /api/v1/documents/{code}", h.GetDocument)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)
	wrapped = requestIDMiddleware(wrapped)

	return wrapped
}

// Health returns a shallow liveness response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// ServicesHealth probes the platform and the language model. It answers 503
// when any dependency is down.
func (h *Handler) ServicesHealth(w http.ResponseWriter, r *http.Request) {
	report := h.health.CheckServices(r.Context())

	resp := ServicesHealthResponse{Status: "healthy", Services: report.Services}
	status := http.StatusOK
	if !report.Healthy {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}

// Version reports build information and whether a platform token can be
// obtained right now.
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	resp := VersionResponse{
		SystemVersion: h.version,
		Components: map[string]string{
			"deepseek_api": "chat-completions",
			"ekuaibao_api": "v1.1/v2.2",
		},
		Features:       []string{"TOKEN刷新机制", "动态模板字段获取", "AI智能申请单创建", "历史单据查询"},
		EkuaibaoStatus: "connected",
		TokenStatus:    "active",
	}

	if _, err := h.tokens.AccessToken(r.Context()); err != nil {
		h.logger.Warn("version probe could not obtain token", "error", err)
		resp.EkuaibaoStatus = "error"
		resp.TokenStatus = "inactive"
	}

	writeJSON(w, http.StatusOK, resp)
}

// TestAuth obtains a token and returns a truncated preview of it.
func (h *Handler) TestAuth(w http.ResponseWriter, r *http.Request) {
	token, err := h.tokens.AccessToken(r.Context())
	if err != nil {
		h.logger.Error("test auth failed", "error", err)
		writeError(w, http.StatusInternalServerError, "认证失败")
		return
	}

	preview := token
	if len(preview) > tokenPreviewLength {
		preview = preview[:tokenPreviewLength] + "..."
	}

	writeJSON(w, http.StatusOK, TestAuthResponse{
		Success:      true,
		Message:      "认证成功",
		TokenPreview: preview,
	})
}

// Chat answers one conversational turn.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeError(w, http.StatusBadRequest, "消息不能为空")
		return
	}

	history := make([]model.ChatMessage, 0, len(req.History))
	for _, m := range req.History {
		history = append(history, model.ChatMessage{Role: m.Role, Content: m.Content})
	}

	reply := h.chat.Handle(r.Context(), message, history)
	writeJSON(w, http.StatusOK, toChatResponse(reply))
}

// TemplateFields returns the resolved template with its field list.
func (h *Handler) TemplateFields(w http.ResponseWriter, r *http.Request) {
	tmpl, ok := h.resolveTemplate(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, TemplateResponse{
		ID:     tmpl.ID,
		Name:   tmpl.Name,
		Fields: application.FieldViews(tmpl.Fields),
	})
}

// TemplateDimensions lists the selectable items for every dimension-bound
// field of the current template.
func (h *Handler) TemplateDimensions(w http.ResponseWriter, r *http.Request) {
	tmpl, ok := h.resolveTemplate(w, r)
	if !ok {
		return
	}

	options, err := h.dimensions.ArchiveOptions(r.Context(), tmpl)
	if err != nil {
		h.logger.Error("failed to list archive options", "template", tmpl.ID, "error", err)
		writeError(w, http.StatusBadGateway, "获取档案选项失败")
		return
	}

	message := application.FormatArchiveOptions(options)
	resp := ArchiveOptionsResponse{
		Options: make([]ArchiveOptionResponse, 0, len(options)),
		Message: message,
		HTML:    renderHTML(message),
	}
	for _, opt := range options {
		resp.Options = append(resp.Options, toArchiveOptionResponse(opt))
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateRequisition runs a submission for free-form user input. It answers
// 201 on success and 422 when the submission failed.
func (h *Handler) CreateRequisition(w http.ResponseWriter, r *http.Request) {
	var req CreateRequisitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := strings.TrimSpace(req.UserInput)
	if input == "" {
		writeError(w, http.StatusBadRequest, "user_input is required")
		return
	}

	result := h.submissions.Submit(r.Context(), input)

	status := http.StatusCreated
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, toSubmissionResponse(result))
}

// ListDocuments returns recently created requisitions from the ledger.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := defaultDocumentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxDocumentLimit)
	}

	docs, err := h.submissions.RecentDocuments(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list documents", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, toDocumentResponse(doc))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetDocument returns a single ledger entry by document code.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	doc, err := h.submissions.DocumentByCode(r.Context(), code)
	if errors.Is(err, model.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get document", "code", code, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toDocumentResponse(*doc))
}

func (h *Handler) resolveTemplate(w http.ResponseWriter, r *http.Request) (*model.Template, bool) {
	tmpl, err := h.templates.ResolveTemplate(r.Context())
	if err == nil {
		return tmpl, true
	}

	h.logger.Error("failed to resolve template", "error", err)

	var authErr *model.AuthError
	var tmplErr *model.TemplateError
	switch {
	case errors.As(err, &authErr):
		writeError(w, http.StatusBadGateway, "认证失败")
	case errors.As(err, &tmplErr) && tmplErr.Err == nil:
		writeError(w, http.StatusNotFound, "未找到申请单模板")
	default:
		writeError(w, http.StatusBadGateway, "获取模板字段失败")
	}
	return nil, false
}
