package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/requisitionbot/internal/application"
	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the liveness endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// ServicesHealthResponse reports each dependency as "ok" or "error".
type ServicesHealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// VersionResponse is the JSON body of the version endpoint.
type VersionResponse struct {
	SystemVersion  string            `json:"system_version"`
	Components     map[string]string `json:"components"`
	Features       []string          `json:"features"`
	EkuaibaoStatus string            `json:"ekuaibao_status"`
	TokenStatus    string            `json:"token_status"`
}

// TestAuthResponse is the JSON body of a successful auth probe.
type TestAuthResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	TokenPreview string `json:"token_preview"`
}

// ChatMessageRequest is one prior turn sent by the client.
type ChatMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the JSON body for the chat endpoint.
type ChatRequest struct {
	Message string               `json:"message"`
	History []ChatMessageRequest `json:"history"`
}

// ChatResponse is the JSON reply of the chat endpoint. Message is Markdown
// and HTML is its sanitized rendering.
type ChatResponse struct {
	Message string         `json:"message"`
	Type    string         `json:"type"`
	Data    map[string]any `json:"data,omitempty"`
	HTML    string         `json:"html"`
}

// TemplateResponse is the JSON representation of a resolved template.
type TemplateResponse struct {
	ID     string                  `json:"id"`
	Name   string                  `json:"name"`
	Fields []application.FieldView `json:"fields"`
}

// DimensionItemResponse is one selectable archive item.
type DimensionItemResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// ArchiveOptionResponse lists the items of one dimension-bound field.
type ArchiveOptionResponse struct {
	FieldName   string                  `json:"field_name"`
	FieldLabel  string                  `json:"field_label"`
	ArchiveName string                  `json:"archive_name"`
	Required    bool                    `json:"required"`
	CategoryID  string                  `json:"category_id,omitempty"`
	Options     []DimensionItemResponse `json:"options"`
	Error       string                  `json:"error,omitempty"`
}

// ArchiveOptionsResponse is the JSON body of the template dimensions endpoint.
type ArchiveOptionsResponse struct {
	Options []ArchiveOptionResponse `json:"options"`
	Message string                  `json:"message"`
	HTML    string                  `json:"html"`
}

// CreateRequisitionRequest is the JSON body for the create endpoint.
type CreateRequisitionRequest struct {
	UserInput string `json:"user_input"`
}

// SubmissionResponse is the JSON representation of a submission outcome.
type SubmissionResponse struct {
	Success       bool           `json:"success"`
	Message       string         `json:"message"`
	HTML          string         `json:"html"`
	DocumentCode  string         `json:"document_code,omitempty"`
	DocumentTitle string         `json:"document_title,omitempty"`
	FlowID        string         `json:"flow_id,omitempty"`
	Payload       map[string]any `json:"payload,omitempty"`
}

// DocumentResponse is the JSON representation of a ledger entry.
type DocumentResponse struct {
	Code       string `json:"code"`
	Title      string `json:"title"`
	FlowID     string `json:"flow_id"`
	TemplateID string `json:"template_id"`
	Amount     string `json:"amount"`
	CreatedAt  string `json:"created_at"`
}

func toChatResponse(reply model.ChatReply) ChatResponse {
	return ChatResponse{
		Message: reply.Message,
		Type:    string(reply.Type),
		Data:    reply.Data,
		HTML:    renderHTML(reply.Message),
	}
}

func toArchiveOptionResponse(opt model.ArchiveOption) ArchiveOptionResponse {
	items := make([]DimensionItemResponse, 0, len(opt.Options))
	for _, item := range opt.Options {
		items = append(items, DimensionItemResponse{ID: item.ID, Name: item.Name, Code: item.Code})
	}

	return ArchiveOptionResponse{
		FieldName:   opt.FieldName,
		FieldLabel:  opt.FieldLabel,
		ArchiveName: opt.ArchiveName,
		Required:    opt.Required,
		CategoryID:  opt.CategoryID,
		Options:     items,
		Error:       opt.Error,
	}
}

// toSubmissionResponse converts a submission result. On success the payload
// is omitted since the created document already identifies it.
func toSubmissionResponse(result model.SubmissionResult) SubmissionResponse {
	resp := SubmissionResponse{
		Success: result.Success,
		Message: result.Message,
		HTML:    renderHTML(result.Message),
	}
	if result.Success {
		resp.DocumentCode = result.DocumentCode
		resp.DocumentTitle = result.DocumentTitle
		resp.FlowID = result.FlowID
		return resp
	}
	resp.Payload = result.Payload
	return resp
}

func toDocumentResponse(doc model.Document) DocumentResponse {
	return DocumentResponse{
		Code:       doc.Code,
		Title:      doc.Title,
		FlowID:     doc.FlowID,
		TemplateID: doc.TemplateID,
		Amount:     doc.Amount,
		CreatedAt:  doc.CreatedAt.UTC().Format(time.RFC3339),
	}
}
