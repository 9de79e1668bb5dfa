package model

import "time"

// SubmissionResult is what the orchestrator reports back to the chat layer.
// Failures are expressed with Success=false and a user-facing Message.
type SubmissionResult struct {
	Success       bool
	Message       string
	DocumentCode  string
	DocumentTitle string
	FlowID        string
	Payload       CoercedPayload
}

// CreatedFlow is the platform's answer to a successful create call.
type CreatedFlow struct {
	FlowID string
	Code   string
	Title  string
	Form   map[string]any
}

// Document is a requisition created through this service, kept in the
// local ledger.
type Document struct {
	ID         int64
	Code       string
	Title      string
	FlowID     string
	TemplateID string
	Amount     string
	CreatedAt  time.Time
}
