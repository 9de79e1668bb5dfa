package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when a lookup has no result.
var ErrNotFound = errors.New("not found")

// AuthError is returned when neither a refresh nor a reissue produced a token.
type AuthError struct {
	RefreshErr error
	IssueErr   error
}

func (e *AuthError) Error() string {
	if e.RefreshErr != nil {
		return fmt.Sprintf("obtain access token: refresh: %v; reissue: %v", e.RefreshErr, e.IssueErr)
	}
	return fmt.Sprintf("obtain access token: %v", e.IssueErr)
}

func (e *AuthError) Unwrap() []error {
	var errs []error
	for _, err := range []error{e.RefreshErr, e.IssueErr} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// TemplateError is returned when no usable template could be resolved.
type TemplateError struct {
	Reason string
	Err    error
}

func (e *TemplateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *TemplateError) Unwrap() error { return e.Err }

// ValidationError rejects a field mapping before anything is sent.
// Field is empty for constraints that are not tied to a missing field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// SubmissionError is returned when the platform rejects a create call.
// Body holds the raw response body.
type SubmissionError struct {
	StatusCode int
	Body       string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("create request rejected (status %d): %s", e.StatusCode, e.Body)
}
