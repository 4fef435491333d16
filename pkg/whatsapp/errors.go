package whatsapp

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCredentials = errors.New("whatsapp: token and phone number id are required")
	ErrMissingRecipient   = errors.New("whatsapp: recipient phone is required")
)

// APIError is a non-2xx answer of the Cloud API. When the body is not the
// documented JSON error object, Body keeps the raw text.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       int    `json:"code"`
	Subcode    int    `json:"error_subcode,omitempty"`
	FBTraceID  string `json:"fbtrace_id,omitempty"`
	Body       string `json:"-"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("whatsapp: status %d: %s (type=%s code=%d)", e.StatusCode, e.Message, e.Type, e.Code)
	}
	return fmt.Sprintf("whatsapp: status %d: %s", e.StatusCode, e.Body)
}
