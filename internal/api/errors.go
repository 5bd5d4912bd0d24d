package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/nuverotech/gst-automation-tool/internal/model"
)

// Error is a rejection from the server. Detail carries the server-supplied
// message when one was present in the body.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

// DownloadError marks a failed artifact fetch so callers can surface it
// distinctly from ordinary request errors.
type DownloadError struct {
	Err error
}

func (e *DownloadError) Error() string {
	return "download failed: " + e.Err.Error()
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// decodeError extracts a human-readable message from an error response. The
// server emits either FastAPI-style {"detail": ...} bodies, where detail may
// be a plain string or structured, or envelope bodies with error/message
// fields.
func decodeError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apiErr
	}
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Error   *string         `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return apiErr
	}
	switch {
	case len(payload.Detail) > 0:
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			apiErr.Detail = s
		} else {
			apiErr.Detail = string(payload.Detail)
		}
	case payload.Error != nil && *payload.Error != "":
		apiErr.Detail = *payload.Error
	case payload.Message != "":
		apiErr.Detail = payload.Message
	}
	return apiErr
}

// decodeEnvelope unwraps a {success, message, data, error} body into out.
// An envelope with success=false becomes an *Error even on HTTP 200.
func decodeEnvelope(resp *http.Response, out interface{}) error {
	var env model.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if !env.Success {
		detail := env.Message
		if env.Error != nil && *env.Error != "" {
			detail = *env.Error
		}
		return &Error{StatusCode: resp.StatusCode, Detail: detail}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
	}
	return nil
}
