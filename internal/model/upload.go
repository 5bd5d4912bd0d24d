// Package model contains the wire types exchanged with the GST Automation
// Tool API. The server owns every record here; the client only observes.
package model

import (
	"encoding/json"
	"strings"
	"time"
)

// ProcessingStatus describes the server-side lifecycle of an upload:
// pending -> processing -> {completed | failed}. The client never writes
// this state, it only reads what the server reports.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// IsTerminal reports whether no further transitions can occur.
func (s ProcessingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ParseStatus normalizes a server-reported status string. Comparison is
// case-insensitive; unknown values are passed through lowercased so callers
// can still display them.
func ParseStatus(raw string) ProcessingStatus {
	return ProcessingStatus(strings.ToLower(strings.TrimSpace(raw)))
}

// Upload is one row of the server's upload history.
//
// ProcessedFilePath is set if and only if the status is completed;
// ErrorMessage is set only when the status is failed.
type Upload struct {
	ID                int              `json:"id"`
	Filename          string           `json:"filename"`
	OriginalFilename  string           `json:"original_filename"`
	FileSize          int64            `json:"file_size"`
	Status            ProcessingStatus `json:"status"`
	TaskID            *string          `json:"task_id,omitempty"`
	ProcessedFilePath *string          `json:"processed_file_path,omitempty"`
	ErrorMessage      *string          `json:"error_message,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         *time.Time       `json:"updated_at,omitempty"`
	CompletedAt       *time.Time       `json:"completed_at,omitempty"`
}

// UploadStatus is the poll response body: a slim view of an Upload plus the
// 0-100 progress figure reported by the background task.
type UploadStatus struct {
	ID                int              `json:"id"`
	Status            ProcessingStatus `json:"status"`
	Progress          int              `json:"progress"`
	TaskID            *string          `json:"task_id,omitempty"`
	ProcessedFilePath *string          `json:"processed_file_path,omitempty"`
	ErrorMessage      *string          `json:"error_message,omitempty"`
}

// Envelope wraps the upload, status, and template route payloads.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *string         `json:"error,omitempty"`
}
