// Package events contains the websocket message contracts used to push
// cleaning job progress to connected clients.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// MessageTypeJobSnapshot carries the full state of one cleaning job. It
	// is the only progress message; clients replace their copy on receipt.
	MessageTypeJobSnapshot MessageType = "job:snapshot"

	MessageTypeSystemStatus MessageType = "system:status"

	MessageTypeConnect MessageType = "connect"
	MessageTypeError   MessageType = "error"
)

// Job and step states shared by snapshots and the job API
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
	StatusSkipped   = "skipped"
)

// IsTerminal reports whether status is final
func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Message is the envelope written to every websocket client
type Message struct {
	Type      MessageType `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// JobSnapshot is the state of a cleaning job at a point in time
type JobSnapshot struct {
	JobID       string         `json:"job_id"`
	Input       string         `json:"input"`
	Status      string         `json:"status"`
	Progress    int            `json:"progress"` // 0-100
	CurrentStep string         `json:"current_step,omitempty"`
	Steps       []StepSnapshot `json:"steps"`
	StartedAt   time.Time      `json:"started_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	ETA         string         `json:"eta,omitempty"`
	Error       string         `json:"error,omitempty"`
	Message     string         `json:"message,omitempty"`
}

// StepSnapshot is the state of one pipeline step within a job
type StepSnapshot struct {
	Name     string                 `json:"name"`
	Status   string                 `json:"status"`
	Progress int                    `json:"progress"`
	Message  string                 `json:"message,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ConnectData is sent to a client right after it registers
type ConnectData struct {
	ClientID string `json:"client_id"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

// ErrorData describes a failure pushed over the socket
type ErrorData struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	JobID       string `json:"job_id,omitempty"`
	Recoverable bool   `json:"recoverable"`
}

// SystemStatusData is a periodic health summary
type SystemStatusData struct {
	Status     string            `json:"status"` // healthy|degraded|unhealthy
	Components map[string]string `json:"components"`
	Uptime     string            `json:"uptime"`
	Version    string            `json:"version"`
}
