package model

import (
	"time"
)

// ScanJob is one batch run over an uploaded project workbook.
type ScanJob struct {
	ID        string      `json:"id"`
	Workbook  string      `json:"workbook"`
	Sheet     string      `json:"sheet"`
	Strategy  string      `json:"strategy"`
	Company   string      `json:"company,omitempty"` // optional row filter
	Merge     bool        `json:"merge"`
	Status    string      `json:"status"` // pending, running, completed, failed
	Rows      int         `json:"rows"`
	Results   ResultTable `json:"results,omitempty"`
	Artifact  []byte      `json:"-"`
	ErrorMsg  string      `json:"error_msg,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Job status constants
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)
