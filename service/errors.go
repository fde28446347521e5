package service

import (
	"errors"
	"fmt"
)

var (
	// ErrFolderNotFound means a company has no candidate reports at all.
	ErrFolderNotFound = errors.New("report folder not found")
	// ErrFileNotFound means no candidate is similar enough to the requested file name.
	ErrFileNotFound = errors.New("no report matches the requested file name")
	// ErrHeaderNotFound means no header row was found in the scanned rows of a sheet.
	ErrHeaderNotFound = errors.New("header row not found")
	// ErrSheetNotFound means the requested sheet does not exist in the workbook.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrColumnNotFound means a requested column is missing from the header row.
	ErrColumnNotFound = errors.New("column not found")
	// ErrUnknownStrategy means no recommender is registered under the requested name.
	ErrUnknownStrategy = errors.New("unknown extraction strategy")
	// ErrCompletionUnavailable means the model strategy was requested without a completion backend.
	ErrCompletionUnavailable = errors.New("completion service not configured")
)

// Extraction stages.
const (
	StagePDF        = "pdf"
	StageSource     = "source"
	StageCompletion = "completion"
)

// ExtractionError reports a row-local failure to obtain text or recommendations.
// The message of the wrapped error is kept for display.
type ExtractionError struct {
	Stage string
	Key   string
	Err   error
}

func (e *ExtractionError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s extraction failed for %s: %v", e.Stage, e.Key, e.Err)
	}
	return fmt.Sprintf("%s extraction failed: %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
