package common

import (
	"errors"
	"fmt"
)

// AppError tags a failure with a stable code for logs and exit handling.
// Sentinels below are joined into Cause so callers can use errors.Is.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

var (
	ErrConfig   = errors.New("configuration error")
	ErrDatabase = errors.New("database error")

	// per-file failures; none of these mark a file as processed
	ErrExtraction      = errors.New("text extraction failed")
	ErrEncrypted       = errors.New("pdf is encrypted")
	ErrNoPages         = errors.New("pdf has no pages")
	ErrUnsupported     = errors.New("unsupported file type")
	ErrTextTooShort    = errors.New("extracted text too short")
	ErrNotReady        = errors.New("file not ready")
	ErrLedgerIO        = errors.New("ledger write failed")
	ErrAlreadyRecorded = errors.New("file already recorded")
)
