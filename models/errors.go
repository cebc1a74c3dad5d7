package models

import (
	"errors"
	"fmt"
)

// Validation and admission errors, rejected synchronously before a job exists.
var (
	ErrNoFile             = errors.New("no file uploaded")
	ErrMissingExtension   = errors.New("filename has no extension")
	ErrSelfConversion     = errors.New("target format equals source format")
	ErrUnsupportedPairing = errors.New("unsupported conversion pairing")
	ErrPayloadTooLarge    = errors.New("uploaded file exceeds size limit")
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrUnknownJob         = errors.New("unknown job id")
	ErrQueueFull          = errors.New("conversion queue is full")
)

// ConversionError wraps an engine failure with sanitized diagnostic detail.
// It is recorded on the job, never raised to a request handler.
type ConversionError struct {
	Detail string
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("conversion failed: %s: %v", e.Detail, e.Err)
	}
	return "conversion failed: " + e.Detail
}

func (e *ConversionError) Unwrap() error { return e.Err }

// NewConversionError builds a ConversionError with detail truncated to a safe
// length so raw engine output cannot flood the job record or leak paths from
// deep inside the toolchain.
func NewConversionError(detail string, err error) *ConversionError {
	const maxDetail = 500
	if len(detail) > maxDetail {
		detail = detail[:maxDetail] + "..."
	}
	return &ConversionError{Detail: detail, Err: err}
}
