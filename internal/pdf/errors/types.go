package errors

import (
	"errors"
	"fmt"
	"time"
)

// PDFError describes why a document could not be turned into text
type PDFError struct {
	Type        ErrorType `json:"type"`
	Message     string    `json:"message"`
	Context     string    `json:"context,omitempty"`
	Recoverable bool      `json:"recoverable"`
	Timestamp   time.Time `json:"timestamp"`
	Cause       error     `json:"-"`
}

// ErrorType represents the categories of acquisition failures
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeInvalidHeader
	ErrorTypeEmptyDocument
	ErrorTypeFileTooLarge
	ErrorTypeCorruptedData
	ErrorTypeOCRFailure
	ErrorTypeNoText
)

// Error implements the error interface
func (e *PDFError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
	if e.Context != "" {
		msg += ": " + e.Context
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause to errors.Is and errors.As
func (e *PDFError) Unwrap() error {
	return e.Cause
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeInvalidHeader:
		return "INVALID_HEADER"
	case ErrorTypeEmptyDocument:
		return "EMPTY_DOCUMENT"
	case ErrorTypeFileTooLarge:
		return "FILE_TOO_LARGE"
	case ErrorTypeCorruptedData:
		return "CORRUPTED_DATA"
	case ErrorTypeOCRFailure:
		return "OCR_FAILURE"
	case ErrorTypeNoText:
		return "NO_TEXT"
	default:
		return "UNKNOWN"
	}
}

// IsRecoverable reports whether another acquisition path may still succeed.
// A corrupted text layer can still be rasterized; a failed OCR pass can still
// leave a sparse text layer to work with.
func (et ErrorType) IsRecoverable() bool {
	switch et {
	case ErrorTypeCorruptedData, ErrorTypeOCRFailure:
		return true
	default:
		return false
	}
}

// NewPDFError creates a new PDFError
func NewPDFError(errorType ErrorType, message string) *PDFError {
	return &PDFError{
		Type:        errorType,
		Message:     message,
		Recoverable: errorType.IsRecoverable(),
		Timestamp:   time.Now(),
	}
}

// NewPDFErrorWithContext creates a new PDFError with additional context
func NewPDFErrorWithContext(errorType ErrorType, message, context string) *PDFError {
	e := NewPDFError(errorType, message)
	e.Context = context
	return e
}

// WrapError wraps a standard error as a PDFError
func WrapError(errorType ErrorType, message string, err error) *PDFError {
	e := NewPDFError(errorType, message)
	e.Cause = err
	return e
}

// WithContext adds context to an existing PDFError
func (e *PDFError) WithContext(context string) *PDFError {
	e.Context = context
	return e
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var pdfErr *PDFError
	if errors.As(err, &pdfErr) {
		return pdfErr.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err is a PDFError of the given type
func IsType(err error, errorType ErrorType) bool {
	return err != nil && TypeOf(err) == errorType
}

// IsRecoverable reports whether err leaves room for a fallback path
func IsRecoverable(err error) bool {
	var pdfErr *PDFError
	if errors.As(err, &pdfErr) {
		return pdfErr.Recoverable
	}
	return false
}
