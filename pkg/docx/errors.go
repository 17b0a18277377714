package docx

import (
	"errors"
	"fmt"
	"strings"
)

// Failure kinds. Every error returned by this package matches exactly one of
// them with errors.Is.
var (
	ErrTemplateCorrupt    = errors.New("template corrupt")
	ErrTemplateIncomplete = errors.New("template incomplete")
	ErrFragmentNotFound   = errors.New("fragment not found")
	ErrFragmentCorrupt    = errors.New("fragment corrupt")
	ErrAssemblyFailed     = errors.New("assembly failed")
	ErrWriteError         = errors.New("write error")
)

// DocumentError represents an error during document operations
type DocumentError struct {
	Kind      error
	Operation string
	Path      string
	Cause     error
}

func (e *DocumentError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	sb.WriteString(" during ")
	sb.WriteString(e.Operation)
	if e.Path != "" {
		fmt.Fprintf(&sb, " of '%s'", e.Path)
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap exposes both the kind and the underlying cause
func (e *DocumentError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// NewDocumentError creates a new document error
func NewDocumentError(kind error, operation, path string, cause error) error {
	return &DocumentError{
		Kind:      kind,
		Operation: operation,
		Path:      path,
		Cause:     cause,
	}
}

// IsDocumentError checks if an error is a document error
func IsDocumentError(err error) bool {
	var de *DocumentError
	return errors.As(err, &de)
}

// MultiError collects multiple errors
type MultiError struct {
	errors []error
}

// NewMultiError creates a new multi-error collector
func NewMultiError() *MultiError {
	return &MultiError{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collection (ignores nil errors)
func (m *MultiError) Add(err error) {
	if err != nil {
		m.errors = append(m.errors, err)
	}
}

// Len returns the number of errors
func (m *MultiError) Len() int {
	return len(m.errors)
}

// Err returns the multi-error or nil if empty
func (m *MultiError) Err() error {
	if len(m.errors) == 0 {
		return nil
	}
	if len(m.errors) == 1 {
		return m.errors[0]
	}
	return m
}

// Unwrap lets errors.Is see every collected error
func (m *MultiError) Unwrap() []error {
	return m.errors
}

func (m *MultiError) Error() string {
	if len(m.errors) == 0 {
		return "no errors"
	}
	if len(m.errors) == 1 {
		return m.errors[0].Error()
	}

	parts := []string{fmt.Sprintf("%d errors occurred:", len(m.errors))}
	for i, err := range m.errors {
		parts = append(parts, fmt.Sprintf("  [%d] %v", i+1, err))
	}
	return strings.Join(parts, "\n")
}

// RecoverError converts a panic recovery value to an error
func RecoverError(r interface{}) error {
	switch v := r.(type) {
	case error:
		return fmt.Errorf("panic recovered: %w", v)
	case string:
		return fmt.Errorf("panic recovered: %s", v)
	default:
		return fmt.Errorf("panic recovered: %v", v)
	}
}

// Warning is a non-fatal diagnostic attached to a build
type Warning struct {
	Source  string
	Message string
}

func (w Warning) String() string {
	if w.Source == "" {
		return w.Message
	}
	return w.Source + ": " + w.Message
}

// Warnings accumulates diagnostics in order
type Warnings []Warning

// Addf appends a formatted warning
func (ws *Warnings) Addf(source, format string, args ...interface{}) {
	*ws = append(*ws, Warning{Source: source, Message: fmt.Sprintf(format, args...)})
}
