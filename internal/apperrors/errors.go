package apperrors

import "fmt"

// ErrInvalidCategory is returned when a caller supplies a media category
// outside the known enumeration.
type ErrInvalidCategory struct {
	Category string
}

// Error implements the error interface.
func (e *ErrInvalidCategory) Error() string {
	return fmt.Sprintf("invalid media category %q", e.Category)
}

// Is allows for error checking with errors.Is().
func (e *ErrInvalidCategory) Is(target error) bool {
	_, ok := target.(*ErrInvalidCategory)
	return ok
}

// NewInvalidCategoryError creates a new ErrInvalidCategory.
func NewInvalidCategoryError(category string) *ErrInvalidCategory {
	return &ErrInvalidCategory{Category: category}
}

// ErrInvalidSource is returned when a details request names a source outside
// the closed allow-list. The federation layer refuses to guess.
type ErrInvalidSource struct {
	Source string
}

// Error implements the error interface.
func (e *ErrInvalidSource) Error() string {
	return fmt.Sprintf("invalid source %q", e.Source)
}

// Is allows for error checking with errors.Is().
func (e *ErrInvalidSource) Is(target error) bool {
	_, ok := target.(*ErrInvalidSource)
	return ok
}

// NewInvalidSourceError creates a new ErrInvalidSource.
func NewInvalidSourceError(source string) *ErrInvalidSource {
	return &ErrInvalidSource{Source: source}
}

// ErrCredentialMissing is returned when an adapter that requires an API key
// is invoked without one. It is recoverable: the host is expected to prompt
// the user for configuration rather than display a generic failure.
type ErrCredentialMissing struct {
	Source string
}

// Error implements the error interface.
func (e *ErrCredentialMissing) Error() string {
	return fmt.Sprintf("no API key configured for %s", e.Source)
}

// Is allows for error checking with errors.Is().
func (e *ErrCredentialMissing) Is(target error) bool {
	_, ok := target.(*ErrCredentialMissing)
	return ok
}

// NewCredentialMissingError creates a new ErrCredentialMissing.
func NewCredentialMissingError(source string) *ErrCredentialMissing {
	return &ErrCredentialMissing{Source: source}
}

// ErrUpstream wraps any transport-level failure talking to a provider:
// network error, timeout, non-2xx status, or a malformed payload. Raw
// transport errors never cross the federation boundary unwrapped.
type ErrUpstream struct {
	Source string
	Op     string // short description of the failing operation, e.g. "search", "details"
	Err    error
}

// Error implements the error interface.
func (e *ErrUpstream) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %v", e.Source, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s failed", e.Source, e.Op)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *ErrUpstream) Unwrap() error {
	return e.Err
}

// Is allows for error checking with errors.Is().
func (e *ErrUpstream) Is(target error) bool {
	_, ok := target.(*ErrUpstream)
	return ok
}

// NewUpstreamError creates a new ErrUpstream.
func NewUpstreamError(source, op string, err error) *ErrUpstream {
	return &ErrUpstream{Source: source, Op: op, Err: err}
}
