// Package domain defines the core domain models for snapmesh.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a snapshot engine error with a structured error code.
//
// Codes have the form SM-<AREA>-<NNNN>; the last four digits loosely follow
// HTTP semantics (4xxx caller/baseline problems, 5xxx engine problems).
type DomainError struct {
	Code    string // Error code (e.g., "SM-SNAP-4090")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Configuration Errors (CONF)
// ============================================================================

var (
	// ErrConfiguration indicates the engine was set up without a required
	// collaborator (e.g. no serializer) or with an invalid option.
	ErrConfiguration = NewDomainError("SM-CONF-5000", "invalid snapshot configuration")
)

// ============================================================================
// Snapshot Errors (SNAP)
// ============================================================================

var (
	// ErrMissingBaselineGroup indicates no baseline exists at all for a group.
	ErrMissingBaselineGroup = NewDomainError("SM-SNAP-4040", "baseline group does not exist")

	// ErrMissingSnapshot indicates the group exists but the key was never recorded.
	ErrMissingSnapshot = NewDomainError("SM-SNAP-4041", "snapshot does not exist")

	// ErrSnapshotMismatch indicates the current value differs from the baseline.
	ErrSnapshotMismatch = NewDomainError("SM-SNAP-4090", "snapshots do not match")
)

// ============================================================================
// Storage Errors (STOR)
// ============================================================================

var (
	// ErrStorageIO indicates a baseline could not be read or written.
	ErrStorageIO = NewDomainError("SM-STOR-5001", "snapshot storage error")
)

// SnapshotError is the assertion failure raised by the matcher.
//
// Kind is one of ErrMissingBaselineGroup, ErrMissingSnapshot or
// ErrSnapshotMismatch. Expected is only meaningful when HasExpected is set;
// the two missing-baseline kinds never carry one.
type SnapshotError struct {
	Kind        *DomainError
	Key         string
	Actual      string
	Expected    string
	HasExpected bool

	// Diff is a unified diff of Expected against Actual, filled for mismatches.
	Diff string
}

// Error implements the error interface.
func (e *SnapshotError) Error() string {
	msg := fmt.Sprintf("[%s] %s: %q", e.Kind.Code, e.Kind.Message, e.Key)
	if e.Diff != "" {
		msg += "\n" + e.Diff
	}
	return msg
}

// Unwrap exposes the kind so errors.Is(err, ErrSnapshotMismatch) works.
func (e *SnapshotError) Unwrap() error {
	return e.Kind
}

// NewMissingGroupError builds an ErrMissingBaselineGroup failure.
func NewMissingGroupError(key, actual string) *SnapshotError {
	return &SnapshotError{Kind: ErrMissingBaselineGroup, Key: key, Actual: actual}
}

// NewMissingSnapshotError builds an ErrMissingSnapshot failure.
func NewMissingSnapshotError(key, actual string) *SnapshotError {
	return &SnapshotError{Kind: ErrMissingSnapshot, Key: key, Actual: actual}
}

// NewMismatchError builds an ErrSnapshotMismatch failure.
func NewMismatchError(key, actual, expected string) *SnapshotError {
	return &SnapshotError{
		Kind:        ErrSnapshotMismatch,
		Key:         key,
		Actual:      actual,
		Expected:    expected,
		HasExpected: true,
	}
}

// AsSnapshotError extracts a *SnapshotError from err.
func AsSnapshotError(err error) (*SnapshotError, bool) {
	var se *SnapshotError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
