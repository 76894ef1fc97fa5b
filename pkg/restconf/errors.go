// Package restconf implements the protocol layer for talking to an
// intent-based networking controller over RESTCONF: the transport
// contract, a concrete HTTP client, path templates for the YANG-modeled
// resources, and classification of the controller's error envelopes.
package restconf

import (
	"errors"
	"fmt"
)

// ErrorClass classifies a failure for branching logic in callers.
type ErrorClass string

const (
	// ErrorClassNotFound indicates the addressed resource does not exist.
	// Non-fatal: it drives the idempotent create/delete branches.
	ErrorClassNotFound ErrorClass = "not-found"

	// ErrorClassRemote indicates the controller rejected a request, either
	// with a non-2xx status or an error envelope inside a success body.
	ErrorClassRemote ErrorClass = "remote"

	// ErrorClassValidation indicates a local precondition failed (missing
	// file, missing field) before any remote call was made.
	ErrorClassValidation ErrorClass = "validation"

	// ErrorClassPartialApply indicates a write succeeded but a follow-up
	// verification or apply operation failed. The remote side holds the
	// new state; nothing is rolled back.
	ErrorClassPartialApply ErrorClass = "partial-apply"
)

// ClientError is a classified error carrying the identity of the remote
// resource involved.
type ClientError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Target is the intent target, if applicable.
	Target string `json:"target,omitempty"`

	// IntentType is the intent-type name, if applicable.
	IntentType string `json:"intent_type,omitempty"`

	// Version is the intent-type version, if applicable.
	Version int `json:"version,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	id := e.identity()
	switch {
	case id != "" && e.Err != nil:
		return fmt.Sprintf("[%s] %s (%s): %v", e.Class, e.Message, id, e.Err)
	case id != "":
		return fmt.Sprintf("[%s] %s (%s)", e.Class, e.Message, id)
	case e.Err != nil:
		return fmt.Sprintf("[%s] %s: %v", e.Class, e.Message, e.Err)
	default:
		return fmt.Sprintf("[%s] %s", e.Class, e.Message)
	}
}

// Unwrap returns the underlying error for error chain inspection.
func (e *ClientError) Unwrap() error {
	return e.Err
}

func (e *ClientError) identity() string {
	switch {
	case e.Target != "" && e.IntentType != "":
		return fmt.Sprintf("intent=%s/%s", e.IntentType, e.Target)
	case e.IntentType != "" && e.Version != 0:
		return fmt.Sprintf("intent-type=%s_v%d", e.IntentType, e.Version)
	case e.IntentType != "":
		return fmt.Sprintf("intent-type=%s", e.IntentType)
	default:
		return ""
	}
}

// NewNotFoundError creates a new not-found error.
func NewNotFoundError(message string) *ClientError {
	return &ClientError{Class: ErrorClassNotFound, Message: message}
}

// NewRemoteError creates a new remote error.
func NewRemoteError(message string, err error) *ClientError {
	return &ClientError{Class: ErrorClassRemote, Message: message, Err: err}
}

// NewValidationError creates a new local validation error.
func NewValidationError(message string) *ClientError {
	return &ClientError{Class: ErrorClassValidation, Message: message}
}

// NewPartialApplyError creates a new partial-apply error.
func NewPartialApplyError(message string, err error) *ClientError {
	return &ClientError{Class: ErrorClassPartialApply, Message: message, Err: err}
}

// WithIntent adds intent identity to the error.
func (e *ClientError) WithIntent(target, intentType string) *ClientError {
	e.Target = target
	e.IntentType = intentType
	return e
}

// WithIntentType adds intent-type identity to the error.
func (e *ClientError) WithIntentType(intentType string, version int) *ClientError {
	e.IntentType = intentType
	e.Version = version
	return e
}

// IsNotFound returns true if the error is classified as not-found.
func IsNotFound(err error) bool {
	return hasClass(err, ErrorClassNotFound)
}

// IsRemote returns true if the error is classified as remote.
func IsRemote(err error) bool {
	return hasClass(err, ErrorClassRemote)
}

// IsValidation returns true if the error is classified as validation.
func IsValidation(err error) bool {
	return hasClass(err, ErrorClassValidation)
}

// IsPartialApply returns true if the error is classified as partial-apply.
func IsPartialApply(err error) bool {
	return hasClass(err, ErrorClassPartialApply)
}

func hasClass(err error, class ErrorClass) bool {
	var e *ClientError
	if errors.As(err, &e) {
		return e.Class == class
	}
	return false
}
