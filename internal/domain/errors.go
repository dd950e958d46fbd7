package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Error types for consistent error handling across the BFA.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a transport-level failure talking to the backend.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrUpstream is a non-2xx answer from the backend, already remapped to a
// user-facing message.
type ErrUpstream struct {
	Resource string
	Status   int
	Message  string
}

func (e *ErrUpstream) Error() string {
	return e.Message
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation carries field-level messages produced before any network call.
type ErrValidation struct {
	Field   string
	Message string
	Fields  map[string]string
}

func (e *ErrValidation) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		return fmt.Sprintf("validation error on %s", strings.Join(keys, ", "))
	}
	return "validation error: " + e.Message
}

// ErrPrecondition reports a synchronous precondition failure of the
// activation sequence. No network call has been issued when it is returned.
type ErrPrecondition struct {
	Reason string
}

func (e *ErrPrecondition) Error() string {
	return e.Reason
}

// ErrForbidden indicates the user lacks permission for the operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrConflict indicates a resource already exists (e.g. duplicate CNPJ).
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrActivationStep reports which named step of the plan activation failed
// and which completed steps were undone. Committed is set when the failure
// happened after the subscription was already created; RedirectTo then
// tells the caller where to continue.
type ErrActivationStep struct {
	Step            string
	Message         string
	Compensated     []string
	CompensationErr error
	Committed       bool
	RedirectTo      string
	Err             error
}

func (e *ErrActivationStep) Error() string {
	return fmt.Sprintf("activation step %s failed: %v", e.Step, e.Err)
}

func (e *ErrActivationStep) Unwrap() error {
	return e.Err
}
