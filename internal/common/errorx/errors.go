package errorx

import (
	"fmt"
	"sort"
	"strings"
)

// FieldError is one problem with one input field. Code is a translation
// message id; Params fill its template.
type FieldError struct {
	Field  string
	Code   string
	Params map[string]any
}

// ValidationError reports input that violates field constraints
type ValidationError struct {
	Errors []FieldError
}

// NewValidationError creates a ValidationError holding a single field error
func NewValidationError(field, code string, params map[string]any) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Code: code, Params: params}}}
}

// Add appends a field error
func (e *ValidationError) Add(field, code string, params map[string]any) {
	e.Errors = append(e.Errors, FieldError{Field: field, Code: code, Params: params})
}

// Merge appends the errors of other
func (e *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	e.Errors = append(e.Errors, other.Errors...)
}

// Empty reports whether no field error was collected
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Errors) == 0
}

// OrNil returns e as an error, or nil when it holds nothing
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

// Fields returns the offending field names, sorted and deduplicated
func (e *ValidationError) Fields() []string {
	seen := make(map[string]struct{}, len(e.Errors))
	out := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		if _, ok := seen[fe.Field]; ok {
			continue
		}
		seen[fe.Field] = struct{}{}
		out = append(out, fe.Field)
	}
	sort.Strings(out)
	return out
}

// Has reports whether field has an error with the given code.
// An empty code matches any error on the field.
func (e *ValidationError) Has(field, code string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field && (code == "" || fe.Code == code) {
			return true
		}
	}
	return false
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Code)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ReferenceError reports a reference to a missing or mismatched record
type ReferenceError struct {
	Field      string
	Collection string
	ID         any
	Code       string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s: %s %v: %s", e.Field, e.Collection, e.ID, e.Code)
}

// NotFoundError reports an operation on a missing identifier
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Collection, e.ID)
}

// AuthorizationError reports a caller that may not run an operation.
// Authenticated distinguishes forbidden callers from anonymous ones.
type AuthorizationError struct {
	Authenticated bool
}

func (e *AuthorizationError) Error() string {
	if e.Authenticated {
		return "forbidden"
	}
	return "unauthenticated"
}

// TransactionError reports an atomic multi-record operation that failed
// part way and was rolled back
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s rolled back: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}
