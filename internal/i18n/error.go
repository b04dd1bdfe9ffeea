package i18n

import (
	"errors"
	"maps"
	"net/http"
)

// ErrorCode represents an HTTP status code
type ErrorCode int

// Standard HTTP status codes
const (
	ErrorBadRequest     ErrorCode = http.StatusBadRequest
	ErrorUnauthorized   ErrorCode = http.StatusUnauthorized
	ErrorForbidden      ErrorCode = http.StatusForbidden
	ErrorNotFound       ErrorCode = http.StatusNotFound
	ErrorInternalServer ErrorCode = http.StatusInternalServerError
)

// I18nError represents an internationalized error
type I18nError struct {
	// MessageID is the key used for translation lookup
	MessageID string
	// Data holds template parameters for the message
	Data map[string]any
}

// New creates a new I18nError with the given message ID
func New(messageID string) *I18nError {
	return &I18nError{MessageID: messageID}
}

// WithParam returns a copy of the error with one more template parameter
func (e *I18nError) WithParam(key string, value any) *I18nError {
	data := maps.Clone(e.Data)
	if data == nil {
		data = make(map[string]any, 1)
	}
	data[key] = value
	return &I18nError{MessageID: e.MessageID, Data: data}
}

// Error renders the message in the default language
func (e *I18nError) Error() string {
	return Translate(e.MessageID, "", e.Data)
}

// ErrorWithCode is an error with a code that can be used in API responses
type ErrorWithCode struct {
	*I18nError
	Code ErrorCode
}

// NewErrorWithCode creates a new error with a code
func NewErrorWithCode(messageID string, code ErrorCode) *ErrorWithCode {
	return &ErrorWithCode{
		I18nError: New(messageID),
		Code:      code,
	}
}

// WithParam returns a copy of the error with one more template parameter
func (e *ErrorWithCode) WithParam(key string, value any) *ErrorWithCode {
	return &ErrorWithCode{I18nError: e.I18nError.WithParam(key, value), Code: e.Code}
}

// GetCode returns the error code
func (e *ErrorWithCode) GetCode() ErrorCode {
	return e.Code
}

// Is matches errors with the same message ID
func (e *ErrorWithCode) Is(target error) bool {
	var other *ErrorWithCode
	return errors.As(target, &other) && other.MessageID == e.MessageID
}
