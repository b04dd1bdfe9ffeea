package i18n

// Common errors
var (
	ErrNotFound       = NewErrorWithCode("ErrorResourceNotFound", ErrorNotFound)
	ErrUnauthorized   = NewErrorWithCode("ErrorUnauthorized", ErrorUnauthorized)
	ErrForbidden      = NewErrorWithCode("ErrorForbidden", ErrorForbidden)
	ErrBadRequest     = NewErrorWithCode("ErrorBadRequest", ErrorBadRequest)
	ErrInternalServer = NewErrorWithCode("ErrorInternalServer", ErrorInternalServer)
)

// Authentication errors
var (
	ErrorInvalidCredentials       = NewErrorWithCode("ErrorInvalidCredentials", ErrorUnauthorized)
	ErrorInvalidToken             = NewErrorWithCode("ErrorInvalidToken", ErrorUnauthorized)
	ErrorUserNamePasswordRequired = NewErrorWithCode("ErrorUserNamePasswordRequired", ErrorBadRequest)
)

// Write errors
var (
	ErrorValidationFailed  = NewErrorWithCode("ErrorValidationFailed", ErrorBadRequest)
	ErrorTransactionFailed = NewErrorWithCode("ErrorTransactionFailed", ErrorInternalServer)
)
