package errorx

// Field that carries errors not tied to a single input field
const NonFieldErrors = "non_field_errors"

// Message ids of field level problems
const (
	CodeInvalidBody     = "ErrorInvalidBody"
	CodeUnknownField    = "ErrorUnknownField"
	CodeRequired        = "ErrorFieldRequired"
	CodeBlank           = "ErrorFieldBlank"
	CodeNull            = "ErrorFieldNull"
	CodeInvalid         = "ErrorFieldInvalid"
	CodeNestedWrite     = "ErrorNestedWrite"
	CodeMaxLength       = "ErrorFieldMaxLength"
	CodeMaxBytes        = "ErrorFieldMaxBytes"
	CodeMinValue        = "ErrorFieldMinValue"
	CodeMaxValue        = "ErrorFieldMaxValue"
	CodeChoice          = "ErrorFieldChoice"
	CodeEmail           = "ErrorFieldEmail"
	CodeMoney           = "ErrorFieldMoney"
	CodeUsername        = "ErrorFieldUsername"
	CodeUnique          = "ErrorFieldUnique"
	CodeImmutable       = "ErrorFieldImmutable"
	CodeOrdering        = "ErrorOrderingField"
	CodeRefNotFound     = "ErrorReferenceNotFound"
	CodeRefRoleMismatch = "ErrorReferenceRoleMismatch"
)
