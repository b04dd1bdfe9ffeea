package cnst

// Supported languages
const (
	LangEN      = "en"
	LangPT      = "pt"
	LangDefault = LangEN
)

// Header and context keys
const (
	XLang            = "X-Lang"
	XRequestID       = "X-Request-ID"
	CtxKeyTranslator = "translator"
	CtxKeyClaims     = "claims"
	CtxKeyRequestID  = "request_id"
)
