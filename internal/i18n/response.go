package i18n

import (
	"errors"
	"maps"
	"net/http"

	"github.com/amoylab/casamento/internal/common/errorx"
	"github.com/gin-gonic/gin"
)

// ErrorBody is the JSON body of every error reply
type ErrorBody struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// RespondWithError sends the status and translated body matching err
func RespondWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status, body := Render(Lang(c), err)
	c.AbortWithStatusJSON(status, body)
}

// Render maps err to an HTTP status and a body translated to lang
func Render(lang string, err error) (int, ErrorBody) {
	var (
		verr  *errorx.ValidationError
		rerr  *errorx.ReferenceError
		nerr  *errorx.NotFoundError
		aerr  *errorx.AuthorizationError
		terr  *errorx.TransactionError
		coded *ErrorWithCode
	)
	switch {
	case errors.As(err, &verr):
		body := ErrorBody{
			Error:  Translate(ErrorValidationFailed.MessageID, lang, nil),
			Fields: make(map[string][]string),
		}
		for _, fe := range verr.Errors {
			data := maps.Clone(fe.Params)
			if data == nil {
				data = make(map[string]any, 1)
			}
			if _, ok := data["Field"]; !ok {
				data["Field"] = fe.Field
			}
			body.Fields[fe.Field] = append(body.Fields[fe.Field], Translate(fe.Code, lang, data))
		}
		return http.StatusBadRequest, body

	case errors.As(err, &rerr):
		msg := Translate(rerr.Code, lang, map[string]any{
			"Field":      rerr.Field,
			"Collection": rerr.Collection,
			"ID":         rerr.ID,
		})
		return http.StatusBadRequest, ErrorBody{
			Error:  Translate(ErrorValidationFailed.MessageID, lang, nil),
			Fields: map[string][]string{rerr.Field: {msg}},
		}

	case errors.As(err, &nerr):
		return http.StatusNotFound, ErrorBody{Error: Translate(ErrNotFound.MessageID, lang, nil)}

	case errors.As(err, &aerr):
		if aerr.Authenticated {
			return http.StatusForbidden, ErrorBody{Error: Translate(ErrForbidden.MessageID, lang, nil)}
		}
		return http.StatusUnauthorized, ErrorBody{Error: Translate(ErrUnauthorized.MessageID, lang, nil)}

	case errors.As(err, &terr):
		return http.StatusInternalServerError, ErrorBody{Error: Translate(ErrorTransactionFailed.MessageID, lang, nil)}

	case errors.As(err, &coded):
		return int(coded.Code), ErrorBody{Error: Translate(coded.MessageID, lang, coded.Data)}
	}
	return http.StatusInternalServerError, ErrorBody{Error: Translate(ErrInternalServer.MessageID, lang, nil)}
}
