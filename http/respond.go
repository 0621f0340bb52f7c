package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"churnscope/ml"
	"churnscope/table"
)

const (
	codeInvalidField   = "invalid_field_value"
	codeSchemaMismatch = "schema_mismatch"
	codeValidation     = "validation_error"
	codeTooLarge       = "payload_too_large"
	codeNotFound       = "not_found"
	codeInternal       = "internal_error"
)

// errorResponse 错误响应体
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// validationError 请求格式错误
type validationError struct {
	err error
}

func (e *validationError) Error() string { return e.err.Error() }
func (e *validationError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &validationError{err: err}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: code, Message: message})
}

// classifyError 将错误映射为状态码和错误码
func classifyError(err error) (int, string) {
	var (
		fieldErr    *ml.InvalidFieldValueError
		mismatchErr *ml.SchemaMismatchError
		tooLarge    *http.MaxBytesError
		invalid     *validationError
		parseErr    *csv.ParseError
		syntaxErr   *json.SyntaxError
		typeErr     *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, codeTooLarge
	case errors.As(err, &fieldErr):
		return http.StatusUnprocessableEntity, codeInvalidField
	case errors.As(err, &mismatchErr):
		return http.StatusUnprocessableEntity, codeSchemaMismatch
	case errors.As(err, &invalid), errors.As(err, &parseErr), errors.As(err, &syntaxErr), errors.As(err, &typeErr),
		errors.Is(err, table.ErrEmpty), errors.Is(err, table.ErrNoRows), errors.Is(err, table.ErrBadHeader),
		errors.Is(err, table.ErrCharset), errors.Is(err, csv.ErrFieldCount):
		return http.StatusBadRequest, codeValidation
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

// respondErr 根据错误类型写入响应，内部错误只记录日志不返回细节
func (a *api) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classifyError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		message = "internal server error"
	}
	respondError(w, status, code, message)
}
