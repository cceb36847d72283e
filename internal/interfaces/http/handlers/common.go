// Package handlers holds the HTTP handlers of the query API.
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

// maxBodyBytes bounds request bodies; queries are capped far below this.
const maxBodyBytes = 64 << 10

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// writeAppError maps the error code to its HTTP status. Server-side errors
// are logged and their message replaced by the code's default message.
func writeAppError(w http.ResponseWriter, logger logging.Logger, err error) {
	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatusForCode(code)

	resp := ErrorResponse{Code: string(code), Message: errors.DefaultMessageForCode(code)}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", logging.String("code", string(code)), logging.Err(err))
		writeJSON(w, status, resp)
		return
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		resp.Message = appErr.Message
		resp.Detail = appErr.Detail
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads a bounded JSON body into v. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if stderrors.Is(err, io.EOF) {
			return errors.New(errors.ErrCodeInvalidParam, "request body is required")
		}
		return errors.Wrap(err, errors.ErrCodeInvalidParam, "malformed request body")
	}
	return nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidParam, "%s must be a non-negative integer", name)
	}
	return n, nil
}

//Personal.AI order the ending
