package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

const (
	HeaderCompanyID = "X-Company-ID"
	HeaderUserID    = "X-User-ID"
)

type callerContextKey struct{}

// Caller identifies who sent a request. The values are taken as given by
// the fronting gateway; this service does not authenticate.
type Caller struct {
	CompanyID string `json:"company_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// CallerConfig configures the caller middleware.
type CallerConfig struct {
	// RequireCompany rejects requests without a company id.
	RequireCompany bool
}

var callerIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// NewCallerMiddleware reads the company and user headers into the request
// context. Malformed ids are rejected with 400.
func NewCallerMiddleware(cfg CallerConfig, logger logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := Caller{
				CompanyID: strings.TrimSpace(r.Header.Get(HeaderCompanyID)),
				UserID:    strings.TrimSpace(r.Header.Get(HeaderUserID)),
			}

			if c.CompanyID == "" && cfg.RequireCompany {
				logger.Warn("company id missing",
					logging.String("method", r.Method),
					logging.String("path", r.URL.Path))
				writeMiddlewareError(w, errors.New(errors.ErrCodeValidation, "company id is required"))
				return
			}
			for header, id := range map[string]string{HeaderCompanyID: c.CompanyID, HeaderUserID: c.UserID} {
				if id != "" && !callerIDPattern.MatchString(id) {
					logger.Warn("malformed caller id",
						logging.String("header", header),
						logging.String("path", r.URL.Path))
					writeMiddlewareError(w, errors.Newf(errors.ErrCodeValidation, "invalid %s", header))
					return
				}
			}

			ctx := context.WithValue(r.Context(), callerContextKey{}, c)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFromContext returns the caller stored by the middleware.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerContextKey{}).(Caller)
	return c, ok
}

type middlewareErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeMiddlewareError(w http.ResponseWriter, err *errors.AppError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(errors.HTTPStatusForCode(err.Code))
	_ = json.NewEncoder(w).Encode(middlewareErrorResponse{Code: string(err.Code), Message: err.Message})
}

//Personal.AI order the ending
