package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/Musaid-NLQ/internal/testutil"
)

func TestCallerMiddleware(t *testing.T) {
	var got Caller
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CallerFromContext(r.Context())
	})

	tests := []struct {
		name    string
		cfg     CallerConfig
		company string
		user    string
		status  int
		want    Caller
	}{
		{name: "both headers", company: "acme-rent", user: "u_1", status: http.StatusOK, want: Caller{CompanyID: "acme-rent", UserID: "u_1"}},
		{name: "anonymous allowed", status: http.StatusOK},
		{name: "company required", cfg: CallerConfig{RequireCompany: true}, status: http.StatusBadRequest},
		{name: "malformed company", company: "acme rent;", status: http.StatusBadRequest},
		{name: "malformed user", company: "acme", user: "../etc", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = Caller{}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.company != "" {
				req.Header.Set(HeaderCompanyID, tt.company)
			}
			if tt.user != "" {
				req.Header.Set(HeaderUserID, tt.user)
			}
			rec := httptest.NewRecorder()

			NewCallerMiddleware(tt.cfg, testutil.NewMockLogger())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.want, got)
			if tt.status != http.StatusOK {
				assert.Contains(t, rec.Body.String(), "COMMON_007")
			}
		})
	}
}

func TestCallerFromContext_Missing(t *testing.T) {
	_, ok := CallerFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}

//Personal.AI order the ending
