package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
}

func TestCORS_Preflight(t *testing.T) {
	h := CORS(DefaultCORSConfig("https://console.rental.example"))(okHandler())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodOptions, "/api/v1/query", nil)
	r.Header.Set("Origin", "https://console.rental.example")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://console.rental.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), HeaderCompanyID)
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, w.Body.String())
}

func TestCORS_Origins(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		origin     string
		wantOrigin string
	}{
		{name: "allowed", origins: []string{"https://a.example"}, origin: "https://A.example", wantOrigin: "https://A.example"},
		{name: "not allowed", origins: []string{"https://a.example"}, origin: "https://evil.example"},
		{name: "wildcard", origins: []string{"*"}, origin: "https://any.example", wantOrigin: "*"},
		{name: "no origin header", origins: []string{"*"}},
		{name: "none configured", origin: "https://a.example"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/v1/query/suggestions", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			CORS(DefaultCORSConfig(tt.origins...))(okHandler()).ServeHTTP(w, r)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "ok", w.Body.String())
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantOrigin != "" {
				assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Request-ID")
			}
		})
	}
}

func TestCORS_PlainOptionsIsNotPreflight(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodOptions, "/api/v1/query", nil)
	r.Header.Set("Origin", "https://a.example")
	CORS(DefaultCORSConfig("https://a.example"))(okHandler()).ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

//Personal.AI order the ending
