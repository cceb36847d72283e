package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/Musaid-NLQ/internal/testutil"
	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

func TestWriteAppError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    errors.ErrorCode
		message string
	}{
		{
			name:    "client error keeps message",
			err:     errors.New(errors.ErrCodeUnsupportedEntity, "no strategy for vehicles").WithDetail("entity=vehicles"),
			status:  http.StatusUnprocessableEntity,
			code:    errors.ErrCodeUnsupportedEntity,
			message: "no strategy for vehicles",
		},
		{
			name:    "server error is masked",
			err:     errors.Wrap(stderrors.New("pq: password authentication failed"), errors.ErrCodeDataStore, "count failed"),
			status:  http.StatusInternalServerError,
			code:    errors.ErrCodeDataStore,
			message: errors.DefaultMessageForCode(errors.ErrCodeDataStore),
		},
		{
			name:    "plain error is internal",
			err:     stderrors.New("boom"),
			status:  http.StatusInternalServerError,
			code:    errors.ErrCodeInternal,
			message: errors.DefaultMessageForCode(errors.ErrCodeInternal),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := testutil.NewMockLogger()
			w := httptest.NewRecorder()
			writeAppError(w, log, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, string(tt.code), resp.Code)
			assert.Equal(t, tt.message, resp.Message)
			assert.NotContains(t, w.Body.String(), "password")
			assert.Equal(t, tt.status >= 500, log.HasMessage("error", "request failed"))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var v ClassifyRequest

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	err := decodeJSON(httptest.NewRecorder(), r, &v)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"query":"`+strings.Repeat("ع", maxBodyBytes)+`"}`))
	err = decodeJSON(httptest.NewRecorder(), r, &v)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"query":"كم عقد"}`))
	require.NoError(t, decodeJSON(httptest.NewRecorder(), r, &v))
	assert.Equal(t, "كم عقد", v.Query)
}

//Personal.AI order the ending
