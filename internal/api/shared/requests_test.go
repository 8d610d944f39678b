package shared

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name        string
		requestBody string
		wantErr     error
	}{
		{
			name:        "valid_json",
			requestBody: `{"copy": "Announcing our bottle", "count": 3}`,
		},
		{
			name:        "trailing_whitespace",
			requestBody: "{\"copy\": \"x\"}\n\n",
		},
		{
			name:        "invalid_json",
			requestBody: `{"copy": "x",}`, // trailing comma
			wantErr:     ErrMalformedJSON,
		},
		{
			name:        "trailing_data",
			requestBody: `{"copy": "x"} {"copy": "y"}`,
			wantErr:     ErrMalformedJSON,
		},
		{
			name:        "empty_body",
			requestBody: "",
			wantErr:     ErrEmptyBody,
		},
		{
			name:        "too_large",
			requestBody: `{"copy": "` + strings.Repeat("a", MaxBodyBytes) + `"}`,
			wantErr:     ErrBodyTooLarge,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(tc.requestBody))
			w := httptest.NewRecorder()

			var payload any
			err := DecodeJSON(w, req, &payload)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, map[string]any{}, payload)
		})
	}
}

func TestDecodeJSON_KeepsNumberLiterals(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"numberOfVariations": 2.5}`))

	var payload map[string]any
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &payload))
	assert.Equal(t, json.Number("2.5"), payload["numberOfVariations"])
}

func TestDecodeJSON_NilBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", nil)

	var payload any
	assert.ErrorIs(t, DecodeJSON(httptest.NewRecorder(), req, &payload), ErrEmptyBody)
}

// Mock for http.Request that will return a read error
type errorReader struct{}

func (er errorReader) Read(p []byte) (n int, err error) {
	return 0, io.ErrUnexpectedEOF
}

func TestDecodeJSONWithReadError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", errorReader{})

	var target struct{}
	err := DecodeJSON(httptest.NewRecorder(), req, &target)
	assert.ErrorIs(t, err, ErrMalformedJSON)
	assert.Contains(t, err.Error(), "unexpected EOF")
}
