package json

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, Write(w, map[string]any{"ok": true, "email": "s@theodoro.edu.co"}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "s@theodoro.edu.co", body["email"])
}

func TestWriteInternalServerError(t *testing.T) {
	w := httptest.NewRecorder()

	WriteInternalServerError(w, "Internal Server Error")

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal_server_error", body.Error)
	assert.Equal(t, "Internal Server Error", body.Message)
}

func TestWriteResponse_UnencodableValue(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteResponse(w, http.StatusOK, map[string]any{"bad": make(chan int)})
	assert.Error(t, err)
}
