package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatwidget/internal/config"
)

func TestInfoHandler(t *testing.T) {
	h := &InfoHandler{Widget: config.DefaultWidget(), Version: "1.2.3"}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/info", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Fab City Assistant", body["name"])
	assert.Equal(t, "http://localhost:3001", body["apiUrl"])
	assert.Equal(t, "1.2.3", body["version"])
	assert.Len(t, body["suggestions"], 4)
}
