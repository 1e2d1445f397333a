package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestTimeout_Success(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Handler", "yes")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("success"))
	})

	rec := httptest.NewRecorder()
	Timeout(time.Second)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/preview", nil))

	if rec.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rec.Code)
	}
	if rec.Body.String() != "success" {
		t.Errorf("expected body 'success', got '%s'", rec.Body.String())
	}
	if rec.Header().Get("X-Handler") != "yes" {
		t.Error("expected handler headers to be copied")
	}
}

func TestTimeout_HandlerWritesNothing(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Handler", "yes")
	})

	rec := httptest.NewRecorder()
	Timeout(time.Second)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "yes", rec.Header().Get("X-Handler"))
}

func TestTimeout_Timeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	handlerDone := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(handlerDone)
		<-r.Context().Done()
		w.Header().Set("X-Late", "yes")
		_, err := w.Write([]byte("should not reach here"))
		assert.ErrorIs(t, err, http.ErrHandlerTimeout)
	})

	rec := httptest.NewRecorder()
	Timeout(50*time.Millisecond)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/relay", nil))
	<-handlerDone

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("expected status 504, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "request timeout") {
		t.Errorf("expected error message about timeout, got '%s'", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got '%s'", ct)
	}
	assert.Empty(t, rec.Header().Get("X-Late"))
}

func TestTimeout_ZeroDuration(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	rec := httptest.NewRecorder()
	Timeout(0)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("expected status 504 with zero timeout, got %d", rec.Code)
	}
}

func TestTimeout_ContextPropagation(t *testing.T) {
	var deadline time.Time
	var ok bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	})

	start := time.Now()
	rec := httptest.NewRecorder()
	Timeout(time.Second)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, ok, "expected context to have deadline")
	assert.WithinDuration(t, start.Add(time.Second), deadline, 100*time.Millisecond)
}

func TestTimeout_PanicReachesCaller(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	assert.PanicsWithValue(t, "boom", func() {
		Timeout(time.Second)(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
