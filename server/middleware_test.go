package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMiddlewareLogsAndRecovers(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := chi.NewRouter()
	useMiddleware(r, zap.New(core))
	r.Get("/ok", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	tests := []struct {
		path   string
		status int
		level  zapcore.Level
	}{
		{"/ok", http.StatusTeapot, zapcore.WarnLevel},
		{"/panic", http.StatusInternalServerError, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.status {
			t.Errorf("%s status = %d, want %d", tt.path, rec.Code, tt.status)
		}

		entries := logs.TakeAll()
		if len(entries) != 1 {
			t.Fatalf("%s: %d log entries, want 1", tt.path, len(entries))
		}
		e := entries[0]
		if e.Level != tt.level {
			t.Errorf("%s level = %v, want %v", tt.path, e.Level, tt.level)
		}
		fields := e.ContextMap()
		if fields["status"] != int64(tt.status) {
			t.Errorf("%s logged status = %v", tt.path, fields["status"])
		}
		if id, _ := fields["request_id"].(string); id == "" {
			t.Errorf("%s: missing request_id", tt.path)
		}
	}
}
