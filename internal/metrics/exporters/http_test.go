package exporters

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/sysledd/internal/metrics"
)

func TestHTTPHandler(t *testing.T) {
	handler := HTTPHandler()
	if handler == nil {
		t.Fatal("expected non-nil handler")
	}

	// Set a metric so there's something to export
	metrics.SetIndicatorLevel("http-test", 1)
	defer metrics.DeleteIndicator("http-test")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	if !strings.Contains(w.Body.String(), "sysledd_indicator_level") {
		t.Error("expected indicator metrics in response")
	}
}

func TestServer_StartStop(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer("127.0.0.1:0", logger)

	if err := srv.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := srv.Stop(time.Second); err != nil {
		t.Errorf("Stop() error: %v", err)
	}
}
