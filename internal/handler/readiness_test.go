package handler

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iliyamo/location-checkin/internal/campusqr"
	"github.com/iliyamo/location-checkin/internal/logging"
)

func TestReady(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		backend    http.HandlerFunc
		down       bool
		wantCode   int
		wantStatus [2]string
	}{
		{
			name: "healthy",
			backend: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, "60")
			},
			wantCode:   http.StatusOK,
			wantStatus: [2]string{"ok", "ok"},
		},
		{
			name: "token rejected",
			backend: func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("X-Authorization") != "" {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				_, _ = io.WriteString(w, "hello")
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: [2]string{"ok", "forbidden"},
		},
		{
			name: "api failing",
			backend: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: [2]string{"ok", "unavailable"},
		},
		{
			name:       "unreachable",
			backend:    func(http.ResponseWriter, *http.Request) {},
			down:       true,
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: [2]string{"unavailable", "unavailable"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.backend)
			t.Cleanup(srv.Close)
			if tt.down {
				srv.Close()
			}
			client := campusqr.New(srv.URL, "token", campusqr.WithLogger(logging.Discard()))
			h := &ReadinessHandler{Backend: client}

			rec := serve(t, h.Ready, http.MethodGet, "/readyz", "")
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			checks := decodeBody(t, rec)["checks"].([]any)
			if len(checks) != 2 {
				t.Fatalf("expected 2 checks, got %d", len(checks))
			}
			for i, want := range tt.wantStatus {
				got := checks[i].(map[string]any)
				if got["status"] != want {
					t.Fatalf("check %v: expected %q, got %q", got["name"], want, got["status"])
				}
			}
		})
	}
}
