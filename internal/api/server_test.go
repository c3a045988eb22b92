package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/KitchenboT/internal/metrics"
	"github.com/Kerhoff/KitchenboT/internal/notify"
	"github.com/Kerhoff/KitchenboT/internal/repository/memory"
	"github.com/Kerhoff/KitchenboT/internal/service"
	"github.com/Kerhoff/KitchenboT/internal/state"
	"github.com/Kerhoff/KitchenboT/pkg/logger"
)

type nopSender struct{}

func (nopSender) Deliver(context.Context, notify.Message) error { return nil }

func newTestServer(t *testing.T) (*Server, *service.Service) {
	t.Helper()
	log := logger.Discard()
	m := metrics.New()
	store, err := state.New(context.Background(), memory.NewDocumentRepository(nil), log, m)
	require.NoError(t, err)
	svc := service.New(store, notify.NewDispatcher(nopSender{}, log, m), log,
		service.WithHeartbeatSecret("s3cret"), service.WithMetrics(m))
	return NewServer(svc, m.Handler(), log), svc
}

func TestHeartbeatEndpoint(t *testing.T) {
	srv, svc := newTestServer(t)

	tests := []struct {
		name   string
		method string
		target string
		status int
	}{
		{"bad secret", http.MethodGet, "/heartbeat/fridge?secret=nope", http.StatusForbidden},
		{"missing secret", http.MethodPost, "/heartbeat/fridge", http.StatusForbidden},
		{"ok get", http.MethodGet, "/heartbeat/fridge?secret=s3cret&status=4C", http.StatusOK},
		{"ok post", http.MethodPost, "/heartbeat/router?secret=s3cret", http.StatusOK},
		{"wrong method", http.MethodDelete, "/heartbeat/fridge?secret=s3cret", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	beats := svc.Heartbeats()
	require.Len(t, beats, 2)
	assert.Equal(t, "fridge", beats[0].ID)
	assert.Equal(t, "4C", beats[0].Status)
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "kitchenbot_")
}
