package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type healthRecorder struct {
	mu     sync.Mutex
	status map[string]bool
}

func (r *healthRecorder) SetComponentHealth(component string, healthy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == nil {
		r.status = map[string]bool{}
	}
	r.status[component] = healthy
}

func healthEngine(h *HealthHandler) http.Handler {
	r := newEngine()
	r.GET("/healthz", h.Liveness)
	r.GET("/readyz", h.Readiness)
	return r
}

func ok(context.Context) error { return nil }

func TestHealthHandler_Liveness(t *testing.T) {
	t.Parallel()
	h := NewHealthHandler("1.2.3", nil, NewChecker("redis", func(context.Context) error { return errors.New("down") }))

	w := doJSON(healthEngine(h), http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestHealthHandler_Readiness(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		checkers   []HealthChecker
		wantStatus int
		wantState  string
		wantHealth map[string]bool
	}{
		{
			name:       "no dependencies",
			wantStatus: http.StatusOK,
			wantState:  "ready",
		},
		{
			name:       "all healthy",
			checkers:   []HealthChecker{NewChecker("redis", ok), NewChecker("model", ok)},
			wantStatus: http.StatusOK,
			wantState:  "ready",
			wantHealth: map[string]bool{"redis": true, "model": true},
		},
		{
			name: "one failing",
			checkers: []HealthChecker{
				NewChecker("redis", ok),
				NewChecker("neo4j", func(context.Context) error { return errors.New("unreachable") }),
			},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "not_ready",
			wantHealth: map[string]bool{"redis": true, "neo4j": false},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := &healthRecorder{}
			h := NewHealthHandler("dev", rec, tt.checkers...)

			w := doJSON(healthEngine(h), http.MethodGet, "/readyz", "")

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp ReadinessResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantState, resp.Status)
			assert.Len(t, resp.Components, len(tt.checkers))
			assert.Equal(t, tt.wantHealth, rec.status)
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, "unreachable", resp.Components["neo4j"].Error)
			}
		})
	}
}
