package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/campusdocs/api/internal/platform/httpx"
)

const (
	healthStatusOK       = "ok"
	healthStatusDegraded = "degraded"
	readinessTimeout     = 5 * time.Second
)

// BuildInfo describes the running binary for health reporting.
type BuildInfo struct {
	Version     string
	CommitSHA   string
	Environment string
	StartedAt   time.Time
}

// ReadinessProbe checks one downstream dependency.
type ReadinessProbe func(ctx context.Context) error

// HealthHandlers serves the liveness and readiness endpoints.
type HealthHandlers struct {
	build  BuildInfo
	clock  func() time.Time
	probes map[string]ReadinessProbe
}

// HealthOption customises the health handlers.
type HealthOption func(*HealthHandlers)

// NewHealthHandlers constructs the health endpoints with the supplied options.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		build:  BuildInfo{StartedAt: time.Now().UTC()},
		clock:  time.Now,
		probes: map[string]ReadinessProbe{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// WithHealthBuildInfo attaches version metadata to health responses.
func WithHealthBuildInfo(info BuildInfo) HealthOption {
	return func(h *HealthHandlers) {
		h.build = info
	}
}

// WithHealthClock overrides the clock, primarily for tests.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// WithReadinessProbe registers a named dependency check run by /readyz.
func WithReadinessProbe(name string, probe ReadinessProbe) HealthOption {
	return func(h *HealthHandlers) {
		if name != "" && probe != nil {
			h.probes[name] = probe
		}
	}
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock().UTC()
	payload := map[string]any{
		"status":    healthStatusOK,
		"uptime":    now.Sub(h.build.StartedAt).String(),
		"timestamp": now.Format(time.RFC3339),
	}
	if h.build.Version != "" {
		payload["version"] = h.build.Version
	}
	if h.build.CommitSHA != "" {
		payload["commitSha"] = h.build.CommitSHA
	}
	if h.build.Environment != "" {
		payload["environment"] = h.build.Environment
	}
	httpx.WriteJSON(r.Context(), w, http.StatusOK, payload)
}

// Readyz reports readiness by running every registered dependency probe.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := make(map[string]map[string]any, len(h.probes))
	details := make([]string, 0)
	for name, probe := range h.probes {
		started := h.clock()
		err := probe(ctx)
		check := map[string]any{
			"status":  healthStatusOK,
			"latency": h.clock().Sub(started).String(),
		}
		if err != nil {
			check["status"] = healthStatusDegraded
			check["error"] = err.Error()
			details = append(details, name+": "+err.Error())
		}
		checks[name] = check
	}

	status := healthStatusOK
	code := http.StatusOK
	if len(details) > 0 {
		status = healthStatusDegraded
		code = http.StatusServiceUnavailable
	}

	httpx.WriteJSON(r.Context(), w, code, map[string]any{
		"status":  status,
		"checks":  checks,
		"details": details,
	})
}
