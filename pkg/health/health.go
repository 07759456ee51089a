// Package health implements Kubernetes-style liveness and readiness probes.
//
// Registered checks run on background tickers. A check flips to unhealthy
// only after failureThreshold consecutive failures and back to healthy after
// successThreshold consecutive successes, so a single transient error does
// not bounce the pod out of the load balancer.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one component. It returns nil when the component is
// healthy.
type CheckFunc func(ctx context.Context) error

const (
	failureThreshold = 3
	successThreshold = 1
)

type kind int

const (
	kindLiveness kind = iota
	kindReadiness
)

// probe couples a CheckFunc with its flap-damping state. The fails/oks
// counters are touched only by the single loop() goroutine; healthy and
// lastErr are shared with HTTP handlers and use atomics.
type probe struct {
	kind    kind
	name    string
	timeout time.Duration
	fn      CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	fails int
	oks   int
}

func (p *probe) failure() string {
	if p.healthy.Load() {
		return ""
	}
	if e := p.lastErr.Load(); e != nil && *e != nil {
		return (*e).Error()
	}
	return "check is unhealthy"
}

// tick runs the check once and updates the damped health state. Called from
// a single goroutine per probe.
func (p *probe) tick(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.fn(ctx)
	p.lastErr.Store(&err)

	if err != nil {
		p.oks = 0
		if p.fails++; p.fails >= failureThreshold {
			p.healthy.Store(false)
		}
		return
	}
	p.fails = 0
	if p.oks++; p.oks >= successThreshold {
		p.healthy.Store(true)
	}
}

func (p *probe) loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// Health holds the probe registry and the manual readiness gate. A new
// Health starts not-ready; call SetReady(true) once initialization finishes
// and SetReady(false) at the start of graceful shutdown.
type Health struct {
	ready atomic.Bool

	mu     sync.RWMutex
	probes []*probe
	cancel context.CancelFunc
}

func New() *Health {
	return &Health{}
}

func (h *Health) register(k kind, name string, timeout time.Duration, fn CheckFunc) {
	p := &probe{kind: k, name: name, timeout: timeout, fn: fn}
	p.healthy.Store(true) // assume healthy until proven otherwise

	h.mu.Lock()
	h.probes = append(h.probes, p)
	h.mu.Unlock()
}

// AddLivenessCheck registers a check that decides whether the process should
// be restarted, such as goroutine or GC pause watchdogs.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.register(kindLiveness, name, timeout, fn)
}

// AddReadinessCheck registers a check that decides whether the service should
// receive traffic, such as database connectivity.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.register(kindReadiness, name, timeout, fn)
}

// Start launches one background goroutine per registered probe. Register all
// checks before calling Start.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := append([]*probe(nil), h.probes...)
	h.mu.Unlock()

	for _, p := range probes {
		go p.loop(ctx, interval)
	}
}

// Stop cancels all probe goroutines. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the manual readiness gate.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the service should receive traffic: the manual
// gate is open and every readiness probe is passing.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	return len(h.failures(kindReadiness)) == 0
}

func (h *Health) failures(k kind) map[string]string {
	h.mu.RLock()
	probes := append([]*probe(nil), h.probes...)
	h.mu.RUnlock()

	out := make(map[string]string)
	for _, p := range probes {
		if p.kind != k {
			continue
		}
		if msg := p.failure(); msg != "" {
			out[p.name] = msg
		}
	}
	return out
}

// statusResponse is the JSON body served by both endpoints.
type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 when every liveness probe passes, 503 with
// per-check messages otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	serve(w, h.failures(kindLiveness))
}

// ReadyEndpoint serves /readyz: 200 when the manual gate is open and every
// readiness probe passes, 503 with per-check messages otherwise.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failures := h.failures(kindReadiness)
	if !h.ready.Load() {
		failures["_readiness"] = "service is not ready"
	}
	serve(w, failures)
}

func serve(w http.ResponseWriter, failures map[string]string) {
	resp := statusResponse{Status: "ok"}
	code := http.StatusOK
	if len(failures) > 0 {
		resp = statusResponse{Status: "unhealthy", Checks: failures}
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
