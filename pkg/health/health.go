// Package health serves /livez and /readyz probes for the lunch API.
//
// Every registered check is polled by its own goroutine. A check flips to
// unhealthy after FailureThreshold consecutive failures and back to healthy
// after SuccessThreshold consecutive successes, so a single slow ping does not
// take the service out of rotation.
package health

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// CheckFunc reports nil when the checked dependency is usable.
type CheckFunc func(ctx context.Context) error

// Thresholds control how many consecutive results flip a check.
type Thresholds struct {
	Failure int
	Success int
}

// DefaultThresholds are applied when a check is registered without options.
var DefaultThresholds = Thresholds{Failure: 3, Success: 1}

type probe struct {
	name       string
	timeout    time.Duration
	check      CheckFunc
	thresholds Thresholds

	healthy atomic.Bool
	lastErr atomic.Pointer[string]

	// Owned by the polling goroutine.
	fails, oks int
}

func (p *probe) run(ctx context.Context, lg *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.check(ctx)
	if err != nil {
		msg := err.Error()
		p.lastErr.Store(&msg)
		p.oks = 0
		p.fails++
		if p.fails >= p.thresholds.Failure && p.healthy.Swap(false) {
			lg.Warn("Health check failing", zap.String("check", p.name), zap.Error(err))
		}
		return
	}
	p.lastErr.Store(nil)
	p.fails = 0
	p.oks++
	if p.oks >= p.thresholds.Success && !p.healthy.Swap(true) {
		lg.Info("Health check recovered", zap.String("check", p.name))
	}
}

// failure returns the last error message of an unhealthy probe.
func (p *probe) failure() (string, bool) {
	if p.healthy.Load() {
		return "", false
	}
	if msg := p.lastErr.Load(); msg != nil {
		return *msg, true
	}
	return "check is unhealthy", true
}

// Health tracks liveness and readiness of the service.
type Health struct {
	lg    *zap.Logger
	ready atomic.Bool

	mu     sync.RWMutex
	live   []*probe
	readyz []*probe
	cancel context.CancelFunc
}

// New returns a Health that starts not ready. A nil logger disables
// transition logging.
func New(lg *zap.Logger) *Health {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Health{lg: lg}
}

// AddLivenessCheck registers a check that decides whether the process should
// be restarted.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc, th ...Thresholds) {
	p := newProbe(name, timeout, check, th)
	h.mu.Lock()
	h.live = append(h.live, p)
	h.mu.Unlock()
}

// AddReadinessCheck registers a check that decides whether the service
// receives traffic, typically a ping of a backing store.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc, th ...Thresholds) {
	p := newProbe(name, timeout, check, th)
	h.mu.Lock()
	h.readyz = append(h.readyz, p)
	h.mu.Unlock()
}

func newProbe(name string, timeout time.Duration, check CheckFunc, th []Thresholds) *probe {
	p := &probe{name: name, timeout: timeout, check: check, thresholds: DefaultThresholds}
	if len(th) > 0 {
		p.thresholds = th[0]
	}
	p.healthy.Store(true)
	return p
}

// Start polls every registered check at interval until ctx is done or Stop
// is called.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := slices.Concat(h.live, h.readyz)
	h.mu.Unlock()

	for _, p := range probes {
		go h.poll(ctx, p, interval)
	}
}

func (h *Health) poll(ctx context.Context, p *probe, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.run(ctx, h.lg)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.run(ctx, h.lg)
		}
	}
}

// Stop ends polling. It may be called more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady marks the service as ready or, during shutdown, as draining.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the service is marked ready and every readiness
// check passes.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	return len(failures(h.snapshot(false))) == 0
}

func (h *Health) snapshot(live bool) []*probe {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if live {
		return slices.Clone(h.live)
	}
	return slices.Clone(h.readyz)
}

// LiveEndpoint serves /livez.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, failures(h.snapshot(true)))
}

// ReadyEndpoint serves /readyz.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failed := failures(h.snapshot(false))
	if !h.ready.Load() {
		failed = append(failed, failedCheck{name: "_readiness", reason: "service is not ready"})
	}
	writeStatus(w, failed)
}

type failedCheck struct {
	name   string
	reason string
}

func failures(probes []*probe) []failedCheck {
	var out []failedCheck
	for _, p := range probes {
		if reason, ok := p.failure(); ok {
			out = append(out, failedCheck{name: p.name, reason: reason})
		}
	}
	return out
}

// writeStatus responds with {"status":"ok"} or 503 and
// {"status":"unhealthy","checks":{name: reason}}.
func writeStatus(w http.ResponseWriter, failed []failedCheck) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("status")
	status := http.StatusOK
	if len(failed) == 0 {
		e.Str("ok")
	} else {
		status = http.StatusServiceUnavailable
		e.Str("unhealthy")
		e.FieldStart("checks")
		e.ObjStart()
		for _, f := range failed {
			e.FieldStart(f.name)
			e.Str(f.reason)
		}
		e.ObjEnd()
	}
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
