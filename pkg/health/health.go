// Package health serves liveness and readiness probes.
//
// Checks run on demand when a probe endpoint is hit. All checks of an
// endpoint run concurrently, each bounded by its own timeout.
package health

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
	"golang.org/x/sync/errgroup"
)

// CheckFunc reports a problem with a dependency, or nil when it is healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc
}

// Health holds the registered checks and the manual readiness flag.
type Health struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []check
	readiness []check
}

// New returns a Health that is not ready until SetReady(true).
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a check for /livez.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, check{name: name, timeout: timeout, fn: fn})
}

// AddReadinessCheck registers a check for /readyz.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, check{name: name, timeout: timeout, fn: fn})
}

// SetReady flips the manual readiness flag. The server sets it once it is
// listening and clears it when draining.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *Health) snapshot(checks *[]check) []check {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(*checks)
}

// runChecks returns the error message of every failing check keyed by name.
func runChecks(ctx context.Context, checks []check) map[string]string {
	var (
		mu       sync.Mutex
		failures = make(map[string]string)
		g        errgroup.Group
	)
	for _, c := range checks {
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			if err := c.fn(checkCtx); err != nil {
				mu.Lock()
				failures[c.name] = err.Error()
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return failures
}

// LiveEndpoint answers 200 {"status":"ok"} when every liveness check passes
// and 503 with the failing checks otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, runChecks(r.Context(), h.snapshot(&h.liveness)))
}

// ReadyEndpoint is LiveEndpoint for readiness checks. A service not marked
// ready reports the pseudo-check "_readiness".
func (h *Health) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	failures := runChecks(r.Context(), h.snapshot(&h.readiness))
	if !h.ready.Load() {
		failures["_readiness"] = "service is not ready"
	}
	writeStatus(w, failures)
}

func writeStatus(w http.ResponseWriter, failures map[string]string) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	status := http.StatusOK
	e.ObjStart()
	e.FieldStart("status")
	if len(failures) == 0 {
		e.Str("ok")
	} else {
		status = http.StatusServiceUnavailable
		e.Str("unhealthy")
		e.FieldStart("checks")
		e.ObjStart()
		names := make([]string, 0, len(failures))
		for name := range failures {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			e.FieldStart(name)
			e.Str(failures[name])
		}
		e.ObjEnd()
	}
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
