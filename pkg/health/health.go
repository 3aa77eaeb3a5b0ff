// Package health serves liveness and readiness probes.
//
// Every check runs on its own ticker. A check turns unhealthy only after
// failing FailureThreshold times in a row and recovers after succeeding
// SuccessThreshold times in a row, so a single slow database ping does not
// flap the probe.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// Check reports the health of one dependency. A nil error means healthy.
type Check func(ctx context.Context) error

// Probe selects the endpoint a check contributes to.
type Probe int

const (
	// Liveness checks failing means the process should be restarted.
	Liveness Probe = iota
	// Readiness checks failing means the process should get no traffic.
	Readiness
)

// Option tunes a registered check.
type Option func(*check)

// FailureThreshold sets how many consecutive failures mark a check
// unhealthy. Default 3.
func FailureThreshold(n int) Option {
	return func(c *check) { c.failureThreshold = max(n, 1) }
}

// SuccessThreshold sets how many consecutive successes mark a check
// healthy again. Default 1.
func SuccessThreshold(n int) Option {
	return func(c *check) { c.successThreshold = max(n, 1) }
}

type check struct {
	name             string
	probe            Probe
	timeout          time.Duration
	fn               Check
	failureThreshold int
	successThreshold int

	mu        sync.Mutex
	healthy   bool
	lastErr   error
	failures  int
	successes int
}

func (c *check) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	err := c.fn(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
	if err != nil {
		c.successes = 0
		c.failures++
		if c.failures >= c.failureThreshold {
			c.healthy = false
		}
		return
	}
	c.failures = 0
	c.successes++
	if c.successes >= c.successThreshold {
		c.healthy = true
	}
}

func (c *check) status() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.healthy, c.lastErr
}

// Checker owns the registered checks and the manual readiness switch.
type Checker struct {
	ready atomic.Bool

	mu     sync.RWMutex
	checks []*check
	cancel context.CancelFunc
}

// New returns a Checker that is not ready until SetReady(true).
func New() *Checker {
	return &Checker{}
}

// Register adds a check to probe. Checks start healthy. Register before
// Start.
func (h *Checker) Register(probe Probe, name string, timeout time.Duration, fn Check, opts ...Option) {
	c := &check{
		name:             name,
		probe:            probe,
		timeout:          timeout,
		fn:               fn,
		failureThreshold: 3,
		successThreshold: 1,
		healthy:          true,
	}
	for _, o := range opts {
		o(c)
	}

	h.mu.Lock()
	h.checks = append(h.checks, c)
	h.mu.Unlock()
}

// Start runs every check immediately and then every interval until Stop
// is called or ctx is done.
func (h *Checker) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	checks := append([]*check(nil), h.checks...)
	h.mu.Unlock()

	for _, c := range checks {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			c.run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					c.run(ctx)
				}
			}
		}()
	}
}

// Stop halts the background checks. It is safe to call more than once.
func (h *Checker) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the manual readiness switch. The server sets it after
// start-up and clears it when draining.
func (h *Checker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Failures returns the unhealthy checks of probe keyed by name. For
// Readiness it also reports a cleared readiness switch.
func (h *Checker) Failures(probe Probe) map[string]string {
	h.mu.RLock()
	checks := append([]*check(nil), h.checks...)
	h.mu.RUnlock()

	failures := make(map[string]string)
	for _, c := range checks {
		if c.probe != probe {
			continue
		}
		healthy, err := c.status()
		if healthy {
			continue
		}
		if err != nil {
			failures[c.name] = err.Error()
		} else {
			failures[c.name] = "unhealthy"
		}
	}
	if probe == Readiness && !h.ready.Load() {
		failures["ready"] = "not ready"
	}
	return failures
}

// Ready reports whether the service should receive traffic.
func (h *Checker) Ready() bool {
	return len(h.Failures(Readiness)) == 0
}

// LiveEndpoint serves /livez.
func (h *Checker) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, h.Failures(Liveness))
}

// ReadyEndpoint serves /readyz.
func (h *Checker) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, h.Failures(Readiness))
}

// writeStatus answers 200 {"status":"ok"} or
// 503 {"status":"unhealthy","checks":{name: error}}.
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

		names := make([]string, 0, len(failures))
		for name := range failures {
			names = append(names, name)
		}
		sort.Strings(names)
		e.FieldStart("checks")
		e.ObjStart()
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
