// internal/resilience/tracker.go
package resilience

import (
	"sort"
	"sync"
	"time"

	"sitewizard/internal/common/config"
	wizerrors "sitewizard/internal/common/errors"
	"sitewizard/internal/common/logger"
	"sitewizard/internal/common/metrics"
	"sitewizard/internal/models"
)

// Tracker owns the circuit breaker state machine and the health record for
// every registered provider. All state lives behind one mutex so a breaker
// transition and its health snapshot can never disagree.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]*entry

	threshold int
	cooldown  time.Duration

	now func() time.Time
	log logger.Logger
}

type entry struct {
	state               models.CircuitState
	consecutiveFailures int
	openedAt            time.Time
	trialInFlight       bool

	status         models.HealthStatus
	lastCheckTime  time.Time
	responseTimeMs int64
}

func NewTracker(cfg config.BreakerConfig, log logger.Logger) *Tracker {
	return &Tracker{
		entries:   make(map[string]*entry),
		threshold: cfg.FailureThreshold,
		cooldown:  cfg.Cooldown,
		now:       time.Now,
		log:       log,
	}
}

// Register creates a closed-circuit, unknown-health entry for a provider.
// Registering twice is a no-op so callers can re-run wiring safely.
func (t *Tracker) Register(provider string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[provider]; ok {
		return
	}
	t.entries[provider] = &entry{
		state:  models.CircuitClosed,
		status: models.HealthUnknown,
	}
	metrics.CircuitState.WithLabelValues(provider).Set(0)
}

// Allow decides whether a call to the provider may proceed. When the circuit
// is open and the cooldown has elapsed, exactly one caller is admitted as the
// half-open trial; everyone else keeps getting ErrCircuitOpen until that
// trial reports back.
func (t *Tracker) Allow(provider string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.entries[provider]
	if e == nil {
		return wizerrors.New(wizerrors.CategoryInternal, "unknown provider: "+provider)
	}

	switch e.state {
	case models.CircuitClosed:
		return nil
	case models.CircuitOpen:
		if t.now().Sub(e.openedAt) < t.cooldown {
			return wizerrors.ErrCircuitOpen
		}
		e.state = models.CircuitHalfOpen
		e.trialInFlight = true
		t.setGauge(provider, e.state)
		t.log.Info("circuit half-open, admitting trial call", map[string]interface{}{"provider": provider})
		return nil
	case models.CircuitHalfOpen:
		if e.trialInFlight {
			return wizerrors.ErrCircuitOpen
		}
		e.trialInFlight = true
		return nil
	}
	return nil
}

// RecordSuccess closes the circuit and marks the provider healthy.
func (t *Tracker) RecordSuccess(provider string, elapsed time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.entries[provider]
	if e == nil {
		return
	}
	if e.state != models.CircuitClosed {
		t.log.Info("circuit closed after successful call", map[string]interface{}{"provider": provider})
	}
	e.state = models.CircuitClosed
	e.trialInFlight = false
	e.consecutiveFailures = 0
	e.status = models.HealthHealthy
	e.lastCheckTime = t.now()
	e.responseTimeMs = elapsed.Milliseconds()
	t.setGauge(provider, e.state)
}

// RecordFailure feeds one classified failure into the provider's budget.
// Failures excluded by CountsTowardBreaker still stamp the health record but
// never move the breaker.
func (t *Tracker) RecordFailure(provider string, werr *wizerrors.WizardError) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.entries[provider]
	if e == nil {
		return
	}
	e.lastCheckTime = t.now()
	// A half-open trial ended either way.
	wasTrial := e.state == models.CircuitHalfOpen && e.trialInFlight
	e.trialInFlight = false

	if !wizerrors.CountsTowardBreaker(werr) {
		if wasTrial {
			// Trial didn't prove recovery; stay open for another cooldown.
			t.open(provider, e)
		}
		return
	}

	e.consecutiveFailures++
	switch {
	case wasTrial:
		t.log.Warn("half-open trial failed, reopening circuit", map[string]interface{}{
			"provider": provider,
			"category": string(werr.Category),
		})
		t.open(provider, e)
	case e.state == models.CircuitClosed && e.consecutiveFailures >= t.threshold:
		t.log.Warn("failure threshold reached, opening circuit", map[string]interface{}{
			"provider": provider,
			"failures": e.consecutiveFailures,
		})
		t.open(provider, e)
	case e.state == models.CircuitClosed:
		e.status = models.HealthDegraded
	}
	// A late failure on an already-open circuit changes neither state nor
	// status; the entry stays open and unhealthy until a trial resolves it.
}

func (t *Tracker) open(provider string, e *entry) {
	e.state = models.CircuitOpen
	e.openedAt = t.now()
	e.status = models.HealthUnhealthy
	t.setGauge(provider, e.state)
}

// RecordProbe records a health probe outcome. Probes share the breaker's
// failure budget, so a silently dying provider trips open without a user
// ever hitting it.
func (t *Tracker) RecordProbe(provider string, elapsed time.Duration, werr *wizerrors.WizardError) {
	if werr == nil {
		metrics.HealthProbes.WithLabelValues(provider, "ok").Inc()
		t.RecordSuccess(provider, elapsed)
		return
	}
	metrics.HealthProbes.WithLabelValues(provider, "fail").Inc()
	t.RecordFailure(provider, werr)
}

// Health returns the point-in-time snapshot for one provider.
func (t *Tracker) Health(provider string) (models.ProviderHealth, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.entries[provider]
	if e == nil {
		return models.ProviderHealth{}, false
	}
	return t.snapshotLocked(provider, e), true
}

// Snapshot returns the health of every registered provider, ordered by name.
func (t *Tracker) Snapshot() []models.ProviderHealth {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]models.ProviderHealth, 0, len(t.entries))
	for name, e := range t.entries {
		out = append(out, t.snapshotLocked(name, e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}

func (t *Tracker) snapshotLocked(provider string, e *entry) models.ProviderHealth {
	return models.ProviderHealth{
		Provider:            provider,
		Status:              e.status,
		LastCheckTime:       e.lastCheckTime,
		ResponseTimeMs:      e.responseTimeMs,
		CircuitState:        e.state,
		ConsecutiveFailures: e.consecutiveFailures,
	}
}

// Providers lists the registered provider names, ordered.
func (t *Tracker) Providers() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset force-closes one provider's circuit and clears its failure budget.
func (t *Tracker) Reset(provider string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.entries[provider]
	if e == nil {
		return
	}
	e.state = models.CircuitClosed
	e.trialInFlight = false
	e.consecutiveFailures = 0
	e.status = models.HealthUnknown
	t.setGauge(provider, e.state)
}

// ResetAll force-closes every circuit.
func (t *Tracker) ResetAll() {
	for _, name := range t.Providers() {
		t.Reset(name)
	}
}

func (t *Tracker) setGauge(provider string, state models.CircuitState) {
	var v float64
	switch state {
	case models.CircuitHalfOpen:
		v = 1
	case models.CircuitOpen:
		v = 2
	}
	metrics.CircuitState.WithLabelValues(provider).Set(v)
}
