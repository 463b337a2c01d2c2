// internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"

	"sitewizard/internal/common/config"
	wizerrors "sitewizard/internal/common/errors"
	"sitewizard/internal/common/logger"
	"sitewizard/internal/common/metrics"
	"sitewizard/internal/common/observability"
	"sitewizard/internal/models"
	"sitewizard/internal/providers"
	"sitewizard/internal/resilience"
)

// Orchestrator is the single entry point for AI provider traffic. Every call
// passes the circuit breaker, gets classified on failure, lands in the
// last-error slot, and (for non-streaming calls) may be served from the
// response cache. The orchestrator never retries on its own; retry is an
// explicit user action.
type Orchestrator struct {
	clients map[string]providers.Client
	tracker *resilience.Tracker
	cache   *responseCache

	callTimeout time.Duration
	log         logger.Logger
	obs         *observability.Observability
	tracer      *observability.Tracer
	latency     latencyTotals

	mu      sync.Mutex
	lastErr *wizerrors.WizardError
	lastOp  func(ctx context.Context) (string, error)
}

// latencyTotals accumulates completed provider call durations so Stats can
// report them without round-tripping through the Prometheus registry.
type latencyTotals struct {
	calls      atomic.Int64
	totalNanos atomic.Int64
}

func (l *latencyTotals) record(d time.Duration) {
	l.calls.Add(1)
	l.totalNanos.Add(int64(d))
}

func (l *latencyTotals) snapshot() (calls int64, total, avg time.Duration) {
	calls = l.calls.Load()
	total = time.Duration(l.totalNanos.Load())
	if calls > 0 {
		avg = total / time.Duration(calls)
	}
	return calls, total, avg
}

// Stats summarizes orchestrator internals for the ops surface.
type Stats struct {
	Providers      []string `json:"providers"`
	CacheEntries   int      `json:"cacheEntries"`
	CacheHits      int64    `json:"cacheHits"`
	CacheMisses    int64    `json:"cacheMisses"`
	ProviderCalls  int64    `json:"providerCalls"`
	TotalLatencyMs int64    `json:"totalLatencyMs"`
	AvgLatencyMs   int64    `json:"avgLatencyMs"`
}

func New(clients map[string]providers.Client, tracker *resilience.Tracker, cfg config.WizardConfig, obs *observability.Observability, tracer *observability.Tracer, log logger.Logger) (*Orchestrator, error) {
	cache, err := newResponseCache(cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	for name := range clients {
		tracker.Register(name)
	}
	return &Orchestrator{
		clients:     clients,
		tracker:     tracker,
		cache:       cache,
		callTimeout: cfg.CallTimeout,
		log:         log,
		obs:         obs,
		tracer:      tracer,
	}, nil
}

func (o *Orchestrator) client(provider string) (providers.Client, *wizerrors.WizardError) {
	c, ok := o.clients[provider]
	if !ok {
		return nil, wizerrors.New(wizerrors.CategoryValidation, "unknown provider: "+provider)
	}
	return c, nil
}

// SendMessage performs one non-streaming call. Identical requests are served
// from the LRU cache without touching the provider or the breaker.
func (o *Orchestrator) SendMessage(ctx context.Context, provider string, messages []models.Message, systemPrompt string, opts providers.SendOptions) (string, error) {
	client, werr := o.client(provider)
	if werr != nil {
		return "", o.fail(provider, werr, nil)
	}

	key := fingerprint(provider, systemPrompt, messages, opts)
	if cached, ok := o.cache.get(key); ok {
		return cached, nil
	}

	op := func(ctx context.Context) (string, error) {
		if o.tracer != nil {
			var span trace.Span
			ctx, span = o.tracer.Start(ctx, "provider.send."+provider)
			defer span.End()
		}
		if err := o.tracker.Allow(provider); err != nil {
			metrics.ProviderRequests.WithLabelValues(provider, "rejected").Inc()
			return "", err
		}

		callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
		defer cancel()

		start := time.Now()
		reply, err := client.SendMessage(callCtx, messages, systemPrompt, opts)
		elapsed := time.Since(start)
		metrics.ProviderRequestDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
		o.latency.record(elapsed)

		if err != nil {
			o.tracker.RecordFailure(provider, wizerrors.Classify(err))
			metrics.ProviderRequests.WithLabelValues(provider, "error").Inc()
			o.recordCall(ctx, provider, "error", elapsed)
			return "", err
		}
		o.tracker.RecordSuccess(provider, elapsed)
		metrics.ProviderRequests.WithLabelValues(provider, "success").Inc()
		o.recordCall(ctx, provider, "success", elapsed)
		o.cache.add(key, reply)
		return reply, nil
	}

	reply, err := op(ctx)
	if err != nil {
		return "", o.fail(provider, wizerrors.Classify(err), op)
	}
	o.clearLastError()
	return reply, nil
}

// StreamMessage performs one streaming call. Streams bypass the response
// cache; the breaker is consulted before the stream opens and fed when the
// stream terminates.
func (o *Orchestrator) StreamMessage(ctx context.Context, provider string, messages []models.Message, systemPrompt string, opts providers.SendOptions) (<-chan providers.StreamEvent, error) {
	client, werr := o.client(provider)
	if werr != nil {
		return nil, o.fail(provider, werr, nil)
	}
	if err := o.tracker.Allow(provider); err != nil {
		metrics.ProviderRequests.WithLabelValues(provider, "rejected").Inc()
		return nil, o.fail(provider, wizerrors.Classify(err), nil)
	}

	start := time.Now()
	upstream, err := client.StreamMessage(ctx, messages, systemPrompt, opts)
	if err != nil {
		classified := wizerrors.Classify(err)
		o.tracker.RecordFailure(provider, classified)
		metrics.ProviderRequests.WithLabelValues(provider, "error").Inc()
		return nil, o.fail(provider, classified, nil)
	}

	out := make(chan providers.StreamEvent, 16)
	go func() {
		defer close(out)
		// Every send must also watch ctx: a consumer that stops reading
		// would otherwise pin this goroutine on a full buffer forever.
		relay := func(ev providers.StreamEvent) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for ev := range upstream {
			switch {
			case ev.Err != nil:
				elapsed := time.Since(start)
				classified := wizerrors.Classify(ev.Err).WithProvider(provider)
				o.tracker.RecordFailure(provider, classified)
				metrics.ProviderRequests.WithLabelValues(provider, "error").Inc()
				o.recordCall(ctx, provider, "error", elapsed)
				o.setLastError(classified, nil)
				relay(providers.StreamEvent{Err: classified})
				return
			case ev.Done:
				elapsed := time.Since(start)
				o.tracker.RecordSuccess(provider, elapsed)
				metrics.ProviderRequests.WithLabelValues(provider, "success").Inc()
				metrics.ProviderRequestDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
				o.latency.record(elapsed)
				o.recordCall(ctx, provider, "success", elapsed)
				o.clearLastError()
				relay(ev)
				return
			default:
				if !relay(ev) {
					return
				}
			}
		}
		// Upstream closed without a terminal event; treat as abandonment,
		// neither success nor failure.
	}()

	return out, nil
}

// ValidateAPIKey checks a provider credential. Validation runs outside the
// breaker: a user testing a new key must get a real answer even while the
// circuit is open, and a bad key must not poison the budget.
func (o *Orchestrator) ValidateAPIKey(ctx context.Context, provider string) error {
	client, werr := o.client(provider)
	if werr != nil {
		return werr
	}
	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	if err := client.ValidateAPIKey(callCtx); err != nil {
		return wizerrors.Classify(err).WithProvider(provider)
	}
	return nil
}

// RetryLastOperation re-runs the most recent failed non-streaming call.
func (o *Orchestrator) RetryLastOperation(ctx context.Context) (string, error) {
	o.mu.Lock()
	op := o.lastOp
	last := o.lastErr
	o.mu.Unlock()

	if op == nil {
		if last != nil {
			return "", wizerrors.New(wizerrors.CategoryValidation, "last failed operation cannot be retried")
		}
		return "", wizerrors.New(wizerrors.CategoryValidation, "no failed operation to retry")
	}

	reply, err := op(ctx)
	if err != nil {
		o.mu.Lock()
		provider := ""
		if o.lastErr != nil {
			provider = o.lastErr.Provider
		}
		o.mu.Unlock()
		classified := wizerrors.Classify(err)
		if classified.Provider == "" {
			classified.Provider = provider
		}
		o.setLastError(classified, op)
		return "", classified
	}
	o.clearLastError()
	return reply, nil
}

// LastError returns the most recent failure, or nil after a success or an
// explicit clear.
func (o *Orchestrator) LastError() *wizerrors.WizardError {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// ClearErrorState drops the last-error slot and the retained retry closure.
func (o *Orchestrator) ClearErrorState() {
	o.clearLastError()
}

// ClearCaches empties the response cache.
func (o *Orchestrator) ClearCaches() {
	o.cache.purge()
	o.log.Info("response cache cleared", nil)
}

// ResetCircuitBreakers force-closes every provider circuit.
func (o *Orchestrator) ResetCircuitBreakers() {
	o.tracker.ResetAll()
	o.log.Info("circuit breakers reset", nil)
}

// HealthSnapshot returns the current health of every provider.
func (o *Orchestrator) HealthSnapshot() []models.ProviderHealth {
	return o.tracker.Snapshot()
}

func (o *Orchestrator) Stats() Stats {
	hits, misses := o.cache.stats()
	calls, total, avg := o.latency.snapshot()
	return Stats{
		Providers:      o.tracker.Providers(),
		CacheEntries:   o.cache.len(),
		CacheHits:      hits,
		CacheMisses:    misses,
		ProviderCalls:  calls,
		TotalLatencyMs: total.Milliseconds(),
		AvgLatencyMs:   avg.Milliseconds(),
	}
}

func (o *Orchestrator) fail(provider string, werr *wizerrors.WizardError, op func(ctx context.Context) (string, error)) *wizerrors.WizardError {
	if werr.Provider == "" {
		werr = werr.WithProvider(provider)
	}
	o.log.WithError(werr).Warn("provider call failed", map[string]interface{}{
		"provider": provider,
		"category": string(werr.Category),
	})
	o.setLastError(werr, op)
	return werr
}

func (o *Orchestrator) setLastError(werr *wizerrors.WizardError, op func(ctx context.Context) (string, error)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastErr = werr
	o.lastOp = op
}

func (o *Orchestrator) clearLastError() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastErr = nil
	o.lastOp = nil
}

func (o *Orchestrator) recordCall(ctx context.Context, provider, outcome string, elapsed time.Duration) {
	if o.obs == nil {
		return
	}
	o.obs.RecordCall(ctx, provider, outcome)
	o.obs.RecordCallDuration(ctx, provider, elapsed)
}
