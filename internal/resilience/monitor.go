// internal/resilience/monitor.go
package resilience

import (
	"context"
	"sync"
	"time"

	"sitewizard/internal/common/config"
	wizerrors "sitewizard/internal/common/errors"
	"sitewizard/internal/common/logger"
	"sitewizard/internal/models"
	"sitewizard/internal/providers"
)

// Monitor periodically probes every registered provider with a minimal
// one-token generation and feeds the outcome into the shared tracker, so
// background probes and real traffic draw from the same failure budget.
type Monitor struct {
	tracker      *Tracker
	clients      map[string]providers.Client
	interval     time.Duration
	probeTimeout time.Duration
	log          logger.Logger
}

func NewMonitor(tracker *Tracker, clients map[string]providers.Client, cfg config.HealthConfig, log logger.Logger) *Monitor {
	return &Monitor{
		tracker:      tracker,
		clients:      clients,
		interval:     cfg.Interval,
		probeTimeout: cfg.ProbeTimeout,
		log:          log,
	}
}

// Start runs the probe loop until ctx is cancelled. One immediate sweep runs
// before the first tick so the UI has health data at startup.
func (m *Monitor) Start(ctx context.Context) {
	m.CheckAll(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.log.Info("health monitor stopped", nil)
			return
		case <-ticker.C:
			m.CheckAll(ctx)
		}
	}
}

// CheckAll probes every provider concurrently and blocks until all probes
// have reported.
func (m *Monitor) CheckAll(ctx context.Context) {
	var wg sync.WaitGroup
	for name := range m.clients {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			m.CheckOne(ctx, name)
		}(name)
	}
	wg.Wait()
}

// CheckOne probes a single provider. An open circuit suppresses the probe
// entirely; once the cooldown elapses the probe itself becomes the half-open
// trial via Allow.
func (m *Monitor) CheckOne(ctx context.Context, provider string) {
	client, ok := m.clients[provider]
	if !ok {
		return
	}
	if err := m.tracker.Allow(provider); err != nil {
		return
	}

	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	start := time.Now()
	_, err := client.SendMessage(probeCtx, []models.Message{
		{Role: models.RoleUser, Content: "ping"},
	}, "", providers.SendOptions{MaxTokens: 1})
	elapsed := time.Since(start)

	if err != nil {
		werr := wizerrors.Classify(err).WithProvider(provider)
		m.log.Warn("health probe failed", map[string]interface{}{
			"provider": provider,
			"category": string(werr.Category),
		})
		m.tracker.RecordProbe(provider, elapsed, werr)
		return
	}
	m.tracker.RecordProbe(provider, elapsed, nil)
}
