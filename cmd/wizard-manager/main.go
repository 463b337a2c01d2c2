// cmd/wizard-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"sitewizard/internal/common/config"
	"sitewizard/internal/common/logger"
	"sitewizard/internal/common/observability"
	"sitewizard/internal/models"
	"sitewizard/internal/orchestrator"
	"sitewizard/internal/providers"
	"sitewizard/internal/resilience"
	"sitewizard/internal/session"
	"sitewizard/internal/settings"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", "console")
		fallback.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting wizard manager",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	tracer, err := observability.NewTracer(cfg.App.Name, os.Getenv("JAEGER_ENDPOINT"))
	if err != nil {
		zapLog.Fatal("tracer init failed", zap.Error(err))
	}
	defer tracer.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Settings storage overrides file configuration for credentials.
	settingsStore := settings.NewStore(cfg.Wizard.SettingsPath)
	stored, err := settingsStore.Load()
	if err != nil {
		zapLog.Fatal("settings load failed", zap.Error(err))
	}

	clients, err := buildClients(ctx, cfg, stored)
	if err != nil {
		zapLog.Fatal("provider client init failed", zap.Error(err))
	}
	if len(clients) == 0 {
		zapLog.Warn("no provider credentials configured; AI features disabled until settings are saved")
	}

	tracker := resilience.NewTracker(cfg.Wizard.Breaker, log)
	orch, err := orchestrator.New(clients, tracker, cfg.Wizard, obs, tracer, log)
	if err != nil {
		zapLog.Fatal("orchestrator init failed", zap.Error(err))
	}

	monitor := resilience.NewMonitor(tracker, clients, cfg.Wizard.Health, log)
	go monitor.Start(ctx)

	var sessions session.Store
	if cfg.Redis.Enabled {
		redisStore := session.NewRedisStore(cfg.Redis, cfg.Wizard.SessionTTL, log)
		if err := redisStore.Ping(ctx); err != nil {
			zapLog.Fatal("redis connection failed", zap.Error(err))
		}
		sessions = redisStore
		zapLog.Info("session store: redis", zap.String("address", cfg.Redis.Address))
	} else {
		sessions = session.NewMemoryStore(cfg.Wizard.SessionTTL)
		zapLog.Info("session store: in-memory")
	}
	defer sessions.Close()

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: opsHandler(orch, sessions, monitor),
	}
	go func() {
		zapLog.Info("ops server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("ops server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("ops server shutdown", zap.Error(err))
	}
}

// buildClients constructs one SDK client per provider with a usable
// credential. Stored settings win over file config.
func buildClients(ctx context.Context, cfg *config.Config, stored *models.Settings) (map[string]providers.Client, error) {
	clients := make(map[string]providers.Client)

	if key := pickKey(stored.APIKeys[providers.KeyAnthropic], cfg.Providers.Anthropic.APIKey); key != "" {
		clients[providers.KeyAnthropic] = providers.NewAnthropicClient(key, cfg.Providers.Anthropic.Model)
	}
	if key := pickKey(stored.APIKeys[providers.KeyOpenAI], cfg.Providers.OpenAI.APIKey); key != "" {
		clients[providers.KeyOpenAI] = providers.NewOpenAIClient(key, cfg.Providers.OpenAI.Model, cfg.Providers.OpenAI.BaseURL)
	}

	authMode := providers.GoogleAuthMode(pickKey(stored.GeminiAuthMode, cfg.Providers.Google.AuthMode))
	googleKey := pickKey(stored.APIKeys[providers.KeyGoogle], cfg.Providers.Google.APIKey)
	if googleKey != "" || authMode == providers.GoogleAuthOAuth {
		client, err := providers.NewGoogleClient(ctx, googleKey, cfg.Providers.Google.Model, authMode, stored.OAuthTokens)
		if err != nil {
			return nil, err
		}
		clients[providers.KeyGoogle] = client
	}
	return clients, nil
}

func pickKey(preferred, fallback string) string {
	if preferred != "" {
		return preferred
	}
	return fallback
}

func opsHandler(orch *orchestrator.Orchestrator, sessions session.Store, monitor *resilience.Monitor) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"redis":     sessions.Ping(r.Context()) == nil,
			"providers": orch.HealthSnapshot(),
		})
	})

	mux.HandleFunc("/ops/health-check", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		monitor.CheckAll(r.Context())
		writeJSON(w, http.StatusOK, orch.HealthSnapshot())
	})

	mux.HandleFunc("/ops/last-error", func(w http.ResponseWriter, r *http.Request) {
		last := orch.LastError()
		if last == nil {
			writeJSON(w, http.StatusOK, map[string]interface{}{"error": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"error": last})
	})

	mux.HandleFunc("/ops/clear-error", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		orch.ClearErrorState()
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/ops/reset-breakers", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		orch.ResetCircuitBreakers()
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/ops/clear-caches", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		orch.ClearCaches()
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/ops/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, orch.Stats())
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
