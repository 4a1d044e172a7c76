package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/jdelacruz/tradepost-backend/api/responses"
	"github.com/jdelacruz/tradepost-backend/pkg/config"
)

const readyCheckTimeout = 2 * time.Second

// ReadyCheck names one dependency probed by the readiness endpoint.
type ReadyCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-TradePost-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady probes each registered dependency and reports per-check status.
func HealthReady(cfg *config.Config, checks ...ReadyCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-TradePost-Env", cfg.App.Env)

		statuses := make(map[string]string, len(checks))
		ready := true
		for _, check := range checks {
			if check.Ping == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
			err := check.Ping(ctx)
			cancel()
			if err != nil {
				statuses[check.Name] = "down"
				ready = false
				continue
			}
			statuses[check.Name] = "up"
		}

		payload := map[string]any{"status": "ready", "checks": statuses}
		if !ready {
			payload["status"] = "degraded"
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, payload)
			return
		}
		responses.WriteSuccess(w, payload)
	}
}
