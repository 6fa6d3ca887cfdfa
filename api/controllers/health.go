package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/oventura/traderow-backend/api/responses"
	"github.com/oventura/traderow-backend/pkg/config"
	pkgerrors "github.com/oventura/traderow-backend/pkg/errors"
	"github.com/oventura/traderow-backend/pkg/logger"
)

const envHeader = "X-TradeRow-Env"

// Pinger is the health check surface a dependency exposes.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every hard dependency with a short deadline and reports
// which of them answered.
func HealthReady(cfg *config.Config, logg *logger.Logger, db, redis, pubsub Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]Pinger{
			"db":     db,
			"redis":  redis,
			"pubsub": pubsub,
		}
		statuses := map[string]string{}
		healthy := true
		for name, dep := range checks {
			if dep == nil {
				statuses[name] = "skipped"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				statuses[name] = "down"
				healthy = false
				if logg != nil {
					logg.Error(r.Context(), "readiness check failed for "+name, err)
				}
				continue
			}
			statuses[name] = "up"
		}

		if !healthy {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(statuses))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": statuses})
	}
}
