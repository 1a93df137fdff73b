// internal/controller/settings_controller.go
package controller

import (
	"encoding/json"
	"net/http"

	"github.com/westgate-cre/outreach-backend/internal/config"
	"github.com/westgate-cre/outreach-backend/internal/repository"
)

type SettingsController struct {
	SettingsRepo repository.SettingsRepositoryInterface
}

// GetWorkerSettings returns the effective settings: env defaults with
// persisted overrides applied, exactly what the next cycle will use.
func (c *SettingsController) GetWorkerSettings(w http.ResponseWriter, r *http.Request) {
	overrides, err := c.SettingsRepo.Load()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	settings := config.FromEnv().ApplyOverrides(overrides)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"paused":            settings.Paused,
		"dry_run":           settings.DryRun,
		"rate_limit_hourly": settings.RateLimitHourly,
		"rate_limit_daily":  settings.RateLimitDaily,
		"batch_size":        settings.BatchSize,
		"overrides":         overrides,
	})
}

var settingsKeys = map[string]string{
	"paused":            config.KeyPaused,
	"dry_run":           config.KeyDryRun,
	"rate_limit_hourly": config.KeyRateLimitHourly,
	"rate_limit_daily":  config.KeyRateLimitDaily,
	"batch_size":        config.KeyBatchSize,
}

// UpdateWorkerSettings persists overrides. The worker reloads them at
// the top of every cycle, so changes take effect without a restart.
func (c *SettingsController) UpdateWorkerSettings(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	updated := map[string]string{}
	for field, value := range body {
		key, ok := settingsKeys[field]
		if !ok {
			http.Error(w, "unknown setting: "+field, http.StatusBadRequest)
			return
		}
		if err := c.SettingsRepo.Set(key, value); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		updated[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"updated": updated})
}
