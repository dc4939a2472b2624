package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// ReconcileConfig tunes the confirmation state machine. Creates get more
// attempts than updates because new-row propagation is typically slower.
type ReconcileConfig struct {
	CreateAttempts int `json:"create_attempts"`
	CreateDelayMs  int `json:"create_delay_ms"`
	UpdateAttempts int `json:"update_attempts"`
	UpdateDelayMs  int `json:"update_delay_ms"`
}

// LoadReconcileConfig loads reconciliation tuning from a JSON file when
// RECONCILE_CONFIG_PATH is set, otherwise from environment defaults.
func LoadReconcileConfig() ReconcileConfig {
	if configPath := os.Getenv("RECONCILE_CONFIG_PATH"); configPath != "" {
		if cfg, err := loadReconcileConfigFromFile(configPath); err == nil {
			return cfg
		}
	}

	return ReconcileConfig{
		CreateAttempts: getIntEnv("RECONCILE_CREATE_ATTEMPTS", 5),
		CreateDelayMs:  getIntEnv("RECONCILE_CREATE_DELAY_MS", 2000),
		UpdateAttempts: getIntEnv("RECONCILE_UPDATE_ATTEMPTS", 3),
		UpdateDelayMs:  getIntEnv("RECONCILE_UPDATE_DELAY_MS", 2000),
	}
}

func loadReconcileConfigFromFile(path string) (ReconcileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ReconcileConfig{}, err
	}

	var cfg ReconcileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return ReconcileConfig{}, err
	}

	return cfg, nil
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
