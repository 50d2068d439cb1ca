// internal/workers/onboarding/search-applications/config.go
package searchapplications

import (
	"time"

	"merchant-onboarding/internal/common/config"
)

type Config struct {
	Timeout   time.Duration
	IndexName string
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout:   config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
		IndexName: cfg.Onboarding.SearchIndex,
	}
}
