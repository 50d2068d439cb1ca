// internal/workers/onboarding/get-application-status/config.go
package getapplicationstatus

import (
	"time"

	"merchant-onboarding/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout: config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
	}
}
