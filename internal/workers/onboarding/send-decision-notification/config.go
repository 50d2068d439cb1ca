// internal/workers/onboarding/send-decision-notification/config.go
package senddecisionnotification

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
