// internal/workers/onboarding/analyze-document/config.go
package analyzedocument

import (
	"time"

	"merchant-onboarding/internal/common/config"
)

type Config struct {
	Timeout          time.Duration
	MaxDocumentBytes int64
	AllowedMIMETypes []string
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout:          config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
		MaxDocumentBytes: cfg.Onboarding.MaxDocumentBytes,
		AllowedMIMETypes: cfg.Onboarding.AllowedMIMETypes,
	}
}
