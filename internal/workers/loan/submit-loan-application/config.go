package submitloanapplication

import (
	"time"

	"solar-loan-workers/internal/common/config"
)

// Config bounds the submit gate and the job completion call. Workflow steps carry their own timeout.
type Config struct {
	Timeout time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout: config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
	}
}
