package calculateemi

import (
	"time"

	"solar-loan-workers/internal/common/config"
)

type Config struct {
	Timeout             time.Duration
	DefaultInterestRate float64
	DefaultTenureYears  int
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout:             config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
		DefaultInterestRate: cfg.Loan.DefaultInterestRate,
		DefaultTenureYears:  cfg.Loan.DefaultTenureYears,
	}
}
