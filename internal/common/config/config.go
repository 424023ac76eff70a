package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig               `mapstructure:"app"`
	Camunda    CamundaConfig           `mapstructure:"camunda"`
	Database   DatabaseConfig          `mapstructure:"database"`
	Workers    map[string]WorkerConfig `mapstructure:"workers"`
	APIs       APIsConfig              `mapstructure:"apis"`
	AWS        AWSConfig               `mapstructure:"aws"`
	Loan       LoanConfig              `mapstructure:"loan"`
	Audit      AuditConfig             `mapstructure:"audit"`
	Logging    LoggingConfig           `mapstructure:"logging"`
	Monitoring MonitoringConfig        `mapstructure:"monitoring"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	UsePlaintext   bool   `mapstructure:"use_plaintext"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// --- Collaborators ---

// ServiceEndpoint describes one external HTTP collaborator.
type ServiceEndpoint struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// APIsConfig holds the KYC, credit bureau and scoring endpoints used in live mode.
type APIsConfig struct {
	KYC          ServiceEndpoint `mapstructure:"kyc"`
	CreditBureau ServiceEndpoint `mapstructure:"credit_bureau"`
	Scoring      ServiceEndpoint `mapstructure:"scoring"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
	SES    struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"ses"`
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		SenderID string `mapstructure:"sender_id"`
	} `mapstructure:"sns"`
}

// LoanConfig holds workflow and calculator settings.
type LoanConfig struct {
	// UseMocks selects the in-process KYC, bureau and scoring collaborators.
	UseMocks                bool    `mapstructure:"use_mocks"`
	DefaultInterestRate     float64 `mapstructure:"default_interest_rate"`
	DefaultTenureYears      int     `mapstructure:"default_tenure_years"`
	CreditValidityDays      int     `mapstructure:"credit_validity_days"`
	CreditCacheTTL          int     `mapstructure:"credit_cache_ttl"` // milliseconds
	StepTimeout             int     `mapstructure:"step_timeout"`     // milliseconds, per collaborator call
	SubsidyRegistryPath     string  `mapstructure:"subsidy_registry_path"`
	IrradiationRegistryPath string  `mapstructure:"irradiation_registry_path"`
	StuckAfter              int     `mapstructure:"stuck_after"` // milliseconds
}

type AuditConfig struct {
	Postgres           bool   `mapstructure:"postgres"`
	Elasticsearch      bool   `mapstructure:"elasticsearch"`
	ElasticsearchIndex string `mapstructure:"elasticsearch_index"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MonitoringConfig struct {
	Port int `mapstructure:"port"`
}
