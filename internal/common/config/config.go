// internal/common/config/config.go
package config

import "fmt"

type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Analyzers     AnalyzersConfig         `mapstructure:"analyzers"`
	Onboarding    OnboardingConfig        `mapstructure:"onboarding"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Server        ServerConfig            `mapstructure:"server"`
}

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
	URL       string   `mapstructure:"url"`
}

func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address      string `mapstructure:"address"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	Timeout      int    `mapstructure:"timeout"` // milliseconds, read and write
}

// AnalyzerEndpoint describes one external content-analysis service.
type AnalyzerEndpoint struct {
	BaseURL   string  `mapstructure:"base_url"`
	APIKey    string  `mapstructure:"api_key"`
	Timeout   int     `mapstructure:"timeout"`    // milliseconds
	RateLimit float64 `mapstructure:"rate_limit"` // requests per second, 0 = unlimited
	Burst     int     `mapstructure:"burst"`
}

type BreakerConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	MinRequests     uint32  `mapstructure:"min_requests"`
	FailureRatio    float64 `mapstructure:"failure_ratio"`
	OpenTimeout     int     `mapstructure:"open_timeout"` // milliseconds
	HalfOpenMaxCall uint32  `mapstructure:"half_open_max_calls"`
}

type AnalyzersConfig struct {
	Text               AnalyzerEndpoint `mapstructure:"text"`
	Vision             AnalyzerEndpoint `mapstructure:"vision"`
	NLP                AnalyzerEndpoint `mapstructure:"nlp"`
	Breaker            BreakerConfig    `mapstructure:"breaker"`
	MaxConcurrentCalls int64            `mapstructure:"max_concurrent_calls"`
}

type OnboardingConfig struct {
	Repository       string   `mapstructure:"repository"` // "postgres" or "memory"
	MaxDocumentBytes int64    `mapstructure:"max_document_bytes"`
	AllowedMIMETypes []string `mapstructure:"allowed_mime_types"`
	CacheEnabled     bool     `mapstructure:"cache_enabled"`
	CacheTTL         int      `mapstructure:"cache_ttl"` // milliseconds
	SearchIndex      string   `mapstructure:"search_index"`
	IndexingEnabled  bool     `mapstructure:"indexing_enabled"`
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled  bool   `mapstructure:"enabled"`
		SenderID string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}
