package config

import (
	"fmt"
	"time"
)

// HeaderConfig names the verdict headers added by the content filter
type HeaderConfig struct {
	Status     string
	Score      string
	Indicators string
}

// PostfixConfig is the Postfix re-injection endpoint
type PostfixConfig struct {
	Address string
	Port    int
	Enabled bool
}

// ServerConfig represents the configuration of the HTTP API and content filter
type ServerConfig struct {
	HTTPAddress   string
	FilterType    string
	ListenAddress string
	BlockPhishing bool
	Headers       HeaderConfig
	Postfix       PostfixConfig
	SubjectPrefix string
	ModifySubject bool
}

// StoreConfig represents the configuration of the record store
type StoreConfig struct {
	Type             string
	SQLitePath       string
	MySQLDSN         string
	PostgresDSN      string
	Retention        time.Duration
	CleanupFrequency time.Duration
}

// DedupConfig represents the configuration of message de-duplication
type DedupConfig struct {
	Enabled       bool
	Type          string
	RedisAddress  string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

// AlertsConfig represents the configuration of alert delivery
type AlertsConfig struct {
	Enabled     bool
	Type        string
	SMTPAddress string
	SMTPPort    int
	Username    string
	Password    string
	From        string
	To          []string
	StartTLS    bool
}

// AnalysisConfig holds the email analysis tunables
type AnalysisConfig struct {
	MaxBodySize   int
	ExemptDomains []string
}

// GetServer returns the server configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		HTTPAddress:   c.GetString("server.http_address"),
		FilterType:    c.GetString("server.filter_type"),
		ListenAddress: c.GetString("server.listen_address"),
		BlockPhishing: c.GetBool("server.block_phishing"),
		Headers: HeaderConfig{
			Status:     c.GetString("server.headers.status"),
			Score:      c.GetString("server.headers.score"),
			Indicators: c.GetString("server.headers.indicators"),
		},
		Postfix: PostfixConfig{
			Address: c.GetString("server.postfix.address"),
			Port:    c.GetInt("server.postfix.port"),
			Enabled: c.GetBool("server.postfix.enabled"),
		},
		SubjectPrefix: c.GetString("server.subject_prefix"),
		ModifySubject: c.GetBool("server.modify_subject"),
	}
}

// GetStore returns the store configuration
func (c *Config) GetStore() (StoreConfig, error) {
	retention, err := c.GetDuration("store.retention")
	if err != nil {
		return StoreConfig{}, err
	}
	cleanup, err := c.GetDuration("store.cleanup_frequency")
	if err != nil {
		return StoreConfig{}, err
	}
	return StoreConfig{
		Type:             c.GetString("store.type"),
		SQLitePath:       c.GetString("store.sqlite_path"),
		MySQLDSN:         c.GetString("store.mysql_dsn"),
		PostgresDSN:      c.GetString("store.postgres_dsn"),
		Retention:        retention,
		CleanupFrequency: cleanup,
	}, nil
}

// GetDedup returns the de-duplication configuration
func (c *Config) GetDedup() (DedupConfig, error) {
	ttl, err := c.GetDuration("dedup.ttl")
	if err != nil {
		return DedupConfig{}, err
	}
	return DedupConfig{
		Enabled:       c.GetBool("dedup.enabled"),
		Type:          c.GetString("dedup.type"),
		RedisAddress:  c.GetString("dedup.redis_address"),
		RedisPassword: c.GetString("dedup.redis_password"),
		RedisDB:       c.GetInt("dedup.redis_db"),
		TTL:           ttl,
	}, nil
}

// GetAlerts returns the alert configuration
func (c *Config) GetAlerts() (AlertsConfig, error) {
	cfg := AlertsConfig{
		Enabled:     c.GetBool("alerts.enabled"),
		Type:        c.GetString("alerts.type"),
		SMTPAddress: c.GetString("alerts.smtp_address"),
		SMTPPort:    c.GetInt("alerts.smtp_port"),
		Username:    c.GetString("alerts.username"),
		Password:    c.GetString("alerts.password"),
		From:        c.GetString("alerts.from"),
		To:          c.GetStringSlice("alerts.to"),
		StartTLS:    c.GetBool("alerts.starttls"),
	}
	if cfg.Enabled && cfg.Type == "smtp" && len(cfg.To) == 0 {
		return cfg, fmt.Errorf("alerts.to must list at least one recipient for smtp alerts")
	}
	return cfg, nil
}

// GetAnalysis returns the email analysis configuration
func (c *Config) GetAnalysis() AnalysisConfig {
	return AnalysisConfig{
		MaxBodySize:   c.GetInt("analysis.max_body_size"),
		ExemptDomains: c.GetStringSlice("quarantine.exempt_domains"),
	}
}

// GetDefaultScheme returns the scheme prefixed to bare website URLs
func (c *Config) GetDefaultScheme() string {
	return c.GetString("website.default_scheme")
}
