package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. PHISHJUDGE_SERVER_ADDR.
const EnvPrefix = "PHISHJUDGE"

type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Server  ServerConfig  `mapstructure:"server"`
	Probe   ProbeConfig   `mapstructure:"probe"`
	Data    DataConfig    `mapstructure:"data"`
	Extract ExtractConfig `mapstructure:"extract"`
	Model   ModelConfig   `mapstructure:"model"`
	Graph   GraphConfig   `mapstructure:"graph"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// CheckTimeout bounds one full extraction + prediction.
	CheckTimeout time.Duration `mapstructure:"check_timeout"`
	// AllowedOrigins may edit the blacklist from a browser.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// WatchBlacklist reloads the blacklist when its file changes.
	WatchBlacklist bool `mapstructure:"watch_blacklist"`
}

type ProbeConfig struct {
	HTTPTimeout        time.Duration `mapstructure:"http_timeout"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	UserAgent          string        `mapstructure:"user_agent"`
	MaxRedirects       int           `mapstructure:"max_redirects"`
	MaxBodyBytes       int64         `mapstructure:"max_body_bytes"`
	DNSServers         []string      `mapstructure:"dns_servers"`
	DNSTimeout         time.Duration `mapstructure:"dns_timeout"`
	WhoisTimeout       time.Duration `mapstructure:"whois_timeout"`
}

type DataConfig struct {
	RankFile      string `mapstructure:"rank_file"`
	BlacklistFile string `mapstructure:"blacklist_file"`
}

type ExtractConfig struct {
	Parallel bool `mapstructure:"parallel"`
}

type ModelConfig struct {
	Path           string        `mapstructure:"path"`
	RemoteURL      string        `mapstructure:"remote_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	InvertPolarity bool          `mapstructure:"invert_polarity"`
}

// GraphConfig points at an optional Neo4j instance. An empty URI disables recording.
type GraphConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// SetDefaults registers a default for every known key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("server.addr", "127.0.0.1:5000")
	v.SetDefault("server.check_timeout", 45*time.Second)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.watch_blacklist", true)

	v.SetDefault("probe.http_timeout", 10*time.Second)
	v.SetDefault("probe.insecure_skip_verify", true)
	v.SetDefault("probe.user_agent", "Mozilla/5.0")
	v.SetDefault("probe.max_redirects", 30)
	v.SetDefault("probe.max_body_bytes", 5<<20)
	v.SetDefault("probe.dns_servers", []string{"8.8.8.8:53", "1.1.1.1:53"})
	v.SetDefault("probe.dns_timeout", 5*time.Second)
	v.SetDefault("probe.whois_timeout", 10*time.Second)

	v.SetDefault("data.rank_file", "data/tranco_top1m.csv")
	v.SetDefault("data.blacklist_file", "data/blacklist.txt")

	v.SetDefault("extract.parallel", false)

	v.SetDefault("model.path", "")
	v.SetDefault("model.remote_url", "")
	v.SetDefault("model.timeout", 5*time.Second)
	v.SetDefault("model.invert_polarity", false)

	v.SetDefault("graph.uri", "")
	v.SetDefault("graph.username", "neo4j")
	v.SetDefault("graph.password", "")
	v.SetDefault("graph.database", "neo4j")
}

// BindEnv wires PHISHJUDGE_* environment variables to config keys.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration produced by defaults alone.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := Load(v)
	if err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return cfg
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.CheckTimeout <= 0 {
		errs = append(errs, errors.New("server.check_timeout must be positive"))
	}
	if c.Probe.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("probe.http_timeout must be positive"))
	}
	if c.Probe.DNSTimeout <= 0 {
		errs = append(errs, errors.New("probe.dns_timeout must be positive"))
	}
	if c.Probe.WhoisTimeout <= 0 {
		errs = append(errs, errors.New("probe.whois_timeout must be positive"))
	}
	if c.Probe.MaxRedirects < 0 {
		errs = append(errs, errors.New("probe.max_redirects must not be negative"))
	}
	if c.Probe.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("probe.max_body_bytes must be positive"))
	}
	if len(c.Probe.DNSServers) == 0 {
		errs = append(errs, errors.New("probe.dns_servers must list at least one resolver"))
	}
	if c.Model.Path != "" && c.Model.RemoteURL != "" {
		errs = append(errs, errors.New("model.path and model.remote_url are mutually exclusive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
