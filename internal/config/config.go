package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Mode         string        `mapstructure:"mode"`
	Port         int           `mapstructure:"port"`
	StaticPath   string        `mapstructure:"static_path"`
	ReadLimit    int64         `mapstructure:"read_limit"`
	PingPeriod   time.Duration `mapstructure:"ping_period"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	SendBuffer   int           `mapstructure:"send_buffer"`
	Secret       string        `mapstructure:"secret"`

	Backpressure  string        `mapstructure:"backpressure"`
	ClaimLimit    int           `mapstructure:"claim_limit"`
	ClaimInterval time.Duration `mapstructure:"claim_interval"`

	Identifier IdentifierConfig `mapstructure:"identifier"`

	TLS     TLSConfig     `mapstructure:"tls"`
	CORS    CORSConfig    `mapstructure:"cors"`
	TURN    TURNConfig    `mapstructure:"turn"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type IdentifierConfig struct {
	MinLen int `mapstructure:"min_len"`
	MaxLen int `mapstructure:"max_len"`
}

type TLSConfig struct {
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type TURNConfig struct {
	Provider     string             `mapstructure:"provider"`
	CacheTTL     time.Duration      `mapstructure:"cache_ttl"`
	ICEServers   string             `mapstructure:"ice_servers"`
	Twilio       TwilioConfig       `mapstructure:"twilio"`
	SharedSecret SharedSecretConfig `mapstructure:"shared_secret"`
	HTTP         UpstreamConfig     `mapstructure:"http"`
}

type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	TTL        int    `mapstructure:"ttl"`
}

type SharedSecretConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
	Prefix string        `mapstructure:"prefix"`
	URLs   []string      `mapstructure:"urls"`
}

type UpstreamConfig struct {
	URL     string        `mapstructure:"url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// TLSEnabled reports whether both certificate files are present on disk.
func (c *Config) TLSEnabled() bool {
	if c.TLS.CertFile == "" || c.TLS.KeyFile == "" {
		return false
	}
	if _, err := os.Stat(c.TLS.CertFile); err != nil {
		return false
	}
	_, err := os.Stat(c.TLS.KeyFile)
	return err == nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8000)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "30s")
	v.SetDefault("write_timeout", "5s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("secret", "change-me")
	v.SetDefault("backpressure", "kick")
	v.SetDefault("claim_limit", 5)
	v.SetDefault("claim_interval", "10s")
	v.SetDefault("identifier.min_len", 1)
	v.SetDefault("identifier.max_len", 64)
	v.SetDefault("tls.cert_file", "cert.pem")
	v.SetDefault("tls.key_file", "key.pem")
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("turn.provider", "static")
	v.SetDefault("turn.cache_ttl", "5m")
	v.SetDefault("turn.ice_servers", `[{"urls":"stun:stun.l.google.com:19302"}]`)
	v.SetDefault("turn.twilio.ttl", 86400)
	v.SetDefault("turn.shared_secret.ttl", "24h")
	v.SetDefault("turn.shared_secret.prefix", "duocall")
	v.SetDefault("turn.http.timeout", "5s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("metrics.enabled", true)
}

// Load reads config/config.<env>.yaml, then environment (DUOCALL_*), then flags.
// A missing file is not an error.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix("DUOCALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("turn.twilio.account_sid", "DUOCALL_TURN_TWILIO_ACCOUNT_SID", "TWILIO_ACCOUNT_SID")
	_ = v.BindEnv("turn.twilio.auth_token", "DUOCALL_TURN_TWILIO_AUTH_TOKEN", "TWILIO_AUTH_TOKEN")

	env := os.Getenv("CONFIG_ENV")
	fileName := ""
	if flags != nil {
		if f := flags.Lookup("env"); f != nil && f.Changed {
			env = f.Value.String()
		}
		if f := flags.Lookup("config"); f != nil && f.Value.String() != "" {
			fileName = f.Value.String()
		}
		if f := flags.Lookup("port"); f != nil {
			if err := v.BindPFlag("port", f); err != nil {
				return nil, fmt.Errorf("bind port flag: %w", err)
			}
		}
	}
	if env == "" {
		env = "dev"
	}
	if fileName == "" {
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(fileName)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("static", cfg.StaticPath).
		Str("turn", cfg.TURN.Provider).
		Msg("config ready")
	return &cfg, nil
}
