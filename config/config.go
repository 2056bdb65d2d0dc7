package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Cron      CronConfig      `mapstructure:"cron"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	Health    HealthConfig    `mapstructure:"health"`
	Channels  ChannelsConfig  `mapstructure:"channels"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"min=1,max=65535"`
	Mode string `mapstructure:"mode" validate:"oneof=debug release test"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host" validate:"required"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	User            string        `mapstructure:"user" validate:"required"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname" validate:"required"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns" validate:"min=1"`
	MinConns        int32         `mapstructure:"min_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolSize     int           `mapstructure:"pool_size" validate:"min=0"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// CronConfig guards the trigger endpoint. An empty secret leaves it open.
type CronConfig struct {
	Secret string `mapstructure:"secret"`
}

type ProviderConfig struct {
	BaseURL       string        `mapstructure:"base_url" validate:"required,url"`
	APIToken      string        `mapstructure:"api_token"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RatePerSecond float64       `mapstructure:"rate_per_second" validate:"gt=0"`
	Burst         int           `mapstructure:"burst" validate:"min=1"`
}

// Configured reports whether provider credentials are present.
func (p ProviderConfig) Configured() bool {
	return p.APIToken != ""
}

type ReconcileConfig struct {
	Lookback     time.Duration `mapstructure:"lookback" validate:"gt=0"`
	AgedOutBatch int           `mapstructure:"aged_out_batch" validate:"min=1"`
}

type DispatchConfig struct {
	BatchSize   int           `mapstructure:"batch_size" validate:"min=1"`
	SendTimeout time.Duration `mapstructure:"send_timeout" validate:"gt=0"`
	ClaimTTL    time.Duration `mapstructure:"claim_ttl" validate:"gt=0"`
}

type HealthConfig struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type ChannelsConfig struct {
	Email    EmailConfig    `mapstructure:"email"`
	WhatsApp WhatsAppConfig `mapstructure:"whatsapp"`
	Push     PushConfig     `mapstructure:"push"`
}

type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from" validate:"omitempty,email"`
}

// Configured reports whether an SMTP relay is set.
func (e EmailConfig) Configured() bool {
	return e.Host != "" && e.From != ""
}

type WhatsAppConfig struct {
	BaseURL  string `mapstructure:"base_url" validate:"omitempty,url"`
	Token    string `mapstructure:"token"`
	SenderID string `mapstructure:"sender_id"`
}

// Configured reports whether WhatsApp credentials are set.
func (w WhatsAppConfig) Configured() bool {
	return w.BaseURL != "" && w.Token != ""
}

type PushConfig struct {
	BaseURL   string `mapstructure:"base_url" validate:"omitempty,url"`
	ServerKey string `mapstructure:"server_key"`
}

// Configured reports whether push credentials are set.
func (p PushConfig) Configured() bool {
	return p.BaseURL != "" && p.ServerKey != ""
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: CONDO_.
// Nested keys use underscore: CONDO_DATABASE_HOST, CONDO_CRON_SECRET, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "condo")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("cron.secret", "")
	v.SetDefault("provider.base_url", "https://api.mercadopago.com")
	v.SetDefault("provider.api_token", "")
	v.SetDefault("provider.timeout", "10s")
	v.SetDefault("provider.rate_per_second", 5)
	v.SetDefault("provider.burst", 5)
	v.SetDefault("reconcile.lookback", "72h")
	v.SetDefault("reconcile.aged_out_batch", 100)
	v.SetDefault("dispatch.batch_size", 50)
	v.SetDefault("dispatch.send_timeout", "10s")
	v.SetDefault("dispatch.claim_ttl", "10m")
	v.SetDefault("health.timeout", "5s")
	v.SetDefault("channels.email.host", "")
	v.SetDefault("channels.email.port", 587)
	v.SetDefault("channels.email.username", "")
	v.SetDefault("channels.email.password", "")
	v.SetDefault("channels.email.from", "")
	v.SetDefault("channels.whatsapp.base_url", "")
	v.SetDefault("channels.whatsapp.token", "")
	v.SetDefault("channels.whatsapp.sender_id", "")
	v.SetDefault("channels.push.base_url", "")
	v.SetDefault("channels.push.server_key", "")

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: CONDO_DATABASE_HOST -> database.host
	v.SetEnvPrefix("CONDO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Validate checks the loaded configuration. Errors name the offending keys.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validating config: %w", err)
	}
	fields := make([]string, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(strings.TrimPrefix(fe.Namespace(), "Config.")), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
}
