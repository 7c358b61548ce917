package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"acceptrec.co.uk/timesheets/infrastructure/devops"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	App      AppConfig      `mapstructure:"app"`
	Approval ApprovalConfig `mapstructure:"approval"`
	Email    EmailConfig    `mapstructure:"email"`
	Slack    SlackConfig    `mapstructure:"slack"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Redis    RedisConfig    `mapstructure:"redis"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Log      LogConfig      `mapstructure:"log"`
	Payroll  PayrollConfig  `mapstructure:"payroll"`
	SSM      SSMConfig      `mapstructure:"ssm"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	DSN            string `mapstructure:"dsn"`
	MaxConnections int    `mapstructure:"max_connections"`
	LogLevel       string `mapstructure:"log_level"`
}

type AuthConfig struct {
	// SigningSecret is base64 encoded.
	SigningSecret string        `mapstructure:"signing_secret"`
	CookieName    string        `mapstructure:"cookie_name"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
}

type AppConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Timezone string `mapstructure:"timezone"`
}

type ApprovalConfig struct {
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

type EmailConfig struct {
	From    string `mapstructure:"from"`
	Region  string `mapstructure:"region"`
	Enabled bool   `mapstructure:"enabled"`
}

type SlackConfig struct {
	Token        string `mapstructure:"token"`
	InfoChannel  string `mapstructure:"info_channel"`
	ErrorChannel string `mapstructure:"error_channel"`
}

type StorageConfig struct {
	Bucket         string `mapstructure:"bucket"`
	ReceiptsPrefix string `mapstructure:"receipts_prefix"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type PayrollConfig struct {
	Recipients []string `mapstructure:"recipients"`
}

type SSMConfig struct {
	Parameter string `mapstructure:"parameter"`
}

// Overlay fetches a configuration document that is merged over the config file.
type Overlay func(ctx context.Context, parameter string) (map[string]any, error)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0:8090")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.log_level", "error")
	v.SetDefault("auth.signing_secret", "")
	v.SetDefault("auth.cookie_name", "acceptrec.session")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("app.base_url", "http://localhost:3000")
	v.SetDefault("app.timezone", "Europe/London")
	v.SetDefault("approval.token_ttl", "720h")
	v.SetDefault("email.from", "Accept Recruitment <timesheets@acceptrec.co.uk>")
	v.SetDefault("email.region", "eu-west-2")
	v.SetDefault("email.enabled", false)
	v.SetDefault("slack.token", "")
	v.SetDefault("slack.info_channel", "")
	v.SetDefault("slack.error_channel", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.receipts_prefix", "receipts")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cors.allow_origins", []string{"http://localhost:3000"})
	v.SetDefault("log.level", "info")
	v.SetDefault("payroll.recipients", []string{})
	v.SetDefault("ssm.parameter", "")
}

// Load reads configuration from .env, an optional timesheets.yaml (or path, when given)
// and the environment. Env var overrides use prefix TIMESHEETS_, e.g.
// TIMESHEETS_DATABASE_DSN. When ssm.parameter is set the SSM document is merged over
// the file.
func Load(ctx context.Context, path string) (Config, error) {
	return LoadWithOverlay(ctx, path, devops.LoadConfigOverlay)
}

func LoadWithOverlay(ctx context.Context, path string, overlay Overlay) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("timesheets")
	}

	v.SetEnvPrefix("TIMESHEETS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if param := v.GetString("ssm.parameter"); param != "" && overlay != nil {
		values, err := overlay(ctx, param)
		if err != nil {
			return Config{}, fmt.Errorf("load ssm overlay: %w", err)
		}
		if err := v.MergeConfigMap(values); err != nil {
			return Config{}, fmt.Errorf("merge ssm overlay: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
