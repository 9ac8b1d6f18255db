// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	validLogLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validEnvs         = []string{"development", "production", "test"}
	validDrivers      = []string{"postgres", "sqlite"}
	validStorageTypes = []string{"none", "s3", "r2"}
)

// ErrNoSecret is returned when no JWT secret was configured. The message
// carries a freshly generated secret the operator can paste into their config.
var ErrNoSecret = errors.New("no JWT secret configured")

type Config struct {
	Env       string
	LogLevel  string
	StaticDir string

	Port       int
	Domain     string
	CORS       []string
	SSLEnabled bool
	SSLCert    string
	SSLKey     string

	DatabaseDriver         string
	DatabaseDSN            string
	DatabaseConnectTimeout time.Duration

	JWTSecret string
	RateLimit int

	CleanupInterval time.Duration

	Storage    string
	AWS        AWSConfig
	Cloudflare CloudflareConfig
	Mail       MailConfig
}

type AWSConfig struct {
	AccessKey       string
	SecretAccessKey string
	Region          string
	Bucket          string
	Endpoint        string
}

type CloudflareConfig struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string

	TurnstileEnabled bool
	TurnstileSecret  string
}

type MailConfig struct {
	Enabled       bool
	Host          string
	Port          int
	SenderAddress string
	Password      string
}

// Production reports whether cookies should be marked secure and logs
// should be emitted as JSON.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// BaseURL is the public URL of the frontend, used in mailed links.
func (c *Config) BaseURL() string {
	scheme := "http"
	if c.SSLEnabled || c.Production() {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s", scheme, c.Domain)
}

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that. A missing config.toml is fine, everything can come from
// the environment or a .env file.
func Setup(flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		zap.L().Debug("No .env file loaded", zap.Error(err))
	}

	if flags != nil {
		v.BindPFlags(flags)

		if f := flags.Lookup("port"); f != nil {
			v.BindPFlag("host.port", f)
		}
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.env", "APP_ENV", "ENV")
	v.BindEnv("host.cors", "HOST_CORS")

	//
	// Defaults
	//
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.static_dir", "")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost:3000")
	v.SetDefault("host.cors", []string{"http://localhost:3000"})
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "notedai.db")
	v.SetDefault("database.connect_timeout", 5*time.Second)

	v.SetDefault("security.rate_limit", 10)
	v.SetDefault("cleanup.interval", time.Hour)

	v.SetDefault("storage.type", "none")
	v.SetDefault("cloudflare.turnstile.enabled", false)

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.port", 587)

	if err := v.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file, %w", err)
		}

		zap.L().Debug("No config.toml found, using environment and defaults")
	}

	c := &Config{
		Env:       v.GetString("app.env"),
		LogLevel:  v.GetString("app.log_level"),
		StaticDir: v.GetString("app.static_dir"),

		Port:       v.GetInt("host.port"),
		Domain:     v.GetString("host.domain"),
		CORS:       splitList(v.GetStringSlice("host.cors")),
		SSLEnabled: v.GetBool("host.ssl.enabled"),
		SSLCert:    v.GetString("host.ssl.certificate_path"),
		SSLKey:     v.GetString("host.ssl.certificate_key_path"),

		DatabaseDriver:         v.GetString("database.driver"),
		DatabaseDSN:            v.GetString("database.dsn"),
		DatabaseConnectTimeout: v.GetDuration("database.connect_timeout"),

		JWTSecret: v.GetString("jwt.secret"),
		RateLimit: v.GetInt("security.rate_limit"),

		CleanupInterval: v.GetDuration("cleanup.interval"),

		Storage: v.GetString("storage.type"),
		AWS: AWSConfig{
			AccessKey:       v.GetString("aws.access_key"),
			SecretAccessKey: v.GetString("aws.secret_access_key"),
			Region:          v.GetString("aws.region"),
			Bucket:          v.GetString("aws.bucket"),
			Endpoint:        v.GetString("aws.endpoint"),
		},
		Cloudflare: CloudflareConfig{
			AccountID:        v.GetString("cloudflare.account_id"),
			AccessKeyID:      v.GetString("cloudflare.access_key_id"),
			SecretAccessKey:  v.GetString("cloudflare.secret_access_key"),
			Bucket:           v.GetString("cloudflare.bucket"),
			TurnstileEnabled: v.GetBool("cloudflare.turnstile.enabled"),
			TurnstileSecret:  v.GetString("cloudflare.turnstile.secret_token"),
		},
		Mail: MailConfig{
			Enabled:       v.GetBool("mail.enabled"),
			Host:          v.GetString("mail.host"),
			Port:          v.GetInt("mail.port"),
			SenderAddress: v.GetString("mail.sender_address"),
			Password:      v.GetString("mail.password"),
		},
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) validate() error {
	if !slices.Contains(validEnvs, c.Env) {
		return errors.New("invalid app.env provided")
	}

	if !slices.Contains(validLogLevels, c.LogLevel) {
		return errors.New("invalid log level provided")
	}

	if c.Port <= 0 {
		return errors.New("invalid port provided")
	}

	if c.SSLEnabled {
		if c.SSLCert == "" {
			return errors.New("no ssl certificate path provided")
		}

		if c.SSLKey == "" {
			return errors.New("no ssl certificate key path provided")
		}
	}

	if !slices.Contains(validDrivers, c.DatabaseDriver) {
		return errors.New("invalid database driver provided")
	}

	if c.DatabaseDSN == "" {
		return errors.New("database dsn can't be empty")
	}

	if c.DatabaseConnectTimeout <= 0 {
		return errors.New("database.connect_timeout must be bigger than 0")
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("%w. Set JWT_SECRET or jwt.secret in config.toml, for example:\n\n%s", ErrNoSecret, genSecret())
	}

	if c.RateLimit <= 0 {
		return errors.New("security.rate_limit must be bigger than 0")
	}

	if c.CleanupInterval <= 0 {
		return errors.New("cleanup.interval must be bigger than 0")
	}

	switch c.Storage {
	case "s3":
		if c.AWS.AccessKey == "" {
			return errors.New("aws access key can't be empty")
		}
		if c.AWS.SecretAccessKey == "" {
			return errors.New("aws secret access key can't be empty")
		}
		if c.AWS.Bucket == "" {
			return errors.New("bucket can't be empty")
		}
		if c.AWS.Region == "" && c.AWS.Endpoint == "" {
			return errors.New("aws region or endpoint must be set")
		}
	case "r2":
		if c.Cloudflare.AccountID == "" {
			return errors.New("account id can't be empty")
		}
		if c.Cloudflare.AccessKeyID == "" {
			return errors.New("account access id can't be empty")
		}
		if c.Cloudflare.SecretAccessKey == "" {
			return errors.New("secret access key can't be empty")
		}
		if c.Cloudflare.Bucket == "" {
			return errors.New("bucket can't be empty")
		}
	}

	if !slices.Contains(validStorageTypes, c.Storage) {
		return errors.New("invalid storage type provided")
	}

	if c.Cloudflare.TurnstileEnabled && c.Cloudflare.TurnstileSecret == "" {
		return errors.New("turnstile secret token is missing")
	}

	if c.Mail.Enabled {
		if c.Mail.Host == "" {
			return errors.New("mail host can't be empty")
		}
		if c.Mail.SenderAddress == "" {
			return errors.New("mail sender address can't be empty")
		}
		if c.Mail.Port <= 0 {
			return errors.New("invalid mail port provided")
		}
	}

	if !c.Cloudflare.TurnstileEnabled {
		zap.L().Warn("Cloudflare's turnstile is disabled. Signup and login won't be guarded against bots")
	}

	return nil
}

// splitList accepts both a real list and a single comma separated
// string coming from an environment variable
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}
