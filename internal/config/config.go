package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Storage     StorageConfig
	Publication PublicationConfig
	Intake      IntakeConfig
	Retract     RetractConfig
	Alert       AlertConfig
	Log         LogConfig
	CORS        CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// StorageConfig holds object store settings.
type StorageConfig struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	// PublicBaseURL overrides the virtual-hosted S3 URL used for public links.
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// BaseURL returns the public base URL objects are served from, without a trailing slash.
func (s *StorageConfig) BaseURL() string {
	if s.PublicBaseURL != "" {
		return strings.TrimRight(s.PublicBaseURL, "/")
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.Bucket, s.Region)
}

// PublicationConfig holds publishing backend settings.
type PublicationConfig struct {
	APIToken          string        `mapstructure:"api_token"`
	BaseURL           string        `mapstructure:"base_url"`
	TimeoutSecs       int           `mapstructure:"timeout_secs"`
	PollIntervalMS    int           `mapstructure:"poll_interval_ms"`
	MaxPollAttempts   int           `mapstructure:"max_poll_attempts"`
	PublishTimeout    time.Duration `mapstructure:"publish_timeout"`
	Access            string        `mapstructure:"access"`
	MetadataCacheTTL  time.Duration `mapstructure:"metadata_cache_ttl"`
	MetadataCacheSize int           `mapstructure:"metadata_cache_size"`
}

// PollInterval returns the fixed conversion poll cadence.
func (p *PublicationConfig) PollInterval() time.Duration {
	return time.Duration(p.PollIntervalMS) * time.Millisecond
}

// IntakeConfig holds upload validation and wait-estimate settings.
type IntakeConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
	MinWaitSecs   int   `mapstructure:"min_wait_secs"`
	MaxWaitSecs   int   `mapstructure:"max_wait_secs"`
}

// MaxBytes returns the upload size limit in bytes.
func (i *IntakeConfig) MaxBytes() int64 {
	return i.MaxFileSizeMB * 1024 * 1024
}

// RetractConfig holds deletion policy.
type RetractConfig struct {
	// MissingAsDeleted treats "not found" on delete as a successful deletion.
	MissingAsDeleted bool `mapstructure:"missing_as_deleted"`
}

// AlertConfig holds inconsistency alert settings.
type AlertConfig struct {
	// Provider is "noop" (log only) or "ses".
	Provider    string   `mapstructure:"provider"`
	Region      string   `mapstructure:"region"`
	FromAddress string   `mapstructure:"from_address"`
	ToAddresses []string `mapstructure:"to_addresses"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from a .env file (if present) and environment variables.
// Keys map to variables by replacing "." with "_", e.g. storage.bucket -> STORAGE_BUCKET.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, reading from environment")
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// Poll settings keep their historical unprefixed names.
	_ = v.BindEnv("publication.poll_interval_ms", "POLL_INTERVAL_MS", "PUBLICATION_POLL_INTERVAL_MS")
	_ = v.BindEnv("publication.max_poll_attempts", "MAX_POLL_ATTEMPTS", "PUBLICATION_MAX_POLL_ATTEMPTS")
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")

	serverPort := v.GetString("server.port")
	if serverPort != "" && !strings.Contains(serverPort, ":") {
		serverPort = ":" + serverPort
	}

	cfg := &Config{}
	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Storage = StorageConfig{
		Region:        v.GetString("storage.region"),
		Bucket:        v.GetString("storage.bucket"),
		Endpoint:      v.GetString("storage.endpoint"),
		AccessKey:     v.GetString("storage.access_key"),
		SecretKey:     v.GetString("storage.secret_key"),
		PublicBaseURL: v.GetString("storage.public_base_url"),
	}
	cfg.Publication = PublicationConfig{
		APIToken:          v.GetString("publication.api_token"),
		BaseURL:           v.GetString("publication.base_url"),
		TimeoutSecs:       v.GetInt("publication.timeout_secs"),
		PollIntervalMS:    v.GetInt("publication.poll_interval_ms"),
		MaxPollAttempts:   v.GetInt("publication.max_poll_attempts"),
		PublishTimeout:    v.GetDuration("publication.publish_timeout"),
		Access:            v.GetString("publication.access"),
		MetadataCacheTTL:  v.GetDuration("publication.metadata_cache_ttl"),
		MetadataCacheSize: v.GetInt("publication.metadata_cache_size"),
	}
	cfg.Intake = IntakeConfig{
		MaxFileSizeMB: v.GetInt64("intake.max_file_size_mb"),
		MinWaitSecs:   v.GetInt("intake.min_wait_secs"),
		MaxWaitSecs:   v.GetInt("intake.max_wait_secs"),
	}
	cfg.Retract = RetractConfig{
		MissingAsDeleted: v.GetBool("retract.missing_as_deleted"),
	}
	cfg.Alert = AlertConfig{
		Provider:    strings.ToLower(v.GetString("alert.provider")),
		Region:      v.GetString("alert.region"),
		FromAddress: v.GetString("alert.from_address"),
		ToAddresses: splitList(v.GetString("alert.to_addresses")),
	}
	if cfg.Alert.Region == "" {
		cfg.Alert.Region = cfg.Storage.Region
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitList(v.GetString("cors.allowed_origins"))}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8000")
	v.SetDefault("server.read_timeout", "15s")
	// Publish holds the request open until conversion finishes.
	v.SetDefault("server.write_timeout", "15m")
	v.SetDefault("server.environment", "development")

	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.public_base_url", "")

	v.SetDefault("publication.api_token", "")
	v.SetDefault("publication.base_url", "https://api.issuu.com/v2")
	v.SetDefault("publication.timeout_secs", 30)
	v.SetDefault("publication.poll_interval_ms", 10000)
	v.SetDefault("publication.max_poll_attempts", 60)
	v.SetDefault("publication.publish_timeout", "12m")
	v.SetDefault("publication.access", "PUBLIC")
	v.SetDefault("publication.metadata_cache_ttl", "30s")
	v.SetDefault("publication.metadata_cache_size", 256)

	v.SetDefault("intake.max_file_size_mb", 100)
	v.SetDefault("intake.min_wait_secs", 30)
	v.SetDefault("intake.max_wait_secs", 480)

	v.SetDefault("retract.missing_as_deleted", true)

	v.SetDefault("alert.provider", "noop")
	v.SetDefault("alert.region", "")
	v.SetDefault("alert.from_address", "")
	v.SetDefault("alert.to_addresses", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000,http://localhost:8000,http://127.0.0.1:8000")
}

// Validate checks settings the service cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Storage.Bucket == "" {
		errs = append(errs, errors.New("STORAGE_BUCKET is required"))
	}
	if c.Storage.Region == "" {
		errs = append(errs, errors.New("STORAGE_REGION is required"))
	}
	if c.Publication.APIToken == "" {
		errs = append(errs, errors.New("PUBLICATION_API_TOKEN is required"))
	}
	if c.Publication.PollIntervalMS <= 0 {
		errs = append(errs, fmt.Errorf("POLL_INTERVAL_MS must be positive, got %d", c.Publication.PollIntervalMS))
	}
	if c.Publication.MaxPollAttempts <= 0 {
		errs = append(errs, fmt.Errorf("MAX_POLL_ATTEMPTS must be positive, got %d", c.Publication.MaxPollAttempts))
	}
	if c.Intake.MinWaitSecs > c.Intake.MaxWaitSecs {
		errs = append(errs, fmt.Errorf("intake wait bounds inverted: min %d > max %d", c.Intake.MinWaitSecs, c.Intake.MaxWaitSecs))
	}
	switch c.Alert.Provider {
	case "noop", "":
	case "ses":
		if c.Alert.FromAddress == "" || len(c.Alert.ToAddresses) == 0 {
			errs = append(errs, errors.New("ALERT_FROM_ADDRESS and ALERT_TO_ADDRESSES are required for the ses alert provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ALERT_PROVIDER %q", c.Alert.Provider))
	}
	return errors.Join(errs...)
}

// splitList parses a comma-separated setting, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// SetupLogger builds the process logger from LogConfig and installs it as the slog default.
func SetupLogger(cfg *LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
