package config

import (
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/georef/internal/model"
	"github.com/sells-group/georef/pkg/geocode"
)

// Config holds the full application configuration.
type Config struct {
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Columns ColumnsConfig `yaml:"columns" mapstructure:"columns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// GeocodeConfig selects the provider and tunes the client.
type GeocodeConfig struct {
	Provider         string `yaml:"provider" mapstructure:"provider"`
	GoogleAPIKey     string `yaml:"google_api_key" mapstructure:"google_api_key"`
	NominatimURL     string `yaml:"nominatim_url" mapstructure:"nominatim_url"`
	UserAgent        string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxAttempts      int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MinDelayMs       int    `yaml:"min_delay_ms" mapstructure:"min_delay_ms"`
	BackoffMs        int    `yaml:"backoff_ms" mapstructure:"backoff_ms"`
	RetryQueryErrors bool   `yaml:"retry_query_errors" mapstructure:"retry_query_errors"`
	Region           string `yaml:"region" mapstructure:"region"` // "min_lat,min_lng,max_lat,max_lng"
}

// Timeout returns the per-attempt request timeout.
func (g GeocodeConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSecs) * time.Second
}

// MinDelay returns the minimum delay between provider requests.
func (g GeocodeConfig) MinDelay() time.Duration {
	return time.Duration(g.MinDelayMs) * time.Millisecond
}

// Backoff returns the fixed delay before each retry.
func (g GeocodeConfig) Backoff() time.Duration {
	return time.Duration(g.BackoffMs) * time.Millisecond
}

// CacheConfig configures the persistent geocode cache.
type CacheConfig struct {
	Driver  string `yaml:"driver" mapstructure:"driver"`
	DSN     string `yaml:"dsn" mapstructure:"dsn"`
	TTLDays int    `yaml:"ttl_days" mapstructure:"ttl_days"`
}

// TTL returns the entry lifetime; zero means entries never expire.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLDays) * 24 * time.Hour
}

// BatchConfig configures the ingestion driver.
type BatchConfig struct {
	CheckpointEvery int `yaml:"checkpoint_every" mapstructure:"checkpoint_every"`
	ProgressEvery   int `yaml:"progress_every" mapstructure:"progress_every"`
}

// OutputConfig names output files.
type OutputConfig struct {
	Dir           string `yaml:"dir" mapstructure:"dir"`
	ReconcileName string `yaml:"reconcile_name" mapstructure:"reconcile_name"`
	IngestName    string `yaml:"ingest_name" mapstructure:"ingest_name"`
}

// ColumnsConfig maps logical fields to spreadsheet headers.
type ColumnsConfig struct {
	ID           string `yaml:"id" mapstructure:"id"`
	Name         string `yaml:"name" mapstructure:"name"`
	Document     string `yaml:"document" mapstructure:"document"`
	Delegation   string `yaml:"delegation" mapstructure:"delegation"`
	Address      string `yaml:"address" mapstructure:"address"`
	Municipality string `yaml:"municipality" mapstructure:"municipality"`
	Province     string `yaml:"province" mapstructure:"province"`
	FullAddress  string `yaml:"full_address" mapstructure:"full_address"`
	Latitude     string `yaml:"latitude" mapstructure:"latitude"`
	Longitude    string `yaml:"longitude" mapstructure:"longitude"`
}

// Headers returns the configured header per field.
func (c ColumnsConfig) Headers() map[model.Field]string {
	return map[model.Field]string{
		model.FieldID:           c.ID,
		model.FieldName:         c.Name,
		model.FieldDocument:     c.Document,
		model.FieldDelegation:   c.Delegation,
		model.FieldStreet:       c.Address,
		model.FieldMunicipality: c.Municipality,
		model.FieldProvince:     c.Province,
		model.FieldFullAddress:  c.FullAddress,
		model.FieldLatitude:     c.Latitude,
		model.FieldLongitude:    c.Longitude,
	}
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEOREF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("geocode.provider", "nominatim")
	v.SetDefault("geocode.google_api_key", "")
	v.SetDefault("geocode.nominatim_url", geocode.DefaultNominatimURL)
	v.SetDefault("geocode.user_agent", "georef/1.0")
	v.SetDefault("geocode.max_attempts", geocode.DefaultMaxAttempts)
	v.SetDefault("geocode.timeout_secs", int(geocode.DefaultTimeout/time.Second))
	v.SetDefault("geocode.min_delay_ms", int(geocode.DefaultMinDelay/time.Millisecond))
	v.SetDefault("geocode.backoff_ms", int(geocode.DefaultBackoff/time.Millisecond))
	v.SetDefault("geocode.retry_query_errors", true)
	v.SetDefault("geocode.region", "")
	v.SetDefault("cache.driver", "none")
	v.SetDefault("cache.dsn", "georef-cache.db")
	v.SetDefault("cache.ttl_days", 0)
	v.SetDefault("batch.checkpoint_every", 1000)
	v.SetDefault("batch.progress_every", 100)
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.reconcile_name", "reconciled")
	v.SetDefault("output.ingest_name", "geocoded")
	v.SetDefault("columns.id", "id")
	v.SetDefault("columns.name", "Nombre")
	v.SetDefault("columns.document", "Documento")
	v.SetDefault("columns.delegation", "Delegación")
	v.SetDefault("columns.address", "Dirección")
	v.SetDefault("columns.municipality", "Municipio")
	v.SetDefault("columns.province", "Provincia")
	v.SetDefault("columns.full_address", "DireccionCompleta")
	v.SetDefault("columns.latitude", "Latitud")
	v.SetDefault("columns.longitude", "Longitud")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. Mode is "reconcile" or
// "ingest" for geocoding runs, or "show" for read-only commands.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "show":
		return nil
	case "reconcile", "ingest":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch strings.ToLower(c.Geocode.Provider) {
	case "google":
		if c.Geocode.GoogleAPIKey == "" {
			errs = append(errs, "geocode.google_api_key is required for the google provider")
		}
	case "nominatim":
		if c.Geocode.NominatimURL == "" {
			errs = append(errs, "geocode.nominatim_url is required for the nominatim provider")
		}
		if c.Geocode.UserAgent == "" {
			errs = append(errs, "geocode.user_agent is required for the nominatim provider")
		}
	default:
		errs = append(errs, "geocode.provider must be google or nominatim")
	}

	if c.Geocode.MaxAttempts < 1 {
		errs = append(errs, "geocode.max_attempts must be >= 1")
	}
	if c.Geocode.TimeoutSecs <= 0 {
		errs = append(errs, "geocode.timeout_secs must be > 0")
	}
	if c.Geocode.MinDelayMs < 0 {
		errs = append(errs, "geocode.min_delay_ms must be >= 0")
	}
	if c.Geocode.BackoffMs < 0 {
		errs = append(errs, "geocode.backoff_ms must be >= 0")
	}
	if _, err := geocode.ParseRegion(c.Geocode.Region); err != nil {
		errs = append(errs, "geocode.region: "+err.Error())
	}

	switch strings.ToLower(c.Cache.Driver) {
	case "", "none", "sqlite", "postgres":
	default:
		errs = append(errs, "cache.driver must be none, sqlite or postgres")
	}
	if c.Cache.TTLDays < 0 {
		errs = append(errs, "cache.ttl_days must be >= 0")
	}

	if mode == "ingest" {
		if c.Batch.CheckpointEvery <= 0 {
			errs = append(errs, "batch.checkpoint_every must be > 0")
		}
		if c.Batch.ProgressEvery <= 0 {
			errs = append(errs, "batch.progress_every must be > 0")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

const masked = "xxxxx"

// Redacted returns a copy of c with credentials masked.
func (c Config) Redacted() Config {
	if c.Geocode.GoogleAPIKey != "" {
		c.Geocode.GoogleAPIKey = masked
	}
	if u, err := url.Parse(c.Cache.DSN); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), masked)
			c.Cache.DSN = u.String()
		}
	}
	return c
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
