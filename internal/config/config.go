// Package config loads the portfoliocalc configuration: YAML file, then
// PORTFOLIOCALC_* environment overrides, then whatever flags the CLI applies.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"portfoliocalc/internal/blob"
	"portfoliocalc/internal/calc"
	"portfoliocalc/internal/dataset"
	"portfoliocalc/internal/infra/blob/s3"
	"portfoliocalc/internal/infra/persistence"
	"portfoliocalc/internal/runlog"
	"portfoliocalc/internal/validate"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PORTFOLIOCALC_"

// Config is the full runtime configuration.
type Config struct {
	Dataset    DatasetConfig        `yaml:"dataset"`
	Backup     BackupConfig         `yaml:"backup"`
	Ledger     persistence.Settings `yaml:"ledger"`
	Pipeline   PipelineConfig       `yaml:"pipeline"`
	Validation ValidationConfig     `yaml:"validation"`
	Metrics    MetricsConfig        `yaml:"metrics"`
	Logging    LoggingConfig        `yaml:"logging"`
	Overrides  OverridesConfig      `yaml:"overrides"`
}

// DatasetConfig locates the portfolio file.
type DatasetConfig struct {
	Path string `yaml:"path"`
	// Delimiter is a single character; empty means comma.
	Delimiter string `yaml:"delimiter"`
}

// BackupConfig selects the snapshot store.
type BackupConfig struct {
	Driver       blob.Driver `yaml:"driver"`
	Dir          string      `yaml:"dir"`
	MinFreeBytes uint64      `yaml:"min_free_bytes"`
	S3           s3.Config   `yaml:"s3"`
}

type PipelineConfig struct {
	Workers int `yaml:"workers"`
}

// ValidationConfig adds warning rules on top of the built-in checks.
type ValidationConfig struct {
	NullRate        map[string]float64        `yaml:"null_rate,omitempty"`
	AggregateRanges map[string]validate.Range `yaml:"aggregate_ranges,omitempty"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// OverridesConfig replaces reference data without a rebuild. Keys are city
// names as written in loc_city, or DEFAULT.
type OverridesConfig struct {
	ElectricityFactors map[string]float64 `yaml:"electricity_factors,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Backup: BackupConfig{Driver: blob.DriverFilesystem, Dir: "backups"},
		Ledger: persistence.Settings{Driver: runlog.DriverSQLite},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path skips the file; a missing file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv overlays PORTFOLIOCALC_* variables found through lookup.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	var errs *multierror.Error

	str("DATASET", &c.Dataset.Path)
	str("DELIMITER", &c.Dataset.Delimiter)

	driver := string(c.Backup.Driver)
	str("BACKUP_DRIVER", &driver)
	c.Backup.Driver = blob.Driver(driver)
	str("BACKUP_DIR", &c.Backup.Dir)
	str("BACKUP_S3_BUCKET", &c.Backup.S3.Bucket)
	str("BACKUP_S3_REGION", &c.Backup.S3.Region)
	str("BACKUP_S3_PREFIX", &c.Backup.S3.Prefix)
	str("BACKUP_S3_ENDPOINT", &c.Backup.S3.Endpoint)
	if v, ok := lookup(EnvPrefix + "BACKUP_S3_PATH_STYLE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%sBACKUP_S3_PATH_STYLE: %w", EnvPrefix, err))
		}
		c.Backup.S3.PathStyle = b
	}
	if v, ok := lookup(EnvPrefix + "BACKUP_MIN_FREE_BYTES"); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%sBACKUP_MIN_FREE_BYTES: %w", EnvPrefix, err))
		}
		c.Backup.MinFreeBytes = n
	}

	ledger := string(c.Ledger.Driver)
	str("LEDGER_DRIVER", &ledger)
	c.Ledger.Driver = runlog.Driver(ledger)
	str("LEDGER_SQLITE_PATH", &c.Ledger.SQLitePath)
	str("LEDGER_POSTGRES_DSN", &c.Ledger.PostgresDSN)

	if v, ok := lookup(EnvPrefix + "WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%sWORKERS: %w", EnvPrefix, err))
		}
		c.Pipeline.Workers = n
	}
	str("METRICS_TEXTFILE", &c.Metrics.Textfile)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)
	return errs.ErrorOrNil()
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs *multierror.Error
	add := func(format string, args ...any) {
		errs = multierror.Append(errs, fmt.Errorf(format, args...))
	}

	if d := c.Dataset.Delimiter; d != "" && utf8.RuneCountInString(d) != 1 {
		add("dataset.delimiter must be one character, got %q", d)
	}

	switch c.Backup.Driver {
	case "", blob.DriverFilesystem:
		if c.Backup.Dir == "" {
			add("backup.dir is required for the fs driver")
		}
	case blob.DriverS3:
		if c.Backup.S3.Bucket == "" {
			add("backup.s3.bucket is required for the s3 driver")
		}
	case blob.DriverMemory:
	default:
		add("backup.driver %q is not one of fs, s3, memory", c.Backup.Driver)
	}

	switch c.Ledger.Driver {
	case "", runlog.DriverSQLite, runlog.DriverMemory:
	case runlog.DriverPostgres:
		if c.Ledger.PostgresDSN == "" {
			add("ledger.postgres_dsn is required for the postgres driver")
		}
	default:
		add("ledger.driver %q is not one of memory, sqlite, postgres", c.Ledger.Driver)
	}

	if c.Pipeline.Workers < 0 {
		add("pipeline.workers must not be negative, got %d", c.Pipeline.Workers)
	}
	for col, ceiling := range c.Validation.NullRate {
		if ceiling < 0 || ceiling > 1 {
			add("validation.null_rate.%s must be within [0, 1], got %g", col, ceiling)
		}
	}
	for col, r := range c.Validation.AggregateRanges {
		if r.Min > r.Max {
			add("validation.aggregate_ranges.%s: min %g exceeds max %g", col, r.Min, r.Max)
		}
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		add("logging.level: %v", err)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		add("logging.format %q is not one of console, json", c.Logging.Format)
	}

	for name, factor := range c.Overrides.ElectricityFactors {
		if _, err := calc.LookupCity(name); err != nil {
			add("overrides.electricity_factors: %v", err)
		}
		if factor <= 0 {
			add("overrides.electricity_factors.%s must be positive, got %g", name, factor)
		}
	}
	return errs.ErrorOrNil()
}

// DatasetOptions returns the delimited format.
func (c *Config) DatasetOptions() dataset.Options {
	r, _ := utf8.DecodeRuneInString(c.Dataset.Delimiter)
	if r == utf8.RuneError {
		return dataset.Options{}
	}
	return dataset.Options{Comma: r}
}

// BlobSettings returns the snapshot store settings.
func (c *Config) BlobSettings() blob.Settings {
	return blob.Settings{Driver: c.Backup.Driver, FSRoot: c.Backup.Dir, S3: c.Backup.S3}
}

// CalcOptions resolves the overrides against the city table.
func (c *Config) CalcOptions() (calc.Options, error) {
	if len(c.Overrides.ElectricityFactors) == 0 {
		return calc.Options{}, nil
	}
	factors := make(map[calc.City]float64, len(c.Overrides.ElectricityFactors))
	for name, f := range c.Overrides.ElectricityFactors {
		city, err := calc.LookupCity(name)
		if err != nil {
			return calc.Options{}, err
		}
		factors[city] = f
	}
	return calc.Options{ElectricityFactors: factors}, nil
}

// Rules returns the configured warning rules.
func (c *Config) Rules() []validate.Rule {
	var rules []validate.Rule
	if len(c.Validation.NullRate) > 0 {
		rules = append(rules, validate.NewNullRateRule(c.Validation.NullRate))
	}
	if len(c.Validation.AggregateRanges) > 0 {
		rules = append(rules, validate.NewAggregateRangeRule(c.Validation.AggregateRanges))
	}
	return rules
}

const redacted = "REDACTED"

// Marshal renders the effective configuration as YAML with credentials
// masked.
func (c *Config) Marshal() ([]byte, error) {
	out := *c
	if out.Backup.S3.SecretAccessKey != "" {
		out.Backup.S3.SecretAccessKey = redacted
	}
	if out.Backup.S3.SessionToken != "" {
		out.Backup.S3.SessionToken = redacted
	}
	if out.Ledger.PostgresDSN != "" {
		out.Ledger.PostgresDSN = redactDSN(out.Ledger.PostgresDSN)
	}
	return yaml.Marshal(&out)
}

func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), redacted)
	}
	return u.String()
}
