package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Zip    ZipConfig    `yaml:"zip" mapstructure:"zip"`
	Merge  MergeConfig  `yaml:"merge" mapstructure:"merge"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	RunLog RunLogConfig `yaml:"runlog" mapstructure:"runlog"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// ZipConfig configures the zip-lookup builder.
type ZipConfig struct {
	URL    string `yaml:"url" mapstructure:"url"`
	Member string `yaml:"member" mapstructure:"member"`
	State  string `yaml:"state" mapstructure:"state"`
	Output string `yaml:"output" mapstructure:"output"`
}

// MergeConfig configures the water-system merger. File names are relative
// to DataDir unless absolute.
type MergeConfig struct {
	DataDir    string `yaml:"data_dir" mapstructure:"data_dir"`
	Systems    string `yaml:"systems" mapstructure:"systems"`
	Violations string `yaml:"violations" mapstructure:"violations"`
	GeoAreas   string `yaml:"geo_areas" mapstructure:"geo_areas"`
	RefCodes   string `yaml:"ref_codes" mapstructure:"ref_codes"`
	Output     string `yaml:"output" mapstructure:"output"`
	Encoding   string `yaml:"encoding" mapstructure:"encoding"`
}

// FetchConfig configures remote downloads.
type FetchConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// Timeout returns the configured per-request timeout.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSecs) * time.Second
}

// RunLogConfig configures the run history database. An empty Path disables it.
type RunLogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// Enabled reports whether run history is recorded.
func (r RunLogConfig) Enabled() bool { return r.Path != "" }

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("WATER_ATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("zip.url", "https://download.geonames.org/export/zip/US.zip")
	v.SetDefault("zip.member", "US.txt")
	v.SetDefault("zip.state", "GA")
	v.SetDefault("zip.output", "zip_codes.json")
	v.SetDefault("merge.data_dir", "data")
	v.SetDefault("merge.systems", "SDWA_PUB_WATER_SYSTEMS.csv")
	v.SetDefault("merge.violations", "SDWA_VIOLATIONS_ENFORCEMENT.csv")
	v.SetDefault("merge.geo_areas", "SDWA_GEOGRAPHIC_AREAS.csv")
	v.SetDefault("merge.ref_codes", "SDWA_REF_CODE_VALUES.csv")
	v.SetDefault("merge.output", "data.json")
	v.SetDefault("merge.encoding", "utf-8")
	v.SetDefault("fetch.user_agent", "water-atlas/1.0")
	v.SetDefault("fetch.timeout_secs", 120)
	v.SetDefault("fetch.max_retries", 1)
	v.SetDefault("runlog.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

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

// Validate checks the settings a command depends on. Mode is "zipcodes",
// "merge" or "runs".
func (c *Config) Validate(mode string) error {
	var errs []string
	switch mode {
	case "zipcodes":
		if c.Zip.URL == "" {
			errs = append(errs, "zip.url is required")
		}
		if c.Zip.Member == "" {
			errs = append(errs, "zip.member is required")
		}
		if c.Zip.Output == "" {
			errs = append(errs, "zip.output is required")
		}
		if c.Fetch.MaxRetries < 1 {
			errs = append(errs, "fetch.max_retries must be at least 1")
		}
		if c.Fetch.TimeoutSecs < 0 {
			errs = append(errs, "fetch.timeout_secs must not be negative")
		}
	case "merge":
		if c.Merge.DataDir == "" {
			errs = append(errs, "merge.data_dir is required")
		}
		if c.Merge.Output == "" {
			errs = append(errs, "merge.output is required")
		}
	case "runs":
		if !c.RunLog.Enabled() {
			errs = append(errs, "runlog.path is required")
		}
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}
	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger configures the global zap logger.
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
