// Package config holds the settings of a matching run.
package config

import (
	"os"
	"path"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/miku/cemkit"
	"github.com/miku/cemkit/dateutil"
	"github.com/rotisserie/eris"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// DefaultDataDir is the generic data dir for all cemkit tools.
var DefaultDataDir = path.Join(xdg.DataHome, cemkit.AppName)

// Config of a matching run.
type Config struct {
	// DataDir is where downloaded rank tables and default outputs live.
	DataDir  string         `yaml:"data_dir" mapstructure:"data_dir"`
	Inputs   InputConfig    `yaml:"inputs" mapstructure:"inputs"`
	Outputs  OutputConfig   `yaml:"outputs" mapstructure:"outputs"`
	Matching MatchingConfig `yaml:"matching" mapstructure:"matching"`
	Labels   LabelConfig    `yaml:"labels" mapstructure:"labels"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
}

// InputConfig locates the upstream tables. Locations can be local paths or
// http(s) URLs, optionally gzip or zstd compressed.
type InputConfig struct {
	// RankGlob matches the yearly journal rank files, e.g. "ranks/scimagojr *.csv".
	RankGlob            string `yaml:"rank_glob" mapstructure:"rank_glob"`
	Metadata            string `yaml:"metadata" mapstructure:"metadata"`
	Retractions         string `yaml:"retractions" mapstructure:"retractions"`
	RetractionsEncoding string `yaml:"retractions_encoding" mapstructure:"retractions_encoding"`
	Mentions            string `yaml:"mentions" mapstructure:"mentions"`
	Taxonomy            string `yaml:"taxonomy" mapstructure:"taxonomy"`
}

// OutputConfig names the output files. Only Table is required.
type OutputConfig struct {
	Table   string `yaml:"table" mapstructure:"table"`
	Mapping string `yaml:"mapping" mapstructure:"mapping"`
	Report  string `yaml:"report" mapstructure:"report"`
	SQLite  string `yaml:"sqlite" mapstructure:"sqlite"`
}

// MatchingConfig configures stratification and sampling.
type MatchingConfig struct {
	SampleSize int    `yaml:"sample_size" mapstructure:"sample_size"`
	Seed       uint64 `yaml:"seed" mapstructure:"seed"`
	YearStart  int    `yaml:"year_start" mapstructure:"year_start"`
	YearEnd    int    `yaml:"year_end" mapstructure:"year_end"`
	// Workers limits concurrent rank file reads.
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// Years returns the study period.
func (m MatchingConfig) Years() dateutil.YearRange {
	return dateutil.YearRange{First: m.YearStart, Last: m.YearEnd}
}

// LabelConfig holds the set ids used in the mention table and output.
type LabelConfig struct {
	Treated string `yaml:"treated" mapstructure:"treated"`
	Control string `yaml:"control" mapstructure:"control"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// FetchConfig configures rank table downloads.
type FetchConfig struct {
	URLTemplate string        `yaml:"url_template" mapstructure:"url_template"`
	MaxRetries  int           `yaml:"max_retries" mapstructure:"max_retries"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", DefaultDataDir)
	// Keys without a default are invisible to Unmarshal when only set via
	// the environment.
	for _, key := range []string{
		"inputs.rank_glob", "inputs.metadata", "inputs.retractions",
		"inputs.mentions", "inputs.taxonomy", "outputs.table",
		"outputs.mapping", "outputs.report", "outputs.sqlite",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("inputs.retractions_encoding", "utf-8")
	v.SetDefault("matching.sample_size", 10)
	v.SetDefault("matching.seed", 42)
	v.SetDefault("matching.year_start", 2000)
	v.SetDefault("matching.year_end", 2019)
	v.SetDefault("matching.workers", 4)
	v.SetDefault("labels.treated", "retracted")
	v.SetDefault("labels.control", "non-retracted")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("fetch.url_template", "https://www.scimagojr.com/journalrank.php?year=%d&out=xls")
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.timeout", time.Minute)
}

// New returns a viper instance set up for cemkit: defaults, environment
// variables prefixed with CEM_ and an optional config file. If file is empty,
// cemkit.yaml is looked up in the working directory and the xdg config dir.
func New(file string) *viper.Viper {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(cemkit.AppName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(path.Join(xdg.ConfigHome, cemkit.AppName))
	}
	v.SetEnvPrefix("CEM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads configuration from v, which usually comes from New, possibly with
// command line flags bound to it.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		switch {
		case notFound:
		case os.IsNotExist(err):
			return nil, eris.Wrapf(err, "config: file %s", v.ConfigFileUsed())
		default:
			return nil, eris.Wrap(err, "config: read file")
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

// Validate checks that a run can start with this configuration.
func (c *Config) Validate() error {
	if c.Matching.SampleSize < 1 {
		return eris.Errorf("config: sample size must be positive, got %d", c.Matching.SampleSize)
	}
	if err := c.Matching.Years().Validate(); err != nil {
		return eris.Wrap(err, "config")
	}
	var missing []string
	for _, kv := range []struct{ key, value string }{
		{"inputs.rank_glob", c.Inputs.RankGlob},
		{"inputs.metadata", c.Inputs.Metadata},
		{"inputs.retractions", c.Inputs.Retractions},
		{"inputs.mentions", c.Inputs.Mentions},
		{"inputs.taxonomy", c.Inputs.Taxonomy},
		{"outputs.table", c.Outputs.Table},
	} {
		if strings.TrimSpace(kv.value) == "" {
			missing = append(missing, kv.key)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("config: missing %s", strings.Join(missing, ", "))
	}
	if c.Labels.Treated == "" || c.Labels.Control == "" || c.Labels.Treated == c.Labels.Control {
		return eris.Errorf("config: treated and control labels must be set and differ")
	}
	return nil
}

// InitLogger configures the standard logrus logger.
func InitLogger(cfg LogConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	switch cfg.Format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return eris.Errorf("config: unknown log format %q", cfg.Format)
	}
	return nil
}
