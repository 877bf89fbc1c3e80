package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Sources SourcesConfig `yaml:"sources" envconfig:"SOURCES"`
	Fetch   FetchConfig   `yaml:"fetch" envconfig:"FETCH"`
	Paths   PathsConfig   `yaml:"paths" envconfig:"PATHS"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
}

// SourcesConfig holds the upstream data source locations. URLs point at the
// latest available snapshots; update them to analyse a different month.
type SourcesConfig struct {
	// WorkforcePublicationURL is the NHS Digital publication page that links
	// to the practice-level workforce ZIP.
	WorkforcePublicationURL string `yaml:"workforce_publication_url" envconfig:"WORKFORCE_PUBLICATION_URL" default:"https://digital.nhs.uk/data-and-information/publications/statistical/general-and-personal-medical-services/31-december-2025" validate:"required,url"`

	// PopulationURLs are tried in order; ONS filenames change between releases.
	PopulationURLs []string `yaml:"population_urls" envconfig:"POPULATION_URLS" validate:"dive,url"`

	// ProvidersFile is the CQC GP providers register XLSX (ODS code to LA).
	ProvidersFile string `yaml:"providers_file" envconfig:"PROVIDERS_FILE" default:"GP providers.xlsx"`

	// PostcodeLookupFile is an optional postcode-to-LA lookup CSV, used when
	// LookupStrategy is "postcode".
	PostcodeLookupFile string `yaml:"postcode_lookup_file" envconfig:"POSTCODE_LOOKUP_FILE"`

	// LookupStrategy selects how practices are mapped to local authorities:
	// "ods" (providers register) or "postcode" (postcode lookup CSV).
	LookupStrategy string `yaml:"lookup_strategy" envconfig:"LOOKUP_STRATEGY" default:"ods" validate:"oneof=ods postcode"`
}

// FetchConfig controls download behaviour for upstream sources
type FetchConfig struct {
	Timeout        time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"120s" validate:"gt=0"`
	RequestsPerSec float64       `yaml:"requests_per_sec" envconfig:"REQUESTS_PER_SEC" default:"2" validate:"gt=0"`
	Burst          int           `yaml:"burst" envconfig:"BURST" default:"1" validate:"gt=0"`
	UserAgent      string        `yaml:"user_agent" envconfig:"USER_AGENT" default:"gpworkforce/1.0"`
	SkipIfCached   bool          `yaml:"skip_if_cached" envconfig:"SKIP_IF_CACHED" default:"true"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
	OutputFile string `yaml:"output_file" envconfig:"OUTPUT_FILE" default:"gp_workforce_by_local_authority.csv"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/gpworkforce.log"`
}

// defaultPopulationURLs mirror the ONS mid-2024 release locations.
var defaultPopulationURLs = []string{
	"https://www.ons.gov.uk/file?uri=/peoplepopulationandcommunity/populationandmigration/populationestimates/datasets/estimatesofthepopulationforenglandandwales/mid2024/estimatesofthepopulationforenglandandwalesmid2024.xlsx",
	"https://www.ons.gov.uk/file?uri=/peoplepopulationandcommunity/populationandmigration/populationestimates/datasets/populationestimatesforukenglandandwalesscotlandandnorthernireland/mid2024/ukpopulationestimates18382024.xlsx",
}

// Load loads configuration from environment variables and an optional
// config file. Environment variables take precedence over the file.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("GPW", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := getConfigFilePath(); configFile != "" {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileCfg, cfg)
	}

	if len(cfg.Sources.PopulationURLs) == 0 {
		cfg.Sources.PopulationURLs = defaultPopulationURLs
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileCfg, envCfg Config) Config {
	if envCfg.Sources.WorkforcePublicationURL == "" {
		envCfg.Sources.WorkforcePublicationURL = fileCfg.Sources.WorkforcePublicationURL
	}
	if len(envCfg.Sources.PopulationURLs) == 0 {
		envCfg.Sources.PopulationURLs = fileCfg.Sources.PopulationURLs
	}
	if envCfg.Sources.ProvidersFile == "" {
		envCfg.Sources.ProvidersFile = fileCfg.Sources.ProvidersFile
	}
	if envCfg.Sources.PostcodeLookupFile == "" {
		envCfg.Sources.PostcodeLookupFile = fileCfg.Sources.PostcodeLookupFile
	}
	if envCfg.Sources.LookupStrategy == "" {
		envCfg.Sources.LookupStrategy = fileCfg.Sources.LookupStrategy
	}
	if envCfg.Fetch.Timeout == 0 {
		envCfg.Fetch.Timeout = fileCfg.Fetch.Timeout
	}
	if envCfg.Paths.DataDir == "" {
		envCfg.Paths.DataDir = fileCfg.Paths.DataDir
	}
	if envCfg.Paths.LogsDir == "" {
		envCfg.Paths.LogsDir = fileCfg.Paths.LogsDir
	}
	if envCfg.Paths.OutputFile == "" {
		envCfg.Paths.OutputFile = fileCfg.Paths.OutputFile
	}
	if envCfg.Logging.Level == "" {
		envCfg.Logging.Level = fileCfg.Logging.Level
	}

	return envCfg
}

// Validate checks the configuration using struct tags plus cross-field rules
// the tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.Sources.LookupStrategy == "postcode" && c.Sources.PostcodeLookupFile == "" {
		return fmt.Errorf("lookup strategy %q requires a postcode lookup file", c.Sources.LookupStrategy)
	}
	if c.Sources.LookupStrategy == "ods" && c.Sources.ProvidersFile == "" {
		return fmt.Errorf("lookup strategy %q requires a providers file", c.Sources.LookupStrategy)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Sources: SourcesConfig{
			WorkforcePublicationURL: "https://digital.nhs.uk/data-and-information/publications/statistical/general-and-personal-medical-services/31-december-2025",
			PopulationURLs:          defaultPopulationURLs,
			ProvidersFile:           "GP providers.xlsx",
			LookupStrategy:          "ods",
		},
		Fetch: FetchConfig{
			Timeout:        120 * time.Second,
			RequestsPerSec: 2,
			Burst:          1,
			UserAgent:      "gpworkforce/1.0",
			SkipIfCached:   true,
		},
		Paths: PathsConfig{
			DataDir:    "data",
			LogsDir:    "logs",
			OutputFile: "gp_workforce_by_local_authority.csv",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "both",
			FilePath: "logs/gpworkforce.log",
		},
	}
}
