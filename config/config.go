package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alorle/iptv-selector/fetcher"
	"github.com/alorle/iptv-selector/internal/candidate"
	"github.com/alorle/iptv-selector/internal/normalize"
	"github.com/alorle/iptv-selector/logging"
)

// DefaultCandidateListURL is the published list of playlist URLs.
const DefaultCandidateListURL = "https://raw.githubusercontent.com/takeAChestnut/auto_updater/refs/heads/main/available_m3u_urls.txt"

// Config holds the complete application configuration
type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Selection mode: speed or fallback
	Mode string `yaml:"mode"`

	// Statically configured candidate playlist URLs
	Candidates []string `yaml:"candidates"`

	// Remote candidate list
	CandidateList struct {
		URL       string `yaml:"url"`
		LocalCopy string `yaml:"local_copy"`
	} `yaml:"candidate_list"`

	// Playlist fetch settings
	Fetch struct {
		Timeout        time.Duration `yaml:"timeout"`
		ConnectTimeout time.Duration `yaml:"connect_timeout"`
		UserAgent      string        `yaml:"user_agent"`
		Referer        string        `yaml:"referer"`
		MemoTTL        time.Duration `yaml:"memo_ttl"`
	} `yaml:"fetch"`

	// Stream probe settings
	Probe struct {
		Duration         time.Duration `yaml:"duration"`
		ConnectTimeout   time.Duration `yaml:"connect_timeout"`
		ReferenceChannel string        `yaml:"reference_channel"`
		ScratchDir       string        `yaml:"scratch_dir"`
	} `yaml:"probe"`

	// Output settings
	Output struct {
		Path    string `yaml:"path"`
		Preview int    `yaml:"preview"`
	} `yaml:"output"`

	// Probe history storage; empty DBPath disables it
	Storage struct {
		DBPath    string        `yaml:"db_path"`
		Retention time.Duration `yaml:"retention"`
	} `yaml:"storage"`

	// Metrics settings
	Metrics struct {
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`

	// Serve mode settings
	Serve struct {
		Address  string `yaml:"address"`
		Port     string `yaml:"port"`
		Schedule string `yaml:"schedule"`
	} `yaml:"serve"`

	// Canonicalization rules
	Rules normalize.RuleSet `yaml:"rules"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	cfg := &Config{}

	cfg.LogLevel = "INFO"
	cfg.LogFormat = logging.FormatText
	cfg.Mode = string(candidate.ModeSpeed)

	cfg.CandidateList.URL = DefaultCandidateListURL
	cfg.CandidateList.LocalCopy = "available_m3u_urls.txt"

	cfg.Fetch.Timeout = 30 * time.Second
	cfg.Fetch.ConnectTimeout = 10 * time.Second
	cfg.Fetch.UserAgent = fetcher.DefaultUserAgent
	cfg.Fetch.MemoTTL = 10 * time.Minute

	cfg.Probe.Duration = 3 * time.Second
	cfg.Probe.ConnectTimeout = 5 * time.Second
	cfg.Probe.ReferenceChannel = "CCTV5"

	cfg.Output.Path = "CN.m3u"
	cfg.Output.Preview = 10

	cfg.Storage.Retention = 30 * 24 * time.Hour

	cfg.Serve.Address = "127.0.0.1"
	cfg.Serve.Port = "8080"
	cfg.Serve.Schedule = "@every 6h"

	cfg.Rules = normalize.Default()

	return cfg
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	var errs []string

	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		errs = append(errs, fmt.Sprintf("Log level %q must be one of DEBUG, INFO, WARN, ERROR", c.LogLevel))
	}
	if c.LogFormat != logging.FormatText && c.LogFormat != logging.FormatJSON {
		errs = append(errs, fmt.Sprintf("Log format %q must be text or json", c.LogFormat))
	}

	if !candidate.Mode(c.Mode).Valid() {
		errs = append(errs, fmt.Sprintf("Mode %q must be speed or fallback", c.Mode))
	}

	if c.Fetch.Timeout <= 0 {
		errs = append(errs, "Fetch timeout must be positive")
	}
	if c.Fetch.ConnectTimeout <= 0 {
		errs = append(errs, "Fetch connect timeout must be positive")
	}
	if c.Fetch.MemoTTL < 0 {
		errs = append(errs, "Fetch memo TTL cannot be negative")
	}

	if c.Probe.Duration <= 0 {
		errs = append(errs, "Probe duration must be positive")
	}
	if c.Probe.ConnectTimeout <= 0 {
		errs = append(errs, "Probe connect timeout must be positive")
	}
	if strings.TrimSpace(c.Probe.ReferenceChannel) == "" {
		errs = append(errs, "Probe reference channel is required")
	}

	if strings.TrimSpace(c.Output.Path) == "" {
		errs = append(errs, "Output path is required")
	}
	if c.Output.Preview < 0 {
		errs = append(errs, "Output preview cannot be negative")
	}

	if c.Storage.Retention < 0 {
		errs = append(errs, "Storage retention cannot be negative")
	}

	if c.Serve.Port == "" {
		errs = append(errs, "Serve port is required")
	}

	if err := c.Rules.WithDefaults().Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("Rules: %v", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Load reads a .env file when present, loads path (or CONFIG_FILE, or
// config.yaml) and applies environment variable overrides. An explicitly
// named config file must exist; the default one is optional.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	explicit := path != ""
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
		explicit = path != ""
	}
	if path == "" {
		path = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(path); err == nil {
		cfg, err = LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	} else {
		cfg = Default()
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) error {
	p := &envParser{}

	p.parseEnum("LOG_LEVEL", &cfg.LogLevel, []string{"DEBUG", "INFO", "WARN", "ERROR"}, strings.ToUpper)
	p.parseEnum("LOG_FORMAT", &cfg.LogFormat, []string{logging.FormatText, logging.FormatJSON}, strings.ToLower)
	p.parseEnum("IPTV_MODE", &cfg.Mode, []string{string(candidate.ModeSpeed), string(candidate.ModeFallback)}, strings.ToLower)
	p.parseList("IPTV_CANDIDATES", &cfg.Candidates)
	p.parseString("IPTV_CANDIDATE_LIST_URL", &cfg.CandidateList.URL)
	p.parseDuration("IPTV_FETCH_TIMEOUT", &cfg.Fetch.Timeout)
	p.parseDuration("IPTV_PROBE_DURATION", &cfg.Probe.Duration)
	p.parseString("IPTV_REFERENCE_CHANNEL", &cfg.Probe.ReferenceChannel)
	p.parseString("IPTV_OUTPUT", &cfg.Output.Path)
	p.parseString("IPTV_DB_PATH", &cfg.Storage.DBPath)
	p.parseString("IPTV_METRICS_TEXTFILE", &cfg.Metrics.Textfile)
	p.parseString("HTTP_ADDRESS", &cfg.Serve.Address)
	p.parseString("HTTP_PORT", &cfg.Serve.Port)
	p.parseString("IPTV_SCHEDULE", &cfg.Serve.Schedule)

	return p.err()
}

// Print writes the effective configuration to w
func (c *Config) Print(w io.Writer) {
	fmt.Fprintf(w, "logLevel: %v\n", c.LogLevel)
	fmt.Fprintf(w, "logFormat: %v\n", c.LogFormat)
	fmt.Fprintf(w, "mode: %v\n", c.Mode)
	fmt.Fprintf(w, "candidates: %d\n", len(c.Candidates))
	for _, u := range c.Candidates {
		fmt.Fprintf(w, "  - %s\n", u)
	}
	fmt.Fprintf(w, "candidateListUrl: %v\n", c.CandidateList.URL)
	fmt.Fprintf(w, "candidateListLocalCopy: %v\n", c.CandidateList.LocalCopy)
	fmt.Fprintf(w, "fetchTimeout: %v\n", c.Fetch.Timeout)
	fmt.Fprintf(w, "fetchConnectTimeout: %v\n", c.Fetch.ConnectTimeout)
	fmt.Fprintf(w, "probeDuration: %v\n", c.Probe.Duration)
	fmt.Fprintf(w, "probeConnectTimeout: %v\n", c.Probe.ConnectTimeout)
	fmt.Fprintf(w, "referenceChannel: %v\n", c.Probe.ReferenceChannel)
	fmt.Fprintf(w, "outputPath: %v\n", c.Output.Path)
	fmt.Fprintf(w, "dbPath: %v\n", c.Storage.DBPath)
	fmt.Fprintf(w, "metricsTextfile: %v\n", c.Metrics.Textfile)
	fmt.Fprintf(w, "serve: %s:%s (%s)\n", c.Serve.Address, c.Serve.Port, c.Serve.Schedule)
	fmt.Fprintf(w, "familyPrefix: %v\n", c.Rules.FamilyPrefix)
	fmt.Fprintf(w, "prefixOnlyPolicy: %v\n", c.Rules.PrefixOnlyPolicy)
}
