package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	TempDir string `toml:"temp_dir"`
}

// Framework contains the characterization policy read at framework construction.
type Framework struct {
	// FailFastLimit is the number of Error messages a source may collect
	// before remaining work on it is skipped. Zero means unlimited.
	FailFastLimit      int      `toml:"fail_fast_limit"`
	MaxAggrefierRounds int      `toml:"max_aggrefier_rounds"`
	MaxContainerDepth  int      `toml:"max_container_depth"`
	Locale             string   `toml:"locale"`
	CalculateDigests   bool     `toml:"calculate_digests"`
	DigestAlgorithms   []string `toml:"digest_algorithms"`
	SkipHidden         bool     `toml:"skip_hidden"`
	// MessageCatalog optionally replaces the built-in message texts.
	MessageCatalog string `toml:"message_catalog"`
}

// Input contains byte-source buffering settings.
type Input struct {
	BufferSize int    `toml:"buffer_size"`
	BufferType string `toml:"buffer_type"`
}

// Temp contains temporary-file policy for expanded containers.
type Temp struct {
	DeleteTempFiles bool   `toml:"delete_temp_files"`
	Prefix          string `toml:"prefix"`
	// MaxExpandedBytes caps how much a single container may decompress to.
	MaxExpandedBytes int64 `toml:"max_expanded_bytes"`
}

// Recognizers contains clump recognizer configuration.
type Recognizers struct {
	RulesPath string `toml:"rules_path"`
	Builtin   bool   `toml:"builtin"`
}

// Report contains report rendering defaults.
type Report struct {
	Format              string `toml:"format"`
	ShowIdentifications bool   `toml:"show_identifications"`
}

// Store contains run history settings.
type Store struct {
	Enabled  bool `toml:"enabled"`
	Compress bool `toml:"compress"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for jhove2.
//
// Configuration sections by subsystem:
//   - Paths: data, log, and temp directories
//   - Framework: fail-fast limit, clump discovery bound, locale, digests
//   - Input: buffer size and type for byte sources
//   - Temp: temporary-file policy for container expansion
//   - Recognizers: clump rule files
//   - Report: default output format
//   - Store: run history database
//   - Logging: log format, level, and retention
type Config struct {
	Paths       Paths       `toml:"paths"`
	Framework   Framework   `toml:"framework"`
	Input       Input       `toml:"input"`
	Temp        Temp        `toml:"temp"`
	Recognizers Recognizers `toml:"recognizers"`
	Report      Report      `toml:"report"`
	Store       Store       `toml:"store"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("jhove2.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, log, and temp directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.TempDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StorePath returns the run history database location.
func (c *Config) StorePath() string {
	return filepath.Join(c.Paths.DataDir, "runs.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the commented sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders c as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
