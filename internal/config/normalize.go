package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// FailFastEnv overrides framework.fail_fast_limit when set.
const FailFastEnv = "JHOVE2_FAIL_FAST"

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeFramework(); err != nil {
		return err
	}
	c.normalizeInput()
	c.normalizeTemp()
	if err := c.normalizeRecognizers(); err != nil {
		return err
	}
	c.Report.Format = strings.ToLower(strings.TrimSpace(c.Report.Format))
	if c.Report.Format == "" {
		c.Report.Format = defaultReportFormat
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		c.Paths.TempDir = defaultTempDir
	}
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFramework() error {
	if value, ok := os.LookupEnv(FailFastEnv); ok && strings.TrimSpace(value) != "" {
		limit, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", FailFastEnv, value)
		}
		c.Framework.FailFastLimit = limit
	}
	c.Framework.Locale = strings.TrimSpace(c.Framework.Locale)
	if c.Framework.Locale == "" {
		c.Framework.Locale = defaultLocale
	}
	algorithms := make([]string, 0, len(c.Framework.DigestAlgorithms))
	seen := make(map[string]struct{}, len(c.Framework.DigestAlgorithms))
	for _, algo := range c.Framework.DigestAlgorithms {
		algo = strings.ToLower(strings.TrimSpace(algo))
		if algo == "" {
			continue
		}
		if _, ok := seen[algo]; ok {
			continue
		}
		seen[algo] = struct{}{}
		algorithms = append(algorithms, algo)
	}
	c.Framework.DigestAlgorithms = algorithms
	if c.Framework.MessageCatalog != "" {
		path, err := expandPath(c.Framework.MessageCatalog)
		if err != nil {
			return fmt.Errorf("framework.message_catalog: %w", err)
		}
		c.Framework.MessageCatalog = path
	}
	return nil
}

func (c *Config) normalizeInput() {
	c.Input.BufferType = strings.ToLower(strings.TrimSpace(c.Input.BufferType))
	if c.Input.BufferType == "" {
		c.Input.BufferType = defaultBufferType
	}
	if c.Input.BufferSize == 0 {
		c.Input.BufferSize = defaultBufferSize
	}
}

func (c *Config) normalizeTemp() {
	c.Temp.Prefix = strings.TrimSpace(c.Temp.Prefix)
	if c.Temp.Prefix == "" {
		c.Temp.Prefix = defaultTempPrefix
	}
	if c.Temp.MaxExpandedBytes == 0 {
		c.Temp.MaxExpandedBytes = defaultMaxExpandedBytes
	}
}

func (c *Config) normalizeRecognizers() error {
	if strings.TrimSpace(c.Recognizers.RulesPath) == "" {
		c.Recognizers.RulesPath = ""
		return nil
	}
	path, err := expandPath(c.Recognizers.RulesPath)
	if err != nil {
		return fmt.Errorf("recognizers.rules_path: %w", err)
	}
	c.Recognizers.RulesPath = path
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
