package config

import (
	"errors"
	"fmt"
	"slices"
)

// Digest algorithms the digest module can compute.
var supportedDigests = []string{"blake3", "sha256", "sha1", "md5", "crc32"}

// Report formats the report package can render.
var supportedReportFormats = []string{"auto", "text", "json", "yaml", "cbor"}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFramework(); err != nil {
		return err
	}
	if err := c.validateInput(); err != nil {
		return err
	}
	if c.Temp.MaxExpandedBytes < 0 {
		return errors.New("temp.max_expanded_bytes must be non-negative")
	}
	if !slices.Contains(supportedReportFormats, c.Report.Format) {
		return fmt.Errorf("report.format: unsupported value %q (want one of %v)", c.Report.Format, supportedReportFormats)
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateFramework() error {
	if c.Framework.FailFastLimit < 0 {
		return errors.New("framework.fail_fast_limit must be non-negative (0 disables fail-fast)")
	}
	if c.Framework.MaxAggrefierRounds <= 0 {
		return errors.New("framework.max_aggrefier_rounds must be positive")
	}
	if c.Framework.MaxContainerDepth <= 0 {
		return errors.New("framework.max_container_depth must be positive")
	}
	if c.Framework.CalculateDigests && len(c.Framework.DigestAlgorithms) == 0 {
		return errors.New("framework.digest_algorithms must list at least one algorithm when calculate_digests is true")
	}
	for _, algo := range c.Framework.DigestAlgorithms {
		if !slices.Contains(supportedDigests, algo) {
			return fmt.Errorf("framework.digest_algorithms: unsupported algorithm %q (want one of %v)", algo, supportedDigests)
		}
	}
	return nil
}

func (c *Config) validateInput() error {
	if c.Input.BufferSize <= 0 {
		return errors.New("input.buffer_size must be positive")
	}
	switch c.Input.BufferType {
	case "direct", "memory":
		return nil
	default:
		return fmt.Errorf("input.buffer_type: unsupported value %q (want direct or memory)", c.Input.BufferType)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be non-negative")
	}
	return nil
}
