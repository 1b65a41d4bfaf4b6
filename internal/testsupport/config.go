package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"jhove2/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.TempDir = filepath.Join(base, "tmp")
	cfgVal.Framework.DigestAlgorithms = []string{"sha256"}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithFailFast sets the per-source error budget.
func WithFailFast(limit int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Framework.FailFastLimit = limit
	}
}

// WithDigests overrides the digest algorithms. No names disables digests.
func WithDigests(names ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Framework.DigestAlgorithms = names
		b.cfg.Framework.CalculateDigests = len(names) > 0
	}
}

// WithoutCompression stores reports as plain CBOR.
func WithoutCompression() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Compress = false
	}
}

// WithKeptTempFiles leaves expanded containers on disk after a run.
func WithKeptTempFiles() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Temp.DeleteTempFiles = false
	}
}

// WithRules writes a clump rules file and points the config at it.
func WithRules(contents string) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.baseDir, "rules.jsonc")
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			b.t.Fatalf("write rules: %v", err)
		}
		b.cfg.Recognizers.RulesPath = path
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
