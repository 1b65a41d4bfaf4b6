package preflight

import (
	"context"

	"jhove2/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Temp directory", cfg.Paths.TempDir),
	}

	if cfg.Framework.CalculateDigests {
		results = append(results, CheckDigests(cfg.Framework.DigestAlgorithms))
	}

	if cfg.Framework.MessageCatalog != "" {
		results = append(results, CheckMessageCatalog(cfg))
	}

	if cfg.Recognizers.RulesPath != "" {
		results = append(results, CheckRules(cfg.Recognizers.RulesPath))
	}

	if cfg.Store.Enabled {
		results = append(results, CheckStore(ctx, cfg))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
