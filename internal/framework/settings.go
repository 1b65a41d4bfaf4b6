package framework

import (
	"fmt"
	"os"

	"jhove2/internal/aggrefier"
	"jhove2/internal/config"
	"jhove2/internal/input"
	"jhove2/internal/message"
)

// DefaultMaxContainerDepth bounds nested container expansion when Settings
// leave it unset.
const DefaultMaxContainerDepth = 16

// Settings is the characterization policy, fixed for the lifetime of a
// Framework.
type Settings struct {
	FailFastLimit      int
	MaxAggrefierRounds int
	// MaxContainerDepth is the number of nested expanded streams a source
	// may sit under and still be expanded itself.
	MaxContainerDepth int
	Locale            string
	CalculateDigests  bool
	SkipHidden        bool
	Input             input.Options
}

// DefaultSettings returns the settings used when no configuration is given.
func DefaultSettings() Settings {
	return Settings{
		MaxAggrefierRounds: aggrefier.DefaultMaxRounds,
		MaxContainerDepth:  DefaultMaxContainerDepth,
		Locale:             "en",
		CalculateDigests:   true,
		Input:              input.Options{BufferSize: input.DefaultBufferSize, BufferType: input.Direct},
	}
}

// SettingsFromConfig copies the framework policy out of cfg.
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	bufferType, err := input.ParseBufferType(cfg.Input.BufferType)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		FailFastLimit:      cfg.Framework.FailFastLimit,
		MaxAggrefierRounds: cfg.Framework.MaxAggrefierRounds,
		MaxContainerDepth:  cfg.Framework.MaxContainerDepth,
		Locale:             cfg.Framework.Locale,
		CalculateDigests:   cfg.Framework.CalculateDigests,
		SkipHidden:         cfg.Framework.SkipHidden,
		Input:              input.Options{BufferSize: cfg.Input.BufferSize, BufferType: bufferType},
	}, nil
}

// ResolverFromConfig loads the message catalog named by
// framework.message_catalog, or the bundled catalog when none is set.
func ResolverFromConfig(cfg *config.Config) (message.Resolver, error) {
	if cfg.Framework.MessageCatalog == "" {
		return message.DefaultCatalog()
	}
	f, err := os.Open(cfg.Framework.MessageCatalog)
	if err != nil {
		return nil, fmt.Errorf("open message catalog: %w", err)
	}
	defer f.Close()
	return message.LoadCatalog(f)
}
