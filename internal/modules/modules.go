// Package modules installs the bundled characterization modules and
// recognizers into a framework.
package modules

import (
	"jhove2/internal/aggrefier"
	"jhove2/internal/config"
	"jhove2/internal/framework"
	"jhove2/internal/module"
	"jhove2/internal/modules/assess"
	"jhove2/internal/modules/container"
	"jhove2/internal/modules/digest"
	"jhove2/internal/modules/png"
	"jhove2/internal/modules/sniff"
)

// Options select and tune the bundled modules.
type Options struct {
	DigestAlgorithms []string
	MaxExpandedBytes int64
	// BuiltinRules enables the embedded recognizer rules.
	BuiltinRules bool
	// RulesPath names an additional JSONC rule file.
	RulesPath string
}

// OptionsFromConfig copies module settings out of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		DigestAlgorithms: cfg.Framework.DigestAlgorithms,
		MaxExpandedBytes: cfg.Temp.MaxExpandedBytes,
		BuiltinRules:     cfg.Recognizers.Builtin,
		RulesPath:        cfg.Recognizers.RulesPath,
	}
}

// Install registers the bundled modules in dispatch order and adds the
// configured recognizers to the framework's aggrefier.
func Install(fw *framework.Framework, opts Options) error {
	mods := []module.Carrier{sniff.New(), png.New()}
	for _, e := range container.All(container.Options{MaxExpandedBytes: opts.MaxExpandedBytes}) {
		mods = append(mods, e)
	}
	if len(opts.DigestAlgorithms) > 0 {
		d, err := digest.New(opts.DigestAlgorithms)
		if err != nil {
			return err
		}
		mods = append(mods, d)
	}
	mods = append(mods, assess.New())
	for _, m := range mods {
		if err := fw.Register(m); err != nil {
			return err
		}
	}

	if opts.BuiltinRules {
		g, err := aggrefier.NewGlobRecognizer("builtin", aggrefier.BuiltinRules(), fw.Registry())
		if err != nil {
			return err
		}
		if err := fw.Aggrefier().Add(g); err != nil {
			return err
		}
	}
	if opts.RulesPath != "" {
		rules, err := aggrefier.ReadRules(opts.RulesPath)
		if err != nil {
			return err
		}
		g, err := aggrefier.NewGlobRecognizer("custom", rules, fw.Registry())
		if err != nil {
			return err
		}
		if err := fw.Aggrefier().Add(g); err != nil {
			return err
		}
	}
	return nil
}
