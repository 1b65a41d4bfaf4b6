package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"jhove2/internal/config"
	"jhove2/internal/fileutil"
	"jhove2/internal/framework"
	"jhove2/internal/logging"
	"jhove2/internal/metrics"
	"jhove2/internal/modules"
	"jhove2/internal/preflight"
	"jhove2/internal/report"
	"jhove2/internal/store"
	"jhove2/internal/workspace"
)

type characterizeOptions struct {
	format      string
	output      string
	failFast    int
	noStore     bool
	noDigests   bool
	showModules bool
	metricsFile string
}

func newCharacterizeCommand(ctx *commandContext) *cobra.Command {
	var opts characterizeOptions

	cmd := &cobra.Command{
		Use:   "characterize <path>...",
		Short: "Characterize files and directories",
		Long: `Characterize identifies, parses, validates, digests, and assesses every
source below the given paths. Two or more paths are characterized together
as one file set. The report is printed and recorded in the run history.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("fail-fast") {
				if opts.failFast < 0 {
					return fmt.Errorf("--fail-fast must be >= 0")
				}
				cfg.Framework.FailFastLimit = opts.failFast
			}
			if opts.noDigests {
				cfg.Framework.CalculateDigests = false
			}
			return runCharacterize(cmd, ctx, cfg, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Report format: auto, text, json, yaml, or cbor (default from config)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().IntVar(&opts.failFast, "fail-fast", 0, "Stop working on a source after this many errors (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.noStore, "no-store", false, "Do not record the run in the run history")
	cmd.Flags().BoolVar(&opts.noDigests, "no-digests", false, "Skip message digests")
	cmd.Flags().BoolVar(&opts.showModules, "modules", false, "Include module timings in text reports")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics for the run to this file")
	return cmd
}

func runCharacterize(cmd *cobra.Command, cc *commandContext, cfg *config.Config, paths []string, opts characterizeOptions) error {
	formatName := opts.format
	if strings.TrimSpace(formatName) == "" {
		formatName = cfg.Report.Format
	}
	reportFormat, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg)); len(failed) > 0 {
		var parts []string
		for _, r := range failed {
			parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
		return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
	}

	runID := uuid.NewString()
	logger, err := cc.newLogger(runID)
	if err != nil {
		return err
	}

	if removed, err := workspace.Sweep(cfg, logger); err != nil {
		logging.WarnWithContext(logger, "workspace sweep failed", "workspace_sweep_failed", logging.Error(err))
	} else if removed > 0 {
		logger.Info("removed abandoned workspaces", logging.Int("count", removed))
	}
	ws, err := workspace.Open(cfg, runID, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			logging.WarnWithContext(logger, "workspace cleanup failed", "workspace_cleanup_failed", logging.Error(cerr))
		}
	}()

	settings, err := framework.SettingsFromConfig(cfg)
	if err != nil {
		return err
	}
	resolver, err := framework.ResolverFromConfig(cfg)
	if err != nil {
		return err
	}
	recorder := metrics.New()
	fw, err := framework.New(framework.Options{
		Settings:  settings,
		Resolver:  resolver,
		Logger:    logger,
		Observer:  recorder,
		TempFiles: ws,
	})
	if err != nil {
		return err
	}
	if err := modules.Install(fw, modules.OptionsFromConfig(cfg)); err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logging.WithRunID(runCtx, runID)

	started := time.Now()
	logger.Info("characterization started",
		logging.Int("paths", len(paths)),
		logging.String(logging.FieldEventType, "run_start"),
	)
	root, charErr := fw.CharacterizePaths(runCtx, paths)
	finished := time.Now()
	if charErr != nil && !isCancellation(charErr) {
		return charErr
	}
	if !root.Valid() {
		return charErr
	}

	rep := report.Build(fw, root, report.Run{
		ID:       runID,
		Started:  started,
		Finished: finished,
		Paths:    paths,
	})
	logger.Info("characterization finished",
		logging.Int("sources", rep.Summary.Sources),
		logging.Int("invalid", rep.Summary.Invalid),
		logging.Int("errors", rep.Summary.Errors),
		logging.Duration("elapsed", finished.Sub(started)),
		logging.String(logging.FieldEventType, "run_complete"),
	)

	if charErr == nil && cfg.Store.Enabled && !opts.noStore {
		if err := storeReport(cmd.Context(), cfg, rep); err != nil {
			return err
		}
	}
	if opts.metricsFile != "" {
		if err := recorder.WriteTextfile(opts.metricsFile); err != nil {
			return err
		}
	}
	if err := writeReport(cmd, cfg, rep, reportFormat, opts); err != nil {
		return err
	}
	return charErr
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func storeReport(ctx context.Context, cfg *config.Config, rep report.Report) error {
	s, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer s.Close()
	return s.Insert(ctx, rep)
}

func writeReport(cmd *cobra.Command, cfg *config.Config, rep report.Report, f report.Format, opts characterizeOptions) error {
	textOpts := report.TextOptions{
		ShowIdentifications: cfg.Report.ShowIdentifications,
		ShowModules:         opts.showModules,
	}
	if opts.output != "" {
		f = f.Resolve(false)
		return fileutil.WriteAtomic(opts.output, 0o644, func(w io.Writer) error {
			return encodeReport(w, f, rep, textOpts)
		})
	}
	out := cmd.OutOrStdout()
	terminal := isTerminal(out)
	f = f.Resolve(terminal)
	if f.Binary() && terminal {
		return fmt.Errorf("refusing to write %s to a terminal; use --output", f)
	}
	return encodeReport(out, f, rep, textOpts)
}

func encodeReport(w io.Writer, f report.Format, rep report.Report, opts report.TextOptions) error {
	if f == report.Text {
		return report.WriteText(w, rep, opts)
	}
	return report.Encode(w, f, rep)
}
