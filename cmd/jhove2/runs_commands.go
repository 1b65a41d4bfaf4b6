package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"jhove2/internal/fault"
	"jhove2/internal/report"
	"jhove2/internal/store"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the run history",
	}

	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	runsCmd.AddCommand(newRunsDeleteCommand(ctx))
	runsCmd.AddCommand(newRunsClearCommand(ctx))

	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return errors.New("--limit must be >= 0")
			}
			return ctx.withStore(func(s *store.Store) error {
				runs, err := s.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, runViews(runs))
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Started", "Duration", "Sources", "Invalid", "Errors", "Root"},
					buildRunListRows(runs),
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Show at most this many runs (0 = all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print runs as JSON")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string
	var showModules bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the report of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if formatFlag == "" {
				formatFlag = cfg.Report.Format
			}
			f, err := report.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			return ctx.withStore(func(s *store.Store) error {
				id, err := resolveRunID(cmd, s, args[0])
				if err != nil {
					return err
				}
				rep, err := s.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				terminal := isTerminal(out)
				f = f.Resolve(terminal)
				if f.Binary() && terminal {
					return fmt.Errorf("refusing to write %s to a terminal", f)
				}
				return encodeReport(out, f, rep, report.TextOptions{
					ShowIdentifications: cfg.Report.ShowIdentifications,
					ShowModules:         showModules,
				})
			})
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Report format: auto, text, json, yaml, or cbor")
	cmd.Flags().BoolVar(&showModules, "modules", false, "Include module timings in text reports")
	return cmd
}

func newRunsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>...",
		Short: "Delete recorded runs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(s *store.Store) error {
				out := cmd.OutOrStdout()
				for _, arg := range args {
					id, err := resolveRunID(cmd, s, arg)
					if err != nil {
						return err
					}
					removed, err := s.Delete(cmd.Context(), id)
					if err != nil {
						return err
					}
					if removed {
						fmt.Fprintf(out, "Deleted run %s\n", id)
					} else {
						fmt.Fprintf(out, "Run %s not found\n", id)
					}
				}
				return nil
			})
		},
	}
}

func newRunsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(s *store.Store) error {
				removed, err := s.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d runs\n", removed)
				return nil
			})
		},
	}
}

// resolveRunID accepts a full run id or a unique prefix of one.
func resolveRunID(cmd *cobra.Command, s *store.Store, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.New("run id is empty")
	}
	runs, err := s.List(cmd.Context(), 0)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, run := range runs {
		if run.ID == value {
			return value, nil
		}
		if strings.HasPrefix(run.ID, value) {
			matches = append(matches, run.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fault.Wrap(fault.ErrNotFound, "runs", "resolve", fmt.Sprintf("no run matches %q", value), nil)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("run id %q is ambiguous (%d matches)", value, len(matches))
	}
}
