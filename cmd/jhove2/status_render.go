package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"jhove2/internal/preflight"
)

// checkOutcome classifies one line of preflight output.
type checkOutcome int

const (
	outcomeNote checkOutcome = iota
	outcomePass
	outcomeFail
)

type outcomeStyle struct {
	label  string
	colors text.Colors
}

var outcomeStyles = map[checkOutcome]outcomeStyle{
	outcomeNote: {"note", text.Colors{text.FgBlue}},
	outcomePass: {"pass", text.Colors{text.FgGreen}},
	outcomeFail: {"FAIL", text.Colors{text.FgRed, text.Bold}},
}

const checkNameWidth = 20

func resultOutcome(r preflight.Result) checkOutcome {
	if r.Passed {
		return outcomePass
	}
	return outcomeFail
}

// renderCheckLine renders a check name, its outcome tag, and the detail.
// Only the tag is colored.
func renderCheckLine(name string, outcome checkOutcome, detail string, colorize bool) string {
	style := outcomeStyles[outcome]
	tag := fmt.Sprintf("%-4s", style.label)
	if colorize {
		tag = style.colors.Sprint(tag)
	}
	line := fmt.Sprintf("  %-*s %s", checkNameWidth, name+":", tag)
	if detail = strings.TrimSpace(detail); detail != "" {
		line += "  " + detail
	}
	return line
}

// renderCheckSummary counts passed and failed results.
func renderCheckSummary(results []preflight.Result, colorize bool) string {
	failed := len(preflight.Failed(results))
	summary := fmt.Sprintf("%d checks, %d passed, %d failed", len(results), len(results)-failed, failed)
	if colorize && failed > 0 {
		return outcomeStyles[outcomeFail].colors.Sprint(summary)
	}
	return summary
}

func renderHeading(title string, colorize bool) []string {
	title = strings.TrimSpace(title)
	rule := strings.Repeat("=", len(title))
	if colorize {
		title = text.Bold.Sprint(title)
	}
	return []string{title, rule}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
