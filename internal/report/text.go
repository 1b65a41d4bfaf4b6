package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TextOptions tune the human-readable rendering.
type TextOptions struct {
	ShowIdentifications bool
	ShowModules         bool
}

// WriteText renders r as tables for terminal reading.
func WriteText(w io.Writer, r Report, opts TextOptions) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s\n", r.RunID)
	if !r.Started.IsZero() {
		fmt.Fprintf(&b, "Started %s, took %s\n", r.Started.Local().Format("2006-01-02 15:04:05"),
			r.Finished.Sub(r.Started).Round(time.Millisecond))
	}
	b.WriteString("\n")
	b.WriteString(sourceTable(r.Root))
	b.WriteString("\n")

	if opts.ShowIdentifications {
		if t := identificationTable(r.Root); t != "" {
			b.WriteString("\nIdentifications\n")
			b.WriteString(t)
			b.WriteString("\n")
		}
	}
	if t := messageTable(r); t != "" {
		b.WriteString("\nMessages\n")
		b.WriteString(t)
		b.WriteString("\n")
	}
	if opts.ShowModules && len(r.Modules) > 0 {
		b.WriteString("\nModules\n")
		b.WriteString(ModuleTable(r.Modules))
		b.WriteString("\n")
	}
	s := r.Summary
	fmt.Fprintf(&b, "\n%d sources, %d clumps, %d invalid; %d errors, %d warnings, %d info\n",
		s.Sources, s.Clumps, s.Invalid, s.Errors, s.Warnings, s.Infos)
	_, err := io.WriteString(w, b.String())
	return err
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	return tw
}

func displayName(n Node, depth int) string {
	name := n.Name
	if depth > 0 {
		name = filepath.Base(name)
	}
	return strings.Repeat("  ", depth) + name
}

func sourceTable(root Node) string {
	tw := newTable()
	tw.AppendHeader(table.Row{"Source", "Kind", "Format", "Validity", "Size", "E/W/I"})
	root.Walk(func(n Node, depth int) {
		var e, w, i int
		for _, m := range n.Messages {
			switch m.Severity {
			case "ERROR":
				e++
			case "WARNING":
				w++
			default:
				i++
			}
		}
		size := ""
		if n.Kind == "File" || n.Kind == "Bytestream" {
			size = fmt.Sprintf("%d", n.Size)
		}
		tw.AppendRow(table.Row{displayName(n, depth), n.Kind, n.Format, n.Validity, size, fmt.Sprintf("%d/%d/%d", e, w, i)})
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 6, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func identificationTable(root Node) string {
	tw := newTable()
	tw.AppendHeader(table.Row{"Source", "Format", "Confidence", "Component"})
	rows := 0
	root.Walk(func(n Node, depth int) {
		for _, id := range n.Identifications {
			tw.AppendRow(table.Row{displayName(n, depth), id.Format, id.Confidence, shortComponent(id.Component)})
			rows++
		}
	})
	if rows == 0 {
		return ""
	}
	return tw.Render()
}

func shortComponent(id string) string {
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}

func messageTable(r Report) string {
	tw := newTable()
	tw.AppendHeader(table.Row{"Source", "Severity", "Code", "Message"})
	rows := 0
	for _, m := range r.Messages {
		tw.AppendRow(table.Row{"(run)", m.Severity, m.Code, m.Text})
		rows++
	}
	r.Root.Walk(func(n Node, depth int) {
		for _, m := range n.Messages {
			tw.AppendRow(table.Row{displayName(n, depth), m.Severity, m.Code, m.Text})
			rows++
		}
	})
	if rows == 0 {
		return ""
	}
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 4, WidthMax: 72}})
	return tw.Render()
}

// ModuleTable renders module metadata and timings.
func ModuleTable(modules []ModuleReport) string {
	tw := newTable()
	tw.AppendHeader(table.Row{"Module", "Version", "Capabilities", "Elapsed"})
	for _, m := range modules {
		tw.AppendRow(table.Row{m.Name, m.Version, strings.Join(m.Capabilities, ", "), m.Elapsed.Round(time.Microsecond).String()})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft}})
	return tw.Render()
}
