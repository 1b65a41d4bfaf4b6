package report

import (
	"time"

	"jhove2/internal/framework"
	"jhove2/internal/message"
	"jhove2/internal/module"
	"jhove2/internal/source"
)

// Run describes one invocation of the framework.
type Run struct {
	ID       string
	Started  time.Time
	Finished time.Time
	Paths    []string
}

// Report is the characterization result for one run. Every field is a
// plain value so the document encodes the same way in every format.
type Report struct {
	RunID    string         `json:"run_id" yaml:"run_id" cbor:"run_id"`
	Started  time.Time      `json:"started" yaml:"started" cbor:"started"`
	Finished time.Time      `json:"finished" yaml:"finished" cbor:"finished"`
	Paths    []string       `json:"paths" yaml:"paths" cbor:"paths"`
	Summary  Summary        `json:"summary" yaml:"summary" cbor:"summary"`
	Root     Node           `json:"root" yaml:"root" cbor:"root"`
	Modules  []ModuleReport `json:"modules" yaml:"modules" cbor:"modules"`
	Messages []Message      `json:"messages,omitempty" yaml:"messages,omitempty" cbor:"messages,omitempty"`
}

// Summary counts what the run produced.
type Summary struct {
	Sources  int `json:"sources" yaml:"sources" cbor:"sources"`
	Clumps   int `json:"clumps" yaml:"clumps" cbor:"clumps"`
	Errors   int `json:"errors" yaml:"errors" cbor:"errors"`
	Warnings int `json:"warnings" yaml:"warnings" cbor:"warnings"`
	Infos    int `json:"infos" yaml:"infos" cbor:"infos"`
	Invalid  int `json:"invalid" yaml:"invalid" cbor:"invalid"`
}

// Node is one source in the report tree.
type Node struct {
	Name            string           `json:"name" yaml:"name" cbor:"name"`
	Kind            string           `json:"kind" yaml:"kind" cbor:"kind"`
	Size            int64            `json:"size,omitempty" yaml:"size,omitempty" cbor:"size,omitempty"`
	Format          string           `json:"format,omitempty" yaml:"format,omitempty" cbor:"format,omitempty"`
	Validity        string           `json:"validity" yaml:"validity" cbor:"validity"`
	Identifications []Identification `json:"identifications,omitempty" yaml:"identifications,omitempty" cbor:"identifications,omitempty"`
	Digests         []Digest         `json:"digests,omitempty" yaml:"digests,omitempty" cbor:"digests,omitempty"`
	Modules         []string         `json:"modules,omitempty" yaml:"modules,omitempty" cbor:"modules,omitempty"`
	Messages        []Message        `json:"messages,omitempty" yaml:"messages,omitempty" cbor:"messages,omitempty"`
	Children        []Node           `json:"children,omitempty" yaml:"children,omitempty" cbor:"children,omitempty"`
}

type Identification struct {
	Format     string `json:"format" yaml:"format" cbor:"format"`
	FormatID   string `json:"format_id" yaml:"format_id" cbor:"format_id"`
	Confidence string `json:"confidence" yaml:"confidence" cbor:"confidence"`
	Component  string `json:"component" yaml:"component" cbor:"component"`
}

type Digest struct {
	Algorithm string `json:"algorithm" yaml:"algorithm" cbor:"algorithm"`
	Value     string `json:"value" yaml:"value" cbor:"value"`
}

type Message struct {
	Severity string `json:"severity" yaml:"severity" cbor:"severity"`
	Context  string `json:"context" yaml:"context" cbor:"context"`
	Code     string `json:"code" yaml:"code" cbor:"code"`
	Text     string `json:"text" yaml:"text" cbor:"text"`
}

// ModuleReport describes a module that took part in the run.
type ModuleReport struct {
	ID           string        `json:"id" yaml:"id" cbor:"id"`
	Name         string        `json:"name" yaml:"name" cbor:"name"`
	Version      string        `json:"version" yaml:"version" cbor:"version"`
	ReleaseDate  string        `json:"release_date" yaml:"release_date" cbor:"release_date"`
	Rights       string        `json:"rights,omitempty" yaml:"rights,omitempty" cbor:"rights,omitempty"`
	Capabilities []string      `json:"capabilities,omitempty" yaml:"capabilities,omitempty" cbor:"capabilities,omitempty"`
	Elapsed      time.Duration `json:"elapsed_ns" yaml:"elapsed_ns" cbor:"elapsed_ns"`
	Messages     []Message     `json:"messages,omitempty" yaml:"messages,omitempty" cbor:"messages,omitempty"`
}

// Build assembles the report for root after fw has characterized it.
func Build(fw *framework.Framework, root source.Source, run Run) Report {
	r := Report{
		RunID:    run.ID,
		Started:  run.Started.UTC(),
		Finished: run.Finished.UTC(),
		Paths:    run.Paths,
	}
	if root.Valid() {
		r.Root = buildNode(root, &r.Summary)
	}
	for _, m := range fw.Modules() {
		r.Modules = append(r.Modules, moduleReport(m.Base()))
	}
	r.Messages = convertMessages(fw.Messages())
	return r
}

func buildNode(src source.Source, summary *Summary) Node {
	summary.Sources++
	if src.Kind() == source.Clump {
		summary.Clumps++
	}
	validity := src.Validity()
	if validity == source.Invalid {
		summary.Invalid++
	}
	n := Node{
		Name:     src.Name(),
		Kind:     src.Kind().String(),
		Validity: validity.String(),
	}
	if src.HasContent() {
		n.Size = src.Size()
	}
	if best, ok := src.BestIdentification(); ok {
		n.Format = best.Format.Name
	}
	for _, id := range src.FormatIdentifications() {
		n.Identifications = append(n.Identifications, Identification{
			Format:     id.Format.Name,
			FormatID:   id.Format.ID.String(),
			Confidence: id.Confidence.String(),
			Component:  id.Component.String(),
		})
	}
	for _, d := range src.Digests() {
		n.Digests = append(n.Digests, Digest{Algorithm: d.Algorithm, Value: d.Value})
	}
	for _, id := range src.Modules() {
		n.Modules = append(n.Modules, id.String())
	}
	n.Messages = convertMessages(src.Messages())
	for _, m := range src.Messages() {
		switch m.Severity {
		case message.Error:
			summary.Errors++
		case message.Warning:
			summary.Warnings++
		default:
			summary.Infos++
		}
	}
	for _, child := range src.Children() {
		n.Children = append(n.Children, buildNode(child, summary))
	}
	return n
}

func moduleReport(m *module.Module) ModuleReport {
	info := m.Info()
	out := ModuleReport{
		ID:          m.ID().String(),
		Name:        info.Name,
		Version:     info.Version,
		ReleaseDate: info.ReleaseDate,
		Rights:      info.Rights,
		Elapsed:     m.Timer().Total(),
		Messages:    convertMessages(m.Messages()),
	}
	for _, c := range m.Capabilities().List() {
		out.Capabilities = append(out.Capabilities, c.String())
	}
	return out
}

func convertMessages(ms []message.Message) []Message {
	if len(ms) == 0 {
		return nil
	}
	out := make([]Message, len(ms))
	for i, m := range ms {
		out[i] = Message{Severity: m.Severity.String(), Context: m.Context.String(), Code: m.Code, Text: m.Text}
	}
	return out
}

// Walk visits n and its descendants depth-first, passing the depth.
func (n Node) Walk(fn func(Node, int)) {
	var visit func(Node, int)
	visit = func(node Node, depth int) {
		fn(node, depth)
		for _, child := range node.Children {
			visit(child, depth+1)
		}
	}
	visit(n, 0)
}
