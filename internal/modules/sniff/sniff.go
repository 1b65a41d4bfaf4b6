// Package sniff identifies formats from magic numbers, file name
// extensions, and a UTF-8 text heuristic.
package sniff

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"jhove2/internal/format"
	"jhove2/internal/framework"
	"jhove2/internal/identifier"
	"jhove2/internal/input"
	"jhove2/internal/message"
	"jhove2/internal/module"
	"jhove2/internal/reporter"
	"jhove2/internal/source"
)

// ID identifies the sniffing module.
var ID = identifier.JHOVE2Term("module", "identifier", "sniff")

// peekSize bounds how much of a source is examined.
const peekSize = 4096

type signature struct {
	offset int
	magic  []byte
	format format.Format
}

var signatures = []signature{
	{0, []byte("\x89PNG\r\n\x1a\n"), format.PNG},
	{0, []byte("GIF87a"), format.GIF},
	{0, []byte("GIF89a"), format.GIF},
	{0, []byte{0xFF, 0xD8, 0xFF}, format.JPEG},
	{0, []byte("II*\x00"), format.TIFF},
	{0, []byte("MM\x00*"), format.TIFF},
	{0, []byte("%PDF-"), format.PDF},
	{0, []byte{0x1F, 0x8B}, format.GZIP},
	{0, []byte{0x28, 0xB5, 0x2F, 0xFD}, format.Zstandard},
	{0, []byte{0x04, 0x22, 0x4D, 0x18}, format.LZ4},
	{0, []byte("PK\x03\x04"), format.ZIP},
	{0, []byte("<?xml"), format.XML},
	{0, []byte{0x00, 0x00, 0x27, 0x0A}, format.ShapefileMain},
	{36, []byte("acsp"), format.ICC},
}

var extensions = map[string]format.Format{
	".png":  format.PNG,
	".gif":  format.GIF,
	".jpg":  format.JPEG,
	".jpeg": format.JPEG,
	".tif":  format.TIFF,
	".tiff": format.TIFF,
	".pdf":  format.PDF,
	".gz":   format.GZIP,
	".zst":  format.Zstandard,
	".lz4":  format.LZ4,
	".zip":  format.ZIP,
	".xml":  format.XML,
	".shp":  format.ShapefileMain,
	".dbf":  format.DBF,
	".icc":  format.ICC,
	".icm":  format.ICC,
}

// Sniffer is the identification module bundled with the framework.
type Sniffer struct {
	*module.Module
	reporter.Identifies
}

// New returns a Sniffer.
func New() *Sniffer {
	s := &Sniffer{}
	s.Module = module.New(s, ID, module.Info{
		Name:        "Sniffer",
		Version:     "1.0.0",
		ReleaseDate: "2026-10-01",
		Rights:      "BSD-3-Clause",
		Developers:  []module.Agent{{Name: "jhove2 maintainers"}},
		Note:        "Magic number, extension, and text identification",
	})
	return s
}

// Identify proposes identifications for src. Directories and file sets are
// identified from their kind; content is matched against magic numbers
// first, then the name extension, then the UTF-8 heuristic.
func (s *Sniffer) Identify(_ context.Context, fw *framework.Framework, src source.Source, in *input.Input) ([]format.Identification, error) {
	switch src.Kind() {
	case source.Directory:
		return []format.Identification{s.identification(format.Directory, format.Validated)}, nil
	case source.FileSet:
		return []format.Identification{s.identification(format.FileSet, format.Validated)}, nil
	}
	if in == nil {
		return nil, nil
	}
	if in.Size() == 0 {
		if err := fw.Report(src, message.Info, message.Object, "sniff.emptySource"); err != nil {
			return nil, err
		}
		return nil, nil
	}
	head, err := in.Peek(peekSize)
	if err != nil {
		return nil, err
	}

	var out []format.Identification
	for _, sig := range signatures {
		end := sig.offset + len(sig.magic)
		if len(head) >= end && bytes.Equal(head[sig.offset:end], sig.magic) {
			out = append(out, s.identification(sig.format, format.PositiveSpecific))
		}
	}
	if len(out) > 0 {
		return out, nil
	}

	ext := strings.ToLower(filepath.Ext(src.BaseName()))
	if f, ok := extensions[ext]; ok {
		if err := fw.Report(src, message.Info, message.Process, "sniff.extensionOnly", f.Name); err != nil {
			return nil, err
		}
		out = append(out, s.identification(f, format.Tentative))
	}
	if looksLikeText(head, in.Size() > int64(len(head))) {
		out = append(out, s.identification(format.UTF8, format.Heuristic))
	}
	return out, nil
}

func (s *Sniffer) identification(f format.Format, c format.Confidence) format.Identification {
	return format.Identification{Component: s.ID(), Confidence: c, Format: f}
}

// looksLikeText reports whether head is UTF-8 without control bytes other
// than whitespace. A rune cut off at the end of a truncated peek is
// tolerated.
func looksLikeText(head []byte, truncated bool) bool {
	if truncated {
		for i := 0; i < utf8.UTFMax && len(head) > 0; i++ {
			if utf8.Valid(head) {
				break
			}
			head = head[:len(head)-1]
		}
	}
	if !utf8.Valid(head) {
		return false
	}
	for _, b := range head {
		if b < 0x20 && b != '\n' && b != '\r' && b != '\t' && b != '\f' {
			return false
		}
		if b == 0x7F {
			return false
		}
	}
	return true
}
