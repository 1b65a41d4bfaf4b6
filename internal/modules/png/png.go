// Package png parses and validates PNG images at the chunk level.
package png

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"

	"jhove2/internal/fault"
	"jhove2/internal/format"
	"jhove2/internal/framework"
	"jhove2/internal/identifier"
	"jhove2/internal/input"
	"jhove2/internal/message"
	"jhove2/internal/module"
	"jhove2/internal/reporter"
	"jhove2/internal/source"
)

// ID identifies the PNG module.
var ID = identifier.JHOVE2Term("module", "format", "png")

var signature = []byte("\x89PNG\r\n\x1a\n")

const (
	chunkIHDR = "IHDR"
	chunkIDAT = "IDAT"
	chunkIEND = "IEND"
)

// Module parses PNG chunk structure and judges validity from what the
// parse found.
type Module struct {
	*module.Module
	reporter.Parses
	reporter.Validates
}

// New returns a PNG module.
func New() *Module {
	m := &Module{}
	m.Module = module.New(m, ID, module.Info{
		Name:        "PNG",
		Version:     "1.0.0",
		ReleaseDate: "2026-10-01",
		Rights:      "BSD-3-Clause",
		Developers:  []module.Agent{{Name: "jhove2 maintainers"}},
		Note:        "PNG chunk structure, CRC, and header checks",
	})
	return m
}

func (m *Module) Formats() []format.Format { return []format.Format{format.PNG} }

type scan struct {
	fw     *framework.Framework
	src    source.Source
	chunks int
	ihdr   bool
	idat   bool
	iend   bool
}

func (s *scan) report(severity message.Severity, code string, args ...any) error {
	return s.fw.Report(s.src, severity, message.Object, code, args...)
}

// Parse walks the chunk sequence and returns the number of bytes it
// consumed. Structural problems are recorded on src; a chunk that runs
// past the end stops the walk.
func (m *Module) Parse(ctx context.Context, fw *framework.Framework, src source.Source, in *input.Input) (int64, error) {
	sig, err := in.Bytes(len(signature))
	if err != nil || !bytes.Equal(sig, signature) {
		if rerr := fw.Report(src, message.Error, message.Object, "png.badSignature"); rerr != nil {
			return 0, rerr
		}
		return 0, nil
	}

	s := &scan{fw: fw, src: src}
	for in.Remaining() > 0 && !s.iend {
		if err := ctx.Err(); err != nil {
			return in.Position(), err
		}
		done, err := s.chunk(in)
		if err != nil {
			return in.Position(), err
		}
		if done {
			break
		}
	}

	if !s.iend {
		if err := s.report(message.Error, "png.iendMissing"); err != nil {
			return in.Position(), err
		}
	}
	if s.ihdr && !s.idat {
		if err := s.report(message.Error, "png.idatMissing"); err != nil {
			return in.Position(), err
		}
	}
	if s.iend && in.Remaining() > 0 {
		if err := s.report(message.Warning, "png.dataAfterIEND", in.Remaining()); err != nil {
			return in.Position(), err
		}
	}
	return in.Position(), nil
}

// chunk reads one chunk. It reports true when the walk cannot continue.
func (s *scan) chunk(in *input.Input) (bool, error) {
	offset := in.Position()
	header, err := in.Bytes(8)
	if err != nil {
		if errors.Is(err, fault.ErrEndOfInput) {
			return true, s.report(message.Error, "png.truncated", "header", offset)
		}
		return true, err
	}
	length := int64(in.Order().Uint32(header[:4]))
	typ := string(header[4:])
	if !validType(typ) {
		return true, s.report(message.Error, "png.badChunkType", typ, offset)
	}
	if length+4 > in.Remaining() {
		return true, s.report(message.Error, "png.truncated", typ, offset)
	}
	data, err := in.Bytes(int(length))
	if err != nil {
		return true, err
	}
	stored, err := in.ReadUint32()
	if err != nil {
		return true, err
	}
	crc := crc32.NewIEEE()
	crc.Write(header[4:])
	crc.Write(data)
	if sum := crc.Sum32(); sum != stored {
		if err := s.report(message.Error, "png.badChunkCRC", typ, offset, stored, sum); err != nil {
			return true, err
		}
	}

	s.chunks++
	if s.chunks == 1 && typ != chunkIHDR {
		if err := s.report(message.Error, "png.ihdrNotFirst", typ); err != nil {
			return true, err
		}
	}
	switch typ {
	case chunkIHDR:
		if s.chunks == 1 {
			s.ihdr = true
			return false, s.header(data)
		}
	case chunkIDAT:
		s.idat = true
	case chunkIEND:
		s.iend = true
	}
	return false, nil
}

// allowedDepths lists the legal bit depths per color type.
var allowedDepths = map[uint8][]uint8{
	0: {1, 2, 4, 8, 16},
	2: {8, 16},
	3: {1, 2, 4, 8},
	4: {8, 16},
	6: {8, 16},
}

var colorTypeNames = map[uint8]string{
	0: "greyscale",
	2: "truecolour",
	3: "indexed-colour",
	4: "greyscale with alpha",
	6: "truecolour with alpha",
}

func (s *scan) header(data []byte) error {
	problem := ihdrProblem(data)
	if problem != "" {
		return s.report(message.Error, "png.badIHDR", problem)
	}
	width := binary.BigEndian.Uint32(data[0:4])
	height := binary.BigEndian.Uint32(data[4:8])
	interlace := "not interlaced"
	if data[12] == 1 {
		interlace = "Adam7 interlaced"
	}
	return s.report(message.Info, "png.imageHeader", width, height, data[8], data[9],
		colorTypeNames[data[9]]+", "+interlace)
}

func ihdrProblem(data []byte) string {
	if len(data) != 13 {
		return fmt.Sprintf("length %d, expected 13", len(data))
	}
	if bytes.Equal(data[0:4], []byte{0, 0, 0, 0}) || bytes.Equal(data[4:8], []byte{0, 0, 0, 0}) {
		return "zero width or height"
	}
	depth, colorType := data[8], data[9]
	depths, ok := allowedDepths[colorType]
	if !ok {
		return fmt.Sprintf("unknown color type %d", colorType)
	}
	if !bytes.Contains(depths, []byte{depth}) {
		return fmt.Sprintf("bit depth %d not allowed for color type %d", depth, colorType)
	}
	if data[10] != 0 {
		return fmt.Sprintf("unknown compression method %d", data[10])
	}
	if data[11] != 0 {
		return fmt.Sprintf("unknown filter method %d", data[11])
	}
	if data[12] > 1 {
		return fmt.Sprintf("unknown interlace method %d", data[12])
	}
	return ""
}

func validType(typ string) bool {
	return len(typ) == 4 && strings.IndexFunc(typ, func(r rune) bool {
		return (r < 'A' || r > 'Z') && (r < 'a' || r > 'z')
	}) < 0
}

// Validate judges src from the Object-context errors the parse recorded.
func (m *Module) Validate(_ context.Context, _ *framework.Framework, src source.Source, _ *input.Input) (source.Validity, error) {
	if hasObjectError(src) {
		return source.Invalid, nil
	}
	return source.Valid, nil
}

func hasObjectError(src source.Source) bool {
	for _, m := range src.Messages() {
		if m.Severity == message.Error && m.Context == message.Object && strings.HasPrefix(m.Code, "png.") {
			return true
		}
	}
	return false
}
