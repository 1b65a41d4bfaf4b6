// Package container expands compressed streams (gzip, Zstandard, LZ4
// frame) into Bytestream children backed by temporary files.
package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"jhove2/internal/fault"
	"jhove2/internal/format"
	"jhove2/internal/framework"
	"jhove2/internal/identifier"
	"jhove2/internal/input"
	"jhove2/internal/logging"
	"jhove2/internal/message"
	"jhove2/internal/module"
	"jhove2/internal/reporter"
	"jhove2/internal/source"
)

// DefaultMaxExpandedBytes caps decompressed output when Options leave it
// unset.
const DefaultMaxExpandedBytes int64 = 1 << 30

// Codec decompresses one stream format.
type Codec struct {
	Format    format.Format
	Extension string
	open      func(r io.Reader) (io.ReadCloser, string, error)
}

// Gzip decodes RFC 1952 streams, including concatenated members.
var Gzip = Codec{Format: format.GZIP, Extension: ".gz", open: func(r io.Reader) (io.ReadCloser, string, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, "", err
	}
	return zr, zr.Name, nil
}}

// Zstandard decodes zstd frames.
var Zstandard = Codec{Format: format.Zstandard, Extension: ".zst", open: func(r io.Reader) (io.ReadCloser, string, error) {
	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, "", err
	}
	return zr.IOReadCloser(), "", nil
}}

// LZ4 decodes LZ4 frames.
var LZ4 = Codec{Format: format.LZ4, Extension: ".lz4", open: func(r io.Reader) (io.ReadCloser, string, error) {
	return io.NopCloser(lz4.NewReader(r)), "", nil
}}

// Options configure an Expander.
type Options struct {
	// MaxExpandedBytes caps the decompressed size of one stream.
	MaxExpandedBytes int64
}

// Expander unpacks one compressed stream format.
type Expander struct {
	*module.Module
	reporter.Parses

	codec Codec
	max   int64
}

// New returns an expander for codec.
func New(codec Codec, opts Options) *Expander {
	if opts.MaxExpandedBytes <= 0 {
		opts.MaxExpandedBytes = DefaultMaxExpandedBytes
	}
	e := &Expander{codec: codec, max: opts.MaxExpandedBytes}
	short := codec.Format.ID.Short()
	e.Module = module.New(e, identifier.JHOVE2Term("module", "container", short), module.Info{
		Name:        codec.Format.Name + " expander",
		Version:     "1.0.0",
		ReleaseDate: "2026-10-01",
		Rights:      "BSD-3-Clause",
		Developers:  []module.Agent{{Name: "jhove2 maintainers"}},
	})
	return e
}

// All returns expanders for every supported codec.
func All(opts Options) []*Expander {
	return []*Expander{New(Gzip, opts), New(Zstandard, opts), New(LZ4, opts)}
}

func (e *Expander) Formats() []format.Format { return []format.Format{e.codec.Format} }

// Expand decompresses src into a temporary file and returns a Bytestream
// over it. A corrupt or oversized stream is recorded on src and yields no
// child; failures reading src itself are returned.
func (e *Expander) Expand(ctx context.Context, fw *framework.Framework, src source.Source, in *input.Input) ([]source.Source, error) {
	if in == nil {
		return nil, nil
	}
	temps := fw.TempFiles()
	if temps == nil {
		return nil, fault.Wrap(fault.ErrConfiguration, "container", "expand", "no temporary file workspace", nil)
	}

	r, embedded, err := e.codec.open(in.Reader())
	if err != nil {
		return nil, e.corrupt(fw, src, err)
	}
	defer r.Close()

	tmp, err := temps.CreateTemp("expand-*" + e.codec.Extension)
	if err != nil {
		return nil, fault.Wrap(fault.ErrIO, "container", "create temp", src.Name(), err)
	}
	n, copyErr := io.Copy(tmp, &limitedReader{ctx: ctx, r: r, remaining: e.max + 1})
	if err := tmp.Close(); err != nil && copyErr == nil {
		copyErr = fault.Wrap(fault.ErrIO, "container", "close temp", tmp.Name(), err)
	}
	if copyErr != nil {
		_ = os.Remove(tmp.Name())
		return nil, e.corrupt(fw, src, copyErr)
	}
	if n > e.max {
		_ = os.Remove(tmp.Name())
		return nil, fw.Report(src, message.Error, message.Object, "container.tooLarge", e.codec.Format.Name, e.max)
	}

	if err := fw.Report(src, message.Info, message.Object, "container.expanded", e.codec.Format.Name, n); err != nil {
		return nil, err
	}
	fw.Logger().Debug("container expanded",
		logging.String(logging.FieldSource, src.Name()),
		logging.String("format", e.codec.Format.Name),
		logging.Int64("bytes", n),
		logging.String("temp_file", tmp.Name()),
		logging.String(logging.FieldEventType, "container_expanded"),
	)
	child := src.Tree().NewBytestream(e.childName(src, embedded), tmp.Name(), 0, n)
	return []source.Source{child}, nil
}

// corrupt records a decoding failure on src. Cancellation and failures
// reading src itself are returned instead.
func (e *Expander) corrupt(fw *framework.Framework, src source.Source, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || fault.Recoverable(err) {
		return err
	}
	return fw.Report(src, message.Error, message.Object, "container.corrupt", e.codec.Format.Name, err.Error())
}

func (e *Expander) childName(src source.Source, embedded string) string {
	dir := filepath.Dir(src.Name())
	if embedded != "" {
		return filepath.Join(dir, filepath.Base(embedded))
	}
	base := src.BaseName()
	if trimmed, ok := strings.CutSuffix(strings.ToLower(base), e.codec.Extension); ok && trimmed != "" {
		return filepath.Join(dir, base[:len(trimmed)])
	}
	return fmt.Sprintf("%s#%s", src.Name(), e.codec.Format.ID.Short())
}

// limitedReader stops after remaining bytes and checks ctx on every read.
type limitedReader struct {
	ctx       context.Context
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if err := l.ctx.Err(); err != nil {
		return 0, err
	}
	if l.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	return n, err
}
