package input

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"jhove2/internal/fault"
)

// BufferType selects how an Input reads its byte range.
type BufferType string

const (
	// Direct reads through to the file on demand.
	Direct BufferType = "direct"
	// Memory loads the whole range up front.
	Memory BufferType = "memory"
)

// ParseBufferType accepts "direct" or "memory"; empty means Direct.
func ParseBufferType(value string) (BufferType, error) {
	switch BufferType(strings.ToLower(strings.TrimSpace(value))) {
	case "", Direct:
		return Direct, nil
	case Memory:
		return Memory, nil
	default:
		return "", fmt.Errorf("unsupported input buffer type %q", value)
	}
}

// DefaultBufferSize is used when Options.BufferSize is not positive.
const DefaultBufferSize = 128 * 1024

// Options controls how inputs are opened.
type Options struct {
	BufferSize int
	BufferType BufferType
}

// Input is a positioned reader over a byte range of a backing file. It is
// not safe for concurrent use.
type Input struct {
	name     string
	file     *os.File
	section  *io.SectionReader
	reader   io.ReaderAt
	size     int64
	position int64
	order    binary.ByteOrder
	buffer   []byte
}

// Open returns an Input over [offset, offset+size) of path. A negative size
// extends to the end of the file.
func Open(path string, offset, size int64, opts Options) (*Input, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fault.Wrap(fault.ErrIO, "input", "open", path, err)
	}
	if size < 0 {
		info, err := file.Stat()
		if err != nil {
			_ = file.Close()
			return nil, fault.Wrap(fault.ErrIO, "input", "stat", path, err)
		}
		size = info.Size() - offset
		if size < 0 {
			size = 0
		}
	}
	in := &Input{
		name:    path,
		file:    file,
		section: io.NewSectionReader(file, offset, size),
		size:    size,
		order:   binary.BigEndian,
	}
	in.reader = in.section

	bufSize := opts.BufferSize
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	in.buffer = make([]byte, 0, bufSize)

	if opts.BufferType == Memory {
		data, err := io.ReadAll(in.section)
		if err != nil {
			_ = file.Close()
			return nil, fault.Wrap(fault.ErrIO, "input", "load", path, err)
		}
		in.reader = bytes.NewReader(data)
		_ = file.Close()
		in.file = nil
	}
	return in, nil
}

// FromBytes returns an Input over data; useful for tests and in-memory
// streams.
func FromBytes(name string, data []byte) *Input {
	return &Input{
		name:   name,
		reader: bytes.NewReader(data),
		size:   int64(len(data)),
		order:  binary.BigEndian,
	}
}

func (in *Input) Name() string { return in.name }

func (in *Input) Size() int64 { return in.size }

func (in *Input) Position() int64 { return in.position }

// SetPosition moves the read position. Positions beyond the end are allowed;
// the next read reports end of input.
func (in *Input) SetPosition(pos int64) error {
	if pos < 0 {
		return fault.Wrap(fault.ErrIO, "input", "seek", fmt.Sprintf("negative position %d", pos), nil)
	}
	in.position = pos
	return nil
}

// Remaining returns the number of bytes between the position and the end.
func (in *Input) Remaining() int64 {
	if in.position >= in.size {
		return 0
	}
	return in.size - in.position
}

func (in *Input) Order() binary.ByteOrder { return in.order }

func (in *Input) SetOrder(order binary.ByteOrder) {
	if order == nil {
		order = binary.BigEndian
	}
	in.order = order
}

// ReadAt reads len(p) bytes at off, relative to the start of the range.
func (in *Input) ReadAt(p []byte, off int64) (int, error) {
	n, err := in.reader.ReadAt(p, off)
	if err != nil {
		if errors.Is(err, io.EOF) {
			if n == len(p) {
				return n, nil
			}
			return n, fault.Wrap(fault.ErrEndOfInput, "input", "read",
				fmt.Sprintf("%s: wanted %d bytes at %d, got %d", in.name, len(p), off, n), io.ErrUnexpectedEOF)
		}
		return n, fault.Wrap(fault.ErrIO, "input", "read", in.name, err)
	}
	return n, nil
}

// Read implements io.Reader from the current position. It returns io.EOF at
// the end of the range.
func (in *Input) Read(p []byte) (int, error) {
	if in.position >= in.size {
		return 0, io.EOF
	}
	if remaining := in.size - in.position; int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := in.reader.ReadAt(p, in.position)
	in.position += int64(n)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fault.Wrap(fault.ErrIO, "input", "read", in.name, err)
	}
	return n, nil
}

// Bytes reads exactly n bytes from the position and advances it.
func (in *Input) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fault.Wrap(fault.ErrIO, "input", "read", fmt.Sprintf("negative length %d", n), nil)
	}
	var buf []byte
	if n <= cap(in.buffer) {
		buf = in.buffer[:n]
	} else {
		buf = make([]byte, n)
	}
	if _, err := in.ReadAt(buf, in.position); err != nil {
		return nil, err
	}
	in.position += int64(n)
	out := make([]byte, n)
	copy(out, buf)
	return out, nil
}

// Skip advances the position by n bytes, failing when that passes the end.
func (in *Input) Skip(n int64) error {
	if n < 0 || in.position+n > in.size {
		return fault.Wrap(fault.ErrEndOfInput, "input", "skip",
			fmt.Sprintf("%s: cannot skip %d bytes at %d", in.name, n, in.position), nil)
	}
	in.position += n
	return nil
}

func (in *Input) ReadUint8() (uint8, error) {
	b, err := in.Bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (in *Input) ReadUint16() (uint16, error) {
	b, err := in.Bytes(2)
	if err != nil {
		return 0, err
	}
	return in.order.Uint16(b), nil
}

func (in *Input) ReadUint32() (uint32, error) {
	b, err := in.Bytes(4)
	if err != nil {
		return 0, err
	}
	return in.order.Uint32(b), nil
}

func (in *Input) ReadUint64() (uint64, error) {
	b, err := in.Bytes(8)
	if err != nil {
		return 0, err
	}
	return in.order.Uint64(b), nil
}

// Peek returns up to n bytes at offset 0 without moving the position.
func (in *Input) Peek(n int) ([]byte, error) {
	if int64(n) > in.size {
		n = int(in.size)
	}
	buf := make([]byte, n)
	if _, err := in.ReadAt(buf, 0); err != nil {
		return nil, err
	}
	return buf, nil
}

// Reader returns an io.Reader over the whole range, independent of the
// position.
func (in *Input) Reader() io.Reader {
	return io.NewSectionReader(in.reader, 0, in.size)
}

func (in *Input) Close() error {
	if in.file == nil {
		return nil
	}
	err := in.file.Close()
	in.file = nil
	return err
}
