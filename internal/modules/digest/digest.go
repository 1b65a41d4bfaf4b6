// Package digest computes message digests over source content.
package digest

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"slices"
	"strings"

	"github.com/zeebo/blake3"

	"jhove2/internal/fault"
	"jhove2/internal/framework"
	"jhove2/internal/identifier"
	"jhove2/internal/input"
	"jhove2/internal/message"
	"jhove2/internal/module"
	"jhove2/internal/reporter"
	"jhove2/internal/source"
)

// ID identifies the digest module.
var ID = identifier.JHOVE2Term("module", "digester")

var constructors = map[string]func() hash.Hash{
	"blake3": func() hash.Hash { return blake3.New() },
	"sha256": sha256.New,
	"sha1":   sha1.New,
	"md5":    md5.New,
	"crc32":  func() hash.Hash { return crc32.NewIEEE() },
}

// Algorithms lists the supported algorithm names, sorted.
func Algorithms() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Digester hashes a source once with every configured algorithm.
type Digester struct {
	*module.Module
	reporter.Digests

	algorithms []string
}

// New returns a digester for algorithms, in the order given.
func New(algorithms []string) (*Digester, error) {
	if len(algorithms) == 0 {
		return nil, fault.Wrap(fault.ErrConfiguration, "digest", "new", "no digest algorithms configured", nil)
	}
	var algs []string
	for _, name := range algorithms {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, ok := constructors[name]; !ok {
			return nil, fault.Wrap(fault.ErrConfiguration, "digest", "new",
				fmt.Sprintf("unsupported digest algorithm %q", name), nil)
		}
		if !slices.Contains(algs, name) {
			algs = append(algs, name)
		}
	}
	d := &Digester{algorithms: algs}
	d.Module = module.New(d, ID, module.Info{
		Name:        "Digester",
		Version:     "1.0.0",
		ReleaseDate: "2026-10-01",
		Rights:      "BSD-3-Clause",
		Developers:  []module.Agent{{Name: "jhove2 maintainers"}},
		Note:        "Message digests: " + strings.Join(algs, ", "),
	})
	return d, nil
}

func (d *Digester) Algorithms() []string { return slices.Clone(d.algorithms) }

// Digest reads in once, feeding every hash. A read failure is recorded on
// src and no digest is returned.
func (d *Digester) Digest(ctx context.Context, fw *framework.Framework, src source.Source, in *input.Input) ([]source.Digest, error) {
	hashes := make([]hash.Hash, len(d.algorithms))
	writers := make([]io.Writer, len(d.algorithms))
	for i, name := range d.algorithms {
		hashes[i] = constructors[name]()
		writers[i] = hashes[i]
	}
	if _, err := io.Copy(io.MultiWriter(writers...), contextReader{ctx: ctx, r: in.Reader()}); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fw.Report(src, message.Error, message.Process, "digest.failed",
			strings.Join(d.algorithms, ", "), err.Error())
	}
	out := make([]source.Digest, len(d.algorithms))
	for i, name := range d.algorithms {
		out[i] = source.Digest{Algorithm: name, Value: hex.EncodeToString(hashes[i].Sum(nil))}
	}
	return out, nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
