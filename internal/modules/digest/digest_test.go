package digest_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"jhove2/internal/fault"
	"jhove2/internal/framework"
	"jhove2/internal/modules/digest"
	"jhove2/internal/source"
)

func TestDigestKnownVectors(t *testing.T) {
	d, err := digest.New([]string{"BLAKE3", "sha256", "sha1", "md5", "crc32", "sha256"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fw, err := framework.New(framework.Options{Settings: framework.DefaultSettings()})
	if err != nil {
		t.Fatalf("framework.New: %v", err)
	}
	if err := fw.Register(d); err != nil {
		t.Fatalf("Register: %v", err)
	}
	path := filepath.Join(t.TempDir(), "abc")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	src, err := fw.CharacterizePaths(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("CharacterizePaths: %v", err)
	}
	want := []source.Digest{
		{Algorithm: "blake3", Value: "6437b3ac38465133ffb63b75273a8db548c558465d79db03fd359c6cd5bd9d85"},
		{Algorithm: "sha256", Value: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{Algorithm: "sha1", Value: "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{Algorithm: "md5", Value: "900150983cd24fb0d6963f7d28e17f72"},
		{Algorithm: "crc32", Value: "352441c2"},
	}
	if diff := cmp.Diff(want, src.Digests()); diff != "" {
		t.Fatalf("digests mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRejectsUnknownAlgorithm(t *testing.T) {
	if _, err := digest.New([]string{"sha256", "whirlpool"}); !errors.Is(err, fault.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := digest.New(nil); !errors.Is(err, fault.ErrConfiguration) {
		t.Fatalf("expected configuration error for empty list, got %v", err)
	}
}

func TestAlgorithms(t *testing.T) {
	want := []string{"blake3", "crc32", "md5", "sha1", "sha256"}
	if diff := cmp.Diff(want, digest.Algorithms()); diff != "" {
		t.Fatalf("algorithms mismatch (-want +got):\n%s", diff)
	}
}
