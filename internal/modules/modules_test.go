package modules_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"jhove2/internal/fault"
	"jhove2/internal/framework"
	"jhove2/internal/modules"
)

func newFramework(t *testing.T) *framework.Framework {
	t.Helper()
	fw, err := framework.New(framework.Options{Settings: framework.DefaultSettings()})
	if err != nil {
		t.Fatalf("framework.New: %v", err)
	}
	return fw
}

func names(fw *framework.Framework) []string {
	var out []string
	for _, m := range fw.Modules() {
		out = append(out, m.Base().Name())
	}
	return out
}

func TestInstall(t *testing.T) {
	rules := filepath.Join(t.TempDir(), "rules.jsonc")
	err := os.WriteFile(rules, []byte(`{
  // sidecar metadata
  "rules": [{
    "name": "tiff-world",
    "format": "tiff",
    "key": "^(?P<key>.+)\\.(?:tif|tfw)$",
    "members": [
      {"name": "image", "pattern": "\\.tif$", "required": true},
      {"name": "world", "pattern": "\\.tfw$", "required": true}
    ]
  }]
}`), 0o644)
	if err != nil {
		t.Fatalf("write rules: %v", err)
	}
	fw := newFramework(t)
	opts := modules.Options{DigestAlgorithms: []string{"sha256"}, BuiltinRules: true, RulesPath: rules}
	if err := modules.Install(fw, opts); err != nil {
		t.Fatalf("Install: %v", err)
	}
	want := []string{"Sniffer", "PNG", "GZIP expander", "Zstandard expander", "LZ4 expander",
		"Digester", "Assessor", "Aggrefier", "builtin", "custom"}
	if diff := cmp.Diff(want, names(fw)); diff != "" {
		t.Fatalf("modules mismatch (-want +got):\n%s", diff)
	}
}

func TestInstallWithoutDigestsOrRules(t *testing.T) {
	fw := newFramework(t)
	if err := modules.Install(fw, modules.Options{}); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if got := len(fw.Aggrefier().Recognizers()); got != 0 {
		t.Fatalf("expected no recognizers, got %d", got)
	}
}

func TestInstallRejectsBadDigest(t *testing.T) {
	fw := newFramework(t)
	err := modules.Install(fw, modules.Options{DigestAlgorithms: []string{"rot13"}})
	if !errors.Is(err, fault.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
