package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jhove2/internal/report"
)

func TestCharacterizeWritesAndStoresReport(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := writeSampleTree(t, filepath.Join(env.baseDir, "collection"))
	output := filepath.Join(env.baseDir, "report.json")
	metricsPath := filepath.Join(env.baseDir, "run.prom")

	_, _, err := runCLI(t, []string{"characterize", dir, "--format", "json", "--output", output, "--metrics-file", metricsPath}, env.configPath)
	if err != nil {
		t.Fatalf("characterize: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	rep, err := report.Decode(data, report.JSON)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rep.Summary.Sources != 3 || rep.Summary.Invalid != 0 {
		t.Fatalf("unexpected summary %+v", rep.Summary)
	}
	formats := map[string]string{}
	rep.Root.Walk(func(n report.Node, _ int) {
		formats[filepath.Base(n.Name)] = n.Format
	})
	if formats["image.png"] != "PNG" || formats["readme.txt"] != "UTF-8" {
		t.Fatalf("unexpected formats %v", formats)
	}

	prom, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	requireContains(t, string(prom), "jhove2_sources_total")

	out, _, err := runCLI(t, []string{"runs", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	var runs []runView
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode runs: %v\n%s", err, out)
	}
	if len(runs) != 1 || runs[0].ID != rep.RunID || runs[0].Sources != 3 {
		t.Fatalf("unexpected runs %+v", runs)
	}

	out, _, err = runCLI(t, []string{"runs", "show", shortID(rep.RunID), "--format", "yaml"}, env.configPath)
	if err != nil {
		t.Fatalf("runs show: %v", err)
	}
	shown, err := report.Decode([]byte(out), report.YAML)
	if err != nil {
		t.Fatalf("decode shown report: %v", err)
	}
	if shown.RunID != rep.RunID || shown.Summary != rep.Summary {
		t.Fatalf("shown report %s %+v does not match %s %+v", shown.RunID, shown.Summary, rep.RunID, rep.Summary)
	}
}

func TestCharacterizeTextReport(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := writeSampleTree(t, filepath.Join(env.baseDir, "collection"))

	out, _, err := runCLI(t, []string{"characterize", dir, "--format", "text", "--modules"}, env.configPath)
	if err != nil {
		t.Fatalf("characterize: %v", err)
	}
	requireContains(t, out, "image.png")
	requireContains(t, out, "Sniffer")
	requireContains(t, out, "3 sources, 0 clumps, 0 invalid")
}

func TestCharacterizeAutoFormatIsJSONWhenPiped(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := writeSampleTree(t, filepath.Join(env.baseDir, "collection"))

	out, _, err := runCLI(t, []string{"characterize", dir, "--no-store"}, env.configPath)
	if err != nil {
		t.Fatalf("characterize: %v", err)
	}
	if _, err := report.Decode([]byte(out), report.JSON); err != nil {
		t.Fatalf("expected JSON report: %v", err)
	}

	out, _, err = runCLI(t, []string{"runs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	requireContains(t, out, "No runs recorded")
}

func TestCharacterizeCBOR(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := writeSampleTree(t, filepath.Join(env.baseDir, "collection"))

	out, _, err := runCLI(t, []string{"characterize", dir, "--format", "cbor", "--no-digests"}, env.configPath)
	if err != nil {
		t.Fatalf("characterize: %v", err)
	}
	rep, err := report.Decode([]byte(out), report.CBOR)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	rep.Root.Walk(func(n report.Node, _ int) {
		if len(n.Digests) > 0 {
			t.Fatalf("%s has digests despite --no-digests", n.Name)
		}
	})
}

func TestCharacterizeRejectsBadInput(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"characterize", filepath.Join(env.baseDir, "missing")}, env.configPath); err == nil {
		t.Fatal("expected missing path to fail")
	}
	if _, _, err := runCLI(t, []string{"characterize", env.baseDir, "--format", "xml"}, env.configPath); err == nil {
		t.Fatal("expected unknown format to fail")
	}
	_, _, err := runCLI(t, []string{"characterize", env.baseDir, "--fail-fast", "-1"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "--fail-fast") {
		t.Fatalf("expected fail-fast error, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"characterize"}, env.configPath); err == nil {
		t.Fatal("expected missing argument to fail")
	}
}

func TestCharacterizeCleansWorkspace(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := writeSampleTree(t, filepath.Join(env.baseDir, "collection"))

	if _, _, err := runCLI(t, []string{"characterize", dir, "--no-store"}, env.configPath); err != nil {
		t.Fatalf("characterize: %v", err)
	}
	entries, err := os.ReadDir(env.cfg.Paths.TempDir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty temp dir, found %d entries", len(entries))
	}
}
