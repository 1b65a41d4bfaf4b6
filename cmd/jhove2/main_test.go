package main

import "testing"

func TestRootHelpListsCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, nil, env.configPath)
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	for _, name := range []string{"characterize", "runs", "modules", "preflight", "config"} {
		requireContains(t, out, name)
	}
}

func TestUnknownCommandFails(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"bogus"}, env.configPath); err == nil {
		t.Fatal("expected unknown command to fail")
	}
}
