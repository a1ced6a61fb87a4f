package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCLI executes a fresh command tree with captured output streams.
func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeTestConfig writes a config file pointing at test servers. Insecure
// urls are allowed because httptest serves plain http.
func writeTestConfig(t *testing.T, catalogURL, spriteURL string) string {
	t.Helper()

	base := t.TempDir()
	content := fmt.Sprintf(`[paths]
log_dir = %q

[match]
similarity_threshold = 0.99
include_sprite_mirror = false

[fetch]
timeout_seconds = 5
allow_insecure_urls = true

[catalog]
base_url = %q
sprite_base_url = %q
`, filepath.Join(base, "logs"), catalogURL, spriteURL)

	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected output to contain %q, got:\n%s", substr, output)
	}
}
