package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rohelgravityer/marketeers-login-check/internal/config"
	"github.com/rohelgravityer/marketeers-login-check/internal/report"
)

// TestNewCheckCmd tests the check command creation.
func TestNewCheckCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCheckCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "check [config-file...]" {
			t.Errorf("expected use 'check [config-file...]', got %q", cmd.Use)
		}
	})

	t.Run("has batch flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("batch")
		if flag == nil {
			t.Fatal("expected batch flag")
		}
		if flag.Shorthand != "b" {
			t.Errorf("expected shorthand 'b', got %q", flag.Shorthand)
		}
	})

	t.Run("has report format flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"json", "markdown", "output"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})
}

// clearEnv neutralizes ambient LOGINCHECK_* variables so config tests see
// only what they wrote.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		config.EnvBaseURL, config.EnvEmail, config.EnvPassword,
		config.EnvHeadless, config.EnvArtifact, config.EnvTimeout,
	} {
		t.Setenv(name, "")
	}
}

func TestLoadConfigsFromFiles(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "staging.yaml")
	content := `
baseURL: https://staging.example.com
email: qa@example.com
password: hunter2
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := NewCheckCmd()
	configs, err := loadConfigs(cmd, []string{path})
	if err != nil {
		t.Fatalf("loadConfigs() error = %v", err)
	}
	if len(configs) != 1 {
		t.Fatalf("expected 1 config, got %d", len(configs))
	}
	if got := configs[0].LoginURL(); got != "https://staging.example.com/agency/login" {
		t.Errorf("unexpected login URL %q", got)
	}
}

func TestLoadConfigsMissingExplicitFile(t *testing.T) {
	cmd := NewCheckCmd()
	_, err := loadConfigs(cmd, []string{filepath.Join(t.TempDir(), "nope.yaml")})
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadConfigsRejectsIncompleteConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nocreds.yaml")
	if err := os.WriteFile(path, []byte("baseURL: https://x.example.com\n"), 0644); err != nil {
		t.Fatal(err)
	}

	// No credentials anywhere: file, env, defaults.
	clearEnv(t)

	cmd := NewCheckCmd()
	if _, err := loadConfigs(cmd, []string{path}); err == nil {
		t.Fatal("expected validation error for missing credentials")
	}
}

func TestOutputReportDefaultFormat(t *testing.T) {
	cmd := NewCheckCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	run := &report.Run{
		ID:       "run-1",
		Target:   "https://staging.example.com/agency/login",
		Duration: 4200 * time.Millisecond,
		Verdict:  report.VerdictPass,
	}
	if err := outputReport(cmd, run); err != nil {
		t.Fatalf("outputReport() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"pass", run.Target, "run-1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestOutputReportJSONToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reports", "run.json")

	cmd := NewCheckCmd()
	if err := cmd.Flags().Set("json", "true"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("output", path); err != nil {
		t.Fatal(err)
	}

	run := &report.Run{
		ID:      "run-2",
		Target:  "https://staging.example.com/agency/login",
		Verdict: report.VerdictFail,
		Error:   "login remained on the login page",
	}
	if err := outputReport(cmd, run); err != nil {
		t.Fatalf("outputReport() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("report file not written: %v", err)
	}
	if !strings.Contains(string(data), `"verdict": "fail"`) {
		t.Errorf("report file missing verdict: %s", data)
	}
}

func TestCheckRejectsJSONAndMarkdownTogether(t *testing.T) {
	root := NewRootCmd()
	root.SetArgs([]string{"check", "--json", "--markdown"})
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	if err := root.Execute(); err == nil {
		t.Fatal("expected mutually exclusive flag error")
	}
}
