package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"search-assistant/backend"
)

func TestLoad_Defaults(t *testing.T) {
	settings, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if settings.Backend != backend.DefaultConfig() {
		t.Errorf("Load() backend = %+v, want %+v", settings.Backend, backend.DefaultConfig())
	}
	if settings.Server.Addr != ":8080" {
		t.Errorf("Load() addr = %q, want :8080", settings.Server.Addr)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search-assistant.yaml")
	content := `backend:
  endpoint: https://backend.example.com/query
  timeout: 10s
  max_attempts: 5
  initial_delay: 250ms
server:
  addr: 127.0.0.1:9000
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := backend.DefaultConfig()
	want.Endpoint = "https://backend.example.com/query"
	want.Timeout = 10 * time.Second
	want.MaxAttempts = 5
	want.InitialDelay = 250 * time.Millisecond
	if settings.Backend != want {
		t.Errorf("Load() backend = %+v, want %+v", settings.Backend, want)
	}
	if settings.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Load() addr = %q", settings.Server.Addr)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() of a missing file succeeded")
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SEARCH_ASSISTANT_BACKEND_ENDPOINT", "https://env.example.com/query")
	t.Setenv("SEARCH_ASSISTANT_BACKEND_TIMEOUT", "3s")

	settings, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if settings.Backend.Endpoint != "https://env.example.com/query" {
		t.Errorf("endpoint = %q", settings.Backend.Endpoint)
	}
	if settings.Backend.Timeout != 3*time.Second {
		t.Errorf("timeout = %s", settings.Backend.Timeout)
	}
}

func runWithFlags(t *testing.T, args ...string) (*Settings, error) {
	t.Helper()
	var (
		settings *Settings
		loadErr  error
	)
	app := &cli.App{
		Name:  "test",
		Flags: append(Flags(), &cli.StringFlag{Name: "addr"}),
		Action: func(ctx *cli.Context) error {
			settings, loadErr = FromCLI(ctx)
			return nil
		},
	}
	if err := app.Run(append([]string{"test"}, args...)); err != nil {
		t.Fatalf("app.Run() error = %v", err)
	}
	return settings, loadErr
}

func TestFromCLI_FlagsOverride(t *testing.T) {
	settings, err := runWithFlags(t,
		"--endpoint", "http://flags.example.com/query",
		"--timeout", "5s",
		"--max-attempts", "4",
		"--initial-delay", "2s",
		"--max-delay", "10s",
		"--addr", ":9999",
	)
	if err != nil {
		t.Fatalf("FromCLI() error = %v", err)
	}

	b := settings.Backend
	if b.Endpoint != "http://flags.example.com/query" || b.Timeout != 5*time.Second || b.MaxAttempts != 4 ||
		b.InitialDelay != 2*time.Second || b.MaxDelay != 10*time.Second {
		t.Errorf("FromCLI() backend = %+v", b)
	}
	if settings.Server.Addr != ":9999" {
		t.Errorf("FromCLI() addr = %q", settings.Server.Addr)
	}
}

func TestFromCLI_EndpointEnvironment(t *testing.T) {
	t.Setenv("BACKEND_ENDPOINT", "https://plain-env.example.com/query")

	settings, err := runWithFlags(t)
	if err != nil {
		t.Fatalf("FromCLI() error = %v", err)
	}
	if settings.Backend.Endpoint != "https://plain-env.example.com/query" {
		t.Errorf("endpoint = %q", settings.Backend.Endpoint)
	}
}

func TestFromCLI_Invalid(t *testing.T) {
	_, err := runWithFlags(t, "--max-attempts", "0")
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("FromCLI() error = %v, want invalid configuration", err)
	}
}
