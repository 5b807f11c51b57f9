package application

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/diacritics-settings/internal/apiversion"
	"github.com/eugenenazirov/diacritics-settings/internal/config"
)

func TestNewInitializesDependencies(t *testing.T) {
	cfg := baseTestConfig(":8085")
	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if got := app.Settings().Version(); got != "v1" {
		t.Fatalf("expected default version v1, got %s", got)
	}
	if app.server == nil || app.router == nil || app.handler == nil {
		t.Fatalf("expected server, router, and handler to be initialized")
	}
	if app.Server() != app.server {
		t.Fatalf("Server accessor did not return underlying instance")
	}
	if err := app.Close(); err != nil {
		t.Fatalf("Close without watcher returned error: %v", err)
	}
}

func TestNewAppliesConfiguredVersion(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.APIVersion = "v1.0"

	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if got := app.Settings().Version(); got != "v1.0" {
		t.Fatalf("expected configured version v1.0, got %s", got)
	}
}

func TestNewIgnoresConfiguredUpgrade(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.APIVersion = "v2"

	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("expected upgrade to be ignored, got error: %v", err)
	}
	if got := app.Settings().Version(); got != "v1" {
		t.Fatalf("expected version to stay v1, got %s", got)
	}
}

func TestNewReturnsErrorForMalformedVersion(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.APIVersion = "latest"

	if _, err := New(cfg, zaptest.NewLogger(t)); !errors.Is(err, apiversion.ErrNotANumber) {
		t.Fatalf("expected ErrNotANumber, got %v", err)
	}
}

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := baseTestConfig("9090")
	handler := http.NewServeMux()

	server := NewServer(cfg, handler)
	if server.Addr != ":9090" {
		t.Fatalf("expected address :9090, got %s", server.Addr)
	}
	if server.Handler != handler {
		t.Fatalf("expected handler to be applied")
	}
	if server.ReadHeaderTimeout != cfg.ReadHeaderTimeout ||
		server.WriteTimeout != cfg.WriteTimeout ||
		server.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("server timeouts do not match configuration")
	}
}

func TestMetricsEndpointReportsVersionUpdates(t *testing.T) {
	app, err := New(baseTestConfig(":0"), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	app.Settings().SetVersion("v9")

	rec := httptest.NewRecorder()
	app.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `diacritics_version_updates_total{outcome="upgrade"}`) {
		t.Fatalf("expected upgrade counter in metrics output")
	}
	if !strings.Contains(body, "diacritics_api_version 1") {
		t.Fatalf("expected API version gauge in metrics output")
	}
}

func TestWatchConfigAppliesDowngrades(t *testing.T) {
	t.Setenv("DIACRITICS_API_VERSION", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: \"0\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	app, err := New(baseTestConfig(":0"), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := app.WatchConfig(context.Background(), config.CLIOverrides{ConfigFile: path}); err != nil {
		t.Fatalf("WatchConfig returned error: %v", err)
	}
	t.Cleanup(func() {
		_ = app.Close()
	})

	if err := os.WriteFile(path, []byte("port: \"0\"\napi_version: \"1.0\"\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for app.Settings().Version() != "1.0" {
		if time.Now().After(deadline) {
			t.Fatalf("expected reloaded version 1.0, got %s", app.Settings().Version())
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestWatchConfigRequiresFile(t *testing.T) {
	app, err := New(baseTestConfig(":0"), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := app.WatchConfig(context.Background(), config.CLIOverrides{}); err == nil {
		t.Fatalf("expected error without config file")
	}
}

func baseTestConfig(port string) config.Config {
	return config.Config{
		Port:                 port,
		LogLevel:             "info",
		ShutdownGracePeriod:  50 * time.Millisecond,
		ReadHeaderTimeout:    20 * time.Millisecond,
		WriteTimeout:         30 * time.Millisecond,
		IdleTimeout:          40 * time.Millisecond,
		EnableRequestLogging: false,
		RateLimitRPS:         0,
		RateLimitBurst:       0,
	}
}
