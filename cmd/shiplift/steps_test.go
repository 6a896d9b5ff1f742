package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/avezina/shiplift/internal/config"
)

func TestNonSecretEnvExcludesCredentials(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DOMAIN_NAME", "shop.example.com")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_DATABASE", "shop")
	t.Setenv("DB_USERNAME", "deploy")
	t.Setenv("DB_PASSWORD", "hunter2")
	config.Init(nil)

	values := nonSecretEnv().Values()
	if values["DB_HOST"] != "db.internal" {
		t.Errorf("expected DB_HOST to be set, got %q", values["DB_HOST"])
	}
	if values["APP_URL"] != "https://shop.example.com/" {
		t.Errorf("unexpected APP_URL %q", values["APP_URL"])
	}
	if _, ok := values["DB_USERNAME"]; ok {
		t.Error("DB_USERNAME must not be part of the baked-in values")
	}
	if _, ok := values["DB_PASSWORD"]; ok {
		t.Error("DB_PASSWORD must not be part of the baked-in values")
	}
}

func TestFullEnvIncludesCredentials(t *testing.T) {
	t.Setenv("DB_USERNAME", "deploy")
	t.Setenv("DB_PASSWORD", "hunter2")
	config.Init(nil)

	values := fullEnv().Values()
	if values["DB_USERNAME"] != "deploy" {
		t.Errorf("expected DB_USERNAME in runtime values, got %q", values["DB_USERNAME"])
	}
	if values["DB_PASSWORD"] != "hunter2" {
		t.Errorf("expected DB_PASSWORD in runtime values, got %q", values["DB_PASSWORD"])
	}
}

func TestMigrationsDirPrefersStagedCheckout(t *testing.T) {
	stateDir := t.TempDir()
	t.Setenv("STATE_DIR", stateDir)
	config.Init(nil)

	staged := filepath.Join(stateDir, "src", "migrations")
	if err := os.MkdirAll(staged, 0o755); err != nil {
		t.Fatal(err)
	}
	if got := migrationsDir(); got != staged {
		t.Errorf("expected staged migrations dir %q, got %q", staged, got)
	}
}

func TestMigrationsDirFallsBackToConfigured(t *testing.T) {
	t.Setenv("STATE_DIR", t.TempDir())
	t.Setenv("DB_MIGRATIONS_DIR", "database/migrations")
	config.Init(nil)

	if got := migrationsDir(); got != "database/migrations" {
		t.Errorf("expected configured migrations dir, got %q", got)
	}
}
