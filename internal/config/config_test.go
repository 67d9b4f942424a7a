package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Create temporary config file
	content := `
server:
  port: 9090
  host: "127.0.0.1"

database:
  host: "testdb"
  port: 5432
  user: "testuser"
  password: "testpass"
  dbname: "testdb"

quota:
  freeLimit: 10
  window: "30m"

worker:
  count: 2
`

	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	// Load config
	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify loaded values
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Expected host 127.0.0.1, got %s", cfg.Server.Host)
	}

	if cfg.Database.Host != "testdb" {
		t.Errorf("Expected database host testdb, got %s", cfg.Database.Host)
	}

	if cfg.Quota.FreeLimit != 10 {
		t.Errorf("Expected free limit 10, got %d", cfg.Quota.FreeLimit)
	}

	if cfg.Quota.Window != 30*time.Minute {
		t.Errorf("Expected 30m window, got %v", cfg.Quota.Window)
	}

	if cfg.Worker.Count != 2 {
		t.Errorf("Expected worker count 2, got %d", cfg.Worker.Count)
	}
}

func TestLoadDefaults(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte("server:\n  port: 8080\n")); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Quota.FreeLimit != 14 {
		t.Errorf("Expected default free limit 14, got %d", cfg.Quota.FreeLimit)
	}

	if cfg.Quota.Window != time.Hour {
		t.Errorf("Expected default 1h window, got %v", cfg.Quota.Window)
	}

	if cfg.Worker.Count != 1 {
		t.Errorf("Expected default worker count 1, got %d", cfg.Worker.Count)
	}

	if cfg.Worker.JobTimeout != 60*time.Second {
		t.Errorf("Expected default job timeout 60s, got %v", cfg.Worker.JobTimeout)
	}

	if cfg.Quota.MaxPendingJobs != 100 {
		t.Errorf("Expected default max pending 100, got %d", cfg.Quota.MaxPendingJobs)
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Expected error when loading nonexistent file")
	}
}
