package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr: %s", c.Server.Addr)
	}
	if c.Storage.Driver != "memory" || c.Cache.Kind != "memory" {
		t.Fatalf("unexpected defaults: %s/%s", c.Storage.Driver, c.Cache.Kind)
	}
	if c.App.Env != "dev" || c.App.LogLevel != "info" {
		t.Fatalf("unexpected app defaults: %s/%s", c.App.Env, c.App.LogLevel)
	}
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
app:
  app_env: prod
server:
  addr: ":9090"
storage:
  driver: postgres
  postgres:
    dsn: postgres://localhost/dearjane
oauth:
  access_token_lifetime: 600
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Server.Addr != ":9090" || c.Storage.Driver != "postgres" {
		t.Fatalf("yaml not applied: %+v", c)
	}
	if c.OAuth.AccessTokenLifetime != 600 {
		t.Fatalf("lifetime not applied: %d", c.OAuth.AccessTokenLifetime)
	}

	// env pisa YAML
	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("ACCESS_TOKEN_LIFETIME", "120")
	c, err = Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Server.Addr != ":7070" {
		t.Fatalf("env override not applied: %s", c.Server.Addr)
	}
	if c.OAuth.AccessTokenLifetime != 120 {
		t.Fatalf("env lifetime not applied: %d", c.OAuth.AccessTokenLifetime)
	}
}
