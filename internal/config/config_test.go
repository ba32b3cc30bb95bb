package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_EnvFileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracker.env")
	env := "DB_DRIVER=sqlite\nPORT=6060\nALLOW_ORIGINS=http://a.local, http://b.local\nENFORCE_USER_TYPES=false\nVERBOSE=false\n"
	if err := os.WriteFile(path, []byte(env), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	for _, k := range []string{"DB_DRIVER", "PORT", "ALLOW_ORIGINS", "ENFORCE_USER_TYPES", "VERBOSE"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg := Load(path)
	if cfg.DBDriver != "sqlite" || cfg.Port != "6060" {
		t.Fatalf("file values not applied: driver=%q port=%q", cfg.DBDriver, cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.local" {
		t.Fatalf("origins = %q", cfg.AllowedOrigins)
	}
	if cfg.EnforceUserTypes {
		t.Fatalf("ENFORCE_USER_TYPES=false not honoured")
	}
	if cfg.MailDriver != "log" {
		t.Fatalf("mail driver default = %q, want log", cfg.MailDriver)
	}
	if cfg.ConfigPath != "tracker.env" {
		t.Fatalf("config path = %q", cfg.ConfigPath)
	}
}

func TestLoad_EnvironmentWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.env")
	if err := os.WriteFile(path, []byte("PORT=1111\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("PORT", "2222")
	t.Setenv("VERBOSE", "false")

	if got := Load(path).Port; got != "2222" {
		t.Fatalf("port = %s, want 2222", got)
	}
}

func TestIssuer(t *testing.T) {
	cfg := Config{AuthMode: "keycloak", AuthAddress: "kc:8080", Realm: "pms"}
	if got := cfg.Issuer(); got != "http://kc:8080/realms/pms" {
		t.Fatalf("issuer = %s", got)
	}
	cfg = Config{AuthMode: "hmac", JWTIssuer: "tracker"}
	if got := cfg.Issuer(); got != "tracker" {
		t.Fatalf("hmac issuer = %s", got)
	}
}

func TestToString_MasksSecrets(t *testing.T) {
	cfg := Config{
		JWTSecret:    "hunter2",
		DBPassword:   "pgpass-XYZ",
		ClientSecret: "kc-secret-XYZ",
		SMTPPass:     "smtp-XYZ",
		ResendAPIKey: "re_XYZ",
		SMTPHost:     "mail.local",
	}
	out := cfg.toString()
	for _, secret := range []string{"hunter2", "pgpass-XYZ", "kc-secret-XYZ", "smtp-XYZ", "re_XYZ"} {
		if strings.Contains(out, secret) {
			t.Fatalf("secret %q leaked:\n%s", secret, out)
		}
	}
	if !strings.Contains(out, "mail.local") {
		t.Fatalf("plain value missing:\n%s", out)
	}
}

func TestGetIntEnv(t *testing.T) {
	t.Setenv("N", "12")
	if got := getIntEnv("N", 3); got != 12 {
		t.Fatalf("got %d", got)
	}
	t.Setenv("N", "x")
	if got := getIntEnv("N", 3); got != 3 {
		t.Fatalf("bad int fell through: %d", got)
	}
}
