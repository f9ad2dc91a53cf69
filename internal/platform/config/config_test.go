package config

import (
	"errors"
	"testing"
	"time"
)

func lookupFrom(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(
		WithEnvFile("does-not-exist.env"),
		WithLookup(lookupFrom(map[string]string{
			"API_FIRESTORE_PROJECT_ID": "demo-project",
			"API_AUTH_JWT_SECRET":      "secret",
		})),
	)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Fatalf("expected default read timeout, got %s", cfg.Server.ReadTimeout)
	}
	if cfg.Auth.UserCookieName != "pf_user_token" {
		t.Fatalf("expected default user cookie name, got %s", cfg.Auth.UserCookieName)
	}
	if cfg.Events.ProjectID != "demo-project" {
		t.Fatalf("expected events project to fall back to firestore project, got %s", cfg.Events.ProjectID)
	}
}

func TestLoadReportsMissingFields(t *testing.T) {
	_, err := Load(
		WithEnvFile("does-not-exist.env"),
		WithLookup(lookupFrom(map[string]string{})),
	)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	fields := validation.Fields()
	if len(fields) != 2 {
		t.Fatalf("expected two missing fields, got %v", fields)
	}
}

func TestLoadParsesDurations(t *testing.T) {
	cfg, err := Load(
		WithEnvFile("does-not-exist.env"),
		WithLookup(lookupFrom(map[string]string{
			"API_FIRESTORE_PROJECT_ID": "demo-project",
			"API_AUTH_JWT_SECRET":      "secret",
			"API_SERVER_READ_TIMEOUT":  "5s",
			"API_SERVER_WRITE_TIMEOUT": "garbage",
		})),
	)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Fatalf("expected 5s read timeout, got %s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 30*time.Second {
		t.Fatalf("expected invalid write timeout to fall back, got %s", cfg.Server.WriteTimeout)
	}
}
