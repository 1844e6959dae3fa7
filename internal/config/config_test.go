package config

import (
	"os"
	"path/filepath"
	"testing"

	"cancelsaga/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
database:
  path: "test.db"
payment:
  provider: omise
  public_key: "pkey_test"
  secret_key: "${TEST_OMISE_SECRET}"
email:
  host: "smtp.example.com"
  from: "noreply@example.com"
api:
  auth:
    api_keys:
      - key: "k1"
        extra: "e1"
        name: "frontend"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	t.Setenv("TEST_OMISE_SECRET", "skey_test_123")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Payment.SecretKey != "skey_test_123" {
		t.Errorf("expected secret key expanded from env, got %s", cfg.Payment.SecretKey)
	}
	if cfg.Email.Port != 587 {
		t.Errorf("expected default smtp port 587, got %d", cfg.Email.Port)
	}
	if len(cfg.API.Auth.APIKeys) != 1 || cfg.API.Auth.APIKeys[0].Name != "frontend" {
		t.Errorf("expected 1 api key named frontend")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		return Config{
			Database: DatabaseConfig{Path: "path"},
			Payment:  PaymentConfig{Provider: PaymentProviderOmise, PublicKey: "pk", SecretKey: "sk"},
			Email:    EmailConfig{Host: "smtp", From: "a@b.c"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}, wantErr: false},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "omise without secret", mutate: func(c *Config) { c.Payment.SecretKey = "" }, wantErr: true},
		{
			name: "midtrans with server key",
			mutate: func(c *Config) {
				c.Payment = PaymentConfig{Provider: PaymentProviderMidtrans, ServerKey: "SB-Mid-server"}
			},
			wantErr: false,
		},
		{name: "midtrans without server key", mutate: func(c *Config) { c.Payment = PaymentConfig{Provider: PaymentProviderMidtrans} }, wantErr: true},
		{name: "unknown provider", mutate: func(c *Config) { c.Payment.Provider = "paypal" }, wantErr: true},
		{name: "missing email host", mutate: func(c *Config) { c.Email.Host = "" }, wantErr: true},
		{
			name: "duplicate api key",
			mutate: func(c *Config) {
				c.API.Auth.APIKeys = []APIClientKey{{Key: "k", Name: "a"}, {Key: "k", Name: "b"}}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.API.GRPC.Port != 8081 {
		t.Errorf("expected default gRPC port 8081, got %d", cfg.API.GRPC.Port)
	}
	if cfg.API.RequesterHeader != "x-user-id" {
		t.Errorf("expected default requester header x-user-id, got %s", cfg.API.RequesterHeader)
	}
	if cfg.API.CancelLimit.Limit != models.CancelRateLimit {
		t.Errorf("expected default cancel limit %d, got %d", models.CancelRateLimit, cfg.API.CancelLimit.Limit)
	}
	if cfg.Payment.Provider != PaymentProviderOmise {
		t.Errorf("expected default payment provider omise, got %s", cfg.Payment.Provider)
	}
	if cfg.Calendar.EventsMarker != "/events/" {
		t.Errorf("expected default events marker, got %s", cfg.Calendar.EventsMarker)
	}
	if cfg.Redis.OutcomeTTL != models.DefaultOutcomeTTL {
		t.Errorf("expected default outcome ttl %d, got %d", models.DefaultOutcomeTTL, cfg.Redis.OutcomeTTL)
	}
}

func TestValidateAPIKeys(t *testing.T) {
	tests := []struct {
		name    string
		keys    []APIClientKey
		wantErr bool
	}{
		{name: "Valid keys", keys: []APIClientKey{{Key: "a"}, {Key: "b"}}, wantErr: false},
		{name: "Duplicate key", keys: []APIClientKey{{Key: "a"}, {Key: "a"}}, wantErr: true},
		{name: "Empty key", keys: []APIClientKey{{Key: " ", Name: "blank"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIKeys(tt.keys)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAPIKeys() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
