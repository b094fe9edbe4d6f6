package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ProxyURL != DefaultProxyURL {
		t.Fatalf("proxy_url = %q", cfg.ProxyURL)
	}
	if cfg.DispatchTimeout != 0 {
		t.Fatalf("expected no dispatch timeout by default, got %s", cfg.DispatchTimeout)
	}
	if cfg.CredentialStore != "bbolt" || cfg.CredentialKey != "token" {
		t.Fatalf("unexpected credential settings %q/%q", cfg.CredentialStore, cfg.CredentialKey)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PROXY_URL", "http://127.0.0.1:9000/")
	t.Setenv("DISPATCH_TIMEOUT_SECONDS", "7")
	t.Setenv("CREDENTIAL_STORE", " Memory ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ProxyURL != "http://127.0.0.1:9000/" {
		t.Fatalf("proxy_url = %q", cfg.ProxyURL)
	}
	if cfg.DispatchTimeout != 7*time.Second {
		t.Fatalf("dispatch timeout = %s", cfg.DispatchTimeout)
	}
	if cfg.CredentialStore != "memory" {
		t.Fatalf("credential_store = %q", cfg.CredentialStore)
	}
}

func TestNormalizeRejectsBadValues(t *testing.T) {
	cases := map[string]Config{
		"relative proxy": {ProxyURL: "/proxy", CredentialKey: "token"},
		"ftp proxy":      {ProxyURL: "ftp://example.com", CredentialKey: "token"},
		"negative":       {ProxyURL: DefaultProxyURL, DispatchTimeoutSeconds: -1, CredentialKey: "token"},
		"empty key":      {ProxyURL: DefaultProxyURL, CredentialKey: "  "},
	}
	for name, cfg := range cases {
		cfg := cfg
		if err := cfg.normalize(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
