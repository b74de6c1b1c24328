package sources

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

func TestConfigCacheRun(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "levontin.yml", `type: levontin
url: https://levontin7.com/wp-admin/admin-ajax.php
settings:
  enabled: true
`)
	writeConfig(t, dir, "disabled-venue.yml", `type: rss
url: https://venue.example.com/feed
settings:
  enabled: false
`)

	cache := NewConfigCache(dir)
	if err := cache.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if cache.GetConfigCount() != 2 {
		t.Fatalf("Expected 2 configs, got %d", cache.GetConfigCount())
	}

	config, err := cache.GetConfig("levontin")
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	if config.Name != "levontin" || config.Type != "levontin" {
		t.Errorf("Unexpected config: %+v", config)
	}

	// Defaults applied during parsing.
	if config.Settings.MaxEvents != 100 {
		t.Errorf("Expected default max events 100, got %d", config.Settings.MaxEvents)
	}
	if config.Settings.Timeout != 30 {
		t.Errorf("Expected default timeout 30, got %d", config.Settings.Timeout)
	}

	enabled := cache.GetEnabledConfigs()
	if len(enabled) != 1 {
		t.Fatalf("Expected 1 enabled config, got %d", len(enabled))
	}
	if _, ok := enabled["disabled-venue"]; ok {
		t.Error("Expected the disabled source to be excluded")
	}
}

func TestConfigCacheMissingDirectory(t *testing.T) {
	cache := NewConfigCache(filepath.Join(t.TempDir(), "does-not-exist"))
	if err := cache.Run(); err != nil {
		t.Fatalf("Expected a missing directory to be tolerated, got %v", err)
	}
	if cache.GetConfigCount() != 0 {
		t.Errorf("Expected no configs, got %d", cache.GetConfigCount())
	}
}

func TestConfigCacheUnknownSource(t *testing.T) {
	cache := NewConfigCache(t.TempDir())
	if err := cache.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, err := cache.GetConfig("nope"); err == nil {
		t.Error("Expected an error for an unknown source")
	}
}

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"valid-rss", "type: rss\nurl: https://x\n", false},
		{"bad-type", "type: mystery\nurl: https://x\n", true},
		{"no-url", "type: rss\n", true},
		{"bad-max-start", "type: rss\nurl: https://x\nsettings:\n  max_start_time: tomorrow\n", true},
		{"good-max-start", "type: rss\nurl: https://x\nsettings:\n  max_start_time: 2026-12-31T00:00:00Z\n", false},
		{"facebook-no-auth", "type: facebook\nurl: https://x\n", true},
		{"facebook-token", "type: facebook\nurl: https://x\nauth:\n  access_token: tok\n", false},
		{"facebook-login", "type: facebook\nurl: https://x\nauth:\n  email: a@b.c\n  password: p\n", false},
		{"facebook-email-only", "type: facebook\nurl: https://x\nauth:\n  email: a@b.c\n", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tc.name+".yml", tc.content)

			cache := NewConfigCache(dir)
			err := cache.Run()
			if tc.wantErr && err == nil {
				t.Error("Expected a validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Expected valid config, got %v", err)
			}
		})
	}
}
