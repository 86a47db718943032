package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/bedrock/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestEditorConfig_AutosaveDelayBounds(t *testing.T) {
	for _, d := range []time.Duration{0, time.Millisecond, 2 * time.Minute} {
		cfg := EditorConfig{AutosaveDelay: d}
		if err := cfg.Validate(); err == nil {
			t.Errorf("autosave delay %v should fail validation", d)
		}
	}
	cfg := EditorConfig{AutosaveDelay: 300 * time.Millisecond}
	if err := cfg.Validate(); err != nil {
		t.Errorf("300ms should pass: %v", err)
	}
}

func TestPreviewConfig_DisabledSkipsChecks(t *testing.T) {
	cfg := PreviewConfig{Enabled: false}
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled preview should pass: %v", err)
	}
	cfg.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Error("enabled preview without workers should fail")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	t.Setenv("BEDROCK_TEST_VAULT", "/srv/notes")
	data := `
app:
  http:
    port: 9090
vault:
  path: ${BEDROCK_TEST_VAULT}
editor:
  autosave_delay: 500ms
preview:
  enabled: false
`
	if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(file, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.HTTP.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.App.HTTP.Port)
	}
	if cfg.Vault.Path != "/srv/notes" {
		t.Errorf("vault = %q, want /srv/notes", cfg.Vault.Path)
	}
	if cfg.Editor.AutosaveDelay != 500*time.Millisecond {
		t.Errorf("autosave delay = %v, want 500ms", cfg.Editor.AutosaveDelay)
	}
	if cfg.SQLite.Path != "./bedrock.db" {
		t.Errorf("sqlite path = %q, want default", cfg.SQLite.Path)
	}
}
