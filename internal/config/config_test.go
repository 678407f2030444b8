package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/cfpgen/internal/profile"
	"github.com/kingrea/cfpgen/internal/session"
)

func noEnv(string) string { return "" }

func writeConfig(t *testing.T, projectDir, body string) {
	t.Helper()
	dir := filepath.Join(projectDir, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(strings.TrimSpace(body)), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, err := load(t.TempDir(), noEnv)
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.File.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", cfg.File.Version)
	}
	if cfg.File.Defaults.IdeaCount != 8 {
		t.Fatalf("expected default idea count 8, got %d", cfg.File.Defaults.IdeaCount)
	}
	if cfg.DefaultFormat() != profile.FormatTalk || cfg.DefaultAudience() != profile.AudienceMixed {
		t.Fatalf("unexpected defaults %q / %q", cfg.DefaultFormat(), cfg.DefaultAudience())
	}
	if cfg.File.Sessions.Backend != session.BackendMemory || cfg.File.Sessions.TTL != 24*time.Hour {
		t.Fatalf("unexpected session defaults %+v", cfg.File.Sessions)
	}
	if cfg.Catalog().Len() != 9 {
		t.Fatalf("expected built-in catalogue, got %d entries", cfg.Catalog().Len())
	}
}

func TestInitDirWritesLoadableConfig(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitDir(projectDir); err != nil {
		t.Fatalf("InitDir: %v", err)
	}
	for _, sub := range []string{"logs", "exports", "state"} {
		if info, err := os.Stat(filepath.Join(projectDir, Dir, sub)); err != nil || !info.IsDir() {
			t.Fatalf("expected %s dir, err=%v", sub, err)
		}
	}
	cfg, err := load(projectDir, noEnv)
	if err != nil {
		t.Fatalf("default config should load: %v", err)
	}
	if cfg.File.Server.Port != 8501 {
		t.Fatalf("expected port from default file, got %d", cfg.File.Server.Port)
	}
	if cfg.File.Assistant.Timeout != 60*time.Second {
		t.Fatalf("expected 60s timeout, got %s", cfg.File.Assistant.Timeout)
	}

	// A second init must not clobber user edits.
	writeConfig(t, projectDir, "defaults:\n  idea_count: 3\n")
	if err := InitDir(projectDir); err != nil {
		t.Fatal(err)
	}
	cfg, err = load(projectDir, noEnv)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.File.Defaults.IdeaCount != 3 {
		t.Fatalf("InitDir overwrote config, idea_count=%d", cfg.File.Defaults.IdeaCount)
	}
}

func TestLoadParsesYaml(t *testing.T) {
	projectDir := t.TempDir()
	writeConfig(t, projectDir, `
version: 1
defaults:
  idea_count: 12
  audience: Advanced
  format: chalk-talk
assistant:
  model: gpt-4o
  base_url: http://localhost:11434/v1/
  timeout: 5s
sessions:
  backend: sqlite
  ttl: 2h
conferences:
  - name: GopherCon
    tracks: [Performance, Tooling]
    formats: [talk, lightning]
  - name: KubeCon
    tracks: [Security]
`)
	cfg, err := load(projectDir, noEnv)
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.File.Defaults.IdeaCount != 12 || cfg.DefaultAudience() != profile.AudienceAdvanced {
		t.Fatalf("unexpected defaults %+v", cfg.File.Defaults)
	}
	if cfg.DefaultFormat() != profile.FormatChalkTalk {
		t.Fatalf("expected chalk talk, got %q", cfg.DefaultFormat())
	}
	ac := cfg.AssistantConfig()
	if ac.Model != "gpt-4o" || ac.BaseURL != "http://localhost:11434/v1" || ac.Timeout != 5*time.Second {
		t.Fatalf("unexpected assistant config %+v", ac)
	}
	if ac.MaxTokens != 1000 {
		t.Fatalf("expected default max tokens, got %d", ac.MaxTokens)
	}
	wantDB := filepath.Join(cfg.StateDir, "state", "sessions.db")
	if cfg.File.Sessions.Path != wantDB {
		t.Fatalf("sqlite path = %s, want %s", cfg.File.Sessions.Path, wantDB)
	}

	cat := cfg.Catalog()
	gopher, ok := cat.Lookup("gophercon")
	if !ok {
		t.Fatalf("expected GopherCon in catalogue")
	}
	if !gopher.SupportsFormat(profile.FormatLightning) || gopher.SupportsFormat(profile.FormatWorkshop) {
		t.Fatalf("unexpected GopherCon formats %v", gopher.Formats)
	}
	kube, _ := cat.Lookup("KubeCon")
	if len(kube.Tracks) != 1 || kube.Tracks[0] != "Security" {
		t.Fatalf("expected KubeCon to be replaced, got %v", kube.Tracks)
	}
	if cat.At(cat.Len()-1).Name != "Other / Custom" {
		t.Fatalf("custom entry must stay last")
	}
}

func TestEnvOverrides(t *testing.T) {
	projectDir := t.TempDir()
	env := map[string]string{
		"OPENAI_API_KEY":         " sk-test ",
		"OPENAI_BASE_URL":        "http://proxy/v1",
		"CFPGEN_MODEL":           "gpt-4.1",
		"CFPGEN_SESSION_BACKEND": "SQLite",
	}
	cfg, err := load(projectDir, func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey != "sk-test" {
		t.Fatalf("api key = %q", cfg.APIKey)
	}
	if cfg.File.Assistant.Model != "gpt-4.1" || cfg.File.Assistant.BaseURL != "http://proxy/v1" {
		t.Fatalf("assistant overrides not applied: %+v", cfg.File.Assistant)
	}
	if cfg.File.Sessions.Backend != session.BackendSQLite || cfg.File.Sessions.Path == "" {
		t.Fatalf("backend override not applied: %+v", cfg.File.Sessions)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"idea count":      "defaults:\n  idea_count: 50\n",
		"format":          "defaults:\n  format: keynote\n",
		"audience":        "defaults:\n  audience: experts\n",
		"backend":         "sessions:\n  backend: redis\n",
		"port":            "server:\n  port: 70000\n",
		"conference name": "conferences:\n  - tracks: [A]\n",
		"conference fmt":  "conferences:\n  - name: X\n    formats: [keynote]\n",
		"yaml":            "defaults: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			projectDir := t.TempDir()
			writeConfig(t, projectDir, body)
			_, err := load(projectDir, noEnv)
			if err == nil {
				t.Fatalf("expected error for %s", name)
			}
			if !strings.HasPrefix(err.Error(), "config: ") {
				t.Fatalf("error should be prefixed, got %v", err)
			}
		})
	}
}
