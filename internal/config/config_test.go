package config

import (
	"os"
	"path/filepath"
	"testing"

	"storyforge/internal/tester"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GEMINI_API_KEY", "API_KEY", "STRONG_TEXT_MODEL", "WEAK_TEXT_MODEL",
		"STORYFORGE_OUT", "STORYFORGE_LOG", "LLM_RPS", "LLM_BURST",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	tester.NoErr(t, err)
	tester.Eq(t, cfg.StrongModel, "gemini-2.5-pro")
	tester.Eq(t, cfg.WeakModel, "gemini-2.5-flash")
	tester.Eq(t, cfg.OutputRoot, "output")
	tester.Eq(t, cfg.AuditDir, "log")
	tester.Eq(t, cfg.RPS, 0.0)
	tester.Err(t, cfg.RequireAPIKey())
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_KEY", "k")
	t.Setenv("STRONG_TEXT_MODEL", "m-strong")
	t.Setenv("LLM_RPS", "2.5")
	t.Setenv("LLM_BURST", "4")

	cfg, err := Load("")
	tester.NoErr(t, err)
	tester.Eq(t, cfg.APIKey, "k")
	tester.Eq(t, cfg.StrongModel, "m-strong")
	tester.Eq(t, cfg.RPS, 2.5)
	tester.Eq(t, cfg.Burst, 4)
	tester.NoErr(t, cfg.RequireAPIKey())
}

func TestLoadDotEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	tester.NoErr(t, os.WriteFile(path, []byte("GEMINI_API_KEY=from-file\n"), 0o644))

	cfg, err := Load(path)
	tester.NoErr(t, err)
	tester.Eq(t, cfg.APIKey, "from-file")
}

func TestRealEnvWinsOverDotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "from-env")
	path := filepath.Join(t.TempDir(), ".env")
	tester.NoErr(t, os.WriteFile(path, []byte("GEMINI_API_KEY=from-file\n"), 0o644))

	cfg, err := Load(path)
	tester.NoErr(t, err)
	tester.Eq(t, cfg.APIKey, "from-env")
}
