package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	mgr, err := LoadSettings(path)
	require.NoError(t, err)

	settings := mgr.Get()
	assert.Equal(t, "gemini-2.5-flash", settings.Model)
	assert.Equal(t, "English", settings.Language)
	assert.Equal(t, "en", settings.LanguageCode)
	assert.Equal(t, 50, settings.BatchSize)
	assert.True(t, settings.Streaming)
	// Opt-in so default output re-parses to the same cue count.
	assert.False(t, settings.AddTranslatorInfo)
	assert.Equal(t, 0.2, settings.Temperature)

	// Defaults are written back to disk.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestLoadSettingsReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"model":"gemini-2.5-pro","language":"German","language_code":"de","batch_size":25,"temperature":0.5,"top_p":0.9,"top_k":20}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	mgr, err := LoadSettings(path)
	require.NoError(t, err)
	settings := mgr.Get()
	assert.Equal(t, "gemini-2.5-pro", settings.Model)
	assert.Equal(t, "de", settings.LanguageCode)
	assert.Equal(t, 25, settings.BatchSize)
}

func TestLoadSettingsRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadSettings(path)
	require.Error(t, err)
}

func TestUpdateMergesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	mgr, err := LoadSettings(path)
	require.NoError(t, err)

	updated, err := mgr.Update(map[string]any{
		"language":      "French",
		"language_code": "fr",
		"batch_size":    float64(30),
	})
	require.NoError(t, err)
	assert.Equal(t, "French", updated.Language)
	assert.Equal(t, "fr", updated.LanguageCode)
	assert.Equal(t, 30, updated.BatchSize)
	// Untouched fields survive the merge.
	assert.Equal(t, "gemini-2.5-flash", updated.Model)

	// A fresh manager sees the persisted state.
	reloaded, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "fr", reloaded.Get().LanguageCode)
}

func TestUpdateRejectsUnknownKey(t *testing.T) {
	mgr, err := LoadSettings(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	_, err = mgr.Update(map[string]any{"no_such_setting": true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown setting")
}

func TestUpdateRejectsInvalidValues(t *testing.T) {
	mgr, err := LoadSettings(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	before := mgr.Get()

	cases := []map[string]any{
		{"language_code": "definitely not a code"},
		{"batch_size": float64(0)},
		{"temperature": float64(5)},
		{"top_p": float64(2)},
		{"model": ""},
	}
	for _, fields := range cases {
		_, err := mgr.Update(fields)
		require.Error(t, err, "fields %v should be rejected", fields)
	}

	// Failed updates leave the current settings untouched.
	assert.Equal(t, before, mgr.Get())
}

func TestSettingsValidate(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Validate())

	s.LanguageCode = "zz-totally-wrong-!"
	require.Error(t, s.Validate())
}

func TestNewFromEnvDefaults(t *testing.T) {
	cfg, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Server.ListenAddr)
	assert.Equal(t, filepath.Join(cfg.Server.DataDir, "uploads"), cfg.UploadDir())
	assert.Equal(t, filepath.Join(cfg.Server.DataDir, "translated"), cfg.TranslatedDir())
}

func TestNewFromEnvRejectsBadCron(t *testing.T) {
	t.Setenv("CLEANUP_CRON", "not a cron expr")
	_, err := NewFromEnv()
	require.Error(t, err)
}
