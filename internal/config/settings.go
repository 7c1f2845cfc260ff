package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Settings are the user-tunable translation parameters. They are
// persisted as JSON and editable through the configuration endpoint.
type Settings struct {
	GeminiAPIKey      string  `json:"gemini_api_key"`
	GeminiAPIKey2     string  `json:"gemini_api_key2"`
	Model             string  `json:"model"`
	TMDBAPIKey        string  `json:"tmdb_api_key"`
	Language          string  `json:"language"`
	LanguageCode      string  `json:"language_code"`
	ExtractAudio      bool    `json:"extract_audio"`
	AutoFetchTMDB     bool    `json:"auto_fetch_tmdb"`
	IsTVSeries        bool    `json:"is_tv_series"`
	AddTranslatorInfo bool    `json:"add_translator_info"`
	BatchSize         int     `json:"batch_size"`
	Streaming         bool    `json:"streaming"`
	Thinking          bool    `json:"thinking"`
	ThinkingBudget    int     `json:"thinking_budget"`
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p"`
	TopK              int     `json:"top_k"`
	Description       string  `json:"description"`
}

// DefaultSettings returns the settings used when no file exists yet.
func DefaultSettings() Settings {
	return Settings{
		Model:         "gemini-2.5-flash",
		Language:      "English",
		LanguageCode:  "en",
		AutoFetchTMDB: true,
		BatchSize:     50,
		Streaming:     true,
		Temperature:   0.2,
		TopP:          0.8,
		TopK:          40,
	}
}

func (s Settings) Validate() error {
	if strings.TrimSpace(s.Model) == "" {
		return fmt.Errorf("model is required")
	}
	if strings.TrimSpace(s.Language) == "" {
		return fmt.Errorf("language is required")
	}
	if strings.TrimSpace(s.LanguageCode) == "" {
		return fmt.Errorf("language_code is required")
	}
	if _, err := language.Parse(s.LanguageCode); err != nil {
		return fmt.Errorf("invalid language_code: %w", err)
	}
	if s.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive")
	}
	if s.Temperature < 0 || s.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if s.TopP < 0 || s.TopP > 1 {
		return fmt.Errorf("top_p must be between 0 and 1")
	}
	if s.ThinkingBudget < 0 {
		return fmt.Errorf("thinking_budget must not be negative")
	}
	return nil
}

// SettingsManager guards the settings file behind a mutex so concurrent
// reads and updates from HTTP handlers stay consistent.
type SettingsManager struct {
	path string

	mu      sync.RWMutex
	current Settings
}

// LoadSettings reads the settings file at path, falling back to
// defaults when the file does not exist yet. The defaults are written
// back so the file always exists after startup.
func LoadSettings(path string) (*SettingsManager, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("settings file path is required")
	}

	settings := DefaultSettings()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &settings); err != nil {
			return nil, fmt.Errorf("invalid settings file %s: %w", path, err)
		}
	case os.IsNotExist(err):
		if err := writeSettingsFile(path, settings); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("settings file %s: %w", path, err)
	}
	return &SettingsManager{path: path, current: settings}, nil
}

func (m *SettingsManager) Get() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Update overlays the given fields onto the current settings, validates
// the result and persists it. Unknown keys are rejected.
func (m *SettingsManager) Update(fields map[string]any) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := overlaySettings(m.current, fields)
	if err != nil {
		return Settings{}, err
	}
	if err := next.Validate(); err != nil {
		return Settings{}, err
	}
	if err := writeSettingsFile(m.path, next); err != nil {
		return Settings{}, err
	}
	m.current = next
	return next, nil
}

// Replace swaps in a complete settings value, validating and persisting it.
func (m *SettingsManager) Replace(next Settings) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := next.Validate(); err != nil {
		return Settings{}, err
	}
	if err := writeSettingsFile(m.path, next); err != nil {
		return Settings{}, err
	}
	m.current = next
	return next, nil
}

// overlaySettings merges a partial update onto base by round-tripping
// through JSON, so field names and types follow the wire tags.
func overlaySettings(base Settings, fields map[string]any) (Settings, error) {
	known := settingsKeys()
	for key := range fields {
		if _, ok := known[key]; !ok {
			return Settings{}, fmt.Errorf("unknown setting %q", key)
		}
	}

	merged, err := json.Marshal(base)
	if err != nil {
		return Settings{}, err
	}
	var asMap map[string]any
	if err := json.Unmarshal(merged, &asMap); err != nil {
		return Settings{}, err
	}
	for key, value := range fields {
		asMap[key] = value
	}
	combined, err := json.Marshal(asMap)
	if err != nil {
		return Settings{}, err
	}
	var next Settings
	if err := json.Unmarshal(combined, &next); err != nil {
		return Settings{}, fmt.Errorf("invalid setting value: %w", err)
	}
	return next, nil
}

func settingsKeys() map[string]struct{} {
	data, _ := json.Marshal(DefaultSettings())
	var asMap map[string]any
	_ = json.Unmarshal(data, &asMap)
	keys := make(map[string]struct{}, len(asMap))
	for key := range asMap {
		keys[key] = struct{}{}
	}
	return keys
}

func writeSettingsFile(path string, settings Settings) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	content, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	content = append(content, '\n')

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
