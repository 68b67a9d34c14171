package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server   ServerSettings   `json:"server"`
	Database DatabaseSettings `json:"database"`
	Catalog  CatalogSettings  `json:"catalog"`
	Playback PlaybackSettings `json:"playback"`
	Log      LogConfig        `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// DatabaseSettings defines where the telemetry database lives.
type DatabaseSettings struct {
	Path string `json:"path"`
}

// CatalogSettings configures the external catalog provider.
type CatalogSettings struct {
	BaseURL  string `json:"baseUrl"`
	APIKey   string `json:"apiKey"`
	Language string `json:"language"`
}

// PlaybackSettings tunes the telemetry engine. The defaults match the
// long-standing player behaviour; changing them changes how much playback
// position can be lost on teardown.
type PlaybackSettings struct {
	// CompletionThreshold is the progress fraction at or above which a
	// title is treated as finished.
	CompletionThreshold float64 `json:"completionThreshold"`
	// CommitIntervalSeconds throttles progress commits to positions that
	// are exact multiples of this interval.
	CommitIntervalSeconds int `json:"commitIntervalSeconds"`
	// HistoryThresholdSeconds is the absolute position past which a
	// session is recorded in watch history.
	HistoryThresholdSeconds int `json:"historyThresholdSeconds"`
	// HistoryFallbackDelaySeconds is the wall-clock delay after which a
	// history entry is recorded even if the player never reported events.
	HistoryFallbackDelaySeconds int `json:"historyFallbackDelaySeconds"`
	// EstimatedDurationSeconds stands in for the content duration when the
	// player never reported one.
	EstimatedDurationSeconds int `json:"estimatedDurationSeconds"`
	// PlayerOrigins is the allow-list of player-embed hostnames trusted to
	// emit position events.
	PlayerOrigins []string `json:"playerOrigins"`
	// OverwritePolicy selects the progress conflict policy:
	// "lastWriterWins" (default) or "onlyAdvance".
	OverwritePolicy string `json:"overwritePolicy"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	File       string `json:"file"`
	Level      string `json:"level"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns the configuration written on first start.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			Host: "0.0.0.0",
			Port: 8480,
		},
		Database: DatabaseSettings{
			Path: filepath.Join("cache", "telemetry.db"),
		},
		Catalog: CatalogSettings{
			Language: "en-US",
		},
		Playback: PlaybackSettings{
			CompletionThreshold:         0.95,
			CommitIntervalSeconds:       10,
			HistoryThresholdSeconds:     30,
			HistoryFallbackDelaySeconds: 32,
			EstimatedDurationSeconds:    7200,
			PlayerOrigins:               []string{},
			OverwritePolicy:             "lastWriterWins",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSize:    20,
			MaxAge:     14,
			MaxBackups: 3,
			Compress:   true,
		},
	}
}

// Manager loads and persists the settings file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// EnsureDir ensures parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads settings from disk, creating the file with defaults when it is
// missing. Zero-valued playback tunables are filled from the defaults so an
// older config file keeps working.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}

	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	var settings Settings
	if err := json.NewDecoder(f).Decode(&settings); err != nil {
		return Settings{}, err
	}

	fillDefaults(&settings)
	return settings, nil
}

// Save writes settings atomically: temp file in the same directory, then
// rename over the target.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.path), "settings-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), m.path)
}

func fillDefaults(s *Settings) {
	defaults := DefaultSettings()

	if s.Server.Port == 0 {
		s.Server.Port = defaults.Server.Port
	}
	if s.Server.Host == "" {
		s.Server.Host = defaults.Server.Host
	}
	if s.Database.Path == "" {
		s.Database.Path = defaults.Database.Path
	}
	if s.Catalog.Language == "" {
		s.Catalog.Language = defaults.Catalog.Language
	}

	p := &s.Playback
	d := defaults.Playback
	if p.CompletionThreshold <= 0 || p.CompletionThreshold > 1 {
		p.CompletionThreshold = d.CompletionThreshold
	}
	if p.CommitIntervalSeconds <= 0 {
		p.CommitIntervalSeconds = d.CommitIntervalSeconds
	}
	if p.HistoryThresholdSeconds <= 0 {
		p.HistoryThresholdSeconds = d.HistoryThresholdSeconds
	}
	if p.HistoryFallbackDelaySeconds <= 0 {
		p.HistoryFallbackDelaySeconds = d.HistoryFallbackDelaySeconds
	}
	if p.EstimatedDurationSeconds <= 0 {
		p.EstimatedDurationSeconds = d.EstimatedDurationSeconds
	}
	if p.PlayerOrigins == nil {
		p.PlayerOrigins = []string{}
	}
	if p.OverwritePolicy == "" {
		p.OverwritePolicy = d.OverwritePolicy
	}

	if s.Log.MaxSize == 0 {
		s.Log.MaxSize = defaults.Log.MaxSize
	}
	if s.Log.MaxAge == 0 {
		s.Log.MaxAge = defaults.Log.MaxAge
	}
	if s.Log.MaxBackups == 0 {
		s.Log.MaxBackups = defaults.Log.MaxBackups
	}
	if s.Log.Level == "" {
		s.Log.Level = defaults.Log.Level
	}
}
