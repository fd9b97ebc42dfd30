package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
	"github.com/glebovdev/trackdeck/internal/track"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	AppName           = "trackdeck"
	AppTagline        = "Terminal music player"
	AppDescription    = "A terminal-based music player with search, seek and keyboard control"
	AppAuthor         = "Ilya Glebov"
	AppAuthorURL      = "https://ilyaglebov.dev"
	AppAuthorURLShort = "ilyaglebov.dev"
	AppProjectURL     = "https://github.com/glebovdev/trackdeck"
	AppProjectShort   = "github.com/glebovdev/trackdeck"

	ConfigDir      = ".config/trackdeck"
	ConfigFileName = "config.yml"
	DefaultVolume  = 100
	MinVolume      = 0
	MaxVolume      = 100
	VolumeStep     = 10
)

// ClampVolume ensures volume is within the valid range [0, 100].
func ClampVolume(volume int) int {
	if volume < MinVolume {
		return MinVolume
	}
	if volume > MaxVolume {
		return MaxVolume
	}
	return volume
}

// AppVersion can be overridden at build time using ldflags:
// go build -ldflags "-X github.com/glebovdev/trackdeck/internal/config.AppVersion=1.0.0"
var AppVersion = "dev"

type Theme struct {
	Background                string `yaml:"background"`
	Foreground                string `yaml:"foreground"`
	Borders                   string `yaml:"borders"`
	Highlight                 string `yaml:"highlight"`
	MutedVolume               string `yaml:"muted_volume"`
	HeaderBackground          string `yaml:"header_background"`
	TrackListHeaderBackground string `yaml:"track_list_header_background"`
	TrackListHeaderForeground string `yaml:"track_list_header_foreground"`
	HelpBackground            string `yaml:"help_background"`
	HelpForeground            string `yaml:"help_foreground"`
	HelpHotkey                string `yaml:"help_hotkey"`
	ProgressFilled            string `yaml:"progress_filled"`
	ProgressEmpty             string `yaml:"progress_empty"`
	ErrorForeground           string `yaml:"error_foreground"`
	ModalBackground           string `yaml:"modal_background"`
}

type Config struct {
	Volume     int           `yaml:"volume"`
	Muted      bool          `yaml:"muted"`
	LastTrack  string        `yaml:"last_track"`
	Autostart  bool          `yaml:"autostart"`
	CacheAudio bool          `yaml:"cache_audio"`
	Tracks     []track.Track `yaml:"tracks,omitempty"`
	Theme      Theme         `yaml:"theme"`
}

func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configPath := filepath.Join(home, ConfigDir, ConfigFileName)
	return configPath, nil
}

func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Volume = ClampVolume(cfg.Volume)

	return cfg, nil
}

// Save writes the configuration to disk atomically using temp file + rename.
func (c *Config) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpFile, err := os.CreateTemp(configDir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, configPath); err != nil {
		return fmt.Errorf("failed to rename config file: %w", err)
	}

	tmpPath = "" // Prevent defer from removing the final file
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Volume:     DefaultVolume,
		Muted:      false,
		LastTrack:  "",
		Autostart:  false,
		CacheAudio: true,
		Theme: Theme{
			Background:                "#1a1b25",
			Foreground:                "#a3aacb",
			Borders:                   "#40445b",
			Highlight:                 "#ff9d65",
			MutedVolume:               "#fe0702",
			HeaderBackground:          "#473533",
			TrackListHeaderBackground: "#3a3d4f",
			TrackListHeaderForeground: "#c8d0e8",
			HelpBackground:            "#322f45",
			HelpForeground:            "#9aa3c6",
			HelpHotkey:                "#ff9d65",
			ProgressFilled:            "#ff9d65",
			ProgressEmpty:             "#40445b",
			ErrorForeground:           "#fe0702",
			ModalBackground:           "#282a36",
		},
	}
}

// Catalog returns the configured tracks, or the built-in catalog when none
// are configured. Entries without a URL are skipped.
func (c *Config) Catalog() []track.Track {
	if len(c.Tracks) == 0 {
		return track.DefaultCatalog()
	}

	tracks := make([]track.Track, 0, len(c.Tracks))
	for _, t := range c.Tracks {
		if t.URL == "" {
			log.Warn().Str("title", t.Title).Msg("Skipping configured track without url")
			continue
		}
		if t.Title == "" {
			t.Title = t.URL
		}
		tracks = append(tracks, t)
	}

	if len(tracks) == 0 {
		return track.DefaultCatalog()
	}
	return tracks
}

func GetColor(colorStr string) tcell.Color {
	if colorStr == "" || colorStr == "default" {
		return tcell.ColorDefault
	}
	return tcell.GetColor(colorStr)
}
