// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Speech   SpeechConfig   `toml:"speech"`
	Audio    AudioConfig    `toml:"audio"`
	Storage  StorageConfig  `toml:"storage"`
	Log      LogConfig      `toml:"log"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Type            *string `toml:"type"`
	Library         *string `toml:"library"`
	AdvanceDelayMs  *int    `toml:"advance-delay-ms"`
	RollbackDelayMs *int    `toml:"rollback-delay-ms"`
	SpeakDelayMs    *int    `toml:"speak-delay-ms"`
}

// SpeechConfig maps the text-to-speech command.
type SpeechConfig struct {
	Enabled *bool    `toml:"enabled"`
	Command *string  `toml:"command"`
	Args    []string `toml:"args"`
}

// AudioConfig maps audio cue settings.
type AudioConfig struct {
	Enabled      *bool   `toml:"enabled"`
	Bell         *bool   `toml:"bell"`
	Player       *string `toml:"player"`
	TypeSound    *string `toml:"type-sound"`
	ErrorSound   *string `toml:"error-sound"`
	CorrectSound *string `toml:"correct-sound"`
	PoolSize     *int    `toml:"pool-size"`
}

// StorageConfig selects the record store.
type StorageConfig struct {
	Backend *string `toml:"backend"`
	Path    *string `toml:"path"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
