package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Port         int    `toml:"port"`
	UIDir        string `toml:"ui_dir"`
	ExportFormat string `toml:"export_format"`
	ExportDir    string `toml:"export_dir"`
	ShowDeleted  bool   `toml:"show_deleted"`
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:         8420,
		ExportFormat: "markdown",
		ExportDir:    ".",
	}

	cfgPath := filepath.Join(home, ".config", "convoview", "config.toml")
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	// expand ~ in paths
	cfg.UIDir = expandHome(cfg.UIDir, home)
	cfg.ExportDir = expandHome(cfg.ExportDir, home)

	return cfg, nil
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
