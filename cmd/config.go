// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 OpenVelo

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// fileConfig holds connection defaults loaded from the config file.
// Command-line flags always win over file values.
type fileConfig struct {
	Port     string `yaml:"port"`
	Baud     int    `yaml:"baud"`
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "turbostat", "config.yaml")
}

// applyConfigFile fills in connection flags the user did not set from the
// config file. A missing default config file is not an error; a missing
// explicitly named one is.
func applyConfigFile(cmd *cobra.Command) error {
	path := configPath
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	logrus.WithField("path", path).Debug("loaded config file")

	flags := cmd.Root().PersistentFlags()
	if !flags.Changed("port") && cfg.Port != "" {
		portName = cfg.Port
	}
	if !flags.Changed("baud") && cfg.Baud > 0 {
		baudRate = cfg.Baud
	}
	if !flags.Changed("url") && cfg.URL != "" {
		wsURL = cfg.URL
	}
	if !flags.Changed("username") && cfg.Username != "" {
		wsUsername = cfg.Username
	}
	return nil
}
