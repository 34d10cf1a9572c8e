// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads a workspace's .devac/workspace.yaml file, the
// local tool-side settings a developer checks in alongside their repos:
// the explicit repo list the hub should register at startup (when
// auto-discovery shouldn't be trusted to find them all, e.g. repos kept
// outside the workspace root) plus watcher/refresher tuning. Modeled on
// cmd/cie/config.go's project.yaml, trimmed to what a federated hub
// actually needs to read at startup.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	configVersion = "1"
	configDir     = ".devac"
	configFile    = "workspace.yaml"
)

// RepoConfig names one repo the hub should register at startup.
type RepoConfig struct {
	RepoID string `yaml:"repo_id"`
	Path   string `yaml:"path"`
}

// WatcherConfig tunes pkg/watcher's debounce window.
type WatcherConfig struct {
	DebounceMS int `yaml:"debounce_ms,omitempty"`
}

// RefresherConfig tunes pkg/refresher's batching contract.
type RefresherConfig struct {
	BatchSize int `yaml:"batch_size,omitempty"`
	MaxWaitMS int `yaml:"max_wait_ms,omitempty"`
}

// Workspace represents a parsed .devac/workspace.yaml file.
type Workspace struct {
	Version   string          `yaml:"version"`
	Repos     []RepoConfig    `yaml:"repos,omitempty"`
	Watcher   WatcherConfig   `yaml:"watcher,omitempty"`
	Refresher RefresherConfig `yaml:"refresher,omitempty"`
}

// Path returns the canonical config file path under a workspace root.
func Path(workspacePath string) string {
	return filepath.Join(workspacePath, configDir, configFile)
}

// Load reads and parses a workspace's config file. A missing file is not
// an error: it returns (nil, nil), since an explicit repo list is
// optional — callers fall back to pkg/discover.Workspace in that case.
func Load(workspacePath string) (*Workspace, error) {
	path := Path(workspacePath)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var ws Workspace
	if err := yaml.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if ws.Version == "" {
		ws.Version = configVersion
	} else if ws.Version != configVersion {
		return nil, fmt.Errorf("config: %s: unsupported version %q (expected %q)", path, ws.Version, configVersion)
	}
	return &ws, nil
}

// Save writes ws to workspacePath's config file, creating .devac/ if
// needed.
func Save(workspacePath string, ws *Workspace) error {
	if ws.Version == "" {
		ws.Version = configVersion
	}
	path := Path(workspacePath)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}
	data, err := yaml.Marshal(ws)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
