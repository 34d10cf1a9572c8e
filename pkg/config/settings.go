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

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const settingsFile = "workspace.json"

// HubSettings controls whether the owning hub refreshes repos on its own
// as changes arrive, per §6.
type HubSettings struct {
	AutoRefresh       bool `json:"auto_refresh"`
	RefreshDebounceMS int  `json:"refresh_debounce_ms"`
}

// WatcherSettings controls whether the owning hub starts its filesystem
// watcher without being asked, per §6.
type WatcherSettings struct {
	AutoStart bool `json:"auto_start"`
}

// Settings is `<workspace>/.devac/workspace.json`: {version, hub, watcher}.
// Missing fields take the defaults below; a missing file means full
// defaults, per §6.
type Settings struct {
	Version string          `json:"version"`
	Hub     HubSettings     `json:"hub"`
	Watcher WatcherSettings `json:"watcher"`
}

// DefaultSettings returns §6's documented defaults: auto_refresh true,
// refresh_debounce_ms 500, watcher auto_start false.
func DefaultSettings() Settings {
	return Settings{
		Version: "1.0",
		Hub:     HubSettings{AutoRefresh: true, RefreshDebounceMS: 500},
		Watcher: WatcherSettings{AutoStart: false},
	}
}

func settingsPath(workspacePath string) string {
	return filepath.Join(workspacePath, configDir, settingsFile)
}

// LoadSettings reads workspace.json, applying defaults to any field the
// file leaves unset and returning the full default set if the file
// itself does not exist.
func LoadSettings(workspacePath string) (Settings, error) {
	settings := DefaultSettings()
	path := settingsPath(workspacePath)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return settings, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return settings, nil
}

// SaveSettings writes settings to workspace.json, creating .devac/ if
// needed.
func SaveSettings(workspacePath string, settings Settings) error {
	path := settingsPath(workspacePath)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
