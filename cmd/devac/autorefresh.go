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

package main

import (
	"log/slog"
	"strings"

	"github.com/devac-project/devac/pkg/config"
	devhub "github.com/devac-project/devac/pkg/hub"
	"github.com/devac-project/devac/pkg/refresher"
	"github.com/devac-project/devac/pkg/watcher"
)

// autoRefresh bundles the watcher/refresher pair an owning hub starts on
// its own when workspace.json asks for it, per §6's watcher.auto_start and
// hub.auto_refresh, so runHub has one thing to stop at shutdown.
type autoRefresh struct {
	watcher   *watcher.Watcher
	refresher *refresher.Refresher
}

func (a *autoRefresh) stop() {
	if a == nil {
		return
	}
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.refresher != nil {
		a.refresher.Stop()
	}
}

// startAutoRefresh wires the watcher's file-change stream into the
// refresher's debounced batch refresh against h, per §4.D/§4.E, gated on
// workspace.json's settings. Returns nil when watcher.auto_start is off
// (whatever hub.auto_refresh says) or the watcher fails to start; with
// auto_start on and auto_refresh off, only the watcher runs.
func startAutoRefresh(h *devhub.Hub, root string, settings config.Settings, logger *slog.Logger) *autoRefresh {
	if !settings.Watcher.AutoStart {
		return nil
	}

	w := watcher.New(root, watcher.Options{DebounceMs: settings.Hub.RefreshDebounceMS}, logger)
	if err := w.Start(); err != nil {
		logger.Warn("devac.hub.watcher_start_failed", "err", err)
		return nil
	}
	result := &autoRefresh{watcher: w}

	if !settings.Hub.AutoRefresh {
		return result
	}
	r := refresher.New(h, refresher.Options{
		DebounceMs:   settings.Hub.RefreshDebounceMS,
		BatchChanges: true,
	}, logger)
	r.Start()
	result.refresher = r

	go bridgeWatcherToRefresher(h, w, r)
	return result
}

// bridgeWatcherToRefresher maps each watcher file-change event's repo path
// back to a registered repo ID, since the refresher's pending set is keyed
// by repo ID rather than filesystem path.
func bridgeWatcherToRefresher(h *devhub.Hub, w *watcher.Watcher, r *refresher.Refresher) {
	for ev := range w.Events() {
		if ev.Type != watcher.EventFileChange {
			continue
		}
		if repoID, ok := repoIDForPath(h, ev.RepoPath); ok {
			r.NotifyChange(repoID)
		}
	}
}

func repoIDForPath(h *devhub.Hub, path string) (string, bool) {
	for _, repo := range h.ListRepos() {
		if repo.LocalPath == path || strings.HasPrefix(path, repo.LocalPath+"/") {
			return repo.RepoID, true
		}
	}
	return "", false
}
