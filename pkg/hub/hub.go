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

// Package hub implements the workspace-level catalog described in §4.F: it
// tracks which repos exist, their manifest snapshots, and a unified
// diagnostics log, but it is not itself a query engine. Repo state is kept
// in memory; repo registrations and refreshes are also appended to
// <workspace>/.devac/hub.log for after-the-fact audit.
package hub

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/devac-project/devac/pkg/metrics"
	"github.com/devac-project/devac/pkg/refresher"
	"github.com/devac-project/devac/pkg/seed"
)

// RepoStatus is one of a repo's lifecycle states.
type RepoStatus string

const (
	RepoActive  RepoStatus = "active"
	RepoStale   RepoStatus = "stale"
	RepoMissing RepoStatus = "missing"
)

// Repo is one row of the hub's repos table.
type Repo struct {
	RepoID        string
	LocalPath     string
	PackagesCount int
	Status        RepoStatus
	LastSynced    time.Time
}

// Severity ranks one diagnostic entry.
type Severity string

const (
	SeverityCritical   Severity = "critical"
	SeverityError      Severity = "error"
	SeverityWarning    Severity = "warning"
	SeveritySuggestion Severity = "suggestion"
	SeverityNote       Severity = "note"
)

// Diagnostic is one row of the hub's unified diagnostics log.
type Diagnostic struct {
	Source    string
	Severity  Severity
	Category  string
	RepoID    string
	FilePath  string
	Message   string
	Location  string
	Timestamp time.Time
}

// RepoRegistration is what the workspace owner tells the hub about a repo
// up front: its ID and the local path the hub reads its manifest and
// seeds from when refreshing it.
type RepoRegistration struct {
	RepoID    string
	LocalPath string
}

// Hub is the workspace-level catalog. A single writer (the owning process,
// enforced by pkg/ipc) mutates it; many readers may call the read-only
// surface concurrently.
type Hub struct {
	workspacePath string
	logger        *slog.Logger

	mu          sync.RWMutex
	repos       map[string]*Repo
	manifests   map[string]seed.Manifest
	diagnostics []Diagnostic

	// entityOwner maps an entity_id prefix (package dir) to the repo that
	// owns it, populated as manifests are refreshed; used by
	// GetAffectedRepos.
	entityOwner map[string]string
}

// New opens a Hub rooted at workspacePath. It does not read anything from
// disk by itself; call RegisterRepo for each known repo.
func New(workspacePath string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		workspacePath: workspacePath,
		logger:        logger,
		repos:         make(map[string]*Repo),
		manifests:     make(map[string]seed.Manifest),
		entityOwner:   make(map[string]string),
	}
	if err := h.validateLocation(); err != nil {
		h.logger.Warn("hub.startup_check", "err", err)
	}
	return h
}

func (h *Hub) hubDir() string {
	return filepath.Join(h.workspacePath, ".devac")
}

// validateLocation checks that the workspace root exists and is a
// directory. The hub directory is always <workspace>/.devac (see hubDir),
// so it sits directly under the workspace root by construction.
func (h *Hub) validateLocation() error {
	info, err := os.Stat(h.workspacePath)
	if err != nil {
		return fmt.Errorf("hub: workspace path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("hub: workspace path is not a directory: %s", h.workspacePath)
	}
	return nil
}

// RegisterRepo adds a repo to the catalog in the active state with no
// packages synced yet.
func (h *Hub) RegisterRepo(reg RepoRegistration) {
	h.mu.Lock()
	alreadyKnown := len(h.repos) > 0
	h.repos[reg.RepoID] = &Repo{
		RepoID:    reg.RepoID,
		LocalPath: reg.LocalPath,
		Status:    RepoActive,
	}
	h.mu.Unlock()

	h.appendIndexLog(fmt.Sprintf("repo registered %s", reg.RepoID))
	if !alreadyKnown {
		h.logger.Info("hub.startup_check", "info", "first repo registered", "repo_id", reg.RepoID)
	}
}

// ListRepos returns a fresh snapshot of the repos table.
func (h *Hub) ListRepos() []Repo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Repo, 0, len(h.repos))
	for _, r := range h.repos {
		out = append(out, *r)
	}
	return out
}

// RefreshRepo re-ingests repoID per §2's write path: it reads the repo's
// manifest, then for each listed package re-hashes its files, re-parses
// only the ones whose hash changed or that are new, drops the rows of
// files that disappeared, and rewrites the package's seed — before
// updating the in-memory manifest and ownership index. It satisfies the
// refresher.Hub interface consumed by pkg/refresher.
func (h *Hub) RefreshRepo(repoID string) (refresher.RefreshResult, error) {
	h.mu.Lock()
	repo, ok := h.repos[repoID]
	h.mu.Unlock()
	if !ok {
		return refresher.RefreshResult{}, fmt.Errorf("hub: unknown repo %q", repoID)
	}

	store := seed.New(repo.LocalPath, h.logger)
	manifest, err := store.ReadManifest()
	if err != nil {
		metrics.RefreshesTotal.WithLabelValues("error").Inc()
		return refresher.RefreshResult{}, fmt.Errorf("hub: read manifest for %q: %w", repoID, err)
	}

	packagesChanged := ingestManifest(repoID, repo.LocalPath, manifest.Packages, h.logger)
	metrics.RefreshesTotal.WithLabelValues("ok").Inc()
	if packagesChanged > 0 {
		metrics.ReposRefreshedTotal.Inc()
	}

	h.mu.Lock()
	h.manifests[repoID] = manifest
	for _, pkg := range manifest.Packages {
		h.entityOwner[filepath.Join(repo.LocalPath, pkg.Path)] = repoID
	}
	repo.PackagesCount = len(manifest.Packages)
	repo.LastSynced = time.Now()
	repo.Status = RepoActive
	h.mu.Unlock()

	h.appendIndexLog(fmt.Sprintf("refresh_repo %s packages_updated=%d", repoID, packagesChanged))

	return refresher.RefreshResult{
		ReposRefreshed:  1,
		PackagesUpdated: packagesChanged,
	}, nil
}

// LoadTables reads every registered repo's seed into memory for federated
// queries, skipping (with a logged warning) any repo whose seed can't be
// read rather than failing the whole federation over one bad repo.
func (h *Hub) LoadTables() []seed.Tables {
	h.mu.RLock()
	repos := make([]*Repo, 0, len(h.repos))
	for _, r := range h.repos {
		repos = append(repos, r)
	}
	h.mu.RUnlock()

	out := make([]seed.Tables, 0, len(repos))
	for _, r := range repos {
		store := seed.New(r.LocalPath, h.logger)
		tables, err := store.Read()
		if err != nil {
			h.logger.Warn("hub.load_tables", "repo_id", r.RepoID, "err", err)
			continue
		}
		out = append(out, tables)
	}
	return out
}

// GetAffectedRepos is the reverse-index lookup of which repos own the
// given entity IDs, by matching each entity ID's recorded file path
// against known package roots.
func (h *Hub) GetAffectedRepos(entityFilePaths []string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, p := range entityFilePaths {
		for root, repoID := range h.entityOwner {
			if len(p) >= len(root) && p[:len(root)] == root {
				if !seen[repoID] {
					seen[repoID] = true
					out = append(out, repoID)
				}
			}
		}
	}
	return out
}

// AddDiagnostic appends one diagnostic to the unified log.
func (h *Hub) AddDiagnostic(d Diagnostic) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now()
	}
	h.diagnostics = append(h.diagnostics, d)
}

// DiagnosticFilter narrows GetDiagnostics.
type DiagnosticFilter struct {
	RepoID   string
	Severity Severity
	Category string
}

func (f DiagnosticFilter) matches(d Diagnostic) bool {
	if f.RepoID != "" && f.RepoID != d.RepoID {
		return false
	}
	if f.Severity != "" && f.Severity != d.Severity {
		return false
	}
	if f.Category != "" && f.Category != d.Category {
		return false
	}
	return true
}

// GetDiagnostics returns every diagnostic matching filter.
func (h *Hub) GetDiagnostics(filter DiagnosticFilter) []Diagnostic {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []Diagnostic
	for _, d := range h.diagnostics {
		if filter.matches(d) {
			out = append(out, d)
		}
	}
	return out
}

// DiagnosticsGroupBy selects the dimension GetDiagnosticsSummary groups on.
type DiagnosticsGroupBy string

const (
	GroupByRepo     DiagnosticsGroupBy = "repo"
	GroupBySource   DiagnosticsGroupBy = "source"
	GroupBySeverity DiagnosticsGroupBy = "severity"
	GroupByCategory DiagnosticsGroupBy = "category"
)

// GetDiagnosticsSummary returns a count per distinct value of groupBy.
func (h *Hub) GetDiagnosticsSummary(groupBy DiagnosticsGroupBy) map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	counts := make(map[string]int)
	for _, d := range h.diagnostics {
		var key string
		switch groupBy {
		case GroupByRepo:
			key = d.RepoID
		case GroupBySource:
			key = d.Source
		case GroupBySeverity:
			key = string(d.Severity)
		case GroupByCategory:
			key = d.Category
		}
		counts[key]++
	}
	return counts
}

// DiagnosticsCounts is the fixed-shape severity tally GetDiagnosticsCounts
// returns.
type DiagnosticsCounts struct {
	Critical   int
	Error      int
	Warning    int
	Suggestion int
	Note       int
	Total      int
}

// GetDiagnosticsCounts returns the severity tally across all diagnostics.
func (h *Hub) GetDiagnosticsCounts() DiagnosticsCounts {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var c DiagnosticsCounts
	for _, d := range h.diagnostics {
		switch d.Severity {
		case SeverityCritical:
			c.Critical++
		case SeverityError:
			c.Error++
		case SeverityWarning:
			c.Warning++
		case SeveritySuggestion:
			c.Suggestion++
		case SeverityNote:
			c.Note++
		}
		c.Total++
	}
	return c
}

var indexLogMu sync.Mutex

// appendIndexLog writes one line to <workspace>/.devac/hub.log, an
// append-only audit trail of every catalog mutation.
func (h *Hub) appendIndexLog(message string) {
	indexLogMu.Lock()
	defer indexLogMu.Unlock()
	dir := h.hubDir()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return
	}
	f, err := os.OpenFile(filepath.Join(dir, "hub.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return
	}
	defer f.Close()
	line := fmt.Sprintf("%s %s\n", time.Now().Format(time.RFC3339), message)
	_, _ = f.WriteString(line)
}
