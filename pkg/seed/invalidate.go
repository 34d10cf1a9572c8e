// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package seed

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

// FileState is the hash ledger entry for one source file.
type FileState struct {
	Path string
	Hash string
}

// FileDelta reports which files an ingest pass must re-parse: a file whose
// content hash hasn't changed since the last recorded state is never
// re-parsed, per §4.C.
type FileDelta struct {
	Added    []string
	Modified []string
	Deleted  []string
}

func (d FileDelta) Changed() bool {
	return len(d.Added) > 0 || len(d.Modified) > 0 || len(d.Deleted) > 0
}

// HashFile computes the SHA-256 hex digest of a file's current contents.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("seed: hash file: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// CurrentHashes extracts the distinct (file_path, source_file_hash) pairs
// present in a table set, i.e. the seed's existing hash ledger.
func CurrentHashes(t Tables) []FileState {
	seen := make(map[string]string)
	var order []string
	for _, n := range t.Nodes {
		if n.FilePath == "" {
			continue
		}
		if _, ok := seen[n.FilePath]; !ok {
			order = append(order, n.FilePath)
		}
		seen[n.FilePath] = n.SourceFileHash
	}
	states := make([]FileState, 0, len(order))
	for _, p := range order {
		states = append(states, FileState{Path: p, Hash: seen[p]})
	}
	return states
}

// DetectChanges compares the hashes of files currently on disk against the
// ledger implied by the existing seed, returning exactly the files an
// ingest pass needs to re-parse (added or content-changed) and the files
// whose rows must be dropped (deleted from disk).
func DetectChanges(currentPaths []string, currentHashes map[string]string, existing []FileState) FileDelta {
	var delta FileDelta

	existingByPath := make(map[string]string, len(existing))
	for _, e := range existing {
		existingByPath[e.Path] = e.Hash
	}
	currentSet := make(map[string]bool, len(currentPaths))
	for _, p := range currentPaths {
		currentSet[p] = true
		prevHash, known := existingByPath[p]
		if !known {
			delta.Added = append(delta.Added, p)
			continue
		}
		if prevHash != currentHashes[p] {
			delta.Modified = append(delta.Modified, p)
		}
	}
	for _, e := range existing {
		if !currentSet[e.Path] {
			delta.Deleted = append(delta.Deleted, e.Path)
		}
	}
	return delta
}

// RemoveFile strips every row whose source_file_hash matches any hash ever
// recorded for a stale path, implementing §4.C's "files whose hash has
// disappeared are removed by deleting all rows with that
// source_file_hash." Nodes and edges carry a source_file_hash directly;
// external refs and effects don't, so they're dropped by association —
// external refs by the entity ID of the node they hung off, effects by
// the file path of the node(s) being removed.
func RemoveFile(t Tables, staleHashes map[string]bool) Tables {
	out := Tables{}

	removedEntityIDs := make(map[string]bool)
	removedFilePaths := make(map[string]bool)
	for _, n := range t.Nodes {
		if staleHashes[n.SourceFileHash] {
			removedEntityIDs[n.EntityID] = true
			removedFilePaths[n.FilePath] = true
			continue
		}
		out.Nodes = append(out.Nodes, n)
	}
	for _, e := range t.Edges {
		if !staleHashes[e.SourceFileHash] {
			out.Edges = append(out.Edges, e)
		}
	}
	for _, ref := range t.ExternalRefs {
		if !removedEntityIDs[ref.SourceEntityID] {
			out.ExternalRefs = append(out.ExternalRefs, ref)
		}
	}
	for _, eff := range t.Effects {
		if !removedFilePaths[eff.SourceFilePath] {
			out.Effects = append(out.Effects, eff)
		}
	}
	return out
}
