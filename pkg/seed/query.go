// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package seed

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// QueryEngine answers ad-hoc SQL against one package's merged seed tables.
// It materializes the overlay-merged rows into a private in-memory SQLite
// connection on each Open, giving ad-hoc SQL joins, GROUP BY and recursive
// CTEs without hand-rolling a relational engine, per §4.C's "complex predicates are delegated to the
// embedded analytic engine."
type QueryEngine struct {
	db *sql.DB
}

// Open loads t into a fresh in-memory database with the four canonical
// tables (nodes, edges, external_refs, effects) and returns a QueryEngine
// ready for Query. The caller must Close it.
func Open(t Tables) (*QueryEngine, error) {
	// A bare ":memory:" DSN is private to the *sql.DB that opens it; the
	// "file::memory:?cache=shared" form instead names one process-wide
	// database, which two concurrent Open calls (§5 allows federated
	// queries to run concurrently) would both try to create the schema
	// in. SetMaxOpenConns(1) keeps this DB pinned to its single private
	// connection for the query's lifetime.
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("seed: open in-memory db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := loadRows(db, t); err != nil {
		db.Close()
		return nil, err
	}
	return &QueryEngine{db: db}, nil
}

func (q *QueryEngine) Close() error { return q.db.Close() }

const createSchemaSQL = `
CREATE TABLE nodes (
  entity_id TEXT, name TEXT, qualified_name TEXT, kind TEXT, file_path TEXT,
  source_file_hash TEXT, start_line INTEGER, end_line INTEGER,
  start_column INTEGER, end_column INTEGER, visibility TEXT,
  is_exported INTEGER, is_default_export INTEGER, is_abstract INTEGER,
  is_static INTEGER, is_async INTEGER, is_generator INTEGER,
  type_signature TEXT, documentation TEXT, branch TEXT
);
CREATE TABLE edges (
  source_entity_id TEXT, target_entity_id TEXT, edge_type TEXT,
  source_file_path TEXT, source_file_hash TEXT, source_line INTEGER,
  source_column INTEGER, branch TEXT
);
CREATE TABLE external_refs (
  source_entity_id TEXT, module_specifier TEXT, imported_symbol TEXT,
  local_alias TEXT, import_style TEXT, is_type_only INTEGER,
  is_reexport INTEGER, export_alias TEXT, branch TEXT
);
CREATE TABLE effects (
  effect_type TEXT, source_entity_id TEXT, source_file_path TEXT,
  source_line INTEGER, source_column INTEGER, branch TEXT
);
CREATE INDEX idx_edges_type ON edges(edge_type);
CREATE INDEX idx_edges_source ON edges(source_entity_id);
CREATE INDEX idx_edges_target ON edges(target_entity_id);
CREATE INDEX idx_nodes_entity ON nodes(entity_id);
`

func createSchema(db *sql.DB) error {
	if _, err := db.Exec(createSchemaSQL); err != nil {
		return fmt.Errorf("seed: create schema: %w", err)
	}
	return nil
}

func loadRows(db *sql.DB, t Tables) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed: begin load tx: %w", err)
	}
	defer tx.Rollback()

	nodeStmt, err := tx.Prepare(`INSERT INTO nodes VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("seed: prepare node insert: %w", err)
	}
	for _, n := range t.Nodes {
		_, err := nodeStmt.Exec(n.EntityID, n.Name, n.QualifiedName, n.Kind, n.FilePath,
			n.SourceFileHash, n.StartLine, n.EndLine, n.StartColumn, n.EndColumn, n.Visibility,
			n.IsExported, n.IsDefaultExport, n.IsAbstract, n.IsStatic, n.IsAsync, n.IsGenerator,
			n.TypeSignature, n.Documentation, n.Branch)
		if err != nil {
			return fmt.Errorf("seed: insert node: %w", err)
		}
	}

	edgeStmt, err := tx.Prepare(`INSERT INTO edges VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("seed: prepare edge insert: %w", err)
	}
	for _, e := range t.Edges {
		_, err := edgeStmt.Exec(e.SourceEntityID, e.TargetEntityID, e.EdgeType,
			e.SourceFilePath, e.SourceFileHash, e.SourceLine, e.SourceColumn, e.Branch)
		if err != nil {
			return fmt.Errorf("seed: insert edge: %w", err)
		}
	}

	refStmt, err := tx.Prepare(`INSERT INTO external_refs VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("seed: prepare ref insert: %w", err)
	}
	for _, r := range t.ExternalRefs {
		_, err := refStmt.Exec(r.SourceEntityID, r.ModuleSpecifier, r.ImportedSymbol,
			r.LocalAlias, r.ImportStyle, r.IsTypeOnly, r.IsReexport, r.ExportAlias, r.Branch)
		if err != nil {
			return fmt.Errorf("seed: insert external_ref: %w", err)
		}
	}

	effStmt, err := tx.Prepare(`INSERT INTO effects VALUES (?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("seed: prepare effect insert: %w", err)
	}
	for _, eff := range t.Effects {
		_, err := effStmt.Exec(eff.EffectType, eff.SourceEntityID, eff.SourceFilePath,
			eff.SourceLine, eff.SourceColumn, eff.Branch)
		if err != nil {
			return fmt.Errorf("seed: insert effect: %w", err)
		}
	}

	return tx.Commit()
}

// Row is one result row as column name -> value.
type Row map[string]any

// Query executes a SELECT-only statement (enforced by the caller per §4.G's
// SQL safety gate) and returns the result set as generic rows.
func (q *QueryEngine) Query(sqlText string) ([]Row, error) {
	rows, err := q.db.Query(sqlText)
	if err != nil {
		return nil, fmt.Errorf("seed: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("seed: columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("seed: scan row: %w", err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// IsSelectOnly implements §4.G's SQL safety gate: "accepts only statements
// whose first non-whitespace token, case-folded, is SELECT."
func IsSelectOnly(sqlText string) bool {
	trimmed := strings.TrimSpace(sqlText)
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return false
	}
	return strings.EqualFold(fields[0], "SELECT")
}
