// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package seed

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/devac-project/devac/pkg/model"
)

const rowGroupSize = 32 * 1024 * 1024

// writeTable atomically overwrites one table file: writer output is staged
// to a temp path and renamed into place, so a crash mid-write never leaves
// a half-written table visible to readers.
func writeTable[T any](path string, rows []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("seed: mkdir table dir: %w", err)
	}
	tmpPath := path + ".tmp"
	fw, err := local.NewLocalFileWriter(tmpPath)
	if err != nil {
		return fmt.Errorf("seed: open temp table: %w", err)
	}
	pw, err := writer.NewParquetWriter(fw, new(T), 4)
	if err != nil {
		_ = fw.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("seed: new parquet writer: %w", err)
	}
	pw.RowGroupSize = rowGroupSize
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range rows {
		if err := pw.Write(rows[i]); err != nil {
			_ = fw.Close()
			_ = os.Remove(tmpPath)
			return fmt.Errorf("seed: write row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("seed: finalize table: %w", err)
	}
	if err := fw.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("seed: close temp table: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("seed: rename table into place: %w", err)
	}
	return nil
}

// readTable returns an empty slice, not an error, when path does not exist:
// a missing overlay level (most commonly "branch") is a normal state, not a
// corruption signal.
func readTable[T any](path string) ([]T, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("seed: stat table: %w", err)
	}
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("seed: open table: %w", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(T), 4)
	if err != nil {
		return nil, fmt.Errorf("seed: new parquet reader: %w", err)
	}
	defer pr.ReadStop()

	n := int(pr.GetNumRows())
	rows := make([]T, n)
	if n > 0 {
		if err := pr.Read(&rows); err != nil {
			return nil, fmt.Errorf("seed: read rows: %w", err)
		}
	}
	return rows, nil
}

func writeTables(dir string, t Tables) error {
	if err := writeTable(filepath.Join(dir, "nodes.parquet"), t.Nodes); err != nil {
		return err
	}
	if err := writeTable(filepath.Join(dir, "edges.parquet"), t.Edges); err != nil {
		return err
	}
	if err := writeTable(filepath.Join(dir, "external_refs.parquet"), t.ExternalRefs); err != nil {
		return err
	}
	if err := writeTable(filepath.Join(dir, "effects.parquet"), t.Effects); err != nil {
		return err
	}
	return nil
}

func readTables(dir string) (Tables, error) {
	var t Tables
	var err error
	if t.Nodes, err = readTable[model.Node](filepath.Join(dir, "nodes.parquet")); err != nil {
		return t, err
	}
	if t.Edges, err = readTable[model.Edge](filepath.Join(dir, "edges.parquet")); err != nil {
		return t, err
	}
	if t.ExternalRefs, err = readTable[model.ExternalRef](filepath.Join(dir, "external_refs.parquet")); err != nil {
		return t, err
	}
	if t.Effects, err = readTable[model.Effect](filepath.Join(dir, "effects.parquet")); err != nil {
		return t, err
	}
	return t, nil
}
