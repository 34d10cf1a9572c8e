// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package hub

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidationCounts_HookSpecificOutput(t *testing.T) {
	raw := []byte(`{"hookSpecificOutput":{"additionalContext":"<system-reminder>Found 3 errors and 2 Warnings</system-reminder>"}}`)
	counts, err := ParseValidationCounts(raw)
	require.NoError(t, err)
	assert.Equal(t, 3, counts.Errors)
	assert.Equal(t, 2, counts.Warnings)
}

func TestParseValidationCounts_StopReason(t *testing.T) {
	raw := []byte(`{"stopReason":"lint finished: 0 errors, 5 warnings"}`)
	counts, err := ParseValidationCounts(raw)
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Errors)
	assert.Equal(t, 5, counts.Warnings)
}

func TestParseValidationCounts_NoMatch(t *testing.T) {
	raw := []byte(`{"stopReason":"all clear"}`)
	counts, err := ParseValidationCounts(raw)
	require.NoError(t, err)
	assert.Equal(t, ValidationCounts{}, counts)
}

func TestHub_RecordValidationHook_AppendsDiagnosticOnNonZeroCounts(t *testing.T) {
	h := New(filepath.Join(t.TempDir()), nil)
	counts, err := h.RecordValidationHook("acme/widgets", []byte(`{"stopReason":"2 errors, 1 warning"}`))
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Errors)

	diags := h.GetDiagnostics(DiagnosticFilter{RepoID: "acme/widgets"})
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityError, diags[0].Severity)
}

func TestHub_RecordValidationHook_SkipsDiagnosticWhenClean(t *testing.T) {
	h := New(filepath.Join(t.TempDir()), nil)
	_, err := h.RecordValidationHook("acme/widgets", []byte(`{"stopReason":"all clear"}`))
	require.NoError(t, err)
	assert.Empty(t, h.GetDiagnostics(DiagnosticFilter{}))
}
