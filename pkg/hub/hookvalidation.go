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

package hub

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// errorCountPattern and warningCountPattern implement §6/§9's "regex-driven
// payload parsing" design constant: brittle by nature since the payload is
// human-readable prose, preserved exactly rather than replaced with a
// stricter parser.
var (
	errorCountPattern   = regexp.MustCompile(`(?i)(\d+)\s+error`)
	warningCountPattern = regexp.MustCompile(`(?i)(\d+)\s+warning`)
)

// ValidationCounts is the legacy UserPromptSubmit/Stop hook surface: a
// narrower error/warning tally parsed out of a hook's freeform payload,
// distinct from the structured Diagnostic log the rest of the hub serves.
type ValidationCounts struct {
	Errors   int
	Warnings int
}

// hookPayload is the shape a validation/lint hook posts, per §6: either
// hookSpecificOutput.additionalContext (a <system-reminder>-wrapped
// string) or a bare stopReason string.
type hookPayload struct {
	HookSpecificOutput *struct {
		AdditionalContext string `json:"additionalContext"`
	} `json:"hookSpecificOutput,omitempty"`
	StopReason string `json:"stopReason,omitempty"`
}

// ParseValidationCounts extracts ValidationCounts from a raw hook payload.
// Counts are the first \d+\s+error / \d+\s+warning match in whichever text
// field the payload carries, case-insensitive.
func ParseValidationCounts(raw []byte) (ValidationCounts, error) {
	var payload hookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ValidationCounts{}, fmt.Errorf("hub: parse hook payload: %w", err)
	}

	text := payload.StopReason
	if payload.HookSpecificOutput != nil && payload.HookSpecificOutput.AdditionalContext != "" {
		text = stripSystemReminder(payload.HookSpecificOutput.AdditionalContext)
	}

	var counts ValidationCounts
	if m := errorCountPattern.FindStringSubmatch(text); m != nil {
		counts.Errors, _ = strconv.Atoi(m[1])
	}
	if m := warningCountPattern.FindStringSubmatch(text); m != nil {
		counts.Warnings, _ = strconv.Atoi(m[1])
	}
	return counts, nil
}

func stripSystemReminder(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "<system-reminder>")
	s = strings.TrimSuffix(s, "</system-reminder>")
	return strings.TrimSpace(s)
}

// RecordValidationHook parses raw per ParseValidationCounts and, if it
// names any errors or warnings, appends a synthetic Diagnostic to the
// unified log so the counts also show up in GetDiagnosticsCounts/Summary.
func (h *Hub) RecordValidationHook(repoID string, raw []byte) (ValidationCounts, error) {
	counts, err := ParseValidationCounts(raw)
	if err != nil {
		return ValidationCounts{}, err
	}
	if counts.Errors == 0 && counts.Warnings == 0 {
		return counts, nil
	}

	severity := SeverityWarning
	if counts.Errors > 0 {
		severity = SeverityError
	}
	h.AddDiagnostic(Diagnostic{
		Source:   "hook",
		Severity: severity,
		Category: "validation",
		RepoID:   repoID,
		Message:  fmt.Sprintf("%d error(s), %d warning(s)", counts.Errors, counts.Warnings),
	})
	return counts, nil
}
