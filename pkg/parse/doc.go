// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package parse

import "strings"

// CleanDocumentation implements rule 11: the last block comment preceding a
// declaration that begins with "*" is taken, its lines are stripped of
// leading whitespace and a leading "*", blank leading/trailing lines are
// dropped, and trailing whitespace is trimmed. An empty result means no
// documentation.
func CleanDocumentation(rawBlockComment string) string {
	lines := strings.Split(rawBlockComment, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		l := strings.TrimSpace(line)
		l = strings.TrimPrefix(l, "*")
		l = strings.TrimSpace(l)
		cleaned = append(cleaned, l)
	}
	// drop leading/trailing blank lines
	start := 0
	for start < len(cleaned) && cleaned[start] == "" {
		start++
	}
	end := len(cleaned)
	for end > start && cleaned[end-1] == "" {
		end--
	}
	if start >= end {
		return ""
	}
	return strings.TrimRight(strings.Join(cleaned[start:end], "\n"), " \t")
}

// IsDocBlockComment reports whether a raw comment token looks like the
// doc-comment convention rule 11 expects: a block comment whose content
// begins with "*" (e.g. JSDoc "/**", a leading "*" continuation line).
func IsDocBlockComment(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "/*")
	trimmed = strings.TrimSpace(trimmed)
	return strings.HasPrefix(trimmed, "*")
}
