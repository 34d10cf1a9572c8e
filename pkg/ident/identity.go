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

package ident

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// idHashLen is the number of hex characters kept from the SHA-256 digest —
// enough collision budget for per-package row counts in the tens of
// thousands while keeping IDs short.
const idHashLen = 16

// EntityID returns the stable opaque ID for a symbol, a pure function of
// (repo, packagePath, kind, filePath, scopedName) per §4.A. Changing file
// contents above or below the symbol never changes the ID because none of
// the five inputs depend on line position.
func EntityID(repo, packagePath, kind, filePath, scopedName string) string {
	sum := sha256.Sum256([]byte(repo + "\x00" + packagePath + "\x00" + kind + "\x00" + filePath + "\x00" + scopedName))
	return kindPrefix(kind) + hex.EncodeToString(sum[:])[:idHashLen]
}

// kindPrefix gives each ID a short type prefix ("fn:", "cls:", ...) so IDs
// are visually distinguishable by kind without a lookup.
func kindPrefix(kind string) string {
	switch kind {
	case "module":
		return "mod:"
	case "namespace":
		return "ns:"
	case "class":
		return "cls:"
	case "interface":
		return "ifc:"
	case "struct":
		return "struct:"
	case "record":
		return "rec:"
	case "enum":
		return "enum:"
	case "enum_member":
		return "enumval:"
	case "function":
		return "fn:"
	case "method":
		return "meth:"
	case "property":
		return "prop:"
	case "parameter":
		return "param:"
	case "variable":
		return "var:"
	case "type":
		return "type:"
	case "decorator":
		return "dec:"
	default:
		return "sym:"
	}
}

// Unresolved returns the sentinel target ID for a call or reference that
// cannot be resolved within the package boundary.
func Unresolved(textualCallee string) string {
	return "unresolved:" + textualCallee
}

// FileID derives the entity ID of the implicit module node for a file.
func FileID(repo, packagePath, filePath string) string {
	return EntityID(repo, packagePath, "module", filePath, filePath)
}

// DecoratorID derives a synthetic decorator node's ID, keyed by decorator
// name per §4.B rule 5 (the name is shared across every use site in the
// file, so a decorator applied twice in one file yields the same node).
func DecoratorID(repo, packagePath, filePath, decoratorName string) string {
	return EntityID(repo, packagePath, "decorator", filePath, fmt.Sprintf("$decorator.%s", decoratorName))
}
