// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package parse

import (
	"regexp"
	"strconv"
	"strings"
)

// httpClientMethods maps a receiver.method call shape to the HTTP verb it
// implies, per rule 8's "table of receiver.method -> METHOD".
var httpClientMethods = map[string]string{
	"get":     "GET",
	"post":    "POST",
	"put":     "PUT",
	"patch":   "PATCH",
	"delete":  "DELETE",
	"head":    "HEAD",
	"options": "OPTIONS",
}

// HTTPMethodForCall returns the HTTP verb implied by a receiver.method call
// expression such as "axios.get" or a bare "fetch", and whether the call
// shape was recognized at all.
func HTTPMethodForCall(receiver, method string) (string, bool) {
	if receiver == "" && strings.EqualFold(method, "fetch") {
		return "GET", true
	}
	if verb, ok := httpClientMethods[strings.ToLower(method)]; ok {
		return verb, true
	}
	return "", false
}

var urlInterpolationPattern = regexp.MustCompile(`\$\{[^}]*\}|\{[^}]*\}|%s|%d`)

// TemplatePattern substitutes string interpolations in a URL literal with
// ":name" placeholders, reconstructing a stable route pattern from a
// concrete call site per rule 8. The captured identifier is preserved
// where the interpolation carries one (${userId} -> :userId); a bare
// printf verb has no name to carry forward, so it falls back to a
// positional :param placeholder.
func TemplatePattern(urlLiteral string) string {
	n := 0
	return urlInterpolationPattern.ReplaceAllStringFunc(urlLiteral, func(match string) string {
		n++
		name := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(match, "${"), "{"), "}")
		name = strings.TrimSpace(name)
		if name == "" || name == match {
			return ":param" + strconv.Itoa(n)
		}
		return ":" + name
	})
}

// knownM2MHosts is a small recognizer table mapping a hostname fragment to
// a service name, classifying a send target as machine-to-machine traffic
// rather than a generic third-party HTTP call.
var knownM2MHosts = map[string]string{
	"internal":  "internal",
	"svc":       "internal",
	"localhost": "local",
}

// ClassifySend decides whether a URL targets m2m or generic http traffic
// and, if recognized, which service it names.
func ClassifySend(urlPattern string) (kind string, service string) {
	lower := strings.ToLower(urlPattern)
	for fragment, svc := range knownM2MHosts {
		if strings.Contains(lower, fragment) {
			return "m2m", svc
		}
	}
	return "http", ""
}

// httpMethodDecorators is the set of method-level route decorator names
// recognized by rule 9, each mapped to its HTTP verb.
var httpMethodDecorators = map[string]string{
	"get":     "GET",
	"post":    "POST",
	"put":     "PUT",
	"delete":  "DELETE",
	"patch":   "PATCH",
	"head":    "HEAD",
	"options": "OPTIONS",
	"all":     "ALL",
}

// HTTPVerbForDecorator returns the HTTP verb a route decorator name
// implies (case-insensitive), and whether it was recognized.
func HTTPVerbForDecorator(name string) (string, bool) {
	verb, ok := httpMethodDecorators[strings.ToLower(name)]
	return verb, ok
}

// classRouteDecorators is the set of class-level decorator names that
// introduce a route prefix, per rule 9.
var classRouteDecorators = map[string]bool{
	"route":         true,
	"controller":    true,
	"restcontroller": true,
}

// IsRouteContainerDecorator reports whether name is a class-level route
// prefix decorator.
func IsRouteContainerDecorator(name string) bool {
	return classRouteDecorators[strings.ToLower(name)]
}

// ConcatRoute joins a class-level route prefix with a method-level route
// segment, normalizing the single slash between them.
func ConcatRoute(prefix, segment string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if segment != "" && !strings.HasPrefix(segment, "/") {
		segment = "/" + segment
	}
	return prefix + segment
}

// StripAttributeSuffix normalizes a decorator/attribute name by removing a
// trailing "Attribute" suffix, per rule 5.
func StripAttributeSuffix(name string) string {
	return strings.TrimSuffix(name, "Attribute")
}

// IsInterfaceByConvention applies the documented naming-convention
// heuristic for languages without an explicit interface/class marker: a
// name whose first two characters are "I" followed by an uppercase letter.
func IsInterfaceByConvention(name string) bool {
	if len(name) < 2 {
		return false
	}
	return name[0] == 'I' && name[1] >= 'A' && name[1] <= 'Z'
}
