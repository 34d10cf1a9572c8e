// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanDocumentation(t *testing.T) {
	raw := "*\n * Fetches the widget by ID.\n * \n "
	assert.Equal(t, "Fetches the widget by ID.", CleanDocumentation(raw))
}

func TestCleanDocumentation_Empty(t *testing.T) {
	assert.Equal(t, "", CleanDocumentation("\n   \n"))
}

func TestHTTPMethodForCall(t *testing.T) {
	verb, ok := HTTPMethodForCall("axios", "get")
	assert.True(t, ok)
	assert.Equal(t, "GET", verb)

	verb, ok = HTTPMethodForCall("", "fetch")
	assert.True(t, ok)
	assert.Equal(t, "GET", verb)

	_, ok = HTTPMethodForCall("obj", "frobnicate")
	assert.False(t, ok)
}

func TestTemplatePattern(t *testing.T) {
	got := TemplatePattern("/users/${userId}/orders/${orderId}")
	assert.Equal(t, "/users/:userId/orders/:orderId", got)

	got = TemplatePattern("/users/{userId}")
	assert.Equal(t, "/users/:userId", got)
}

func TestTemplatePattern_NoCapturedName(t *testing.T) {
	got := TemplatePattern("/users/%s/orders/%d")
	assert.Equal(t, "/users/:param1/orders/:param2", got)
}

func TestClassifySend(t *testing.T) {
	kind, svc := ClassifySend("http://internal-billing/charge")
	assert.Equal(t, "m2m", kind)
	assert.Equal(t, "internal", svc)

	kind, _ = ClassifySend("https://api.stripe.com/v1/charges")
	assert.Equal(t, "http", kind)
}

func TestHTTPVerbForDecorator(t *testing.T) {
	verb, ok := HTTPVerbForDecorator("Post")
	assert.True(t, ok)
	assert.Equal(t, "POST", verb)
}

func TestConcatRoute(t *testing.T) {
	assert.Equal(t, "/widgets/:id", ConcatRoute("/widgets/", ":id"))
	assert.Equal(t, "/widgets", ConcatRoute("/widgets", ""))
}

func TestStripAttributeSuffix(t *testing.T) {
	assert.Equal(t, "Authorize", StripAttributeSuffix("AuthorizeAttribute"))
	assert.Equal(t, "Authorize", StripAttributeSuffix("Authorize"))
}

func TestIsInterfaceByConvention(t *testing.T) {
	assert.True(t, IsInterfaceByConvention("IWidget"))
	assert.False(t, IsInterfaceByConvention("Widget"))
	assert.False(t, IsInterfaceByConvention("Is"))
}
