package router

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The published OpenAPI document must stay loadable and in sync with the
// routes this package installs.
func TestOpenAPIDocument(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile("../../../public/docs/v1/openapi.yml")
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))

	for _, path := range []string{
		"/contact",
		"/payments/checkout",
		"/payments/status/{sessionId}",
		"/webhook/stripe",
	} {
		assert.NotNil(t, doc.Paths.Find(path), "documented path %s missing", path)
	}

	contactPath := doc.Paths.Find("/contact")
	require.NotNil(t, contactPath)
	assert.NotNil(t, contactPath.Get, "health probe must be documented")
	assert.NotNil(t, contactPath.Post, "form submission must be documented")
}
