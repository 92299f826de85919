package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompiler_Prepare(t *testing.T) {
	compiler := NewCompilerWithCache(64)
	ctx := context.Background()

	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"name": map[string]interface{}{
				"type": "string",
			},
		},
		"required": []string{"name"},
	}

	first, err := compiler.Prepare(ctx, schema)
	require.NoError(t, err)

	second, err := compiler.Prepare(ctx, schema)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestCompiler_Validate(t *testing.T) {
	compiler := NewCompilerWithCache(64)
	ctx := context.Background()

	schema := map[string]interface{}{
		"type":     "object",
		"required": []string{"name"},
	}

	assert.NoError(t, compiler.Validate(ctx, schema, []byte(`{"name":"test"}`)))
	assert.Error(t, compiler.Validate(ctx, schema, []byte(`{}`)))
	assert.Error(t, compiler.Validate(ctx, schema, []byte(`{`)))
}

func TestCompiler_ValidateFields(t *testing.T) {
	compiler := NewCompilerWithCache(8)
	ctx := context.Background()

	valid := `[
		{"field_id":"a","field_key":"k1","field_name":"Name","field_type":"Text","field_order":0,"required":true,"attributes":[]},
		{"field_id":"b","field_key":"k2","field_name":"Age","field_type":"Number","field_order":1,"min":"","max":120,"maxSizeMB":5},
		{"field_id":"c","field_key":"k3","field_name":"Pick","field_type":"Select","attributes":[{"value":"x"}],"multiple":true}
	]`
	require.NoError(t, compiler.ValidateFields(ctx, []byte(valid)))
	require.NoError(t, compiler.ValidateFields(ctx, []byte(`[]`)))

	invalid := []string{
		`{"field_id":"a"}`,
		`[{"field_key":"k","field_name":"x","field_type":"Text"}]`,
		`[{"field_id":"a","field_key":"k","field_name":"x","field_type":""}]`,
		`[{"field_id":"a","field_key":"k","field_name":"x","field_type":"Radio","attributes":[{"label":"no value"}]}]`,
		`[{"field_id":"a","field_key":"k","field_name":"x","field_type":"Text","field_order":1.5}]`,
	}
	for _, raw := range invalid {
		assert.Error(t, compiler.ValidateFields(ctx, []byte(raw)), raw)
	}
}
