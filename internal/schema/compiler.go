package schema

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	js "github.com/santhosh-tekuri/jsonschema/v5"
)

// FieldList is the JSON Schema every stored fields array must satisfy
var FieldList = map[string]interface{}{
	"type": "array",
	"items": map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"field_id", "field_key", "field_name", "field_type"},
		"properties": map[string]interface{}{
			"field_id":      map[string]interface{}{"type": "string", "minLength": 1},
			"field_key":     map[string]interface{}{"type": "string", "minLength": 1},
			"field_name":    map[string]interface{}{"type": "string"},
			"field_type":    map[string]interface{}{"type": "string", "minLength": 1},
			"field_order":   map[string]interface{}{"type": "integer"},
			"default_value": map[string]interface{}{"type": []interface{}{"string", "null"}},
			"placeholder":   map[string]interface{}{"type": []interface{}{"string", "null"}},
			"help_text":     map[string]interface{}{"type": []interface{}{"string", "null"}},
			"required":      map[string]interface{}{"type": "boolean"},
			"multiple":      map[string]interface{}{"type": "boolean"},
			"accept":        map[string]interface{}{"type": []interface{}{"string", "null"}},
			"maxSizeMB":     map[string]interface{}{"type": []interface{}{"number", "null"}, "minimum": 0},
			"min":           map[string]interface{}{"type": []interface{}{"string", "number", "null"}},
			"max":           map[string]interface{}{"type": []interface{}{"string", "number", "null"}},
			"attributes": map[string]interface{}{
				"type": []interface{}{"array", "null"},
				"items": map[string]interface{}{
					"type":       "object",
					"required":   []interface{}{"value"},
					"properties": map[string]interface{}{"value": map[string]interface{}{"type": "string"}},
				},
			},
		},
	},
}

type Compiler struct {
	mu       sync.Mutex
	compiler *js.Compiler
	cache    *expirable.LRU[string, *js.Schema]
}

// NewCompilerWithCache creates a new compiler with cache
func NewCompilerWithCache(maxSize int) *Compiler {
	c := js.NewCompiler()
	c.Draft = js.Draft2020

	return &Compiler{
		compiler: c,
		cache:    expirable.NewLRU[string, *js.Schema](maxSize, nil, time.Hour),
	}
}

func (c *Compiler) key(schema map[string]interface{}) (string, []byte, error) {
	b, err := json.Marshal(schema)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return fmt.Sprintf("%x", sha256.Sum256(b)), b, nil
}

// Prepare compiles and caches a schema
func (c *Compiler) Prepare(ctx context.Context, schema map[string]interface{}) (*js.Schema, error) {
	key, schemaBytes, err := c.key(schema)
	if err != nil {
		return nil, err
	}
	if compiled, ok := c.cache.Get(key); ok {
		return compiled, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	resourceURL := fmt.Sprintf("mem://schema/%s.json", key[:16])
	if err := c.compiler.AddResource(resourceURL, bytes.NewReader(schemaBytes)); err != nil {
		return nil, fmt.Errorf("failed to add resource: %w", err)
	}

	compiled, err := c.compiler.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	c.cache.Add(key, compiled)
	return compiled, nil
}

// Validate validates raw JSON against a schema
func (c *Compiler) Validate(ctx context.Context, schema map[string]interface{}, raw []byte) error {
	compiled, err := c.Prepare(ctx, schema)
	if err != nil {
		return err
	}

	var value interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := compiled.Validate(value); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// ValidateFields checks a fields array against FieldList
func (c *Compiler) ValidateFields(ctx context.Context, raw []byte) error {
	return c.Validate(ctx, FieldList, raw)
}
