// Package cache keeps recently used schemas and content in memory.
//
// Cached values are cloned on read and write, so callers can't modify them.
// Reload drops everything, it is called by core.CoreDB after every save.
package cache

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/wansing/schemacms/core"
	"github.com/wansing/schemacms/metrics"
)

const DefaultSize = 1024

func key(parts ...string) string {
	return strings.Join(parts, "\x00")
}

func newLRU[V any](size int) *lru.Cache[string, V] {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New[string, V](size)
	if err != nil {
		panic(err) // only if size <= 0
	}
	return c
}

// SchemaCache wraps a core.SchemaDB.
type SchemaCache struct {
	core.SchemaDB
	schemas *lru.Cache[string, *core.Schema]
}

func NewSchemaCache(db core.SchemaDB, size int) *SchemaCache {
	return &SchemaCache{
		SchemaDB: db,
		schemas:  newLRU[*core.Schema](size),
	}
}

// GetSchema shadows core.SchemaDB.GetSchema.
func (c *SchemaCache) GetSchema(project, id string) (*core.Schema, error) {
	var k = key(project, id)
	if schema, ok := c.schemas.Get(k); ok {
		metrics.CacheRequests.WithLabelValues("schema", "hit").Inc()
		return schema.Clone(), nil
	}
	metrics.CacheRequests.WithLabelValues("schema", "miss").Inc()
	schema, err := c.SchemaDB.GetSchema(project, id)
	if err != nil {
		return nil, err
	}
	c.schemas.Add(k, schema.Clone())
	return schema, nil
}

// SetSchema shadows core.SchemaDB.SetSchema.
func (c *SchemaCache) SetSchema(project string, schema *core.Schema) error {
	c.schemas.Remove(key(project, schema.ID))
	return c.SchemaDB.SetSchema(project, schema)
}

// DeleteSchema shadows core.SchemaDB.DeleteSchema.
func (c *SchemaCache) DeleteSchema(project, id string) error {
	c.schemas.Remove(key(project, id))
	return c.SchemaDB.DeleteSchema(project, id)
}

func (c *SchemaCache) Reload() {
	c.schemas.Purge()
}

// ContentCache wraps a core.ContentDB.
type ContentCache struct {
	core.ContentDB
	contents *lru.Cache[string, *core.Content]
}

func NewContentCache(db core.ContentDB, size int) *ContentCache {
	return &ContentCache{
		ContentDB: db,
		contents:  newLRU[*core.Content](size),
	}
}

// GetContent shadows core.ContentDB.GetContent.
func (c *ContentCache) GetContent(project, env, id string) (*core.Content, error) {
	var k = key(project, env, id)
	if content, ok := c.contents.Get(k); ok {
		metrics.CacheRequests.WithLabelValues("content", "hit").Inc()
		return content.Clone(), nil
	}
	metrics.CacheRequests.WithLabelValues("content", "miss").Inc()
	content, err := c.ContentDB.GetContent(project, env, id)
	if err != nil {
		return nil, err
	}
	c.contents.Add(k, content.Clone())
	return content, nil
}

// SetContent shadows core.ContentDB.SetContent.
func (c *ContentCache) SetContent(project, env string, content *core.Content) error {
	c.contents.Remove(key(project, env, content.ID))
	return c.ContentDB.SetContent(project, env, content)
}

// DeleteContent shadows core.ContentDB.DeleteContent.
func (c *ContentCache) DeleteContent(project, env, id string) error {
	c.contents.Remove(key(project, env, id))
	return c.ContentDB.DeleteContent(project, env, id)
}

func (c *ContentCache) Reload() {
	c.contents.Purge()
}
