package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wansing/schemacms/core"
)

type countingContentDB struct {
	core.ContentDB
	contents map[string]*core.Content
	gets     int
}

func (db *countingContentDB) GetContent(project, env, id string) (*core.Content, error) {
	db.gets++
	c, ok := db.contents[id]
	if !ok {
		return nil, core.NewNotFoundError("content", id)
	}
	return c.Clone(), nil
}

func (db *countingContentDB) SetContent(project, env string, c *core.Content) error {
	db.contents[c.ID] = c.Clone()
	return nil
}

func TestContentCache(t *testing.T) {
	db := &countingContentDB{contents: map[string]*core.Content{
		"home": {ID: "home", Properties: map[string]interface{}{"title": "Home"}},
	}}
	c := NewContentCache(db, 10)

	first, err := c.GetContent("acme", "live", "home")
	require.NoError(t, err)
	first.Properties["title"] = "modified by caller"

	second, err := c.GetContent("acme", "live", "home")
	require.NoError(t, err)
	assert.Equal(t, "Home", second.Properties["title"])
	assert.Equal(t, 1, db.gets)

	require.NoError(t, c.SetContent("acme", "live", &core.Content{ID: "home", Properties: map[string]interface{}{"title": "New"}}))
	third, err := c.GetContent("acme", "live", "home")
	require.NoError(t, err)
	assert.Equal(t, "New", third.Properties["title"])
	assert.Equal(t, 2, db.gets)

	c.Reload()
	_, err = c.GetContent("acme", "live", "home")
	require.NoError(t, err)
	assert.Equal(t, 3, db.gets)

	_, err = c.GetContent("acme", "live", "missing")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

type countingSchemaDB struct {
	core.SchemaDB
	gets int
}

func (db *countingSchemaDB) GetSchema(project, id string) (*core.Schema, error) {
	db.gets++
	return &core.Schema{ID: id, Name: "Page", Tabs: map[string]string{"content": "Content"}}, nil
}

func TestSchemaCacheIsolatesProjects(t *testing.T) {
	db := &countingSchemaDB{}
	c := NewSchemaCache(db, 0)

	s, err := c.GetSchema("", "page")
	require.NoError(t, err)
	s.Tabs["content"] = "changed"

	s, err = c.GetSchema("", "page")
	require.NoError(t, err)
	assert.Equal(t, "Content", s.Tabs["content"])
	assert.Equal(t, 1, db.gets)

	_, err = c.GetSchema("acme", "page")
	require.NoError(t, err)
	assert.Equal(t, 2, db.gets)
}
