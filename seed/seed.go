// Package seed provides the built-in schemas and loads custom schemas from a directory.
//
// Schema files are YAML (or JSON, which is YAML too) with the same members as the JSON representation of core.Schema.
// All of them are stored in the global project, so every project sees them.
package seed

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wansing/schemacms/core"
	"gopkg.in/yaml.v3"
)

//go:embed schemas/*.yaml
var builtin embed.FS

// Parse decodes a schema file. YAML is converted to JSON first, so the json tags and unmarshalers of core.Schema apply.
func Parse(data []byte) (*core.Schema, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, &core.ValidationError{Reason: "empty schema file"}
	}
	j, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var schema = &core.Schema{}
	if err := json.Unmarshal(j, schema); err != nil {
		return nil, &core.ValidationError{Reason: err.Error()}
	}
	if schema.ID == "" {
		return nil, &core.ValidationError{Field: "id", Reason: "is empty"}
	}
	if schema.Type == "" {
		if schema.EditorID != "" {
			schema.Type = core.FieldSchema
		} else {
			schema.Type = core.ContentSchema
		}
	}
	return schema, nil
}

func isSchemaFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}

func load(fsys fs.FS, dir string) ([]*core.Schema, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	var schemas []*core.Schema
	for _, entry := range entries {
		if entry.IsDir() || !isSchemaFile(entry.Name()) {
			continue
		}
		data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(dir, entry.Name())))
		if err != nil {
			return nil, err
		}
		schema, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		schemas = append(schemas, schema)
	}
	sort.Slice(schemas, func(i, j int) bool {
		return schemas[i].ID < schemas[j].ID
	})
	return schemas, nil
}

// Builtin returns the built-in schemas. They are locked unless the file says "locked: false".
func Builtin() ([]*core.Schema, error) {
	schemas, err := load(builtin, "schemas")
	if err != nil {
		return nil, err
	}
	for _, schema := range schemas {
		if schema.Locked == nil {
			var locked = true
			schema.Locked = &locked
		}
	}
	return schemas, nil
}

// LoadDir returns the schemas of the schema files in dir.
func LoadDir(dir string) ([]*core.Schema, error) {
	return load(os.DirFS(dir), ".")
}

// Install stores the schemas in the global project.
func Install(db core.SchemaDB, schemas []*core.Schema) error {
	for _, schema := range schemas {
		if err := db.SetSchema(core.GlobalProject, schema); err != nil {
			return fmt.Errorf("installing schema %s: %w", schema.ID, err)
		}
	}
	return nil
}

// Check resolves every schema against the others and returns the first error.
func Check(schemas []*core.Schema) error {
	var store = make(mapStore, len(schemas))
	for _, schema := range schemas {
		store[schema.ID] = schema
	}
	var resolver = core.NewResolver(store)
	for _, schema := range schemas {
		if _, err := resolver.Resolve(schema.ID); err != nil {
			return fmt.Errorf("schema %s: %w", schema.ID, err)
		}
	}
	return nil
}

type mapStore map[string]*core.Schema

func (m mapStore) GetSchema(id string) (*core.Schema, error) {
	if schema, ok := m[id]; ok {
		return schema, nil
	}
	return nil, core.NewNotFoundError("schema", id)
}
