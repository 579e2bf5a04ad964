package core

import (
	"fmt"
)

// A SchemaStore returns raw schema records. GetSchema returns a *NotFoundError if the id is unknown.
type SchemaStore interface {
	GetSchema(id string) (*Schema, error)
}

// A MergedSchema is a schema folded with all of its ancestors.
// It is computed per resolution and never cached.
type MergedSchema struct {
	Schema
	Chain []string `json:"chain"` // schema ids from the resolved schema up to the root
}

type Resolver struct {
	Store SchemaStore
}

func NewResolver(store SchemaStore) *Resolver {
	return &Resolver{Store: store}
}

// Resolve merges the schema with the given id with its parent chain.
// It fails with a *NotFoundError if any schema of the chain is missing
// and with a *CyclicSchemaError if the chain revisits a schema.
func (r *Resolver) Resolve(id string) (*MergedSchema, error) {
	var chain []string
	merged, err := r.resolve(id, make(map[string]struct{}), &chain)
	if err != nil {
		return nil, err
	}
	return &MergedSchema{
		Schema: *merged,
		Chain:  chain,
	}, nil
}

func (r *Resolver) resolve(id string, visited map[string]struct{}, chain *[]string) (*Schema, error) {

	if _, ok := visited[id]; ok {
		return nil, &CyclicSchemaError{Chain: append(append([]string{}, *chain...), id)}
	}
	visited[id] = struct{}{}
	*chain = append(*chain, id)

	schema, err := r.Store.GetSchema(id)
	if err != nil {
		return nil, err
	}

	if schema.ParentSchemaID == "" {
		return schema.Clone(), nil
	}

	parent, err := r.resolve(schema.ParentSchemaID, visited, chain)
	if err != nil {
		return nil, err
	}

	return Merge(schema, parent), nil
}

// ResolveFieldSchema resolves a field kind. The result inherits editor id and config from its ancestors.
func (r *Resolver) ResolveFieldSchema(id string) (*MergedSchema, error) {
	if id == "" {
		return nil, &ValidationError{Field: "schemaId", Reason: "empty"}
	}
	merged, err := r.Resolve(id)
	if err != nil {
		return nil, err
	}
	if merged.Type != FieldSchema {
		return nil, &ValidationError{Field: "schemaId", Reason: fmt.Sprintf(`schema "%s" is of type "%s", not "%s"`, id, merged.Type, FieldSchema)}
	}
	return merged, nil
}

// Merge folds a child schema onto its already merged parent and returns a new Schema.
// Neither argument is modified.
//
// Fields and config entries of the child override entries of the parent with the same key.
// Tabs are unioned. Scalar attributes are taken from the child unless they are undefined there.
func Merge(child, parent *Schema) *Schema {

	var m = parent.Clone()

	m.ID = child.ID
	m.ParentSchemaID = child.ParentSchemaID

	if child.Name != "" {
		m.Name = child.Name
	}
	if child.DefaultTabID != "" {
		m.DefaultTabID = child.DefaultTabID
	}
	if child.Type != "" {
		m.Type = child.Type
	}
	if child.Locked != nil {
		var locked = *child.Locked
		m.Locked = &locked
	}
	if child.Icon != "" {
		m.Icon = child.Icon
	}
	if child.EditorID != "" {
		m.EditorID = child.EditorID
	}
	if child.AllowedChildSchemas != nil {
		m.AllowedChildSchemas = append([]string{}, child.AllowedChildSchemas...)
	}

	for id, label := range child.Tabs {
		m.Tabs[id] = label
	}

	for key, def := range child.Fields.Properties {
		m.Fields.Properties[key] = def.clone()
	}
	for key, def := range child.Fields.Meta {
		m.Fields.Meta[key] = def.clone()
	}

	if len(child.Config) > 0 && m.Config == nil {
		m.Config = make(map[string]interface{}, len(child.Config))
	}
	for key, value := range child.Config {
		m.Config[key] = cloneValue(value)
	}

	return m
}

// An overlayStore shadows one schema of another store. It is used to check a schema before it is saved.
type overlayStore struct {
	base   SchemaStore
	schema *Schema
}

func (o overlayStore) GetSchema(id string) (*Schema, error) {
	if id == o.schema.ID {
		return o.schema, nil
	}
	return o.base.GetSchema(id)
}

// CheckSchema returns an error if the schema, once stored, could not be resolved.
func CheckSchema(store SchemaStore, schema *Schema) error {
	if schema.ID == "" {
		return &ValidationError{Field: "id", Reason: "empty"}
	}
	switch schema.Type {
	case "", ContentSchema, FieldSchema:
	default:
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown schema type %s", schema.Type)}
	}
	_, err := NewResolver(overlayStore{store, schema}).Resolve(schema.ID)
	return err
}
