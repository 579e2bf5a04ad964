package core

import (
	"encoding/json"
	"sort"
)

type SchemaType string

const (
	ContentSchema SchemaType = "content"
	FieldSchema   SchemaType = "field"
)

// A FieldDefinition describes one editable property of a content schema.
// SchemaID references a schema of type "field", which determines the editor.
type FieldDefinition struct {
	Label        string                 `json:"label,omitempty"`
	TabID        string                 `json:"tabId,omitempty"`
	SchemaID     string                 `json:"schemaId"`
	Config       map[string]interface{} `json:"config,omitempty"`
	Multilingual bool                   `json:"multilingual,omitempty"`
	Disabled     bool                   `json:"disabled,omitempty"`
	Sort         int                    `json:"sort,omitempty"` // fields are ordered by Sort, then by key
}

func (def *FieldDefinition) clone() *FieldDefinition {
	if def == nil {
		return nil
	}
	var c = *def
	c.Config = cloneMap(def.Config)
	return &c
}

// Fields holds the field definitions of a schema. In JSON, Properties is stored under the key "properties"
// and all Meta definitions are stored inline next to it.
type Fields struct {
	Properties map[string]*FieldDefinition // definitions of Content.Properties
	Meta       map[string]*FieldDefinition // definitions of Content.Meta
}

func (f Fields) MarshalJSON() ([]byte, error) {
	var m = make(map[string]interface{}, len(f.Meta)+1)
	for key, def := range f.Meta {
		m[key] = def
	}
	if f.Properties != nil {
		m[PropertiesKey] = f.Properties
	}
	return json.Marshal(m)
}

func (f *Fields) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Properties = nil
	f.Meta = nil
	for key, value := range raw {
		if key == PropertiesKey {
			if err := json.Unmarshal(value, &f.Properties); err != nil {
				return err
			}
			continue
		}
		var def = &FieldDefinition{}
		if err := json.Unmarshal(value, def); err != nil {
			return err
		}
		if f.Meta == nil {
			f.Meta = make(map[string]*FieldDefinition)
		}
		f.Meta[key] = def
	}
	return nil
}

// A Schema is the stored, unmerged definition of a content type or a field kind.
type Schema struct {
	ID                  string                 `json:"id"`
	Name                string                 `json:"name,omitempty"`
	ParentSchemaID      string                 `json:"parentSchemaId,omitempty"`
	DefaultTabID        string                 `json:"defaultTabId,omitempty"`
	Tabs                map[string]string      `json:"tabs,omitempty"` // tab id -> label
	Fields              Fields                 `json:"fields"`
	AllowedChildSchemas []string               `json:"allowedChildSchemas,omitempty"`
	Type                SchemaType             `json:"type,omitempty"`
	Locked              *bool                  `json:"locked,omitempty"`
	Icon                string                 `json:"icon,omitempty"`
	EditorID            string                 `json:"editorId,omitempty"` // field schemas only
	Config              map[string]interface{} `json:"config,omitempty"`   // field schemas only, default editor config
}

func (s *Schema) IsLocked() bool {
	return s.Locked != nil && *s.Locked
}

// Clone returns a deep copy.
func (s *Schema) Clone() *Schema {
	var c = *s
	c.Tabs = make(map[string]string, len(s.Tabs))
	for id, label := range s.Tabs {
		c.Tabs[id] = label
	}
	c.Fields = Fields{
		Properties: cloneDefinitions(s.Fields.Properties),
		Meta:       cloneDefinitions(s.Fields.Meta),
	}
	if s.AllowedChildSchemas != nil {
		c.AllowedChildSchemas = append([]string{}, s.AllowedChildSchemas...)
	}
	if s.Locked != nil {
		var locked = *s.Locked
		c.Locked = &locked
	}
	c.Config = cloneMap(s.Config)
	return &c
}

// SortedTabs returns the tab ids of the schema, sorted by label.
func (s *Schema) SortedTabs() []string {
	var ids = make([]string, 0, len(s.Tabs))
	for id := range s.Tabs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if s.Tabs[ids[i]] != s.Tabs[ids[j]] {
			return s.Tabs[ids[i]] < s.Tabs[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

func cloneDefinitions(defs map[string]*FieldDefinition) map[string]*FieldDefinition {
	var c = make(map[string]*FieldDefinition, len(defs))
	for key, def := range defs {
		c[key] = def.clone()
	}
	return c
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	var c = make(map[string]interface{}, len(m))
	for key, value := range m {
		c[key] = cloneValue(value)
	}
	return c
}

func cloneValue(v interface{}) interface{} {
	switch v := v.(type) {
	case map[string]interface{}:
		return cloneMap(v)
	case []interface{}:
		var c = make([]interface{}, len(v))
		for i := range v {
			c[i] = cloneValue(v[i])
		}
		return c
	case []string:
		return append([]string{}, v...)
	default:
		return v
	}
}
