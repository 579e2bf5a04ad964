package core

import (
	"html/template"
	"sort"

	"github.com/rs/zerolog"
)

const (
	MetaTab       = "meta"       // the tab of fields which have no tab assigned
	PropertiesKey = "properties" // rendered as the tab container, never as a field of the meta tab
)

// A Document receives the changes of the field editors.
// MarkChanged is called for every stored change, MarkDirty only for those which alter the meaning.
type Document interface {
	Locked() bool
	MarkChanged()
	MarkDirty()
}

// SelectFields returns the keys of the field definitions which belong to the given tab, in display order.
func SelectFields(tabID string, defs map[string]*FieldDefinition) []string {
	var keys []string
	for key, def := range defs {
		if def == nil {
			continue
		}
		if tabID == MetaTab && key == PropertiesKey {
			continue
		}
		if (def.TabID == "" && tabID == MetaTab) || def.TabID == tabID {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if defs[keys[i]].Sort != defs[keys[j]].Sort {
			return defs[keys[i]].Sort < defs[keys[j]].Sort
		}
		return keys[i] < keys[j]
	})
	return keys
}

// A RenderedField is a field editor instance bound to one value.
type RenderedField struct {
	Key        string
	Label      string
	Definition *FieldDefinition
	Schema     *MergedSchema
	Kind       *EditorKind
	Editor     Editor
}

func (f *RenderedField) Render() (template.HTML, error) {
	return f.Editor.Render()
}

// A FieldTarget is the value map which a dispatch reads from and writes to.
type FieldTarget struct {
	Scope     string                 // prefix of the form input names, like "properties"
	Values    map[string]interface{} // modified in place
	Language  string
	Document  Document // may be nil
	Content   *Content // for config inheritance, may be nil
	Resources Resources
}

type Dispatcher struct {
	Resolver *Resolver
	Editors  EditorRegistry
	Parent   *ParentConfig // may be nil
	Log      zerolog.Logger
}

// RenderFieldsForTab instantiates the editors of the fields which belong to tabID.
//
// A field whose field schema or editor is missing is logged and skipped, the other fields are rendered anyway.
// The returned errors are meant for the user: they don't prevent editing.
func (d *Dispatcher) RenderFieldsForTab(tabID string, defs map[string]*FieldDefinition, target *FieldTarget) ([]*RenderedField, []error) {

	var fields []*RenderedField
	var notices []error
	var noticed = make(map[string]bool)

	var languages []string
	if target.Resources != nil {
		languages = target.Resources.Languages()
	}

	for _, key := range SelectFields(tabID, defs) {

		var def = defs[key]

		fieldSchema, err := d.Resolver.ResolveFieldSchema(def.SchemaID)
		if err != nil {
			d.Log.Warn().Err(err).Str("key", key).Str("schemaId", def.SchemaID).Msg("field schema not found, skipping field")
			continue
		}

		kind, ok := d.Editors.Get(fieldSchema.EditorID)
		if !ok {
			d.Log.Warn().Str("key", key).Str("editorId", fieldSchema.EditorID).Msg("no editor found, skipping field")
			continue
		}

		target.Values[key] = SanityCheck(target.Values[key], def, target.Language, languages)

		var value = target.Values[key]
		if def.Multilingual {
			value = value.(map[string]interface{})[target.Language]
		}
		if kind.Sanitize != nil {
			value = kind.Sanitize(value)
			if value != nil {
				d.store(target, key, def, value)
			}
		}

		// the definition's config takes precedence over the field schema's config
		var config = def.Config
		if config == nil {
			config = fieldSchema.Config
		}
		config = cloneMap(config)
		if config == nil {
			config = make(map[string]interface{})
		}
		if d.Parent != nil {
			config, err = d.Parent.Inherit(config, target.Content)
			if err != nil && !noticed[err.Error()] {
				noticed[err.Error()] = true
				notices = append(notices, err)
			}
		}

		var label = def.Label
		if label == "" {
			label = key
		}

		var editor = kind.Create(EditorParams{
			Key:          key,
			Name:         target.Scope + "." + key,
			Value:        value,
			Disabled:     def.Disabled,
			Config:       config,
			Schema:       fieldSchema,
			Multilingual: def.Multilingual,
			Language:     target.Language,
			Resources:    target.Resources,
		})

		var k, fieldDef = key, def // capture
		editor.OnChange(func(change Change) {
			if target.Document != nil && target.Document.Locked() {
				return
			}
			d.store(target, k, fieldDef, change.Value)
			if target.Document != nil {
				target.Document.MarkChanged()
				if change.Dirty {
					target.Document.MarkDirty()
				}
			}
		})

		fields = append(fields, &RenderedField{
			Key:        key,
			Label:      label,
			Definition: def,
			Schema:     fieldSchema,
			Kind:       kind,
			Editor:     editor,
		})
	}

	return fields, notices
}

func (d *Dispatcher) store(target *FieldTarget, key string, def *FieldDefinition, value interface{}) {
	if def.Multilingual {
		target.Values[key] = SetLocalized(target.Values[key], target.Language, value)
	} else {
		target.Values[key] = value
	}
}
