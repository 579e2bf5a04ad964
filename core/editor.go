package core

import (
	"html/template"
	"net/url"
)

// A Change is emitted by an Editor when its value changes.
// Dirty is false for changes which only normalize the stored value and must not count as unsaved edits.
type Change struct {
	Value interface{}
	Dirty bool
}

type EditorParams struct {
	Key          string // field key
	Name         string // form input name, unique within the page
	Value        interface{}
	Disabled     bool
	Config       map[string]interface{}
	Schema       *MergedSchema // the field schema
	Multilingual bool
	Language     string
	Resources    Resources
}

// An Editor renders and edits the value of one field.
type Editor interface {
	Render() (template.HTML, error)
	OnChange(handler func(Change))
	Submit(form url.Values) error // reads the posted input and notifies the change handlers
}

// An EditorKind is registered under a normalized id like "StringEditor".
type EditorKind struct {
	Code     string
	Name     string
	Info     string
	Create   func(EditorParams) Editor
	Sanitize func(value interface{}) interface{} // optional, coerces a stored single-language value
}

func (kind *EditorKind) InfoHTML() template.HTML {
	return template.HTML(kind.Info)
}

type EditorRegistry interface {
	All() []string
	Get(editorID string) (*EditorKind, bool)
}

// Resources gives editors read access to the working set of the session.
type Resources interface {
	AllContent() ([]*Content, error)
	AllSchemas() ([]*Schema, error)
	Languages() []string
	ResolveSchema(id string) (*MergedSchema, error)
}
