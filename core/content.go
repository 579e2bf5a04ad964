package core

import (
	"encoding/json"
	"time"
)

type PublishingSettings struct {
	ConnectionID string `json:"connectionId,omitempty"`
}

type Settings struct {
	Publishing PublishingSettings `json:"publishing"`
}

// Content is the unit of editing and saving.
// Properties are the values of the schema's "properties" field definitions, Meta holds the values of all other field definitions.
type Content struct {
	ID          string                 `json:"id"`
	SchemaID    string                 `json:"schemaId"`
	ParentID    string                 `json:"parentId,omitempty"`
	Properties  map[string]interface{} `json:"properties"`
	Meta        map[string]interface{} `json:"meta,omitempty"`
	Settings    Settings               `json:"settings"`
	IsPublished bool                   `json:"isPublished"`
	IsLocked    bool                   `json:"isLocked"`
	Sort        int                    `json:"sort,omitempty"`
	CreatedBy   string                 `json:"createdBy,omitempty"`
	UpdatedBy   string                 `json:"updatedBy,omitempty"`
	CreateDate  time.Time              `json:"createDate"`
	UpdateDate  time.Time              `json:"updateDate"`
}

// Clone returns a deep copy, so the caller can modify it without affecting cached values.
func (c *Content) Clone() *Content {
	var clone = *c
	clone.Properties = cloneMap(c.Properties)
	clone.Meta = cloneMap(c.Meta)
	return &clone
}

// Normalize makes sure that the value maps exist.
func (c *Content) Normalize() {
	if c.Properties == nil {
		c.Properties = make(map[string]interface{})
	}
	if c.Meta == nil {
		c.Meta = make(map[string]interface{})
	}
}

// Title returns the "title" property in the given language, or the id.
func (c *Content) Title(language string) string {
	if title, ok := LocalizedString(c.Properties["title"], language); ok && title != "" {
		return title
	}
	return c.ID
}

// URL returns the "url" property in the given language.
func (c *Content) URL(language string) string {
	url, _ := LocalizedString(c.Properties["url"], language)
	return url
}

func ParseContent(data []byte) (*Content, error) {
	var c = &Content{}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}
	c.Normalize()
	return c, nil
}

// A Connection is a publishing target.
type Connection struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Locked bool   `json:"locked,omitempty"`
}
