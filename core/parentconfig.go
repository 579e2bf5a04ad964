package core

// FromParent is a config value which makes a field inherit the equivalent setting of the parent content's schema.
const FromParent = "fromParent"

// parentConfigKeys maps field config keys to the schema attribute they inherit.
// Keys not listed here inherit the parent schema's config entry of the same name.
var parentConfigKeys = map[string]func(*MergedSchema) interface{}{
	"allowedSchemas": func(s *MergedSchema) interface{} {
		if s.AllowedChildSchemas == nil {
			return nil
		}
		var ids = make([]interface{}, len(s.AllowedChildSchemas))
		for i, id := range s.AllowedChildSchemas {
			ids[i] = id
		}
		return ids
	},
}

// A ContentStore returns content records of one project and environment.
type ContentStore interface {
	GetContent(id string) (*Content, error)
}

// ParentConfig substitutes FromParent config values.
type ParentConfig struct {
	Contents ContentStore
	Resolver *Resolver
}

// Inherit returns a copy of config in which every FromParent value is replaced by the equivalent value of the parent content's schema.
//
// If content has no parent, or the parent content or schema can't be found, the values are removed,
// which makes the editor permissive. The lookup error is returned so it can be shown to the user,
// but the returned config is usable in any case.
func (p *ParentConfig) Inherit(config map[string]interface{}, content *Content) (map[string]interface{}, error) {

	var keys []string
	for key, value := range config {
		if s, ok := value.(string); ok && s == FromParent {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return config, nil
	}

	config = cloneMap(config)
	for _, key := range keys {
		delete(config, key)
	}

	parentSchema, err := p.parentSchema(content)
	if err != nil || parentSchema == nil {
		return config, err
	}

	for _, key := range keys {
		var value interface{}
		if get, ok := parentConfigKeys[key]; ok {
			value = get(parentSchema)
		} else {
			value = cloneValue(parentSchema.Config[key])
		}
		if value != nil {
			config[key] = value
		}
	}

	return config, nil
}

// parentSchema returns nil, nil if the content has no parent.
func (p *ParentConfig) parentSchema(content *Content) (*MergedSchema, error) {
	if content == nil || content.ParentID == "" || p == nil || p.Contents == nil {
		return nil, nil
	}
	parent, err := p.Contents.GetContent(content.ParentID)
	if err != nil {
		return nil, err
	}
	return p.Resolver.Resolve(parent.SchemaID)
}
