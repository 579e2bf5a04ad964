package editors

import (
	"github.com/wansing/schemacms/core"
	"golang.org/x/exp/slices"
)

func init() {
	Register(&core.EditorKind{
		Code: "ContentSchemaReferenceEditor",
		Name: "Content schema reference",
		Info: `<p>The id of a content schema. Restrict the choice with <code>allowedSchemas</code>, which may be <code>"fromParent"</code>.</p>`,
		Create: func(p core.EditorParams) core.Editor {
			var e = &ContentSchemaReference{}
			e.Base = Base{EditorParams: p}
			e.options = e.schemaOptions
			return e
		},
	})
}

// abstract schemas which content can't be created from
var hiddenSchemas = []string{"page", "contentBase"}

type ContentSchemaReference struct {
	selectEditor
}

func (e *ContentSchemaReference) schemaOptions() ([]Option, error) {
	if e.Resources == nil {
		return nil, nil
	}
	all, err := e.Resources.AllSchemas()
	if err != nil {
		return nil, err
	}
	allowed, restricted := e.configList("allowedSchemas")
	var options []Option
	for _, schema := range all {
		if slices.Contains(hiddenSchemas, schema.ID) {
			continue
		}
		if restricted && !slices.Contains(allowed, schema.ID) {
			continue
		}
		// the type may be inherited
		merged, err := e.Resources.ResolveSchema(schema.ID)
		if err != nil || merged.Type != core.ContentSchema {
			continue
		}
		var label = schema.Name
		if label == "" {
			label = schema.ID
		}
		options = append(options, Option{Value: schema.ID, Label: label})
	}
	sortOptions(options)
	return options, nil
}
