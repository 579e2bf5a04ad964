package editors

import (
	"github.com/wansing/schemacms/core"
	"golang.org/x/exp/slices"
)

func init() {
	Register(&core.EditorKind{
		Code: "ContentReferenceEditor",
		Name: "Content reference",
		Info: `<p>The id of another content. Restrict the choice with <code>allowedSchemas</code>, which may be <code>"fromParent"</code>.</p>`,
		Create: func(p core.EditorParams) core.Editor {
			var e = &ContentReference{}
			e.Base = Base{EditorParams: p}
			e.options = e.contentOptions
			return e
		},
		Sanitize: func(v interface{}) interface{} {
			s, ok := v.(string)
			if !ok || s == "" {
				return nil
			}
			return s
		},
	})
}

type ContentReference struct {
	selectEditor
}

func (e *ContentReference) contentOptions() ([]Option, error) {
	if e.Resources == nil {
		return nil, nil
	}
	all, err := e.Resources.AllContent()
	if err != nil {
		return nil, err
	}
	allowed, restricted := e.configList("allowedSchemas")
	var options []Option
	for _, c := range all {
		if restricted && !slices.Contains(allowed, c.SchemaID) {
			continue
		}
		options = append(options, Option{Value: c.ID, Label: c.Title(e.Language)})
	}
	sortOptions(options)
	return options, nil
}
