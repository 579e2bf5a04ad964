package editors

import (
	"html/template"
	"net/url"
	"strings"

	"github.com/wansing/schemacms/core"
)

func init() {
	Register(&core.EditorKind{
		Code: "BooleanEditor",
		Name: "Boolean",
		Create: func(p core.EditorParams) core.Editor {
			return &Boolean{Base: Base{EditorParams: p}}
		},
		Sanitize: func(v interface{}) interface{} {
			switch v := v.(type) {
			case bool:
				return v
			case string:
				return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "on")
			case float64:
				return v != 0
			default:
				return false
			}
		},
	})
}

type Boolean struct {
	Base
}

// The hidden input is posted in any case, the checkbox only if it is checked. Base.posted takes the last value.
var booleanTmpl = template.Must(template.New("boolean").Parse(`<input type="hidden" name="{{ .Name }}" value="false">
<input class="form-check-input" type="checkbox" name="{{ .Name }}" value="true"{{ if .Checked }} checked{{ end }}{{ if .Disabled }} disabled{{ end }}>`))

func (e *Boolean) Render() (template.HTML, error) {
	checked, _ := e.Value.(bool)
	return execute(booleanTmpl, struct {
		Name     string
		Checked  bool
		Disabled bool
	}{e.Name, checked, e.Disabled})
}

func (e *Boolean) Submit(form url.Values) error {
	posted, ok := e.posted(form)
	if !ok {
		return nil
	}
	e.commit(posted == "true", nil)
	return nil
}
