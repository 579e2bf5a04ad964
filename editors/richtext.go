package editors

import (
	"html/template"
	"net/url"
	"strings"

	"github.com/wansing/schemacms/core"
	"github.com/wansing/schemacms/util"
)

func init() {
	Register(&core.EditorKind{
		Code: "RichTextEditor",
		Name: "Rich text",
		Info: `<p>HTML. Scripts, styles, event handlers and unknown elements are removed on save.</p>`,
		Create: func(p core.EditorParams) core.Editor {
			return &RichText{Base: Base{EditorParams: p}}
		},
		Sanitize: func(v interface{}) interface{} {
			if v == nil {
				return nil
			}
			return stringValue(v)
		},
	})
}

type RichText struct {
	Base
}

var richTextTmpl = template.Must(template.New("richtext").Parse(`<textarea class="form-control richtext" rows="12" name="{{ .Name }}"{{ if .Disabled }} disabled{{ end }}>{{ .Value }}</textarea>`))

func (e *RichText) Render() (template.HTML, error) {
	return execute(richTextTmpl, struct {
		Name     string
		Value    string
		Disabled bool
	}{e.Name, stringValue(e.Value), e.Disabled})
}

func (e *RichText) Submit(form url.Values) error {
	posted, ok := e.posted(form)
	if !ok {
		return nil
	}
	sanitized, err := util.SanitizeHTML(posted)
	if err != nil {
		return &core.ValidationError{Field: e.Key, Reason: err.Error()}
	}
	e.commit(sanitized, sameMarkup)
	return nil
}

// sameMarkup reports whether a and b differ in whitespace only.
func sameMarkup(a, b interface{}) bool {
	return strings.Join(strings.Fields(stringValue(a)), " ") == strings.Join(strings.Fields(stringValue(b)), " ")
}
