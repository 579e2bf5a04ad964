package editors

import (
	"html/template"
	"net/url"

	"github.com/wansing/schemacms/core"
	"github.com/wansing/schemacms/util"
)

func init() {
	Register(&core.EditorKind{
		Code: "UrlEditor",
		Name: "URL",
		Info: `<p>The path of the page. It is lowercased and gets a leading and a trailing slash.</p>`,
		Create: func(p core.EditorParams) core.Editor {
			return &URL{Base: Base{EditorParams: p}}
		},
		Sanitize: func(v interface{}) interface{} {
			if v == nil {
				return nil
			}
			return util.SlugPath(stringValue(v))
		},
	})
}

type URL struct {
	Base
}

var urlTmpl = template.Must(template.New("url").Parse(`<input class="form-control" type="text" name="{{ .Name }}" value="{{ .Value }}" placeholder="/path/"{{ if .Disabled }} disabled{{ end }}>`))

func (e *URL) Render() (template.HTML, error) {
	return execute(urlTmpl, struct {
		Name     string
		Value    string
		Disabled bool
	}{e.Name, stringValue(e.Value), e.Disabled})
}

func (e *URL) Submit(form url.Values) error {
	posted, ok := e.posted(form)
	if !ok {
		return nil
	}
	e.commit(util.SlugPath(posted), samePath)
	return nil
}

func samePath(a, b interface{}) bool {
	return util.SlugPath(stringValue(a)) == util.SlugPath(stringValue(b))
}
