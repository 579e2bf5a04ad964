package editors

import (
	"html/template"
	"net/url"
	"strings"

	"github.com/wansing/schemacms/core"
	"gitlab.com/golang-commonmark/markdown"
)

func init() {
	Register(&core.EditorKind{
		Code: "MarkdownEditor",
		Name: "Markdown",
		Info: `<p>CommonMark. HTML tags are not rendered in the preview.</p>`,
		Create: func(p core.EditorParams) core.Editor {
			return &Markdown{Base: Base{EditorParams: p}}
		},
		Sanitize: func(v interface{}) interface{} {
			if v == nil {
				return nil
			}
			return stringValue(v)
		},
	})
}

var md = markdown.New(markdown.HTML(false), markdown.Linkify(true), markdown.Typographer(false))

// RenderMarkdown converts CommonMark to HTML. Raw HTML in the input is escaped.
func RenderMarkdown(src string) template.HTML {
	return template.HTML(md.RenderToString([]byte(src)))
}

type Markdown struct {
	Base
}

var markdownTmpl = template.Must(template.New("markdown").Parse(`<textarea class="form-control" rows="12" name="{{ .Name }}"{{ if .Disabled }} disabled{{ end }}>{{ .Value }}</textarea>
{{ with .Preview }}<details class="mt-2"><summary>Preview</summary><div class="border p-2">{{ . }}</div></details>{{ end }}`))

func (e *Markdown) Render() (template.HTML, error) {
	var value = stringValue(e.Value)
	var preview template.HTML
	if strings.TrimSpace(value) != "" {
		preview = RenderMarkdown(value)
	}
	return execute(markdownTmpl, struct {
		Name     string
		Value    string
		Preview  template.HTML
		Disabled bool
	}{e.Name, value, preview, e.Disabled})
}

func (e *Markdown) Submit(form url.Values) error {
	posted, ok := e.posted(form)
	if !ok {
		return nil
	}
	e.commit(strings.ReplaceAll(posted, "\r\n", "\n"), nil)
	return nil
}
