package editors

import (
	"html/template"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/wansing/schemacms/core"
)

func init() {
	Register(&core.EditorKind{
		Code: "StringEditor",
		Name: "String",
		Info: `<p>A single line of text. Set <code>multiline</code> for a text area and <code>maxLength</code> to limit the length.</p>`,
		Create: func(p core.EditorParams) core.Editor {
			return &String{Base: Base{EditorParams: p}}
		},
		Sanitize: func(v interface{}) interface{} {
			if v == nil {
				return nil
			}
			return stringValue(v)
		},
	})
}

type String struct {
	Base
}

var stringTmpl = template.Must(template.New("string").Parse(`{{ if .Multiline -}}
	<textarea class="form-control" name="{{ .Name }}"{{ if .Disabled }} disabled{{ end }}>{{ .Value }}</textarea>
{{- else -}}
	<input class="form-control" type="text" name="{{ .Name }}" value="{{ .Value }}"{{ if .MaxLength }} maxlength="{{ .MaxLength }}"{{ end }}{{ if .Disabled }} disabled{{ end }}>
{{- end }}`))

func (e *String) maxLength() int {
	if n, ok := e.Config["maxLength"].(float64); ok && n > 0 {
		return int(n)
	}
	return 0
}

func (e *String) Render() (template.HTML, error) {
	return execute(stringTmpl, struct {
		Name      string
		Value     string
		Disabled  bool
		Multiline bool
		MaxLength int
	}{
		Name:      e.Name,
		Value:     stringValue(e.Value),
		Disabled:  e.Disabled,
		Multiline: e.configBool("multiline"),
		MaxLength: e.maxLength(),
	})
}

func (e *String) Submit(form url.Values) error {
	posted, ok := e.posted(form)
	if !ok {
		return nil
	}
	posted = strings.ReplaceAll(posted, "\r\n", "\n")
	if max := e.maxLength(); max > 0 && utf8.RuneCountInString(posted) > max {
		return &core.ValidationError{Field: e.Key, Reason: "too long"}
	}
	e.commit(posted, nil)
	return nil
}
