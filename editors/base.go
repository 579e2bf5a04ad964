package editors

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/wansing/schemacms/core"
)

// All editors should embed Base. It keeps the params and the change handlers.
type Base struct {
	core.EditorParams
	handlers []func(core.Change)
}

func (b *Base) OnChange(handler func(core.Change)) {
	b.handlers = append(b.handlers, handler)
}

func (b *Base) emit(value interface{}, dirty bool) {
	b.Value = value
	for _, handler := range b.handlers {
		handler(core.Change{Value: value, Dirty: dirty})
	}
}

// commit notifies the handlers if value differs from the current value.
// If equivalent reports that both values mean the same, the change is not dirty.
func (b *Base) commit(value interface{}, equivalent func(a, b interface{}) bool) {
	if reflect.DeepEqual(b.Value, value) {
		return
	}
	b.emit(value, equivalent == nil || !equivalent(b.Value, value))
}

// posted returns the last posted value of the editor's input.
// Disabled editors ignore the form.
func (b *Base) posted(form url.Values) (string, bool) {
	if b.Disabled {
		return "", false
	}
	values, ok := form[b.Name]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[len(values)-1], true
}

func (b *Base) configString(key string) string {
	s, _ := b.Config[key].(string)
	return s
}

func (b *Base) configBool(key string) bool {
	v, _ := b.Config[key].(bool)
	return v
}

// configList returns a config entry as a list of strings and whether it is a list at all.
func (b *Base) configList(key string) ([]string, bool) {
	return stringList(b.Config[key])
}

func stringList(v interface{}) ([]string, bool) {
	switch v := v.(type) {
	case []string:
		return v, true
	case []interface{}:
		var list = make([]string, 0, len(v))
		for _, item := range v {
			list = append(list, fmt.Sprint(item))
		}
		return list, true
	default:
		return nil, false
	}
}

func stringValue(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func execute(t *template.Template, data interface{}) (template.HTML, error) {
	var buf = &bytes.Buffer{}
	if err := t.Execute(buf, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// An Option is one entry of a select input.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

func sortOptions(options []Option) {
	sort.SliceStable(options, func(i, j int) bool {
		return strings.ToLower(options[i].Label) < strings.ToLower(options[j].Label)
	})
}

var selectTmpl = template.Must(template.New("select").Parse(`<select class="form-control" name="{{ .Name }}"{{ if .Disabled }} disabled{{ end }}{{ if .Multiple }} multiple{{ end }}>
	{{ if .Clearable }}<option value="">(none)</option>{{ end }}
	{{ range .Options }}
		<option value="{{ .Value }}"{{ if .Selected }} selected{{ end }}>{{ .Label }}</option>
	{{ end }}
</select>`))

type selectData struct {
	Name      string
	Disabled  bool
	Multiple  bool
	Clearable bool
	Options   []Option
}

// selectEditor is embedded by editors which let the user choose one of some options.
type selectEditor struct {
	Base
	options func() ([]Option, error)
}

func (e *selectEditor) Render() (template.HTML, error) {
	options, err := e.options()
	if err != nil {
		return "", err
	}
	var current = stringValue(e.Value)
	for i := range options {
		options[i].Selected = options[i].Value == current
	}
	return execute(selectTmpl, selectData{
		Name:      e.Name,
		Disabled:  e.Disabled,
		Clearable: true,
		Options:   options,
	})
}

func (e *selectEditor) Submit(form url.Values) error {
	posted, ok := e.posted(form)
	if !ok {
		return nil
	}
	if posted == "" {
		e.commit(nil, nil)
		return nil
	}
	options, err := e.options()
	if err != nil {
		return err
	}
	for _, option := range options {
		if option.Value == posted {
			e.commit(posted, nil)
			return nil
		}
	}
	return &core.ValidationError{Field: e.Key, Reason: fmt.Sprintf("%q is not an option", posted)}
}
