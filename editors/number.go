package editors

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"

	"github.com/wansing/schemacms/core"
)

func init() {
	Register(&core.EditorKind{
		Code: "NumberEditor",
		Name: "Number",
		Info: `<p>A number. Config: <code>min</code>, <code>max</code>, <code>step</code>.</p>`,
		Create: func(p core.EditorParams) core.Editor {
			return &Number{Base: Base{EditorParams: p}}
		},
		Sanitize: toNumber,
	})
}

// toNumber returns nil for values which are no numbers.
func toNumber(v interface{}) interface{} {
	switch v := v.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		return f
	default:
		return nil
	}
}

type Number struct {
	Base
}

var numberTmpl = template.Must(template.New("number").Parse(`<input class="form-control" type="number" name="{{ .Name }}" value="{{ .Value }}"{{ with .Min }} min="{{ . }}"{{ end }}{{ with .Max }} max="{{ . }}"{{ end }} step="{{ .Step }}"{{ if .Disabled }} disabled{{ end }}>`))

func (e *Number) bound(key string) (float64, bool) {
	f, ok := toNumber(e.Config[key]).(float64)
	return f, ok
}

func (e *Number) Render() (template.HTML, error) {
	var value, min, max string
	if f, ok := e.Value.(float64); ok {
		value = strconv.FormatFloat(f, 'f', -1, 64)
	}
	if f, ok := e.bound("min"); ok {
		min = strconv.FormatFloat(f, 'f', -1, 64)
	}
	if f, ok := e.bound("max"); ok {
		max = strconv.FormatFloat(f, 'f', -1, 64)
	}
	var step = "any"
	if f, ok := e.bound("step"); ok && f > 0 {
		step = strconv.FormatFloat(f, 'f', -1, 64)
	}
	return execute(numberTmpl, struct {
		Name, Value, Min, Max, Step string
		Disabled                    bool
	}{e.Name, value, min, max, step, e.Disabled})
}

func (e *Number) Submit(form url.Values) error {
	posted, ok := e.posted(form)
	if !ok {
		return nil
	}
	posted = strings.TrimSpace(posted)
	if posted == "" {
		e.commit(nil, nil)
		return nil
	}
	f, err := strconv.ParseFloat(posted, 64)
	if err != nil {
		return &core.ValidationError{Field: e.Key, Reason: fmt.Sprintf("%q is not a number", posted)}
	}
	if min, ok := e.bound("min"); ok && f < min {
		return &core.ValidationError{Field: e.Key, Reason: fmt.Sprintf("must be at least %v", min)}
	}
	if max, ok := e.bound("max"); ok && f > max {
		return &core.ValidationError{Field: e.Key, Reason: fmt.Sprintf("must be at most %v", max)}
	}
	e.commit(f, nil)
	return nil
}
