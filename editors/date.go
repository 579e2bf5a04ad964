package editors

import (
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/wansing/schemacms/core"
)

func init() {
	Register(&core.EditorKind{
		Code: "DateEditor",
		Name: "Date",
		Info: `<p>A point in time, stored as RFC 3339 in UTC.</p>`,
		Create: func(p core.EditorParams) core.Editor {
			return &Date{Base: Base{EditorParams: p}}
		},
		Sanitize: func(v interface{}) interface{} {
			s, ok := v.(string)
			if !ok {
				return nil
			}
			t, err := parseDate(s)
			if err != nil {
				return nil
			}
			return t.Format(time.RFC3339)
		},
	})
}

const datetimeLocal = "2006-01-02T15:04"

var dateLayouts = []string{time.RFC3339, datetimeLocal, "2006-01-02"}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("can't parse date %q", s)
}

type Date struct {
	Base
}

var dateTmpl = template.Must(template.New("date").Parse(`<input class="form-control" type="datetime-local" name="{{ .Name }}" value="{{ .Value }}"{{ if .Disabled }} disabled{{ end }}>`))

func (e *Date) Render() (template.HTML, error) {
	var value string
	if s, ok := e.Value.(string); ok {
		if t, err := parseDate(s); err == nil {
			value = t.Format(datetimeLocal)
		}
	}
	return execute(dateTmpl, struct {
		Name     string
		Value    string
		Disabled bool
	}{e.Name, value, e.Disabled})
}

func (e *Date) Submit(form url.Values) error {
	posted, ok := e.posted(form)
	if !ok {
		return nil
	}
	if strings.TrimSpace(posted) == "" {
		e.commit(nil, nil)
		return nil
	}
	t, err := parseDate(posted)
	if err != nil {
		return &core.ValidationError{Field: e.Key, Reason: err.Error()}
	}
	e.commit(t.Format(time.RFC3339), sameInstant)
	return nil
}

func sameInstant(a, b interface{}) bool {
	as, _ := a.(string)
	bs, _ := b.(string)
	at, errA := parseDate(as)
	bt, errB := parseDate(bs)
	return errA == nil && errB == nil && at.Equal(bt)
}
