package editors

import (
	"html/template"
	"net/url"
	"strings"

	"github.com/wansing/schemacms/core"
	"golang.org/x/exp/slices"
)

func init() {
	Register(&core.EditorKind{
		Code: "TagsEditor",
		Name: "Tags",
		Info: `<p>A list of comma-separated tags. Duplicates and empty tags are removed.</p>`,
		Create: func(p core.EditorParams) core.Editor {
			return &Tags{Base: Base{EditorParams: p}}
		},
		Sanitize: func(v interface{}) interface{} {
			switch v := v.(type) {
			case nil:
				return nil
			case string:
				return toInterfaces(splitTags(v))
			default:
				list, ok := stringList(v)
				if !ok {
					return nil
				}
				return toInterfaces(cleanTags(list))
			}
		},
	})
}

type Tags struct {
	Base
}

func splitTags(s string) []string {
	return cleanTags(strings.Split(s, ","))
}

func cleanTags(tags []string) []string {
	var result = make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" && !slices.Contains(result, tag) {
			result = append(result, tag)
		}
	}
	return result
}

func toInterfaces(tags []string) []interface{} {
	var result = make([]interface{}, len(tags))
	for i := range tags {
		result[i] = tags[i]
	}
	return result
}

var tagsTmpl = template.Must(template.New("tags").Parse(`<input class="form-control" type="text" name="{{ .Name }}" value="{{ .Value }}" placeholder="tag, another tag"{{ if .Disabled }} disabled{{ end }}>`))

func (e *Tags) Render() (template.HTML, error) {
	list, _ := stringList(e.Value)
	return execute(tagsTmpl, struct {
		Name     string
		Value    string
		Disabled bool
	}{e.Name, strings.Join(list, ", "), e.Disabled})
}

func (e *Tags) Submit(form url.Values) error {
	posted, ok := e.posted(form)
	if !ok {
		return nil
	}
	e.commit(toInterfaces(splitTags(posted)), sameTags)
	return nil
}

// sameTags reports whether a and b contain the same tags, regardless of order.
func sameTags(a, b interface{}) bool {
	as, _ := stringList(a)
	bs, _ := stringList(b)
	as = cleanTags(as)
	bs = cleanTags(bs)
	if len(as) != len(bs) {
		return false
	}
	for _, tag := range as {
		if !slices.Contains(bs, tag) {
			return false
		}
	}
	return true
}
