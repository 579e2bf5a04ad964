package backend

import (
	"bytes"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/wansing/schemacms/core"
	"github.com/wansing/schemacms/util"
)

// maxDepth limits the parent chain, which may be broken or cyclic in raw edited content.
const maxDepth = 32

// Breadcrumbs renders the parent chain of a content, root first.
func (ctx *context) Breadcrumbs(content *core.Content) template.HTML {

	var contents = ctx.db.Contents(ctx.Session)
	var lang = ctx.Session.Language

	var chain = []*core.Content{content}
	for c := content; c.ParentID != "" && len(chain) < maxDepth; {
		parent, err := contents.GetContent(c.ParentID)
		if err != nil {
			break
		}
		chain = append(chain, parent)
		c = parent
	}

	// reverse
	for i := len(chain)/2 - 1; i >= 0; i-- {
		opp := len(chain) - 1 - i
		chain[i], chain[opp] = chain[opp], chain[i]
	}

	var buf = &bytes.Buffer{}
	buf.WriteString(`<nav aria-label="breadcrumb" style="margin-top: 1rem;"><ol class="breadcrumb">`)
	buf.WriteString(`<li class="breadcrumb-item"><a href="` + template.HTMLEscapeString(ctx.Link("content")) + `">Content</a></li>`)

	for _, c := range chain {
		var isLast = c == content
		buf.WriteString(`<li class="breadcrumb-item`)
		if isLast {
			buf.WriteString(` active`)
		}
		buf.WriteString(`">`)
		if !isLast {
			buf.WriteString(`<a href="` + template.HTMLEscapeString(ctx.Link("edit/%s", c.ID)) + `">`)
		}
		buf.WriteString(template.HTMLEscapeString(ContentLabel(c, lang)))
		if !isLast {
			buf.WriteString(`</a>`)
		}
		buf.WriteString(`</li>`)
	}

	buf.WriteString(`</ol></nav>`)

	return template.HTML(buf.String())
}

func optionSchema(w io.StringWriter, schema *core.Schema, selectedID string) {
	w.WriteString(`<option `)
	if schema.ID == selectedID {
		w.WriteString(`selected `)
	}
	var label = schema.ID
	if schema.Name != "" {
		label = schema.Name + " (" + schema.ID + ")"
	}
	w.WriteString(`value="` + template.HTMLEscapeString(schema.ID) + `">` + template.HTMLEscapeString(label) + `</option>`)
}

// creatable reports whether content can be created from the schema. The type may be inherited from an ancestor.
func creatable(resolver *core.Resolver, schema *core.Schema) bool {
	if schema.ID == "contentBase" {
		return false
	}
	merged, err := resolver.Resolve(schema.ID)
	return err == nil && merged.Type == core.ContentSchema
}

// SelectContentSchema writes one or two optgroup tags. Featured are the schemas of the project itself.
func SelectContentSchema(resolver *core.Resolver, all []*core.Schema, featured []*core.Schema, selectedID string) template.HTML {

	w := &bytes.Buffer{}

	var hasFeatured bool
	for _, schema := range featured {
		if creatable(resolver, schema) {
			hasFeatured = true
			break
		}
	}

	if hasFeatured {
		w.WriteString(`<optgroup label="Project">`)
		for _, schema := range featured {
			if creatable(resolver, schema) {
				optionSchema(w, schema, selectedID)
			}
		}
		w.WriteString(`</optgroup>`)
	}

	w.WriteString(`<optgroup label="All">`)
	for _, schema := range all {
		if creatable(resolver, schema) {
			optionSchema(w, schema, selectedID)
		}
	}
	w.WriteString(`</optgroup>`)

	return template.HTML(w.String())
}

const maxLabelRunes = 60

// ContentLabel returns the title of c. Without a title, it falls back to the first heading of the rich text, then to the id.
func ContentLabel(c *core.Content, lang string) string {
	var label = c.Title(lang)
	if label == c.ID {
		if text, ok := core.LocalizedString(c.Properties["text"], lang); ok {
			if heading := util.Heading(strings.NewReader(text)); heading != "" {
				label = heading
			}
		}
	}
	return util.Trunc(label, maxLabelRunes)
}

func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	// ignores the user timezone
	return t.Format("_2.1.2006 15:04:05")
}

func SaveActionLabel(a core.SaveAction) string {
	switch a {
	case core.Publish:
		return "Publish"
	case core.Unpublish:
		return "Unpublish"
	case core.Preview:
		return "Preview"
	default:
		return "(No action)"
	}
}
