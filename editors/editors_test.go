package editors

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wansing/schemacms/core"
)

type fakeResources struct {
	contents []*core.Content
	schemas  []*core.Schema
}

func (r fakeResources) AllContent() ([]*core.Content, error) {
	return r.contents, nil
}

func (r fakeResources) AllSchemas() ([]*core.Schema, error) {
	return r.schemas, nil
}

func (r fakeResources) Languages() []string {
	return []string{"en", "de"}
}

func (r fakeResources) GetSchema(id string) (*core.Schema, error) {
	for _, schema := range r.schemas {
		if schema.ID == id {
			return schema, nil
		}
	}
	return nil, core.NewNotFoundError("schema", id)
}

func (r fakeResources) ResolveSchema(id string) (*core.MergedSchema, error) {
	return core.NewResolver(r).Resolve(id)
}

// create instantiates a registered editor and records its changes
func create(t *testing.T, code string, p core.EditorParams) (core.Editor, *[]core.Change) {
	t.Helper()
	kind, ok := DefaultRegistry.Get(code)
	require.True(t, ok, code)
	if p.Name == "" {
		p.Name = "f"
	}
	var changes []core.Change
	var editor = kind.Create(p)
	editor.OnChange(func(c core.Change) {
		changes = append(changes, c)
	})
	return editor, &changes
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "StringEditor", Normalize("string"))
	assert.Equal(t, "StringEditor", Normalize(" StringEditor "))
	assert.Equal(t, "RichTextEditor", Normalize("richText"))
	assert.Equal(t, "", Normalize(""))
}

func TestRegistry(t *testing.T) {

	_, ok := DefaultRegistry.Get("boolean")
	assert.True(t, ok)
	_, ok = DefaultRegistry.Get("NoSuchEditor")
	assert.False(t, ok)

	var all = DefaultRegistry.All()
	assert.Contains(t, all, "BooleanEditor")
	assert.Contains(t, all, "UrlEditor")
	assert.IsIncreasing(t, all)
}

func TestBoolean(t *testing.T) {

	editor, changes := create(t, "BooleanEditor", core.EditorParams{})

	// the checkbox value comes after the hidden input
	require.NoError(t, editor.Submit(url.Values{"f": {"false", "true"}}))
	assert.Equal(t, []core.Change{{Value: true, Dirty: true}}, *changes)

	require.NoError(t, editor.Submit(url.Values{"f": {"false", "true"}}))
	assert.Len(t, *changes, 1)

	html, err := editor.Render()
	require.NoError(t, err)
	assert.Contains(t, string(html), "checked")

	kind, _ := DefaultRegistry.Get("BooleanEditor")
	assert.Equal(t, true, kind.Sanitize("on"))
	assert.Equal(t, false, kind.Sanitize(nil))
}

func TestDisabledIgnoresForm(t *testing.T) {
	editor, changes := create(t, "StringEditor", core.EditorParams{Value: "a", Disabled: true})
	require.NoError(t, editor.Submit(url.Values{"f": {"b"}}))
	assert.Empty(t, *changes)
}

func TestString(t *testing.T) {

	editor, changes := create(t, "StringEditor", core.EditorParams{Value: "abc", Config: map[string]interface{}{"maxLength": 3.0}})

	assert.ErrorIs(t, editor.Submit(url.Values{"f": {"abcd"}}), core.ErrValidation)
	assert.Empty(t, *changes)

	require.NoError(t, editor.Submit(url.Values{"f": {"äöü"}}))
	assert.Equal(t, []core.Change{{Value: "äöü", Dirty: true}}, *changes)

	html, err := editor.Render()
	require.NoError(t, err)
	assert.Contains(t, string(html), `maxlength="3"`)
}

func TestDate(t *testing.T) {

	editor, changes := create(t, "DateEditor", core.EditorParams{Value: "2024-01-02T12:00:00+02:00"})

	// same instant, different notation
	require.NoError(t, editor.Submit(url.Values{"f": {"2024-01-02T10:00"}}))
	assert.Equal(t, []core.Change{{Value: "2024-01-02T10:00:00Z", Dirty: false}}, *changes)

	require.NoError(t, editor.Submit(url.Values{"f": {"2024-01-02T11:00"}}))
	assert.Equal(t, core.Change{Value: "2024-01-02T11:00:00Z", Dirty: true}, (*changes)[1])

	assert.ErrorIs(t, editor.Submit(url.Values{"f": {"tomorrow"}}), core.ErrValidation)

	html, err := editor.Render()
	require.NoError(t, err)
	assert.Contains(t, string(html), `value="2024-01-02T11:00"`)

	kind, _ := DefaultRegistry.Get("DateEditor")
	assert.Equal(t, "2024-01-02T00:00:00Z", kind.Sanitize("2024-01-02"))
	assert.Nil(t, kind.Sanitize("soon"))
}

func TestTags(t *testing.T) {

	editor, changes := create(t, "TagsEditor", core.EditorParams{Value: []interface{}{"a", "b"}})

	// reordering is stored, but is no real change
	require.NoError(t, editor.Submit(url.Values{"f": {"b, a, a"}}))
	assert.Equal(t, []core.Change{{Value: []interface{}{"b", "a"}, Dirty: false}}, *changes)

	require.NoError(t, editor.Submit(url.Values{"f": {"b, c"}}))
	assert.True(t, (*changes)[1].Dirty)

	kind, _ := DefaultRegistry.Get("TagsEditor")
	assert.Equal(t, []interface{}{"a", "b"}, kind.Sanitize("a, ,b,a"))
	assert.Equal(t, []interface{}{"x"}, kind.Sanitize([]interface{}{" x ", "x"}))
	assert.Nil(t, kind.Sanitize(3.0))
}

func TestURL(t *testing.T) {

	kind, _ := DefaultRegistry.Get("UrlEditor")
	assert.Equal(t, "/about-us/team/", kind.Sanitize("About Us/Team"))

	editor, changes := create(t, "UrlEditor", core.EditorParams{Value: "/about-us/team/"})
	require.NoError(t, editor.Submit(url.Values{"f": {"about-us/team"}}))
	assert.Empty(t, *changes)

	require.NoError(t, editor.Submit(url.Values{"f": {"Über uns"}}))
	assert.Equal(t, []core.Change{{Value: "/uber-uns/", Dirty: true}}, *changes)
}

func TestRichText(t *testing.T) {

	editor, changes := create(t, "RichTextEditor", core.EditorParams{Value: "<p>Hi</p>"})

	require.NoError(t, editor.Submit(url.Values{"f": {`<p onclick="x">Hi<script>alert(1)</script></p>`}}))
	assert.Empty(t, *changes, "only the removed markup differs")

	require.NoError(t, editor.Submit(url.Values{"f": {"<p>Hello</p>"}}))
	assert.Equal(t, []core.Change{{Value: "<p>Hello</p>", Dirty: true}}, *changes)
}

func TestMarkdown(t *testing.T) {
	assert.Contains(t, string(RenderMarkdown("# Hi")), "<h1>Hi</h1>")
	assert.NotContains(t, string(RenderMarkdown("<b>bold</b>")), "<b>")

	editor, _ := create(t, "MarkdownEditor", core.EditorParams{Value: "*x*"})
	html, err := editor.Render()
	require.NoError(t, err)
	assert.Contains(t, string(html), "<em>x</em>")
}

func TestNumber(t *testing.T) {

	editor, changes := create(t, "NumberEditor", core.EditorParams{Config: map[string]interface{}{"min": 1.0}})

	assert.ErrorIs(t, editor.Submit(url.Values{"f": {"0"}}), core.ErrValidation)
	assert.ErrorIs(t, editor.Submit(url.Values{"f": {"one"}}), core.ErrValidation)
	require.NoError(t, editor.Submit(url.Values{"f": {" 2.5 "}}))
	assert.Equal(t, []core.Change{{Value: 2.5, Dirty: true}}, *changes)

	kind, _ := DefaultRegistry.Get("NumberEditor")
	assert.Equal(t, 3.0, kind.Sanitize("3"))
	assert.Nil(t, kind.Sanitize(true))
}

func TestDropdown(t *testing.T) {

	var config = map[string]interface{}{
		"options": []interface{}{"a", map[string]interface{}{"label": "Bee", "value": "b"}},
	}
	editor, changes := create(t, "DropdownEditor", core.EditorParams{Value: "a", Config: config})

	assert.ErrorIs(t, editor.Submit(url.Values{"f": {"c"}}), core.ErrValidation)
	require.NoError(t, editor.Submit(url.Values{"f": {"b"}}))
	assert.Equal(t, []core.Change{{Value: "b", Dirty: true}}, *changes)

	html, err := editor.Render()
	require.NoError(t, err)
	assert.Contains(t, string(html), `<option value="b" selected>Bee</option>`)

	// the empty option clears the value
	require.NoError(t, editor.Submit(url.Values{"f": {""}}))
	assert.Nil(t, (*changes)[1].Value)
}

func TestLanguage(t *testing.T) {

	kind, _ := DefaultRegistry.Get("LanguageEditor")
	assert.Equal(t, "en", kind.Sanitize("EN"))
	assert.Nil(t, kind.Sanitize(""))

	editor, _ := create(t, "LanguageEditor", core.EditorParams{Value: "de", Resources: fakeResources{}})
	html, err := editor.Render()
	require.NoError(t, err)
	assert.Contains(t, string(html), "English (en)")
	assert.Contains(t, string(html), `<option value="de" selected>Deutsch (de)</option>`)
}

func TestContentReference(t *testing.T) {

	var resources = fakeResources{
		contents: []*core.Content{
			{ID: "c1", SchemaID: "article", Properties: map[string]interface{}{"title": "Zed"}},
			{ID: "c2", SchemaID: "page", Properties: map[string]interface{}{"title": "Alpha"}},
		},
	}

	editor, changes := create(t, "ContentReferenceEditor", core.EditorParams{
		Language:  "en",
		Resources: resources,
		Config:    map[string]interface{}{"allowedSchemas": []interface{}{"article"}},
	})

	html, err := editor.Render()
	require.NoError(t, err)
	assert.Contains(t, string(html), "Zed")
	assert.NotContains(t, string(html), "Alpha")

	assert.ErrorIs(t, editor.Submit(url.Values{"f": {"c2"}}), core.ErrValidation)
	require.NoError(t, editor.Submit(url.Values{"f": {"c1"}}))
	assert.Equal(t, []core.Change{{Value: "c1", Dirty: true}}, *changes)

	// without a restriction, all content is offered in label order
	editor, _ = create(t, "ContentReferenceEditor", core.EditorParams{Language: "en", Resources: resources})
	options, err := editor.(*ContentReference).contentOptions()
	require.NoError(t, err)
	assert.Equal(t, []Option{{Value: "c2", Label: "Alpha"}, {Value: "c1", Label: "Zed"}}, options)
}

func TestContentSchemaReference(t *testing.T) {

	var resources = fakeResources{
		schemas: []*core.Schema{
			{ID: "contentBase", Type: core.ContentSchema},
			{ID: "article", Type: core.ContentSchema, Name: "Article", ParentSchemaID: "contentBase"},
			{ID: "text", Type: core.FieldSchema},
			{ID: "news", ParentSchemaID: "article"},
			{ID: "broken", ParentSchemaID: "gone"},
		},
	}

	editor, _ := create(t, "ContentSchemaReferenceEditor", core.EditorParams{Resources: resources})
	options, err := editor.(*ContentSchemaReference).schemaOptions()
	require.NoError(t, err)
	assert.Equal(t, []Option{{Value: "article", Label: "Article"}, {Value: "news", Label: "news"}}, options)
}
