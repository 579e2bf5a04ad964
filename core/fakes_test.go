package core

import (
	"context"
	"fmt"
	"html/template"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// memDB keeps schemas, content and connections in maps. Stored records are cloned.
type memDB struct {
	mu       sync.Mutex
	schemas  map[string]*Schema
	contents map[string]*Content
	conns    map[string]*Connection
}

func newMemDB() *memDB {
	return &memDB{
		schemas:  make(map[string]*Schema),
		contents: make(map[string]*Content),
		conns:    make(map[string]*Connection),
	}
}

func memKey(parts ...string) string {
	return strings.Join(parts, "\x00")
}

func (m *memDB) GetSchema(project, id string) (*Schema, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.schemas[memKey(project, id)]; ok {
		return s.Clone(), nil
	}
	return nil, NewNotFoundError("schema", id)
}

func (m *memDB) GetAllSchemas(project string) ([]*Schema, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*Schema
	for key, s := range m.schemas {
		if strings.HasPrefix(key, project+"\x00") {
			all = append(all, s.Clone())
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (m *memDB) SetSchema(project string, s *Schema) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemas[memKey(project, s.ID)] = s.Clone()
	return nil
}

func (m *memDB) DeleteSchema(project, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.schemas, memKey(project, id))
	return nil
}

func (m *memDB) GetContent(project, env, id string) (*Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.contents[memKey(project, env, id)]; ok {
		return c.Clone(), nil
	}
	return nil, NewNotFoundError("content", id)
}

func (m *memDB) GetAllContent(project, env string) ([]*Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*Content
	for key, c := range m.contents {
		if strings.HasPrefix(key, memKey(project, env)+"\x00") {
			all = append(all, c.Clone())
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (m *memDB) SetContent(project, env string, c *Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contents[memKey(project, env, c.ID)] = c.Clone()
	return nil
}

func (m *memDB) DeleteContent(project, env, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.contents, memKey(project, env, id))
	return nil
}

func (m *memDB) GetConnection(project, env, id string) (*Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.conns[memKey(project, env, id)]; ok {
		var conn = *c
		return &conn, nil
	}
	return nil, NewNotFoundError("connection", id)
}

func (m *memDB) GetAllConnections(project, env string) ([]*Connection, error) {
	return nil, nil
}

func (m *memDB) SetConnection(project, env string, c *Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var conn = *c
	m.conns[memKey(project, env, c.ID)] = &conn
	return nil
}

// textEditor edits a string. Changes which only differ in surrounding whitespace are not dirty.
type textEditor struct {
	EditorParams
	handlers []func(Change)
}

func (e *textEditor) Render() (template.HTML, error) {
	return template.HTML(fmt.Sprintf(`<input name="%s" value="%v">`, e.Name, e.Value)), nil
}

func (e *textEditor) OnChange(handler func(Change)) {
	e.handlers = append(e.handlers, handler)
}

func (e *textEditor) Submit(form url.Values) error {
	values, ok := form[e.Name]
	if !ok || e.Disabled {
		return nil
	}
	var posted = values[0]
	current, _ := e.Value.(string)
	if posted == current {
		return nil
	}
	var dirty = strings.TrimSpace(posted) != strings.TrimSpace(current)
	e.Value = posted
	for _, handler := range e.handlers {
		handler(Change{Value: posted, Dirty: dirty})
	}
	return nil
}

type testRegistry map[string]*EditorKind

func (r testRegistry) All() []string {
	var codes []string
	for code := range r {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func (r testRegistry) Get(editorID string) (*EditorKind, bool) {
	kind, ok := r[editorID]
	return kind, ok
}

var testEditors = testRegistry{
	"TextEditor": &EditorKind{
		Code: "TextEditor",
		Name: "Text",
		Create: func(p EditorParams) Editor {
			return &textEditor{EditorParams: p}
		},
	},
}

type countingReloader struct {
	n int
}

func (r *countingReloader) Reload() {
	r.n++
}

type recordingDeployer struct {
	mu      sync.Mutex
	actions []string
	started chan struct{} // closed when Publish is entered, may be nil
	release chan struct{} // Publish waits for it, may be nil
}

func (d *recordingDeployer) record(action string) {
	d.mu.Lock()
	d.actions = append(d.actions, action)
	d.mu.Unlock()
}

func (d *recordingDeployer) Publish(ctx context.Context, conn *Connection, c *Content) error {
	if d.started != nil {
		close(d.started)
	}
	if d.release != nil {
		<-d.release
	}
	d.record("publish " + c.ID + " to " + conn.ID)
	return nil
}

func (d *recordingDeployer) Unpublish(ctx context.Context, conn *Connection, c *Content) error {
	d.record("unpublish " + c.ID)
	return nil
}

func (d *recordingDeployer) Preview(ctx context.Context, conn *Connection, c *Content) (string, error) {
	d.record("preview " + c.ID)
	return conn.URL + "/preview/" + c.ID, nil
}

func boolPtr(b bool) *bool {
	return &b
}

// testSchemas are a content type with a parent, and a few field kinds.
func testSchemas() []*Schema {
	return []*Schema{
		{ID: "fieldBase", Type: FieldSchema},
		{ID: "text", ParentSchemaID: "fieldBase", EditorID: "TextEditor"},
		{ID: "ref", ParentSchemaID: "fieldBase", EditorID: "TextEditor", Config: map[string]interface{}{"allowedSchemas": FromParent}},
		{ID: "orphanField", ParentSchemaID: "fieldBase", EditorID: "NoSuchEditor"},
		{
			ID:           "base",
			Type:         ContentSchema,
			Name:         "Base",
			DefaultTabID: "main",
			Tabs:         map[string]string{"main": "Main"},
			Fields: Fields{
				Properties: map[string]*FieldDefinition{
					"title": {Label: "Title", TabID: "main", SchemaID: "text", Multilingual: true, Sort: 1},
				},
				Meta: map[string]*FieldDefinition{
					"description": {Label: "Description", SchemaID: "text"},
				},
			},
		},
		{
			ID:                  "article",
			ParentSchemaID:      "base",
			Name:                "Article",
			Tabs:                map[string]string{"extra": "Extra"},
			AllowedChildSchemas: []string{"article"},
			Fields: Fields{
				Properties: map[string]*FieldDefinition{
					"body":     {Label: "Body", TabID: "main", SchemaID: "text", Sort: 2},
					"related":  {TabID: "main", SchemaID: "ref", Sort: 3},
					"broken":   {TabID: "main", SchemaID: "missing", Sort: 4},
					"noeditor": {TabID: "main", SchemaID: "orphanField", Sort: 5},
					"note":     {TabID: "extra", SchemaID: "text"},
				},
			},
		},
	}
}

type testEnv struct {
	mem      *memDB
	db       *CoreDB
	sess     *Session
	reloader *countingReloader
	deployer *recordingDeployer
}

func newTestEnv() *testEnv {

	var mem = newMemDB()
	for _, s := range testSchemas() {
		mem.SetSchema(GlobalProject, s)
	}

	var env = &testEnv{
		mem:      mem,
		reloader: &countingReloader{},
		deployer: &recordingDeployer{},
		sess: &Session{
			User:        &User{ID: 1, Username: "ann"},
			Project:     &Project{ID: "p", Environments: []string{"live"}, Languages: []string{"en", "de"}},
			Environment: "live",
			Language:    "en",
		},
	}
	env.db = &CoreDB{
		ConnectionDB: mem,
		ContentDB:    mem,
		SchemaDB:     mem,
		Editors:      testEditors,
		Deployer:     env.deployer,
		Reloaders:    []Reloader{env.reloader},
		Log:          zerolog.Nop(),
	}
	return env
}
