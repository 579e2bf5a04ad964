package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
)

type EditorState int

const (
	Loading EditorState = iota
	SchemaResolving
	Rendering
	Idle
	Saving
	Failed // terminal, the raw JSON editor is the fallback
)

func (s EditorState) String() string {
	switch s {
	case Loading:
		return "loading"
	case SchemaResolving:
		return "resolving schema"
	case Rendering:
		return "rendering"
	case Idle:
		return "idle"
	case Saving:
		return "saving"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// A ContentEditor owns the working set of one edit session: the content, its merged schema and the field editors of the active tab.
//
// It is used by one request at a time. The mutex only guards the state, so that a second save is refused while one is outstanding.
type ContentEditor struct {
	db        *CoreDB
	session   *Session
	contentID string

	mu      sync.Mutex
	state   EditorState
	err     error
	content *Content
	schema  *MergedSchema
	tab     string
	fields  []*RenderedField
	notices []error

	changed atomic.Bool // any unsaved change
	dirty   atomic.Bool // an unsaved change of meaning
}

func (c *CoreDB) NewContentEditor(sess *Session, contentID string) *ContentEditor {
	return &ContentEditor{
		db:        c,
		session:   sess,
		contentID: contentID,
		state:     Loading,
	}
}

func (e *ContentEditor) setState(s EditorState) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *ContentEditor) fail(err error) error {
	e.mu.Lock()
	e.state = Failed
	e.err = err
	e.mu.Unlock()
	return err
}

// Load fetches the content, resolves its schema and renders the given tab.
// An empty tab selects the schema's default tab.
func (e *ContentEditor) Load(tab string) error {

	e.setState(Loading)

	content, err := e.db.Contents(e.session).GetContent(e.contentID)
	if err != nil {
		return e.fail(err)
	}
	content = content.Clone()
	content.Normalize()

	e.setState(SchemaResolving)

	schema, err := e.db.Resolver(e.session).Resolve(content.SchemaID)
	if err != nil {
		return e.fail(fmt.Errorf("resolving schema of content %s: %w", content.ID, err))
	}

	e.content = content
	e.schema = schema
	return e.SwitchTab(tab)
}

// SwitchTab renders another tab of the loaded content without fetching it again.
func (e *ContentEditor) SwitchTab(tab string) error {

	if e.content == nil || e.schema == nil {
		return errors.New("no content loaded")
	}

	if tab == "" {
		tab = e.DefaultTab()
	}

	e.setState(Rendering)

	var dispatcher = e.db.Dispatcher(e.session)
	var resources = e.db.Resources(e.session)

	var properties = &FieldTarget{
		Scope:     PropertiesKey,
		Values:    e.content.Properties,
		Language:  e.session.Language,
		Document:  e,
		Content:   e.content,
		Resources: resources,
	}

	var fields []*RenderedField
	var notices []error

	if tab == MetaTab {
		var meta = &FieldTarget{
			Scope:     MetaTab,
			Values:    e.content.Meta,
			Language:  e.session.Language,
			Document:  e,
			Content:   e.content,
			Resources: resources,
		}
		metaFields, metaNotices := dispatcher.RenderFieldsForTab(MetaTab, e.schema.Fields.Meta, meta)
		propFields, propNotices := dispatcher.RenderFieldsForTab(MetaTab, e.schema.Fields.Properties, properties)
		fields = append(metaFields, propFields...)
		notices = append(metaNotices, propNotices...)
	} else if _, ok := e.schema.Tabs[tab]; ok {
		fields, notices = dispatcher.RenderFieldsForTab(tab, e.schema.Fields.Properties, properties)
	}

	e.mu.Lock()
	e.tab = tab
	e.fields = fields
	e.notices = notices
	e.state = Idle
	e.mu.Unlock()
	return nil
}

// Submit passes the posted form to the field editors of the active tab.
func (e *ContentEditor) Submit(form url.Values) error {
	if e.State() != Idle {
		return fmt.Errorf("can't submit in state %s", e.State())
	}
	var errs []error
	for _, field := range e.fields {
		if err := field.Editor.Submit(form); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Save stores the content, reloads the resource caches and renders the active tab again with the stored data.
// For Preview, it returns the preview url.
func (e *ContentEditor) Save(ctx context.Context, action SaveAction) (string, error) {

	e.mu.Lock()
	switch {
	case e.state == Saving:
		e.mu.Unlock()
		return "", ErrSaveInProgress
	case e.state != Idle:
		var state = e.state
		e.mu.Unlock()
		return "", fmt.Errorf("can't save in state %s", state)
	case e.content.IsLocked:
		e.mu.Unlock()
		return "", &ValidationError{Reason: fmt.Sprintf("content %s is locked", e.content.ID)}
	}
	e.state = Saving
	e.mu.Unlock()

	url, err := e.db.SaveContent(ctx, e.session, e.content, action)
	if err != nil {
		e.setState(Idle)
		return "", err
	}

	e.db.Reload()
	e.changed.Store(false)
	e.dirty.Store(false)

	if err := e.Load(e.tab); err != nil {
		return url, err
	}
	return url, nil
}

// Locked implements Document.
func (e *ContentEditor) Locked() bool {
	return e.content != nil && e.content.IsLocked
}

// MarkChanged implements Document.
func (e *ContentEditor) MarkChanged() {
	e.changed.Store(true)
}

// Changed reports whether there is anything to save, including normalizations like trimmed whitespace.
func (e *ContentEditor) Changed() bool {
	return e.changed.Load()
}

// MarkDirty implements Document.
func (e *ContentEditor) MarkDirty() {
	e.dirty.Store(true)
}

func (e *ContentEditor) Dirty() bool {
	return e.dirty.Load()
}

func (e *ContentEditor) State() EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Err returns the error which made the editor fail.
func (e *ContentEditor) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (e *ContentEditor) Content() *Content {
	return e.content
}

func (e *ContentEditor) Schema() *MergedSchema {
	return e.schema
}

func (e *ContentEditor) Session() *Session {
	return e.session
}

func (e *ContentEditor) Tab() string {
	return e.tab
}

// DefaultTab returns the schema's default tab, or the meta tab.
func (e *ContentEditor) DefaultTab() string {
	if e.schema != nil && e.schema.DefaultTabID != "" {
		return e.schema.DefaultTabID
	}
	return MetaTab
}

func (e *ContentEditor) Fields() []*RenderedField {
	return e.fields
}

// Notices returns errors which occurred during rendering and should be shown to the user.
func (e *ContentEditor) Notices() []error {
	return e.notices
}

// Connection returns the publishing connection of the content, or nil.
func (e *ContentEditor) Connection() *Connection {
	if e.content == nil || e.content.Settings.Publishing.ConnectionID == "" {
		return nil
	}
	conn, err := e.db.GetConnection(e.session.ProjectID(), e.session.Environment, e.content.Settings.Publishing.ConnectionID)
	if err != nil {
		return nil
	}
	return conn
}

// SaveOptions returns the save actions offered for the loaded content.
func (e *ContentEditor) SaveOptions() []SaveAction {
	if e.content == nil {
		return nil
	}
	return SaveOptions(e.content, e.Connection())
}

// RemoteURL returns the url of the published content, or an empty string.
func (e *ContentEditor) RemoteURL() string {
	if e.content == nil || !e.content.IsPublished {
		return ""
	}
	var conn = e.Connection()
	if conn == nil || conn.URL == "" {
		return ""
	}
	return conn.URL + e.content.URL(e.session.Language)
}
