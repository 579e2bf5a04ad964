package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wansing/schemacms/core"
	"github.com/wansing/schemacms/editors"
	"github.com/wansing/schemacms/seed"
	"github.com/wansing/schemacms/sqldb"
)

type fixture struct {
	sql     *sql.DB
	db      *core.CoreDB
	handler http.Handler
	tokens  map[string]string // username -> token
}

func newFixture(t *testing.T, allowCORS bool) *fixture {

	sqlDB, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	var db = &core.CoreDB{
		ConnectionDB: sqldb.NewConnectionDB(sqlDB),
		ContentDB:    sqldb.NewContentDB(sqlDB),
		ProjectDB:    sqldb.NewProjectDB(sqlDB),
		SchemaDB:     sqldb.NewSchemaDB(sqlDB),
		UserDB:       sqldb.NewUserDB(sqlDB),
		Editors:      editors.DefaultRegistry,
		Log:          zerolog.Nop(),
	}

	builtin, err := seed.Builtin()
	require.NoError(t, err)
	require.NoError(t, seed.Install(db.SchemaDB, builtin))
	require.NoError(t, db.InsertProject(&core.Project{ID: "acme", Environments: []string{"live", "stage"}, Languages: []string{"en", "de"}}))

	var f = &fixture{
		sql:     sqlDB,
		db:      db,
		handler: NewRouter(db, zerolog.Nop(), allowCORS),
		tokens:  make(map[string]string),
	}

	for _, u := range []struct {
		name  string
		admin bool
		scope string
	}{
		{"admin", true, ""},
		{"bob", false, ""},
		{"carol", false, core.ScopeContent},
	} {
		user, err := db.InsertUser(u.name, u.admin)
		require.NoError(t, err)
		if u.scope != "" {
			require.NoError(t, db.AddScope(user, "acme", u.scope))
		}
		token, _, err := db.IssueToken(user)
		require.NoError(t, err)
		f.tokens[u.name] = token
	}

	return f
}

func (f *fixture) do(t *testing.T, method, path, user, body string) *httptest.ResponseRecorder {
	var req = httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.AddCookie(&http.Cookie{Name: TokenCookie, Value: f.tokens[user]})
	}
	var rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthentication(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodGet, "/acme/live/content", "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "no token was provided", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Set-Cookie"), TokenCookie+"=;")

	req := httptest.NewRequest(http.MethodGet, "/acme/live/content", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "unknown"})
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Set-Cookie"))

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/acme/live/content", "bob", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/acme/live/content", "carol", "").Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/acme/live/schemas", "carol", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/acme/live/schemas", "admin", "").Code)
}

func TestProjectContext(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodGet, "/nope/live/content", "admin", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "nope")

	// the context is checked before the token
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/acme/testing/content", "", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/acme/stage/content", "admin", "").Code)
}

func TestStoreFailure(t *testing.T) {

	f := newFixture(t, false)
	_, err := f.sql.Exec("DROP TABLE project")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, f.do(t, http.MethodGet, "/acme/live/content", "admin", "").Code)

	f = newFixture(t, false)
	_, err = f.sql.Exec("DROP TABLE usr_token")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, f.do(t, http.MethodGet, "/user/current", "admin", "").Code)
}

func TestCORS(t *testing.T) {
	rec := newFixture(t, true).do(t, http.MethodGet, "/acme/live/content", "admin", "")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin, X-Requested-With, Content-Type, Accept", rec.Header().Get("Access-Control-Allow-Headers"))

	rec = newFixture(t, false).do(t, http.MethodGet, "/acme/live/content", "admin", "")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestLogin(t *testing.T) {
	f := newFixture(t, false)
	user, err := f.db.GetUserByName("carol")
	require.NoError(t, err)
	require.NoError(t, f.db.SetPassword(user, "secret"))

	rec := f.do(t, http.MethodPost, "/user/login", "", `{"username": "carol", "password": "wrong"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/user/login", "", `{"username": "carol", "password": "secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var token string
	for _, c := range rec.Result().Cookies() {
		if c.Name == TokenCookie && c.Value != "" {
			token = c.Value
		}
	}
	require.NotEmpty(t, token)

	req := httptest.NewRequest(http.MethodGet, "/user/current", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"carol"`)
}

func TestContentLifecycle(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodPost, "/acme/live/content/example", "admin", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var example core.Content
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &example))
	assert.Equal(t, core.ExampleSchemaID, example.SchemaID)

	// only once per environment
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/acme/live/content/example", "admin", "").Code)

	rec = f.do(t, http.MethodGet, "/acme/live/content/"+example.ID+"/tabs/content", "carol", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tab tabResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tab))
	require.Len(t, tab.Fields, 3)
	assert.Equal(t, "title", tab.Fields[0].Key)
	assert.Equal(t, "StringEditor", tab.Fields[0].EditorID)
	assert.Equal(t, "url", tab.Fields[1].Key)
	assert.Equal(t, "UrlEditor", tab.Fields[1].EditorID)
	assert.Equal(t, "text", tab.Fields[2].Key)
	assert.Equal(t, "RichTextEditor", tab.Fields[2].EditorID)

	rec = f.do(t, http.MethodGet, "/acme/live/content/"+example.ID+"/tabs/meta", "carol", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tab))
	require.Len(t, tab.Fields, 1)
	assert.Equal(t, "description", tab.Fields[0].Key)

	// save with a mismatching id
	rec = f.do(t, http.MethodPost, "/acme/live/content/"+example.ID, "carol", `{"id": "other", "schemaId": "richTextPage"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/acme/live/content/"+example.ID+"?saveAction=bogus", "carol", `{"schemaId": "richTextPage"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// unpublish without a connection is a plain save
	rec = f.do(t, http.MethodPost, "/acme/live/content/"+example.ID+"?saveAction=unpublish", "carol", `{"schemaId": "richTextPage", "properties": {"title": "Changed"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	saved, err := f.db.Contents(&core.Session{Project: &core.Project{ID: "acme"}, Environment: "live"}).GetContent(example.ID)
	require.NoError(t, err)
	assert.Equal(t, "Changed", saved.Properties["title"])
	assert.Equal(t, "carol", saved.UpdatedBy)
	assert.Equal(t, example.CreateDate.Unix(), saved.CreateDate.Unix())

	rec = f.do(t, http.MethodGet, "/acme/live/content", "carol", "")
	var all []*core.Content
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 1)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/acme/stage/content/"+example.ID, "carol", "").Code)
}

func TestCreateContent(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodPost, "/acme/live/content/new", "admin", `{"schemaId": "string"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/acme/live/content/new", "admin", `{"schemaId": "missing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/acme/live/content/new", "admin", `{"schemaId": "richTextPage"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var c core.Content
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Len(t, c.ID, 32)
	assert.Equal(t, "admin", c.CreatedBy)
}

func TestSchemas(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodGet, "/acme/live/schemas/richTextPage?resolved=true", "admin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var merged core.MergedSchema
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &merged))
	assert.Equal(t, []string{"richTextPage", "page", "contentBase"}, merged.Chain)

	rec = f.do(t, http.MethodGet, "/acme/live/schemas/richTextPage", "admin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"chain"`)

	// built-in schemas are locked
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPost, "/acme/live/schemas/page", "admin", `{"type": "content"}`).Code)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/acme/live/schemas/a", "admin", `{"type": "content", "parentSchemaId": "page"}`).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/acme/live/schemas/b", "admin", `{"type": "content", "parentSchemaId": "a"}`).Code)

	rec = f.do(t, http.MethodPost, "/acme/live/schemas/a", "admin", `{"type": "content", "parentSchemaId": "b"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cyclic")

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/acme/live/schemas/missing", "admin", "").Code)
}

func TestConnectionsAndMetrics(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodPost, "/acme/live/connections/web", "admin", `{"title": "My website", "url": "http://example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/acme/live/connections", "admin", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"web"`)

	rec = f.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "schemacms_api_requests_total")
}
