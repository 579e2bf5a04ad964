package sqldb

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wansing/schemacms/core"
)

func openMemory(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1) // every connection would get its own in-memory database
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaDB(t *testing.T) {
	db := NewSchemaDB(openMemory(t))

	_, err := db.GetSchema("", "page")
	assert.True(t, errors.Is(err, core.ErrNotFound))

	require.NoError(t, db.SetSchema("", &core.Schema{ID: "page", Type: core.ContentSchema, Name: "Page"}))
	require.NoError(t, db.SetSchema("", &core.Schema{ID: "contentBase", Type: core.ContentSchema}))
	require.NoError(t, db.SetSchema("acme", &core.Schema{ID: "page", Type: core.ContentSchema, Name: "Acme page"}))

	global, err := db.GetSchema("", "page")
	require.NoError(t, err)
	assert.Equal(t, "Page", global.Name)

	all, err := db.GetAllSchemas("")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "contentBase", all[0].ID)

	require.NoError(t, db.SetSchema("", &core.Schema{ID: "page", Type: core.ContentSchema, Name: "Renamed"}))
	global, err = db.GetSchema("", "page")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", global.Name)

	require.NoError(t, db.DeleteSchema("acme", "page"))
	_, err = db.GetSchema("acme", "page")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestContentDB(t *testing.T) {
	db := NewContentDB(openMemory(t))

	var c = &core.Content{
		ID:         "home",
		SchemaID:   "richTextPage",
		Properties: map[string]interface{}{"title": map[string]interface{}{core.MultilingualFlag: true, "en": "Home"}},
	}
	require.NoError(t, db.SetContent("acme", "live", c))

	got, err := db.GetContent("acme", "live", "home")
	require.NoError(t, err)
	assert.Equal(t, "Home", got.Title("en"))
	assert.NotNil(t, got.Meta)

	_, err = db.GetContent("acme", "stage", "home")
	assert.True(t, errors.Is(err, core.ErrNotFound))

	all, err := db.GetAllContent("acme", "live")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, db.DeleteContent("acme", "live", "home"))
	all, err = db.GetAllContent("acme", "live")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestConnectionAndProjectDB(t *testing.T) {
	sqlDB := openMemory(t)
	connections := NewConnectionDB(sqlDB)
	projects := NewProjectDB(sqlDB)

	require.NoError(t, connections.SetConnection("acme", "live", &core.Connection{ID: "web", URL: "http://example.com/hook"}))
	conn, err := connections.GetConnection("acme", "live", "web")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/hook", conn.URL)

	_, err = connections.GetConnection("acme", "live", "missing")
	assert.True(t, errors.Is(err, core.ErrNotFound))

	require.NoError(t, projects.InsertProject(&core.Project{ID: "acme", Environments: []string{"live", "stage"}, Languages: []string{"en", "de"}}))
	assert.Error(t, projects.InsertProject(&core.Project{ID: "acme"}))

	project, err := projects.GetProject("acme")
	require.NoError(t, err)
	assert.Equal(t, []string{"live", "stage"}, project.Environments)

	all, err := projects.GetAllProjects()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUserDB(t *testing.T) {
	var now = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	db := NewUserDB(openMemory(t))
	db.Now = func() time.Time { return now }

	u, err := db.InsertUser(" Alice ", false)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = db.LoginUser("alice", "")
	assert.Equal(t, ErrAuth, err)

	require.NoError(t, db.SetPassword(u, "secret"))
	_, err = db.LoginUser("alice", "wrong")
	assert.Equal(t, ErrAuth, err)
	loggedIn, err := db.LoginUser("ALICE", "secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, loggedIn.ID)

	require.NoError(t, db.AddScope(u, "acme", "content"))
	got, err := db.GetUserByName("alice")
	require.NoError(t, err)
	assert.True(t, got.HasScope("acme", "content"))
	assert.False(t, got.HasScope("other", "content"))

	require.NoError(t, db.InsertToken(u, "tok", now.Add(time.Hour)))
	byToken, err := db.FindToken("tok")
	require.NoError(t, err)
	assert.Equal(t, "alice", byToken.Username)

	now = now.Add(2 * time.Hour)
	_, err = db.FindToken("tok")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}
