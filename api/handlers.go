package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/wansing/schemacms/core"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// login accepts a JSON body or a form and sets the token cookie.
func (a *API) login(w http.ResponseWriter, r *request) error {

	var creds loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := readJSON(r, &creds); err != nil {
			return err
		}
	} else {
		creds.Username = r.PostFormValue("username")
		creds.Password = r.PostFormValue("password")
	}

	user, token, expires, err := a.db.Login(creds.Username, creds.Password)
	if err != nil {
		a.logger.Info().Str("username", creds.Username).Msg("login failed")
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return writeJSON(w, user)
}

func (a *API) currentUser(w http.ResponseWriter, r *request) error {
	return writeJSON(w, r.Session.User)
}

func (a *API) allContent(w http.ResponseWriter, r *request) error {
	all, err := a.db.Contents(r.Session).AllContent()
	if err != nil {
		return err
	}
	return writeJSON(w, all)
}

func (a *API) getContent(w http.ResponseWriter, r *request) error {
	c, err := a.db.Contents(r.Session).GetContent(r.Params.ByName("id"))
	if err != nil {
		return err
	}
	return writeJSON(w, c)
}

type newContentRequest struct {
	SchemaID string `json:"schemaId"`
	ParentID string `json:"parentId"`
}

// postContent saves content. The ids "new", "example", "publish", "unpublish" and "preview" are actions.
func (a *API) postContent(w http.ResponseWriter, r *request) error {

	var id = r.Params.ByName("id")

	switch id {
	case "new":
		var req newContentRequest
		if err := readJSON(r, &req); err != nil {
			return err
		}
		c, err := a.db.CreateContent(r.Session, req.SchemaID, req.ParentID)
		if err != nil {
			return err
		}
		return writeJSON(w, c)

	case "example":
		c, err := a.db.InsertExampleContent(r.Session)
		if err != nil {
			return err
		}
		return writeJSON(w, c)

	case string(core.Publish), string(core.Unpublish), string(core.Preview):
		var c = &core.Content{}
		if err := readJSON(r, c); err != nil {
			return err
		}
		if c.ID == "" {
			return &core.ValidationError{Field: "id", Reason: "is empty"}
		}
		return a.save(w, r, c, core.SaveAction(id))

	default:
		var c = &core.Content{}
		if err := readJSON(r, c); err != nil {
			return err
		}
		// the id is pinned to the url
		if c.ID != "" && c.ID != id {
			return &core.ValidationError{Field: "id", Reason: fmt.Sprintf(`"%s" does not match the url`, c.ID)}
		}
		c.ID = id
		action, err := core.ParseSaveAction(r.URL.Query().Get("saveAction"))
		if err != nil {
			return err
		}
		return a.save(w, r, c, action)
	}
}

func (a *API) save(w http.ResponseWriter, r *request, c *core.Content, action core.SaveAction) error {

	stored, err := a.db.Contents(r.Session).GetContent(c.ID)
	switch {
	case err == nil:
		if stored.IsLocked {
			return &core.ValidationError{Reason: fmt.Sprintf("content %s is locked", c.ID)}
		}
		c.CreatedBy = stored.CreatedBy
		c.CreateDate = stored.CreateDate
	case errors.Is(err, core.ErrNotFound):
		// new record
	default:
		return err
	}

	previewURL, err := a.db.SaveContent(r.Context(), r.Session, c, action)
	if err != nil {
		return err
	}
	a.db.Reload()

	if action.Effective(c) == core.Preview {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, err = w.Write([]byte(previewURL))
		return err
	}
	return writeJSON(w, c)
}

type tabField struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	SchemaID string `json:"schemaId"`
	EditorID string `json:"editorId"`
}

type tabResponse struct {
	Tab     string     `json:"tab"`
	Fields  []tabField `json:"fields"`
	Notices []string   `json:"notices,omitempty"`
}

// tabFields lists the fields which the editor renders on a tab, with their resolved editors.
func (a *API) tabFields(w http.ResponseWriter, r *request) error {

	var editor = a.db.NewContentEditor(r.Session, r.Params.ByName("id"))
	if err := editor.Load(r.Params.ByName("tab")); err != nil {
		return err
	}

	var resp = tabResponse{
		Tab:    editor.Tab(),
		Fields: []tabField{},
	}
	for _, field := range editor.Fields() {
		resp.Fields = append(resp.Fields, tabField{
			Key:      field.Key,
			Label:    field.Label,
			SchemaID: field.Definition.SchemaID,
			EditorID: field.Kind.Code,
		})
	}
	for _, notice := range editor.Notices() {
		resp.Notices = append(resp.Notices, notice.Error())
	}
	return writeJSON(w, resp)
}

func (a *API) allSchemas(w http.ResponseWriter, r *request) error {
	all, err := a.db.Schemas(r.Session).AllSchemas()
	if err != nil {
		return err
	}
	return writeJSON(w, all)
}

// getSchema returns the stored schema, or the merged schema if the query has "resolved=true".
func (a *API) getSchema(w http.ResponseWriter, r *request) error {
	var id = r.Params.ByName("id")
	if r.URL.Query().Get("resolved") == "true" {
		merged, err := a.db.Resolver(r.Session).Resolve(id)
		if err != nil {
			return err
		}
		return writeJSON(w, merged)
	}
	schema, err := a.db.Schemas(r.Session).GetSchema(id)
	if err != nil {
		return err
	}
	return writeJSON(w, schema)
}

func (a *API) postSchema(w http.ResponseWriter, r *request) error {
	var schema = &core.Schema{}
	if err := readJSON(r, schema); err != nil {
		return err
	}
	var id = r.Params.ByName("id")
	if schema.ID != "" && schema.ID != id {
		return &core.ValidationError{Field: "id", Reason: fmt.Sprintf(`"%s" does not match the url`, schema.ID)}
	}
	schema.ID = id
	if err := a.db.SetSchema(r.Session, schema); err != nil {
		return err
	}
	return writeJSON(w, schema)
}

func (a *API) allConnections(w http.ResponseWriter, r *request) error {
	all, err := a.db.GetAllConnections(r.Session.ProjectID(), r.Session.Environment)
	if err != nil {
		return err
	}
	return writeJSON(w, all)
}

func (a *API) postConnection(w http.ResponseWriter, r *request) error {
	var conn = &core.Connection{}
	if err := readJSON(r, conn); err != nil {
		return err
	}
	conn.ID = r.Params.ByName("id")
	if err := a.db.SetConnection(r.Session.ProjectID(), r.Session.Environment, conn); err != nil {
		return err
	}
	return writeJSON(w, conn)
}
