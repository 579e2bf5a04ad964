package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wansing/schemacms/metrics"
)

type CoreDB struct {
	ConnectionDB
	ContentDB
	ProjectDB
	SchemaDB
	UserDB
	Editors   EditorRegistry
	Deployer  Deployer
	Reloaders []Reloader // resource caches, reloaded after every save
	Log       zerolog.Logger

	TokenLifetime time.Duration
	Now           func() time.Time // for tests, defaults to time.Now
}

func (c *CoreDB) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Schemas returns the schema store of the session's project.
func (c *CoreDB) Schemas(sess *Session) SchemaScope {
	return SchemaScope{DB: c.SchemaDB, Project: sess.ProjectID()}
}

// Contents returns the content store of the session's project and environment.
func (c *CoreDB) Contents(sess *Session) ContentScope {
	return ContentScope{DB: c.ContentDB, Project: sess.ProjectID(), Environment: sess.Environment}
}

func (c *CoreDB) Resolver(sess *Session) *Resolver {
	return NewResolver(c.Schemas(sess))
}

func (c *CoreDB) Dispatcher(sess *Session) *Dispatcher {
	var resolver = c.Resolver(sess)
	return &Dispatcher{
		Resolver: resolver,
		Editors:  c.Editors,
		Parent: &ParentConfig{
			Contents: c.Contents(sess),
			Resolver: resolver,
		},
		Log: c.Log,
	}
}

type sessionResources struct {
	contents ContentScope
	schemas  SchemaScope
	project  *Project
}

func (r sessionResources) AllContent() ([]*Content, error) {
	return r.contents.AllContent()
}

func (r sessionResources) AllSchemas() ([]*Schema, error) {
	return r.schemas.AllSchemas()
}

func (r sessionResources) Languages() []string {
	if r.project == nil || len(r.project.Languages) == 0 {
		return []string{DefaultLanguage}
	}
	return r.project.Languages
}

// ResolveSchema merges the schema with its ancestors, so inherited properties like the type are visible.
func (r sessionResources) ResolveSchema(id string) (*MergedSchema, error) {
	return NewResolver(r.schemas).Resolve(id)
}

func (c *CoreDB) Resources(sess *Session) Resources {
	return sessionResources{
		contents: c.Contents(sess),
		schemas:  c.Schemas(sess),
		project:  sess.Project,
	}
}

// NewSession checks project and environment and returns a Session for them.
// If env is empty, the default environment of the project is used.
func (c *CoreDB) NewSession(user *User, projectID, env, acceptLanguage string) (*Session, error) {
	project, err := c.GetProject(projectID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &ContextError{Reason: fmt.Sprintf(`project "%s" not found`, projectID)}
		}
		return nil, err
	}
	if env == "" {
		env = project.DefaultEnvironment()
	}
	if !project.HasEnvironment(env) {
		return nil, &ContextError{Reason: fmt.Sprintf(`environment "%s" not found in project "%s"`, env, projectID)}
	}
	return &Session{
		User:        user,
		Project:     project,
		Environment: env,
		Language:    project.MatchLanguage(acceptLanguage),
	}, nil
}

// Authenticate returns the user who owns the token.
// If scope is not empty and the user is no admin, the user must have the scope in the given project.
func (c *CoreDB) Authenticate(token, scope, projectID string) (*User, error) {
	if token == "" {
		return nil, &AuthorizationError{Reason: "no token was provided"}
	}
	user, err := c.FindToken(token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &AuthorizationError{Reason: "found no user with this token"}
		}
		return nil, err
	}
	if scope != "" && !user.IsAdmin && !user.HasScope(projectID, scope) {
		return nil, &AuthorizationError{Reason: fmt.Sprintf(`user "%s" doesn't have scope "%s"`, user.Username, scope)}
	}
	return user, nil
}

// IssueToken creates a new API token for the user.
func (c *CoreDB) IssueToken(u *User) (string, time.Time, error) {
	var lifetime = c.TokenLifetime
	if lifetime <= 0 {
		lifetime = 30 * 24 * time.Hour
	}
	var token = uuid.NewString()
	var expires = c.now().Add(lifetime)
	if err := c.InsertToken(u, token, expires); err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

// Login checks the credentials and issues a token.
func (c *CoreDB) Login(username, password string) (*User, string, time.Time, error) {
	user, err := c.LoginUser(username, password)
	if err != nil {
		return nil, "", time.Time{}, &AuthorizationError{Reason: "wrong username or password"}
	}
	token, expires, err := c.IssueToken(user)
	return user, token, expires, err
}

// Reload drops all cached resources.
func (c *CoreDB) Reload() {
	for _, r := range c.Reloaders {
		r.Reload()
	}
}

// SetSchema shadows SchemaDB.SetSchema. It refuses schemas which could not be resolved once stored.
func (c *CoreDB) SetSchema(sess *Session, schema *Schema) error {
	if existing, err := c.SchemaDB.GetSchema(GlobalProject, schema.ID); err == nil && existing.IsLocked() {
		return &AuthorizationError{Reason: fmt.Sprintf(`schema "%s" is locked`, schema.ID)}
	}
	if err := CheckSchema(c.Schemas(sess), schema); err != nil {
		return err
	}
	if err := c.SchemaDB.SetSchema(sess.ProjectID(), schema); err != nil {
		return err
	}
	c.Reload()
	return nil
}

// SaveContent stores content and performs the effective save action.
// For Preview, it returns the preview url.
func (c *CoreDB) SaveContent(ctx context.Context, sess *Session, content *Content, action SaveAction) (string, error) {
	action = action.Effective(content)
	previewURL, err := c.saveContent(ctx, sess, content, action)
	var result = "ok"
	if err != nil {
		result = "error"
		c.Log.Error().Err(err).Str("content", content.ID).Str("action", action.String()).Str("user", sess.Username()).Msg("save failed")
	} else {
		c.Log.Info().Str("content", content.ID).Str("action", action.String()).Str("user", sess.Username()).Msg("saved")
	}
	metrics.Saves.WithLabelValues(action.String(), result).Inc()
	return previewURL, err
}

func (c *CoreDB) saveContent(ctx context.Context, sess *Session, content *Content, action SaveAction) (string, error) {

	content.Normalize()
	content.UpdatedBy = sess.Username()
	content.UpdateDate = c.now()

	var contents = c.Contents(sess)

	if action == SaveOnly {
		return "", contents.SetContent(content)
	}

	conn, err := c.GetConnection(sess.ProjectID(), sess.Environment, content.Settings.Publishing.ConnectionID)
	if err != nil {
		return "", err
	}
	if c.Deployer == nil {
		return "", errors.New("no deployer configured")
	}

	if err := contents.SetContent(content); err != nil {
		return "", err
	}

	switch action {
	case Publish:
		if err := c.Deployer.Publish(ctx, conn, content); err != nil {
			return "", fmt.Errorf("publishing %s to %s: %w", content.ID, conn.ID, err)
		}
		content.IsPublished = true
	case Unpublish:
		if err := c.Deployer.Unpublish(ctx, conn, content); err != nil {
			return "", fmt.Errorf("unpublishing %s from %s: %w", content.ID, conn.ID, err)
		}
		content.IsPublished = false
	case Preview:
		return c.Deployer.Preview(ctx, conn, content)
	}

	return "", contents.SetContent(content)
}

// CreateContent creates content of a content schema below an optional parent.
// The parent's schema must allow the schema as a child.
func (c *CoreDB) CreateContent(sess *Session, schemaID, parentID string) (*Content, error) {

	var resolver = c.Resolver(sess)

	schema, err := resolver.Resolve(schemaID)
	if err != nil {
		return nil, err
	}
	if schema.Type != ContentSchema {
		return nil, &ValidationError{Field: "schemaId", Reason: fmt.Sprintf(`"%s" is not a content schema`, schemaID)}
	}

	if parentID != "" {
		parent, err := c.Contents(sess).GetContent(parentID)
		if err != nil {
			return nil, err
		}
		parentSchema, err := resolver.Resolve(parent.SchemaID)
		if err != nil {
			return nil, err
		}
		if parentSchema.AllowedChildSchemas != nil && !contains(parentSchema.AllowedChildSchemas, schemaID) {
			return nil, &ValidationError{Field: "schemaId", Reason: fmt.Sprintf(`schema "%s" is not allowed below "%s"`, schemaID, parent.SchemaID)}
		}
	}

	var now = c.now()
	var content = &Content{
		ID:         strings.ReplaceAll(uuid.NewString(), "-", ""),
		SchemaID:   schemaID,
		ParentID:   parentID,
		CreatedBy:  sess.Username(),
		UpdatedBy:  sess.Username(),
		CreateDate: now,
		UpdateDate: now,
	}
	content.Normalize()

	if err := c.Contents(sess).SetContent(content); err != nil {
		return nil, err
	}
	c.Reload()
	return content, nil
}

// ExampleSchemaID is the content schema of the example content.
const ExampleSchemaID = "richTextPage"

// InsertExampleContent creates a rich text page if the environment has no content yet.
func (c *CoreDB) InsertExampleContent(sess *Session) (*Content, error) {
	all, err := c.Contents(sess).AllContent()
	if err != nil {
		return nil, err
	}
	if len(all) > 0 {
		return nil, &ValidationError{Reason: "environment already has content"}
	}
	content, err := c.CreateContent(sess, ExampleSchemaID, "")
	if err != nil {
		return nil, err
	}
	content.Properties["title"] = "My Home Page"
	content.Properties["url"] = "/my-home-page/"
	content.Properties["text"] = "<h2>This is a rich text page</h2><p>A simple page for inserting formatted text and media</p>"
	if err := c.Contents(sess).SetContent(content); err != nil {
		return nil, err
	}
	c.Reload()
	return content, nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
