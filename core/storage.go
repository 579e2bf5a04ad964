package core

import (
	"errors"
	"sort"
	"time"
)

// GlobalProject is the project id of the schemas which are visible in every project.
const GlobalProject = ""

// Storage interfaces. Get methods return a *NotFoundError if the record does not exist.

type SchemaDB interface {
	GetSchema(project, id string) (*Schema, error)
	GetAllSchemas(project string) ([]*Schema, error) // without the global schemas
	SetSchema(project string, s *Schema) error
	DeleteSchema(project, id string) error
}

type ContentDB interface {
	GetContent(project, env, id string) (*Content, error)
	GetAllContent(project, env string) ([]*Content, error)
	SetContent(project, env string, c *Content) error
	DeleteContent(project, env, id string) error
}

type ConnectionDB interface {
	GetConnection(project, env, id string) (*Connection, error)
	GetAllConnections(project, env string) ([]*Connection, error)
	SetConnection(project, env string, c *Connection) error
}

type ProjectDB interface {
	GetProject(id string) (*Project, error)
	GetAllProjects() ([]*Project, error)
	InsertProject(p *Project) error
}

type UserDB interface {
	AddScope(u *User, project, scope string) error
	FindToken(token string) (*User, error)
	GetUser(id int) (*User, error)
	GetUserByName(name string) (*User, error)
	InsertToken(u *User, token string, expires time.Time) error
	InsertUser(name string, isAdmin bool) (*User, error)
	LoginUser(name, password string) (*User, error)
	SetPassword(u *User, password string) error
}

// A Reloader drops cached resources, so they are read again from the database.
type Reloader interface {
	Reload()
}

// SchemaScope is the SchemaStore of one project. Project schemas shadow global schemas.
type SchemaScope struct {
	DB      SchemaDB
	Project string
}

func (s SchemaScope) GetSchema(id string) (*Schema, error) {
	schema, err := s.DB.GetSchema(s.Project, id)
	if errors.Is(err, ErrNotFound) && s.Project != GlobalProject {
		return s.DB.GetSchema(GlobalProject, id)
	}
	return schema, err
}

// AllSchemas returns global and project schemas, sorted by id.
func (s SchemaScope) AllSchemas() ([]*Schema, error) {
	var byID = make(map[string]*Schema)
	var projects = []string{GlobalProject}
	if s.Project != GlobalProject {
		projects = append(projects, s.Project)
	}
	for _, project := range projects {
		schemas, err := s.DB.GetAllSchemas(project)
		if err != nil {
			return nil, err
		}
		for _, schema := range schemas {
			byID[schema.ID] = schema
		}
	}
	var all = make([]*Schema, 0, len(byID))
	for _, schema := range byID {
		all = append(all, schema)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].ID < all[j].ID
	})
	return all, nil
}

// ContentScope binds a ContentDB to one project and environment.
type ContentScope struct {
	DB          ContentDB
	Project     string
	Environment string
}

func (s ContentScope) GetContent(id string) (*Content, error) {
	return s.DB.GetContent(s.Project, s.Environment, id)
}

func (s ContentScope) AllContent() ([]*Content, error) {
	return s.DB.GetAllContent(s.Project, s.Environment)
}

func (s ContentScope) SetContent(c *Content) error {
	return s.DB.SetContent(s.Project, s.Environment, c)
}
