package core

import (
	"strings"

	"golang.org/x/text/language"
)

// DefaultLanguage is used if a project has no languages configured.
const DefaultLanguage = "en"

type Project struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Environments []string `json:"environments"`
	Languages    []string `json:"languages"`
}

func (p *Project) HasEnvironment(env string) bool {
	for _, e := range p.Environments {
		if e == env {
			return true
		}
	}
	return false
}

// DefaultEnvironment returns the first environment, or "live".
func (p *Project) DefaultEnvironment() string {
	if len(p.Environments) > 0 {
		return p.Environments[0]
	}
	return "live"
}

// MatchLanguage returns the project language which fits an Accept-Language header best.
func (p *Project) MatchLanguage(acceptLanguage string) string {
	if len(p.Languages) == 0 {
		return DefaultLanguage
	}
	var tags = make([]language.Tag, 0, len(p.Languages))
	var codes = make([]string, 0, len(p.Languages))
	for _, l := range p.Languages {
		tag, err := language.Parse(l)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		codes = append(codes, l)
	}
	if len(tags) == 0 {
		return DefaultLanguage
	}
	_, index := language.MatchStrings(language.NewMatcher(tags), acceptLanguage)
	if index < 0 || index >= len(tags) {
		index = 0
	}
	return codes[index]
}

type User struct {
	ID       int                 `json:"id"`
	Username string              `json:"username"`
	FullName string              `json:"fullName,omitempty"`
	Email    string              `json:"email,omitempty"`
	IsAdmin  bool                `json:"isAdmin"`
	Scopes   map[string][]string `json:"scopes,omitempty"` // project id -> scopes
}

func (u *User) HasScope(project, scope string) bool {
	if u == nil {
		return false
	}
	for _, s := range u.Scopes[project] {
		if s == scope {
			return true
		}
	}
	return false
}

// A Session is the explicit context of an authenticated call: who is acting, in which project, environment and language.
type Session struct {
	User        *User
	Project     *Project
	Environment string
	Language    string
}

func (s *Session) ProjectID() string {
	if s == nil || s.Project == nil {
		return ""
	}
	return s.Project.ID
}

func (s *Session) Username() string {
	if s == nil || s.User == nil {
		return ""
	}
	return s.User.Username
}

// ParseContextPath extracts project and environment from a path like "/:root/:project/:environment/*".
// It returns ok == false if the path does not match.
func ParseContextPath(path string) (project, environment string, ok bool) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		return "", "", false
	}
	var parts = strings.SplitN(path[1:], "/", 4)
	if len(parts) < 4 {
		return "", "", false
	}
	if parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// Scopes which a non-admin user needs in a project.
const (
	ScopeConnections = "connections"
	ScopeContent     = "content"
	ScopeSchemas     = "schemas"
)
