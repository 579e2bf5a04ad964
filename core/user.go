package core

import (
	"errors"
	"fmt"
)

var ErrEmptyPassword = errors.New("refusing to set empty password")

// shadows UserDB.SetPassword
func (c *CoreDB) SetPassword(u *User, password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	return c.UserDB.SetPassword(u, password)
}

// AddUser creates a user and sets its password.
func (c *CoreDB) AddUser(name, password string, isAdmin bool) (*User, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	user, err := c.InsertUser(name, isAdmin)
	if err != nil {
		return nil, fmt.Errorf("creating user %s: %w", name, err)
	}
	if err := c.SetPassword(user, password); err != nil {
		return nil, fmt.Errorf("setting password of %s: %w", name, err)
	}
	c.Log.Info().Str("user", user.Username).Bool("admin", isAdmin).Msg("user created")
	return user, nil
}

// GrantScope gives a user a scope in an existing project.
func (c *CoreDB) GrantScope(username, projectID, scope string) error {
	switch scope {
	case ScopeConnections, ScopeContent, ScopeSchemas:
	default:
		return &ValidationError{Field: "scope", Reason: fmt.Sprintf(`unknown scope "%s"`, scope)}
	}
	user, err := c.GetUserByName(username)
	if err != nil {
		return err
	}
	if _, err := c.GetProject(projectID); err != nil {
		return err
	}
	return c.AddScope(user, projectID, scope)
}

// CanEdit reports whether the user may edit content in the project.
func (u *User) CanEdit(projectID string) bool {
	return u != nil && (u.IsAdmin || u.HasScope(projectID, ScopeContent))
}
