package core

import (
	"context"
	"fmt"
	"strings"
)

// A SaveAction is what the user selects next to the save button.
type SaveAction string

const (
	SaveOnly  SaveAction = "" // "(No action)"
	Publish   SaveAction = "publish"
	Unpublish SaveAction = "unpublish"
	Preview   SaveAction = "preview"
)

func ParseSaveAction(s string) (SaveAction, error) {
	switch a := SaveAction(strings.ToLower(strings.TrimSpace(s))); a {
	case SaveOnly, Publish, Unpublish, Preview:
		return a, nil
	case "save":
		return SaveOnly, nil
	default:
		return SaveOnly, &ValidationError{Field: "saveAction", Reason: fmt.Sprintf("unknown save action %q", s)}
	}
}

// Effective returns the action which is performed on c.
// Publishing actions require a publishing connection, without one they fall back to a plain save.
func (a SaveAction) Effective(c *Content) SaveAction {
	if c.Settings.Publishing.ConnectionID == "" {
		return SaveOnly
	}
	return a
}

func (a SaveAction) String() string {
	if a == SaveOnly {
		return "save"
	}
	return string(a)
}

// A Deployer pushes content to the remote side of a publishing connection.
type Deployer interface {
	Publish(ctx context.Context, conn *Connection, c *Content) error
	Unpublish(ctx context.Context, conn *Connection, c *Content) error
	Preview(ctx context.Context, conn *Connection, c *Content) (string, error) // returns the preview url
}

// SaveOptions lists the save actions which the editor offers for c, the default first.
// It returns nil if c has no usable publishing connection.
func SaveOptions(c *Content, conn *Connection) []SaveAction {
	if conn == nil || c.Settings.Publishing.ConnectionID == "" {
		return nil
	}
	var options = []SaveAction{Publish, Preview}
	if c.IsPublished {
		options = append(options, Unpublish)
	}
	return append(options, SaveOnly)
}
