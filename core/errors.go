package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrContext        = errors.New("invalid context")
	ErrCyclicSchema   = errors.New("cyclic schema inheritance")
	ErrNotFound       = errors.New("not found")
	ErrSaveInProgress = errors.New("save in progress")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrValidation     = errors.New("validation failed")
)

// A NotFoundError is returned when a content, schema, editor, connection, project or user is missing.
type NotFoundError struct {
	Kind string // "content", "schema", ...
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf(`%s by id "%s" not found`, e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func notFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// NewNotFoundError is used by storage implementations.
func NewNotFoundError(kind, id string) error {
	return notFound(kind, id)
}

type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return e.Reason
}

func (e *AuthorizationError) Unwrap() error {
	return ErrUnauthorized
}

type ContextError struct {
	Reason string
}

func (e *ContextError) Error() string {
	return e.Reason
}

func (e *ContextError) Unwrap() error {
	return ErrContext
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// A CyclicSchemaError carries the schema ids in the order they were visited, the revisited id last.
type CyclicSchemaError struct {
	Chain []string
}

func (e *CyclicSchemaError) Error() string {
	return "cyclic schema inheritance: " + strings.Join(e.Chain, " -> ")
}

func (e *CyclicSchemaError) Unwrap() error {
	return ErrCyclicSchema
}

// HTTPStatus maps an error to the status code which the API responds with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrContext), errors.Is(err, ErrValidation), errors.Is(err, ErrCyclicSchema):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSaveInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
