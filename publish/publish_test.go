package publish

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wansing/schemacms/core"
)

func TestHTTPDeployer(t *testing.T) {
	var paths []string
	var received core.Content
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		if r.URL.Path == "/hook/preview" {
			w.Write([]byte(`{"url": "http://preview.example.com/abc"}`))
		}
	}))
	defer srv.Close()

	d := NewHTTPDeployer(zerolog.Nop(), 0)
	conn := &core.Connection{ID: "web", URL: srv.URL + "/hook/"}
	c := &core.Content{ID: "home", SchemaID: "page"}

	require.NoError(t, d.Publish(context.Background(), conn, c))
	require.NoError(t, d.Unpublish(context.Background(), conn, c))
	url, err := d.Preview(context.Background(), conn, c)
	require.NoError(t, err)

	assert.Equal(t, "http://preview.example.com/abc", url)
	assert.Equal(t, []string{"/hook/publish", "/hook/unpublish", "/hook/preview"}, paths)
	assert.Equal(t, "home", received.ID)
}

func TestHTTPDeployerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewHTTPDeployer(zerolog.Nop(), 0)
	c := &core.Content{ID: "home"}

	assert.Error(t, d.Publish(context.Background(), &core.Connection{ID: "web", URL: srv.URL}, c))

	err := d.Publish(context.Background(), &core.Connection{ID: "empty"}, c)
	assert.True(t, errors.Is(err, core.ErrValidation))
}

func TestPreviewFallsBackToContentURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	d := NewHTTPDeployer(zerolog.Nop(), 0)
	c := &core.Content{ID: "home", Properties: map[string]interface{}{"url": "/home/"}}
	url, err := d.Preview(context.Background(), &core.Connection{ID: "web", URL: srv.URL}, c)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/home/", url)
}
