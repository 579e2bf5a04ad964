package seed

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/wansing/schemacms/core"
	"github.com/wansing/schemacms/metrics"
)

// A Dir keeps the global project in sync with the schema files of a directory.
type Dir struct {
	Path     string
	DB       core.SchemaDB
	Reloader core.Reloader // may be nil
	Logger   zerolog.Logger

	mu     sync.Mutex
	loaded map[string]struct{} // ids installed from Path
}

// Sync installs the schemas of the directory and deletes those whose files have been removed.
// If a removed file has shadowed a built-in schema, the built-in schema is installed again.
func (d *Dir) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	schemas, err := LoadDir(d.Path)
	if err != nil {
		return err
	}

	if err := Install(d.DB, schemas); err != nil {
		return err
	}

	var current = make(map[string]struct{}, len(schemas))
	for _, schema := range schemas {
		current[schema.ID] = struct{}{}
	}
	builtins, err := Builtin()
	if err != nil {
		return err
	}
	for id := range d.loaded {
		if _, ok := current[id]; ok {
			continue
		}
		if err := d.restore(id, builtins); err != nil {
			return err
		}
	}
	d.loaded = current

	if d.Reloader != nil {
		d.Reloader.Reload()
	}
	metrics.SchemaReloads.Inc()
	d.Logger.Info().Str("dir", d.Path).Int("schemas", len(schemas)).Msg("schemas loaded")
	return nil
}

func (d *Dir) restore(id string, builtins []*core.Schema) error {
	for _, schema := range builtins {
		if schema.ID == id {
			return d.DB.SetSchema(core.GlobalProject, schema)
		}
	}
	if err := d.DB.DeleteSchema(core.GlobalProject, id); err != nil {
		return fmt.Errorf("deleting schema %s: %w", id, err)
	}
	return nil
}

// Watch calls Sync whenever a schema file in the directory changes, until ctx is done.
func (d *Dir) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(d.Path); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	d.Logger.Info().Str("dir", d.Path).Msg("watching schema directory for changes")

	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isSchemaFile(filepath.Base(event.Name)) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				d.Logger.Debug().Str("event", event.Op.String()).Str("file", event.Name).Msg("schema file changed")
				if err := d.Sync(); err != nil {
					d.Logger.Error().Err(err).Msg("schema reload failed")
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				d.Logger.Error().Err(err).Msg("schema watcher error")
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}
