package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/wansing/schemacms/api"
	"github.com/wansing/schemacms/backend"
	"github.com/wansing/schemacms/cache"
	"github.com/wansing/schemacms/config"
	"github.com/wansing/schemacms/core"
	"github.com/wansing/schemacms/editors"
	"github.com/wansing/schemacms/publish"
	"github.com/wansing/schemacms/seed"
	"github.com/wansing/schemacms/sqldb"
	"github.com/wansing/schemacms/util"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "schemacms",
	Short: "Schema-driven headless CMS",
	Long: `schemacms stores content whose fields are described by schemas.

Content is edited in the backend or through the JSON API and can be
pushed to remote sites through publishing connections.

Quick start:
  schemacms project add demo --env live --lang en
  schemacms user add admin --admin
  schemacms serve`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the API and the backend",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	var defaults = config.Default()

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.DefaultFile, "ini config file, ignored if missing")
	// MySQL: collation should be utf8mb4_unicode_ci
	rootCmd.PersistentFlags().String("db", defaults.DB, "sql database url, see github.com/xo/dburl")
	rootCmd.PersistentFlags().String("log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-pretty", defaults.LogPretty, "human-readable log output")

	// Your reverse proxy must not strip the prefix. So if you're using nginx, the "proxy_pass" value should not end with a slash.
	serveCmd.Flags().String("base", defaults.Base, "strip off this `prefix` from every HTTP request and prepend it to every link")
	serveCmd.Flags().String("listen", defaults.Listen, "serve HTTP content at this `ip:port`")
	serveCmd.Flags().Bool("allow-cors", defaults.AllowCORS, "allow cross-origin API requests")
	serveCmd.Flags().String("schema-dir", defaults.SchemaDir, "load custom schemas from the yaml files in this directory")
	serveCmd.Flags().Bool("watch-schemas", defaults.WatchSchemas, "reload the schema directory on changes")
	serveCmd.Flags().Int("cache-size", defaults.CacheSize, "number of schemas and contents kept in memory")
	serveCmd.Flags().Duration("token-lifetime", defaults.TokenLifetime, "lifetime of API tokens")
	serveCmd.Flags().Duration("publish-timeout", defaults.PublishTimeout, "timeout of requests to publishing connections")

	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig merges the config file, the environment and the flags which have been set explicitly.
func loadConfig(cmd *cobra.Command) (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cfg, zerolog.Nop(), err
	}
	for _, key := range config.Keys {
		if flag := cmd.Flags().Lookup(key); flag != nil && flag.Changed {
			if err := cfg.Set(key, flag.Value.String()); err != nil {
				return cfg, zerolog.Nop(), fmt.Errorf("--%s: %w", key, err)
			}
		}
	}
	logger, err := cfg.Logger(os.Stderr)
	if err != nil {
		return cfg, zerolog.Nop(), err
	}
	return cfg, logger, nil
}

// openDB opens the database and assembles a CoreDB without caches and without deployer.
func openDB(cfg config.Config, logger zerolog.Logger) (*core.CoreDB, *sql.DB, string, error) {

	sqlDB, driver, err := sqldb.Open(cfg.DB)
	if err != nil {
		return nil, nil, "", err
	}

	logger.Info().Str("driver", driver).Msg("database opened")

	var db = &core.CoreDB{
		ConnectionDB:  sqldb.NewConnectionDB(sqlDB),
		ContentDB:     sqldb.NewContentDB(sqlDB),
		ProjectDB:     sqldb.NewProjectDB(sqlDB),
		SchemaDB:      sqldb.NewSchemaDB(sqlDB),
		UserDB:        sqldb.NewUserDB(sqlDB),
		Editors:       editors.DefaultRegistry,
		Log:           logger,
		TokenLifetime: cfg.TokenLifetime,
	}
	return db, sqlDB, driver, nil
}

func runServe(cmd *cobra.Command, args []string) error {

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, sqlDB, driver, err := openDB(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		logger.Info().Msg("closing database")
		sqlDB.Close()
	}()

	// assemble stuff

	var schemas = cache.NewSchemaCache(db.SchemaDB, cfg.CacheSize)
	var contents = cache.NewContentCache(db.ContentDB, cfg.CacheSize)
	db.SchemaDB = schemas
	db.ContentDB = contents
	db.Reloaders = []core.Reloader{schemas, contents}
	db.Deployer = publish.NewHTTPDeployer(logger, cfg.PublishTimeout)

	builtin, err := seed.Builtin()
	if err != nil {
		return err
	}
	if err := seed.Install(db.SchemaDB, builtin); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.SchemaDir != "" {
		var dir = &seed.Dir{
			Path:     cfg.SchemaDir,
			DB:       db.SchemaDB,
			Reloader: db,
			Logger:   logger,
		}
		if err := dir.Sync(); err != nil {
			return fmt.Errorf("loading schema dir: %w", err)
		}
		if cfg.WatchSchemas {
			if err := dir.Watch(ctx); err != nil {
				return err
			}
		}
	}

	sessionStore, err := sqldb.NewSessionStore(sqlDB, driver)
	if err != nil {
		return err
	}

	var base = cfg.NormalizedBase()
	var sessions = backend.NewSessionManager(sessionStore, base+"/backend")

	var mux = http.NewServeMux()
	util.HandlePrefix(mux, base+"/api", api.NewRouter(db, logger, cfg.AllowCORS))
	util.HandlePrefix(mux, base+"/backend", backend.NewBackendRouter(db, sessions, base+"/backend", logger))
	mux.HandleFunc(base+"/", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != base+"/" {
			http.NotFound(w, req)
			return
		}
		http.Redirect(w, req, base+"/backend/", http.StatusSeeOther)
	})

	return listen(mux, cfg.Listen, logger)
}

func listen(handler http.Handler, addr string, logger zerolog.Logger) error {

	sigintChannel := make(chan os.Signal, 1)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	logger.Info().Str("addr", addr).Msg("listening")

	httpSrv := &http.Server{
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second, // publishing requests may take a while
	}

	go func() {
		if err := httpSrv.Serve(listener); err != nil {

			// don't panic, we want a graceful shutdown
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("error listening")
			}

			// ensure graceful shutdown
			sigintChannel <- os.Interrupt
		}
	}()

	// graceful shutdown

	signal.Notify(sigintChannel, os.Interrupt, syscall.SIGTERM) // SIGINT (Interrupt) or SIGTERM
	<-sigintChannel

	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(ctx)
}
