// Package api serves the JSON API below /api.
//
// Routes below /api/:project/:environment/ establish the project context first, then authenticate the token cookie.
// A missing project or environment is answered with 400, a failed authentication with 403.
// Errors are returned as plain text.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/wansing/schemacms/core"
	"github.com/wansing/schemacms/metrics"
)

const TokenCookie = "token"

// Settings configure the middleware of a route.
type Settings struct {
	Scope        string // required scope of non-admin users, empty for none
	Authenticate bool
	SetProject   bool
}

type API struct {
	db        *core.CoreDB
	logger    zerolog.Logger
	allowCORS bool
}

// request bundles what a handler needs.
type request struct {
	*http.Request
	Params  httprouter.Params
	Session *core.Session // nil if the route has no project context and no authentication
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

// WriteHeader shadows and calls http.ResponseWriter.WriteHeader.
func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (a *API) middleware(route string, settings Settings, f func(http.ResponseWriter, *request) error) httprouter.Handle {
	return func(rw http.ResponseWriter, req *http.Request, params httprouter.Params) {

		var start = time.Now()
		var w = &statusRecorder{ResponseWriter: rw, status: http.StatusOK}
		defer func() {
			metrics.APIRequests.WithLabelValues(req.Method, route, strconv.Itoa(w.status)).Inc()
			metrics.APIDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
		}()

		// clear double cookie values
		token, err := req.Cookie(TokenCookie)
		if err != nil || token.Value == "" {
			http.SetCookie(w, &http.Cookie{Name: TokenCookie, Value: "", Path: "/", MaxAge: -1})
		}

		if a.allowCORS {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept")
			a.logger.Debug().Str("url", req.URL.String()).Msg("allowing CORS for API call")
		}

		var r = &request{
			Request: req,
			Params:  params,
		}

		if settings.SetProject {
			if project, env, ok := core.ParseContextPath("/api" + req.URL.Path); ok {
				r.Session, err = a.db.NewSession(nil, project, env, req.Header.Get("Accept-Language"))
				if err != nil {
					a.fail(w, req, core.HTTPStatus(err), err)
					return
				}
			}
		}

		if settings.Authenticate {
			var value string
			if token != nil {
				value = token.Value
			}
			user, err := a.db.Authenticate(value, settings.Scope, r.Session.ProjectID())
			if err != nil {
				a.fail(w, req, core.HTTPStatus(err), err)
				return
			}
			if r.Session == nil {
				r.Session = &core.Session{Language: core.DefaultLanguage}
			}
			r.Session.User = user
		}

		if err := f(w, r); err != nil {
			a.fail(w, req, core.HTTPStatus(err), err)
		}
	}
}

func (a *API) fail(w http.ResponseWriter, req *http.Request, status int, err error) {
	var msg = errorString(err)
	if status >= 500 {
		a.logger.Error().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Int("status", status).Msg("api error")
	} else {
		a.logger.Debug().Str("method", req.Method).Str("url", req.URL.String()).Int("status", status).Msg(msg)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(msg))
}

func errorString(err error) string {
	if err == nil {
		return "Unspecified error"
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

func readJSON(r *request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 8<<20)).Decode(v); err != nil {
		return &core.ValidationError{Reason: "invalid JSON: " + err.Error()}
	}
	return nil
}

// NewRouter returns the API handler. It expects to be mounted at /api, with the prefix stripped.
func NewRouter(db *core.CoreDB, logger zerolog.Logger, allowCORS bool) http.Handler {

	var a = &API{
		db:        db,
		logger:    logger,
		allowCORS: allowCORS,
	}

	// httprouter can't mix the static first segments with the :project wildcard, so they get their own routers
	var global = httprouter.New()
	var router = httprouter.New()

	var public = Settings{}
	var scoped = func(scope string) Settings {
		return Settings{Scope: scope, Authenticate: true, SetProject: true}
	}

	global.POST("/user/login", a.middleware("user/login", public, a.login))
	global.GET("/user/current", a.middleware("user/current", Settings{Authenticate: true}, a.currentUser))
	global.Handler(http.MethodGet, "/metrics", metrics.Handler())

	router.GET("/:project/:environment/content", a.middleware("content", scoped(core.ScopeContent), a.allContent))
	router.GET("/:project/:environment/content/:id", a.middleware("content/:id", scoped(core.ScopeContent), a.getContent))
	router.POST("/:project/:environment/content/:id", a.middleware("content/:id", scoped(core.ScopeContent), a.postContent))
	router.GET("/:project/:environment/content/:id/tabs/:tab", a.middleware("content/:id/tabs/:tab", scoped(core.ScopeContent), a.tabFields))

	router.GET("/:project/:environment/schemas", a.middleware("schemas", scoped(core.ScopeSchemas), a.allSchemas))
	router.GET("/:project/:environment/schemas/:id", a.middleware("schemas/:id", scoped(core.ScopeSchemas), a.getSchema))
	router.POST("/:project/:environment/schemas/:id", a.middleware("schemas/:id", scoped(core.ScopeSchemas), a.postSchema))

	router.GET("/:project/:environment/connections", a.middleware("connections", scoped(core.ScopeConnections), a.allConnections))
	router.POST("/:project/:environment/connections/:id", a.middleware("connections/:id", scoped(core.ScopeConnections), a.postConnection))

	var notFound = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		a.fail(w, req, http.StatusNotFound, errors.New("not found"))
	})
	global.NotFound = notFound
	router.NotFound = notFound

	var mux = http.NewServeMux()
	mux.Handle("/user/", global)
	mux.Handle("/metrics", global)
	mux.Handle("/", router)
	return mux
}
