package backend

import (
	"html/template"
	"net/http"
	"strconv"

	"github.com/alexedwards/scs/v2"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/wansing/schemacms/core"
	"github.com/wansing/schemacms/metrics"
)

type Backend struct {
	db       *core.CoreDB
	sessions *scs.SessionManager
	prefix   string // without trailing slash
	log      zerolog.Logger
}

type access int

const (
	public access = iota
	loggedIn
	inProject // logged in, and allowed to edit content in the project of the URL
)

func (b *Backend) middleware(route string, acc access, f func(http.ResponseWriter, *http.Request, *context, httprouter.Params) error) func(http.ResponseWriter, *http.Request, httprouter.Params) {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {

		var ctx = b.newContext(w, req)
		defer ctx.Cleanup()

		var status = http.StatusOK
		defer func() {
			if ctx.statusWritten {
				status = http.StatusSeeOther
			}
			metrics.BackendRequests.WithLabelValues(req.Method, route, strconv.Itoa(status)).Inc()
		}()

		if acc != public && !ctx.LoggedIn() {
			ctx.SeeOther("/login")
			return
		}

		var err error
		if acc == inProject {
			err = ctx.enterProject(params.ByName("project"), params.ByName("environment"))
		}
		if err == nil {
			err = f(w, req, ctx, params)
		}

		if err != nil {
			status = core.HTTPStatus(err)
			b.log.Warn().Err(err).Str("path", req.URL.Path).Int("status", status).Msg("backend request failed")
			if ctx.statusWritten {
				return
			}
			// probably no template has been executed, so execute error template
			w.WriteHeader(status)
			errorTmpl.Execute(w, struct {
				*context
				Err error
			}{
				context: ctx,
				Err:     err,
			})
		}
	}
}

// enterProject sets the project context and checks whether the user may edit its content.
func (ctx *context) enterProject(projectID, env string) error {
	var acceptLanguage = ctx.request.Header.Get("Accept-Language")
	if lang := ctx.request.URL.Query().Get("lang"); lang != "" {
		ctx.sessions.Put(ctx.request.Context(), "lang", lang)
	}
	if lang := ctx.sessions.GetString(ctx.request.Context(), "lang"); lang != "" {
		acceptLanguage = lang
	}
	sess, err := ctx.db.NewSession(ctx.User, projectID, env, acceptLanguage)
	if err != nil {
		return err
	}
	if !ctx.User.CanEdit(sess.ProjectID()) {
		return &core.AuthorizationError{Reason: `you don't have the "content" scope in this project`}
	}
	ctx.Session = sess
	return nil
}

var errorTmpl = tmpl(`
	<div class="alert alert-danger" role="alert">
		{{ .Err }}
	</div>`)

// NewBackendRouter returns the backend handler. It loads and saves the scs session itself.
func NewBackendRouter(db *core.CoreDB, sessions *scs.SessionManager, prefix string, logger zerolog.Logger) http.Handler {

	var b = &Backend{
		db:       db,
		sessions: sessions,
		prefix:   prefix,
		log:      logger,
	}

	var router = httprouter.New()

	var GETAndPOST = func(path string, handle httprouter.Handle) {
		router.GET(path, handle)
		router.POST(path, handle)
	}

	// public
	router.GET("/", b.middleware("/", public, root))
	GETAndPOST("/login", b.middleware("login", public, login))

	// private
	router.GET("/logout", b.middleware("logout", loggedIn, logout))
	router.GET("/projects", b.middleware("projects", loggedIn, projects))

	// project
	router.GET("/p/:project/:environment/content", b.middleware("content", inProject, dashboard))
	router.POST("/p/:project/:environment/create", b.middleware("create", inProject, create))
	router.POST("/p/:project/:environment/example", b.middleware("example", inProject, example))
	router.GET("/p/:project/:environment/edit/:id", b.middleware("edit/:id", inProject, editDefaultTab))
	GETAndPOST("/p/:project/:environment/edit/:id/:tab", b.middleware("edit/:id/:tab", inProject, edit))
	GETAndPOST("/p/:project/:environment/json/:id", b.middleware("json/:id", inProject, editJSON))

	return sessions.LoadAndSave(router)
}

func root(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	if ctx.LoggedIn() {
		ctx.SeeOther("/projects")
	} else {
		ctx.SeeOther("/login")
	}
	return nil
}

func tmpl(text string) *template.Template {
	t := template.Must(backendTmpl.Clone())
	t = template.Must(t.Parse(`{{ define "content" }}` + text + `{{ end }}`))
	return t
}

var backendTmpl = template.Must(template.New("backend").Funcs(
	template.FuncMap{
		"ContentLabel":    ContentLabel,
		"FormatTime":      FormatTime,
		"SaveActionLabel": SaveActionLabel,
	},
).Parse(`
<!DOCTYPE html>
<html>
	<head>
		<base href="{{ .Prefix }}">
		<link rel="stylesheet" type="text/css" href="https://cdn.jsdelivr.net/npm/bootstrap@4.4.1/dist/css/bootstrap.min.css">
		<meta charset="utf-8">
		<title>Backend</title>

		<style>

			/* bootstrap enhancements */

			.bg-light, .table-light, .table-light > td, .table-light > th {
				background-color: #f4f5f6 !important;
			}

			.col-form-label {
				text-align: right;
			}

			/* html tags */

			body {
				padding-bottom: 1rem;
			}

			h1 {
				font-size: 1.5rem !important;
				margin: 1rem 0 0.7rem !important;
			}

			h2 {
				font-size: 1.3rem !important;
				margin: 0.2rem 0 0.5rem !important;
			}

			table {
				margin-top: 0.5rem;
				border-bottom: 1px solid #dee2e6;
			}

			textarea {
				tab-size: 4;
				-moz-tab-size: 4;
			}

		</style>
	</head>
	<body>

		{{ if .LoggedIn }}

			<nav class="navbar navbar-expand-md bg-light">
				<ul class="navbar-nav">
					<li class="nav-item">
						<a class="nav-link" href="projects">Projects</a>
					</li>
					{{ with .Session }}
						<li class="nav-item">
							<a class="nav-link" href="{{ $.Link "content" }}">{{ or .Project.Name .Project.ID }} ({{ .Environment }})</a>
						</li>
						{{ range .Project.Languages }}
							<li class="nav-item">
								<a class="nav-link{{ if eq . $.Session.Language }} active font-weight-bold{{ end }}" href="{{ $.Link "content" }}?lang={{ . }}">{{ . }}</a>
							</li>
						{{ end }}
					{{ end }}
					<li class="nav-item">
						<span class="nav-link">{{ .User.Username }}</span>
					</li>
					<li class="nav-item">
						<a class="nav-link" href="logout">Logout</a>
					</li>
				</ul>
			</nav>

		{{ end }}

		<div class="container pt-3">
			{{ .RenderNotifications }}
			{{ template "content" . }}
		</div>

		{{ if .LoggedIn }}

			<script>

				var textareas = document.getElementsByTagName('textarea');

				for(var i = 0; i < textareas.length; i++) {
					textareas[i].setAttribute('style', 'height:' + textareas[i].scrollHeight + 'px;overflow-y:hidden;');
					textareas[i].addEventListener("input", onTextareaInput, false);
				}

				function onTextareaInput() {

					var scrollLeft = window.pageXOffset || (document.documentElement || document.body.parentNode || document.body).scrollLeft;
					var scrollTop  = window.pageYOffset || (document.documentElement || document.body.parentNode || document.body).scrollTop;

					this.style.height = 'auto';
					this.style.height = (this.scrollHeight) + 'px';

					window.scrollTo(scrollLeft, scrollTop);
				}

			</script>

		{{ end }}
	</body>
</html>`))
