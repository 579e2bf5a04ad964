package backend

import (
	"encoding/gob"
	"fmt"
	"html/template"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/rs/zerolog"
	"github.com/wansing/schemacms/core"
)

type Notification struct {
	Message string
	Style   string
}

func init() {
	gob.Register([]Notification{}) // required for storing Notifications in a session
}

// A context is created for every backend request.
type context struct {
	db       *core.CoreDB // unexported, so it can't be accessed in templates
	sessions *scs.SessionManager
	log      zerolog.Logger

	writer  http.ResponseWriter
	request *http.Request

	Prefix  string        // with trailing slash
	User    *core.User    // nil if nobody is logged in
	Session *core.Session // project context, nil outside of projects

	statusWritten bool
}

func (b *Backend) newContext(w http.ResponseWriter, req *http.Request) *context {
	var ctx = &context{
		db:       b.db,
		sessions: b.sessions,
		log:      b.log,
		writer:   w,
		request:  req,
		Prefix:   b.prefix + "/",
	}
	if uid := b.sessions.GetInt(req.Context(), "uid"); uid != 0 {
		if u, err := b.db.GetUser(uid); err == nil {
			ctx.User = u
		}
		// ignore errors
	}
	return ctx
}

func (ctx *context) LoggedIn() bool {
	return ctx.User != nil
}

// Danger adds a "danger" notification to the session.
func (ctx *context) Danger(err error) {
	ctx.addNotification(err.Error(), "danger")
}

// Success adds a "success" notification to the session.
func (ctx *context) Success(format string, args ...interface{}) {
	ctx.addNotification(fmt.Sprintf(format, args...), "success")
}

// style should be a bootstrap alert style without the leading "alert-"
func (ctx *context) addNotification(message, style string) {
	notifications, _ := ctx.sessions.Get(ctx.request.Context(), "notifications").([]Notification)
	notifications = append(notifications, Notification{message, style})
	ctx.sessions.Put(ctx.request.Context(), "notifications", notifications)
}

// RenderNotifications removes all notifications from the session and renders them.
// If the HTTP status had already been written, it does nothing.
func (ctx *context) RenderNotifications() template.HTML {
	if ctx.statusWritten {
		return ""
	}
	var r string
	notifications, _ := ctx.sessions.Pop(ctx.request.Context(), "notifications").([]Notification)
	for _, n := range notifications {
		r += `<div class="alert alert-` + n.Style + ` mt-3" role="alert">` + template.HTMLEscapeString(n.Message) + `</div>`
	}
	return template.HTML(r)
}

// Cleanup destroys the session if it has been modified and is empty now.
func (ctx *context) Cleanup() {
	if ctx.sessions.Status(ctx.request.Context()) == scs.Modified && len(ctx.sessions.Keys(ctx.request.Context())) == 0 {
		_ = ctx.sessions.Destroy(ctx.request.Context())
	}
}

// SeeOther sets the HTTP header to redirect to an URL.
// Absolute locations are prefixed by util.HandlePrefix.
func (ctx *context) SeeOther(format string, args ...interface{}) {
	if ctx.statusWritten {
		return
	}
	var url = fmt.Sprintf(format, args...)
	http.Redirect(ctx.writer, ctx.request, url, http.StatusSeeOther)
	ctx.statusWritten = true
}

// Login checks the credentials and stores the user id in the session.
func (ctx *context) Login(username, password string) error {
	user, err := ctx.db.LoginUser(username, password)
	if err != nil {
		return err
	}
	if err := ctx.sessions.RenewToken(ctx.request.Context()); err != nil {
		return err
	}
	ctx.sessions.Put(ctx.request.Context(), "uid", user.ID)
	ctx.User = user
	return nil
}

func (ctx *context) Logout() {
	ctx.sessions.Remove(ctx.request.Context(), "uid")
	ctx.User = nil
}

// ProjectPath returns the absolute path of a page in the current project and environment.
// Without leading slash, it can be used as a link relative to the base href.
func (ctx *context) ProjectPath(format string, args ...interface{}) string {
	if ctx.Session == nil {
		return "/"
	}
	return fmt.Sprintf("/p/%s/%s/", ctx.Session.ProjectID(), ctx.Session.Environment) + fmt.Sprintf(format, args...)
}

// Link is ProjectPath without the leading slash.
func (ctx *context) Link(format string, args ...interface{}) string {
	return ctx.ProjectPath(format, args...)[1:]
}
