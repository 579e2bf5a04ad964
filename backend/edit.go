package backend

import (
	"html/template"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/schemacms/core"
)

var failedTmpl = tmpl(`
	<h1>Content {{ .ID }}</h1>
	<div class="alert alert-danger" role="alert">
		The editor could not be opened ({{ .State }}): {{ .Err }}
	</div>
	<p>You can still edit the stored record in the <a href="{{ .Link "json/%s" .ID }}">JSON editor</a>.</p>`)

type failedData struct {
	*context
	ID    string
	State core.EditorState
	Err   error
}

// failed renders the fallback page of an editor which could not be loaded.
func (ctx *context) failed(w http.ResponseWriter, id string, e *core.ContentEditor, err error) error {
	ctx.log.Warn().Err(err).Str("content", id).Str("state", e.State().String()).Msg("content editor failed")
	w.WriteHeader(core.HTTPStatus(err))
	return failedTmpl.Execute(w, &failedData{
		context: ctx,
		ID:      id,
		State:   e.State(),
		Err:     err,
	})
}

func editDefaultTab(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	var id = params.ByName("id")
	var e = ctx.db.NewContentEditor(ctx.Session, id)
	if err := e.Load(""); err != nil {
		return ctx.failed(w, id, e, err)
	}
	ctx.SeeOther(ctx.ProjectPath("edit/%s/%s", id, e.Tab()))
	return nil
}

var editTmpl = tmpl(`
	{{ .Breadcrumbs .Content }}

	<h1>
		{{ ContentLabel .Content .Session.Language }}
		<small class="text-muted">{{ or .Schema.Name .Schema.ID }}</small>
		{{ if .Content.IsPublished }}<span class="badge badge-success">published</span>{{ end }}
	</h1>

	{{ with .RemoteURL }}
		<p>View at <a href="{{ . }}" target="_blank">{{ . }}</a></p>
	{{ end }}

	{{ if .Content.IsLocked }}
		<div class="alert alert-info" role="alert">This content is locked and can't be saved.</div>
	{{ end }}

	{{ range .Notices }}
		<div class="alert alert-warning" role="alert">{{ . }}</div>
	{{ end }}

	<ul class="nav nav-tabs mb-3">
		{{ range .Tabs }}
			<li class="nav-item">
				<a class="nav-link{{ if .Active }} active{{ end }}" href="{{ $.Link "edit/%s/%s" $.Content.ID .ID }}">{{ .Label }}</a>
			</li>
		{{ end }}
	</ul>

	<form method="post">
		{{ range .Fields }}
			<div class="form-group row">
				<label class="col-sm-2 col-form-label" title="{{ .Kind }}">{{ .Label }}</label>
				<div class="col-sm-10">
					{{ if .Err }}
						<div class="alert alert-danger" role="alert">{{ .Err }}</div>
					{{ else }}
						{{ .HTML }}
					{{ end }}
				</div>
			</div>
		{{ else }}
			<p class="text-muted">This tab has no fields.</p>
		{{ end }}

		<div class="form-group row">
			<div class="col-sm-10 offset-sm-2 form-inline">
				{{ with .SaveOptions }}
					<select class="form-control mr-2" name="save_action">
						{{ range . }}
							<option value="{{ . }}">{{ SaveActionLabel . }}</option>
						{{ end }}
					</select>
				{{ end }}
				<button type="submit" class="btn btn-primary"{{ if .Content.IsLocked }} disabled{{ end }}>Save</button>
				<a class="btn btn-link" href="{{ .Link "json/%s" .Content.ID }}">Edit JSON</a>
			</div>
		</div>
	</form>`)

type tabLink struct {
	ID     string
	Label  string
	Active bool
}

type fieldView struct {
	Label string
	Kind  string
	HTML  template.HTML
	Err   error
}

type editData struct {
	*context
	Content     *core.Content
	Schema      *core.MergedSchema
	RemoteURL   string
	Notices     []error
	Tabs        []tabLink
	Fields      []fieldView
	SaveOptions []core.SaveAction
}

func edit(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	var id = params.ByName("id")
	var e = ctx.db.NewContentEditor(ctx.Session, id)
	if err := e.Load(params.ByName("tab")); err != nil {
		return ctx.failed(w, id, e, err)
	}

	if req.Method == http.MethodPost {
		submit(req, ctx, e)
		ctx.SeeOther(ctx.ProjectPath("edit/%s/%s", id, e.Tab()))
		return nil
	}

	var schema = e.Schema()

	var tabs []tabLink
	for _, tabID := range schema.SortedTabs() {
		var label = schema.Tabs[tabID]
		if label == "" {
			label = tabID
		}
		tabs = append(tabs, tabLink{tabID, label, tabID == e.Tab()})
	}
	tabs = append(tabs, tabLink{core.MetaTab, "Meta", e.Tab() == core.MetaTab})

	var fields []fieldView
	for _, field := range e.Fields() {
		html, err := field.Render()
		fields = append(fields, fieldView{
			Label: field.Label,
			Kind:  field.Kind.Name,
			HTML:  html,
			Err:   err,
		})
	}

	return editTmpl.Execute(w, &editData{
		context:     ctx,
		Content:     e.Content(),
		Schema:      schema,
		RemoteURL:   e.RemoteURL(),
		Notices:     e.Notices(),
		Tabs:        tabs,
		Fields:      fields,
		SaveOptions: e.SaveOptions(),
	})
}

// submit passes the form to the editor and saves the content. The outcome is stored as a notification.
func submit(req *http.Request, ctx *context, e *core.ContentEditor) {

	if err := req.ParseForm(); err != nil {
		ctx.Danger(err)
		return
	}

	action, err := core.ParseSaveAction(req.PostForm.Get("save_action"))
	if err != nil {
		ctx.Danger(err)
		return
	}

	if err := e.Submit(req.PostForm); err != nil {
		ctx.Danger(err)
		return
	}

	var effective = action.Effective(e.Content())
	if !e.Changed() && effective == core.SaveOnly {
		ctx.addNotification("No changes.", "info")
		return
	}

	url, err := e.Save(req.Context(), action)
	if err != nil {
		ctx.Danger(err)
		return
	}

	switch effective {
	case core.Publish:
		ctx.Success("The content has been saved and published.")
	case core.Unpublish:
		ctx.Success("The content has been saved and unpublished.")
	case core.Preview:
		ctx.Success("The content has been saved. Preview: %s", url)
	default:
		ctx.Success("The content has been saved.")
	}
}
