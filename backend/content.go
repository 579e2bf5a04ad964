package backend

import (
	"html/template"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/schemacms/core"
	"github.com/wansing/schemacms/util"
)

const perPage = 20

var dashboardTmpl = tmpl(`
	<h1>Content</h1>

	{{ if .Contents }}
		<table class="table table-sm">
			<thead>
				<tr>
					<th>Title</th>
					<th>Schema</th>
					<th>Updated</th>
					<th></th>
				</tr>
			</thead>
			<tbody>
				{{ range .Contents }}
					<tr>
						<td><a href="{{ $.Link "edit/%s" .ID }}">{{ ContentLabel . $.Session.Language }}</a></td>
						<td>{{ .SchemaID }}</td>
						<td>{{ FormatTime .UpdateDate }} {{ .UpdatedBy }}</td>
						<td>
							{{ if .IsPublished }}<span class="badge badge-success">published</span>{{ end }}
							{{ if .IsLocked }}<span class="badge badge-secondary">locked</span>{{ end }}
						</td>
					</tr>
				{{ end }}
			</tbody>
		</table>

		{{ if gt (len .Pages) 1 }}
			<nav>
				<ul class="pagination">
					{{ range .Pages }}
						<li class="page-item{{ if eq . $.Page }} active{{ end }}">
							<a class="page-link" href="{{ $.Link "content" }}?page={{ . }}">{{ . }}</a>
						</li>
					{{ end }}
				</ul>
			</nav>
		{{ end }}
	{{ else }}
		<p>This environment has no content yet.</p>
		<form method="post" action="{{ .Link "example" }}">
			<button type="submit" class="btn btn-secondary">Insert example content</button>
		</form>
	{{ end }}

	<h2 class="mt-4">Create content</h2>
	<form method="post" action="{{ .Link "create" }}">
		<div class="form-group row">
			<label class="col-sm-2 col-form-label">Schema</label>
			<div class="col-sm-10">
				<select class="form-control" name="schemaId">
					{{ .SchemaOptions }}
				</select>
			</div>
		</div>
		<div class="form-group row">
			<label class="col-sm-2 col-form-label">Parent</label>
			<div class="col-sm-10">
				<select class="form-control" name="parentId">
					<option value="">(none)</option>
					{{ range .All }}
						<option value="{{ .ID }}">{{ ContentLabel . $.Session.Language }}</option>
					{{ end }}
				</select>
			</div>
		</div>
		<div class="form-group row">
			<div class="col-sm-10 offset-sm-2">
				<button type="submit" class="btn btn-primary">Create</button>
			</div>
		</div>
	</form>`)

type dashboardData struct {
	*context
	All           []*core.Content
	Contents      []*core.Content // of the current page
	Page          int
	Pages         []int
	SchemaOptions template.HTML
}

func dashboard(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	all, err := ctx.db.Contents(ctx.Session).AllContent()
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	from, to, numPages := util.Paginate(len(all), perPage, page)
	if page < 1 {
		page = 1
	}
	if page > numPages {
		page = numPages
	}

	schemas, err := ctx.db.Schemas(ctx.Session).AllSchemas()
	if err != nil {
		return err
	}
	projectSchemas, err := ctx.db.SchemaDB.GetAllSchemas(ctx.Session.ProjectID())
	if err != nil {
		return err
	}

	return dashboardTmpl.Execute(w, &dashboardData{
		context:       ctx,
		All:           all,
		Contents:      all[from:to],
		Page:          page,
		Pages:         util.Pages(page, numPages),
		SchemaOptions: SelectContentSchema(ctx.db.Resolver(ctx.Session), schemas, projectSchemas, core.ExampleSchemaID),
	})
}

func create(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	content, err := ctx.db.CreateContent(ctx.Session, req.PostFormValue("schemaId"), req.PostFormValue("parentId"))
	if err != nil {
		ctx.Danger(err)
		ctx.SeeOther(ctx.ProjectPath("content"))
		return nil
	}
	ctx.log.Info().Str("content", content.ID).Str("schema", content.SchemaID).Str("user", ctx.Session.Username()).Msg("content created")
	ctx.Success("The content has been created.")
	ctx.SeeOther(ctx.ProjectPath("edit/%s", content.ID))
	return nil
}

func example(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	content, err := ctx.db.InsertExampleContent(ctx.Session)
	if err != nil {
		ctx.Danger(err)
		ctx.SeeOther(ctx.ProjectPath("content"))
		return nil
	}
	ctx.Success("The example content has been created.")
	ctx.SeeOther(ctx.ProjectPath("edit/%s", content.ID))
	return nil
}
