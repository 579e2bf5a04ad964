package backend

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/schemacms/core"
)

var projectsTmpl = tmpl(`
	<h1>Projects</h1>
	{{ with .Projects }}
		<table class="table">
			<thead>
				<tr>
					<th>Project</th>
					<th>Environments</th>
					<th>Languages</th>
				</tr>
			</thead>
			<tbody>
				{{ range . }}
					<tr>
						<td>{{ or .Name .ID }}</td>
						<td>
							{{ $id := .ID }}
							{{ range .Environments }}
								<a class="mr-2" href="p/{{ $id }}/{{ . }}/content">{{ . }}</a>
							{{ end }}
						</td>
						<td>{{ range .Languages }}{{ . }} {{ end }}</td>
					</tr>
				{{ end }}
			</tbody>
		</table>
	{{ else }}
		<p>There are no projects which you can edit.</p>
	{{ end }}`)

func projects(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	all, err := ctx.db.GetAllProjects()
	if err != nil {
		return err
	}

	var editable []*core.Project
	for _, project := range all {
		if ctx.User.CanEdit(project.ID) {
			editable = append(editable, project)
		}
	}

	return projectsTmpl.Execute(w, struct {
		*context
		Projects []*core.Project
	}{
		context:  ctx,
		Projects: editable,
	})
}
