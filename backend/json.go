package backend

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/wansing/schemacms/core"
)

var jsonTmpl = tmpl(`
	<h1>
		JSON of {{ .ID }}
		{{ with .SchemaID }}<small class="text-muted">{{ . }}</small>{{ end }}
	</h1>
	{{ if .New }}
		<div class="alert alert-info" role="alert">There is no record with this id yet. Saving creates it.</div>
	{{ end }}
	<form method="post">
		<div class="form-group">
			<textarea class="form-control text-monospace" name="json" rows="20">{{ .Raw }}</textarea>
		</div>
		<div class="form-group">
			<button type="submit" class="btn btn-primary">Save</button>
			{{ if not .New }}
				<a class="btn btn-link" href="{{ .Link "edit/%s" .ID }}">Back to the editor</a>
			{{ end }}
		</div>
	</form>`)

type jsonData struct {
	*context
	ID  string
	New bool
	Raw string
}

// SchemaID extracts the schema id from the raw JSON, which might not be parseable as content.
func (data *jsonData) SchemaID() string {
	return gjson.Get(data.Raw, "schemaId").String()
}

// editJSON edits the stored record without a schema. The record id is always the id of the URL.
func editJSON(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	var id = params.ByName("id")
	var contents = ctx.db.Contents(ctx.Session)

	stored, err := contents.GetContent(id)
	switch {
	case errors.Is(err, core.ErrNotFound):
		stored = nil
	case err != nil:
		return err
	}

	var data = &jsonData{
		context: ctx,
		ID:      id,
		New:     stored == nil,
	}

	if req.Method == http.MethodPost {
		data.Raw = req.PostFormValue("json")
		if err := saveJSON(req, ctx, id, stored, data.Raw); err != nil {
			ctx.Danger(err)
			// render the posted JSON again, so it is not lost
			return jsonTmpl.Execute(w, data)
		}
		ctx.Success("The record has been saved.")
		ctx.SeeOther(ctx.ProjectPath("json/%s", id))
		return nil
	}

	if stored == nil {
		data.Raw = "{}"
	} else {
		raw, err := json.MarshalIndent(stored, "", "\t")
		if err != nil {
			return err
		}
		data.Raw = string(raw)
	}
	if data.Raw, err = sjson.Set(data.Raw, "id", id); err != nil {
		return err
	}
	if data.New {
		data.Raw = gjson.Get(data.Raw, "@pretty").Raw
	}

	return jsonTmpl.Execute(w, data)
}

func saveJSON(req *http.Request, ctx *context, id string, stored *core.Content, raw string) error {

	if !gjson.Valid(raw) {
		return &core.ValidationError{Field: "json", Reason: "invalid JSON"}
	}
	if !gjson.Parse(raw).IsObject() {
		return &core.ValidationError{Field: "json", Reason: "the record must be a JSON object"}
	}

	raw, err := sjson.Set(raw, "id", id)
	if err != nil {
		return err
	}

	content, err := core.ParseContent([]byte(raw))
	if err != nil {
		return err
	}

	if stored != nil {
		if stored.IsLocked {
			return &core.ValidationError{Reason: "the record is locked"}
		}
		content.CreatedBy = stored.CreatedBy
		content.CreateDate = stored.CreateDate
	} else {
		content.CreatedBy = ctx.Session.Username()
	}

	if _, err := ctx.db.SaveContent(req.Context(), ctx.Session, content, core.SaveOnly); err != nil {
		return err
	}
	ctx.db.Reload()
	return nil
}
