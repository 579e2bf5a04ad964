package sqldb

import (
	"database/sql"
	"encoding/json"

	"github.com/wansing/schemacms/core"
)

type SchemaDB struct {
	*sql.DB
	delete *sql.Stmt
	get    *sql.Stmt
	getAll *sql.Stmt
	set    *sql.Stmt
}

func NewSchemaDB(db *sql.DB) *SchemaDB {

	db.Exec(`
		CREATE TABLE IF NOT EXISTS content_schema (
			project varchar(128) NOT NULL,
			id varchar(128) NOT NULL,
			data TEXT NOT NULL,
			PRIMARY KEY(project, id)
		);`)

	var schemaDB = &SchemaDB{}
	schemaDB.DB = db
	schemaDB.delete = mustPrepare(db, "DELETE FROM content_schema WHERE project = ? AND id = ?")
	schemaDB.get = mustPrepare(db, "SELECT data FROM content_schema WHERE project = ? AND id = ? LIMIT 1")
	schemaDB.getAll = mustPrepare(db, "SELECT data FROM content_schema WHERE project = ? ORDER BY id")
	schemaDB.set = mustPrepare(db, "REPLACE INTO content_schema (project, id, data) VALUES (?, ?, ?)")
	return schemaDB
}

func (db *SchemaDB) GetSchema(project, id string) (*core.Schema, error) {
	var schema = &core.Schema{}
	err := scanJSON(db.get.QueryRow(project, id), schema)
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("schema", id)
	}
	return schema, err
}

func (db *SchemaDB) GetAllSchemas(project string) ([]*core.Schema, error) {

	rows, err := db.getAll.Query(project)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all = []*core.Schema{}
	for rows.Next() {
		var schema = &core.Schema{}
		if err := scanJSON(rows, schema); err != nil {
			return nil, err
		}
		all = append(all, schema)
	}
	return all, rows.Err()
}

func (db *SchemaDB) SetSchema(project string, schema *core.Schema) error {
	data, err := json.Marshal(schema)
	if err != nil {
		return err
	}
	_, err = db.set.Exec(project, schema.ID, data)
	return err
}

func (db *SchemaDB) DeleteSchema(project, id string) error {
	_, err := db.delete.Exec(project, id)
	return err
}
