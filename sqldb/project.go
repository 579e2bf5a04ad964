package sqldb

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/wansing/schemacms/core"
)

type ProjectDB struct {
	*sql.DB
	get    *sql.Stmt
	getAll *sql.Stmt
	insert *sql.Stmt
}

func NewProjectDB(db *sql.DB) *ProjectDB {

	db.Exec(`
		CREATE TABLE IF NOT EXISTS project (
			id varchar(128) NOT NULL PRIMARY KEY,
			data TEXT NOT NULL
		);`)

	var projectDB = &ProjectDB{}
	projectDB.DB = db
	projectDB.get = mustPrepare(db, "SELECT data FROM project WHERE id = ? LIMIT 1")
	projectDB.getAll = mustPrepare(db, "SELECT data FROM project ORDER BY id")
	projectDB.insert = mustPrepare(db, "INSERT INTO project (id, data) VALUES (?, ?)")
	return projectDB
}

func (db *ProjectDB) GetProject(id string) (*core.Project, error) {
	var project = &core.Project{}
	err := scanJSON(db.get.QueryRow(id), project)
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("project", id)
	}
	return project, err
}

func (db *ProjectDB) GetAllProjects() ([]*core.Project, error) {

	rows, err := db.getAll.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all = []*core.Project{}
	for rows.Next() {
		var project = &core.Project{}
		if err := scanJSON(rows, project); err != nil {
			return nil, err
		}
		all = append(all, project)
	}
	return all, rows.Err()
}

func (db *ProjectDB) InsertProject(project *core.Project) error {
	if project.ID == "" {
		return errors.New("project id is empty")
	}
	data, err := json.Marshal(project)
	if err != nil {
		return err
	}
	_, err = db.insert.Exec(project.ID, data)
	return err
}
