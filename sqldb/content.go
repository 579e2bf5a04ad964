package sqldb

import (
	"database/sql"
	"encoding/json"

	"github.com/wansing/schemacms/core"
)

type ContentDB struct {
	*sql.DB
	delete *sql.Stmt
	get    *sql.Stmt
	getAll *sql.Stmt
	set    *sql.Stmt
}

func NewContentDB(db *sql.DB) *ContentDB {

	db.Exec(`
		CREATE TABLE IF NOT EXISTS content (
			project varchar(128) NOT NULL,
			env varchar(128) NOT NULL,
			id varchar(128) NOT NULL,
			sort INTEGER NOT NULL DEFAULT 0,
			data TEXT NOT NULL,
			PRIMARY KEY(project, env, id)
		);`)

	var contentDB = &ContentDB{}
	contentDB.DB = db
	contentDB.delete = mustPrepare(db, "DELETE FROM content WHERE project = ? AND env = ? AND id = ?")
	contentDB.get = mustPrepare(db, "SELECT data FROM content WHERE project = ? AND env = ? AND id = ? LIMIT 1")
	contentDB.getAll = mustPrepare(db, "SELECT data FROM content WHERE project = ? AND env = ? ORDER BY sort, id")
	contentDB.set = mustPrepare(db, "REPLACE INTO content (project, env, id, sort, data) VALUES (?, ?, ?, ?, ?)")
	return contentDB
}

func (db *ContentDB) GetContent(project, env, id string) (*core.Content, error) {
	var c = &core.Content{}
	err := scanJSON(db.get.QueryRow(project, env, id), c)
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("content", id)
	}
	if err != nil {
		return nil, err
	}
	c.Normalize()
	return c, nil
}

func (db *ContentDB) GetAllContent(project, env string) ([]*core.Content, error) {

	rows, err := db.getAll.Query(project, env)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all = []*core.Content{}
	for rows.Next() {
		var c = &core.Content{}
		if err := scanJSON(rows, c); err != nil {
			return nil, err
		}
		c.Normalize()
		all = append(all, c)
	}
	return all, rows.Err()
}

func (db *ContentDB) SetContent(project, env string, c *core.Content) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = db.set.Exec(project, env, c.ID, c.Sort, data)
	return err
}

func (db *ContentDB) DeleteContent(project, env, id string) error {
	_, err := db.delete.Exec(project, env, id)
	return err
}
