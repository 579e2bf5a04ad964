package sqldb

import (
	"database/sql"
	"encoding/json"

	"github.com/wansing/schemacms/core"
)

type ConnectionDB struct {
	*sql.DB
	get    *sql.Stmt
	getAll *sql.Stmt
	set    *sql.Stmt
}

func NewConnectionDB(db *sql.DB) *ConnectionDB {

	db.Exec(`
		CREATE TABLE IF NOT EXISTS connection (
			project varchar(128) NOT NULL,
			env varchar(128) NOT NULL,
			id varchar(128) NOT NULL,
			data TEXT NOT NULL,
			PRIMARY KEY(project, env, id)
		);`)

	var connectionDB = &ConnectionDB{}
	connectionDB.DB = db
	connectionDB.get = mustPrepare(db, "SELECT data FROM connection WHERE project = ? AND env = ? AND id = ? LIMIT 1")
	connectionDB.getAll = mustPrepare(db, "SELECT data FROM connection WHERE project = ? AND env = ? ORDER BY id")
	connectionDB.set = mustPrepare(db, "REPLACE INTO connection (project, env, id, data) VALUES (?, ?, ?, ?)")
	return connectionDB
}

func (db *ConnectionDB) GetConnection(project, env, id string) (*core.Connection, error) {
	var conn = &core.Connection{}
	err := scanJSON(db.get.QueryRow(project, env, id), conn)
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("connection", id)
	}
	return conn, err
}

func (db *ConnectionDB) GetAllConnections(project, env string) ([]*core.Connection, error) {

	rows, err := db.getAll.Query(project, env)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all = []*core.Connection{}
	for rows.Next() {
		var conn = &core.Connection{}
		if err := scanJSON(rows, conn); err != nil {
			return nil, err
		}
		all = append(all, conn)
	}
	return all, rows.Err()
}

func (db *ConnectionDB) SetConnection(project, env string, conn *core.Connection) error {
	data, err := json.Marshal(conn)
	if err != nil {
		return err
	}
	_, err = db.set.Exec(project, env, conn.ID, data)
	return err
}
