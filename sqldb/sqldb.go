// Package sqldb implements the storage interfaces of package core on a relational database.
// Records are stored as JSON in a data column, keyed by project, environment and id.
package sqldb

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/xo/dburl"
)

// mustPrepare panics if the statement can't be prepared. It is used when the stores are set up.
func mustPrepare(db *sql.DB, query string) *sql.Stmt {
	stmt, err := db.Prepare(query)
	if err != nil {
		panic(fmt.Sprintf("preparing %q: %v", query, err))
	}
	return stmt
}

// Open parses a database url like "sqlite3:schemacms.sqlite3" and opens and pings the database.
// It returns the driver name too.
func Open(rawURL string) (*sql.DB, string, error) {
	dbURL, err := dburl.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("parsing database url: %w", err)
	}
	db, err := sql.Open(dbURL.Driver, dbURL.DSN)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("pinging database: %w", err)
	}
	return db, dbURL.Driver, nil
}

func scanJSON(row interface{ Scan(...interface{}) error }, v interface{}) error {
	var data []byte
	if err := row.Scan(&data); err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
