package sqldb

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/wansing/schemacms/core"
	"golang.org/x/crypto/bcrypt"
)

var ErrAuth = errors.New("authentication failed")

func clean(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)
	return name
}

type UserDB struct {
	*sql.DB
	Now func() time.Time // for tests

	addScope    *sql.Stmt
	findToken   *sql.Stmt
	get         *sql.Stmt
	getByName   *sql.Stmt
	insert      *sql.Stmt
	insertToken *sql.Stmt
	login       *sql.Stmt
	scopes      *sql.Stmt
	setPassword *sql.Stmt
}

func NewUserDB(db *sql.DB) *UserDB {

	db.Exec(`
		CREATE TABLE IF NOT EXISTS usr (
			id INTEGER PRIMARY KEY,
			name varchar(128) NOT NULL,
			fullname varchar(128) NOT NULL DEFAULT '',
			email varchar(128) NOT NULL DEFAULT '',
			admin INTEGER NOT NULL DEFAULT 0,
			password varchar(128) NOT NULL DEFAULT '',
			UNIQUE(name)
		);`)
	db.Exec(`
		CREATE TABLE IF NOT EXISTS usr_token (
			token varchar(64) NOT NULL PRIMARY KEY,
			userId INTEGER NOT NULL,
			expires INTEGER NOT NULL
		);`)
	db.Exec(`
		CREATE TABLE IF NOT EXISTS usr_scope (
			userId INTEGER NOT NULL,
			project varchar(128) NOT NULL,
			scope varchar(64) NOT NULL,
			PRIMARY KEY(userId, project, scope)
		);`)

	var userDB = &UserDB{}
	userDB.DB = db
	userDB.addScope = mustPrepare(db, "REPLACE INTO usr_scope (userId, project, scope) VALUES (?, ?, ?)")
	userDB.findToken = mustPrepare(db, "SELECT userId FROM usr_token WHERE token = ? AND expires > ? LIMIT 1")
	userDB.get = mustPrepare(db, "SELECT id, name, fullname, email, admin FROM usr WHERE id = ? LIMIT 1")
	userDB.getByName = mustPrepare(db, "SELECT id, name, fullname, email, admin FROM usr WHERE name = ? LIMIT 1")
	userDB.insert = mustPrepare(db, "INSERT INTO usr (name, admin) VALUES (?, ?)") // empty password field is safe because no bcrypt hash equals it
	userDB.insertToken = mustPrepare(db, "INSERT INTO usr_token (token, userId, expires) VALUES (?, ?, ?)")
	userDB.login = mustPrepare(db, "SELECT id, password FROM usr WHERE name = ? LIMIT 1")
	userDB.scopes = mustPrepare(db, "SELECT project, scope FROM usr_scope WHERE userId = ? ORDER BY project, scope")
	userDB.setPassword = mustPrepare(db, "UPDATE usr SET password = ? WHERE id = ?")
	return userDB
}

func (db *UserDB) now() time.Time {
	if db.Now != nil {
		return db.Now()
	}
	return time.Now()
}

func (db *UserDB) AddScope(u *core.User, project, scope string) error {
	if _, err := db.addScope.Exec(u.ID, project, scope); err != nil {
		return err
	}
	if u.Scopes == nil {
		u.Scopes = make(map[string][]string)
	}
	if !u.HasScope(project, scope) {
		u.Scopes[project] = append(u.Scopes[project], scope)
	}
	return nil
}

func (db *UserDB) FindToken(token string) (*core.User, error) {
	var id int
	err := db.findToken.QueryRow(token, db.now().Unix()).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("token", "")
	}
	if err != nil {
		return nil, err
	}
	return db.GetUser(id)
}

func (db *UserDB) scanUser(row *sql.Row, id string) (*core.User, error) {
	var u = &core.User{}
	err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.Email, &u.IsAdmin)
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("user", id)
	}
	if err != nil {
		return nil, err
	}
	return u, db.loadScopes(u)
}

func (db *UserDB) loadScopes(u *core.User) error {
	rows, err := db.scopes.Query(u.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	u.Scopes = make(map[string][]string)
	for rows.Next() {
		var project, scope string
		if err := rows.Scan(&project, &scope); err != nil {
			return err
		}
		u.Scopes[project] = append(u.Scopes[project], scope)
	}
	return rows.Err()
}

func (db *UserDB) GetUser(id int) (*core.User, error) {
	return db.scanUser(db.get.QueryRow(id), "")
}

func (db *UserDB) GetUserByName(name string) (*core.User, error) {
	name = clean(name)
	return db.scanUser(db.getByName.QueryRow(name), name)
}

func (db *UserDB) InsertToken(u *core.User, token string, expires time.Time) error {
	_, err := db.insertToken.Exec(token, u.ID, expires.Unix())
	return err
}

func (db *UserDB) InsertUser(name string, isAdmin bool) (*core.User, error) {
	name = clean(name)
	if name == "" {
		return nil, &core.ValidationError{Field: "name", Reason: "is empty"}
	}
	if _, err := db.insert.Exec(name, isAdmin); err != nil {
		return nil, err
	}
	return db.GetUserByName(name)
}

func (db *UserDB) LoginUser(name, password string) (*core.User, error) {

	name = clean(name)

	var id int
	var hash string
	err := db.login.QueryRow(name).Scan(&id, &hash)
	if err == sql.ErrNoRows {
		return nil, ErrAuth // user not found
	}
	if err != nil {
		return nil, err
	}
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrAuth // wrong password
	}

	return db.GetUser(id)
}

func (db *UserDB) SetPassword(u *core.User, password string) error {

	if password == "" {
		return errors.New("no password given")
	}

	if u.ID == 0 {
		return errors.New("can't set password of user 0")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = db.setPassword.Exec(string(hash), u.ID)
	return err
}
