package database

// Persistence for the notebook hub: saved session state, users, and who may
// open which notebook. The hub works fine without a database attached; these
// functions only run when one is.

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/crypto/bcrypt"

	"github.com/paiml/ruchy-sub025/source/text"

	// SQL drivers

	_ "github.com/go-sql-driver/mysql"  // MariaDB & MySQL
	_ "github.com/lib/pq"               // Postgres
	_ "github.com/microsoft/go-mssqldb" // SQL Server
	_ "github.com/nakagami/firebirdsql" // Firebird
	_ "github.com/sijms/go-ora"         // Oracle
	_ "modernc.org/sqlite"              // SQLite
)

var drivers = map[string]string{"Firebird SQL": "firebirdsql", "MariaDB": "mysql", "MySQL": "mysql",
	"Oracle": "oracle", "Postgres": "postgres", "SQLite": "sqlite", "SQL Server": "sqlserver"}

func GetdB(driver, host, port, db, user, password string) (*sql.DB, error) {
	var connectionString string
	if drivers[driver] == "sqlite" {
		connectionString = db
	} else {
		connectionString = fmt.Sprintf("host=%v port=%v dbname=%v user=%v password=%v sslmode=disable",
			host, port, db, user, password)
	}

	sqlObj, connectionError := sql.Open(drivers[driver], connectionString)
	if connectionError != nil {
		return nil, connectionError
	}

	if err := sqlObj.Ping(); err != nil {
		return nil, err
	}

	return sqlObj, nil
}

func GetDriverOptions() string {
	result := "The following SQL drivers are available: \n\n"
	for k, v := range GetSortedDrivers() {
		result = result + fmt.Sprintf("  [%v] %v\n", k, v)
	}
	return result + "\nPick a number"
}

func GetSortedDrivers() []string {
	dr := []string{}
	for k := range drivers {
		dr = append(dr, k)
	}
	sort.Strings(dr)
	return dr
}

// InitTables creates the hub's tables if they don't exist.
func InitTables(db *sql.DB) error {
	query :=
		`CREATE TABLE IF NOT EXISTS _Sessions (
    sessionName varchar(64),
    state text,
PRIMARY KEY (sessionName));

CREATE TABLE IF NOT EXISTS _Users (
    username varchar(32),
    email varchar(60),
    password varchar(60),
PRIMARY KEY (username));

CREATE TABLE IF NOT EXISTS _SessionAccess (
    username varchar(32) REFERENCES _Users ON DELETE CASCADE,
    sessionName varchar(64) REFERENCES _Sessions ON DELETE CASCADE,
    owner BOOLEAN DEFAULT FALSE,
PRIMARY KEY (username, sessionName));`
	_, err := db.Exec(query)
	return err
}

// SaveSession upserts a session's exported state under its name.
func SaveSession(db *sql.DB, sessionName string, state []byte) error {
	query :=
		`INSERT INTO _Sessions(sessionName, state)
VALUES ($1, $2)
ON CONFLICT (sessionName) DO UPDATE SET state = $2`
	_, err := db.Exec(query, sessionName, string(state))
	return err
}

// LoadSession fetches a saved session's exported state.
func LoadSession(db *sql.DB, sessionName string) ([]byte, error) {
	var state string
	row := db.QueryRow("SELECT state FROM _Sessions WHERE sessionName = $1", sessionName)
	if err := row.Scan(&state); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("no saved session called '" + sessionName + "'")
		}
		return nil, err
	}
	return []byte(state), nil
}

func DeleteSession(db *sql.DB, sessionName string) error {
	_, err := db.Exec("DELETE FROM _Sessions WHERE sessionName = $1", sessionName)
	return err
}

// ListSessions describes the saved sessions in a form the hub can print.
func ListSessions(db *sql.DB) (string, error) {
	rows, err := db.Query("SELECT sessionName FROM _Sessions")
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return "", err
		}
		names = append(names, name)
	}

	if len(names) == 0 {
		return "There are no saved sessions.", nil
	}

	sort.Strings(names)
	result := "\nThe following sessions are saved:\n\n"
	for _, v := range names {
		result = result + text.BULLET + v + "\n"
	}
	return result + "\n", nil
}

func AddUser(db *sql.DB, username, email, password string) error {
	query :=
		`INSERT INTO _Users(username, email, password)
	VALUES ($1, $2, $3)`
	_, err := db.Exec(query, username, email, encrypt(password))
	return err
}

func ValidateUser(db *sql.DB, username, password string) error {
	var hash string
	row := db.QueryRow("SELECT password FROM _Users WHERE username = $1", username)
	if err := row.Scan(&hash); err != nil {
		return errors.New("the hub doesn't recognize that combination of username and password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return errors.New("the hub doesn't recognize that combination of username and password")
	}
	return nil
}

// LetUserOpenSession grants access; owner also allows save and delete.
func LetUserOpenSession(db *sql.DB, username, sessionName string, owner bool) error {
	query :=
		`INSERT INTO _SessionAccess(username, sessionName, owner)
	VALUES ($1, $2, $3)`
	_, err := db.Exec(query, username, sessionName, owner)
	return err
}

func UnLetUserOpenSession(db *sql.DB, username, sessionName string) error {
	query :=
		`DELETE FROM _SessionAccess WHERE username = $1 AND sessionName = $2`
	_, err := db.Exec(query, username, sessionName)
	return err
}

func MayUserOpenSession(db *sql.DB, username, sessionName string) (bool, error) {
	var count int
	row := db.QueryRow("SELECT COUNT (*) FROM _SessionAccess WHERE username = $1 AND sessionName = $2",
		username, sessionName)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count == 1, nil
}

func IsUserSessionOwner(db *sql.DB, username, sessionName string) error {
	var count int
	row := db.QueryRow("SELECT COUNT (*) FROM _SessionAccess WHERE username = $1 AND sessionName = $2 AND owner = TRUE",
		username, sessionName)
	if err := row.Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return errors.New("you aren't an owner of the session '" + sessionName + "'")
	}
	return nil
}

// GetSessionsOfUser describes the sessions a user can open, for the hub to
// print.
func GetSessionsOfUser(db *sql.DB, username string) (string, error) {
	rows, err := db.Query("SELECT sessionName, owner FROM _SessionAccess WHERE username = $1", username)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	owned := []string{}
	shared := []string{}
	for rows.Next() {
		var name string
		var owner bool
		if err := rows.Scan(&name, &owner); err != nil {
			return "", err
		}
		if owner {
			owned = append(owned, name)
		} else {
			shared = append(shared, name)
		}
	}

	if len(owned) == 0 && len(shared) == 0 {
		return text.Emph(username) + " has no sessions.", nil
	}

	result := "\n"
	sort.Strings(owned)
	if len(owned) > 0 {
		result = result + text.Emph(username) + " owns the following sessions:\n\n"
		for _, v := range owned {
			result = result + text.BULLET + v + "\n"
		}
		result = result + "\n"
	}
	sort.Strings(shared)
	if len(shared) > 0 {
		result = result + text.Emph(username) + " can open the following sessions:\n\n"
		for _, v := range shared {
			result = result + text.BULLET + v + "\n"
		}
		result = result + "\n"
	}
	return result, nil
}

func encrypt(s string) string {
	result, _ := bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
	return string(result)
}
