package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/xo/dburl"
)

// Drivers suportados pelo store
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

func ConnectPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open(DriverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// ConnectSQLite abre (ou cria) o arquivo SQLite local.
// SQLite só aceita um escritor, então o pool fica em uma conexão.
func ConnectSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open(DriverSQLite, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return db, nil
}

// Open resolve a URL (dburl) e conecta no driver correspondente.
// Retorna também o nome do driver para o store escolher o dialeto.
func Open(url string) (*sql.DB, string, error) {
	u, err := dburl.Parse(url)
	if err != nil {
		return nil, "", fmt.Errorf("parse store url: %w", err)
	}

	switch u.Driver {
	case DriverPostgres:
		db, err := ConnectPostgres(u.DSN)
		return db, DriverPostgres, err
	case DriverSQLite:
		db, err := ConnectSQLite(u.DSN)
		return db, DriverSQLite, err
	default:
		return nil, "", fmt.Errorf("unsupported store driver %q", u.Driver)
	}
}
