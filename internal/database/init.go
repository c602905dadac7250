package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

var dbNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

type Database struct {
	dbName      string
	MysqlClient *sql.DB
}

func NewDatabase(client *sql.DB, dbName string) (*Database, error) {
	if !dbNamePattern.MatchString(dbName) {
		return nil, fmt.Errorf("invalid database name %q", dbName)
	}

	return &Database{
		dbName:      dbName,
		MysqlClient: client,
	}, nil
}

// CreateDatabaseAndTable creates the database when missing, switches to it,
// and runs every .sql file in migrationsDir in name order.
func (d *Database) CreateDatabaseAndTable(migrationsDir string) error {
	if _, err := d.MysqlClient.Exec("CREATE DATABASE IF NOT EXISTS " + d.dbName); err != nil {
		return fmt.Errorf("failed to create db %s: %w", d.dbName, err)
	}

	if _, err := d.MysqlClient.Exec("USE " + d.dbName); err != nil {
		return fmt.Errorf("failed to use db %s: %w", d.dbName, err)
	}

	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		c, err := os.ReadFile(filepath.Join(migrationsDir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		if _, err := d.MysqlClient.Exec(string(c)); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", name, err)
		}
	}

	return nil
}
