package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	db "github.com/iqbalbaharum/hyper-sdk/internal/database"
)

// NewMySQLClient connects, then creates the database and runs migrations.
func NewMySQLClient(ctx context.Context, dsn, dbName, migrationsDir string) (*db.Database, error) {
	if dsn == "" {
		return nil, errors.New("MySQL DSN is empty")
	}

	client, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	if err := client.PingContext(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	database, err := db.NewDatabase(client, dbName)
	if err != nil {
		client.Close()
		return nil, err
	}

	if err := database.CreateDatabaseAndTable(migrationsDir); err != nil {
		client.Close()
		return nil, err
	}

	return database, nil
}
