package dashboard

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// MySQLConfig represents the MySQL configuration. An empty DSN disables
// history persistence.
type MySQLConfig struct {
	DSN string `yaml:"dsn"`
}

// NewDbConnection opens and verifies a connection using the configured DSN
func NewDbConnection(config MySQLConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("database connection error: %s", err)
	}

	// A single writer goroutine inserts readings; no pool needed.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()

		return nil, fmt.Errorf("database connection error: %s", err)
	}

	return db, nil
}
