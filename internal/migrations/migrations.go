package migrations

import (
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var schema embed.FS

// Run brings the record store schema up to date. Safe to call on every start.
func Run(db *sqlx.DB) error {
	goose.SetBaseFS(schema)
	goose.SetLogger(gooseLogger{})

	dialect := "sqlite3"
	if db.DriverName() == "pgx" {
		dialect = "postgres"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.Up(db.DB, "sql"); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	slog.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrations")
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	panic(fmt.Sprintf(format, v...))
}
