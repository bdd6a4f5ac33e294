package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Rrens/auditlens/internal/config"
	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour used by the repository
type Dialect string

const (
	DialectSQLite Dialect = "sqlite"
	DialectMySQL  Dialect = "mysql"
)

// DB wraps a database/sql handle together with its dialect
type DB struct {
	*sql.DB
	dialect Dialect
}

// OpenSQLite opens (or creates) the embedded transcript database
func OpenSQLite(ctx context.Context, path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)

	return initDB(ctx, db, DialectSQLite)
}

// OpenMySQL connects to a MySQL server holding the transcript table
func OpenMySQL(ctx context.Context, cfg config.MySQLConfig) (*DB, error) {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = cfg.Addr()
	mc.DBName = cfg.Database
	mc.ParseTime = true

	db, err := sql.Open("mysql", mc.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return initDB(ctx, db, DialectMySQL)
}

func initDB(ctx context.Context, db *sql.DB, dialect Dialect) (*DB, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, db, dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DB{DB: db, dialect: dialect}, nil
}

func runMigrations(ctx context.Context, db *sql.DB, dialect Dialect) error {
	var migrations []string
	switch dialect {
	case DialectMySQL:
		migrations = []string{
			`CREATE TABLE IF NOT EXISTS transcripts (
				session_id VARCHAR(128) NOT NULL PRIMARY KEY,
				data LONGTEXT NOT NULL,
				updated_at DATETIME(6) NOT NULL
			)`,
		}
	default:
		migrations = []string{
			`CREATE TABLE IF NOT EXISTS transcripts (
				session_id TEXT PRIMARY KEY,
				data TEXT NOT NULL,
				updated_at DATETIME NOT NULL
			)`,
		}
	}

	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
