// Package mssql implements store.LedgerStore against SQL Server, replacing
// the teacher's jackc/pgx/v5 Postgres stack (DESIGN.md: the one unavoidable
// driver swap — SQL Server is what spec.md mandates).
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/microsoft/go-mssqldb"
)

// Config holds the connection parameters consumed by NewPool.
type Config struct {
	Server   string
	Database string
	User     string
	Password string
}

// NewPool opens a *sql.DB against SQL Server and tunes it the way the
// teacher tunes its pgxpool.Config (max/idle connections, lifetime, a
// ping-based startup check with a bounded timeout).
func NewPool(ctx context.Context, cfg Config) (*sql.DB, error) {
	dsn := dsnFor(cfg)

	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return db, nil
}

func dsnFor(cfg Config) string {
	u := &url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   cfg.Server,
	}
	q := u.Query()
	q.Set("database", cfg.Database)
	u.RawQuery = q.Encode()
	return u.String()
}
