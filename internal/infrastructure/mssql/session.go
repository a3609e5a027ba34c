package mssql

import (
	"context"
	"database/sql"
	"fmt"
)

// Session wraps a reserved *sql.Conn and the Ledger backed by it, giving
// each device supervisor (and the Janitor, per cycle) the dedicated
// connection spec §5 requires ("each worker owns a dedicated connection;
// connections are not shared across threads").
type Session struct {
	conn   *sql.Conn
	Ledger *Ledger
}

// OpenSession reserves a connection from the pool and wraps it in a
// Session. Callers must call Close when done.
func OpenSession(ctx context.Context, db *sql.DB) (*Session, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("reserve connection: %w", err)
	}
	return &Session{conn: conn, Ledger: NewLedger(conn)}, nil
}

// Close releases the reserved connection back to the pool.
func (s *Session) Close() error {
	return s.conn.Close()
}
