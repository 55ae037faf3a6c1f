// Package table implements the relational room store: every room's messages
// live in one messages table with room as an indexed column. It speaks
// database/sql and works against sqlite3 (default), mysql, and postgres;
// the driver and DSN come from configuration. MySQL DSNs must include
// parseTime=true so timestamps scan into time.Time.
package table

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/chatboard/chatboard-server/internal/chat"
)

// Store implements store.Store on top of a relational messages table.
type Store struct {
	db     *sql.DB
	driver string
}

// New opens a connection for the given driver ("sqlite3", "mysql",
// "postgres") and DSN.
func New(driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	// SQLite works best with a single connection.
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	return &Store{db: db, driver: driver}, nil
}

// NewWithSetup opens a store and runs a setup function before first use.
// Useful for tests to apply schema against an in-memory database.
func NewWithSetup(driver, dsn string, setup func(*sql.DB) error) (*Store, error) {
	st, err := New(driver, dsn)
	if err != nil {
		return nil, err
	}
	if setup != nil {
		if err := setup(st.db); err != nil {
			st.db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}
	return st, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the messages table and its indexes if absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaFor(s.driver) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Append inserts one row with a store-assigned timestamp. The insert is
// autocommitted, so the record is durable before Append returns; the
// auto-increment key fixes insertion order among equal timestamps.
func (s *Store) Append(ctx context.Context, room, username, text string) (chat.Message, error) {
	if err := chat.ValidateRoom(room); err != nil {
		return chat.Message{}, err
	}

	msg := chat.New(room, username, text, time.Now())
	query := s.rebind(`INSERT INTO messages (room, timestamp, username, text) VALUES (?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query, msg.Room, msg.Timestamp, msg.Username, msg.Text); err != nil {
		return chat.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

// History selects the room's rows ordered by timestamp, primary key breaking
// ties in insertion order. An unknown room yields an empty slice.
func (s *Store) History(ctx context.Context, room string) ([]chat.Message, error) {
	if err := chat.ValidateRoom(room); err != nil {
		return nil, err
	}

	query := s.rebind(`
		SELECT timestamp, username, text
		FROM messages
		WHERE room = ?
		ORDER BY timestamp ASC, id ASC
	`)
	rows, err := s.db.QueryContext(ctx, query, room)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	msgs := []chat.Message{}
	for rows.Next() {
		msg := chat.Message{Room: room}
		if err := rows.Scan(&msg.Timestamp, &msg.Username, &msg.Text); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Timestamp = msg.Timestamp.Truncate(time.Second)
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return msgs, nil
}

// ImportBatch inserts msgs with their timestamps preserved, all in a single
// transaction. Insertion order within the batch fixes the tie-break order.
func (s *Store) ImportBatch(ctx context.Context, msgs []chat.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO messages (room, timestamp, username, text) VALUES (?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("prepare import: %w", err)
	}
	defer stmt.Close()

	for _, msg := range msgs {
		if _, err := stmt.ExecContext(ctx, msg.Room, msg.Timestamp, msg.Username, msg.Text); err != nil {
			return fmt.Errorf("import message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import tx: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres; mysql and sqlite take
// the query as written.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func schemaFor(driver string) []string {
	switch driver {
	case "mysql":
		return []string{`
			CREATE TABLE IF NOT EXISTS messages (
				id        BIGINT PRIMARY KEY AUTO_INCREMENT,
				room      VARCHAR(64) NOT NULL,
				timestamp DATETIME NOT NULL,
				username  TEXT NOT NULL,
				text      LONGTEXT NOT NULL,
				INDEX idx_messages_room (room),
				INDEX idx_messages_timestamp (timestamp)
			)`,
		}
	case "postgres":
		return []string{
			`CREATE TABLE IF NOT EXISTS messages (
				id        BIGSERIAL PRIMARY KEY,
				room      VARCHAR(64) NOT NULL,
				timestamp TIMESTAMP NOT NULL,
				username  TEXT NOT NULL,
				text      TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_messages_room ON messages (room)`,
			`CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages (timestamp)`,
		}
	default: // sqlite3
		return []string{
			`CREATE TABLE IF NOT EXISTS messages (
				id        INTEGER PRIMARY KEY AUTOINCREMENT,
				room      TEXT NOT NULL,
				timestamp DATETIME NOT NULL,
				username  TEXT NOT NULL,
				text      TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_messages_room ON messages (room)`,
			`CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages (timestamp)`,
		}
	}
}
