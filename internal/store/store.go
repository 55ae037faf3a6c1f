package store

import (
	"context"

	"github.com/chatboard/chatboard-server/internal/chat"
)

// Store is the room history contract. Two implementations exist: the
// file-backed store (one append-only text file per room) and the table-backed
// store (one relational table, room as an indexed column). The backend is
// selected once at startup by configuration.
type Store interface {
	// Append persists one message for room with a store-assigned wall-clock
	// timestamp. Username and text may be empty; defaults are substituted
	// before storage. The message is durable before Append returns, and a
	// subsequent History call from the same process observes it. The committed
	// message is returned.
	Append(ctx context.Context, room, username, text string) (chat.Message, error)

	// History returns room's full message history ordered by timestamp
	// ascending, ties broken by insertion order. A room that has never been
	// written to yields an empty slice, not an error.
	History(ctx context.Context, room string) ([]chat.Message, error)

	// Close releases the backing resource.
	Close() error
}

// Importer is implemented by stores that can accept replayed historical
// messages with their original timestamps intact, bypassing Append's
// assign-at-commit behavior. The whole batch lands in a single transaction so
// a failed migration run never leaves part of a file behind.
type Importer interface {
	// EnsureSchema creates the backing schema if it does not exist yet.
	EnsureSchema(ctx context.Context) error

	// ImportBatch inserts msgs, preserving their timestamps and order, in one
	// transaction.
	ImportBatch(ctx context.Context, msgs []chat.Message) error
}
