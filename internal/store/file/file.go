// Package file implements the flat-file room store: one append-only UTF-8
// text file per room, named chat_<room>.txt, one encoded line per message.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chatboard/chatboard-server/internal/chat"
	"github.com/chatboard/chatboard-server/internal/codec"
)

const (
	filePrefix = "chat_"
	fileSuffix = ".txt"
)

// Store keeps each room's history in an append-only text file under Dir.
type Store struct {
	dir string
}

// New creates a file store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Append writes one encoded line to the room's file, creating it on first
// write, and syncs before returning so the record is durable. There is no
// locking across writers: each line is written with a single Write call on an
// O_APPEND descriptor, which keeps short lines atomic on POSIX filesystems,
// but concurrent processes appending to the same room are otherwise
// unmanaged.
func (s *Store) Append(ctx context.Context, room, username, text string) (chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return chat.Message{}, err
	}
	if err := chat.ValidateRoom(room); err != nil {
		return chat.Message{}, err
	}

	msg := chat.New(room, username, text, time.Now())

	f, err := os.OpenFile(s.roomPath(room), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return chat.Message{}, fmt.Errorf("open room file: %w", err)
	}
	if _, err := f.Write([]byte(codec.Encode(msg) + "\n")); err != nil {
		f.Close()
		return chat.Message{}, fmt.Errorf("append to room file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return chat.Message{}, fmt.Errorf("sync room file: %w", err)
	}
	if err := f.Close(); err != nil {
		return chat.Message{}, fmt.Errorf("close room file: %w", err)
	}
	return msg, nil
}

// History reads the room's file and decodes each non-empty line in file
// order. File order is append order; lines are not re-sorted, so a line
// written out of order stays out of order. A missing file is an empty
// history. Lines without a parseable timestamp fall back to the file's
// modification time.
func (s *Store) History(ctx context.Context, room string) ([]chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := chat.ValidateRoom(room); err != nil {
		return nil, err
	}

	path := s.roomPath(room)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []chat.Message{}, nil
		}
		return nil, fmt.Errorf("open room file: %w", err)
	}
	defer f.Close()

	fallback := time.Now()
	if info, err := f.Stat(); err == nil {
		fallback = info.ModTime().Truncate(time.Second)
	}

	var msgs []chat.Message
	scanner := codec.NewLineScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		msg := codec.Decode(line, fallback)
		msg.Room = room
		msgs = append(msgs, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read room file: %w", err)
	}
	if msgs == nil {
		msgs = []chat.Message{}
	}
	return msgs, nil
}

// Close is a no-op; the store holds no open handles between calls.
func (s *Store) Close() error {
	return nil
}

// RoomFiles lists the room files currently present under the store's
// directory, mapping each to its room identifier. Used by the migration job
// to enumerate what there is to import.
func (s *Store) RoomFiles() (map[string]string, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, filePrefix+"*"+fileSuffix))
	if err != nil {
		return nil, fmt.Errorf("glob room files: %w", err)
	}
	rooms := make(map[string]string, len(paths))
	for _, path := range paths {
		base := filepath.Base(path)
		room := strings.TrimSuffix(strings.TrimPrefix(base, filePrefix), fileSuffix)
		if room == "" {
			continue
		}
		rooms[room] = path
	}
	return rooms, nil
}

func (s *Store) roomPath(room string) string {
	return filepath.Join(s.dir, filePrefix+room+fileSuffix)
}
