// Package migrate moves room histories out of the flat-file store into the
// table store. It is a one-shot batch job: re-running it against an
// already-imported dataset duplicates rows, as there is no dedup key.
package migrate

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/chatboard/chatboard-server/internal/chat"
	"github.com/chatboard/chatboard-server/internal/codec"
	"github.com/chatboard/chatboard-server/internal/store"
	"github.com/chatboard/chatboard-server/internal/store/file"
)

// Job imports every chat_*.txt room file under a directory into a target
// store, preserving the timestamps recovered from each line.
type Job struct {
	source *file.Store
	target store.Importer
	log    *zerolog.Logger
}

// NewJob builds a migration job reading room files from dir.
func NewJob(dir string, target store.Importer, logger *zerolog.Logger) (*Job, error) {
	src, err := file.New(dir)
	if err != nil {
		return nil, err
	}
	return &Job{source: src, target: target, log: logger}, nil
}

// Run performs the import. Each file is committed in its own transaction,
// so a retry after a mid-job failure re-imports only whole files. A file
// that cannot be read is logged and skipped; a malformed line never fails
// the job, because the codec's final tier decodes any line.
func (j *Job) Run(ctx context.Context) error {
	if err := j.target.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure target schema: %w", err)
	}

	rooms, err := j.source.RoomFiles()
	if err != nil {
		return fmt.Errorf("enumerate room files: %w", err)
	}
	j.log.Info().Int("files", len(rooms)).Msg("found chat files to import")

	var imported, skipped int
	for room, path := range rooms {
		count, err := j.importFile(ctx, room, path)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			j.log.Warn().Err(err).Str("file", path).Msg("skipping unreadable chat file")
			skipped++
			continue
		}
		j.log.Info().Str("room", room).Str("file", path).Int("messages", count).Msg("imported chat file")
		imported++
	}

	j.log.Info().Int("imported", imported).Int("skipped", skipped).Msg("migration complete")
	return nil
}

// importFile decodes one room file and lands it in a single transaction.
// Lines without a parseable timestamp get the file's mtime.
func (j *Job) importFile(ctx context.Context, room, path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat: %w", err)
	}
	fallback := info.ModTime().Truncate(time.Second)

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

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
		return 0, fmt.Errorf("read: %w", err)
	}

	if err := j.target.ImportBatch(ctx, msgs); err != nil {
		return 0, fmt.Errorf("import: %w", err)
	}
	return len(msgs), nil
}
