package chat

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// AnonymousUser is substituted when a message carries no username.
const AnonymousUser = "Anonymous"

// ErrInvalidRoom is returned for room identifiers that are empty or unsafe
// to use as a filename segment or an indexed column value.
var ErrInvalidRoom = errors.New("invalid room identifier")

// Room identifiers become part of on-disk filenames, so anything that could
// escape the data directory (separators, "..", control characters) is rejected
// outright rather than sanitized.
var roomPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Message is one persisted chat message. Messages are immutable once stored;
// stores hand out copies, never handles into their own state.
type Message struct {
	Room      string
	Timestamp time.Time
	Username  string
	Text      string
}

// New builds a message from raw request input. Username and text are trimmed,
// a missing username becomes AnonymousUser, and the timestamp is truncated to
// second precision (the resolution of the line format).
func New(room, username, text string, ts time.Time) Message {
	username = strings.TrimSpace(username)
	if username == "" {
		username = AnonymousUser
	}
	return Message{
		Room:      room,
		Timestamp: ts.Truncate(time.Second),
		Username:  username,
		Text:      strings.TrimSpace(text),
	}
}

// ValidateRoom reports whether room is acceptable as a storage key.
func ValidateRoom(room string) error {
	if !roomPattern.MatchString(room) {
		return ErrInvalidRoom
	}
	return nil
}
