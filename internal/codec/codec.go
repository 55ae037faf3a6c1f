// Package codec implements the single-line text format shared by the
// file-backed store and rendered history output:
//
//	[YYYY-MM-DD HH:MM:SS] username: text
//
// Encoding is lossy on purpose: usernames or texts containing ": " or
// newlines will not round-trip. Decoding is tolerant and never fails.
package codec

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/chatboard/chatboard-server/internal/chat"
)

// TimeLayout is the timestamp layout used inside encoded lines. No timezone,
// second precision, zero-padded.
const TimeLayout = "2006-01-02 15:04:05"

// MaxLineBytes is the scanner cap for one stored line. Message text is
// unbounded, so this sits far above bufio's 64KB default.
const MaxLineBytes = 16 << 20

// NewLineScanner returns a line scanner for stored chat files, sized so that
// lines longer than bufio's default token limit still read back.
func NewLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), MaxLineBytes)
	return scanner
}

// Encode renders m as one line, without a trailing newline.
func Encode(m chat.Message) string {
	return fmt.Sprintf("[%s] %s: %s", m.Timestamp.Format(TimeLayout), m.Username, m.Text)
}

// matcher attempts one recovery tier. It returns the decoded message and
// whether the tier matched.
type matcher func(line string, fallback time.Time) (chat.Message, bool)

// tiers are tried in order before falling through to matchBare, which always
// matches, so every non-blank line decodes to something. The order is the
// canonical recovery policy for lines that predate or deviate from the
// current encoding.
var tiers = []matcher{matchEncoded, matchNamed}

var encodedLine = regexp.MustCompile(`^\[(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\]\s+([^:]+):\s+(.*)$`)

// Decode parses one stored line. fallback is substituted when the line
// carries no recoverable timestamp (typically the source file's mtime).
// The returned message has no room set; that is the caller's context.
func Decode(line string, fallback time.Time) chat.Message {
	line = strings.TrimRight(line, "\r\n")
	for _, match := range tiers {
		if m, ok := match(line, fallback); ok {
			return m
		}
	}
	m, _ := matchBare(line, fallback)
	return m
}

// matchEncoded handles lines in the current encode format.
func matchEncoded(line string, _ time.Time) (chat.Message, bool) {
	groups := encodedLine.FindStringSubmatch(line)
	if groups == nil {
		return chat.Message{}, false
	}
	ts, err := time.ParseInLocation(TimeLayout, groups[1], time.Local)
	if err != nil {
		return chat.Message{}, false
	}
	return chat.Message{
		Timestamp: ts,
		Username:  strings.TrimSpace(groups[2]),
		Text:      strings.TrimSpace(groups[3]),
	}, true
}

// matchNamed handles bare "name: message" lines from before timestamps were
// written.
func matchNamed(line string, fallback time.Time) (chat.Message, bool) {
	name, text, found := strings.Cut(line, ": ")
	if !found {
		return chat.Message{}, false
	}
	return chat.Message{
		Timestamp: fallback,
		Username:  strings.TrimSpace(name),
		Text:      strings.TrimSpace(text),
	}, true
}

// matchBare treats the whole line as message text.
func matchBare(line string, fallback time.Time) (chat.Message, bool) {
	return chat.Message{
		Timestamp: fallback,
		Username:  chat.AnonymousUser,
		Text:      strings.TrimSpace(line),
	}, true
}
