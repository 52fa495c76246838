// Package social implements mention extraction and fan-out: @handles in
// session notes are scanned out, resolved to users in one batch lookup,
// and written as mention rows.
package social

import (
	"strings"
	"time"

	"github.com/stillpoint-app/stillpoint/internal/infra/metrics"
	"github.com/stillpoint-app/stillpoint/internal/infra/sqlite"
)

// Fanout resolves mentions from note text and persists them.
type Fanout struct {
	db *sqlite.DB
}

// NewFanout creates a mention fan-out service.
func NewFanout(db *sqlite.DB) *Fanout {
	return &Fanout{db: db}
}

// ExtractMentions scans text for @handle tokens. Handles are lowercase
// alphanumerics plus underscore, at least one character, preceded by
// start-of-text or a non-handle character. Duplicates are collapsed,
// first occurrence wins.
func ExtractMentions(text string) []string {
	var handles []string
	seen := make(map[string]bool)

	for i := 0; i < len(text); i++ {
		if text[i] != '@' {
			continue
		}
		if i > 0 && isHandleChar(text[i-1]) {
			continue // email-like "a@b" — not a mention
		}
		j := i + 1
		for j < len(text) && isHandleChar(text[j]) {
			j++
		}
		if j == i+1 {
			continue // bare "@"
		}
		handle := strings.ToLower(text[i+1 : j])
		if !seen[handle] {
			seen[handle] = true
			handles = append(handles, handle)
		}
		i = j - 1
	}
	return handles
}

func isHandleChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// FanOut extracts mentions from the note, resolves them against the
// user table in one batch, filters out the author mentioning themselves
// and unknown handles, and bulk-writes the surviving mention rows.
// Returns the user IDs that were mentioned.
func (f *Fanout) FanOut(sessionID, authorID, notes string, at time.Time) ([]string, error) {
	handles := ExtractMentions(notes)
	if len(handles) == 0 {
		return nil, nil
	}

	resolved, err := f.db.UsersByHandles(handles)
	if err != nil {
		return nil, err
	}

	var rows []sqlite.Mention
	var mentioned []string
	for _, handle := range handles {
		userID, ok := resolved[handle]
		if !ok || userID == authorID {
			continue
		}
		rows = append(rows, sqlite.Mention{
			SessionID:   sessionID,
			AuthorID:    authorID,
			MentionedID: userID,
			CreatedAt:   at,
		})
		mentioned = append(mentioned, userID)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	if err := f.db.InsertMentions(rows); err != nil {
		return nil, err
	}
	metrics.MentionsFannedOut.Add(float64(len(rows)))
	return mentioned, nil
}
