package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrRoomIDRequired     = errors.New("room_id is required")
	ErrTranscriptEmpty    = errors.New("transcript has no entries")
	ErrEntryRoleRequired  = errors.New("transcript entry role is required")
	ErrKindUndeterminable = errors.New("transcript kind missing and no prompt_type marker found")
)

// =============================================================================
// Transcript
// =============================================================================

// Entry is a single turn in a conversation transcript.
// Role is "system", "user", or "assistant" as recorded by the voice bot.
type Entry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Transcript holds the full conversation of a finished roleplay room.
// System entries carry the scenario context used when formatting for scoring.
type Transcript struct {
	RoomID    string    `json:"room_id"`
	Kind      Kind      `json:"kind"`
	Entries   []Entry   `json:"entries"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTranscript creates a transcript, resolving the kind from a prompt_type
// marker in the system entries when none is given explicitly.
// The marker is stripped from entry content, matching how the voice bot wrote it.
func NewTranscript(roomID string, kind Kind, entries []Entry) (*Transcript, error) {
	if roomID == "" {
		return nil, ErrRoomIDRequired
	}
	if len(entries) == 0 {
		return nil, ErrTranscriptEmpty
	}
	for _, e := range entries {
		if e.Role == "" {
			return nil, ErrEntryRoleRequired
		}
	}

	if kind == "" {
		marker, ok := extractPromptType(entries)
		if !ok {
			return nil, ErrKindUndeterminable
		}
		kind = marker
	}
	if !kind.IsValid() {
		return nil, ErrInvalidKind
	}

	return &Transcript{
		RoomID:    roomID,
		Kind:      kind,
		Entries:   stripPromptType(entries),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// =============================================================================
// Prompt-Type Marker (Pure)
// =============================================================================

// promptTypeRegex matches the trailing "prompt_type:<kind>" marker the voice
// bot appends to the system message.
var promptTypeRegex = regexp.MustCompile(`\.?\s*prompt_type:\s*([a-zA-Z]+)\s*$`)

// extractPromptType finds a prompt_type marker in a system entry.
func extractPromptType(entries []Entry) (Kind, bool) {
	for _, e := range entries {
		if e.Role != "system" {
			continue
		}
		if m := promptTypeRegex.FindStringSubmatch(e.Content); m != nil {
			return Kind(strings.ToLower(m[1])), true
		}
	}
	return "", false
}

// stripPromptType removes the marker from system entries, leaving the
// scenario context clean for scoring.
func stripPromptType(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		if e.Role == "system" {
			e.Content = strings.TrimSpace(promptTypeRegex.ReplaceAllString(e.Content, ""))
		}
		out[i] = e
	}
	return out
}
