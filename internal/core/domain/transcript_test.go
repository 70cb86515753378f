package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Transcript Creation Tests
// =============================================================================

func TestNewTranscript_ExplicitKind(t *testing.T) {
	transcript, err := NewTranscript("room-1", KindSales, []Entry{
		{Role: "user", Content: "hello"},
	})
	require.NoError(t, err)

	assert.Equal(t, "room-1", transcript.RoomID)
	assert.Equal(t, KindSales, transcript.Kind)
	assert.NotZero(t, transcript.CreatedAt)
}

func TestNewTranscript_MissingRoomID(t *testing.T) {
	_, err := NewTranscript("", KindSales, []Entry{{Role: "user", Content: "hi"}})
	assert.ErrorIs(t, err, ErrRoomIDRequired)
}

func TestNewTranscript_NoEntries(t *testing.T) {
	_, err := NewTranscript("room-1", KindSales, nil)
	assert.ErrorIs(t, err, ErrTranscriptEmpty)
}

func TestNewTranscript_EntryWithoutRole(t *testing.T) {
	_, err := NewTranscript("room-1", KindSales, []Entry{{Content: "hi"}})
	assert.ErrorIs(t, err, ErrEntryRoleRequired)
}

func TestNewTranscript_InvalidKind(t *testing.T) {
	_, err := NewTranscript("room-1", Kind("support"), []Entry{{Role: "user", Content: "hi"}})
	assert.ErrorIs(t, err, ErrInvalidKind)
}

// =============================================================================
// Prompt-Type Marker Tests
// =============================================================================

func TestNewTranscript_KindFromMarker(t *testing.T) {
	transcript, err := NewTranscript("room-1", "", []Entry{
		{Role: "system", Content: "You are a skeptical buyer. prompt_type: sales"},
		{Role: "user", Content: "hello"},
	})
	require.NoError(t, err)

	assert.Equal(t, KindSales, transcript.Kind)
	// Marker is stripped from the stored system entry, along with the
	// period the voice bot glues it onto
	assert.Equal(t, "You are a skeptical buyer", transcript.Entries[0].Content)
}

func TestNewTranscript_MarkerCaseInsensitive(t *testing.T) {
	transcript, err := NewTranscript("room-1", "", []Entry{
		{Role: "system", Content: "Persona here prompt_type: Customer"},
		{Role: "user", Content: "hello"},
	})
	require.NoError(t, err)

	assert.Equal(t, KindCustomer, transcript.Kind)
}

func TestNewTranscript_MarkerOnlyInSystemEntries(t *testing.T) {
	// A marker-looking string in a user turn does not determine the kind
	_, err := NewTranscript("room-1", "", []Entry{
		{Role: "user", Content: "what does prompt_type: sales mean?"},
	})
	assert.ErrorIs(t, err, ErrKindUndeterminable)
}

func TestNewTranscript_NoMarkerNoKind(t *testing.T) {
	_, err := NewTranscript("room-1", "", []Entry{
		{Role: "system", Content: "You are a buyer."},
		{Role: "user", Content: "hello"},
	})
	assert.ErrorIs(t, err, ErrKindUndeterminable)
}

func TestNewTranscript_MarkerWithInvalidKind(t *testing.T) {
	_, err := NewTranscript("room-1", "", []Entry{
		{Role: "system", Content: "Persona. prompt_type: support"},
	})
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestStripPromptType_PreservesOtherEntries(t *testing.T) {
	transcript, err := NewTranscript("room-1", "", []Entry{
		{Role: "system", Content: "Persona. prompt_type: sales"},
		{Role: "assistant", Content: "What brings you in?"},
		{Role: "user", Content: "Pricing questions."},
	})
	require.NoError(t, err)

	require.Len(t, transcript.Entries, 3)
	assert.Equal(t, "Persona", transcript.Entries[0].Content)
	assert.Equal(t, "What brings you in?", transcript.Entries[1].Content)
	assert.Equal(t, "Pricing questions.", transcript.Entries[2].Content)
}
