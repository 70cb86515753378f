package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Scorecard Validation Tests
// =============================================================================

func validScorecard() *Scorecard {
	return &Scorecard{
		RoomID: "room-1",
		Kind:   KindSales,
		Feedback: []FeedbackItem{
			{ShortFeedback: "Good opener", LongFeedback: "The first turn framed value well."},
		},
	}
}

func TestScorecard_Validate(t *testing.T) {
	assert.NoError(t, validScorecard().Validate())
}

func TestScorecard_Validate_MissingRoomID(t *testing.T) {
	card := validScorecard()
	card.RoomID = ""
	assert.ErrorIs(t, card.Validate(), ErrRoomIDRequired)
}

func TestScorecard_Validate_InvalidKind(t *testing.T) {
	card := validScorecard()
	card.Kind = Kind("support")
	assert.ErrorIs(t, card.Validate(), ErrInvalidKind)
}

func TestScorecard_Validate_NoFeedback(t *testing.T) {
	card := validScorecard()
	card.Feedback = nil
	assert.ErrorIs(t, card.Validate(), ErrFeedbackRequired)
}
