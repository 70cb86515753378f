package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchlab/pitchlab/internal/core/domain"
)

// =============================================================================
// Metric Registry Tests
// =============================================================================

func TestMetricsFor_Sales(t *testing.T) {
	metrics := MetricsFor(domain.KindSales)
	assert.Len(t, metrics, 9)
	assert.Contains(t, metrics, MetricPitchQuality)
	assert.NotContains(t, metrics, MetricEmpathyScore)
}

func TestMetricsFor_Customer(t *testing.T) {
	metrics := MetricsFor(domain.KindCustomer)
	assert.Len(t, metrics, 15)
	assert.Contains(t, metrics, MetricEmpathyScore)
	assert.NotContains(t, metrics, MetricPitchQuality)
}

func TestMetricsFor_InvalidKind(t *testing.T) {
	assert.Nil(t, MetricsFor(domain.Kind("support")))
}

func TestMetricsFor_ReturnsCopy(t *testing.T) {
	metrics := MetricsFor(domain.KindSales)
	metrics[0] = "mutated"
	assert.Equal(t, MetricProductKnowledge, MetricsFor(domain.KindSales)[0])
}

func TestIsKnownMetric(t *testing.T) {
	assert.True(t, IsKnownMetric(MetricPitchQuality))
	assert.True(t, IsKnownMetric(MetricEngagement))
	assert.True(t, IsKnownMetric(MetricFeedback))
	assert.False(t, IsKnownMetric("vibes"))
}

// =============================================================================
// Transcript Formatting Tests
// =============================================================================

func TestFormatTranscript(t *testing.T) {
	transcript := &domain.Transcript{
		RoomID: "room-1",
		Kind:   domain.KindSales,
		Entries: []domain.Entry{
			{Role: "system", Content: "You are a skeptical buyer."},
			{Role: "assistant", Content: "Why should I switch?"},
			{Role: "user", Content: "We cut onboarding time in half."},
		},
	}

	got := FormatTranscript(transcript)
	want := "Context:\nYou are a skeptical buyer.\n\nConversation:\n" +
		"assistant: Why should I switch?\n" +
		"user: We cut onboarding time in half."
	assert.Equal(t, want, got)
}

func TestFormatTranscript_LastSystemEntryWins(t *testing.T) {
	transcript := &domain.Transcript{
		Entries: []domain.Entry{
			{Role: "system", Content: "Persona."},
			{Role: "user", Content: "Hi."},
			{Role: "system", Content: "Updated persona."},
		},
	}

	got := FormatTranscript(transcript)
	assert.Contains(t, got, "Context:\nUpdated persona.\n\nConversation:")
	assert.NotContains(t, got, "Persona.\nUpdated")
	assert.Contains(t, got, "Conversation:\nuser: Hi.")
}

// =============================================================================
// Result Parsing Tests
// =============================================================================

func TestParseResult(t *testing.T) {
	name, value, err := ParseResult("pitch_quality: 8")
	require.NoError(t, err)
	assert.Equal(t, MetricPitchQuality, name)
	assert.Equal(t, "8", value)
}

func TestParseResult_ValueWithColon(t *testing.T) {
	name, value, err := ParseResult("response_time: 7: quick replies throughout")
	require.NoError(t, err)
	assert.Equal(t, MetricResponseTime, name)
	assert.Equal(t, "7: quick replies throughout", value)
}

func TestParseResult_Whitespace(t *testing.T) {
	name, value, err := ParseResult("  engagement :  9 ")
	require.NoError(t, err)
	assert.Equal(t, MetricEngagement, name)
	assert.Equal(t, "9", value)
}

func TestParseResult_NoColon(t *testing.T) {
	_, _, err := ParseResult("the trainee did well")
	assert.Error(t, err)
}

func TestParseResult_UnknownMetric(t *testing.T) {
	_, _, err := ParseResult("vibes: 11")
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

// =============================================================================
// Scorecard Assembly Tests
// =============================================================================

func salesResults(score string) map[string]string {
	results := make(map[string]string)
	for _, m := range MetricsFor(domain.KindSales) {
		results[m] = score
	}
	return results
}

func TestAssembleScorecard_Sales(t *testing.T) {
	transcript := &domain.Transcript{RoomID: "room-1", Kind: domain.KindSales}
	feedback := []domain.FeedbackItem{{ShortFeedback: "ok", LongFeedback: "fine"}}

	card, err := AssembleScorecard(transcript, salesResults("8"), feedback)
	require.NoError(t, err)

	assert.Equal(t, "room-1", card.RoomID)
	assert.Equal(t, domain.KindSales, card.Kind)
	assert.Equal(t, feedback, card.Feedback)

	require.NotNil(t, card.Sales.ProductKnowledge)
	assert.Equal(t, "8", *card.Sales.ProductKnowledge)
	require.NotNil(t, card.Professionalism.PitchQuality)
	assert.Equal(t, "8", *card.Professionalism.PitchQuality)

	// Customer-kind metrics stay null on a sales card
	assert.Nil(t, card.Communication.EmpathyScore)
	assert.Nil(t, card.Interaction.Engagement)
}

func TestAssembleScorecard_Customer(t *testing.T) {
	transcript := &domain.Transcript{RoomID: "room-2", Kind: domain.KindCustomer}
	results := make(map[string]string)
	for _, m := range MetricsFor(domain.KindCustomer) {
		results[m] = "7"
	}

	card, err := AssembleScorecard(transcript, results, []domain.FeedbackItem{{ShortFeedback: "ok"}})
	require.NoError(t, err)

	require.NotNil(t, card.Communication.EmpathyScore)
	assert.Equal(t, "7", *card.Communication.EmpathyScore)
	require.NotNil(t, card.Interaction.CustomerSatisfaction)
	assert.Nil(t, card.Sales.ProductKnowledge)
	assert.Nil(t, card.Professionalism.PitchQuality)
}

func TestAssembleScorecard_MissingMetric(t *testing.T) {
	transcript := &domain.Transcript{RoomID: "room-1", Kind: domain.KindSales}
	results := salesResults("8")
	delete(results, MetricObjectionHandling)

	_, err := AssembleScorecard(transcript, results, nil)
	assert.ErrorIs(t, err, ErrMetricMissing)
}
