package scoring

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchlab/pitchlab/internal/core/domain"
	core "github.com/pitchlab/pitchlab/internal/core/scoring"
	"github.com/pitchlab/pitchlab/internal/shell/llm"
)

// =============================================================================
// Stub Model
// =============================================================================

// stubModel answers metric prompts with "<metric>: 8" and the feedback
// prompt with a fixed JSON array. Metrics in failOn return an error.
type stubModel struct {
	mu     sync.Mutex
	calls  int
	failOn map[string]bool
}

func (s *stubModel) Complete(_ context.Context, messages []llm.Message) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	system := messages[0].Content
	if system == feedbackPrompt {
		return `Here you go:
[{"short_feedback": "Strong open", "long_feedback": "The opening question pulled the prospect in immediately."},
 {"short_feedback": "Weak close", "long_feedback": "The call ended without a concrete next step. Always propose one."}]`, nil
	}

	for metric := range metricInstructions {
		if strings.Contains(system, "\n"+metric+": <score>") {
			if s.failOn[metric] {
				return "", fmt.Errorf("model unavailable")
			}
			return metric + ": 8", nil
		}
	}
	return "", fmt.Errorf("unrecognized prompt")
}

func salesTranscript(t *testing.T) *domain.Transcript {
	t.Helper()
	transcript, err := domain.NewTranscript("room-1", domain.KindSales, []domain.Entry{
		{Role: "system", Content: "You are a skeptical prospect."},
		{Role: "user", Content: "Hi, I wanted to show you our new analytics tool."},
		{Role: "assistant", Content: "I'm not sure we need another tool."},
	})
	require.NoError(t, err)
	return transcript
}

// =============================================================================
// Engine Tests
// =============================================================================

func TestEngineScore_SalesTranscript(t *testing.T) {
	model := &stubModel{}
	engine := NewEngine(model, nil, DefaultEngineConfig(), nil)

	card, err := engine.Score(context.Background(), salesTranscript(t))
	require.NoError(t, err)

	assert.Equal(t, "room-1", card.RoomID)
	assert.Equal(t, domain.KindSales, card.Kind)

	// Every sales metric scored
	require.NotNil(t, card.Sales.ProductKnowledge)
	assert.Equal(t, "8", *card.Sales.ProductKnowledge)
	require.NotNil(t, card.Professionalism.PitchQuality)
	assert.Equal(t, "8", *card.Professionalism.PitchQuality)

	// Customer metrics stay null on a sales card
	assert.Nil(t, card.Communication.EmpathyScore)
	assert.Nil(t, card.Interaction.RapportBuilding)

	// Feedback parsed from the JSON reply
	require.Len(t, card.Feedback, 2)
	assert.Equal(t, "Strong open", card.Feedback[0].ShortFeedback)

	// One call per metric plus the feedback node
	assert.Equal(t, len(core.MetricsFor(domain.KindSales))+1, model.calls)
}

func TestEngineScore_CustomerTranscript(t *testing.T) {
	model := &stubModel{}
	engine := NewEngine(model, nil, DefaultEngineConfig(), nil)

	transcript, err := domain.NewTranscript("room-2", domain.KindCustomer, []domain.Entry{
		{Role: "system", Content: "You are an upset customer."},
		{Role: "user", Content: "I'm sorry to hear that, let me fix it."},
	})
	require.NoError(t, err)

	card, err := engine.Score(context.Background(), transcript)
	require.NoError(t, err)

	require.NotNil(t, card.Communication.EmpathyScore)
	require.NotNil(t, card.Interaction.CustomerSatisfaction)
	assert.Nil(t, card.Sales.ProductKnowledge)
}

func TestEngineScore_AllOrNothing(t *testing.T) {
	model := &stubModel{failOn: map[string]bool{core.MetricPitchQuality: true}}
	engine := NewEngine(model, nil, DefaultEngineConfig(), nil)

	card, err := engine.Score(context.Background(), salesTranscript(t))
	require.Error(t, err)
	assert.Nil(t, card)
	assert.Contains(t, err.Error(), core.MetricPitchQuality)
}

func TestEngineScore_InvalidKind(t *testing.T) {
	engine := NewEngine(&stubModel{}, nil, DefaultEngineConfig(), nil)

	transcript := &domain.Transcript{RoomID: "room-1", Kind: "other"}
	_, err := engine.Score(context.Background(), transcript)
	assert.ErrorIs(t, err, domain.ErrInvalidKind)
}

func TestEngineScore_CancelledContext(t *testing.T) {
	engine := NewEngine(&stubModel{}, nil, DefaultEngineConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Score(ctx, salesTranscript(t))
	assert.Error(t, err)
}

// =============================================================================
// Parse Helpers
// =============================================================================

func TestParseFeedback_MarkdownFence(t *testing.T) {
	reply := "```json\n[{\"short_feedback\": \"a\", \"long_feedback\": \"b\"}]\n```"

	items, err := parseFeedback(reply)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ShortFeedback)
}

func TestParseFeedback_NoArray(t *testing.T) {
	_, err := parseFeedback("The trainee did well overall.")
	assert.Error(t, err)
}

func TestMetricPrompt_KnownAndUnknown(t *testing.T) {
	prompt, ok := metricPrompt(core.MetricEmpathyScore)
	require.True(t, ok)
	assert.Contains(t, prompt, core.MetricEmpathyScore+": <score>")

	_, ok = metricPrompt("made_up_metric")
	assert.False(t, ok)
}

func TestFeedbackUserMessage_AppendsRetrieved(t *testing.T) {
	msg := feedbackUserMessage("Context:\n...", []string{"Always open with a question."})
	assert.Contains(t, msg, "Retrieved Knowledge:")
	assert.Contains(t, msg, "Always open with a question.")

	bare := feedbackUserMessage("Context:\n...", nil)
	assert.NotContains(t, bare, "Retrieved Knowledge:")
}
