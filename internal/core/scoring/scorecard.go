package scoring

import (
	"fmt"
	"time"

	"github.com/pitchlab/pitchlab/internal/core/domain"
)

// =============================================================================
// Scorecard Assembly
// =============================================================================

// AssembleScorecard builds a scorecard from scored metric values and the
// feedback list. Every metric of the transcript's kind must be present;
// metrics of the other kind are left null in the card.
func AssembleScorecard(t *domain.Transcript, results map[string]string, feedback []domain.FeedbackItem) (*domain.Scorecard, error) {
	for _, m := range MetricsFor(t.Kind) {
		if _, ok := results[m]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMetricMissing, m)
		}
	}

	card := &domain.Scorecard{
		RoomID:    t.RoomID,
		Kind:      t.Kind,
		Feedback:  feedback,
		CreatedAt: time.Now().UTC(),
	}

	set := func(dst **string, metric string) {
		if v, ok := results[metric]; ok {
			val := v
			*dst = &val
		}
	}

	set(&card.Communication.EmpathyScore, MetricEmpathyScore)
	set(&card.Communication.ClarityAndConciseness, MetricClarityConciseness)
	set(&card.Communication.GrammarAndLanguage, MetricGrammarLanguage)
	set(&card.Communication.ListeningScore, MetricListeningScore)
	set(&card.Communication.PositiveSentiment, MetricPositiveSentiment)
	set(&card.Communication.StructureAndFlow, MetricStructureFlow)
	set(&card.Communication.StutteringWords, MetricStutteringWords)
	set(&card.Communication.ActiveListening, MetricActiveListening)

	set(&card.Interaction.ProblemResolution, MetricProblemResolution)
	set(&card.Interaction.PersonalisationIndex, MetricPersonalisationIndex)
	set(&card.Interaction.ConflictManagement, MetricConflictManagement)
	set(&card.Interaction.ResponseTime, MetricResponseTime)
	set(&card.Interaction.CustomerSatisfaction, MetricCustomerSatisfaction)
	set(&card.Interaction.RapportBuilding, MetricRapportBuilding)
	set(&card.Interaction.Engagement, MetricEngagement)

	set(&card.Sales.ProductKnowledge, MetricProductKnowledge)
	set(&card.Sales.PersuasionNegotiation, MetricPersuasionNegotiation)
	set(&card.Sales.ObjectionHandling, MetricObjectionHandling)
	set(&card.Sales.UpsellingSuccessRate, MetricUpsellingSuccessRate)
	set(&card.Sales.CallToActionEffect, MetricCallToActionEffect)
	set(&card.Sales.QuestioningTechnique, MetricQuestioningTechnique)

	set(&card.Professionalism.ConfidenceScore, MetricConfidenceScore)
	set(&card.Professionalism.ValueProposition, MetricValueProposition)
	set(&card.Professionalism.PitchQuality, MetricPitchQuality)

	return card, nil
}
