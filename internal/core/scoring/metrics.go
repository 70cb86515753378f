// Package scoring contains the pure scorecard logic: the metric registry,
// transcript formatting, and assembly of scored metrics into a scorecard.
// This is part of the Functional Core - all functions are pure with no I/O.
package scoring

import (
	"errors"

	"github.com/pitchlab/pitchlab/internal/core/domain"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrUnknownMetric is returned when a result names a metric outside the registry.
	ErrUnknownMetric = errors.New("unknown metric name")

	// ErrMetricMissing is returned when assembly lacks a result for a required metric.
	ErrMetricMissing = errors.New("missing result for metric")
)

// =============================================================================
// Metric Names
// =============================================================================

// MetricFeedback is the special metric that produces the coaching feedback
// list. It runs alongside the scored metrics and is retrieval-augmented.
const MetricFeedback = "feedback"

// Sales pitch metrics.
const (
	MetricProductKnowledge      = "product_knowledge_score"
	MetricPersuasionNegotiation = "persuasion_and_negotiation_skills"
	MetricObjectionHandling     = "objection_handling"
	MetricUpsellingSuccessRate  = "upselling_success_rate"
	MetricCallToActionEffect    = "call_to_action_effectiveness"
	MetricQuestioningTechnique  = "questioning_technique"
	MetricConfidenceScore       = "confidence_score"
	MetricValueProposition      = "value_proposition"
	MetricPitchQuality          = "pitch_quality"
)

// Customer call metrics.
const (
	MetricEmpathyScore          = "empathy_score"
	MetricClarityConciseness    = "clarity_and_conciseness"
	MetricGrammarLanguage       = "grammar_and_language"
	MetricListeningScore        = "listening_score"
	MetricPositiveSentiment     = "positive_sentiment_score"
	MetricStructureFlow         = "structure_and_flow"
	MetricStutteringWords       = "stuttering_words"
	MetricActiveListening       = "active_listening_skills"
	MetricProblemResolution     = "problem_resolution_effectiveness"
	MetricPersonalisationIndex  = "personalisation_index"
	MetricConflictManagement    = "conflict_management"
	MetricResponseTime          = "response_time"
	MetricCustomerSatisfaction  = "customer_satisfaction_score"
	MetricRapportBuilding       = "rapport_building"
	MetricEngagement            = "engagement"
)

// salesMetrics are the metrics a sales scorecard reports.
var salesMetrics = []string{
	MetricProductKnowledge,
	MetricPersuasionNegotiation,
	MetricObjectionHandling,
	MetricUpsellingSuccessRate,
	MetricCallToActionEffect,
	MetricQuestioningTechnique,
	MetricConfidenceScore,
	MetricValueProposition,
	MetricPitchQuality,
}

// customerMetrics are the metrics a customer-service scorecard reports.
var customerMetrics = []string{
	MetricEmpathyScore,
	MetricClarityConciseness,
	MetricGrammarLanguage,
	MetricListeningScore,
	MetricPositiveSentiment,
	MetricStructureFlow,
	MetricStutteringWords,
	MetricActiveListening,
	MetricProblemResolution,
	MetricPersonalisationIndex,
	MetricConflictManagement,
	MetricResponseTime,
	MetricCustomerSatisfaction,
	MetricRapportBuilding,
	MetricEngagement,
}

// MetricsFor returns the scored metric names for a roleplay kind, not
// including the feedback node.
func MetricsFor(kind domain.Kind) []string {
	switch kind {
	case domain.KindSales:
		return append([]string(nil), salesMetrics...)
	case domain.KindCustomer:
		return append([]string(nil), customerMetrics...)
	default:
		return nil
	}
}

// IsKnownMetric reports whether name is a scored metric of any kind.
func IsKnownMetric(name string) bool {
	for _, m := range salesMetrics {
		if m == name {
			return true
		}
	}
	for _, m := range customerMetrics {
		if m == name {
			return true
		}
	}
	return name == MetricFeedback
}
