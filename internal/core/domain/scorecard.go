package domain

import (
	"errors"
	"time"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrFeedbackRequired = errors.New("scorecard must include feedback items")
)

// =============================================================================
// Scorecard
// =============================================================================

// FeedbackItem is one coaching observation produced by the feedback node.
type FeedbackItem struct {
	ShortFeedback string `json:"short_feedback"`
	LongFeedback  string `json:"long_feedback"`
}

// CommunicationScores groups the delivery-side metrics of a customer call.
// Metrics outside the scorecard's kind stay nil.
type CommunicationScores struct {
	EmpathyScore          *string `json:"empathy_score"`
	ClarityAndConciseness *string `json:"clarity_and_conciseness"`
	GrammarAndLanguage    *string `json:"grammar_and_language"`
	ListeningScore        *string `json:"listening_score"`
	PositiveSentiment     *string `json:"positive_sentiment_score"`
	StructureAndFlow      *string `json:"structure_and_flow"`
	StutteringWords       *string `json:"stuttering_words"`
	ActiveListening       *string `json:"active_listening_skills"`
}

// InteractionScores groups the resolution-side metrics of a customer call.
type InteractionScores struct {
	ProblemResolution    *string `json:"problem_resolution_effectiveness"`
	PersonalisationIndex *string `json:"personalisation_index"`
	ConflictManagement   *string `json:"conflict_management"`
	ResponseTime         *string `json:"response_time"`
	CustomerSatisfaction *string `json:"customer_satisfaction_score"`
	RapportBuilding      *string `json:"rapport_building"`
	Engagement           *string `json:"engagement"`
}

// SalesScores groups the persuasion metrics of a sales pitch.
type SalesScores struct {
	ProductKnowledge        *string `json:"product_knowledge_score"`
	PersuasionNegotiation   *string `json:"persuasion_and_negotiation_skills"`
	ObjectionHandling       *string `json:"objection_handling"`
	UpsellingSuccessRate    *string `json:"upselling_success_rate"`
	CallToActionEffect      *string `json:"call_to_action_effectiveness"`
	QuestioningTechnique    *string `json:"questioning_technique"`
}

// ProfessionalismScores groups the presentation metrics of a sales pitch.
type ProfessionalismScores struct {
	ConfidenceScore  *string `json:"confidence_score"`
	ValueProposition *string `json:"value_proposition"`
	PitchQuality     *string `json:"pitch_quality"`
}

// Scorecard is the full evaluation of one roleplay room. It is generated once
// per room and cached; repeated requests return the stored card.
type Scorecard struct {
	RoomID          string                `json:"room_id"`
	UserID          string                `json:"user_id,omitempty"`
	Kind            Kind                  `json:"kind"`
	Communication   CommunicationScores   `json:"communication_and_delivery"`
	Interaction     InteractionScores     `json:"customer_interaction_and_resolution"`
	Sales           SalesScores           `json:"sales_and_persuasion"`
	Professionalism ProfessionalismScores `json:"professionalism_and_presentation"`
	Feedback        []FeedbackItem        `json:"feedback"`
	CreatedAt       time.Time             `json:"created_at"`
}

// Validate checks the scorecard is complete enough to store.
func (s *Scorecard) Validate() error {
	if s.RoomID == "" {
		return ErrRoomIDRequired
	}
	if !s.Kind.IsValid() {
		return ErrInvalidKind
	}
	if len(s.Feedback) == 0 {
		return ErrFeedbackRequired
	}
	return nil
}

// =============================================================================
// Summary
// =============================================================================

// Summary is the dashboard digest generated from a user's recent feedback.
// ScorecardCount is the watermark used by the background refresher to decide
// whether new feedback has arrived since the summary was generated.
type Summary struct {
	UserID          string    `json:"user_id"`
	PositiveTips    []string  `json:"positive_tips"`
	ImprovementTips []string  `json:"improvement_tips"`
	ScorecardCount  int       `json:"scorecard_count"`
	GeneratedAt     time.Time `json:"generated_at"`
}
