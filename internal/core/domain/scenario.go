package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrScenarioNameRequired   = errors.New("scenario name is required")
	ErrScenarioPromptRequired = errors.New("scenario requires at least one difficulty prompt")
	ErrInvalidKind            = errors.New("kind must be sales or customer")
	ErrInvalidDifficulty      = errors.New("difficulty must be easy, medium, or hard")
)

// =============================================================================
// Kind
// =============================================================================

// Kind classifies a roleplay as a sales pitch or a customer-service call.
// The kind decides which metric set a scorecard is built from.
type Kind string

const (
	KindSales    Kind = "sales"
	KindCustomer Kind = "customer"
)

// IsValid checks if the kind is one of the known roleplay types.
func (k Kind) IsValid() bool {
	return k == KindSales || k == KindCustomer
}

// =============================================================================
// Difficulty
// =============================================================================

// Difficulty selects which prompt variant of a scenario is played.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// IsValid checks if the difficulty is a known level.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// =============================================================================
// Scenario
// =============================================================================

// Scenario is a roleplay definition the voice bot plays against a trainee.
// Each difficulty level carries its own system prompt variant.
type Scenario struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Kind         Kind      `json:"kind"`
	PersonaName  string    `json:"persona_name,omitempty"`
	Persona      string    `json:"persona,omitempty"`
	EasyPrompt   string    `json:"easy_prompt,omitempty"`
	MediumPrompt string    `json:"medium_prompt,omitempty"`
	HardPrompt   string    `json:"hard_prompt,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	VoiceID      string    `json:"voice_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewScenario creates a new scenario with a generated ID.
// Returns an error if validation fails.
func NewScenario(name string, kind Kind) (*Scenario, error) {
	if name == "" {
		return nil, ErrScenarioNameRequired
	}
	if !kind.IsValid() {
		return nil, ErrInvalidKind
	}

	now := time.Now().UTC()
	return &Scenario{
		ID:        "scn_" + uuid.New().String()[:8],
		Name:      name,
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// PromptFor returns the prompt variant for the given difficulty.
func (s *Scenario) PromptFor(d Difficulty) (string, error) {
	switch d {
	case DifficultyEasy:
		return s.EasyPrompt, nil
	case DifficultyMedium:
		return s.MediumPrompt, nil
	case DifficultyHard:
		return s.HardPrompt, nil
	default:
		return "", ErrInvalidDifficulty
	}
}

// Validate returns all validation errors for the scenario.
func (s *Scenario) Validate() []error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, ErrScenarioNameRequired)
	}
	if !s.Kind.IsValid() {
		errs = append(errs, ErrInvalidKind)
	}
	if s.EasyPrompt == "" && s.MediumPrompt == "" && s.HardPrompt == "" {
		errs = append(errs, ErrScenarioPromptRequired)
	}
	return errs
}
