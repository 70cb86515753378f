package api

import (
	"time"

	"github.com/pitchlab/pitchlab/internal/core/domain"
)

// =============================================================================
// Common Types
// =============================================================================

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is the readiness check response.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// =============================================================================
// Auth Types
// =============================================================================

// SignupRequest creates a new account.
type SignupRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// TokenRequest exchanges credentials for an access token.
type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a bearer token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// UpdateUserRequest modifies the authenticated account. Empty fields are
// left unchanged.
type UpdateUserRequest struct {
	FullName *string `json:"full_name,omitempty"`
	Password *string `json:"password,omitempty"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	Disabled  bool      `json:"disabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// =============================================================================
// Scenario Types
// =============================================================================

// CreateScenarioRequest creates a roleplay scenario.
type CreateScenarioRequest struct {
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	PersonaName  string `json:"persona_name"`
	Persona      string `json:"persona"`
	EasyPrompt   string `json:"easy_prompt"`
	MediumPrompt string `json:"medium_prompt"`
	HardPrompt   string `json:"hard_prompt"`
	ImageURL     string `json:"image_url"`
	VoiceID      string `json:"voice_id"`
}

// UpdateScenarioRequest modifies a scenario. Empty fields are left unchanged.
type UpdateScenarioRequest struct {
	Name         string `json:"name"`
	PersonaName  string `json:"persona_name"`
	Persona      string `json:"persona"`
	EasyPrompt   string `json:"easy_prompt"`
	MediumPrompt string `json:"medium_prompt"`
	HardPrompt   string `json:"hard_prompt"`
	ImageURL     string `json:"image_url"`
	VoiceID      string `json:"voice_id"`
}

// ListScenariosResponse is a paginated scenario listing.
type ListScenariosResponse struct {
	Scenarios []domain.Scenario `json:"scenarios"`
	Total     int               `json:"total"`
	Limit     int               `json:"limit"`
	Offset    int               `json:"offset"`
}

// PickScenarioResponse is a randomly picked scenario with the prompt for
// the requested difficulty resolved.
type PickScenarioResponse struct {
	Scenario   domain.Scenario `json:"scenario"`
	Difficulty string          `json:"difficulty"`
	Prompt     string          `json:"prompt"`
}

// =============================================================================
// Transcript Types
// =============================================================================

// CreateTranscriptRequest records a finished roleplay conversation. Kind is
// optional; when absent it is resolved from the prompt_type marker the voice
// bot leaves in the system message.
type CreateTranscriptRequest struct {
	RoomID  string         `json:"room_id"`
	Kind    string         `json:"kind,omitempty"`
	Entries []domain.Entry `json:"entries"`
}

// =============================================================================
// Feedback Types
// =============================================================================

// RoomFeedback is the feedback slice of one scorecard.
type RoomFeedback struct {
	RoomID    string                `json:"room_id"`
	Kind      domain.Kind           `json:"kind"`
	Feedback  []domain.FeedbackItem `json:"feedback"`
	CreatedAt time.Time             `json:"created_at"`
}

// ListFeedbackResponse lists a user's feedback, newest room first.
type ListFeedbackResponse struct {
	UserID string         `json:"user_id"`
	Rooms  []RoomFeedback `json:"rooms"`
}

// =============================================================================
// Credential Types
// =============================================================================

// CreateCredentialRequest stores an LLM API key. The key is encrypted at
// rest and never returned.
type CreateCredentialRequest struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
}

// ListCredentialsResponse lists the caller's credentials.
type ListCredentialsResponse struct {
	Credentials []domain.Credential `json:"credentials"`
	Total       int                 `json:"total"`
}

// =============================================================================
// Document Types
// =============================================================================

// CreateDocumentRequest ingests a knowledge-base document.
type CreateDocumentRequest struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Text   string `json:"text"`
}

// ListDocumentsResponse lists ingested documents.
type ListDocumentsResponse struct {
	Documents []domain.Document `json:"documents"`
	Total     int               `json:"total"`
}
