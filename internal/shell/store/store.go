package store

import (
	"context"

	"github.com/pitchlab/pitchlab/internal/core/domain"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for PitchLab entities.
type Store interface {
	// User operations
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, opts ListOptions) ([]domain.User, error)

	// Scenario operations
	CreateScenario(ctx context.Context, scenario *domain.Scenario) error
	GetScenario(ctx context.Context, id string) (*domain.Scenario, error)
	UpdateScenario(ctx context.Context, scenario *domain.Scenario) error
	DeleteScenario(ctx context.Context, id string) error
	ListScenarios(ctx context.Context, opts ListOptions) ([]domain.Scenario, error)
	ListScenariosByKind(ctx context.Context, kind domain.Kind, opts ListOptions) ([]domain.Scenario, error)

	// Transcript operations (one per room)
	CreateTranscript(ctx context.Context, transcript *domain.Transcript) error
	GetTranscript(ctx context.Context, roomID string) (*domain.Transcript, error)

	// Scorecard operations (one per room, newest first for listings)
	CreateScorecard(ctx context.Context, scorecard *domain.Scorecard) error
	GetScorecardByRoom(ctx context.Context, roomID string) (*domain.Scorecard, error)
	ListScorecardsByUser(ctx context.Context, userID string, opts ListOptions) ([]domain.Scorecard, error)
	CountScorecardsByUser(ctx context.Context, userID string) (int, error)

	// Summary operations (dashboard digest, one per user)
	UpsertSummary(ctx context.Context, summary *domain.Summary) error
	GetSummary(ctx context.Context, userID string) (*domain.Summary, error)
	// ListUsersWithStaleSummaries returns IDs of users whose scorecard count
	// exceeds their summary watermark (or who have scorecards but no summary).
	ListUsersWithStaleSummaries(ctx context.Context, limit int) ([]string, error)

	// Credential operations (encrypted LLM API keys)
	CreateCredential(ctx context.Context, cred *domain.Credential) error
	GetCredential(ctx context.Context, id string) (*domain.Credential, error)
	DeleteCredential(ctx context.Context, id string) error
	ListCredentialsByOwner(ctx context.Context, ownerID string, opts ListOptions) ([]domain.Credential, error)

	// Knowledge base operations
	CreateDocument(ctx context.Context, doc *domain.Document) error
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context, opts ListOptions) ([]domain.Document, error)
	CreateChunks(ctx context.Context, chunks []domain.Chunk) error
	ListChunks(ctx context.Context) ([]domain.Chunk, error)

	// Transaction support
	WithTx(ctx context.Context, fn func(Store) error) error

	// Lifecycle
	Close() error
}

// =============================================================================
// Options
// =============================================================================

// ListOptions defines pagination options.
type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultListOptions returns default list options.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Limit:  100,
		Offset: 0,
	}
}

// Normalize ensures list options have valid values.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.Limit > 1000 {
		o.Limit = 1000
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
