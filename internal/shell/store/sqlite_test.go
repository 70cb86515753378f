package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchlab/pitchlab/internal/core/domain"
)

// =============================================================================
// Test Helpers
// =============================================================================

func setupTestStore(t *testing.T) Store {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func createTestUser(t *testing.T, store Store, email string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(email, "Test User", "$2a$10$fakehashfakehashfakehash")
	require.NoError(t, err)
	err = store.CreateUser(context.Background(), user)
	require.NoError(t, err)
	return user
}

func createTestScenario(t *testing.T, store Store, kind domain.Kind) *domain.Scenario {
	t.Helper()
	scenario, err := domain.NewScenario("Cold Call Practice", kind)
	require.NoError(t, err)
	scenario.EasyPrompt = "You are a friendly prospect."
	scenario.HardPrompt = "You are a hostile prospect."
	err = store.CreateScenario(context.Background(), scenario)
	require.NoError(t, err)
	return scenario
}

func createTestScorecard(t *testing.T, store Store, roomID, userID string) *domain.Scorecard {
	t.Helper()
	score := "8"
	card := &domain.Scorecard{
		RoomID: roomID,
		UserID: userID,
		Kind:   domain.KindSales,
		Sales: domain.SalesScores{
			ProductKnowledge: &score,
		},
		Feedback: []domain.FeedbackItem{
			{ShortFeedback: "Strong open", LongFeedback: "The opening pitch landed well."},
		},
		CreatedAt: time.Now().UTC(),
	}
	err := store.CreateScorecard(context.Background(), card)
	require.NoError(t, err)
	return card
}

// =============================================================================
// User CRUD Tests
// =============================================================================

func TestCreateUser_Success(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, store, "alice@example.com")

	retrieved, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, retrieved.ID)
	assert.Equal(t, "alice@example.com", retrieved.Email)
	assert.Equal(t, user.HashedPassword, retrieved.HashedPassword)
	assert.False(t, retrieved.Disabled)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	createTestUser(t, store, "alice@example.com")

	duplicate, err := domain.NewUser("alice@example.com", "Other Alice", "hash")
	require.NoError(t, err)

	err = store.CreateUser(ctx, duplicate)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestGetUserByEmail(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, store, "alice@example.com")

	// Lookup normalizes case
	retrieved, err := store.GetUserByEmail(ctx, "Alice@Example.COM")
	require.NoError(t, err)
	assert.Equal(t, user.ID, retrieved.ID)
}

func TestGetUser_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetUser(context.Background(), "usr_missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateUser(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, store, "alice@example.com")
	user.FullName = "Alice Updated"
	user.Disabled = true
	user.UpdatedAt = time.Now().UTC()

	require.NoError(t, store.UpdateUser(ctx, user))

	retrieved, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Updated", retrieved.FullName)
	assert.True(t, retrieved.Disabled)
}

func TestUpdateUser_NotFound(t *testing.T) {
	store := setupTestStore(t)

	user := &domain.User{ID: "usr_missing", Email: "ghost@example.com"}
	err := store.UpdateUser(context.Background(), user)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUser(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, store, "alice@example.com")
	require.NoError(t, store.DeleteUser(ctx, user.ID))

	_, err := store.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListUsers(t *testing.T) {
	store := setupTestStore(t)

	createTestUser(t, store, "alice@example.com")
	createTestUser(t, store, "bob@example.com")

	users, err := store.ListUsers(context.Background(), DefaultListOptions())
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

// =============================================================================
// Scenario CRUD Tests
// =============================================================================

func TestCreateScenario_Success(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	scenario := createTestScenario(t, store, domain.KindSales)

	retrieved, err := store.GetScenario(ctx, scenario.ID)
	require.NoError(t, err)
	assert.Equal(t, scenario.Name, retrieved.Name)
	assert.Equal(t, domain.KindSales, retrieved.Kind)
	assert.Equal(t, scenario.EasyPrompt, retrieved.EasyPrompt)
	assert.Equal(t, scenario.HardPrompt, retrieved.HardPrompt)
}

func TestUpdateScenario(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	scenario := createTestScenario(t, store, domain.KindSales)
	scenario.MediumPrompt = "You are a skeptical prospect."
	scenario.UpdatedAt = time.Now().UTC()

	require.NoError(t, store.UpdateScenario(ctx, scenario))

	retrieved, err := store.GetScenario(ctx, scenario.ID)
	require.NoError(t, err)
	assert.Equal(t, "You are a skeptical prospect.", retrieved.MediumPrompt)
}

func TestDeleteScenario_NotFound(t *testing.T) {
	store := setupTestStore(t)

	err := store.DeleteScenario(context.Background(), "scn_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListScenariosByKind(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	createTestScenario(t, store, domain.KindSales)
	createTestScenario(t, store, domain.KindSales)
	createTestScenario(t, store, domain.KindCustomer)

	sales, err := store.ListScenariosByKind(ctx, domain.KindSales, DefaultListOptions())
	require.NoError(t, err)
	assert.Len(t, sales, 2)

	customer, err := store.ListScenariosByKind(ctx, domain.KindCustomer, DefaultListOptions())
	require.NoError(t, err)
	assert.Len(t, customer, 1)
}

// =============================================================================
// Transcript Tests
// =============================================================================

func TestCreateTranscript_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	transcript, err := domain.NewTranscript("room-1", domain.KindSales, []domain.Entry{
		{Role: "system", Content: "You are a prospect."},
		{Role: "user", Content: "Hi, do you have a minute?"},
		{Role: "assistant", Content: "Sure, go ahead."},
	})
	require.NoError(t, err)
	require.NoError(t, store.CreateTranscript(ctx, transcript))

	retrieved, err := store.GetTranscript(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, domain.KindSales, retrieved.Kind)
	assert.Len(t, retrieved.Entries, 3)
	assert.Equal(t, "Hi, do you have a minute?", retrieved.Entries[1].Content)
}

func TestCreateTranscript_DuplicateRoom(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	transcript, err := domain.NewTranscript("room-1", domain.KindSales, []domain.Entry{
		{Role: "user", Content: "Hello"},
	})
	require.NoError(t, err)
	require.NoError(t, store.CreateTranscript(ctx, transcript))

	err = store.CreateTranscript(ctx, transcript)
	assert.ErrorIs(t, err, ErrDuplicateRoom)
}

// =============================================================================
// Scorecard Tests
// =============================================================================

func TestCreateScorecard_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	card := createTestScorecard(t, store, "room-1", "usr_1")

	retrieved, err := store.GetScorecardByRoom(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, card.UserID, retrieved.UserID)
	assert.Equal(t, domain.KindSales, retrieved.Kind)
	require.NotNil(t, retrieved.Sales.ProductKnowledge)
	assert.Equal(t, "8", *retrieved.Sales.ProductKnowledge)
	// Metrics outside the sales kind stay nil
	assert.Nil(t, retrieved.Communication.EmpathyScore)
	require.Len(t, retrieved.Feedback, 1)
	assert.Equal(t, "Strong open", retrieved.Feedback[0].ShortFeedback)
}

func TestCreateScorecard_DuplicateRoom(t *testing.T) {
	store := setupTestStore(t)

	card := createTestScorecard(t, store, "room-1", "usr_1")

	err := store.CreateScorecard(context.Background(), card)
	assert.ErrorIs(t, err, ErrDuplicateRoom)
}

func TestListScorecardsByUser_NewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		score := "7"
		card := &domain.Scorecard{
			RoomID:    fmt.Sprintf("room-%d", i),
			UserID:    "usr_1",
			Kind:      domain.KindSales,
			Sales:     domain.SalesScores{ProductKnowledge: &score},
			Feedback:  []domain.FeedbackItem{{ShortFeedback: "ok"}},
			CreatedAt: time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC),
		}
		require.NoError(t, store.CreateScorecard(ctx, card))
	}

	cards, err := store.ListScorecardsByUser(ctx, "usr_1", DefaultListOptions())
	require.NoError(t, err)
	require.Len(t, cards, 3)
	assert.Equal(t, "room-2", cards[0].RoomID)
	assert.Equal(t, "room-0", cards[2].RoomID)
}

func TestCountScorecardsByUser(t *testing.T) {
	store := setupTestStore(t)

	createTestScorecard(t, store, "room-1", "usr_1")
	createTestScorecard(t, store, "room-2", "usr_1")
	createTestScorecard(t, store, "room-3", "usr_2")

	count, err := store.CountScorecardsByUser(context.Background(), "usr_1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

// =============================================================================
// Summary Tests
// =============================================================================

func TestUpsertSummary_InsertThenUpdate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	summary := &domain.Summary{
		UserID:          "usr_1",
		PositiveTips:    []string{"Clear delivery", "Good pacing", "Confident tone"},
		ImprovementTips: []string{"Ask more questions", "Slow down", "Close stronger"},
		ScorecardCount:  2,
		GeneratedAt:     time.Now().UTC(),
	}
	require.NoError(t, store.UpsertSummary(ctx, summary))

	summary.ScorecardCount = 5
	summary.PositiveTips[0] = "Excellent delivery"
	require.NoError(t, store.UpsertSummary(ctx, summary))

	retrieved, err := store.GetSummary(ctx, "usr_1")
	require.NoError(t, err)
	assert.Equal(t, 5, retrieved.ScorecardCount)
	assert.Equal(t, "Excellent delivery", retrieved.PositiveTips[0])
	assert.Len(t, retrieved.ImprovementTips, 3)
}

func TestGetSummary_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetSummary(context.Background(), "usr_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListUsersWithStaleSummaries(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	// usr_1 has scorecards but no summary: stale.
	createTestScorecard(t, store, "room-1", "usr_1")

	// usr_2 has a summary at the current watermark: fresh.
	createTestScorecard(t, store, "room-2", "usr_2")
	require.NoError(t, store.UpsertSummary(ctx, &domain.Summary{
		UserID:          "usr_2",
		PositiveTips:    []string{"a", "b", "c"},
		ImprovementTips: []string{"x", "y", "z"},
		ScorecardCount:  1,
		GeneratedAt:     time.Now().UTC(),
	}))

	// usr_3 has a summary behind the watermark: stale again.
	createTestScorecard(t, store, "room-3", "usr_3")
	createTestScorecard(t, store, "room-4", "usr_3")
	require.NoError(t, store.UpsertSummary(ctx, &domain.Summary{
		UserID:          "usr_3",
		PositiveTips:    []string{"a", "b", "c"},
		ImprovementTips: []string{"x", "y", "z"},
		ScorecardCount:  1,
		GeneratedAt:     time.Now().UTC(),
	}))

	stale, err := store.ListUsersWithStaleSummaries(ctx, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"usr_1", "usr_3"}, stale)
}

// =============================================================================
// Credential Tests
// =============================================================================

func TestCreateCredential_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, store, "alice@example.com")

	cred, err := domain.NewCredential(user.ID, "team key", domain.ProviderOpenAI)
	require.NoError(t, err)
	cred.APIKeyEncrypted = []byte{0x01, 0x02, 0x03}
	require.NoError(t, store.CreateCredential(ctx, cred))

	retrieved, err := store.GetCredential(ctx, cred.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, retrieved.OwnerID)
	assert.Equal(t, domain.ProviderOpenAI, retrieved.Provider)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, retrieved.APIKeyEncrypted)
}

func TestCreateCredential_UnknownOwner(t *testing.T) {
	store := setupTestStore(t)

	cred, err := domain.NewCredential("usr_missing", "key", domain.ProviderOpenAI)
	require.NoError(t, err)
	cred.APIKeyEncrypted = []byte{0x01}

	err = store.CreateCredential(context.Background(), cred)
	assert.ErrorIs(t, err, ErrForeignKey)
}

func TestDeleteUser_CascadesCredentials(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, store, "alice@example.com")
	cred, err := domain.NewCredential(user.ID, "key", domain.ProviderOpenAI)
	require.NoError(t, err)
	cred.APIKeyEncrypted = []byte{0x01}
	require.NoError(t, store.CreateCredential(ctx, cred))

	require.NoError(t, store.DeleteUser(ctx, user.ID))

	_, err = store.GetCredential(ctx, cred.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// =============================================================================
// Document and Chunk Tests
// =============================================================================

func TestDocumentChunks_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	doc, err := domain.NewDocument("sales-playbook", "playbook.txt")
	require.NoError(t, err)
	doc.ChunkCount = 2
	require.NoError(t, store.CreateDocument(ctx, doc))

	chunks := []domain.Chunk{
		{DocumentID: doc.ID, Seq: 0, Content: "Always open with a question.", Embedding: []float32{0.1, 0.2}},
		{DocumentID: doc.ID, Seq: 1, Content: "Handle objections with empathy.", Embedding: []float32{0.3, 0.4}},
	}
	require.NoError(t, store.CreateChunks(ctx, chunks))

	retrieved, err := store.ListChunks(ctx)
	require.NoError(t, err)
	require.Len(t, retrieved, 2)
	assert.Equal(t, "Always open with a question.", retrieved[0].Content)
	assert.Equal(t, []float32{0.3, 0.4}, retrieved[1].Embedding)
}

func TestDeleteDocument_CascadesChunks(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	doc, err := domain.NewDocument("sales-playbook", "")
	require.NoError(t, err)
	require.NoError(t, store.CreateDocument(ctx, doc))
	require.NoError(t, store.CreateChunks(ctx, []domain.Chunk{
		{DocumentID: doc.ID, Seq: 0, Content: "text", Embedding: []float32{0.5}},
	}))

	require.NoError(t, store.DeleteDocument(ctx, doc.ID))

	chunks, err := store.ListChunks(ctx)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestCreateChunks_UnknownDocument(t *testing.T) {
	store := setupTestStore(t)

	err := store.CreateChunks(context.Background(), []domain.Chunk{
		{DocumentID: "doc_missing", Seq: 0, Content: "text", Embedding: []float32{0.5}},
	})
	assert.ErrorIs(t, err, ErrForeignKey)
}

// =============================================================================
// Transaction Tests
// =============================================================================

func TestWithTx_Commit(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user, err := domain.NewUser("alice@example.com", "Alice", "hash")
	require.NoError(t, err)

	err = store.WithTx(ctx, func(tx Store) error {
		return tx.CreateUser(ctx, user)
	})
	require.NoError(t, err)

	_, err = store.GetUser(ctx, user.ID)
	assert.NoError(t, err)
}

func TestWithTx_Rollback(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user, err := domain.NewUser("alice@example.com", "Alice", "hash")
	require.NoError(t, err)

	err = store.WithTx(ctx, func(tx Store) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		return fmt.Errorf("boom")
	})
	require.Error(t, err)

	_, err = store.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
