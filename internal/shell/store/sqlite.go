package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pitchlab/pitchlab/internal/core/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// Executor Interface - Shared by DB and Transaction
// =============================================================================

// executor abstracts database operations that can be performed on both
// a database connection and a transaction.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	// Open database connection
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	// Run migrations
	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Store Method Wrappers
// =============================================================================

func (s *SQLiteStore) CreateUser(ctx context.Context, user *domain.User) error {
	return createUser(ctx, s.db, user)
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return getUser(ctx, s.db, id)
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return getUserByEmail(ctx, s.db, email)
}

func (s *SQLiteStore) UpdateUser(ctx context.Context, user *domain.User) error {
	return updateUser(ctx, s.db, user)
}

func (s *SQLiteStore) DeleteUser(ctx context.Context, id string) error {
	return deleteUser(ctx, s.db, id)
}

func (s *SQLiteStore) ListUsers(ctx context.Context, opts ListOptions) ([]domain.User, error) {
	return listUsers(ctx, s.db, opts)
}

func (s *SQLiteStore) CreateScenario(ctx context.Context, scenario *domain.Scenario) error {
	return createScenario(ctx, s.db, scenario)
}

func (s *SQLiteStore) GetScenario(ctx context.Context, id string) (*domain.Scenario, error) {
	return getScenario(ctx, s.db, id)
}

func (s *SQLiteStore) UpdateScenario(ctx context.Context, scenario *domain.Scenario) error {
	return updateScenario(ctx, s.db, scenario)
}

func (s *SQLiteStore) DeleteScenario(ctx context.Context, id string) error {
	return deleteScenario(ctx, s.db, id)
}

func (s *SQLiteStore) ListScenarios(ctx context.Context, opts ListOptions) ([]domain.Scenario, error) {
	return listScenarios(ctx, s.db, opts)
}

func (s *SQLiteStore) ListScenariosByKind(ctx context.Context, kind domain.Kind, opts ListOptions) ([]domain.Scenario, error) {
	return listScenariosByKind(ctx, s.db, kind, opts)
}

func (s *SQLiteStore) CreateTranscript(ctx context.Context, transcript *domain.Transcript) error {
	return createTranscript(ctx, s.db, transcript)
}

func (s *SQLiteStore) GetTranscript(ctx context.Context, roomID string) (*domain.Transcript, error) {
	return getTranscript(ctx, s.db, roomID)
}

func (s *SQLiteStore) CreateScorecard(ctx context.Context, scorecard *domain.Scorecard) error {
	return createScorecard(ctx, s.db, scorecard)
}

func (s *SQLiteStore) GetScorecardByRoom(ctx context.Context, roomID string) (*domain.Scorecard, error) {
	return getScorecardByRoom(ctx, s.db, roomID)
}

func (s *SQLiteStore) ListScorecardsByUser(ctx context.Context, userID string, opts ListOptions) ([]domain.Scorecard, error) {
	return listScorecardsByUser(ctx, s.db, userID, opts)
}

func (s *SQLiteStore) CountScorecardsByUser(ctx context.Context, userID string) (int, error) {
	return countScorecardsByUser(ctx, s.db, userID)
}

func (s *SQLiteStore) UpsertSummary(ctx context.Context, summary *domain.Summary) error {
	return upsertSummary(ctx, s.db, summary)
}

func (s *SQLiteStore) GetSummary(ctx context.Context, userID string) (*domain.Summary, error) {
	return getSummary(ctx, s.db, userID)
}

func (s *SQLiteStore) ListUsersWithStaleSummaries(ctx context.Context, limit int) ([]string, error) {
	return listUsersWithStaleSummaries(ctx, s.db, limit)
}

func (s *SQLiteStore) CreateCredential(ctx context.Context, cred *domain.Credential) error {
	return createCredential(ctx, s.db, cred)
}

func (s *SQLiteStore) GetCredential(ctx context.Context, id string) (*domain.Credential, error) {
	return getCredential(ctx, s.db, id)
}

func (s *SQLiteStore) DeleteCredential(ctx context.Context, id string) error {
	return deleteCredential(ctx, s.db, id)
}

func (s *SQLiteStore) ListCredentialsByOwner(ctx context.Context, ownerID string, opts ListOptions) ([]domain.Credential, error) {
	return listCredentialsByOwner(ctx, s.db, ownerID, opts)
}

func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *domain.Document) error {
	return createDocument(ctx, s.db, doc)
}

func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return getDocument(ctx, s.db, id)
}

func (s *SQLiteStore) DeleteDocument(ctx context.Context, id string) error {
	return deleteDocument(ctx, s.db, id)
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, opts ListOptions) ([]domain.Document, error) {
	return listDocuments(ctx, s.db, opts)
}

func (s *SQLiteStore) CreateChunks(ctx context.Context, chunks []domain.Chunk) error {
	return createChunks(ctx, s.db, chunks)
}

func (s *SQLiteStore) ListChunks(ctx context.Context) ([]domain.Chunk, error) {
	return listChunks(ctx, s.db)
}

// =============================================================================
// Transaction Support
// =============================================================================

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("WithTx", "", "", "failed to begin transaction", ErrTxFailed)
	}

	txS := &txSQLiteStore{tx: tx}

	if err := fn(txS); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return NewStoreError("WithTx", "", "", fmt.Sprintf("rollback failed after error: %v", err), ErrTxFailed)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("WithTx", "", "", "failed to commit transaction", ErrTxFailed)
	}

	return nil
}

// =============================================================================
// Transaction Store
// =============================================================================

// txSQLiteStore implements Store within a transaction.
type txSQLiteStore struct {
	tx *sqlx.Tx
}

func (s *txSQLiteStore) CreateUser(ctx context.Context, user *domain.User) error {
	return createUser(ctx, s.tx, user)
}

func (s *txSQLiteStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return getUser(ctx, s.tx, id)
}

func (s *txSQLiteStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return getUserByEmail(ctx, s.tx, email)
}

func (s *txSQLiteStore) UpdateUser(ctx context.Context, user *domain.User) error {
	return updateUser(ctx, s.tx, user)
}

func (s *txSQLiteStore) DeleteUser(ctx context.Context, id string) error {
	return deleteUser(ctx, s.tx, id)
}

func (s *txSQLiteStore) ListUsers(ctx context.Context, opts ListOptions) ([]domain.User, error) {
	return listUsers(ctx, s.tx, opts)
}

func (s *txSQLiteStore) CreateScenario(ctx context.Context, scenario *domain.Scenario) error {
	return createScenario(ctx, s.tx, scenario)
}

func (s *txSQLiteStore) GetScenario(ctx context.Context, id string) (*domain.Scenario, error) {
	return getScenario(ctx, s.tx, id)
}

func (s *txSQLiteStore) UpdateScenario(ctx context.Context, scenario *domain.Scenario) error {
	return updateScenario(ctx, s.tx, scenario)
}

func (s *txSQLiteStore) DeleteScenario(ctx context.Context, id string) error {
	return deleteScenario(ctx, s.tx, id)
}

func (s *txSQLiteStore) ListScenarios(ctx context.Context, opts ListOptions) ([]domain.Scenario, error) {
	return listScenarios(ctx, s.tx, opts)
}

func (s *txSQLiteStore) ListScenariosByKind(ctx context.Context, kind domain.Kind, opts ListOptions) ([]domain.Scenario, error) {
	return listScenariosByKind(ctx, s.tx, kind, opts)
}

func (s *txSQLiteStore) CreateTranscript(ctx context.Context, transcript *domain.Transcript) error {
	return createTranscript(ctx, s.tx, transcript)
}

func (s *txSQLiteStore) GetTranscript(ctx context.Context, roomID string) (*domain.Transcript, error) {
	return getTranscript(ctx, s.tx, roomID)
}

func (s *txSQLiteStore) CreateScorecard(ctx context.Context, scorecard *domain.Scorecard) error {
	return createScorecard(ctx, s.tx, scorecard)
}

func (s *txSQLiteStore) GetScorecardByRoom(ctx context.Context, roomID string) (*domain.Scorecard, error) {
	return getScorecardByRoom(ctx, s.tx, roomID)
}

func (s *txSQLiteStore) ListScorecardsByUser(ctx context.Context, userID string, opts ListOptions) ([]domain.Scorecard, error) {
	return listScorecardsByUser(ctx, s.tx, userID, opts)
}

func (s *txSQLiteStore) CountScorecardsByUser(ctx context.Context, userID string) (int, error) {
	return countScorecardsByUser(ctx, s.tx, userID)
}

func (s *txSQLiteStore) UpsertSummary(ctx context.Context, summary *domain.Summary) error {
	return upsertSummary(ctx, s.tx, summary)
}

func (s *txSQLiteStore) GetSummary(ctx context.Context, userID string) (*domain.Summary, error) {
	return getSummary(ctx, s.tx, userID)
}

func (s *txSQLiteStore) ListUsersWithStaleSummaries(ctx context.Context, limit int) ([]string, error) {
	return listUsersWithStaleSummaries(ctx, s.tx, limit)
}

func (s *txSQLiteStore) CreateCredential(ctx context.Context, cred *domain.Credential) error {
	return createCredential(ctx, s.tx, cred)
}

func (s *txSQLiteStore) GetCredential(ctx context.Context, id string) (*domain.Credential, error) {
	return getCredential(ctx, s.tx, id)
}

func (s *txSQLiteStore) DeleteCredential(ctx context.Context, id string) error {
	return deleteCredential(ctx, s.tx, id)
}

func (s *txSQLiteStore) ListCredentialsByOwner(ctx context.Context, ownerID string, opts ListOptions) ([]domain.Credential, error) {
	return listCredentialsByOwner(ctx, s.tx, ownerID, opts)
}

func (s *txSQLiteStore) CreateDocument(ctx context.Context, doc *domain.Document) error {
	return createDocument(ctx, s.tx, doc)
}

func (s *txSQLiteStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return getDocument(ctx, s.tx, id)
}

func (s *txSQLiteStore) DeleteDocument(ctx context.Context, id string) error {
	return deleteDocument(ctx, s.tx, id)
}

func (s *txSQLiteStore) ListDocuments(ctx context.Context, opts ListOptions) ([]domain.Document, error) {
	return listDocuments(ctx, s.tx, opts)
}

func (s *txSQLiteStore) CreateChunks(ctx context.Context, chunks []domain.Chunk) error {
	return createChunks(ctx, s.tx, chunks)
}

func (s *txSQLiteStore) ListChunks(ctx context.Context) ([]domain.Chunk, error) {
	return listChunks(ctx, s.tx)
}

// Nested transactions are not supported; run the function on the same tx.
func (s *txSQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	return fn(s)
}

func (s *txSQLiteStore) Close() error {
	return nil
}

// =============================================================================
// User Operations
// =============================================================================

// userRow represents a user row in the database.
type userRow struct {
	ID             string `db:"id"`
	Email          string `db:"email"`
	FullName       string `db:"full_name"`
	HashedPassword string `db:"hashed_password"`
	Disabled       bool   `db:"disabled"`
	CreatedAt      string `db:"created_at"`
	UpdatedAt      string `db:"updated_at"`
}

func rowToUser(row *userRow) (*domain.User, error) {
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return nil, NewStoreError("rowToUser", "user", row.ID, "invalid created_at", ErrInvalidData)
	}
	updatedAt, err := parseTime(row.UpdatedAt)
	if err != nil {
		return nil, NewStoreError("rowToUser", "user", row.ID, "invalid updated_at", ErrInvalidData)
	}

	return &domain.User{
		ID:             row.ID,
		Email:          row.Email,
		FullName:       row.FullName,
		HashedPassword: row.HashedPassword,
		Disabled:       row.Disabled,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

func createUser(ctx context.Context, exec executor, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, full_name, hashed_password, disabled, created_at, updated_at)
		VALUES (:id, :email, :full_name, :hashed_password, :disabled, :created_at, :updated_at)`

	row := map[string]any{
		"id":              user.ID,
		"email":           user.Email,
		"full_name":       user.FullName,
		"hashed_password": user.HashedPassword,
		"disabled":        user.Disabled,
		"created_at":      user.CreatedAt.Format(time.RFC3339),
		"updated_at":      user.UpdatedAt.Format(time.RFC3339),
	}

	_, err := exec.NamedExecContext(ctx, query, row)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return NewStoreError("CreateUser", "user", user.ID, "user with this email already exists", ErrDuplicateEmail)
		}
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.id") {
			return NewStoreError("CreateUser", "user", user.ID, "user with this ID already exists", ErrDuplicateID)
		}
		return NewStoreError("CreateUser", "user", user.ID, err.Error(), err)
	}

	return nil
}

func getUser(ctx context.Context, exec executor, id string) (*domain.User, error) {
	query := `SELECT * FROM users WHERE id = ?`

	var row userRow
	err := exec.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetUser", "user", id, "user not found", ErrNotFound)
		}
		return nil, NewStoreError("GetUser", "user", id, err.Error(), err)
	}

	return rowToUser(&row)
}

func getUserByEmail(ctx context.Context, exec executor, email string) (*domain.User, error) {
	query := `SELECT * FROM users WHERE email = ?`

	var row userRow
	err := exec.GetContext(ctx, &row, query, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetUserByEmail", "user", email, "user not found", ErrNotFound)
		}
		return nil, NewStoreError("GetUserByEmail", "user", email, err.Error(), err)
	}

	return rowToUser(&row)
}

func updateUser(ctx context.Context, exec executor, user *domain.User) error {
	query := `
		UPDATE users SET
			email = :email,
			full_name = :full_name,
			hashed_password = :hashed_password,
			disabled = :disabled,
			updated_at = :updated_at
		WHERE id = :id`

	row := map[string]any{
		"id":              user.ID,
		"email":           user.Email,
		"full_name":       user.FullName,
		"hashed_password": user.HashedPassword,
		"disabled":        user.Disabled,
		"updated_at":      user.UpdatedAt.Format(time.RFC3339),
	}

	result, err := exec.NamedExecContext(ctx, query, row)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return NewStoreError("UpdateUser", "user", user.ID, "user with this email already exists", ErrDuplicateEmail)
		}
		return NewStoreError("UpdateUser", "user", user.ID, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("UpdateUser", "user", user.ID, "user not found", ErrNotFound)
	}

	return nil
}

func deleteUser(ctx context.Context, exec executor, id string) error {
	query := `DELETE FROM users WHERE id = ?`

	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return NewStoreError("DeleteUser", "user", id, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("DeleteUser", "user", id, "user not found", ErrNotFound)
	}

	return nil
}

func listUsers(ctx context.Context, exec executor, opts ListOptions) ([]domain.User, error) {
	opts = opts.Normalize()
	query := `SELECT * FROM users ORDER BY created_at DESC LIMIT ? OFFSET ?`

	var rows []userRow
	err := exec.SelectContext(ctx, &rows, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListUsers", "user", "", err.Error(), err)
	}

	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		user, err := rowToUser(&row)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}

	return users, nil
}

// =============================================================================
// Scenario Operations
// =============================================================================

// scenarioRow represents a scenario row in the database.
type scenarioRow struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	Kind         string `db:"kind"`
	PersonaName  string `db:"persona_name"`
	Persona      string `db:"persona"`
	EasyPrompt   string `db:"easy_prompt"`
	MediumPrompt string `db:"medium_prompt"`
	HardPrompt   string `db:"hard_prompt"`
	ImageURL     string `db:"image_url"`
	VoiceID      string `db:"voice_id"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
}

func rowToScenario(row *scenarioRow) (*domain.Scenario, error) {
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return nil, NewStoreError("rowToScenario", "scenario", row.ID, "invalid created_at", ErrInvalidData)
	}
	updatedAt, err := parseTime(row.UpdatedAt)
	if err != nil {
		return nil, NewStoreError("rowToScenario", "scenario", row.ID, "invalid updated_at", ErrInvalidData)
	}

	return &domain.Scenario{
		ID:           row.ID,
		Name:         row.Name,
		Kind:         domain.Kind(row.Kind),
		PersonaName:  row.PersonaName,
		Persona:      row.Persona,
		EasyPrompt:   row.EasyPrompt,
		MediumPrompt: row.MediumPrompt,
		HardPrompt:   row.HardPrompt,
		ImageURL:     row.ImageURL,
		VoiceID:      row.VoiceID,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

func scenarioToRow(scenario *domain.Scenario) map[string]any {
	return map[string]any{
		"id":            scenario.ID,
		"name":          scenario.Name,
		"kind":          string(scenario.Kind),
		"persona_name":  scenario.PersonaName,
		"persona":       scenario.Persona,
		"easy_prompt":   scenario.EasyPrompt,
		"medium_prompt": scenario.MediumPrompt,
		"hard_prompt":   scenario.HardPrompt,
		"image_url":     scenario.ImageURL,
		"voice_id":      scenario.VoiceID,
		"created_at":    scenario.CreatedAt.Format(time.RFC3339),
		"updated_at":    scenario.UpdatedAt.Format(time.RFC3339),
	}
}

func createScenario(ctx context.Context, exec executor, scenario *domain.Scenario) error {
	query := `
		INSERT INTO scenarios (
			id, name, kind, persona_name, persona,
			easy_prompt, medium_prompt, hard_prompt,
			image_url, voice_id, created_at, updated_at
		) VALUES (
			:id, :name, :kind, :persona_name, :persona,
			:easy_prompt, :medium_prompt, :hard_prompt,
			:image_url, :voice_id, :created_at, :updated_at
		)`

	_, err := exec.NamedExecContext(ctx, query, scenarioToRow(scenario))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: scenarios.id") {
			return NewStoreError("CreateScenario", "scenario", scenario.ID, "scenario with this ID already exists", ErrDuplicateID)
		}
		return NewStoreError("CreateScenario", "scenario", scenario.ID, err.Error(), err)
	}

	return nil
}

func getScenario(ctx context.Context, exec executor, id string) (*domain.Scenario, error) {
	query := `SELECT * FROM scenarios WHERE id = ?`

	var row scenarioRow
	err := exec.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetScenario", "scenario", id, "scenario not found", ErrNotFound)
		}
		return nil, NewStoreError("GetScenario", "scenario", id, err.Error(), err)
	}

	return rowToScenario(&row)
}

func updateScenario(ctx context.Context, exec executor, scenario *domain.Scenario) error {
	query := `
		UPDATE scenarios SET
			name = :name,
			kind = :kind,
			persona_name = :persona_name,
			persona = :persona,
			easy_prompt = :easy_prompt,
			medium_prompt = :medium_prompt,
			hard_prompt = :hard_prompt,
			image_url = :image_url,
			voice_id = :voice_id,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := exec.NamedExecContext(ctx, query, scenarioToRow(scenario))
	if err != nil {
		return NewStoreError("UpdateScenario", "scenario", scenario.ID, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("UpdateScenario", "scenario", scenario.ID, "scenario not found", ErrNotFound)
	}

	return nil
}

func deleteScenario(ctx context.Context, exec executor, id string) error {
	query := `DELETE FROM scenarios WHERE id = ?`

	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return NewStoreError("DeleteScenario", "scenario", id, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("DeleteScenario", "scenario", id, "scenario not found", ErrNotFound)
	}

	return nil
}

func listScenarios(ctx context.Context, exec executor, opts ListOptions) ([]domain.Scenario, error) {
	opts = opts.Normalize()
	query := `SELECT * FROM scenarios ORDER BY created_at DESC LIMIT ? OFFSET ?`

	var rows []scenarioRow
	err := exec.SelectContext(ctx, &rows, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListScenarios", "scenario", "", err.Error(), err)
	}

	return rowsToScenarios(rows)
}

func listScenariosByKind(ctx context.Context, exec executor, kind domain.Kind, opts ListOptions) ([]domain.Scenario, error) {
	opts = opts.Normalize()
	query := `SELECT * FROM scenarios WHERE kind = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`

	var rows []scenarioRow
	err := exec.SelectContext(ctx, &rows, query, string(kind), opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListScenariosByKind", "scenario", "", err.Error(), err)
	}

	return rowsToScenarios(rows)
}

func rowsToScenarios(rows []scenarioRow) ([]domain.Scenario, error) {
	scenarios := make([]domain.Scenario, 0, len(rows))
	for _, row := range rows {
		scenario, err := rowToScenario(&row)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, *scenario)
	}
	return scenarios, nil
}

// =============================================================================
// Transcript Operations
// =============================================================================

// transcriptRow represents a transcript row in the database.
type transcriptRow struct {
	RoomID    string `db:"room_id"`
	Kind      string `db:"kind"`
	Entries   string `db:"entries"`
	CreatedAt string `db:"created_at"`
}

func createTranscript(ctx context.Context, exec executor, transcript *domain.Transcript) error {
	entriesJSON, err := json.Marshal(transcript.Entries)
	if err != nil {
		return NewStoreError("CreateTranscript", "transcript", transcript.RoomID, "failed to serialize entries", ErrInvalidData)
	}

	query := `
		INSERT INTO transcripts (room_id, kind, entries, created_at)
		VALUES (:room_id, :kind, :entries, :created_at)`

	row := map[string]any{
		"room_id":    transcript.RoomID,
		"kind":       string(transcript.Kind),
		"entries":    string(entriesJSON),
		"created_at": transcript.CreatedAt.Format(time.RFC3339),
	}

	_, err = exec.NamedExecContext(ctx, query, row)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: transcripts.room_id") {
			return NewStoreError("CreateTranscript", "transcript", transcript.RoomID, "room already has a transcript", ErrDuplicateRoom)
		}
		return NewStoreError("CreateTranscript", "transcript", transcript.RoomID, err.Error(), err)
	}

	return nil
}

func getTranscript(ctx context.Context, exec executor, roomID string) (*domain.Transcript, error) {
	query := `SELECT * FROM transcripts WHERE room_id = ?`

	var row transcriptRow
	err := exec.GetContext(ctx, &row, query, roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetTranscript", "transcript", roomID, "transcript not found", ErrNotFound)
		}
		return nil, NewStoreError("GetTranscript", "transcript", roomID, err.Error(), err)
	}

	var entries []domain.Entry
	if err := json.Unmarshal([]byte(row.Entries), &entries); err != nil {
		return nil, NewStoreError("GetTranscript", "transcript", roomID, "failed to deserialize entries", ErrInvalidData)
	}

	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return nil, NewStoreError("GetTranscript", "transcript", roomID, "invalid created_at", ErrInvalidData)
	}

	return &domain.Transcript{
		RoomID:    row.RoomID,
		Kind:      domain.Kind(row.Kind),
		Entries:   entries,
		CreatedAt: createdAt,
	}, nil
}

// =============================================================================
// Scorecard Operations
// =============================================================================

// scorecardRow represents a scorecard row in the database.
// Category score groups and feedback are stored as JSON documents.
type scorecardRow struct {
	RoomID          string `db:"room_id"`
	UserID          string `db:"user_id"`
	Kind            string `db:"kind"`
	Communication   string `db:"communication"`
	Interaction     string `db:"interaction"`
	Sales           string `db:"sales"`
	Professionalism string `db:"professionalism"`
	Feedback        string `db:"feedback"`
	CreatedAt       string `db:"created_at"`
}

func rowToScorecard(row *scorecardRow) (*domain.Scorecard, error) {
	card := &domain.Scorecard{
		RoomID: row.RoomID,
		UserID: row.UserID,
		Kind:   domain.Kind(row.Kind),
	}

	if err := json.Unmarshal([]byte(row.Communication), &card.Communication); err != nil {
		return nil, NewStoreError("rowToScorecard", "scorecard", row.RoomID, "failed to deserialize communication scores", ErrInvalidData)
	}
	if err := json.Unmarshal([]byte(row.Interaction), &card.Interaction); err != nil {
		return nil, NewStoreError("rowToScorecard", "scorecard", row.RoomID, "failed to deserialize interaction scores", ErrInvalidData)
	}
	if err := json.Unmarshal([]byte(row.Sales), &card.Sales); err != nil {
		return nil, NewStoreError("rowToScorecard", "scorecard", row.RoomID, "failed to deserialize sales scores", ErrInvalidData)
	}
	if err := json.Unmarshal([]byte(row.Professionalism), &card.Professionalism); err != nil {
		return nil, NewStoreError("rowToScorecard", "scorecard", row.RoomID, "failed to deserialize professionalism scores", ErrInvalidData)
	}
	if err := json.Unmarshal([]byte(row.Feedback), &card.Feedback); err != nil {
		return nil, NewStoreError("rowToScorecard", "scorecard", row.RoomID, "failed to deserialize feedback", ErrInvalidData)
	}

	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return nil, NewStoreError("rowToScorecard", "scorecard", row.RoomID, "invalid created_at", ErrInvalidData)
	}
	card.CreatedAt = createdAt

	return card, nil
}

func createScorecard(ctx context.Context, exec executor, scorecard *domain.Scorecard) error {
	communicationJSON, err := json.Marshal(scorecard.Communication)
	if err != nil {
		return NewStoreError("CreateScorecard", "scorecard", scorecard.RoomID, "failed to serialize communication scores", ErrInvalidData)
	}
	interactionJSON, err := json.Marshal(scorecard.Interaction)
	if err != nil {
		return NewStoreError("CreateScorecard", "scorecard", scorecard.RoomID, "failed to serialize interaction scores", ErrInvalidData)
	}
	salesJSON, err := json.Marshal(scorecard.Sales)
	if err != nil {
		return NewStoreError("CreateScorecard", "scorecard", scorecard.RoomID, "failed to serialize sales scores", ErrInvalidData)
	}
	professionalismJSON, err := json.Marshal(scorecard.Professionalism)
	if err != nil {
		return NewStoreError("CreateScorecard", "scorecard", scorecard.RoomID, "failed to serialize professionalism scores", ErrInvalidData)
	}
	feedbackJSON, err := json.Marshal(scorecard.Feedback)
	if err != nil {
		return NewStoreError("CreateScorecard", "scorecard", scorecard.RoomID, "failed to serialize feedback", ErrInvalidData)
	}

	query := `
		INSERT INTO scorecards (
			room_id, user_id, kind,
			communication, interaction, sales, professionalism,
			feedback, created_at
		) VALUES (
			:room_id, :user_id, :kind,
			:communication, :interaction, :sales, :professionalism,
			:feedback, :created_at
		)`

	row := map[string]any{
		"room_id":         scorecard.RoomID,
		"user_id":         scorecard.UserID,
		"kind":            string(scorecard.Kind),
		"communication":   string(communicationJSON),
		"interaction":     string(interactionJSON),
		"sales":           string(salesJSON),
		"professionalism": string(professionalismJSON),
		"feedback":        string(feedbackJSON),
		"created_at":      scorecard.CreatedAt.Format(time.RFC3339),
	}

	_, err = exec.NamedExecContext(ctx, query, row)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: scorecards.room_id") {
			return NewStoreError("CreateScorecard", "scorecard", scorecard.RoomID, "room already has a scorecard", ErrDuplicateRoom)
		}
		return NewStoreError("CreateScorecard", "scorecard", scorecard.RoomID, err.Error(), err)
	}

	return nil
}

func getScorecardByRoom(ctx context.Context, exec executor, roomID string) (*domain.Scorecard, error) {
	query := `SELECT * FROM scorecards WHERE room_id = ?`

	var row scorecardRow
	err := exec.GetContext(ctx, &row, query, roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetScorecardByRoom", "scorecard", roomID, "scorecard not found", ErrNotFound)
		}
		return nil, NewStoreError("GetScorecardByRoom", "scorecard", roomID, err.Error(), err)
	}

	return rowToScorecard(&row)
}

func listScorecardsByUser(ctx context.Context, exec executor, userID string, opts ListOptions) ([]domain.Scorecard, error) {
	opts = opts.Normalize()
	query := `SELECT * FROM scorecards WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`

	var rows []scorecardRow
	err := exec.SelectContext(ctx, &rows, query, userID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListScorecardsByUser", "scorecard", "", err.Error(), err)
	}

	cards := make([]domain.Scorecard, 0, len(rows))
	for _, row := range rows {
		card, err := rowToScorecard(&row)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *card)
	}

	return cards, nil
}

func countScorecardsByUser(ctx context.Context, exec executor, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM scorecards WHERE user_id = ?`

	var count int
	if err := exec.GetContext(ctx, &count, query, userID); err != nil {
		return 0, NewStoreError("CountScorecardsByUser", "scorecard", "", err.Error(), err)
	}

	return count, nil
}

// =============================================================================
// Summary Operations
// =============================================================================

// summaryRow represents a summary row in the database.
type summaryRow struct {
	UserID          string `db:"user_id"`
	PositiveTips    string `db:"positive_tips"`
	ImprovementTips string `db:"improvement_tips"`
	ScorecardCount  int    `db:"scorecard_count"`
	GeneratedAt     string `db:"generated_at"`
}

func upsertSummary(ctx context.Context, exec executor, summary *domain.Summary) error {
	positiveJSON, err := json.Marshal(summary.PositiveTips)
	if err != nil {
		return NewStoreError("UpsertSummary", "summary", summary.UserID, "failed to serialize positive tips", ErrInvalidData)
	}
	improvementJSON, err := json.Marshal(summary.ImprovementTips)
	if err != nil {
		return NewStoreError("UpsertSummary", "summary", summary.UserID, "failed to serialize improvement tips", ErrInvalidData)
	}

	query := `
		INSERT INTO summaries (user_id, positive_tips, improvement_tips, scorecard_count, generated_at)
		VALUES (:user_id, :positive_tips, :improvement_tips, :scorecard_count, :generated_at)
		ON CONFLICT(user_id) DO UPDATE SET
			positive_tips = excluded.positive_tips,
			improvement_tips = excluded.improvement_tips,
			scorecard_count = excluded.scorecard_count,
			generated_at = excluded.generated_at`

	row := map[string]any{
		"user_id":          summary.UserID,
		"positive_tips":    string(positiveJSON),
		"improvement_tips": string(improvementJSON),
		"scorecard_count":  summary.ScorecardCount,
		"generated_at":     summary.GeneratedAt.Format(time.RFC3339),
	}

	if _, err := exec.NamedExecContext(ctx, query, row); err != nil {
		return NewStoreError("UpsertSummary", "summary", summary.UserID, err.Error(), err)
	}

	return nil
}

func getSummary(ctx context.Context, exec executor, userID string) (*domain.Summary, error) {
	query := `SELECT * FROM summaries WHERE user_id = ?`

	var row summaryRow
	err := exec.GetContext(ctx, &row, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetSummary", "summary", userID, "summary not found", ErrNotFound)
		}
		return nil, NewStoreError("GetSummary", "summary", userID, err.Error(), err)
	}

	summary := &domain.Summary{
		UserID:         row.UserID,
		ScorecardCount: row.ScorecardCount,
	}
	if err := json.Unmarshal([]byte(row.PositiveTips), &summary.PositiveTips); err != nil {
		return nil, NewStoreError("GetSummary", "summary", userID, "failed to deserialize positive tips", ErrInvalidData)
	}
	if err := json.Unmarshal([]byte(row.ImprovementTips), &summary.ImprovementTips); err != nil {
		return nil, NewStoreError("GetSummary", "summary", userID, "failed to deserialize improvement tips", ErrInvalidData)
	}

	generatedAt, err := parseTime(row.GeneratedAt)
	if err != nil {
		return nil, NewStoreError("GetSummary", "summary", userID, "invalid generated_at", ErrInvalidData)
	}
	summary.GeneratedAt = generatedAt

	return summary, nil
}

func listUsersWithStaleSummaries(ctx context.Context, exec executor, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}

	// Users with scorecards whose count moved past the summary watermark,
	// including users with no summary row yet.
	query := `
		SELECT sc.user_id
		FROM scorecards sc
		LEFT JOIN summaries sm ON sm.user_id = sc.user_id
		WHERE sc.user_id != ''
		GROUP BY sc.user_id
		HAVING COUNT(*) > COALESCE(MAX(sm.scorecard_count), 0)
		LIMIT ?`

	var userIDs []string
	if err := exec.SelectContext(ctx, &userIDs, query, limit); err != nil {
		return nil, NewStoreError("ListUsersWithStaleSummaries", "summary", "", err.Error(), err)
	}

	return userIDs, nil
}

// =============================================================================
// Credential Operations
// =============================================================================

// credentialRow represents a credential row in the database.
type credentialRow struct {
	ID              string `db:"id"`
	OwnerID         string `db:"owner_id"`
	Name            string `db:"name"`
	Provider        string `db:"provider"`
	APIKeyEncrypted []byte `db:"api_key_encrypted"`
	CreatedAt       string `db:"created_at"`
}

func rowToCredential(row *credentialRow) (*domain.Credential, error) {
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return nil, NewStoreError("rowToCredential", "credential", row.ID, "invalid created_at", ErrInvalidData)
	}

	return &domain.Credential{
		ID:              row.ID,
		OwnerID:         row.OwnerID,
		Name:            row.Name,
		Provider:        domain.Provider(row.Provider),
		APIKeyEncrypted: row.APIKeyEncrypted,
		CreatedAt:       createdAt,
	}, nil
}

func createCredential(ctx context.Context, exec executor, cred *domain.Credential) error {
	query := `
		INSERT INTO credentials (id, owner_id, name, provider, api_key_encrypted, created_at)
		VALUES (:id, :owner_id, :name, :provider, :api_key_encrypted, :created_at)`

	row := map[string]any{
		"id":                cred.ID,
		"owner_id":          cred.OwnerID,
		"name":              cred.Name,
		"provider":          string(cred.Provider),
		"api_key_encrypted": cred.APIKeyEncrypted,
		"created_at":        cred.CreatedAt.Format(time.RFC3339),
	}

	_, err := exec.NamedExecContext(ctx, query, row)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: credentials.id") {
			return NewStoreError("CreateCredential", "credential", cred.ID, "credential with this ID already exists", ErrDuplicateID)
		}
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return NewStoreError("CreateCredential", "credential", cred.ID, "owner not found", ErrForeignKey)
		}
		return NewStoreError("CreateCredential", "credential", cred.ID, err.Error(), err)
	}

	return nil
}

func getCredential(ctx context.Context, exec executor, id string) (*domain.Credential, error) {
	query := `SELECT * FROM credentials WHERE id = ?`

	var row credentialRow
	err := exec.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetCredential", "credential", id, "credential not found", ErrNotFound)
		}
		return nil, NewStoreError("GetCredential", "credential", id, err.Error(), err)
	}

	return rowToCredential(&row)
}

func deleteCredential(ctx context.Context, exec executor, id string) error {
	query := `DELETE FROM credentials WHERE id = ?`

	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return NewStoreError("DeleteCredential", "credential", id, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("DeleteCredential", "credential", id, "credential not found", ErrNotFound)
	}

	return nil
}

func listCredentialsByOwner(ctx context.Context, exec executor, ownerID string, opts ListOptions) ([]domain.Credential, error) {
	opts = opts.Normalize()
	query := `SELECT * FROM credentials WHERE owner_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`

	var rows []credentialRow
	err := exec.SelectContext(ctx, &rows, query, ownerID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListCredentialsByOwner", "credential", "", err.Error(), err)
	}

	creds := make([]domain.Credential, 0, len(rows))
	for _, row := range rows {
		cred, err := rowToCredential(&row)
		if err != nil {
			return nil, err
		}
		creds = append(creds, *cred)
	}

	return creds, nil
}

// =============================================================================
// Document Operations
// =============================================================================

// documentRow represents a document row in the database.
type documentRow struct {
	ID         string `db:"id"`
	Name       string `db:"name"`
	Source     string `db:"source"`
	ChunkCount int    `db:"chunk_count"`
	CreatedAt  string `db:"created_at"`
}

func rowToDocument(row *documentRow) (*domain.Document, error) {
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return nil, NewStoreError("rowToDocument", "document", row.ID, "invalid created_at", ErrInvalidData)
	}

	return &domain.Document{
		ID:         row.ID,
		Name:       row.Name,
		Source:     row.Source,
		ChunkCount: row.ChunkCount,
		CreatedAt:  createdAt,
	}, nil
}

func createDocument(ctx context.Context, exec executor, doc *domain.Document) error {
	query := `
		INSERT INTO documents (id, name, source, chunk_count, created_at)
		VALUES (:id, :name, :source, :chunk_count, :created_at)`

	row := map[string]any{
		"id":          doc.ID,
		"name":        doc.Name,
		"source":      doc.Source,
		"chunk_count": doc.ChunkCount,
		"created_at":  doc.CreatedAt.Format(time.RFC3339),
	}

	_, err := exec.NamedExecContext(ctx, query, row)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: documents.id") {
			return NewStoreError("CreateDocument", "document", doc.ID, "document with this ID already exists", ErrDuplicateID)
		}
		return NewStoreError("CreateDocument", "document", doc.ID, err.Error(), err)
	}

	return nil
}

func getDocument(ctx context.Context, exec executor, id string) (*domain.Document, error) {
	query := `SELECT * FROM documents WHERE id = ?`

	var row documentRow
	err := exec.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetDocument", "document", id, "document not found", ErrNotFound)
		}
		return nil, NewStoreError("GetDocument", "document", id, err.Error(), err)
	}

	return rowToDocument(&row)
}

func deleteDocument(ctx context.Context, exec executor, id string) error {
	// Chunks cascade via foreign key.
	query := `DELETE FROM documents WHERE id = ?`

	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return NewStoreError("DeleteDocument", "document", id, err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("DeleteDocument", "document", id, "document not found", ErrNotFound)
	}

	return nil
}

func listDocuments(ctx context.Context, exec executor, opts ListOptions) ([]domain.Document, error) {
	opts = opts.Normalize()
	query := `SELECT * FROM documents ORDER BY created_at DESC LIMIT ? OFFSET ?`

	var rows []documentRow
	err := exec.SelectContext(ctx, &rows, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListDocuments", "document", "", err.Error(), err)
	}

	docs := make([]domain.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := rowToDocument(&row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	return docs, nil
}

// =============================================================================
// Chunk Operations
// =============================================================================

// chunkRow represents a chunk row in the database.
// Embeddings are stored as JSON float arrays.
type chunkRow struct {
	DocumentID string `db:"document_id"`
	Seq        int    `db:"seq"`
	Content    string `db:"content"`
	Embedding  string `db:"embedding"`
}

func createChunks(ctx context.Context, exec executor, chunks []domain.Chunk) error {
	query := `
		INSERT INTO chunks (document_id, seq, content, embedding)
		VALUES (:document_id, :seq, :content, :embedding)`

	for _, chunk := range chunks {
		embeddingJSON, err := json.Marshal(chunk.Embedding)
		if err != nil {
			return NewStoreError("CreateChunks", "chunk", chunk.DocumentID, "failed to serialize embedding", ErrInvalidData)
		}

		row := map[string]any{
			"document_id": chunk.DocumentID,
			"seq":         chunk.Seq,
			"content":     chunk.Content,
			"embedding":   string(embeddingJSON),
		}

		if _, err := exec.NamedExecContext(ctx, query, row); err != nil {
			if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
				return NewStoreError("CreateChunks", "chunk", chunk.DocumentID, "document not found", ErrForeignKey)
			}
			return NewStoreError("CreateChunks", "chunk", chunk.DocumentID, err.Error(), err)
		}
	}

	return nil
}

func listChunks(ctx context.Context, exec executor) ([]domain.Chunk, error) {
	query := `SELECT * FROM chunks ORDER BY document_id, seq`

	var rows []chunkRow
	if err := exec.SelectContext(ctx, &rows, query); err != nil {
		return nil, NewStoreError("ListChunks", "chunk", "", err.Error(), err)
	}

	chunks := make([]domain.Chunk, 0, len(rows))
	for _, row := range rows {
		var embedding []float32
		if err := json.Unmarshal([]byte(row.Embedding), &embedding); err != nil {
			return nil, NewStoreError("ListChunks", "chunk", row.DocumentID, "failed to deserialize embedding", ErrInvalidData)
		}
		chunks = append(chunks, domain.Chunk{
			DocumentID: row.DocumentID,
			Seq:        row.Seq,
			Content:    row.Content,
			Embedding:  embedding,
		})
	}

	return chunks, nil
}

// =============================================================================
// Helpers
// =============================================================================

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
