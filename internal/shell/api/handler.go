// Package api provides HTTP handlers for the PitchLab API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	coreauth "github.com/pitchlab/pitchlab/internal/core/auth"
	"github.com/pitchlab/pitchlab/internal/core/crypto"
	"github.com/pitchlab/pitchlab/internal/core/domain"
	"github.com/pitchlab/pitchlab/internal/shell/store"
)

// =============================================================================
// Collaborator Interfaces
// =============================================================================

// Scorer generates a scorecard from a transcript.
type Scorer interface {
	Score(ctx context.Context, t *domain.Transcript) (*domain.Scorecard, error)
}

// Ingester adds a document to the knowledge base.
type Ingester interface {
	Ingest(ctx context.Context, name, source, text string) (*domain.Document, error)
}

// SummaryRefresher regenerates a user's dashboard summary on demand.
type SummaryRefresher interface {
	RefreshUser(ctx context.Context, userID string) (*domain.Summary, error)
}

// =============================================================================
// Handler
// =============================================================================

// Handler provides HTTP handlers for the API.
type Handler struct {
	store         store.Store
	engine        Scorer
	ingester      Ingester
	summaries     SummaryRefresher
	issuer        *coreauth.TokenIssuer
	encryptionKey []byte
	logger        *slog.Logger
}

// HandlerConfig holds the handler's collaborators.
type HandlerConfig struct {
	Store         store.Store
	Engine        Scorer
	Ingester      Ingester
	Summaries     SummaryRefresher
	Issuer        *coreauth.TokenIssuer
	EncryptionKey []byte
	Logger        *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{
		store:         cfg.Store,
		engine:        cfg.Engine,
		ingester:      cfg.Ingester,
		summaries:     cfg.Summaries,
		issuer:        cfg.Issuer,
		encryptionKey: cfg.EncryptionKey,
		logger:        cfg.Logger,
	}
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.jsonContentType)
	r.Use(h.requestIDHeader)

	// Health endpoints
	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)
	r.Get("/openapi.json", h.handleOpenAPI())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes (public)
		r.Post("/auth/signup", h.handleSignup)
		r.Post("/auth/token", h.handleToken)

		// Everything else requires a bearer token
		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			// Account routes
			r.Route("/users", func(r chi.Router) {
				r.Get("/me", h.handleGetMe)
				r.Put("/me", h.handleUpdateMe)
				r.Delete("/me", h.handleDeleteMe)
				r.Get("/{id}/feedback", h.handleListFeedback)
				r.Get("/{id}/summary", h.handleGetSummary)
			})

			// Scenario routes
			r.Route("/scenarios", func(r chi.Router) {
				r.Post("/", h.handleCreateScenario)
				r.Get("/", h.handleListScenarios)
				r.Get("/pick", h.handlePickScenario)
				r.Get("/{id}", h.handleGetScenario)
				r.Put("/{id}", h.handleUpdateScenario)
				r.Delete("/{id}", h.handleDeleteScenario)
			})

			// Transcript routes
			r.Route("/transcripts", func(r chi.Router) {
				r.Post("/", h.handleCreateTranscript)
				r.Get("/{roomID}", h.handleGetTranscript)
			})

			// Scorecard routes
			r.Route("/scorecards", func(r chi.Router) {
				r.Post("/{roomID}", h.handleGenerateScorecard)
				r.Get("/{roomID}", h.handleGetScorecard)
			})

			// Credential routes
			r.Route("/credentials", func(r chi.Router) {
				r.Post("/", h.handleCreateCredential)
				r.Get("/", h.handleListCredentials)
				r.Delete("/{id}", h.handleDeleteCredential)
			})

			// Knowledge base routes
			r.Route("/documents", func(r chi.Router) {
				r.Post("/", h.handleCreateDocument)
				r.Get("/", h.handleListDocuments)
				r.Delete("/{id}", h.handleDeleteDocument)
			})
		})
	})

	return r
}

// =============================================================================
// Middleware
// =============================================================================

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Health Handlers
// =============================================================================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)

	// Check database with a cheap query
	if _, err := h.store.ListUsers(r.Context(), store.ListOptions{Limit: 1}); err != nil {
		checks["database"] = "failed"
		h.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{
			Status: "not_ready",
			Checks: checks,
		})
		return
	}
	checks["database"] = "ok"

	h.writeJSON(w, http.StatusOK, ReadyResponse{
		Status: "ready",
		Checks: checks,
	})
}

// =============================================================================
// Auth Handlers
// =============================================================================

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	if err := domain.ValidateEmail(req.Email); err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error(), "validation_error")
		return
	}
	if err := domain.ValidatePassword(req.Password); err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error(), "validation_error")
		return
	}

	hash, err := coreauth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create user", "internal_error")
		return
	}

	user, err := domain.NewUser(req.Email, req.FullName, hash)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error(), "validation_error")
		return
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			h.writeError(w, http.StatusConflict, "email already registered", "duplicate_email")
			return
		}
		h.logger.Error("failed to create user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create user", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusCreated, userToResponse(user))
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusUnauthorized, "incorrect email or password", "invalid_credentials")
			return
		}
		h.logger.Error("failed to look up user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to authenticate", "internal_error")
		return
	}

	if err := coreauth.VerifyPassword(req.Password, user.HashedPassword); err != nil {
		h.writeError(w, http.StatusUnauthorized, "incorrect email or password", "invalid_credentials")
		return
	}

	if err := user.CheckActive(); err != nil {
		h.writeError(w, http.StatusBadRequest, "inactive user", "user_disabled")
		return
	}

	token, expires, err := h.issuer.Issue(user.Email)
	if err != nil {
		h.logger.Error("failed to issue token", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to authenticate", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expires,
	})
}

// =============================================================================
// User Handlers
// =============================================================================

func (h *Handler) handleGetMe(w http.ResponseWriter, r *http.Request) {
	user, _ := coreauth.UserFromContext(r.Context())
	h.writeJSON(w, http.StatusOK, userToResponse(user))
}

func (h *Handler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	user, _ := coreauth.UserFromContext(r.Context())

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Password != nil {
		if err := domain.ValidatePassword(*req.Password); err != nil {
			h.writeError(w, http.StatusUnprocessableEntity, err.Error(), "validation_error")
			return
		}
		hash, err := coreauth.HashPassword(*req.Password)
		if err != nil {
			h.logger.Error("failed to hash password", "error", err)
			h.writeError(w, http.StatusInternalServerError, "failed to update user", "internal_error")
			return
		}
		user.HashedPassword = hash
	}
	user.UpdatedAt = time.Now().UTC()

	if err := h.store.UpdateUser(r.Context(), user); err != nil {
		h.logger.Error("failed to update user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to update user", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, userToResponse(user))
}

func (h *Handler) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	user, _ := coreauth.UserFromContext(r.Context())

	if err := h.store.DeleteUser(r.Context(), user.ID); err != nil {
		h.logger.Error("failed to delete user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to delete user", "internal_error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// resolveUserID maps the {id} path segment to a user ID the caller may
// access. "me" is an alias for the authenticated user; other users'
// feedback and summaries are off limits.
func (h *Handler) resolveUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, _ := coreauth.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")
	if id == "me" || id == user.ID {
		return user.ID, true
	}
	h.writeError(w, http.StatusForbidden, "cannot access another user's data", "forbidden")
	return "", false
}

func (h *Handler) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUserID(w, r)
	if !ok {
		return
	}

	cards, err := h.store.ListScorecardsByUser(r.Context(), userID, listOptionsFromQuery(r))
	if err != nil {
		h.logger.Error("failed to list scorecards", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list feedback", "internal_error")
		return
	}
	if len(cards) == 0 {
		h.writeError(w, http.StatusNotFound, "no feedback found for user", "feedback_not_found")
		return
	}

	resp := ListFeedbackResponse{
		UserID: userID,
		Rooms:  make([]RoomFeedback, 0, len(cards)),
	}
	for _, card := range cards {
		resp.Rooms = append(resp.Rooms, RoomFeedback{
			RoomID:    card.RoomID,
			Kind:      card.Kind,
			Feedback:  card.Feedback,
			CreatedAt: card.CreatedAt,
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.resolveUserID(w, r)
	if !ok {
		return
	}

	summary, err := h.store.GetSummary(r.Context(), userID)
	if err == nil {
		count, countErr := h.store.CountScorecardsByUser(r.Context(), userID)
		if countErr != nil {
			h.logger.Error("failed to count scorecards", "error", countErr)
			h.writeError(w, http.StatusInternalServerError, "failed to get summary", "internal_error")
			return
		}
		if count <= summary.ScorecardCount {
			h.writeJSON(w, http.StatusOK, summary)
			return
		}
		// Scorecards landed after the summary was generated; fall through
	} else if !isNotFound(err) {
		h.logger.Error("failed to get summary", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get summary", "internal_error")
		return
	}

	// Missing or stale: regenerate on demand
	summary, err = h.summaries.RefreshUser(r.Context(), userID)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "no feedback to summarize", "summary_not_found")
			return
		}
		h.logger.Error("failed to generate summary", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to generate summary", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

// =============================================================================
// Scenario Handlers
// =============================================================================

func (h *Handler) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	var req CreateScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	scenario, err := domain.NewScenario(req.Name, domain.Kind(req.Kind))
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error(), "validation_error")
		return
	}
	scenario.PersonaName = req.PersonaName
	scenario.Persona = req.Persona
	scenario.EasyPrompt = req.EasyPrompt
	scenario.MediumPrompt = req.MediumPrompt
	scenario.HardPrompt = req.HardPrompt
	scenario.ImageURL = req.ImageURL
	scenario.VoiceID = req.VoiceID

	if errs := scenario.Validate(); len(errs) > 0 {
		h.writeError(w, http.StatusUnprocessableEntity, errs[0].Error(), "validation_error")
		return
	}

	if err := h.store.CreateScenario(r.Context(), scenario); err != nil {
		h.logger.Error("failed to create scenario", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create scenario", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusCreated, scenario)
}

func (h *Handler) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	scenario, err := h.store.GetScenario(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "scenario not found", "scenario_not_found")
			return
		}
		h.logger.Error("failed to get scenario", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get scenario", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, scenario)
}

func (h *Handler) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	opts := listOptionsFromQuery(r)

	var (
		scenarios []domain.Scenario
		err       error
	)
	if kind := r.URL.Query().Get("kind"); kind != "" {
		if !domain.Kind(kind).IsValid() {
			h.writeError(w, http.StatusUnprocessableEntity, domain.ErrInvalidKind.Error(), "validation_error")
			return
		}
		scenarios, err = h.store.ListScenariosByKind(r.Context(), domain.Kind(kind), opts)
	} else {
		scenarios, err = h.store.ListScenarios(r.Context(), opts)
	}
	if err != nil {
		h.logger.Error("failed to list scenarios", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list scenarios", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, ListScenariosResponse{
		Scenarios: scenarios,
		Total:     len(scenarios),
		Limit:     opts.Normalize().Limit,
		Offset:    opts.Normalize().Offset,
	})
}

func (h *Handler) handlePickScenario(w http.ResponseWriter, r *http.Request) {
	kind := domain.Kind(r.URL.Query().Get("kind"))
	if !kind.IsValid() {
		h.writeError(w, http.StatusUnprocessableEntity, domain.ErrInvalidKind.Error(), "validation_error")
		return
	}

	difficulty := domain.Difficulty(r.URL.Query().Get("difficulty"))
	if difficulty == "" {
		difficulty = domain.DifficultyEasy
	}
	if !difficulty.IsValid() {
		h.writeError(w, http.StatusUnprocessableEntity, domain.ErrInvalidDifficulty.Error(), "validation_error")
		return
	}

	scenarios, err := h.store.ListScenariosByKind(r.Context(), kind, store.DefaultListOptions())
	if err != nil {
		h.logger.Error("failed to list scenarios", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to pick scenario", "internal_error")
		return
	}
	if len(scenarios) == 0 {
		h.writeError(w, http.StatusNotFound, "no scenarios for kind", "scenario_not_found")
		return
	}

	picked := scenarios[rand.Intn(len(scenarios))]
	prompt, err := picked.PromptFor(difficulty)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error(), "validation_error")
		return
	}

	h.writeJSON(w, http.StatusOK, PickScenarioResponse{
		Scenario:   picked,
		Difficulty: string(difficulty),
		Prompt:     prompt,
	})
}

func (h *Handler) handleUpdateScenario(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	scenario, err := h.store.GetScenario(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "scenario not found", "scenario_not_found")
			return
		}
		h.logger.Error("failed to get scenario", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get scenario", "internal_error")
		return
	}

	var req UpdateScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	// Apply updates
	if req.Name != "" {
		scenario.Name = req.Name
	}
	if req.PersonaName != "" {
		scenario.PersonaName = req.PersonaName
	}
	if req.Persona != "" {
		scenario.Persona = req.Persona
	}
	if req.EasyPrompt != "" {
		scenario.EasyPrompt = req.EasyPrompt
	}
	if req.MediumPrompt != "" {
		scenario.MediumPrompt = req.MediumPrompt
	}
	if req.HardPrompt != "" {
		scenario.HardPrompt = req.HardPrompt
	}
	if req.ImageURL != "" {
		scenario.ImageURL = req.ImageURL
	}
	if req.VoiceID != "" {
		scenario.VoiceID = req.VoiceID
	}
	scenario.UpdatedAt = time.Now().UTC()

	if err := h.store.UpdateScenario(r.Context(), scenario); err != nil {
		h.logger.Error("failed to update scenario", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to update scenario", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, scenario)
}

func (h *Handler) handleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.DeleteScenario(r.Context(), id); err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "scenario not found", "scenario_not_found")
			return
		}
		h.logger.Error("failed to delete scenario", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to delete scenario", "internal_error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Transcript Handlers
// =============================================================================

func (h *Handler) handleCreateTranscript(w http.ResponseWriter, r *http.Request) {
	var req CreateTranscriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	transcript, err := domain.NewTranscript(req.RoomID, domain.Kind(req.Kind), req.Entries)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error(), "validation_error")
		return
	}

	if err := h.store.CreateTranscript(r.Context(), transcript); err != nil {
		if errors.Is(err, store.ErrDuplicateRoom) {
			h.writeError(w, http.StatusConflict, "room already has a transcript", "duplicate_room")
			return
		}
		h.logger.Error("failed to create transcript", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create transcript", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusCreated, transcript)
}

func (h *Handler) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	transcript, err := h.store.GetTranscript(r.Context(), roomID)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "transcript not found", "transcript_not_found")
			return
		}
		h.logger.Error("failed to get transcript", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get transcript", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, transcript)
}

// =============================================================================
// Scorecard Handlers
// =============================================================================

func (h *Handler) handleGenerateScorecard(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	// Scorecards are generated once per room; return the cached card if the
	// room was already scored.
	card, err := h.store.GetScorecardByRoom(r.Context(), roomID)
	if err == nil {
		h.writeJSON(w, http.StatusOK, card)
		return
	}
	if !isNotFound(err) {
		h.logger.Error("failed to check scorecard", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to generate scorecard", "internal_error")
		return
	}

	transcript, err := h.store.GetTranscript(r.Context(), roomID)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "transcript not found", "transcript_not_found")
			return
		}
		h.logger.Error("failed to get transcript", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to generate scorecard", "internal_error")
		return
	}

	card, err = h.engine.Score(r.Context(), transcript)
	if err != nil {
		h.logger.Error("scoring failed", "room_id", roomID, "error", err)
		h.writeError(w, http.StatusBadGateway, "scoring failed", "scoring_failed")
		return
	}

	user, _ := coreauth.UserFromContext(r.Context())
	card.UserID = user.ID

	if err := h.store.CreateScorecard(r.Context(), card); err != nil {
		if errors.Is(err, store.ErrDuplicateRoom) {
			// Lost the race against a concurrent generator; return the winner
			card, err = h.store.GetScorecardByRoom(r.Context(), roomID)
			if err != nil {
				h.logger.Error("failed to re-read scorecard", "error", err)
				h.writeError(w, http.StatusInternalServerError, "failed to generate scorecard", "internal_error")
				return
			}
			h.writeJSON(w, http.StatusOK, card)
			return
		}
		h.logger.Error("failed to store scorecard", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to generate scorecard", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusCreated, card)
}

func (h *Handler) handleGetScorecard(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	card, err := h.store.GetScorecardByRoom(r.Context(), roomID)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "scorecard not found", "scorecard_not_found")
			return
		}
		h.logger.Error("failed to get scorecard", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get scorecard", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, card)
}

// =============================================================================
// Credential Handlers
// =============================================================================

func (h *Handler) handleCreateCredential(w http.ResponseWriter, r *http.Request) {
	user, _ := coreauth.UserFromContext(r.Context())

	var req CreateCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	if req.APIKey == "" {
		h.writeError(w, http.StatusUnprocessableEntity, domain.ErrCredentialKeyRequired.Error(), "validation_error")
		return
	}

	cred, err := domain.NewCredential(user.ID, req.Name, domain.Provider(req.Provider))
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error(), "validation_error")
		return
	}

	encrypted, err := crypto.Encrypt([]byte(req.APIKey), h.encryptionKey)
	if err != nil {
		h.logger.Error("failed to encrypt API key", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to store credential", "internal_error")
		return
	}
	cred.APIKeyEncrypted = encrypted

	if err := h.store.CreateCredential(r.Context(), cred); err != nil {
		h.logger.Error("failed to create credential", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to store credential", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusCreated, cred)
}

func (h *Handler) handleListCredentials(w http.ResponseWriter, r *http.Request) {
	user, _ := coreauth.UserFromContext(r.Context())

	creds, err := h.store.ListCredentialsByOwner(r.Context(), user.ID, listOptionsFromQuery(r))
	if err != nil {
		h.logger.Error("failed to list credentials", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list credentials", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, ListCredentialsResponse{
		Credentials: creds,
		Total:       len(creds),
	})
}

func (h *Handler) handleDeleteCredential(w http.ResponseWriter, r *http.Request) {
	user, _ := coreauth.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	cred, err := h.store.GetCredential(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "credential not found", "credential_not_found")
			return
		}
		h.logger.Error("failed to get credential", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to delete credential", "internal_error")
		return
	}
	if cred.OwnerID != user.ID {
		h.writeError(w, http.StatusForbidden, "cannot delete another user's credential", "forbidden")
		return
	}

	if err := h.store.DeleteCredential(r.Context(), id); err != nil {
		h.logger.Error("failed to delete credential", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to delete credential", "internal_error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Document Handlers
// =============================================================================

func (h *Handler) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	if req.Text == "" {
		h.writeError(w, http.StatusUnprocessableEntity, domain.ErrDocumentContentRequired.Error(), "validation_error")
		return
	}

	doc, err := h.ingester.Ingest(r.Context(), req.Name, req.Source, req.Text)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNameRequired) || errors.Is(err, domain.ErrDocumentContentRequired) {
			h.writeError(w, http.StatusUnprocessableEntity, err.Error(), "validation_error")
			return
		}
		h.logger.Error("failed to ingest document", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to ingest document", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusCreated, doc)
}

func (h *Handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.ListDocuments(r.Context(), listOptionsFromQuery(r))
	if err != nil {
		h.logger.Error("failed to list documents", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list documents", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, ListDocumentsResponse{
		Documents: docs,
		Total:     len(docs),
	})
}

func (h *Handler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.DeleteDocument(r.Context(), id); err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "document not found", "document_not_found")
			return
		}
		h.logger.Error("failed to delete document", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to delete document", "internal_error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Response Helpers
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func userToResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Disabled:  u.Disabled,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func listOptionsFromQuery(r *http.Request) store.ListOptions {
	opts := store.DefaultListOptions()

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			opts.Limit = l
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if o, err := strconv.Atoi(offset); err == nil {
			opts.Offset = o
		}
	}

	return opts
}

// isNotFound checks if an error is a not found error.
func isNotFound(err error) bool {
	var storeErr *store.StoreError
	if errors.As(err, &storeErr) {
		return errors.Is(storeErr.Unwrap(), store.ErrNotFound)
	}
	return false
}
