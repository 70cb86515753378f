// Package workers contains background workers for PitchLab.
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pitchlab/pitchlab/internal/core/domain"
	"github.com/pitchlab/pitchlab/internal/shell/llm"
	"github.com/pitchlab/pitchlab/internal/shell/store"
)

// =============================================================================
// Background Summarizer
// =============================================================================

// recentFeedbackWindow is how many of the user's most recent scorecards feed
// the dashboard summary.
const recentFeedbackWindow = 5

// Summarizer refreshes dashboard summaries for users whose scorecard count
// has moved past their summary watermark.
type Summarizer struct {
	store     store.Store
	model     llm.ChatModel
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// SummarizerConfig holds configuration for the background summarizer.
type SummarizerConfig struct {
	Store     store.Store
	Model     llm.ChatModel
	Interval  time.Duration
	BatchSize int
	Logger    *slog.Logger
}

// NewSummarizer creates a new background summarizer.
func NewSummarizer(cfg SummarizerConfig) *Summarizer {
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 20
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Summarizer{
		store:     cfg.Store,
		model:     cfg.Model,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		logger:    cfg.Logger.With("component", "summarizer"),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background refresh loop.
// It runs until Stop() is called or the context is cancelled.
func (s *Summarizer) Start(ctx context.Context) {
	s.logger.Info("starting summarizer",
		"interval", s.interval,
		"batch_size", s.batchSize,
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer close(s.doneCh)

	// Catch up on stale summaries at startup
	s.refreshBatch(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("summarizer stopped due to context cancellation")
			return
		case <-s.stopCh:
			s.logger.Info("summarizer stopped")
			return
		case <-ticker.C:
			s.refreshBatch(ctx)
		}
	}
}

// Stop signals the summarizer to stop and waits for it to finish.
func (s *Summarizer) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

// refreshBatch regenerates summaries for users behind their watermark.
func (s *Summarizer) refreshBatch(ctx context.Context) {
	userIDs, err := s.store.ListUsersWithStaleSummaries(ctx, s.batchSize)
	if err != nil {
		s.logger.Error("failed to list stale summaries", "error", err)
		return
	}

	if len(userIDs) == 0 {
		return
	}

	s.logger.Debug("refreshing summaries", "count", len(userIDs))

	for _, userID := range userIDs {
		if _, err := s.RefreshUser(ctx, userID); err != nil {
			s.logger.Error("failed to refresh summary", "user_id", userID, "error", err)
		}
	}
}

// RefreshNow triggers an immediate refresh cycle (useful for testing).
func (s *Summarizer) RefreshNow(ctx context.Context) {
	s.refreshBatch(ctx)
}

// RefreshUser regenerates one user's dashboard summary from the feedback on
// their most recent scorecards and stores it with the current count as the
// watermark.
func (s *Summarizer) RefreshUser(ctx context.Context, userID string) (*domain.Summary, error) {
	count, err := s.store.CountScorecardsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	cards, err := s.store.ListScorecardsByUser(ctx, userID, store.ListOptions{Limit: recentFeedbackWindow})
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, store.NewStoreError("RefreshUser", "scorecard", userID, "no scorecards for user", store.ErrNotFound)
	}

	tips, err := s.generateTips(ctx, cards)
	if err != nil {
		return nil, err
	}

	summary := &domain.Summary{
		UserID:          userID,
		PositiveTips:    tips.PositiveTips,
		ImprovementTips: tips.ImprovementTips,
		ScorecardCount:  count,
		GeneratedAt:     time.Now().UTC(),
	}

	if err := s.store.UpsertSummary(ctx, summary); err != nil {
		return nil, err
	}

	s.logger.Info("summary refreshed", "user_id", userID, "scorecard_count", count)
	return summary, nil
}

// =============================================================================
// Tip Generation
// =============================================================================

// summaryPrompt asks the model to distill recent coaching feedback into the
// dashboard's three-and-three tip lists.
const summaryPrompt = `You are a communication coach preparing a trainee's progress dashboard.

Below is the coaching feedback from the trainee's most recent roleplay sessions. Distill it into exactly three things the trainee is doing well and exactly three things to improve. Each tip is one sentence, phrased directly to the trainee.

Respond with only a JSON object, no other text, in this shape:
{"positive_tips": ["...", "...", "..."], "improvement_tips": ["...", "...", "..."]}`

type tipSet struct {
	PositiveTips    []string `json:"positive_tips"`
	ImprovementTips []string `json:"improvement_tips"`
}

// generateTips flattens recent feedback and asks the summary model for tips.
func (s *Summarizer) generateTips(ctx context.Context, cards []domain.Scorecard) (*tipSet, error) {
	var b strings.Builder
	for i, card := range cards {
		fmt.Fprintf(&b, "Session %d (%s):\n", i+1, card.Kind)
		for _, item := range card.Feedback {
			fmt.Fprintf(&b, "- %s: %s\n", item.ShortFeedback, item.LongFeedback)
		}
		b.WriteString("\n")
	}

	reply, err := s.model.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: summaryPrompt},
		{Role: llm.RoleUser, Content: b.String()},
	})
	if err != nil {
		return nil, fmt.Errorf("summary completion: %w", err)
	}

	tips, err := parseTips(reply)
	if err != nil {
		return nil, err
	}
	return tips, nil
}

// parseTips extracts the JSON tip object from a model reply, tolerating
// markdown fences and surrounding prose.
func parseTips(reply string) (*tipSet, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in summary reply")
	}

	var tips tipSet
	if err := json.Unmarshal([]byte(reply[start:end+1]), &tips); err != nil {
		return nil, fmt.Errorf("parse summary reply: %w", err)
	}
	if len(tips.PositiveTips) == 0 || len(tips.ImprovementTips) == 0 {
		return nil, fmt.Errorf("summary reply missing tips")
	}
	return &tips, nil
}
