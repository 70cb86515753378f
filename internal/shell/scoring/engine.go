// Package scoring runs the scorecard generation pipeline: a bounded
// fan-out of one model call per metric plus a retrieval-augmented
// feedback call, assembled into a scorecard by the functional core.
package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pitchlab/pitchlab/internal/core/domain"
	core "github.com/pitchlab/pitchlab/internal/core/scoring"
	"github.com/pitchlab/pitchlab/internal/shell/llm"
	"github.com/pitchlab/pitchlab/internal/shell/retrieval"
)

// =============================================================================
// Engine Configuration
// =============================================================================

// EngineConfig configures the scoring engine.
type EngineConfig struct {
	// MaxConcurrent is the maximum number of model calls in flight.
	// Default: 8.
	MaxConcurrent int

	// CallTimeout is the timeout for a single model call.
	// Default: 60 seconds.
	CallTimeout time.Duration

	// RetrievalK is how many knowledge chunks the feedback node fetches.
	// Default: 5.
	RetrievalK int
}

// DefaultEngineConfig returns the default configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxConcurrent: 8,
		CallTimeout:   60 * time.Second,
		RetrievalK:    retrieval.DefaultSearchK,
	}
}

// =============================================================================
// Engine
// =============================================================================

// Engine scores finished roleplay transcripts. Generation is all-or-nothing:
// if any metric call fails, no scorecard is produced.
type Engine struct {
	scorer llm.ChatModel
	index  *retrieval.Index
	config EngineConfig
	logger *slog.Logger
}

// NewEngine creates a scoring engine.
func NewEngine(scorer llm.ChatModel, index *retrieval.Index, config EngineConfig, logger *slog.Logger) *Engine {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 8
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = 60 * time.Second
	}
	if config.RetrievalK <= 0 {
		config.RetrievalK = retrieval.DefaultSearchK
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		scorer: scorer,
		index:  index,
		config: config,
		logger: logger.With("component", "scoring_engine"),
	}
}

// Score runs every metric of the transcript's kind plus the feedback node
// and assembles the results into a scorecard.
func (e *Engine) Score(ctx context.Context, t *domain.Transcript) (*domain.Scorecard, error) {
	metrics := core.MetricsFor(t.Kind)
	if len(metrics) == 0 {
		return nil, domain.ErrInvalidKind
	}

	transcript := core.FormatTranscript(t)

	e.logger.Debug("starting scoring fan-out",
		"room_id", t.RoomID,
		"kind", t.Kind,
		"metric_count", len(metrics),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		firstErr error
		results  = make(map[string]string, len(metrics))
		feedback []domain.FeedbackItem
	)

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	// Use a semaphore to limit concurrent model calls
	sem := make(chan struct{}, e.config.MaxConcurrent)
	var wg sync.WaitGroup

	for _, metric := range metrics {
		wg.Add(1)
		go func(metric string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			case sem <- struct{}{}:
				defer func() { <-sem }()
			}

			value, err := e.scoreMetric(ctx, metric, transcript)
			if err != nil {
				fail(fmt.Errorf("metric %s: %w", metric, err))
				return
			}

			mu.Lock()
			results[metric] = value
			mu.Unlock()
		}(metric)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()

		select {
		case <-ctx.Done():
			return
		case sem <- struct{}{}:
			defer func() { <-sem }()
		}

		items, err := e.generateFeedback(ctx, transcript)
		if err != nil {
			fail(fmt.Errorf("feedback: %w", err))
			return
		}

		mu.Lock()
		feedback = items
		mu.Unlock()
	}()

	wg.Wait()

	if firstErr != nil {
		e.logger.Error("scoring failed", "room_id", t.RoomID, "error", firstErr)
		return nil, firstErr
	}

	card, err := core.AssembleScorecard(t, results, feedback)
	if err != nil {
		return nil, err
	}

	e.logger.Info("scorecard generated", "room_id", t.RoomID, "kind", t.Kind)
	return card, nil
}

// scoreMetric runs one metric evaluation and parses the "name: value" reply.
func (e *Engine) scoreMetric(ctx context.Context, metric, transcript string) (string, error) {
	prompt, ok := metricPrompt(metric)
	if !ok {
		return "", fmt.Errorf("%w: %s", core.ErrUnknownMetric, metric)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.config.CallTimeout)
	defer cancel()

	reply, err := e.scorer.Complete(callCtx, []llm.Message{
		{Role: llm.RoleSystem, Content: prompt},
		{Role: llm.RoleUser, Content: transcript},
	})
	if err != nil {
		return "", err
	}

	name, value, err := core.ParseResult(strings.TrimSpace(reply))
	if err != nil {
		return "", err
	}
	if name != metric {
		return "", fmt.Errorf("model answered for %s instead of %s", name, metric)
	}

	return value, nil
}

// generateFeedback runs the retrieval-augmented coaching node.
func (e *Engine) generateFeedback(ctx context.Context, transcript string) ([]domain.FeedbackItem, error) {
	var retrieved []string
	if e.index != nil {
		var err error
		retrieved, err = e.index.Search(ctx, transcript, e.config.RetrievalK)
		if err != nil {
			return nil, fmt.Errorf("knowledge search: %w", err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, e.config.CallTimeout)
	defer cancel()

	reply, err := e.scorer.Complete(callCtx, []llm.Message{
		{Role: llm.RoleSystem, Content: feedbackPrompt},
		{Role: llm.RoleUser, Content: feedbackUserMessage(transcript, retrieved)},
	})
	if err != nil {
		return nil, err
	}

	items, err := parseFeedback(reply)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrFeedbackRequired
	}

	return items, nil
}

// parseFeedback extracts the JSON feedback array from a model reply,
// tolerating markdown fences and surrounding prose.
func parseFeedback(reply string) ([]domain.FeedbackItem, error) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in feedback reply")
	}

	var items []domain.FeedbackItem
	if err := json.Unmarshal([]byte(reply[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("parse feedback reply: %w", err)
	}
	return items, nil
}
