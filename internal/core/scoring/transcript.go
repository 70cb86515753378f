package scoring

import (
	"fmt"
	"strings"

	"github.com/pitchlab/pitchlab/internal/core/domain"
)

// =============================================================================
// Transcript Formatting
// =============================================================================

// FormatTranscript flattens a transcript into the prompt form the scoring
// models receive: the system context first, then the conversation turns as
// "role: content" lines. When the voice pipeline re-primes mid-call the
// transcript carries several system entries; only the last one is current.
func FormatTranscript(t *domain.Transcript) string {
	var context string
	var conversation []string

	for _, e := range t.Entries {
		if e.Role == "system" {
			context = e.Content
		} else {
			conversation = append(conversation, fmt.Sprintf("%s: %s", e.Role, e.Content))
		}
	}

	return "Context:\n" + context +
		"\n\nConversation:\n" + strings.Join(conversation, "\n")
}

// =============================================================================
// Result Parsing
// =============================================================================

// ParseResult splits a "metric_name: value" scoring result into its parts.
// The value may itself contain colons; only the first is significant.
func ParseResult(result string) (name, value string, err error) {
	name, value, found := strings.Cut(result, ":")
	if !found {
		return "", "", fmt.Errorf("malformed scoring result %q", result)
	}
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	if !IsKnownMetric(name) {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownMetric, name)
	}
	return name, value, nil
}
