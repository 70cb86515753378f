package scoring

import (
	"fmt"
	"strings"

	core "github.com/pitchlab/pitchlab/internal/core/scoring"
)

// =============================================================================
// Metric Prompts
// =============================================================================

// metricPromptFormat is the shared instruction frame for scored metrics.
// Each model call evaluates exactly one metric and must answer on a single
// line as "metric_name: value" so the result parser can route it.
const metricPromptFormat = `You are an expert communication coach reviewing a recorded roleplay between a trainee and an AI counterpart.

%s

Base your judgement only on the trainee's turns (the "user" lines). Score on a scale of 1 to 10 where 10 is outstanding.

Respond with exactly one line in the format:
%s: <score>`

// metricInstructions describes what each metric measures.
var metricInstructions = map[string]string{
	// Sales pitch metrics
	core.MetricProductKnowledge:      "Evaluate how well the trainee knows the product: accuracy of claims, depth of detail, and ability to answer product questions.",
	core.MetricPersuasionNegotiation: "Evaluate the trainee's persuasion and negotiation skills: framing of benefits, handling of pushback, and movement toward agreement.",
	core.MetricObjectionHandling:     "Evaluate how the trainee handles objections: acknowledging the concern, responding with substance, and keeping the conversation constructive.",
	core.MetricUpsellingSuccessRate:  "Evaluate the trainee's upselling: whether relevant additional products or upgrades were offered at natural moments.",
	core.MetricCallToActionEffect:    "Evaluate the effectiveness of the trainee's call to action: clarity of the next step and how compelling the close was.",
	core.MetricQuestioningTechnique:  "Evaluate the trainee's questioning technique: use of open questions, discovery of needs, and listening to the answers.",
	core.MetricConfidenceScore:       "Evaluate the trainee's confidence: steadiness of delivery, conviction in statements, and composure under pressure.",
	core.MetricValueProposition:      "Evaluate how clearly the trainee articulated the value proposition: the concrete benefit to this prospect and why it matters to them.",
	core.MetricPitchQuality:          "Evaluate the overall quality of the pitch: structure, relevance to the prospect, and memorability.",

	// Customer call metrics
	core.MetricEmpathyScore:         "Evaluate the empathy the trainee showed: acknowledging the customer's feelings and responding with genuine understanding.",
	core.MetricClarityConciseness:   "Evaluate clarity and conciseness: whether the trainee's explanations were easy to follow and free of rambling.",
	core.MetricGrammarLanguage:      "Evaluate grammar and language: correctness, professional word choice, and freedom from slang.",
	core.MetricListeningScore:       "Evaluate how well the trainee listened: responding to what the customer actually said rather than a script.",
	core.MetricPositiveSentiment:    "Evaluate the positivity of the trainee's tone: optimistic framing and avoidance of negative language.",
	core.MetricStructureFlow:        "Evaluate the structure and flow of the conversation: logical progression from greeting to resolution.",
	core.MetricStutteringWords:      "Evaluate the trainee's verbal fluency: penalize filler words, false starts, and repeated words.",
	core.MetricActiveListening:      "Evaluate active listening: paraphrasing the customer's points, confirming understanding, and asking clarifying questions.",
	core.MetricProblemResolution:    "Evaluate problem resolution effectiveness: whether the customer's issue was actually addressed and resolved.",
	core.MetricPersonalisationIndex: "Evaluate personalisation: use of the customer's name, context, and history rather than generic responses.",
	core.MetricConflictManagement:   "Evaluate conflict management: de-escalation of frustration and keeping the exchange professional.",
	core.MetricResponseTime:         "Evaluate responsiveness: whether the trainee answered promptly and directly without leaving the customer hanging.",
	core.MetricCustomerSatisfaction: "Evaluate likely customer satisfaction at the end of the call: would this customer leave the interaction happy?",
	core.MetricRapportBuilding:      "Evaluate rapport building: warmth, small personal touches, and establishing trust with the customer.",
	core.MetricEngagement:           "Evaluate engagement: whether the trainee kept the customer involved and interested throughout the call.",
}

// metricPrompt builds the system prompt for one scored metric.
func metricPrompt(metric string) (string, bool) {
	instruction, ok := metricInstructions[metric]
	if !ok {
		return "", false
	}
	return fmt.Sprintf(metricPromptFormat, instruction, metric), true
}

// =============================================================================
// Feedback Prompt
// =============================================================================

// feedbackPrompt is the system prompt for the retrieval-augmented coaching
// node. It returns a JSON array so the engine can parse structured items.
const feedbackPrompt = `You are an expert communication coach reviewing a recorded roleplay between a trainee and an AI counterpart.

Identify the three to five most important coaching observations for the trainee. Mix reinforcement of what went well with concrete suggestions for what to improve. Ground your suggestions in the retrieved knowledge when it is relevant.

Respond with only a JSON array, no other text, where each element has this shape:
[{"short_feedback": "<one-line headline>", "long_feedback": "<two to three sentences of specific, actionable coaching>"}]`

// feedbackUserMessage builds the user message for the feedback node,
// appending retrieved knowledge-base passages when any were found.
func feedbackUserMessage(transcript string, retrieved []string) string {
	if len(retrieved) == 0 {
		return transcript
	}
	return transcript + "\n\nRetrieved Knowledge:\n" + strings.Join(retrieved, "\n\n")
}
