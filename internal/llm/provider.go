// Package llm wraps the evidence-understanding oracle: a black-box
// text-to-structure function the extractor invokes and whose output the
// pipeline treats as untrusted until fact-checked.
package llm

import (
	"context"
	"time"

	"github.com/avolkhin/fincascade/internal/evidence"
	"github.com/avolkhin/fincascade/internal/model"
)

// Provider defines the interface for evidence-understanding oracles.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Extract produces zero-or-more candidate episodes from one evidence
	// document. Output is untrusted: every cited snippet is re-verified by
	// the fact checker before anything enters the cascade.
	Extract(ctx context.Context, doc evidence.Document, hints ContextHints) ([]CandidateEpisode, error)

	// IsAvailable checks if the provider is properly configured and reachable.
	IsAvailable(ctx context.Context) bool
}

// ContextHints carries soft guidance for extraction. Hints focus attention;
// they must never filter legitimate evidence.
type ContextHints struct {
	// Event name from the recognizer.
	EventName string

	// Archetypes the recognizer considers plausible.
	Scenarios []model.ScenarioName

	// Names of the hypothesized stages, for thematic context only.
	StageNames []string

	// Participants already resolved, so the oracle reuses names consistently.
	KnownParticipants []model.Participant
}

// CandidateEpisode is the oracle's raw structured claim about one occurrence.
// Type and participant roles are free-form labels here; the extractor
// normalizes them against the closed taxonomy.
type CandidateEpisode struct {
	Name         model.GroundedValue    `json:"name"`
	Type         string                 `json:"type"`
	Timestamp    model.GroundedValue    `json:"timestamp"`
	Descriptions []model.GroundedValue  `json:"descriptions,omitempty"`
	Participants []CandidateParticipant `json:"participants,omitempty"`
	Relations    []model.ParticipantRelation `json:"participant_relations,omitempty"`
	Transactions []model.Transaction    `json:"transactions,omitempty"`
}

// CandidateParticipant is an unresolved participant mention.
type CandidateParticipant struct {
	Name    model.GroundedValue `json:"name"`
	Type    model.GroundedValue `json:"participant_type"`
	Role    string              `json:"role"`
	Actions []model.Action      `json:"actions,omitempty"`
}

// Config holds oracle provider configuration.
type Config struct {
	// Provider name: "openai", "keyword", "".
	Provider string

	// Model name (provider-specific).
	Model string

	// APIKey for OpenAI-compatible endpoints.
	APIKey string

	// BaseURL for custom endpoints (e.g., a local Ollama server).
	BaseURL string

	// Timeout per extraction call.
	Timeout time.Duration

	// MaxTokens for response generation.
	MaxTokens int

	// Request throttle for the remote endpoint.
	RequestsPerSecond float64
	Burst             int
}

// ConfigFromModel converts model.OracleConfig to llm.Config.
func ConfigFromModel(c model.OracleConfig) Config {
	return Config{
		Provider:          c.Provider,
		Model:             c.Model,
		APIKey:            c.APIKey,
		BaseURL:           c.BaseURL,
		Timeout:           c.Timeout,
		MaxTokens:         c.MaxTokens,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
	}
}
