package model

// FinanceScenario is one archetype record from the domain prior library.
// Read-only reference data; consumed, never mutated, by the pipeline.
type FinanceScenario struct {
	Name             ScenarioName      `json:"name" yaml:"name"`
	Definition       string            `json:"definition" yaml:"definition"`
	TheoreticalBasis string            `json:"theoretical_basis,omitempty" yaml:"theoretical_basis,omitempty"`
	StandardStages   []string          `json:"standard_stages" yaml:"standard_stages"`
	KeyEpisodeTypes  []EpisodeType     `json:"key_episode_types" yaml:"key_episode_types"`
	KeyRoles         []ParticipantRole `json:"key_participant_roles" yaml:"key_participant_roles"`
	// Observable markers that suggest the archetype is in play.
	SignatureIndicators []string `json:"signature_indicators,omitempty" yaml:"signature_indicators,omitempty"`
	// Historical cases, e.g., "Silicon Valley Bank collapse (2023)".
	HistoricalExemplars []string `json:"historical_exemplars,omitempty" yaml:"historical_exemplars,omitempty"`
}

// ScenarioSegment scopes one archetype to a portion of the event lifecycle,
// with a confidence that this event matches the archetype there.
type ScenarioSegment struct {
	Scenario   FinanceScenario `json:"scenario"`
	Span       string          `json:"span,omitempty"` // Lifecycle portion, e.g., "onset", "resolution"
	Confidence float64         `json:"confidence"`     // In [0,1]
}

// FinanceEventRecognizer is the event-level prior: the single input that
// seeds the stage planner and is referenced by the quality reviewer.
// Segments may overlap; order reflects the event lifecycle.
type FinanceEventRecognizer struct {
	EventName           string            `json:"event_name"`
	Segments            []ScenarioSegment `json:"segments"`
	AlignmentConfidence float64           `json:"alignment_confidence"`
}
