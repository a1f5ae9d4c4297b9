package model

// EpisodeState tracks the episode lifecycle: Extracted, then Verified or
// Rejected (terminal).
type EpisodeState string

const (
	EpisodeExtracted EpisodeState = "extracted"
	EpisodeVerified  EpisodeState = "verified"
	EpisodeRejected  EpisodeState = "rejected"
)

// Episode is the smallest unit of narrative: a concrete, causal,
// capital-market-relevant occurrence.
type Episode struct {
	EpisodeID string        `json:"episode_id"` // Canonical form "E" + integer
	Name      GroundedValue `json:"name"`
	Type      EpisodeType   `json:"type"`
	State     EpisodeState  `json:"state"`

	IndexInStage int             `json:"index_in_stage"`
	Descriptions []GroundedValue `json:"descriptions,omitempty"`
	StartTime    GroundedValue   `json:"start_time"`
	EndTime      GroundedValue   `json:"end_time"`

	// Evidence document that produced this episode.
	SourceDocumentID string `json:"source_document_id,omitempty"`

	Participants []Participant         `json:"participants,omitempty"`
	Relations    []ParticipantRelation `json:"participant_relations,omitempty"`
	Transactions []Transaction         `json:"transactions,omitempty"`

	// Verification confidence assigned by the fact checker.
	VerificationConfidence float64 `json:"verification_confidence,omitempty"`
	// Failure reasons when rejected; itemized, never silent.
	FailureReasons []string `json:"failure_reasons,omitempty"`
}

// StageState tracks the stage lifecycle: Hypothesized (empty), Populated
// (episodes assigned), Finalized (after quality review).
type StageState string

const (
	StageHypothesized StageState = "hypothesized"
	StagePopulated    StageState = "populated"
	StageFinalized    StageState = "finalized"
)

// EventStage is an ordered phase of the event.
type EventStage struct {
	StageID      string          `json:"stage_id"` // Canonical form "S" + integer
	Name         string          `json:"name"`
	State        StageState      `json:"state"`
	IndexInEvent int             `json:"index_in_event"`
	Rationale    string          `json:"rationale,omitempty"` // Why the stage was hypothesized or created
	Descriptions []GroundedValue `json:"descriptions,omitempty"`
	StartTime    GroundedValue   `json:"start_time"`
	EndTime      GroundedValue   `json:"end_time"`

	// Non-binding hints inherited from the prior; expected but never required.
	HintEpisodeTypes     []EpisodeType     `json:"hint_episode_types,omitempty"`
	HintParticipantRoles []ParticipantRole `json:"hint_participant_roles,omitempty"`
	// Archetypes whose standard stages contributed to this shell.
	SourceScenarios []ScenarioName `json:"source_scenarios,omitempty"`
	// True when the stage was created by the extractor because no
	// hypothesized shell fit the evidence.
	EvidenceDriven bool `json:"evidence_driven,omitempty"`

	Episodes []Episode `json:"episodes"`
}

// EventCascade is the terminal artifact: the full reconstructed
// Stage -> Episode -> Participant tree. Immutable once produced,
// re-derivable only by re-running the pipeline.
type EventCascade struct {
	EventID   string        `json:"event_id"` // e.g., "bankrun_svb_2023"
	Title     GroundedValue `json:"title"`
	EventType GroundedValue `json:"event_type"`

	Descriptions []GroundedValue `json:"descriptions,omitempty"`
	StartTime    GroundedValue   `json:"start_time"`
	EndTime      GroundedValue   `json:"end_time"`

	Stages []EventStage `json:"stages"`

	OverallConfidence float64 `json:"overall_confidence"`

	// Set when participant persistence was unavailable and resolution fell
	// back to in-memory state for this run.
	DegradedStorage bool `json:"degraded_storage,omitempty"`

	Warnings []Warning `json:"warnings,omitempty"`
	// Episodes dropped after the bounded retry, with their failure reasons.
	Dropped []Episode `json:"dropped_episodes,omitempty"`
}

// VerifiedEpisodes returns all verified episodes across stages, in stage and
// episode order.
func (c *EventCascade) VerifiedEpisodes() []Episode {
	var out []Episode
	for _, stage := range c.Stages {
		for _, ep := range stage.Episodes {
			if ep.State == EpisodeVerified {
				out = append(out, ep)
			}
		}
	}
	return out
}
