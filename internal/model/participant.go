package model

// Participant is a resolved entity involved in the event. Participants are
// created on first mention, later mentions resolve to the same id via alias
// matching, and records are never deleted, only enriched.
type Participant struct {
	ParticipantID string `json:"participant_id"` // Stable id, canonical form "P_" + integer

	Name GroundedValue `json:"name"` // Concrete entity name (e.g., "Credit Suisse")

	// High-level category: "individual", "organization", "government_agency",
	// or a group category ("retail_investor_group") for large cohorts.
	Type GroundedValue `json:"participant_type"`

	Role ParticipantRole `json:"role"` // Primary functional role in this event

	// Alternate names seen in evidence, used for resolution.
	Aliases []string `json:"aliases,omitempty"`

	// Static or semi-static descriptive properties grounded in source content.
	Attributes map[string]GroundedValue `json:"attributes,omitempty"`

	// Actions executed by this participant.
	Actions []Action `json:"actions,omitempty"`
}

// Action is a discrete behavior performed by a participant.
type Action struct {
	Name      GroundedValue   `json:"name"`
	Timestamp GroundedValue   `json:"timestamp"`
	Details   []GroundedValue `json:"details,omitempty"`
}

// ParticipantRelation is a directed edge between two participants. Immutable
// once fact-checked.
type ParticipantRelation struct {
	FromParticipantID string          `json:"from_participant_id"`
	ToParticipantID   string          `json:"to_participant_id"`
	RelationType      GroundedValue   `json:"relation_type"` // e.g., "client of", "counterparty"
	Descriptions      []GroundedValue `json:"descriptions,omitempty"`
	IsBidirectional   bool            `json:"is_bidirectional,omitempty"`
	StartTime         GroundedValue   `json:"start_time"`
	EndTime           GroundedValue   `json:"end_time"`
}

// Transaction is a financial transfer between participants. Participant ids
// must reference existing Participants; when the payer or payee is unknown
// the id is left empty and the gap recorded in Reasons, never fabricated.
type Transaction struct {
	Name              GroundedValue   `json:"name"`            // e.g., "wire transfer", "bond coupon"
	TransactionType   GroundedValue   `json:"transaction_type"`
	Timestamp         GroundedValue   `json:"timestamp"`
	Details           []GroundedValue `json:"details,omitempty"`
	FromParticipantID string          `json:"from_participant_id,omitempty"`
	ToParticipantID   string          `json:"to_participant_id,omitempty"`
	Reasons           []string        `json:"reasons,omitempty"` // Why payer/payee ids are empty, when they are
	Instruments       []GroundedValue `json:"instruments,omitempty"`
}
