package model

import "fmt"

// WarningKind classifies a quality-review finding.
type WarningKind string

const (
	// A high-confidence scenario segment has no verified episode matching its
	// key episode types or roles.
	WarningMissingScenarioSegment WarningKind = "missing_scenario_segment"
	// A stage copies a low-confidence segment's template verbatim; extraction
	// leaned on the prior instead of evidence.
	WarningPriorOverfitting WarningKind = "prior_overfitting"
	// A stage holds zero verified episodes; retained, not dropped.
	WarningEmptyStage WarningKind = "empty_stage"
	// Participant persistence was unavailable; ids are stable only within
	// this run.
	WarningDegradedStorage WarningKind = "degraded_participant_storage"
)

// Warning is a structured (kind, subject) pair consumed by downstream review
// tooling or human auditors.
type Warning struct {
	Kind      WarningKind `json:"kind"`
	SubjectID string      `json:"subject_id"`
	Detail    string      `json:"detail,omitempty"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s(%s)", w.Kind, w.SubjectID)
}
