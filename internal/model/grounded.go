package model

// ValueUnknown is the canonical value for a field the evidence cannot fill.
const ValueUnknown = "unknown"

// GroundedValue is a value paired with verbatim source citations.
// If Value is not "unknown", every Evidence entry must be a literal substring
// of some document in the evidence store. If Value is "unknown", Evidence may
// be empty but Reasons must explain the gap.
type GroundedValue struct {
	Value      string   `json:"value"`                // Assigned value, strictly derived from source content
	Evidence   []string `json:"evidence,omitempty"`   // Exact source snippets supporting the value (no rewriting)
	Reasons    []string `json:"reasons,omitempty"`    // Why the snippets were selected and how they justify the value
	Confidence *float64 `json:"confidence,omitempty"` // In [0,1] when present
}

// Grounded builds a GroundedValue backed by verbatim evidence.
func Grounded(value string, evidence ...string) GroundedValue {
	return GroundedValue{Value: value, Evidence: evidence}
}

// Unknown builds the canonical "unknown" value with the given reasons.
func Unknown(reasons ...string) GroundedValue {
	if len(reasons) == 0 {
		reasons = []string{"insufficient information in source content"}
	}
	return GroundedValue{Value: ValueUnknown, Reasons: reasons}
}

// WithConfidence returns a copy with the confidence set.
func (g GroundedValue) WithConfidence(c float64) GroundedValue {
	g.Confidence = &c
	return g
}

// WithReasons returns a copy with the reasons set.
func (g GroundedValue) WithReasons(reasons ...string) GroundedValue {
	g.Reasons = reasons
	return g
}

// IsUnknown reports whether the value is the canonical gap marker.
func (g GroundedValue) IsUnknown() bool {
	return g.Value == ValueUnknown
}

// ConfidenceOrDefault returns the confidence, or def when unset.
func (g GroundedValue) ConfidenceOrDefault(def float64) float64 {
	if g.Confidence == nil {
		return def
	}
	return *g.Confidence
}

// WellFormed checks the structural invariant: a known value carries evidence,
// an unknown value carries reasons, and confidence (if set) is in [0,1].
// It does not check the snippets against the evidence store; that is the
// fact checker's job.
func (g GroundedValue) WellFormed() bool {
	if g.Confidence != nil && (*g.Confidence < 0 || *g.Confidence > 1) {
		return false
	}
	if g.IsUnknown() {
		return len(g.Reasons) > 0
	}
	return len(g.Evidence) > 0
}
