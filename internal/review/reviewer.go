// Package review performs the final holistic audit: it compares the verified
// reconstruction against the declared prior and produces the terminal
// cascade plus warnings. Warnings never block output; observed data always
// wins over the prior.
package review

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/avolkhin/fincascade/internal/model"
)

// Reviewer audits a fully fact-checked set of stages. It must observe every
// episode in its final Verified/Rejected state; the pipeline invokes it only
// after all checking completes.
type Reviewer struct {
	minCoverage float64
	logger      *zap.Logger
}

// NewReviewer creates a reviewer. Segments at or above minCoverage are
// expected to be represented among the verified episodes.
func NewReviewer(minCoverage float64, logger *zap.Logger) *Reviewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reviewer{minCoverage: minCoverage, logger: logger}
}

// Review finalizes the stages into the terminal EventCascade. Rejected
// episodes are removed from stages (dropped carries them with their failure
// reasons); empty stages are retained and flagged, never silently dropped.
func (r *Reviewer) Review(eventID string, rec model.FinanceEventRecognizer, stages []model.EventStage, dropped []model.Episode, degradedStorage bool) model.EventCascade {
	var warnings []model.Warning

	for i := range stages {
		stages[i].Episodes = keepVerified(stages[i].Episodes)
		stages[i].State = model.StageFinalized
		if len(stages[i].Episodes) == 0 {
			warnings = append(warnings, model.Warning{
				Kind:      model.WarningEmptyStage,
				SubjectID: stages[i].StageID,
				Detail:    fmt.Sprintf("stage %q holds no verified episode", stages[i].Name),
			})
		}
	}

	warnings = append(warnings, r.coverageWarnings(rec, stages)...)
	warnings = append(warnings, r.overfittingWarnings(rec, stages)...)

	if degradedStorage {
		warnings = append(warnings, model.Warning{
			Kind:      model.WarningDegradedStorage,
			SubjectID: eventID,
			Detail:    "participants were resolved in-memory only for this run",
		})
	}

	cascade := model.EventCascade{
		EventID: eventID,
		Title: model.GroundedValue{
			Value:   rec.EventName,
			Reasons: []string{"event name supplied with the recognition prior"},
		},
		EventType:         r.eventType(rec),
		Stages:            stages,
		OverallConfidence: overallConfidence(stages),
		DegradedStorage:   degradedStorage,
		Warnings:          warnings,
		Dropped:           dropped,
	}
	fillCascadeSpan(&cascade)

	r.logger.Info("review complete",
		zap.String("event", eventID),
		zap.Int("stages", len(cascade.Stages)),
		zap.Int("verified_episodes", len(cascade.VerifiedEpisodes())),
		zap.Int("dropped_episodes", len(dropped)),
		zap.Int("warnings", len(warnings)))
	return cascade
}

// coverageWarnings flags confident scenario segments with no verified
// episode matching their key episode types or participant roles.
func (r *Reviewer) coverageWarnings(rec model.FinanceEventRecognizer, stages []model.EventStage) []model.Warning {
	var warnings []model.Warning
	for _, seg := range rec.Segments {
		if seg.Confidence < r.minCoverage {
			continue
		}
		if segmentCovered(seg, stages) {
			continue
		}
		warnings = append(warnings, model.Warning{
			Kind:      model.WarningMissingScenarioSegment,
			SubjectID: string(seg.Scenario.Name),
			Detail: fmt.Sprintf("segment at confidence %.2f has no verified episode matching its key episode types or roles",
				seg.Confidence),
		})
	}
	return warnings
}

func segmentCovered(seg model.ScenarioSegment, stages []model.EventStage) bool {
	for _, stage := range stages {
		for _, ep := range stage.Episodes {
			for _, t := range seg.Scenario.KeyEpisodeTypes {
				if ep.Type == t {
					return true
				}
			}
			for _, p := range ep.Participants {
				for _, role := range seg.Scenario.KeyRoles {
					if p.Role == role {
						return true
					}
				}
			}
		}
	}
	return false
}

// overfittingWarnings flags stages whose name is a verbatim copy of a
// standard stage of a segment whose confidence is low: a signal extraction
// leaned on the template instead of evidence. A name also claimed by a
// confident segment is not flagged.
func (r *Reviewer) overfittingWarnings(rec model.FinanceEventRecognizer, stages []model.EventStage) []model.Warning {
	var warnings []model.Warning
	for _, stage := range stages {
		if stage.EvidenceDriven {
			continue
		}
		best, claimed := -1.0, false
		for _, seg := range rec.Segments {
			for _, name := range seg.Scenario.StandardStages {
				if name == stage.Name {
					claimed = true
					if seg.Confidence > best {
						best = seg.Confidence
					}
				}
			}
		}
		if claimed && best < r.minCoverage {
			warnings = append(warnings, model.Warning{
				Kind:      model.WarningPriorOverfitting,
				SubjectID: stage.StageID,
				Detail: fmt.Sprintf("stage name %q copies a template stage of a segment at confidence %.2f",
					stage.Name, best),
			})
		}
	}
	return warnings
}

// eventType reflects the dominant scenario segment. A prior-derived label,
// so it cites no evidence and carries the alignment confidence instead.
func (r *Reviewer) eventType(rec model.FinanceEventRecognizer) model.GroundedValue {
	best, bestConf := model.ScenarioOther, -1.0
	for _, seg := range rec.Segments {
		if seg.Confidence > bestConf {
			best, bestConf = seg.Scenario.Name, seg.Confidence
		}
	}
	gv := model.GroundedValue{
		Value:   string(best),
		Reasons: []string{"dominant scenario archetype of the recognition prior"},
	}
	if rec.AlignmentConfidence > 0 {
		gv = gv.WithConfidence(rec.AlignmentConfidence)
	}
	return gv
}

func keepVerified(eps []model.Episode) []model.Episode {
	var out []model.Episode
	for _, ep := range eps {
		if ep.State == model.EpisodeVerified {
			ep.IndexInStage = len(out)
			out = append(out, ep)
		}
	}
	return out
}

// overallConfidence is the mean verification confidence across verified
// episodes, 0 when nothing verified.
func overallConfidence(stages []model.EventStage) float64 {
	sum, n := 0.0, 0
	for _, stage := range stages {
		for _, ep := range stage.Episodes {
			sum += ep.VerificationConfidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// fillCascadeSpan derives the event-level time span from the earliest and
// latest verified episode timestamps.
func fillCascadeSpan(c *model.EventCascade) {
	var lo, hi model.GroundedValue
	for _, stage := range c.Stages {
		for _, ep := range stage.Episodes {
			if ep.StartTime.IsUnknown() || ep.StartTime.Value == "" {
				continue
			}
			if lo.Value == "" || ep.StartTime.Value < lo.Value {
				lo = ep.StartTime
			}
			if hi.Value == "" || ep.StartTime.Value > hi.Value {
				hi = ep.StartTime
			}
		}
	}
	if lo.Value == "" {
		c.StartTime = model.Unknown("no verified episode carries a timestamp")
		c.EndTime = model.Unknown("no verified episode carries a timestamp")
		return
	}
	c.StartTime = lo
	c.EndTime = hi
}
