package extract

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/avolkhin/fincascade/internal/model"
)

// Score weights: thematic fit dominates, temporal fit refines.
const (
	thematicWeight = 0.6
	temporalWeight = 0.4
)

// assign places one episode on the best-scoring stage, or creates a new
// evidence-driven stage when no stage clears the assignment threshold.
func (e *Extractor) assign(stages []model.EventStage, ep model.Episode) []model.EventStage {
	best, bestScore := -1, 0.0
	for i := range stages {
		if score := stageScore(&stages[i], ep); score > bestScore {
			best, bestScore = i, score
		}
	}

	e.nextEpisode++
	ep.EpisodeID = fmt.Sprintf("E%d", e.nextEpisode)

	if best >= 0 && bestScore >= e.minAssign {
		ep.IndexInStage = len(stages[best].Episodes)
		stages[best].Episodes = append(stages[best].Episodes, ep)
		stages[best].State = model.StagePopulated
		return stages
	}

	e.nextStage++
	e.logger.Debug("no stage fits, creating evidence-driven stage",
		zap.String("episode", ep.EpisodeID),
		zap.Float64("best_score", bestScore))
	stage := model.EventStage{
		StageID:        fmt.Sprintf("S%d", e.nextStage),
		Name:           stageNameFor(ep),
		State:          model.StagePopulated,
		Rationale:      "created for evidence that did not fit the hypothesized skeleton",
		EvidenceDriven: true,
		Episodes:       []model.Episode{ep},
	}
	return insertTemporal(stages, stage)
}

// stageNameFor names an evidence-driven stage after what the evidence shows.
func stageNameFor(ep model.Episode) string {
	if ep.Type != model.EpisodeOther {
		return string(ep.Type)
	}
	if !ep.Name.IsUnknown() && ep.Name.Value != "" {
		return ep.Name.Value
	}
	return "Additional Developments"
}

// stageScore combines thematic overlap with the stage's hints and temporal
// fit with the stage's existing episodes.
func stageScore(stage *model.EventStage, ep model.Episode) float64 {
	return thematicWeight*thematicScore(stage, ep) + temporalWeight*temporalScore(stage, ep)
}

// thematicScore is the stronger of a direct episode-type hint match and the
// fraction of the episode's participant roles the stage hints expect. A
// stage with no hints at all (the generic fallback shell) scores neutral, so
// it can still attract episodes no shell anticipated.
func thematicScore(stage *model.EventStage, ep model.Episode) float64 {
	if len(stage.HintEpisodeTypes) == 0 && len(stage.HintParticipantRoles) == 0 {
		return 0.5
	}

	typeHit := 0.0
	for _, t := range stage.HintEpisodeTypes {
		if t == ep.Type {
			typeHit = 1.0
			break
		}
	}

	roleHit := 0.0
	if len(ep.Participants) > 0 && len(stage.HintParticipantRoles) > 0 {
		matched := 0
		for _, p := range ep.Participants {
			for _, r := range stage.HintParticipantRoles {
				if p.Role == r {
					matched++
					break
				}
			}
		}
		roleHit = float64(matched) / float64(len(ep.Participants))
	}

	if typeHit > roleHit {
		return typeHit
	}
	return roleHit
}

// temporalScore measures containment of the episode's timestamp within the
// span of the stage's existing episodes. Missing timestamps on either side
// score neutral rather than penalizing.
func temporalScore(stage *model.EventStage, ep model.Episode) float64 {
	t, ok := parseWhen(ep.StartTime.Value)
	if !ok {
		return 0.5
	}

	var lo, hi time.Time
	for _, existing := range stage.Episodes {
		et, ok := parseWhen(existing.StartTime.Value)
		if !ok {
			continue
		}
		if lo.IsZero() || et.Before(lo) {
			lo = et
		}
		if hi.IsZero() || et.After(hi) {
			hi = et
		}
	}
	if lo.IsZero() {
		return 0.5
	}

	if !t.Before(lo) && !t.After(hi) {
		return 1.0
	}
	const slack = 30 * 24 * time.Hour
	if t.After(lo.Add(-slack)) && t.Before(hi.Add(slack)) {
		return 0.7
	}
	return 0.2
}

// insertTemporal inserts a new stage before the first existing stage whose
// earliest episode is later than the new stage's, then renumbers positions.
// Stage ids stay as assigned; only the order index changes.
func insertTemporal(stages []model.EventStage, stage model.EventStage) []model.EventStage {
	at := len(stages)
	if t, ok := earliest(stage); ok {
		for i := range stages {
			if et, ok := earliest(stages[i]); ok && t.Before(et) {
				at = i
				break
			}
		}
	}

	stages = append(stages, model.EventStage{})
	copy(stages[at+1:], stages[at:])
	stages[at] = stage
	for i := range stages {
		stages[i].IndexInEvent = i
	}
	return stages
}

func earliest(stage model.EventStage) (time.Time, bool) {
	var lo time.Time
	for _, ep := range stage.Episodes {
		if t, ok := parseWhen(ep.StartTime.Value); ok && (lo.IsZero() || t.Before(lo)) {
			lo = t
		}
	}
	return lo, !lo.IsZero()
}

var whenLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"January 2, 2006",
	"2006-01",
	"2006",
}

// parseWhen parses the timestamp layouts evidence text commonly carries.
func parseWhen(value string) (time.Time, bool) {
	if value == "" || value == model.ValueUnknown {
		return time.Time{}, false
	}
	for _, layout := range whenLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
