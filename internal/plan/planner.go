// Package plan turns an event-level prior into a hypothesized stage skeleton.
//
// The skeleton is a soft scaffold: stage shells carry non-binding hints from
// the scenario archetypes that proposed them, and extraction is free to add
// stages the prior never mentioned.
package plan

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/avolkhin/fincascade/internal/model"
)

// Planner converts scenario segments into hypothesized stages.
type Planner struct {
	minSegmentConfidence float64
	logger               *zap.Logger
}

// NewPlanner creates a planner. Segments below minSegmentConfidence do not
// contribute stage shells.
func NewPlanner(minSegmentConfidence float64, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		minSegmentConfidence: minSegmentConfidence,
		logger:               logger,
	}
}

// Plan builds the stage skeleton for the recognized event. Shells with
// near-identical names across segments merge into one, so agreeing archetypes
// do not produce duplicate stages. When no segment clears the threshold the
// skeleton is a single generic shell, so extraction always has somewhere to
// place episodes.
func (p *Planner) Plan(rec model.FinanceEventRecognizer) []model.EventStage {
	var stages []model.EventStage
	index := make(map[string]int) // merge key -> position in stages

	for _, seg := range rec.Segments {
		if seg.Confidence < p.minSegmentConfidence {
			p.logger.Debug("segment below staging threshold",
				zap.String("scenario", string(seg.Scenario.Name)),
				zap.Float64("confidence", seg.Confidence))
			continue
		}
		for _, stageName := range seg.Scenario.StandardStages {
			key := mergeKey(stageName)
			if key == "" {
				continue
			}
			if i, ok := index[key]; ok {
				mergeHints(&stages[i], seg.Scenario)
				continue
			}
			index[key] = len(stages)
			stages = append(stages, newShell(stageName, seg.Scenario))
		}
	}

	if len(stages) == 0 {
		p.logger.Info("no scenario segment cleared the staging threshold, planning a generic shell")
		stages = append(stages, model.EventStage{
			Name:      "Unclassified",
			State:     model.StageHypothesized,
			Rationale: "no scenario archetype matched with sufficient confidence",
		})
	}

	for i := range stages {
		stages[i].StageID = fmt.Sprintf("S%d", i+1)
		stages[i].IndexInEvent = i
	}
	return stages
}

func newShell(name string, sc model.FinanceScenario) model.EventStage {
	return model.EventStage{
		Name:                 name,
		State:                model.StageHypothesized,
		Rationale:            fmt.Sprintf("standard stage of the %s archetype", sc.Name),
		HintEpisodeTypes:     append([]model.EpisodeType(nil), sc.KeyEpisodeTypes...),
		HintParticipantRoles: append([]model.ParticipantRole(nil), sc.KeyRoles...),
		SourceScenarios:      []model.ScenarioName{sc.Name},
	}
}

// mergeHints unions a second archetype's hints into an existing shell.
func mergeHints(stage *model.EventStage, sc model.FinanceScenario) {
	for _, t := range sc.KeyEpisodeTypes {
		if !containsType(stage.HintEpisodeTypes, t) {
			stage.HintEpisodeTypes = append(stage.HintEpisodeTypes, t)
		}
	}
	for _, r := range sc.KeyRoles {
		if !containsRole(stage.HintParticipantRoles, r) {
			stage.HintParticipantRoles = append(stage.HintParticipantRoles, r)
		}
	}
	for _, n := range stage.SourceScenarios {
		if n == sc.Name {
			return
		}
	}
	stage.SourceScenarios = append(stage.SourceScenarios, sc.Name)
	stage.Rationale += fmt.Sprintf("; also a standard stage of the %s archetype", sc.Name)
}

// stageStopwords are dropped when comparing stage names, so "The Run Phase"
// and "Run phase" collapse into one shell.
var stageStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "phase": true, "stage": true,
}

// mergeKey normalizes a stage name for duplicate detection.
func mergeKey(name string) string {
	var kept []string
	for _, tok := range strings.Fields(strings.ToLower(name)) {
		tok = strings.Trim(tok, ".,:;()")
		if tok == "" || stageStopwords[tok] {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

func containsType(ts []model.EpisodeType, t model.EpisodeType) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}
	return false
}

func containsRole(rs []model.ParticipantRole, r model.ParticipantRole) bool {
	for _, x := range rs {
		if x == r {
			return true
		}
	}
	return false
}
