// Package prior holds the domain prior library: a static, versioned catalog
// of FinanceScenario archetypes. The catalog is read-only input to the
// pipeline and is never produced or mutated by it.
package prior

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/avolkhin/fincascade/internal/model"
)

// Version identifies the built-in catalog revision.
const Version = "2025.1"

// Library is a read-only catalog of scenario archetypes.
type Library struct {
	byName    map[model.ScenarioName]model.FinanceScenario
	scenarios []model.FinanceScenario
}

// NewLibrary returns the built-in catalog.
func NewLibrary() *Library {
	return newLibrary(builtinScenarios())
}

// LoadLibrary reads additional or overriding archetype records from a YAML
// file and merges them over the built-in catalog. Records are matched by
// archetype name.
func LoadLibrary(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prior catalog: %w", err)
	}

	var overlay struct {
		Scenarios []model.FinanceScenario `yaml:"scenarios"`
	}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse prior catalog: %w", err)
	}

	merged := builtinScenarios()
	index := make(map[model.ScenarioName]int, len(merged))
	for i, s := range merged {
		index[s.Name] = i
	}
	for _, s := range overlay.Scenarios {
		if i, ok := index[s.Name]; ok {
			merged[i] = s
		} else {
			merged = append(merged, s)
		}
	}

	return newLibrary(merged), nil
}

func newLibrary(scenarios []model.FinanceScenario) *Library {
	l := &Library{byName: make(map[model.ScenarioName]model.FinanceScenario, len(scenarios))}
	for _, s := range scenarios {
		l.byName[s.Name] = s
		l.scenarios = append(l.scenarios, s)
	}
	return l
}

// Scenario returns the archetype with the given name.
func (l *Library) Scenario(name model.ScenarioName) (model.FinanceScenario, bool) {
	s, ok := l.byName[name]
	return s, ok
}

// Scenarios returns all archetypes in catalog order.
func (l *Library) Scenarios() []model.FinanceScenario {
	out := make([]model.FinanceScenario, len(l.scenarios))
	copy(out, l.scenarios)
	return out
}

// Recognizer builds an event-level prior from (archetype, confidence) pairs.
// Unknown archetype names map to the Other scenario.
func (l *Library) Recognizer(eventName string, segments map[model.ScenarioName]float64) model.FinanceEventRecognizer {
	rec := model.FinanceEventRecognizer{EventName: eventName}
	var sum float64
	for name, conf := range segments {
		scenario, ok := l.byName[name]
		if !ok {
			scenario, _ = l.byName[model.ScenarioOther]
		}
		rec.Segments = append(rec.Segments, model.ScenarioSegment{
			Scenario:   scenario,
			Confidence: conf,
		})
		sum += conf
	}
	if len(rec.Segments) > 0 {
		rec.AlignmentConfidence = sum / float64(len(rec.Segments))
	}
	return rec
}
