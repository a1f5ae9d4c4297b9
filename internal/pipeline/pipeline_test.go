package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/avolkhin/fincascade/internal/evidence"
	"github.com/avolkhin/fincascade/internal/model"
	"github.com/avolkhin/fincascade/internal/prior"
)

const bankRunSentence = "Bank X announced a 40% overnight deposit outflow on 2024-03-01."

func testConfig(t *testing.T) *model.Config {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Oracle.Provider = "keyword"
	cfg.Cache.Enabled = false
	cfg.Storage.Path = filepath.Join(t.TempDir(), "participants.db")
	return cfg
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := New(testConfig(t), zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func bankRunRecognizer() model.FinanceEventRecognizer {
	return model.FinanceEventRecognizer{
		EventName: "Bank X collapse",
		Segments: []model.ScenarioSegment{{
			Scenario: model.FinanceScenario{
				Name:            model.ScenarioBankRun,
				StandardStages:  []string{"Liquidity Run"},
				KeyEpisodeTypes: []model.EpisodeType{model.EpisodeLargeScaleRedemption},
				KeyRoles:        []model.ParticipantRole{model.RoleIssuer},
			},
			Confidence: 0.8,
		}},
		AlignmentConfidence: 0.8,
	}
}

func TestRunBankRunScenario(t *testing.T) {
	p := newTestPipeline(t)
	in := Input{
		EventID:    "bankrun_x_2024",
		Evidence:   evidence.NewStore([]evidence.Document{{ID: "doc-1", Content: bankRunSentence, Category: "news"}}),
		Recognizer: bankRunRecognizer(),
	}

	cascade, err := p.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var liquidityRun *model.EventStage
	for i := range cascade.Stages {
		if cascade.Stages[i].Name == "Liquidity Run" {
			liquidityRun = &cascade.Stages[i]
		}
	}
	if liquidityRun == nil {
		t.Fatalf("no Liquidity Run stage in cascade: %+v", cascade.Stages)
	}
	if len(liquidityRun.Episodes) != 1 {
		t.Fatalf("Liquidity Run holds %d episodes, want 1", len(liquidityRun.Episodes))
	}

	ep := liquidityRun.Episodes[0]
	if ep.Type != model.EpisodeLargeScaleRedemption {
		t.Errorf("episode type = %q, want Large-Scale Redemption", ep.Type)
	}
	if ep.State != model.EpisodeVerified {
		t.Errorf("episode state = %q, want verified", ep.State)
	}
	if ep.VerificationConfidence < 0.7 {
		t.Errorf("verification confidence = %v, want >= 0.7", ep.VerificationConfidence)
	}
	if len(ep.Name.Evidence) == 0 || !strings.Contains(bankRunSentence, ep.Name.Evidence[0]) {
		t.Errorf("episode not grounded in the source sentence: %v", ep.Name.Evidence)
	}
}

// Every grounded value in the final output must cite literal substrings of
// the input documents.
func TestRunGroundingInvariant(t *testing.T) {
	p := newTestPipeline(t)
	store := evidence.NewStore([]evidence.Document{
		{ID: "doc-1", Content: bankRunSentence, Category: "news"},
		{ID: "doc-2", Content: "The FDIC took Bank X into receivership on 2024-03-03.", Category: "regulatory_filing"},
	})

	cascade, err := p.Run(context.Background(), Input{
		EventID:    "bankrun_x_2024",
		Evidence:   store,
		Recognizer: bankRunRecognizer(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, ep := range cascade.VerifiedEpisodes() {
		checkGrounded(t, store, ep.Name)
		checkGrounded(t, store, ep.StartTime)
		for _, d := range ep.Descriptions {
			checkGrounded(t, store, d)
		}
		for _, pt := range ep.Participants {
			checkGrounded(t, store, pt.Name)
			checkGrounded(t, store, pt.Type)
		}
	}
}

func checkGrounded(t *testing.T, store *evidence.Store, gv model.GroundedValue) {
	t.Helper()
	if gv.IsUnknown() || gv.Value == "" {
		return
	}
	for _, snippet := range gv.Evidence {
		if _, ok := store.Contains(snippet); !ok {
			t.Errorf("evidence %q for value %q is not a substring of any input document", snippet, gv.Value)
		}
	}
}

// Identical evidence and prior must yield the same verified episodes and the
// same warnings across runs.
func TestRunIdempotent(t *testing.T) {
	p := newTestPipeline(t)
	in := Input{
		EventID:    "bankrun_x_2024",
		Evidence:   evidence.NewStore([]evidence.Document{{ID: "doc-1", Content: bankRunSentence, Category: "news"}}),
		Recognizer: bankRunRecognizer(),
	}

	first, err := p.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := p.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if !reflect.DeepEqual(first.Warnings, second.Warnings) {
		t.Errorf("warnings differ across runs:\n%v\n%v", first.Warnings, second.Warnings)
	}
	firstVerified := first.VerifiedEpisodes()
	secondVerified := second.VerifiedEpisodes()
	if len(firstVerified) != len(secondVerified) {
		t.Fatalf("verified episode count differs: %d vs %d", len(firstVerified), len(secondVerified))
	}
	for i := range firstVerified {
		if firstVerified[i].Name.Value != secondVerified[i].Name.Value ||
			firstVerified[i].Type != secondVerified[i].Type {
			t.Errorf("verified episode %d differs across runs", i)
		}
	}
}

// Evidence describing an episode type no scenario segment hints at must
// still be extracted, verified, and included.
func TestRunPriorNonDomination(t *testing.T) {
	p := newTestPipeline(t)
	in := Input{
		EventID: "bankrun_x_2024",
		Evidence: evidence.NewStore([]evidence.Document{
			{ID: "doc-1", Content: "Bank X filed for bankruptcy protection on 2024-03-10.", Category: "court_record"},
		}),
		Recognizer: bankRunRecognizer(), // hints only mention Large-Scale Redemption
	}

	cascade, err := p.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	found := false
	for _, ep := range cascade.VerifiedEpisodes() {
		if ep.Type == model.EpisodeBankruptcyFiling {
			found = true
		}
	}
	if !found {
		t.Errorf("bankruptcy episode filtered out by prior hints; verified: %+v", cascade.VerifiedEpisodes())
	}
}

func TestRunEmitsCoverageWarning(t *testing.T) {
	p := newTestPipeline(t)
	// Evidence supports a bankruptcy, not the redemption the segment expects.
	in := Input{
		EventID: "bankrun_x_2024",
		Evidence: evidence.NewStore([]evidence.Document{
			{ID: "doc-1", Content: "Bank X filed for bankruptcy protection on 2024-03-10.", Category: "court_record"},
		}),
		Recognizer: bankRunRecognizer(),
	}
	in.Recognizer.Segments[0].Confidence = 0.9
	in.Recognizer.Segments[0].Scenario.KeyRoles = nil

	cascade, err := p.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	n := 0
	for _, w := range cascade.Warnings {
		if w.Kind == model.WarningMissingScenarioSegment {
			n++
		}
	}
	if n != 1 {
		t.Errorf("got %d missing_scenario_segment warnings, want exactly 1 (all: %v)", n, cascade.Warnings)
	}
}

func TestRunAlwaysTerminatesWithCascade(t *testing.T) {
	p := newTestPipeline(t)
	// Evidence with no recognizable structure and an empty prior.
	in := Input{
		EventID:  "unknown_event",
		Evidence: evidence.FromTexts("news", "nothing of note happened."),
	}

	cascade, err := p.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(cascade.Stages) == 0 {
		t.Fatal("cascade has no stages; expected at least the generic shell")
	}
	if cascade.Stages[0].Name != "Unclassified" {
		t.Errorf("fallback stage name = %q", cascade.Stages[0].Name)
	}
}

func TestRunRequiresEvidence(t *testing.T) {
	p := newTestPipeline(t)
	if _, err := p.Run(context.Background(), Input{EventID: "x", Evidence: evidence.NewStore(nil)}); err == nil {
		t.Fatal("expected error for empty evidence store")
	}
	if _, err := p.Run(context.Background(), Input{Evidence: evidence.FromTexts("news", "text")}); err == nil {
		t.Fatal("expected error for missing event id")
	}
}

func TestRunWithPriorLibraryRecognizer(t *testing.T) {
	p := newTestPipeline(t)
	lib := prior.NewLibrary()
	rec := lib.Recognizer("Bank X collapse", map[model.ScenarioName]float64{
		model.ScenarioBankRun: 0.8,
	})

	cascade, err := p.Run(context.Background(), Input{
		EventID:    "bankrun_x_2024",
		Evidence:   evidence.NewStore([]evidence.Document{{ID: "doc-1", Content: bankRunSentence, Category: "news"}}),
		Recognizer: rec,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(cascade.VerifiedEpisodes()) == 0 {
		t.Error("no verified episodes from catalog-driven reconstruction")
	}
}

func TestRenderJSONAndMarkdown(t *testing.T) {
	p := newTestPipeline(t)
	cascade, err := p.Run(context.Background(), Input{
		EventID:    "bankrun_x_2024",
		Evidence:   evidence.NewStore([]evidence.Document{{ID: "doc-1", Content: bankRunSentence, Category: "news"}}),
		Recognizer: bankRunRecognizer(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	dir := t.TempDir()
	r := NewRenderer(true)
	jsonPath := filepath.Join(dir, "cascade.json")
	mdPath := filepath.Join(dir, "cascade.md")
	if err := r.RenderJSON(cascade, jsonPath); err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}
	if err := r.RenderMarkdown(cascade, mdPath); err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}

	jsonData, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read JSON: %v", err)
	}
	if !strings.Contains(string(jsonData), `"event_id": "bankrun_x_2024"`) {
		t.Error("JSON output missing event id")
	}

	mdData, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("read markdown: %v", err)
	}
	if !strings.Contains(string(mdData), "Liquidity Run") {
		t.Error("markdown output missing stage name")
	}
}

// A batch of episodes far larger than the fact-check worker count must flow
// through Run without stalling on pool backpressure.
func TestRunHandlesLargeEpisodeBatches(t *testing.T) {
	p := newTestPipeline(t)

	const docs = 100
	var store []evidence.Document
	for i := 0; i < docs; i++ {
		store = append(store, evidence.Document{
			ID:       fmt.Sprintf("doc-%d", i),
			Content:  fmt.Sprintf("Bank %d announced a 40%% overnight deposit outflow on 2024-03-01.", i),
			Category: "news",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cascade, err := p.Run(ctx, Input{
		EventID:    "bankrun_batch_2024",
		Evidence:   evidence.NewStore(store),
		Recognizer: bankRunRecognizer(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	total := 0
	for _, stage := range cascade.Stages {
		for _, ep := range stage.Episodes {
			total++
			if ep.State == "" {
				t.Errorf("episode %s left without a fact-check verdict", ep.EpisodeID)
			}
		}
	}
	if total != docs {
		t.Errorf("cascade holds %d episodes, want %d", total, docs)
	}
}
