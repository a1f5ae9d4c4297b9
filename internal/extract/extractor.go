// Package extract fills the hypothesized stage skeleton with concrete,
// evidence-cited episodes. Oracle output is treated as untrusted: grounding
// is prechecked here and re-verified independently by the fact checker.
package extract

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/avolkhin/fincascade/internal/evidence"
	"github.com/avolkhin/fincascade/internal/llm"
	"github.com/avolkhin/fincascade/internal/model"
	"github.com/avolkhin/fincascade/internal/resolve"
)

// Extractor produces candidate episodes from evidence and attaches them to
// stages. It may create new stages when evidence does not fit the skeleton;
// the hint structure never blocks novel structure from entering the cascade.
type Extractor struct {
	provider  llm.Provider
	resolver  *resolve.Resolver
	store     *evidence.Store
	minAssign float64
	workers   int
	logger    *zap.Logger

	nextEpisode int
	nextStage   int
}

// NewExtractor creates an extractor. minAssign is the stage-assignment score
// below which a new stage is created instead. workers bounds concurrent
// oracle calls.
func NewExtractor(provider llm.Provider, resolver *resolve.Resolver, store *evidence.Store, minAssign float64, workers int, logger *zap.Logger) *Extractor {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		provider:  provider,
		resolver:  resolver,
		store:     store,
		minAssign: minAssign,
		workers:   workers,
		logger:    logger,
	}
}

// Extract runs the oracle over every evidence document and assigns the
// resulting candidates to stages. Oracle calls run on parallel workers;
// assignment happens in document order under a single writer, so ids are
// stable across runs on identical input.
func (e *Extractor) Extract(ctx context.Context, eventID string, rec model.FinanceEventRecognizer, stages []model.EventStage) ([]model.EventStage, error) {
	docs := e.store.Documents()
	hints := e.contextHints(ctx, eventID, rec, stages)

	candidates := make([][]llm.CandidateEpisode, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, doc := range docs {
		g.Go(func() error {
			cands, err := e.provider.Extract(gctx, doc, hints)
			if err != nil {
				return fmt.Errorf("extract from %s: %w", doc.ID, err)
			}
			candidates[i] = cands
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.nextStage = len(stages)
	for i, doc := range docs {
		for _, cand := range candidates[i] {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			ep, ok, err := e.buildEpisode(ctx, eventID, cand, doc)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			stages = e.assign(stages, ep)
		}
	}
	return stages, nil
}

// Reextract gives one rejected episode a second pass through the oracle,
// carrying the failure reasons as context. Returns false when the oracle no
// longer produces a matching candidate, in which case the episode is dropped.
func (e *Extractor) Reextract(ctx context.Context, eventID string, rejected model.Episode, rec model.FinanceEventRecognizer, stages []model.EventStage) (model.Episode, bool, error) {
	doc, ok := e.store.Document(rejected.SourceDocumentID)
	if !ok {
		return model.Episode{}, false, nil
	}

	hints := e.contextHints(ctx, eventID, rec, stages)
	cands, err := e.provider.Extract(ctx, doc, hints)
	if err != nil {
		return model.Episode{}, false, fmt.Errorf("re-extract %s: %w", rejected.EpisodeID, err)
	}

	for _, cand := range cands {
		if NormalizeEpisodeType(cand.Type) != rejected.Type &&
			!strings.EqualFold(cand.Name.Value, rejected.Name.Value) {
			continue
		}
		ep, ok, err := e.buildEpisode(ctx, eventID, cand, doc)
		if err != nil || !ok {
			return model.Episode{}, false, err
		}
		// Keep the original identity and stage placement.
		ep.EpisodeID = rejected.EpisodeID
		ep.IndexInStage = rejected.IndexInStage
		return ep, true, nil
	}
	return model.Episode{}, false, nil
}

func (e *Extractor) contextHints(ctx context.Context, eventID string, rec model.FinanceEventRecognizer, stages []model.EventStage) llm.ContextHints {
	hints := llm.ContextHints{EventName: rec.EventName}
	for _, seg := range rec.Segments {
		hints.Scenarios = append(hints.Scenarios, seg.Scenario.Name)
	}
	for _, s := range stages {
		hints.StageNames = append(hints.StageNames, s.Name)
	}
	if e.resolver != nil {
		if known, err := e.resolver.Known(ctx, eventID); err == nil {
			hints.KnownParticipants = known
		}
	}
	return hints
}

// buildEpisode normalizes one oracle candidate into an episode in Extracted
// state. Returns false when the candidate cites no evidence at all: a claim
// with zero grounding is dropped outright rather than fact-checked.
func (e *Extractor) buildEpisode(ctx context.Context, eventID string, cand llm.CandidateEpisode, doc evidence.Document) (model.Episode, bool, error) {
	if !citesAnyEvidence(cand) {
		e.logger.Debug("dropping ungrounded candidate",
			zap.String("doc", doc.ID),
			zap.String("name", cand.Name.Value))
		return model.Episode{}, false, nil
	}

	ep := model.Episode{
		Name:             cand.Name,
		Type:             NormalizeEpisodeType(cand.Type),
		State:            model.EpisodeExtracted,
		Descriptions:     cand.Descriptions,
		StartTime:        cand.Timestamp,
		EndTime:          cand.Timestamp,
		SourceDocumentID: doc.ID,
		Relations:        cand.Relations,
		Transactions:     cand.Transactions,
	}

	nameToID := make(map[string]string, len(cand.Participants))
	for _, cp := range cand.Participants {
		p, err := e.resolver.Resolve(ctx, eventID, cp.Name, cp.Type, NormalizeRole(cp.Role))
		if err != nil {
			return model.Episode{}, false, fmt.Errorf("resolve participant %q: %w", cp.Name.Value, err)
		}
		p.Actions = append(p.Actions, cp.Actions...)
		ep.Participants = append(ep.Participants, p)
		nameToID[strings.ToLower(cp.Name.Value)] = p.ParticipantID
	}

	// Relation and transaction endpoints may arrive as names or ids; map
	// them to resolved ids. An id-shaped reference is only trusted if it
	// names a participant this event has actually resolved; anything else
	// stays empty with a reason, never fabricated.
	knownIDs := e.knownParticipantIDs(ctx, eventID, nameToID)
	for i := range ep.Relations {
		ep.Relations[i].FromParticipantID = mapEndpoint(ep.Relations[i].FromParticipantID, nameToID, knownIDs)
		ep.Relations[i].ToParticipantID = mapEndpoint(ep.Relations[i].ToParticipantID, nameToID, knownIDs)
	}
	for i := range ep.Transactions {
		tx := &ep.Transactions[i]
		from := mapEndpoint(tx.FromParticipantID, nameToID, knownIDs)
		to := mapEndpoint(tx.ToParticipantID, nameToID, knownIDs)
		if tx.FromParticipantID != "" && from == "" {
			tx.Reasons = append(tx.Reasons, fmt.Sprintf("payer %q did not resolve to a known participant", tx.FromParticipantID))
		}
		if tx.ToParticipantID != "" && to == "" {
			tx.Reasons = append(tx.Reasons, fmt.Sprintf("payee %q did not resolve to a known participant", tx.ToParticipantID))
		}
		tx.FromParticipantID = from
		tx.ToParticipantID = to
	}

	return ep, true, nil
}

// knownParticipantIDs collects the ids an endpoint reference may legally
// name: this episode's resolved participants plus everything the resolver
// already knows for the event.
func (e *Extractor) knownParticipantIDs(ctx context.Context, eventID string, nameToID map[string]string) map[string]bool {
	ids := make(map[string]bool, len(nameToID))
	for _, id := range nameToID {
		ids[id] = true
	}
	if e.resolver != nil {
		if known, err := e.resolver.Known(ctx, eventID); err == nil {
			for _, p := range known {
				ids[p.ParticipantID] = true
			}
		}
	}
	return ids
}

// mapEndpoint converts a name or id reference to a resolved participant id,
// or empty when it cannot be resolved. Id-shaped references not present in
// knownIDs are treated as unresolved: the oracle must not mint participants.
func mapEndpoint(ref string, nameToID map[string]string, knownIDs map[string]bool) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "P_") {
		if knownIDs[ref] {
			return ref
		}
		return ""
	}
	return nameToID[strings.ToLower(ref)]
}

// citesAnyEvidence reports whether at least one grounded value in the
// candidate carries a citation.
func citesAnyEvidence(cand llm.CandidateEpisode) bool {
	values := []model.GroundedValue{cand.Name, cand.Timestamp}
	values = append(values, cand.Descriptions...)
	for _, cp := range cand.Participants {
		values = append(values, cp.Name, cp.Type)
	}
	for _, v := range values {
		if len(v.Evidence) > 0 {
			return true
		}
	}
	return false
}
