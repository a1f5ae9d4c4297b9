package resolve

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/avolkhin/fincascade/internal/evidence"
	"github.com/avolkhin/fincascade/internal/model"
)

const resolveMaxBackoff = 8 * time.Second

// resolveSleepFunc is the sleep function used between retries (injectable for tests).
var resolveSleepFunc = time.Sleep

// Resolver deduplicates entity mentions into canonical participants with
// stable ids. Participants are never deleted, only enriched; re-resolving
// the same entity is a no-op update.
type Resolver struct {
	store      Store
	fallback   *MemoryStore
	logger     *zap.Logger
	maxRetries int
	degraded   bool
}

// NewResolver creates a resolver over the given store. When store writes fail
// permanently, the resolver degrades to in-memory resolution for the run.
func NewResolver(store Store, logger *zap.Logger, maxRetries int) *Resolver {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		store:      store,
		fallback:   NewMemoryStore(),
		logger:     logger,
		maxRetries: maxRetries,
	}
}

// Degraded reports whether participant persistence failed and resolution fell
// back to in-memory state. Surfaced in the final output.
func (r *Resolver) Degraded() bool {
	return r.degraded
}

// active returns the store currently in use.
func (r *Resolver) active() Store {
	if r.degraded {
		return r.fallback
	}
	return r.store
}

// Resolve returns the canonical participant for a mention, creating it on
// first sight. The mention name must be a grounded value citing the
// originating text.
func (r *Resolver) Resolve(ctx context.Context, eventID string, name model.GroundedValue, ptype model.GroundedValue, role model.ParticipantRole) (model.Participant, error) {
	if strings.TrimSpace(name.Value) == "" || name.IsUnknown() {
		return model.Participant{}, fmt.Errorf("participant mention has no name")
	}

	existing, found, err := r.lookup(ctx, eventID, name.Value)
	if err != nil {
		return model.Participant{}, err
	}
	if found {
		return r.enrich(ctx, eventID, existing, name, ptype, role)
	}

	// Token-subset matching catches variants like "Credit Suisse Group" for
	// a stored "Credit Suisse".
	if p, ok, err := r.fuzzyLookup(ctx, eventID, name.Value); err != nil {
		return model.Participant{}, err
	} else if ok {
		return r.enrich(ctx, eventID, p, name, ptype, role)
	}

	count, err := r.active().Count(ctx, eventID)
	if err != nil && !r.degraded {
		r.degrade(err)
		count, err = r.active().Count(ctx, eventID)
	}
	if err != nil {
		return model.Participant{}, fmt.Errorf("allocate participant id: %w", err)
	}

	p := model.Participant{
		ParticipantID: fmt.Sprintf("P_%d", count+1),
		Name:          name,
		Type:          ptype,
		Role:          role,
	}
	if err := r.upsertWithRetry(ctx, eventID, p); err != nil {
		return model.Participant{}, err
	}
	return p, nil
}

// Known lists the participants resolved so far for an event.
func (r *Resolver) Known(ctx context.Context, eventID string) ([]model.Participant, error) {
	return r.active().List(ctx, eventID)
}

// lookup checks the active store, degrading on persistent read failure.
func (r *Resolver) lookup(ctx context.Context, eventID, alias string) (model.Participant, bool, error) {
	p, found, err := r.active().LookupByAlias(ctx, eventID, alias)
	if err != nil && !r.degraded {
		r.degrade(err)
		return r.fallback.LookupByAlias(ctx, eventID, alias)
	}
	return p, found, err
}

// fuzzyLookup matches a mention whose normalized tokens contain, or are
// contained by, a stored participant's tokens.
func (r *Resolver) fuzzyLookup(ctx context.Context, eventID, name string) (model.Participant, bool, error) {
	mention := strings.Fields(NormalizeAlias(name))
	if len(mention) == 0 {
		return model.Participant{}, false, nil
	}

	all, err := r.active().List(ctx, eventID)
	if err != nil {
		return model.Participant{}, false, err
	}

	for _, p := range all {
		stored := strings.Fields(NormalizeAlias(p.Name.Value))
		if tokenSubset(mention, stored) || tokenSubset(stored, mention) {
			return p, true, nil
		}
	}
	return model.Participant{}, false, nil
}

// tokenSubset reports whether every token of a appears in b, requiring at
// least one token longer than three characters so single stop-ish words do
// not merge distinct entities.
func tokenSubset(a, b []string) bool {
	if len(a) == 0 || len(a) > len(b) {
		return false
	}
	set := make(map[string]bool, len(b))
	for _, t := range b {
		set[t] = true
	}
	anchored := false
	for _, t := range a {
		if !set[t] {
			return false
		}
		if len(t) > 3 {
			anchored = true
		}
	}
	return anchored
}

// enrich merges a new mention into an existing record: alias added, unknown
// fields filled, never overwritten with weaker data.
func (r *Resolver) enrich(ctx context.Context, eventID string, p model.Participant, name, ptype model.GroundedValue, role model.ParticipantRole) (model.Participant, error) {
	changed := false

	norm := NormalizeAlias(name.Value)
	known := norm == NormalizeAlias(p.Name.Value)
	for _, a := range p.Aliases {
		if NormalizeAlias(a) == norm {
			known = true
		}
	}
	if !known {
		p.Aliases = append(p.Aliases, name.Value)
		changed = true
	}

	if p.Type.IsUnknown() && !ptype.IsUnknown() {
		p.Type = ptype
		changed = true
	}
	if p.Role == model.RoleOther && role != model.RoleOther {
		p.Role = role
		changed = true
	}

	if changed {
		if err := r.upsertWithRetry(ctx, eventID, p); err != nil {
			return model.Participant{}, err
		}
	}
	return p, nil
}

// upsertWithRetry retries transient storage failures with exponential
// backoff, then degrades to in-memory resolution.
func (r *Resolver) upsertWithRetry(ctx context.Context, eventID string, p model.Participant) error {
	if r.degraded {
		return r.fallback.Upsert(ctx, eventID, p)
	}

	var lastErr error
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		lastErr = r.store.Upsert(ctx, eventID, p)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt < r.maxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * 100 * time.Millisecond
			if backoff > resolveMaxBackoff {
				backoff = resolveMaxBackoff
			}
			resolveSleepFunc(backoff)
		}
	}

	r.degrade(lastErr)
	return r.fallback.Upsert(ctx, eventID, p)
}

// degrade switches the run to in-memory resolution and copies nothing: the
// durable store may hold earlier participants, so reads fall back too and the
// condition is flagged in the final output.
func (r *Resolver) degrade(cause error) {
	if r.degraded {
		return
	}
	r.degraded = true
	r.logger.Warn("participant storage unavailable, resolving in-memory for this run",
		zap.Error(cause))
}

var mentionPattern = regexp.MustCompile(`[A-Z][A-Za-z&.]*(?:\s+[A-Z][A-Za-z&.]*)*`)

// mentionStopwords are capitalized spans that are not entity names.
var mentionStopwords = map[string]bool{
	"The": true, "A": true, "An": true, "On": true, "In": true, "At": true, "It": true,
	"January": true, "February": true, "March": true, "April": true, "May": true,
	"June": true, "July": true, "August": true, "September": true,
	"October": true, "November": true, "December": true,
}

// ResolveText extracts entity mentions from the evidence documents and
// resolves each, returning the deduplicated participants. Input must be
// non-empty.
func (r *Resolver) ResolveText(ctx context.Context, eventID string, docs []evidence.Document) ([]model.Participant, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("no evidence documents to resolve")
	}

	seen := make(map[string]bool)
	var out []model.Participant

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, span := range mentionPattern.FindAllString(doc.Content, -1) {
			mention := strings.TrimSpace(span)
			if len(mention) < 2 || mentionStopwords[mention] {
				continue
			}
			norm := NormalizeAlias(mention)
			if norm == "" || seen[norm] {
				continue
			}
			seen[norm] = true

			name := model.Grounded(mention, mention).
				WithReasons("named entity in source text").
				WithConfidence(0.7)
			p, err := r.Resolve(ctx, eventID, name,
				model.Unknown("entity category not stated in source content"),
				model.RoleOther)
			if err != nil {
				return nil, fmt.Errorf("resolve %q: %w", mention, err)
			}

			if !containsID(out, p.ParticipantID) {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func containsID(ps []model.Participant, id string) bool {
	for _, p := range ps {
		if p.ParticipantID == id {
			return true
		}
	}
	return false
}
