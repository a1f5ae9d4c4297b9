package resolve

import (
	"context"
	"fmt"
	"sort"

	gocache "github.com/patrickmn/go-cache"

	"github.com/avolkhin/fincascade/internal/model"
)

// MemoryStore is the degraded-mode participant store: resolution stays
// consistent within the run, but ids do not survive the process.
type MemoryStore struct {
	records *gocache.Cache // "p|<event>|<id>" -> model.Participant
	aliases *gocache.Cache // "a|<event>|<alias>" -> participant id
	counts  *gocache.Cache // "n|<event>" -> int
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: gocache.New(gocache.NoExpiration, 0),
		aliases: gocache.New(gocache.NoExpiration, 0),
		counts:  gocache.New(gocache.NoExpiration, 0),
	}
}

func recordKey(eventID, participantID string) string {
	return "p|" + eventID + "|" + participantID
}

func aliasKey(eventID, alias string) string {
	return "a|" + eventID + "|" + alias
}

// Upsert stores the participant and indexes its aliases.
func (s *MemoryStore) Upsert(ctx context.Context, eventID string, p model.Participant) error {
	key := recordKey(eventID, p.ParticipantID)
	if _, exists := s.records.Get(key); !exists {
		if _, ok := s.counts.Get("n|" + eventID); ok {
			_ = s.counts.Increment("n|"+eventID, 1)
		} else {
			s.counts.Set("n|"+eventID, 1, gocache.NoExpiration)
		}
	}
	s.records.Set(key, p, gocache.NoExpiration)

	for _, alias := range append([]string{p.Name.Value}, p.Aliases...) {
		norm := NormalizeAlias(alias)
		if norm == "" {
			continue
		}
		if _, exists := s.aliases.Get(aliasKey(eventID, norm)); !exists {
			s.aliases.Set(aliasKey(eventID, norm), p.ParticipantID, gocache.NoExpiration)
		}
	}
	return nil
}

// LookupByAlias resolves an alias within the run.
func (s *MemoryStore) LookupByAlias(ctx context.Context, eventID, alias string) (model.Participant, bool, error) {
	norm := NormalizeAlias(alias)
	if norm == "" {
		return model.Participant{}, false, nil
	}

	idVal, ok := s.aliases.Get(aliasKey(eventID, norm))
	if !ok {
		return model.Participant{}, false, nil
	}

	rec, ok := s.records.Get(recordKey(eventID, idVal.(string)))
	if !ok {
		return model.Participant{}, false, fmt.Errorf("alias index points to missing participant %s", idVal)
	}
	return rec.(model.Participant), true, nil
}

// List returns the event's participants in id order.
func (s *MemoryStore) List(ctx context.Context, eventID string) ([]model.Participant, error) {
	prefix := "p|" + eventID + "|"
	var out []model.Participant
	for key, item := range s.records.Items() {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, item.Object.(model.Participant))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].ParticipantID, out[j].ParticipantID
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
	return out, nil
}

// Count returns the number of stored participants for the event.
func (s *MemoryStore) Count(ctx context.Context, eventID string) (int, error) {
	if n, ok := s.counts.Get("n|" + eventID); ok {
		return n.(int), nil
	}
	return 0, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
