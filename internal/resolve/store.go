// Package resolve turns entity mentions in evidence into canonical
// participants with stable identifiers, backed by durable storage.
package resolve

import (
	"context"
	"strings"

	"github.com/avolkhin/fincascade/internal/model"
)

// Store is the participant store collaborator: addressable by
// (event id, participant id), with idempotent upsert and lookup-by-alias.
type Store interface {
	// Upsert writes a participant under the event namespace. Re-writing the
	// same id must be a no-op update, not a duplicate insert.
	Upsert(ctx context.Context, eventID string, p model.Participant) error

	// LookupByAlias finds the participant a normalized alias resolves to.
	LookupByAlias(ctx context.Context, eventID, alias string) (model.Participant, bool, error)

	// List returns all participants of the event in id order.
	List(ctx context.Context, eventID string) ([]model.Participant, error)

	// Count returns the number of participants stored for the event; used to
	// assign the next sequential id.
	Count(ctx context.Context, eventID string) (int, error)

	// Close releases underlying resources.
	Close() error
}

// NormalizeAlias canonicalizes an entity name for alias matching: lowercase,
// punctuation stripped, corporate suffixes removed, whitespace collapsed.
func NormalizeAlias(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '-', r == '_':
			b.WriteByte(' ')
		}
	}

	tokens := strings.Fields(b.String())
	out := tokens[:0]
	for _, t := range tokens {
		switch t {
		case "inc", "corp", "corporation", "ltd", "llc", "plc", "group", "co":
			continue
		}
		out = append(out, t)
	}
	return strings.Join(out, " ")
}
