package resolve

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/avolkhin/fincascade/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "participants.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	p := model.Participant{
		ParticipantID: "P_1",
		Name:          model.Grounded("Bank X", "Bank X"),
		Type:          model.Grounded("bank", "Bank X bank"),
		Role:          model.RoleIssuer,
		Aliases:       []string{"BX"},
	}
	if err := store.Upsert(ctx, "E1", p); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, found, err := store.LookupByAlias(ctx, "E1", "Bank X")
	if err != nil {
		t.Fatalf("LookupByAlias: %v", err)
	}
	if !found {
		t.Fatal("participant not found by name")
	}
	if got.ParticipantID != "P_1" || got.Role != model.RoleIssuer {
		t.Errorf("round-trip mismatch: %+v", got)
	}

	// Aliases are looked up after normalization.
	if _, found, _ := store.LookupByAlias(ctx, "E1", "bx"); !found {
		t.Error("alias lookup failed for normalized form")
	}
}

func TestSQLiteStoreUpsertIdempotent(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	p := model.Participant{ParticipantID: "P_1", Name: model.Grounded("FDIC", "FDIC"), Role: model.RoleDepositInsurance}
	for i := 0; i < 3; i++ {
		if err := store.Upsert(ctx, "E1", p); err != nil {
			t.Fatalf("Upsert %d: %v", i, err)
		}
	}

	n, err := store.Count(ctx, "E1")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d after repeated upserts, want 1", n)
	}
}

func TestSQLiteStoreScopesByEvent(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.Upsert(ctx, "E1", model.Participant{ParticipantID: "P_1", Name: model.Grounded("Bank X", "Bank X")}); err != nil {
		t.Fatalf("Upsert E1: %v", err)
	}
	if _, found, _ := store.LookupByAlias(ctx, "E2", "Bank X"); found {
		t.Error("participant from E1 visible in E2")
	}
	if n, _ := store.Count(ctx, "E2"); n != 0 {
		t.Errorf("Count(E2) = %d, want 0", n)
	}
}

func TestSQLiteStoreListOrdersByID(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	// P_10 sorts after P_2 numerically even though "P_10" < "P_2" lexically.
	ids := []string{"P_2", "P_10", "P_1"}
	for i, id := range ids {
		p := model.Participant{ParticipantID: id, Name: model.Grounded("Entity "+id, "Entity "+id)}
		if err := store.Upsert(ctx, "E1", p); err != nil {
			t.Fatalf("Upsert %d: %v", i, err)
		}
	}

	all, err := store.List(ctx, "E1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"P_1", "P_2", "P_10"}
	for i, p := range all {
		if p.ParticipantID != want[i] {
			t.Errorf("List[%d] = %q, want %q", i, p.ParticipantID, want[i])
		}
	}
}
