package resolve

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/avolkhin/fincascade/internal/evidence"
	"github.com/avolkhin/fincascade/internal/model"
)

func TestNormalizeAlias(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Credit Suisse Group", "credit suisse"},
		{"ACME Inc.", "acme"},
		{"Lehman Brothers Holdings Ltd", "lehman brothers holdings"},
		{"  The   FDIC  ", "the fdic"},
		{"Evergrande", "evergrande"},
	}
	for _, tt := range tests {
		if got := NormalizeAlias(tt.in); got != tt.want {
			t.Errorf("NormalizeAlias(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveAssignsSequentialIDs(t *testing.T) {
	r := NewResolver(NewMemoryStore(), zap.NewNop(), 1)
	ctx := context.Background()

	first, err := r.Resolve(ctx, "E1", model.Grounded("Bank X", "Bank X"), model.Grounded("bank", "Bank X"), model.RoleIssuer)
	if err != nil {
		t.Fatalf("Resolve(Bank X): %v", err)
	}
	if first.ParticipantID != "P_1" {
		t.Errorf("first participant id = %q, want P_1", first.ParticipantID)
	}

	second, err := r.Resolve(ctx, "E1", model.Grounded("FDIC", "FDIC"), model.Grounded("regulator", "FDIC"), model.RoleDepositInsurance)
	if err != nil {
		t.Fatalf("Resolve(FDIC): %v", err)
	}
	if second.ParticipantID != "P_2" {
		t.Errorf("second participant id = %q, want P_2", second.ParticipantID)
	}
}

func TestResolveIdempotent(t *testing.T) {
	r := NewResolver(NewMemoryStore(), zap.NewNop(), 1)
	ctx := context.Background()

	a, err := r.Resolve(ctx, "E1", model.Grounded("Bank X", "Bank X"), model.Grounded("bank", "Bank X"), model.RoleIssuer)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	b, err := r.Resolve(ctx, "E1", model.Grounded("Bank X", "Bank X"), model.Grounded("bank", "Bank X"), model.RoleIssuer)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if a.ParticipantID != b.ParticipantID {
		t.Errorf("re-resolving the same entity changed id: %q vs %q", a.ParticipantID, b.ParticipantID)
	}

	all, err := r.active().List(ctx, "E1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("store holds %d participants, want 1", len(all))
	}
}

func TestResolveMergesVariantNames(t *testing.T) {
	r := NewResolver(NewMemoryStore(), zap.NewNop(), 1)
	ctx := context.Background()

	a, err := r.Resolve(ctx, "E1", model.Grounded("Credit Suisse", "Credit Suisse"), model.Grounded("bank", "Credit Suisse"), model.RoleIssuer)
	if err != nil {
		t.Fatalf("resolve short form: %v", err)
	}
	b, err := r.Resolve(ctx, "E1", model.Grounded("Credit Suisse Group AG", "Credit Suisse Group AG"), model.Unknown(), model.RoleOther)
	if err != nil {
		t.Fatalf("resolve long form: %v", err)
	}
	if a.ParticipantID != b.ParticipantID {
		t.Errorf("variant names resolved to distinct ids %q and %q", a.ParticipantID, b.ParticipantID)
	}
	if len(b.Aliases) == 0 {
		t.Errorf("merged participant carries no alias for the variant name")
	}
}

func TestResolveEnrichFillsUnknownFields(t *testing.T) {
	r := NewResolver(NewMemoryStore(), zap.NewNop(), 1)
	ctx := context.Background()

	if _, err := r.Resolve(ctx, "E1", model.Grounded("Bank X", "Bank X"), model.Unknown(), model.RoleOther); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	p, err := r.Resolve(ctx, "E1", model.Grounded("Bank X", "Bank X"), model.Grounded("bank", "Bank X bank"), model.RoleIssuer)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if p.Type.Value != "bank" {
		t.Errorf("type not filled on enrich: %q", p.Type.Value)
	}
	if p.Role != model.RoleIssuer {
		t.Errorf("role not filled on enrich: %q", p.Role)
	}
}

func TestResolveRejectsEmptyName(t *testing.T) {
	r := NewResolver(NewMemoryStore(), zap.NewNop(), 1)
	if _, err := r.Resolve(context.Background(), "E1", model.Unknown(), model.Unknown(), model.RoleOther); err == nil {
		t.Fatal("expected error for unknown name, got nil")
	}
}

// failingStore errors on every operation, forcing degraded mode.
type failingStore struct{}

func (failingStore) Upsert(context.Context, string, model.Participant) error {
	return errors.New("disk full")
}
func (failingStore) LookupByAlias(context.Context, string, string) (model.Participant, bool, error) {
	return model.Participant{}, false, errors.New("disk full")
}
func (failingStore) List(context.Context, string) ([]model.Participant, error) {
	return nil, errors.New("disk full")
}
func (failingStore) Count(context.Context, string) (int, error) { return 0, errors.New("disk full") }
func (failingStore) Close() error                               { return nil }

func TestResolveDegradesOnStorageFailure(t *testing.T) {
	var slept []time.Duration
	orig := resolveSleepFunc
	resolveSleepFunc = func(d time.Duration) { slept = append(slept, d) }
	defer func() { resolveSleepFunc = orig }()

	r := NewResolver(failingStore{}, zap.NewNop(), 3)
	p, err := r.Resolve(context.Background(), "E1", model.Grounded("Bank X", "Bank X"), model.Unknown(), model.RoleIssuer)
	if err != nil {
		t.Fatalf("degraded resolve should succeed in-memory: %v", err)
	}
	if !r.Degraded() {
		t.Error("resolver did not flag degraded mode")
	}
	if p.ParticipantID == "" {
		t.Error("degraded resolve returned empty id")
	}

	// Backoff doubles between attempts.
	if len(slept) != 0 {
		t.Logf("backoff sleeps: %v", slept)
		for i := 1; i < len(slept); i++ {
			if slept[i] != 2*slept[i-1] {
				t.Errorf("backoff not exponential: %v then %v", slept[i-1], slept[i])
			}
		}
	}

	// Subsequent resolves stay in-memory and remain idempotent.
	again, err := r.Resolve(context.Background(), "E1", model.Grounded("Bank X", "Bank X"), model.Unknown(), model.RoleIssuer)
	if err != nil {
		t.Fatalf("second degraded resolve: %v", err)
	}
	if again.ParticipantID != p.ParticipantID {
		t.Errorf("degraded resolve not idempotent: %q vs %q", p.ParticipantID, again.ParticipantID)
	}
}

func TestResolveTextFindsMentions(t *testing.T) {
	r := NewResolver(NewMemoryStore(), zap.NewNop(), 1)
	docs := []evidence.Document{{
		ID:      "doc-1",
		Content: "Bank X announced a 40% overnight deposit outflow on 2024-03-01. The FDIC stepped in two days later.",
	}}

	ps, err := r.ResolveText(context.Background(), "E1", docs)
	if err != nil {
		t.Fatalf("ResolveText: %v", err)
	}

	names := make(map[string]bool)
	for _, p := range ps {
		names[p.Name.Value] = true
	}
	if !names["Bank X"] {
		t.Errorf("Bank X not resolved; got %v", names)
	}
	if !names["FDIC"] && !names["The FDIC"] {
		t.Errorf("FDIC not resolved; got %v", names)
	}
}

func TestResolveTextRequiresDocuments(t *testing.T) {
	r := NewResolver(NewMemoryStore(), zap.NewNop(), 1)
	if _, err := r.ResolveText(context.Background(), "E1", nil); err == nil {
		t.Fatal("expected error for empty document set")
	}
}
