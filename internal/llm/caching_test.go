package llm

import (
	"context"
	"testing"
	"time"

	"github.com/avolkhin/fincascade/internal/cache"
	"github.com/avolkhin/fincascade/internal/evidence"
	"github.com/avolkhin/fincascade/internal/model"
)

// countingProvider wraps KeywordProvider and counts inner calls.
type countingProvider struct {
	inner *KeywordProvider
	calls int
}

func (p *countingProvider) Name() string                            { return "keyword" }
func (p *countingProvider) IsAvailable(ctx context.Context) bool    { return true }
func (p *countingProvider) Extract(ctx context.Context, doc evidence.Document, hints ContextHints) ([]CandidateEpisode, error) {
	p.calls++
	return p.inner.Extract(ctx, doc, hints)
}

func TestCachingProviderServesRepeatsFromCache(t *testing.T) {
	inner := &countingProvider{inner: NewKeywordProvider()}
	p := NewCachingProvider(inner, cache.NewMemoryCache(time.Minute, time.Minute), "", time.Minute)
	doc := evidence.Document{ID: "d", Content: "Clients withdrew funds from Bank X on 2024-03-01."}

	first, err := p.Extract(context.Background(), doc, ContextHints{})
	if err != nil {
		t.Fatalf("first Extract: %v", err)
	}
	second, err := p.Extract(context.Background(), doc, ContextHints{})
	if err != nil {
		t.Fatalf("second Extract: %v", err)
	}

	if inner.calls != 1 {
		t.Errorf("inner provider called %d times, want 1", inner.calls)
	}
	if len(first) != len(second) {
		t.Fatalf("cached result differs: %d vs %d candidates", len(first), len(second))
	}
	for i := range first {
		if first[i].Name.Value != second[i].Name.Value || first[i].Type != second[i].Type {
			t.Errorf("candidate %d differs after cache round-trip", i)
		}
	}
}

// Hints focus attention but never change what the oracle saw, so the cache key
// covers only the document content.
func TestCachingProviderIgnoresHintsInKey(t *testing.T) {
	inner := &countingProvider{inner: NewKeywordProvider()}
	p := NewCachingProvider(inner, cache.NewMemoryCache(time.Minute, time.Minute), "", time.Minute)
	doc := evidence.Document{ID: "d", Content: "Clients withdrew funds from Bank X on 2024-03-01."}

	if _, err := p.Extract(context.Background(), doc, ContextHints{}); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Extract(context.Background(), doc, ContextHints{
		EventName: "Bank X collapse",
		Scenarios: []model.ScenarioName{model.ScenarioBankRun},
	}); err != nil {
		t.Fatal(err)
	}

	if inner.calls != 1 {
		t.Errorf("hint change caused a cache miss: %d inner calls", inner.calls)
	}
}

func TestCachingProviderMissesOnContentChange(t *testing.T) {
	inner := &countingProvider{inner: NewKeywordProvider()}
	p := NewCachingProvider(inner, cache.NewMemoryCache(time.Minute, time.Minute), "", time.Minute)

	if _, err := p.Extract(context.Background(), evidence.Document{ID: "d", Content: "Clients withdrew funds on 2024-03-01."}, ContextHints{}); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Extract(context.Background(), evidence.Document{ID: "d", Content: "Clients withdrew funds on 2024-03-02."}, ContextHints{}); err != nil {
		t.Fatal(err)
	}

	if inner.calls != 2 {
		t.Errorf("content change should miss the cache: %d inner calls", inner.calls)
	}
}

func TestCachingProviderRecoversFromCorruptEntry(t *testing.T) {
	inner := &countingProvider{inner: NewKeywordProvider()}
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	p := NewCachingProvider(inner, c, "", time.Minute)
	doc := evidence.Document{ID: "d", Content: "Clients withdrew funds from Bank X on 2024-03-01."}

	key := cache.OracleKey("keyword", "", doc.Content)
	if err := c.Set(key, []byte("{not json"), time.Minute); err != nil {
		t.Fatal(err)
	}

	candidates, err := p.Extract(context.Background(), doc, ContextHints{})
	if err != nil {
		t.Fatalf("Extract with corrupt cache entry: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("corrupt entry must fall through to the provider: %d calls", inner.calls)
	}
	if len(candidates) == 0 {
		t.Error("no candidates after cache recovery")
	}
}
