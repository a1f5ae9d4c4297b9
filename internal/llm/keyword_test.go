package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/avolkhin/fincascade/internal/evidence"
	"github.com/avolkhin/fincascade/internal/model"
)

func TestKeywordExtractBankRunSentence(t *testing.T) {
	p := NewKeywordProvider()
	doc := evidence.Document{
		ID:      "doc-1",
		Content: "Bank X announced a 40% overnight deposit outflow on 2024-03-01.",
	}

	candidates, err := p.Extract(context.Background(), doc, ContextHints{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}

	ep := candidates[0]
	if ep.Type != string(model.EpisodeLargeScaleRedemption) {
		t.Errorf("type = %q, want %q", ep.Type, model.EpisodeLargeScaleRedemption)
	}
	if ep.Timestamp.Value != "2024-03-01" {
		t.Errorf("timestamp = %q, want 2024-03-01", ep.Timestamp.Value)
	}

	foundBank := false
	for _, pt := range ep.Participants {
		if pt.Name.Value == "Bank X" {
			foundBank = true
			if pt.Role != string(model.RoleIssuer) {
				t.Errorf("Bank X role = %q, want issuer", pt.Role)
			}
		}
	}
	if !foundBank {
		t.Errorf("Bank X not among participants: %+v", ep.Participants)
	}
}

// Every snippet the provider cites must be a verbatim span of the source
// document, across a variety of inputs.
func TestKeywordExtractCitesVerbatimSpans(t *testing.T) {
	p := NewKeywordProvider()
	contents := []string{
		"Bank X announced a 40% overnight deposit outflow on 2024-03-01.",
		"The FDIC placed Bank X into receivership on March 3, 2024.\nInvestors withdrew $4.2 billion within 48 hours.",
		"Acme Capital received a margin call for $150 million. A fire sale of bond holdings followed on 2024-03-05.",
		"The SEC opened an investigation into Omega Fund in January 2024, citing fictitious revenue entries.",
	}

	for _, content := range contents {
		doc := evidence.Document{ID: "d", Content: content}
		candidates, err := p.Extract(context.Background(), doc, ContextHints{})
		if err != nil {
			t.Fatalf("Extract(%q): %v", content, err)
		}
		if len(candidates) == 0 {
			t.Errorf("no candidates for %q", content)
		}
		for _, ep := range candidates {
			for _, snippet := range collectSnippets(ep) {
				if !strings.Contains(content, snippet) {
					t.Errorf("snippet %q is not a verbatim span of %q", snippet, content)
				}
			}
		}
	}
}

func collectSnippets(ep CandidateEpisode) []string {
	var out []string
	add := func(gv model.GroundedValue) { out = append(out, gv.Evidence...) }
	add(ep.Name)
	add(ep.Timestamp)
	for _, d := range ep.Descriptions {
		add(d)
	}
	for _, pt := range ep.Participants {
		add(pt.Name)
		add(pt.Type)
	}
	for _, tx := range ep.Transactions {
		add(tx.Name)
		add(tx.TransactionType)
		add(tx.Timestamp)
		for _, d := range tx.Details {
			add(d)
		}
	}
	return out
}

func TestKeywordExtractNoRuleNoCandidates(t *testing.T) {
	p := NewKeywordProvider()
	doc := evidence.Document{ID: "d", Content: "The weather in Basel was mild throughout the spring."}

	candidates, err := p.Extract(context.Background(), doc, ContextHints{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("got %d candidates from irrelevant text, want 0", len(candidates))
	}
}

func TestKeywordExtractTransactionAmount(t *testing.T) {
	p := NewKeywordProvider()
	doc := evidence.Document{ID: "d", Content: "Clients withdrew $4.2 billion from Bank X on 2024-03-01."}

	candidates, err := p.Extract(context.Background(), doc, ContextHints{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(candidates) != 1 || len(candidates[0].Transactions) != 1 {
		t.Fatalf("expected one candidate with one transaction, got %+v", candidates)
	}

	tx := candidates[0].Transactions[0]
	if len(tx.Details) == 0 || !strings.HasPrefix(tx.Details[0].Value, "$4.2") {
		t.Errorf("transaction details = %+v, want the cited amount", tx.Details)
	}
	if tx.FromParticipantID != "" || tx.ToParticipantID != "" {
		t.Error("endpoint ids fabricated; must stay empty until resolution")
	}
	if len(tx.Reasons) == 0 {
		t.Error("unresolved endpoints must be explained in reasons")
	}
}

func TestKeywordExtractHonorsContext(t *testing.T) {
	p := NewKeywordProvider()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Extract(ctx, evidence.Document{ID: "d", Content: "Heavy withdrawals continued for days at Bank X branches."}, ContextHints{})
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
}

func TestSplitSentencesSpansStayVerbatim(t *testing.T) {
	text := "Shares fell 4.5 percent on the news of the downgrade. The regulator then suspended trading in the afternoon session!\nA third line about the bankruptcy filing follows here."
	spans := splitSentences(text)
	if len(spans) != 3 {
		t.Fatalf("got %d spans, want 3: %q", len(spans), spans)
	}
	for _, span := range spans {
		if !strings.Contains(text, span) {
			t.Errorf("span %q is not a substring of the input", span)
		}
	}
	if !strings.Contains(spans[0], "4.5 percent") {
		t.Errorf("decimal split mid-number: %q", spans[0])
	}
}

func TestSplitSentencesDropsFragments(t *testing.T) {
	spans := splitSentences("Ok. Fine. This sentence is long enough to keep around for analysis.")
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1 (short fragments dropped): %q", len(spans), spans)
	}
}
