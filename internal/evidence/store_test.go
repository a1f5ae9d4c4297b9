package evidence

import (
	"os"
	"path/filepath"
	"testing"
)

func TestContainsRequiresLiteralSubstring(t *testing.T) {
	s := FromTexts("news", "Bank X announced a 40% overnight deposit outflow on 2024-03-01.")

	if _, ok := s.Contains("40% overnight deposit outflow"); !ok {
		t.Error("literal substring not found")
	}
	if _, ok := s.Contains("Bank X collapsed"); ok {
		t.Error("paraphrase reported as grounded")
	}
	if _, ok := s.Contains("bank x announced"); ok {
		t.Error("case-normalized text reported as grounded; matching must be exact")
	}
	if _, ok := s.Contains(""); ok {
		t.Error("empty snippet reported as grounded")
	}
}

func TestContainsReturnsFirstDocumentID(t *testing.T) {
	s := NewStore([]Document{
		{ID: "a", Content: "shared sentence. only in a."},
		{ID: "b", Content: "shared sentence. only in b."},
	})

	if id, ok := s.Contains("shared sentence."); !ok || id != "a" {
		t.Errorf("Contains = (%q, %v), want (a, true)", id, ok)
	}
	if id, ok := s.Contains("only in b."); !ok || id != "b" {
		t.Errorf("Contains = (%q, %v), want (b, true)", id, ok)
	}
}

func TestCategoryFollowsGroundingDocument(t *testing.T) {
	s := NewStore([]Document{
		{ID: "filing", Content: "the receiver was appointed.", Category: "regulatory_filing"},
		{ID: "tweet", Content: "everyone is pulling money out.", Category: "social_media"},
	})

	if got := s.Category("receiver was appointed"); got != "regulatory_filing" {
		t.Errorf("Category = %q, want regulatory_filing", got)
	}
	if got := s.Category("not present anywhere"); got != "" {
		t.Errorf("Category for ungrounded snippet = %q, want empty", got)
	}
}

func TestNewStoreAssignsMissingIDs(t *testing.T) {
	s := NewStore([]Document{{Content: "first"}, {Content: "second"}})

	docs := s.Documents()
	if docs[0].ID == "" || docs[1].ID == "" {
		t.Fatal("documents left without ids")
	}
	if docs[0].ID == docs[1].ID {
		t.Error("assigned ids collide")
	}
	if _, ok := s.Document(docs[0].ID); !ok {
		t.Error("assigned id not resolvable")
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "filing.txt")
	if err := os.WriteFile(path, []byte("Bank X entered receivership."), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadFiles("regulatory_filing", path)
	if err != nil {
		t.Fatalf("LoadFiles: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
	doc := s.Documents()[0]
	if doc.Origin != filepath.Clean(path) {
		t.Errorf("Origin = %q, want %q", doc.Origin, path)
	}
	if doc.Category != "regulatory_filing" {
		t.Errorf("Category = %q", doc.Category)
	}

	if _, err := LoadFiles("news", filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
