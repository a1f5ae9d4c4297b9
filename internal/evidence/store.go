// Package evidence holds the immutable store of source documents the
// pipeline grounds every value against.
package evidence

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Document is one source text snippet or full document.
type Document struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Category string `json:"category,omitempty"` // Source category for reliability weighting
	Origin   string `json:"origin,omitempty"`   // File path or URL the content came from
}

// Store is an immutable list of documents. All lookups are read-only, so a
// Store is safe for concurrent use.
type Store struct {
	docs []Document
	byID map[string]int
}

// NewStore builds a store from the given documents. Documents without an id
// are assigned one.
func NewStore(docs []Document) *Store {
	s := &Store{byID: make(map[string]int, len(docs))}
	for _, d := range docs {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		s.byID[d.ID] = len(s.docs)
		s.docs = append(s.docs, d)
	}
	return s
}

// FromTexts wraps raw strings as documents of one category.
func FromTexts(category string, texts ...string) *Store {
	docs := make([]Document, 0, len(texts))
	for _, t := range texts {
		docs = append(docs, Document{Content: t, Category: category})
	}
	return NewStore(docs)
}

// Documents returns the stored documents in insertion order.
func (s *Store) Documents() []Document {
	out := make([]Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// Len returns the number of documents.
func (s *Store) Len() int { return len(s.docs) }

// Document returns the document with the given id.
func (s *Store) Document(id string) (Document, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return Document{}, false
	}
	return s.docs[idx], true
}

// Contains reports whether snippet is a literal substring of some document,
// returning the id of the first document that contains it.
func (s *Store) Contains(snippet string) (string, bool) {
	if snippet == "" {
		return "", false
	}
	for _, d := range s.docs {
		if strings.Contains(d.Content, snippet) {
			return d.ID, true
		}
	}
	return "", false
}

// Category returns the source category of the document grounding the given
// snippet, or "" when the snippet is not grounded.
func (s *Store) Category(snippet string) string {
	id, ok := s.Contains(snippet)
	if !ok {
		return ""
	}
	doc, _ := s.Document(id)
	return doc.Category
}

// LoadFiles reads each path into a document of the given category.
func LoadFiles(category string, paths ...string) (*Store, error) {
	var docs []Document
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read evidence file: %w", err)
		}
		docs = append(docs, Document{
			Content:  string(data),
			Category: category,
			Origin:   filepath.Clean(p),
		})
	}
	return NewStore(docs), nil
}
