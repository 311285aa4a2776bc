// Package history keeps the session-local log of completed analyses.
package history

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noot-app/carcinogenscan/internal/analysis"
)

// Item is one completed analysis. Items are never mutated after Append.
type Item struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Input     string                 `json:"input"`
	IsBatch   bool                   `json:"isBatch"`
	Single    *analysis.SingleResult `json:"single,omitempty"`
	Batch     *analysis.BatchResult  `json:"batch,omitempty"`
}

// clone copies the results so callers cannot reach the stored rows
func (i Item) clone() Item {
	i.Single = i.Single.Clone()
	i.Batch = i.Batch.Clone()
	return i
}

// NewID builds a session-unique id from the commit time and a short random suffix
func NewID(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}

// Store is an append-only, most-recent-first history
type Store struct {
	mu    sync.RWMutex
	items []Item
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// Append inserts item at the front. There is no deduplication.
func (s *Store) Append(item Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append([]Item{item}, s.items...)
}

// Select returns the item with the given id
func (s *Store) Select(id string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.ID == id {
			return item.clone(), true
		}
	}
	return Item{}, false
}

// List returns copies of all items, most recent first
func (s *Store) List() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Item, len(s.items))
	for i, item := range s.items {
		out[i] = item.clone()
	}
	return out
}

// Len returns the number of items
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
