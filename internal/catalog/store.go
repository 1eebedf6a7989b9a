package catalog

import (
	"context"
	"sync/atomic"
)

// Store holds the current Catalog and supports wholesale replacement.
//
// Sessions call Current once at start and keep that reference for their
// lifetime, so a concurrent Refresh is never observable mid-session.
type Store struct {
	current atomic.Pointer[Catalog]
}

// NewStore creates a Store seeded with cat.
func NewStore(cat *Catalog) *Store {
	s := &Store{}
	s.current.Store(cat)
	return s
}

// Current returns the catalog snapshot in effect right now.
func (s *Store) Current() *Catalog {
	return s.current.Load()
}

// Refresh loads a fresh catalog from src and swaps it in atomically.
// On failure the previous catalog stays in effect.
func (s *Store) Refresh(ctx context.Context, src Source) error {
	cat, err := Load(ctx, src)
	if err != nil {
		return err
	}
	s.current.Store(cat)
	return nil
}
