package snapshot

import "sync/atomic"

// Store holds the currently published snapshot.
type Store struct {
	current     atomic.Pointer[Snapshot]
	generations atomic.Uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Publish makes s the current snapshot and returns its generation number,
// starting at 1.
func (st *Store) Publish(s *Snapshot) uint64 {
	st.current.Store(s)
	return st.generations.Add(1)
}

// Current returns the published snapshot, or nil before the first Publish.
func (st *Store) Current() *Snapshot {
	return st.current.Load()
}

// Generation returns how many snapshots have been published.
func (st *Store) Generation() uint64 {
	return st.generations.Load()
}
