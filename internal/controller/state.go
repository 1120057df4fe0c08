package controller

import (
	"encoding/json"
	"sort"
	"sync"
)

// State is the replicated in-memory controller state: the set of registered
// bookies and the ledger id counter. It is mutated only by the transaction
// apply path; the query path takes isolated snapshots. The transition
// methods perform no I/O so the state machine stays deterministic.
type State struct {
	mu        sync.RWMutex
	bookies   map[string]struct{}
	ledgerIDs int64
}

// NewState returns an empty state.
func NewState() *State {
	return &State{bookies: make(map[string]struct{})}
}

// RegisterBookie adds the service to the registry. It reports whether the
// service was already present; re-registering is a no-op.
func (s *State) RegisterBookie(service string) (alreadyExisted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookies[service]; ok {
		return true
	}
	s.bookies[service] = struct{}{}
	return false
}

// ListBookies returns a sorted defensive copy of the registry. Callers never
// observe concurrent mutation.
func (s *State) ListBookies() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.bookies))
	for service := range s.bookies {
		out = append(out, service)
	}
	sort.Strings(out)
	return out
}

// NextLedgerID allocates a fresh ledger id. Ids start at 1, increase
// strictly, and are never reused for the lifetime of the cluster.
func (s *State) NextLedgerID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgerIDs++
	return s.ledgerIDs
}

// stateSnapshot is the serialized form of State used for raft snapshots.
type stateSnapshot struct {
	Bookies         []string `json:"bookies"`
	LedgerIDCounter int64    `json:"ledgerIdCounter"`
}

// encode serializes the full state.
func (s *State) encode() ([]byte, error) {
	s.mu.RLock()
	snap := stateSnapshot{
		Bookies:         make([]string, 0, len(s.bookies)),
		LedgerIDCounter: s.ledgerIDs,
	}
	for service := range s.bookies {
		snap.Bookies = append(snap.Bookies, service)
	}
	s.mu.RUnlock()
	sort.Strings(snap.Bookies)
	return json.Marshal(snap)
}

// restore replaces the state with the serialized snapshot.
func (s *State) restore(data []byte) error {
	var snap stateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookies = make(map[string]struct{}, len(snap.Bookies))
	for _, service := range snap.Bookies {
		s.bookies[service] = struct{}{}
	}
	s.ledgerIDs = snap.LedgerIDCounter
	return nil
}
