package evaluator

import (
	"context"
	"fmt"
	"sync"

	"github.com/quorumlab/rubric/internal/domain/model"
)

const defaultRunCapacity = 16

// Option applies a configuration option to the InMemoryStore.
type Option func(*InMemoryStore)

// WithRunCapacity pre-sizes the store for the expected number of runs.
func WithRunCapacity(n int) Option {
	return func(s *InMemoryStore) {
		if n > 0 {
			s.capacity = n
		}
	}
}

type runState struct {
	roster      model.Roster
	snapshot    model.MetricsSnapshot
	hasSnapshot bool
}

// InMemoryStore implements Store with an RWMutex-guarded map. Values are
// copied on the way in and out so callers never share mutable slices with
// the store.
type InMemoryStore struct {
	mu       sync.RWMutex
	runs     map[string]*runState
	capacity int
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{capacity: defaultRunCapacity}
	for _, opt := range opts {
		opt(s)
	}
	s.runs = make(map[string]*runState, s.capacity)
	return s
}

// PutRoster registers or replaces the roster for a run.
func (s *InMemoryStore) PutRoster(_ context.Context, runID string, roster model.Roster) error {
	if runID == "" {
		return ErrEmptyRunID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.runs[runID]
	if st == nil {
		st = &runState{}
		s.runs[runID] = st
	}
	st.roster = copyRoster(roster)
	return nil
}

// PutSnapshot replaces the run's snapshot wholesale.
func (s *InMemoryStore) PutSnapshot(_ context.Context, runID string, snap model.MetricsSnapshot) error {
	if runID == "" {
		return ErrEmptyRunID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.runs[runID]
	if st == nil {
		st = &runState{}
		s.runs[runID] = st
	}
	st.snapshot = copySnapshot(snap)
	st.hasSnapshot = true
	return nil
}

// Roster returns the roster for a run.
func (s *InMemoryStore) Roster(_ context.Context, runID string) (model.Roster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("roster for %q: %w", runID, ErrRunNotFound)
	}
	return copyRoster(st.roster), nil
}

// Snapshot returns the latest snapshot for a run.
func (s *InMemoryStore) Snapshot(_ context.Context, runID string) (model.MetricsSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.runs[runID]
	if !ok || !st.hasSnapshot {
		return model.MetricsSnapshot{}, fmt.Errorf("snapshot for %q: %w", runID, ErrRunNotFound)
	}
	return copySnapshot(st.snapshot), nil
}

// Runs returns the number of runs tracked.
func (s *InMemoryStore) Runs(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

func copyRoster(r model.Roster) model.Roster {
	if r == nil {
		return nil
	}
	out := make(model.Roster, len(r))
	copy(out, r)
	return out
}

func copySnapshot(snap model.MetricsSnapshot) model.MetricsSnapshot {
	out := model.MetricsSnapshot{
		TotalMilestones: snap.TotalMilestones,
	}
	if snap.Milestones != nil {
		out.Milestones = make([]model.MilestoneCount, len(snap.Milestones))
		copy(out.Milestones, snap.Milestones)
	}
	if snap.PlanningScores != nil {
		out.PlanningScores = make([]float64, len(snap.PlanningScores))
		copy(out.PlanningScores, snap.PlanningScores)
	}
	if snap.CommunicationScores != nil {
		out.CommunicationScores = make([]float64, len(snap.CommunicationScores))
		copy(out.CommunicationScores, snap.CommunicationScores)
	}
	return out
}
