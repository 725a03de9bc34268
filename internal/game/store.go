package game

import (
	"sync"
	"time"
)

// Store indexes live matches in memory. Terminal matches linger until the
// sweeper evicts them so late status polls still resolve, but their player
// mappings are released immediately so both sides can requeue.
type Store struct {
	mu            sync.RWMutex
	matches       map[string]*Match
	playerToMatch map[string]string
}

func NewStore() *Store {
	return &Store{
		matches:       make(map[string]*Match),
		playerToMatch: make(map[string]string),
	}
}

// Add registers a match and maps both players to it.
func (s *Store) Add(m *Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = m
	s.playerToMatch[m.Players[0]] = m.ID
	s.playerToMatch[m.Players[1]] = m.ID
}

// Get returns a match by id.
func (s *Store) Get(id string) (*Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	return m, ok
}

// ForPlayer returns the match a player is mapped to.
func (s *Store) ForPlayer(playerID string) (*Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.playerToMatch[playerID]
	if !ok {
		return nil, false
	}
	m, ok := s.matches[id]
	return m, ok
}

// ReleasePlayers drops the player mappings for a terminal match. The match
// itself stays in the store until evicted.
func (s *Store) ReleasePlayers(m *Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range m.Players {
		if s.playerToMatch[p] == m.ID {
			delete(s.playerToMatch, p)
		}
	}
}

// Remove drops a match and any mappings still pointing at it.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return
	}
	for _, p := range m.Players {
		if s.playerToMatch[p] == id {
			delete(s.playerToMatch, p)
		}
	}
	delete(s.matches, id)
}

// StaleActive returns active matches whose last move predates cutoff.
func (s *Store) StaleActive(cutoff time.Time) []*Match {
	s.mu.RLock()
	candidates := make([]*Match, 0, len(s.matches))
	for _, m := range s.matches {
		candidates = append(candidates, m)
	}
	s.mu.RUnlock()

	var stale []*Match
	for _, m := range candidates {
		m.mu.Lock()
		if m.Status == StatusActive && m.LastMoveAt.Before(cutoff) {
			stale = append(stale, m)
		}
		m.mu.Unlock()
	}
	return stale
}

// UnsettledEnded returns terminal matches whose settlement has not landed
// yet, so the sweeper can retry moving the money.
func (s *Store) UnsettledEnded() []*Match {
	s.mu.RLock()
	candidates := make([]*Match, 0, len(s.matches))
	for _, m := range s.matches {
		candidates = append(candidates, m)
	}
	s.mu.RUnlock()

	var out []*Match
	for _, m := range candidates {
		m.mu.Lock()
		if m.Status != StatusActive && !m.settled {
			out = append(out, m)
		}
		m.mu.Unlock()
	}
	return out
}

// EvictEndedBefore removes settled terminal matches that ended before cutoff
// and returns how many were dropped. Matches still owing a settlement are
// never evicted.
func (s *Store) EvictEndedBefore(cutoff time.Time) int {
	s.mu.RLock()
	candidates := make([]*Match, 0, len(s.matches))
	for _, m := range s.matches {
		candidates = append(candidates, m)
	}
	s.mu.RUnlock()

	evicted := 0
	for _, m := range candidates {
		m.mu.Lock()
		ended := m.Status != StatusActive && m.settled && !m.EndedAt.IsZero() && m.EndedAt.Before(cutoff)
		m.mu.Unlock()
		if ended {
			s.Remove(m.ID)
			evicted++
		}
	}
	return evicted
}

// ActiveCount returns the number of matches still in play.
func (s *Store) ActiveCount() int {
	s.mu.RLock()
	candidates := make([]*Match, 0, len(s.matches))
	for _, m := range s.matches {
		candidates = append(candidates, m)
	}
	s.mu.RUnlock()

	count := 0
	for _, m := range candidates {
		m.mu.Lock()
		if m.Status == StatusActive {
			count++
		}
		m.mu.Unlock()
	}
	return count
}
