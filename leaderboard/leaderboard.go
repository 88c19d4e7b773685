// Package leaderboard keeps the best score of each player.
package leaderboard

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
)

// MaxEntries is how many players a board retains.
const MaxEntries = 10

// ErrEmptyName is returned when a score is submitted without a player name.
var ErrEmptyName = errors.New("empty player name")

// Entry is one line of the board.
type Entry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Store persists scores. Submit keeps one entry per name, replaced only by a higher score;
// non-positive scores are ignored. Top returns entries best first.
type Store interface {
	Submit(ctx context.Context, name string, score int) error
	Top(ctx context.Context, n int) ([]Entry, error)
}

// DefaultSeed is what a fresh board shows before anyone has played.
var DefaultSeed = []Entry{
	{Name: "Prof_Gramática", Score: 2500},
	{Name: "Dona_Benta", Score: 1800},
	{Name: "Machado_A", Score: 1500},
	{Name: "Clarice_L", Score: 1200},
	{Name: "Guimarães_R", Score: 900},
}

// Memory is an in-memory Store, lost on restart.
type Memory struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemory creates a board holding seed.
func NewMemory(seed ...Entry) *Memory {
	m := &Memory{}
	for _, e := range seed {
		_ = m.Submit(context.Background(), e.Name, e.Score)
	}
	return m
}

// Submit records score for name.
func (m *Memory) Submit(_ context.Context, name string, score int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if score <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := slices.IndexFunc(m.entries, func(e Entry) bool { return e.Name == name })
	switch {
	case i < 0:
		m.entries = append(m.entries, Entry{Name: name, Score: score})
	case m.entries[i].Score >= score:
		return nil
	default:
		m.entries[i].Score = score
	}

	slices.SortStableFunc(m.entries, func(a, b Entry) int { return cmp.Compare(b.Score, a.Score) })
	if len(m.entries) > MaxEntries {
		m.entries = m.entries[:MaxEntries]
	}
	return nil
}

// Top returns up to n entries, or all of them when n <= 0.
func (m *Memory) Top(_ context.Context, n int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if n <= 0 || n > len(m.entries) {
		n = len(m.entries)
	}
	out := make([]Entry, n)
	copy(out, m.entries[:n])
	return out, nil
}
