package main

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bodul/wordfall/game"
)

// Room is a running game: the session, the driver ticking it, and its owner.
type Room struct {
	ID        string
	Player    string
	CreatedAt time.Time
	Session   *game.Session

	driver  *game.Driver
	mu      sync.Mutex
	running bool
}

// RoomSummary is the listing view of a room.
type RoomSummary struct {
	ID        string     `json:"id"`
	Player    string     `json:"player"`
	Phase     game.Phase `json:"phase"`
	Score     int        `json:"score"`
	Level     int        `json:"level"`
	CreatedAt time.Time  `json:"created_at"`
}

// ensureDriver starts the tick loop unless it is already running. The loop exits on game over;
// a reset calls this again to bring it back.
func (r *Room) ensureDriver(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		r.driver.Wake()
		return
	}
	r.running = true
	go func() {
		_ = r.driver.Run(ctx)
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()
}

// Summary returns the listing view.
func (r *Room) Summary() RoomSummary {
	snap := r.Session.Snapshot()
	return RoomSummary{
		ID:        r.ID,
		Player:    r.Player,
		Phase:     snap.Phase,
		Score:     snap.Score,
		Level:     snap.Level,
		CreatedAt: r.CreatedAt,
	}
}

// Store holds all rooms in memory.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		rooms: make(map[string]*Room),
	}
}

// CreateRoom registers a room for player. build receives the room ID and an event hook that
// must be passed to the session so the room's driver follows pacing changes.
func (s *Store) CreateRoom(player string, build func(id string, notify func(game.Event)) *game.Session) *Room {
	r := &Room{
		ID:        generateID(),
		Player:    player,
		CreatedAt: time.Now(),
	}
	r.Session = build(r.ID, func(e game.Event) {
		if d := r.loadDriver(); d != nil {
			d.Notify(e)
		}
	})
	r.mu.Lock()
	r.driver = game.NewDriver(r.Session)
	r.mu.Unlock()

	s.mu.Lock()
	s.rooms[r.ID] = r
	s.mu.Unlock()
	return r
}

func (r *Room) loadDriver() *game.Driver {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.driver
}

// GetRoom returns a room by ID, or nil if not found.
func (s *Store) GetRoom(id string) *Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms[id]
}

// ListRooms returns all rooms, most recent first.
func (s *Store) ListRooms() []*Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		list = append(list, r)
	}
	// Sort by CreatedAt descending (simple insertion, small N).
	for i := 1; i < len(list); i++ {
		for j := i; j > 0 && list[j].CreatedAt.After(list[j-1].CreatedAt); j-- {
			list[j], list[j-1] = list[j-1], list[j]
		}
	}
	return list
}

// RemoveRoom forgets a room. Its driver stops on its own at game over or server shutdown.
func (s *Store) RemoveRoom(id string) {
	s.mu.Lock()
	delete(s.rooms, id)
	s.mu.Unlock()
}

func generateID() string {
	return uuid.NewString()
}
