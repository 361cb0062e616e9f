// Package registry tracks the live rooms in this process. Locking here
// covers only the map itself: all game-logic mutual exclusion happens
// inside each room.
package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/ratrace/internal/game"
	"github.com/lox/ratrace/internal/randutil"
	"github.com/lox/ratrace/internal/refdata"
	"github.com/lox/ratrace/internal/roomid"
)

var (
	// ErrNotFound is returned for lookups of unknown or reaped rooms.
	ErrNotFound = errors.New("room not found")
	// ErrCapacity is returned when the global room limit is reached.
	ErrCapacity = errors.New("room capacity exceeded")
)

// RoomSummary is lightweight room metadata for lobby listings.
type RoomSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	Phase      string `json:"phase"`
}

// Options configures a registry.
type Options struct {
	// MaxRooms caps concurrently live rooms. Zero means unlimited.
	MaxRooms int
	// ReapGrace is how long a finished room lingers before removal.
	ReapGrace time.Duration
	// Seed is the base seed; each room derives its own rng from it.
	Seed int64
}

// Registry is the process-wide map of active rooms.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]*game.Room
	created int64

	opts     Options
	catalog  *refdata.Catalog
	clock    quartz.Clock
	notifier game.Notifier
	logger   *log.Logger
	idgen    *roomid.Generator
}

// New creates an empty registry.
func New(catalog *refdata.Catalog, clock quartz.Clock, notifier game.Notifier, logger *log.Logger, opts Options) *Registry {
	if opts.ReapGrace <= 0 {
		opts.ReapGrace = 5 * time.Minute
	}
	return &Registry{
		rooms:    make(map[string]*game.Room),
		opts:     opts,
		catalog:  catalog,
		clock:    clock,
		notifier: notifier,
		logger:   logger.WithPrefix("registry"),
		idgen:    roomid.NewGenerator(nil),
	}
}

// Create allocates a new room in phase Open.
func (r *Registry) Create(cfg game.RoomConfig) (*game.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.opts.MaxRooms > 0 && len(r.rooms) >= r.opts.MaxRooms {
		return nil, ErrCapacity
	}

	id := r.idgen.Generate()
	for r.rooms[id] != nil {
		id = r.idgen.Generate()
	}

	r.created++
	rng := randutil.New(r.opts.Seed + r.created)
	room := game.NewRoom(id, cfg, r.catalog, rng, r.clock, r.notifier, r.logger)
	r.rooms[id] = room
	r.logger.Info("room created", "room", id, "name", cfg.Name, "total", len(r.rooms))
	return room, nil
}

// Get looks up a room by id.
func (r *Registry) Get(id string) (*game.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return room, nil
}

// Remove deletes a room. Idempotent: removing an unknown id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	room, ok := r.rooms[id]
	delete(r.rooms, id)
	r.mu.Unlock()

	if ok {
		room.Close()
		r.logger.Info("room removed", "room", id)
	}
}

// List returns summaries of all live rooms.
func (r *Registry) List() []RoomSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]RoomSummary, 0, len(r.rooms))
	for _, room := range r.rooms {
		summaries = append(summaries, RoomSummary{
			ID:         room.ID,
			Name:       room.Name(),
			Players:    room.PlayerCount(),
			MaxPlayers: room.Snapshot().MaxPlayers,
			Phase:      room.Phase().String(),
		})
	}
	return summaries
}

// Len returns the number of live rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// StartReaper removes finished rooms once their grace period elapses.
// It blocks until ctx is cancelled.
func (r *Registry) StartReaper(ctx context.Context) error {
	waiter := r.clock.TickerFunc(ctx, time.Minute, func() error {
		r.reap()
		return nil
	}, "registry", "reaper")
	err := waiter.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Registry) reap() {
	now := r.clock.Now()

	r.mu.RLock()
	var stale []string
	for id, room := range r.rooms {
		finished := room.FinishedSince()
		if !finished.IsZero() && now.Sub(finished) >= r.opts.ReapGrace {
			stale = append(stale, id)
		}
	}
	r.mu.RUnlock()

	for _, id := range stale {
		r.logger.Info("reaping finished room", "room", id)
		r.Remove(id)
	}
}
