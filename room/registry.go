// room/registry.go
package room

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ponghub/matchserver/config"
	"github.com/ponghub/matchserver/session"
)

// Registry is the process-wide room table. It is the only shared mutable
// structure between rooms; its lock covers insert/lookup/remove only and is
// never held during simulation work.
type Registry struct {
	rooms  map[int64]*Room
	mutex  sync.RWMutex
	nextID atomic.Int64

	cfg   config.GameConfig
	sched Scheduler
	repo  Recorder

	bcMutex sync.RWMutex
	bc      Broadcaster

	// OnDestroy runs after a room is removed from the table. The server
	// hangs presence updates and metrics off it.
	OnDestroy func(*Room)

	// OnTick, when set, receives the wall time each simulation tick took.
	// Set before any room starts playing.
	OnTick func(time.Duration)
}

func NewRegistry(cfg config.GameConfig, sched Scheduler, repo Recorder) *Registry {
	return &Registry{
		rooms: make(map[int64]*Room),
		cfg:   cfg,
		sched: sched,
		repo:  repo,
	}
}

// SetBroadcaster wires the broadcaster in after construction; the
// broadcaster itself needs the registry to resolve room ids.
func (reg *Registry) SetBroadcaster(b Broadcaster) {
	reg.bcMutex.Lock()
	defer reg.bcMutex.Unlock()
	reg.bc = b
}

func (reg *Registry) broadcaster() Broadcaster {
	reg.bcMutex.RLock()
	defer reg.bcMutex.RUnlock()
	return reg.bc
}

// Create allocates a room with the first player slot filled and registers
// it. Ids come from a monotonic allocator, so concurrent creates never
// collide.
func (reg *Registry) Create(first *session.Session, custom bool, inviteeID int64) *Room {
	id := reg.nextID.Add(1)
	r := newRoom(id, first, custom, inviteeID, reg)

	reg.mutex.Lock()
	reg.rooms[id] = r
	reg.mutex.Unlock()
	return r
}

func (reg *Registry) Get(id int64) (*Room, bool) {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()
	r, ok := reg.rooms[id]
	return r, ok
}

// FindWaiting returns any forming quick-match room, or nil. First fit, not
// FIFO: pairing is not skill-based so scan order does not matter.
func (reg *Registry) FindWaiting() *Room {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()
	for _, r := range reg.rooms {
		if !r.Custom && r.Status() == StatusForming && r.PlayerCount() == 1 {
			return r
		}
	}
	return nil
}

// FindByPlayer returns the room a given player occupies a slot in, or nil.
func (reg *Registry) FindByPlayer(playerID int64) *Room {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()
	for _, r := range reg.rooms {
		if r.HasPlayer(playerID) {
			return r
		}
	}
	return nil
}

// Rooms returns a snapshot of all live rooms.
func (reg *Registry) Rooms() []*Room {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()
	out := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		out = append(out, r)
	}
	return out
}

func (reg *Registry) Count() int {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()
	return len(reg.rooms)
}

// remove deletes the room from the table and evicts every member from its
// broadcast group. Idempotent: a room already removed is a no-op.
func (reg *Registry) remove(r *Room) {
	reg.mutex.Lock()
	_, present := reg.rooms[r.ID]
	delete(reg.rooms, r.ID)
	reg.mutex.Unlock()
	if !present {
		return
	}

	r.mu.Lock()
	for _, p := range r.players {
		if p.Sess.GetRoom() == r.ID {
			p.Sess.SetRoom(0)
		}
	}
	for _, s := range r.spectators {
		s.SetWatching(0)
	}
	r.spectators = make(map[string]*session.Session)
	r.mu.Unlock()

	if reg.OnDestroy != nil {
		reg.OnDestroy(r)
	}
}
