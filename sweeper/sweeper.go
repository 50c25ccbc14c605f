// sweeper/sweeper.go
package sweeper

import (
	"time"

	"github.com/ponghub/matchserver/logger"
	"github.com/ponghub/matchserver/room"
	"github.com/ponghub/matchserver/session"
	"github.com/ponghub/matchserver/timer"
)

// Sweeper periodically reaps quick-match rooms whose sole player's session
// is gone, so a crashed client can't leave a waiting room in the registry
// forever. Custom invites are deliberately left alone: an invitee may keep
// an invite outstanding indefinitely.
type Sweeper struct {
	registry *room.Registry
	sessions *session.Manager
	timers   *timer.Manager
	taskID   int64
}

func New(registry *room.Registry, sessions *session.Manager, timers *timer.Manager) *Sweeper {
	return &Sweeper{
		registry: registry,
		sessions: sessions,
		timers:   timers,
	}
}

// Start schedules the sweep at the given interval.
func (s *Sweeper) Start(interval time.Duration) {
	s.taskID = s.timers.AddTimer(interval, interval, s.sweep)
}

func (s *Sweeper) Stop() {
	if s.taskID != 0 {
		s.timers.RemoveTimer(s.taskID)
	}
}

func (s *Sweeper) sweep() {
	for _, r := range s.registry.Rooms() {
		if r.Custom || r.Status() != room.StatusForming || r.PlayerCount() != 1 {
			continue
		}
		ids := r.PlayerIDs()
		if len(ids) != 1 {
			continue
		}
		if len(s.sessions.GetByUserID(ids[0])) > 0 {
			continue
		}
		logger.Log.Infof("sweeper: reaping abandoned room %d (player %d has no live session)", r.ID, ids[0])
		r.DestroySilent()
	}
}
