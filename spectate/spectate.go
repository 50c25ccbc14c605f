// spectate/spectate.go
package spectate

import (
	"github.com/ponghub/matchserver/room"
	"github.com/ponghub/matchserver/session"
)

// Manager attaches observers to a running match's broadcast group.
// Spectators are membership only: no player slot, no control.
type Manager struct {
	registry *room.Registry
}

func NewManager(registry *room.Registry) *Manager {
	return &Manager{registry: registry}
}

// Join attaches the session to the match the target player is currently
// in. Spectating targets a specific ongoing match, not a matchmaking feed:
// if the target is not playing anywhere, that is RoomNotFound.
func (m *Manager) Join(sess *session.Session, targetUserID int64) (*room.Room, error) {
	r := m.registry.FindByPlayer(targetUserID)
	if r == nil {
		return nil, room.ErrRoomNotFound
	}
	switch r.Status() {
	case room.StatusCountdown, room.StatusPlaying:
	default:
		return nil, room.ErrRoomNotFound
	}
	if err := r.AddSpectator(sess); err != nil {
		return nil, err
	}
	return r, nil
}

// Leave detaches the session from the room's broadcast group.
func (m *Manager) Leave(sess *session.Session, roomID int64) error {
	r, ok := m.registry.Get(roomID)
	if !ok {
		return room.ErrRoomNotFound
	}
	r.RemoveSpectator(sess.GetID())
	return nil
}
