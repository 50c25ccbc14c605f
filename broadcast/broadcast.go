// broadcast/broadcast.go
package broadcast

import (
	"github.com/ponghub/matchserver/room"
	"github.com/ponghub/matchserver/session"
)

// RoomBroadcaster fans events out to every member of a room: both player
// sessions and all spectators. A failed send skips that recipient; eviction
// of dead connections belongs to the server's disconnect path.
type RoomBroadcaster struct {
	registry       *room.Registry
	sessionManager *session.Manager
}

func NewRoomBroadcaster(registry *room.Registry, sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		registry:       registry,
		sessionManager: sessionManager,
	}
}

func (b *RoomBroadcaster) BroadcastToRoom(roomID int64, msgID uint16, data []byte) error {
	r, exists := b.registry.Get(roomID)
	if !exists {
		return room.ErrRoomNotFound
	}

	for _, s := range r.Recipients() {
		if err := s.Send(msgID, data); err != nil {
			continue
		}
	}
	return nil
}

// BroadcastToUser sends to every live session of one user, e.g. for events
// addressed to someone not (yet) in a room.
func (b *RoomBroadcaster) BroadcastToUser(userID int64, msgID uint16, data []byte) error {
	for _, s := range b.sessionManager.GetByUserID(userID) {
		if err := s.Send(msgID, data); err != nil {
			continue
		}
	}
	return nil
}
