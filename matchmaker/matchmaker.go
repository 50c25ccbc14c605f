// matchmaker/matchmaker.go
package matchmaker

import (
	"context"
	"errors"
	"time"

	"github.com/ponghub/matchserver/logger"
	"github.com/ponghub/matchserver/notify"
	"github.com/ponghub/matchserver/room"
	"github.com/ponghub/matchserver/session"
	"github.com/ponghub/matchserver/status"
)

var (
	ErrOpponentBusy = errors.New("invited player is already in a match")
	ErrNotInviter   = errors.New("only the inviter may configure the match")
	ErrNotInvited   = errors.New("this invite is addressed to another player")
)

// Matchmaker routes players into rooms: quick-match queueing, the custom
// invite handshake and the cancellation/forfeit paths. It owns no room
// state itself; it operates on the registry and the rooms it resolves.
type Matchmaker struct {
	registry *room.Registry
	statuses status.Provider
	presence status.Setter
	notifier notify.Notifier
}

func New(registry *room.Registry, statuses status.Provider, presence status.Setter, notifier notify.Notifier) *Matchmaker {
	return &Matchmaker{
		registry: registry,
		statuses: statuses,
		presence: presence,
		notifier: notifier,
	}
}

// RequestQuickMatch pairs the player with any waiting quick-match room, or
// opens a new one. First fit; returns the room and whether the match
// filled.
func (m *Matchmaker) RequestQuickMatch(sess *session.Session) (*room.Room, bool, error) {
	if waiting := m.registry.FindWaiting(); waiting != nil {
		if waiting.HasPlayer(sess.UserID) {
			// Already queued; re-requesting is a no-op.
			return waiting, false, nil
		}
		if err := waiting.Join(sess); err != nil {
			if errors.Is(err, room.ErrRoomFull) || errors.Is(err, room.ErrRoomNotFound) {
				// Lost the race for that room; open a fresh one.
				return m.registry.Create(sess, false, 0), false, nil
			}
			return nil, false, err
		}
		m.markInGame(waiting)
		return waiting, true, nil
	}
	return m.registry.Create(sess, false, 0), false, nil
}

// RequestCustomMatch opens an invite-only room and notifies the invitee.
// Rejected without creating a room when the invitee is already in a match.
func (m *Matchmaker) RequestCustomMatch(sess *session.Session, inviteeID int64) (*room.Room, error) {
	if inviteeID == sess.UserID {
		return nil, room.ErrSelfMatch
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := m.statuses.GetStatus(ctx, inviteeID)
	if err != nil {
		logger.Log.Warnf("matchmaker: status lookup for %d failed: %v", inviteeID, err)
	}
	if st == status.InGame {
		return nil, ErrOpponentBusy
	}

	r := m.registry.Create(sess, true, inviteeID)
	m.notifier.NotifyUser(inviteeID, notify.EventInviteCustomGame, map[string]int64{
		"room_id":    r.ID,
		"inviter_id": sess.UserID,
	})
	return r, nil
}

// AcceptInvite joins the invitee into a custom room. The room then waits
// for the inviter to set the speed and start the countdown.
func (m *Matchmaker) AcceptInvite(sess *session.Session, roomID int64) (*room.Room, error) {
	r, ok := m.registry.Get(roomID)
	if !ok {
		return nil, room.ErrRoomNotFound
	}
	if r.Custom && r.InviteeID != 0 && r.InviteeID != sess.UserID {
		return nil, ErrNotInvited
	}
	if err := r.Join(sess); err != nil {
		return nil, err
	}
	return r, nil
}

// DeclineInvite destroys a pending custom room. No record is ever written
// for it; the inviter is told through the notification channel.
func (m *Matchmaker) DeclineInvite(roomID int64) error {
	r, ok := m.registry.Get(roomID)
	if !ok {
		return room.ErrRoomNotFound
	}
	if !r.Custom || r.Status() != room.StatusForming {
		return room.ErrInvalidState
	}

	inviterID := r.InviterID()
	r.DestroySilent()
	m.notifier.NotifyUser(inviterID, notify.EventDeclinedInvite, map[string]int64{
		"room_id": roomID,
	})
	return nil
}

// SetCustomSpeed scales the custom room's ball speed and starts the
// countdown. Only the inviter may call it, and only before the first tick.
func (m *Matchmaker) SetCustomSpeed(roomID, requesterID int64, speed float64) error {
	r, ok := m.registry.Get(roomID)
	if !ok {
		return room.ErrRoomNotFound
	}
	if r.InviterID() != requesterID {
		return ErrNotInviter
	}
	if err := r.SetSpeed(speed); err != nil {
		return err
	}
	m.markInGame(r)
	return nil
}

// Cancel is forfeit for a started room and a silent destroy for a forming
// room whose sole member is the requester.
func (m *Matchmaker) Cancel(roomID, requesterID int64) error {
	r, ok := m.registry.Get(roomID)
	if !ok {
		return room.ErrRoomNotFound
	}
	if !r.HasPlayer(requesterID) {
		return room.ErrNotInRoom
	}
	if r.PlayerCount() == 1 && r.Status() == room.StatusForming {
		r.DestroySilent()
		return nil
	}
	return m.forfeit(r, requesterID)
}

// HandleDisconnect reconciles an abruptly closed session: a player's exit
// becomes a forfeit (or a silent destroy when alone), a spectator is just
// detached.
func (m *Matchmaker) HandleDisconnect(sess *session.Session) {
	if watching := sess.GetWatching(); watching != 0 {
		if r, ok := m.registry.Get(watching); ok {
			r.RemoveSpectator(sess.GetID())
		}
	}

	roomID := sess.GetRoom()
	if roomID == 0 {
		return
	}
	r, ok := m.registry.Get(roomID)
	if !ok {
		return
	}
	if r.PlayerCount() == 1 {
		r.DestroySilent()
		return
	}
	if err := m.forfeit(r, sess.UserID); err != nil && !errors.Is(err, room.ErrRoomNotFound) {
		logger.Log.Errorf("matchmaker: forfeit for disconnected user %d in room %d failed: %v", sess.UserID, roomID, err)
	}
}

func (m *Matchmaker) forfeit(r *room.Room, leavingID int64) error {
	var remainingID int64
	for _, id := range r.PlayerIDs() {
		if id != leavingID {
			remainingID = id
		}
	}
	if err := r.Forfeit(leavingID); err != nil {
		return err
	}
	if remainingID != 0 {
		m.notifier.NotifyUser(remainingID, notify.EventLeftGame, map[string]int64{
			"room_id": r.ID,
			"user_id": leavingID,
		})
	}
	return nil
}

// markInGame flips both players' presence for the duration of the match.
// OnMatchOver undoes it when the registry reports the room destroyed.
func (m *Matchmaker) markInGame(r *room.Room) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, id := range r.PlayerIDs() {
		if err := m.presence.SetStatus(ctx, id, status.InGame); err != nil {
			logger.Log.Warnf("matchmaker: failed to mark %d in_game: %v", id, err)
		}
	}
}

// OnMatchOver is hung off the registry's destroy hook: players go back to
// online once their room is gone.
func (m *Matchmaker) OnMatchOver(r *room.Room) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, id := range r.PlayerIDs() {
		if err := m.presence.SetStatus(ctx, id, status.Online); err != nil {
			logger.Log.Warnf("matchmaker: failed to mark %d online: %v", id, err)
		}
	}
}
