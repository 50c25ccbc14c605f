// room/room.go
package room

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/ponghub/matchserver/config"
	"github.com/ponghub/matchserver/logger"
	"github.com/ponghub/matchserver/network"
	"github.com/ponghub/matchserver/physics"
	"github.com/ponghub/matchserver/session"
)

// Status is the room lifecycle state.
type Status int

const (
	// StatusForming: one player waiting for an opponent, or a custom room
	// waiting for its speed to be set.
	StatusForming Status = iota
	// StatusCountdown: both players present, match starts when the
	// countdown fires.
	StatusCountdown
	// StatusPlaying: the tick loop is running.
	StatusPlaying
	// StatusFinished: winner decided or forfeited; the room is being torn
	// down.
	StatusFinished
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room full")
	ErrSelfMatch    = errors.New("cannot play against yourself")
	ErrInvalidState = errors.New("operation not valid in current room state")
	ErrNotInRoom    = errors.New("player is not in this room")
)

// PlayerSlot is one joined player's state inside a room. Exactly one slot
// exists per joined player; it lives as long as the room does.
type PlayerSlot struct {
	Sess     *session.Session
	PlayerID int64
	Score    int
	Paddle   physics.Paddle
	Side     int
}

// Room owns one match: two player slots, the ball, the spectator set and
// the tick loop. All simulation state is guarded by mu; only the tick
// handler and calls addressed to this room's id ever mutate it.
type Room struct {
	ID        int64
	Custom    bool
	InviteeID int64 // custom rooms: who was invited

	mu         sync.RWMutex
	players    []*PlayerSlot
	spectators map[string]*session.Session
	ball       physics.Ball
	winnerID   int64
	status     Status
	speed      float64
	began      bool // countdown was started at least once

	forfeited bool

	cfg       config.GameConfig
	registry  *Registry
	sched     Scheduler
	repo      Recorder
	closeChan chan bool
	stopOnce  sync.Once
}

func newRoom(id int64, first *session.Session, custom bool, inviteeID int64, reg *Registry) *Room {
	r := &Room{
		ID:         id,
		Custom:     custom,
		InviteeID:  inviteeID,
		spectators: make(map[string]*session.Session),
		status:     StatusForming,
		speed:      1,
		cfg:        reg.cfg,
		registry:   reg,
		sched:      reg.sched,
		repo:       reg.repo,
		closeChan:  make(chan bool),
	}
	r.players = append(r.players, &PlayerSlot{
		Sess:     first,
		PlayerID: first.UserID,
		Paddle:   physics.NewPaddle(),
		Side:     physics.SideLeft,
	})
	first.SetRoom(id)
	return r
}

// InviterID returns the id of the player who opened the room.
func (r *Room) InviterID() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.players[0].PlayerID
}

func (r *Room) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

func (r *Room) WinnerID() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.winnerID
}

// Forfeited reports whether the match ended by a player leaving.
func (r *Room) Forfeited() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.forfeited
}

// HasPlayer reports whether the given user occupies a player slot.
func (r *Room) HasPlayer(playerID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.players {
		if p.PlayerID == playerID {
			return true
		}
	}
	return false
}

// PlayerIDs returns the ids of the joined players in slot order.
func (r *Room) PlayerIDs() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]int64, 0, len(r.players))
	for _, p := range r.players {
		ids = append(ids, p.PlayerID)
	}
	return ids
}

func (r *Room) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// Join fills the second player slot. Quick-match rooms start their
// countdown immediately; custom rooms wait for the inviter to set the
// speed.
func (r *Room) Join(second *session.Session) error {
	r.mu.Lock()
	if r.status == StatusFinished {
		r.mu.Unlock()
		return ErrRoomNotFound
	}
	if len(r.players) >= 2 {
		r.mu.Unlock()
		return ErrRoomFull
	}
	if r.players[0].PlayerID == second.UserID {
		r.mu.Unlock()
		return ErrSelfMatch
	}

	r.players = append(r.players, &PlayerSlot{
		Sess:     second,
		PlayerID: second.UserID,
		Paddle:   physics.NewPaddle(),
		Side:     physics.SideRight,
	})
	second.SetRoom(r.ID)

	start := !r.Custom
	if start {
		r.beginLocked()
	}
	r.mu.Unlock()

	if start {
		r.broadcastCountdown()
	}
	return nil
}

// SetSpeed configures a custom room's speed multiplier and kicks off the
// countdown. Valid exactly once, before the first tick, with both players
// present.
func (r *Room) SetSpeed(speed float64) error {
	r.mu.Lock()
	if !r.Custom || r.began || len(r.players) < 2 || r.status != StatusForming {
		r.mu.Unlock()
		return ErrInvalidState
	}
	if speed < 1 {
		speed = 1
	}
	if speed > r.cfg.MaxSpeed {
		speed = r.cfg.MaxSpeed
	}
	r.speed = speed
	r.beginLocked()
	r.mu.Unlock()

	r.broadcastCountdown()
	return nil
}

// beginLocked arms the countdown. Caller holds mu.
func (r *Room) beginLocked() {
	r.began = true
	r.status = StatusCountdown
	r.ball = physics.NewBall(physics.SideLeft, r.speed)
	r.sched.AddTimer(r.cfg.Countdown(), 0, r.startPlaying)
}

func (r *Room) broadcastCountdown() {
	r.emit(network.MsgTypeCountdownStarted, network.CountdownStartedEvent{
		RoomID:  r.ID,
		Seconds: r.cfg.CountdownSeconds,
	})
}

// startPlaying fires when the countdown elapses: transition to Playing and
// arm the tick loop.
func (r *Room) startPlaying() {
	r.mu.Lock()
	if r.status != StatusCountdown {
		// Forfeited or cancelled during the countdown.
		r.mu.Unlock()
		return
	}
	r.status = StatusPlaying
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.emit(network.MsgTypeMatchStarted, snap)
	go r.loop()
}

// loop drives the fixed-rate simulation. time.Ticker drops intervening
// ticks when a tick overruns its period, so overload skips rather than
// queues.
func (r *Room) loop() {
	ticker := time.NewTicker(r.cfg.TickPeriod())
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			start := time.Now()
			ok := r.tick()
			if observe := r.registry.OnTick; observe != nil {
				observe(time.Since(start))
			}
			if !ok {
				return
			}
		case <-r.closeChan:
			return
		}
	}
}

// tick runs one simulation step and broadcasts the resulting snapshot.
// Returns false when the loop must stop.
func (r *Room) tick() bool {
	r.mu.Lock()
	if r.status != StatusPlaying {
		r.mu.Unlock()
		return false
	}
	if len(r.players) < 2 {
		// Never expected: playing rooms always have two slots. Kill this
		// room's loop, leave the process alone.
		id := r.ID
		n := len(r.players)
		r.status = StatusFinished
		r.mu.Unlock()
		logger.Log.Errorf("invariant violation: room %d ticking with %d players, aborting loop", id, n)
		r.stopLoop()
		return false
	}

	r.ball = physics.AdvanceBall(r.ball)
	r.ball = physics.ReflectOffWall(r.ball)
	for _, p := range r.players {
		r.ball, _ = physics.ReflectOffPaddle(r.ball, p.Paddle, p.Side, r.speed)
	}

	if scored, side := physics.CheckScore(r.ball); scored {
		scorer, conceder := r.slotsBySideLocked(side)
		scorer.Score++
		if scorer.Score >= r.cfg.WinScore {
			r.winnerID = scorer.PlayerID
			r.status = StatusFinished
			s1, s2 := r.players[0].Score, r.players[1].Score
			p1, p2 := r.players[0].PlayerID, r.players[1].PlayerID
			winnerSide := scorer.Side
			r.mu.Unlock()

			r.emit(network.MsgTypeMatchEnded, network.MatchEndedEvent{
				RoomID:     r.ID,
				WinnerSide: winnerSide,
				Score1:     s1,
				Score2:     s2,
			})
			r.persist(p1, p2, s1, s2)
			r.stopLoop()
			r.registry.remove(r)
			return false
		}
		r.ball = physics.ResetBall(r.ball, conceder.Side, r.speed)
	}

	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.emit(network.MsgTypeStateUpdate, snap)
	return true
}

func (r *Room) slotsBySideLocked(scoringSide int) (scorer, conceder *PlayerSlot) {
	for _, p := range r.players {
		if p.Side == scoringSide {
			scorer = p
		} else {
			conceder = p
		}
	}
	return
}

// MovePlayer applies one paddle step for the given player. Input is
// event-driven: the move takes effect immediately but is only observable
// on the next tick's broadcast.
func (r *Room) MovePlayer(playerID int64, dir physics.Direction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == StatusFinished {
		return ErrRoomNotFound
	}
	for _, p := range r.players {
		if p.PlayerID == playerID {
			p.Paddle = physics.MovePaddle(p.Paddle, dir)
			return nil
		}
	}
	return ErrNotInRoom
}

// Forfeit ends the match because a player left. With two players present
// the remaining player wins with the maximum score regardless of the
// scoreboard; the record is skipped only for custom rooms that never
// started. The room is destroyed immediately.
func (r *Room) Forfeit(leavingPlayerID int64) error {
	r.mu.Lock()
	if r.status == StatusFinished {
		r.mu.Unlock()
		return ErrRoomNotFound
	}

	var leaver, remaining *PlayerSlot
	for _, p := range r.players {
		if p.PlayerID == leavingPlayerID {
			leaver = p
		} else {
			remaining = p
		}
	}
	if leaver == nil {
		r.mu.Unlock()
		return ErrNotInRoom
	}

	r.status = StatusFinished
	r.forfeited = true
	if remaining == nil {
		// Sole member walked away from a forming room: silent destroy.
		r.mu.Unlock()
		r.stopLoop()
		r.registry.remove(r)
		return nil
	}

	remaining.Score = r.cfg.WinScore
	leaver.Score = 0
	r.winnerID = remaining.PlayerID
	persist := !r.Custom || r.began
	s1, s2 := r.players[0].Score, r.players[1].Score
	p1, p2 := r.players[0].PlayerID, r.players[1].PlayerID
	winnerSide := remaining.Side
	r.mu.Unlock()

	r.emit(network.MsgTypeOpponentLeft, network.OpponentLeftEvent{RoomID: r.ID})
	r.emit(network.MsgTypeMatchEnded, network.MatchEndedEvent{
		RoomID:     r.ID,
		WinnerSide: winnerSide,
		Score1:     s1,
		Score2:     s2,
	})
	if persist {
		r.persist(p1, p2, s1, s2)
	}
	r.stopLoop()
	r.registry.remove(r)
	return nil
}

// DestroySilent tears the room down with no record and no events. Used for
// declined invites and cancelled forming rooms.
func (r *Room) DestroySilent() {
	r.mu.Lock()
	if r.status == StatusFinished {
		r.mu.Unlock()
		return
	}
	r.status = StatusFinished
	r.mu.Unlock()

	r.stopLoop()
	r.registry.remove(r)
}

// persist writes the match record without blocking teardown. A failed
// write is logged and dropped; a stale running room is worse than a lost
// record.
func (r *Room) persist(p1, p2 int64, s1, s2 int) {
	go func() {
		if err := r.repo.Record(p1, p2, s1, s2); err != nil {
			logger.Log.Errorf("room %d: failed to persist match record: %v", r.ID, err)
		}
	}()
}

func (r *Room) stopLoop() {
	r.stopOnce.Do(func() {
		close(r.closeChan)
	})
}

// AddSpectator attaches a receive-only observer. Spectators never get a
// player slot and cannot move paddles.
func (r *Room) AddSpectator(sess *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == StatusFinished {
		return ErrRoomNotFound
	}
	r.spectators[sess.GetID()] = sess
	sess.SetWatching(r.ID)
	return nil
}

func (r *Room) RemoveSpectator(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.spectators[sessionID]; ok {
		sess.SetWatching(0)
		delete(r.spectators, sessionID)
	}
}

func (r *Room) SpectatorCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.spectators)
}

// Recipients returns a copy of every session that receives this room's
// events: both players and all spectators.
func (r *Room) Recipients() []*session.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*session.Session, 0, len(r.players)+len(r.spectators))
	for _, p := range r.players {
		out = append(out, p.Sess)
	}
	for _, s := range r.spectators {
		out = append(out, s)
	}
	return out
}

// Snapshot returns the current observable state of the room.
func (r *Room) Snapshot() network.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() network.Snapshot {
	snap := network.Snapshot{
		RoomID: r.ID,
		Ball:   r.ball,
	}
	for _, p := range r.players {
		switch p.Side {
		case physics.SideLeft:
			snap.Player1ID = p.PlayerID
			snap.Score1 = p.Score
			snap.Paddle1 = p.Paddle
		case physics.SideRight:
			snap.Player2ID = p.PlayerID
			snap.Score2 = p.Score
			snap.Paddle2 = p.Paddle
		}
	}
	return snap
}

// emit marshals and broadcasts one event to everyone in the room.
func (r *Room) emit(msgID uint16, payload interface{}) {
	b := r.registry.broadcaster()
	if b == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorf("room %d: failed to marshal event %d: %v", r.ID, msgID, err)
		return
	}
	if err := b.BroadcastToRoom(r.ID, msgID, data); err != nil {
		logger.Log.Warnf("room %d: broadcast of event %d failed: %v", r.ID, msgID, err)
	}
}
