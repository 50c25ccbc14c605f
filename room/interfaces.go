package room

import (
	"time"
)

// Broadcaster fans an event out to every member of a room (both player
// sessions and spectators). Defined here to break the import cycle between
// room and broadcast.
type Broadcaster interface {
	BroadcastToRoom(roomID int64, msgID uint16, data []byte) error
}

// Recorder persists one completed or forfeited match. It is the only
// blocking collaborator a room ever touches, and it is always called
// fire-and-forget relative to room teardown.
type Recorder interface {
	Record(player1ID, player2ID int64, score1, score2 int) error
}

// Scheduler runs a callback after a delay. The timer manager implements it;
// rooms use it for the pre-match countdown.
type Scheduler interface {
	AddTimer(delay, interval time.Duration, callback func()) int64
	RemoveTimer(timerID int64)
}
