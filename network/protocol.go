package network

import (
	"github.com/ponghub/matchserver/physics"
)

// Client -> server commands.
const (
	MsgTypeHeartbeat      = 1
	MsgTypeQuickMatch     = 101
	MsgTypeCustomMatch    = 102
	MsgTypeSetCustomSpeed = 103
	MsgTypeAcceptInvite   = 104
	MsgTypeDeclineInvite  = 105
	MsgTypeCancelMatch    = 106
	MsgTypeMove           = 201
	MsgTypeSpectateJoin   = 301
	MsgTypeSpectateLeave  = 302
)

// Server -> client events.
const (
	MsgTypePlayerAssigned   = 401
	MsgTypeRoomCreated      = 402
	MsgTypeCountdownStarted = 403
	MsgTypeMatchStarted     = 404
	MsgTypeStateUpdate      = 405
	MsgTypeMatchEnded       = 406
	MsgTypeInviteReceived   = 407
	MsgTypeInviteDeclined   = 408
	MsgTypeOpponentLeft     = 409
	MsgTypeError            = 501
)

// Each command and event has a fixed payload shape. Payloads travel as JSON
// inside the binary frame.

type CustomMatchReq struct {
	TargetUserID int64 `json:"target_user_id"`
}

type SetCustomSpeedReq struct {
	RoomID int64   `json:"room_id"`
	Speed  float64 `json:"speed"`
}

type AcceptInviteReq struct {
	RoomID int64 `json:"room_id"`
}

type DeclineInviteReq struct {
	RoomID int64 `json:"room_id"`
}

type CancelMatchReq struct {
	RoomID int64 `json:"room_id"`
}

type MoveReq struct {
	RoomID    int64  `json:"room_id"`
	Direction string `json:"direction"` // "up" or "down"
}

type SpectateJoinReq struct {
	TargetUserID int64 `json:"target_user_id"`
}

type SpectateLeaveReq struct {
	RoomID int64 `json:"room_id"`
}

// Snapshot is the full observable state of a room, broadcast once per tick
// to players and spectators alike.
type Snapshot struct {
	RoomID    int64          `json:"room_id"`
	Player1ID int64          `json:"player1_id"`
	Player2ID int64          `json:"player2_id"`
	Score1    int            `json:"score1"`
	Score2    int            `json:"score2"`
	Paddle1   physics.Paddle `json:"paddle1"`
	Paddle2   physics.Paddle `json:"paddle2"`
	Ball      physics.Ball   `json:"ball"`
}

type PlayerAssignedEvent struct {
	RoomID int64 `json:"room_id"`
	Side   int   `json:"side"`
}

type RoomCreatedEvent struct {
	RoomID int64 `json:"room_id"`
}

type CountdownStartedEvent struct {
	RoomID  int64 `json:"room_id"`
	Seconds int   `json:"seconds"`
}

type MatchEndedEvent struct {
	RoomID     int64 `json:"room_id"`
	WinnerSide int   `json:"winner_side"`
	Score1     int   `json:"score1"`
	Score2     int   `json:"score2"`
}

type InviteReceivedEvent struct {
	RoomID    int64 `json:"room_id"`
	InviterID int64 `json:"inviter_id"`
}

type InviteDeclinedEvent struct {
	RoomID int64 `json:"room_id"`
}

type OpponentLeftEvent struct {
	RoomID int64 `json:"room_id"`
}

// ErrorEvent is delivered on the same channel as state updates so the
// client can react without guessing which command failed.
type ErrorEvent struct {
	RoomID int64  `json:"room_id,omitempty"`
	Reason string `json:"reason"`
}
