package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/rpc"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ponghub/matchserver/broadcast"
	"github.com/ponghub/matchserver/config"
	"github.com/ponghub/matchserver/logger"
	"github.com/ponghub/matchserver/matchmaker"
	"github.com/ponghub/matchserver/monitor"
	"github.com/ponghub/matchserver/network"
	"github.com/ponghub/matchserver/notify"
	"github.com/ponghub/matchserver/persistence"
	"github.com/ponghub/matchserver/physics"
	"github.com/ponghub/matchserver/room"
	matchrpc "github.com/ponghub/matchserver/rpc"
	"github.com/ponghub/matchserver/services"
	"github.com/ponghub/matchserver/session"
	"github.com/ponghub/matchserver/spectate"
	"github.com/ponghub/matchserver/status"
	"github.com/ponghub/matchserver/sweeper"
	"github.com/ponghub/matchserver/timer"
)

const sweepInterval = 30 * time.Second

// GameServer is the websocket gateway: it upgrades connections, attaches
// the verified user id, and routes each command to the matchmaker, the
// addressed room, or the spectator manager. Identity verification itself
// lives upstream; this server trusts the X-User-Id the auth proxy sets.
type GameServer struct {
	addr           string
	upgrader       websocket.Upgrader
	registry       *room.Registry
	sessionManager *session.Manager
	matchmaker     *matchmaker.Matchmaker
	spectators     *spectate.Manager
	broadcaster    *broadcast.RoomBroadcaster
	rpcServer      *matchrpc.Server
	mon            *monitor.Monitor
	shutdownChan   chan struct{}
}

func NewGameServer(cfg *config.Config, repo persistence.MatchRepository, statuses *status.RedisStore, notifier notify.Notifier, mon *monitor.Monitor) *GameServer {
	timers := timer.NewManager()
	registry := room.NewRegistry(cfg.Game, timers, repo)
	sessions := session.NewManager()

	s := &GameServer{
		addr:           cfg.Server.HTTPAddress,
		registry:       registry,
		sessionManager: sessions,
		matchmaker:     matchmaker.New(registry, statuses, statuses, notifier),
		spectators:     spectate.NewManager(registry),
		mon:            mon,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // the auth proxy in front enforces origin
			},
		},
	}

	s.broadcaster = broadcast.NewRoomBroadcaster(registry, sessions)
	registry.SetBroadcaster(s.broadcaster)
	registry.OnDestroy = s.onRoomDestroyed
	registry.OnTick = mon.ObserveTick

	ladder := services.NewLadderService(repo)
	rpcServer, err := matchrpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer
	rpc.Register(matchrpc.NewRecordService(ladder))

	sweeper.New(registry, sessions, timers).Start(sweepInterval)

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Match server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
}

// onRoomDestroyed runs after the registry drops a room: presence back to
// online, metrics updated.
func (s *GameServer) onRoomDestroyed(r *room.Room) {
	s.matchmaker.OnMatchOver(r)
	s.mon.SetActiveRooms(s.registry.Count())
	if r.WinnerID() != 0 {
		s.mon.MatchCompleted(r.Forfeited())
	}
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.Header.Get("X-User-Id"), 10, 64)
	if err != nil || userID == 0 {
		http.Error(w, "missing user identity", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn, userID)
}

func (s *GameServer) handleConnection(conn *websocket.Conn, userID int64) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), userID, wsConn)
	s.sessionManager.Add(sess)
	s.mon.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, user %d, session %s", wsConn.RemoteAddr(), userID, sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed for user %d, session %s", userID, sess.GetID())
		s.matchmaker.HandleDisconnect(sess)
		s.sessionManager.Remove(sess.GetID())
		s.mon.DecOnlinePlayers()
		s.mon.SetSpectators(s.spectatorTotal())
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.LastActive = time.Now()
	case network.MsgTypeQuickMatch:
		s.handleQuickMatch(sess)
	case network.MsgTypeCustomMatch:
		s.handleCustomMatch(sess, packet)
	case network.MsgTypeSetCustomSpeed:
		s.handleSetCustomSpeed(sess, packet)
	case network.MsgTypeAcceptInvite:
		s.handleAcceptInvite(sess, packet)
	case network.MsgTypeDeclineInvite:
		s.handleDeclineInvite(sess, packet)
	case network.MsgTypeCancelMatch:
		s.handleCancelMatch(sess, packet)
	case network.MsgTypeMove:
		s.handleMove(sess, packet)
	case network.MsgTypeSpectateJoin:
		s.handleSpectateJoin(sess, packet)
	case network.MsgTypeSpectateLeave:
		s.handleSpectateLeave(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
	s.mon.SetActiveRooms(s.registry.Count())
}

func (s *GameServer) handleQuickMatch(sess *session.Session) {
	r, matched, err := s.matchmaker.RequestQuickMatch(sess)
	if err != nil {
		s.sendError(sess, 0, err)
		return
	}
	side := physics.SideLeft
	if matched {
		side = physics.SideRight
	}
	s.sendEvent(sess, network.MsgTypeRoomCreated, network.RoomCreatedEvent{RoomID: r.ID})
	s.sendEvent(sess, network.MsgTypePlayerAssigned, network.PlayerAssignedEvent{RoomID: r.ID, Side: side})
}

func (s *GameServer) handleCustomMatch(sess *session.Session, packet *network.Packet) {
	var req network.CustomMatchReq
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, 0, err)
		return
	}
	r, err := s.matchmaker.RequestCustomMatch(sess, req.TargetUserID)
	if err != nil {
		s.sendError(sess, 0, err)
		return
	}
	s.sendEvent(sess, network.MsgTypeRoomCreated, network.RoomCreatedEvent{RoomID: r.ID})
	s.sendEvent(sess, network.MsgTypePlayerAssigned, network.PlayerAssignedEvent{RoomID: r.ID, Side: physics.SideLeft})
}

func (s *GameServer) handleSetCustomSpeed(sess *session.Session, packet *network.Packet) {
	var req network.SetCustomSpeedReq
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, 0, err)
		return
	}
	if err := s.matchmaker.SetCustomSpeed(req.RoomID, sess.UserID, req.Speed); err != nil {
		s.sendError(sess, req.RoomID, err)
	}
}

func (s *GameServer) handleAcceptInvite(sess *session.Session, packet *network.Packet) {
	var req network.AcceptInviteReq
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, 0, err)
		return
	}
	r, err := s.matchmaker.AcceptInvite(sess, req.RoomID)
	if err != nil {
		s.sendError(sess, req.RoomID, err)
		return
	}
	s.sendEvent(sess, network.MsgTypePlayerAssigned, network.PlayerAssignedEvent{RoomID: r.ID, Side: physics.SideRight})
}

func (s *GameServer) handleDeclineInvite(sess *session.Session, packet *network.Packet) {
	var req network.DeclineInviteReq
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, 0, err)
		return
	}
	if err := s.matchmaker.DeclineInvite(req.RoomID); err != nil {
		s.sendError(sess, req.RoomID, err)
		return
	}
	s.sendEvent(sess, network.MsgTypeInviteDeclined, network.InviteDeclinedEvent{RoomID: req.RoomID})
}

func (s *GameServer) handleCancelMatch(sess *session.Session, packet *network.Packet) {
	var req network.CancelMatchReq
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, 0, err)
		return
	}
	if err := s.matchmaker.Cancel(req.RoomID, sess.UserID); err != nil {
		s.sendError(sess, req.RoomID, err)
	}
}

func (s *GameServer) handleMove(sess *session.Session, packet *network.Packet) {
	var req network.MoveReq
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, 0, err)
		return
	}
	dir := physics.Direction(req.Direction)
	if dir != physics.DirUp && dir != physics.DirDown {
		s.sendError(sess, req.RoomID, room.ErrInvalidState)
		return
	}
	r, ok := s.registry.Get(req.RoomID)
	if !ok {
		s.sendError(sess, req.RoomID, room.ErrRoomNotFound)
		return
	}
	// Spectators hold no player slot, so this rejects them too.
	if err := r.MovePlayer(sess.UserID, dir); err != nil {
		s.sendError(sess, req.RoomID, err)
	}
}

func (s *GameServer) handleSpectateJoin(sess *session.Session, packet *network.Packet) {
	var req network.SpectateJoinReq
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, 0, err)
		return
	}
	r, err := s.spectators.Join(sess, req.TargetUserID)
	if err != nil {
		s.sendError(sess, 0, err)
		return
	}
	// Seed the watcher with the current state right away.
	s.sendEvent(sess, network.MsgTypeStateUpdate, r.Snapshot())
	s.mon.SetSpectators(s.spectatorTotal())
}

func (s *GameServer) handleSpectateLeave(sess *session.Session, packet *network.Packet) {
	var req network.SpectateLeaveReq
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, 0, err)
		return
	}
	if err := s.spectators.Leave(sess, req.RoomID); err != nil {
		s.sendError(sess, req.RoomID, err)
		return
	}
	s.mon.SetSpectators(s.spectatorTotal())
}

func (s *GameServer) spectatorTotal() int {
	total := 0
	for _, r := range s.registry.Rooms() {
		total += r.SpectatorCount()
	}
	return total
}

func (s *GameServer) sendEvent(sess *session.Session, msgID uint16, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorf("failed to marshal event %d: %v", msgID, err)
		return
	}
	if err := sess.Send(msgID, data); err != nil {
		logger.Log.Warnf("failed to send event %d to session %s: %v", msgID, sess.GetID(), err)
	}
}

// sendError delivers a failure on the same channel as state updates, with
// a stable reason code the client can act on.
func (s *GameServer) sendError(sess *session.Session, roomID int64, err error) {
	s.sendEvent(sess, network.MsgTypeError, network.ErrorEvent{
		RoomID: roomID,
		Reason: reasonCode(err),
	})
}

func reasonCode(err error) string {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		return "ROOM_NOT_FOUND"
	case errors.Is(err, room.ErrRoomFull):
		return "ROOM_FULL"
	case errors.Is(err, room.ErrSelfMatch):
		return "SELF_MATCH"
	case errors.Is(err, room.ErrInvalidState):
		return "INVALID_STATE"
	case errors.Is(err, room.ErrNotInRoom):
		return "NOT_IN_ROOM"
	case errors.Is(err, matchmaker.ErrOpponentBusy):
		return "OPPONENT_BUSY"
	case errors.Is(err, matchmaker.ErrNotInviter):
		return "NOT_INVITER"
	case errors.Is(err, matchmaker.ErrNotInvited):
		return "NOT_INVITED"
	default:
		return "BAD_REQUEST"
	}
}
