// rpc/rpc.go
package rpc

import (
	"net"
	"net/rpc"

	"github.com/ponghub/matchserver/logger"
	"github.com/ponghub/matchserver/persistence"
	"github.com/ponghub/matchserver/services"
)

// Server hosts the read-only endpoints the platform backend consumes:
// match history and the ladder. Nothing here touches live rooms.
type Server struct {
	listener net.Listener
	address  string
}

func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// RecordService exposes the read API over net/rpc. Method signatures follow
// the net/rpc convention: exported args, pointer reply, error return.
type RecordService struct {
	ladder *services.LadderService
}

func NewRecordService(ladder *services.LadderService) *RecordService {
	return &RecordService{ladder: ladder}
}

type GetRecordArgs struct {
	PlayerID int64
}

type GetRecordReply struct {
	Records []persistence.MatchRecord
}

func (rs *RecordService) GetRecord(args *GetRecordArgs, reply *GetRecordReply) error {
	records, err := rs.ladder.GetRecord(args.PlayerID)
	if err != nil {
		return err
	}
	reply.Records = records
	return nil
}

type GetLadderArgs struct{}

type GetLadderReply struct {
	Entries []services.LadderEntry
}

func (rs *RecordService) GetLadder(args *GetLadderArgs, reply *GetLadderReply) error {
	entries, err := rs.ladder.ComputeLadder()
	if err != nil {
		return err
	}
	reply.Entries = entries
	return nil
}

type GetLadderEntryArgs struct {
	PlayerID int64
}

type GetLadderEntryReply struct {
	Entry services.LadderEntry
}

func (rs *RecordService) GetLadderEntry(args *GetLadderEntryArgs, reply *GetLadderEntryReply) error {
	entry, err := rs.ladder.GetPlayerRank(args.PlayerID)
	if err != nil {
		return err
	}
	reply.Entry = entry
	return nil
}
