package spectate

import (
	"fmt"
	"net"
	"os"
	"testing"
	"time"

	"github.com/ponghub/matchserver/config"
	"github.com/ponghub/matchserver/logger"
	"github.com/ponghub/matchserver/network"
	"github.com/ponghub/matchserver/room"
	"github.com/ponghub/matchserver/session"
)

func TestMain(m *testing.M) {
	logger.InitNop()
	os.Exit(m.Run())
}

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct{}

func (m *MockConnection) Send(msgID uint16, data []byte) error { return nil }
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

type fakeScheduler struct{}

func (f *fakeScheduler) AddTimer(delay, interval time.Duration, callback func()) int64 { return 1 }
func (f *fakeScheduler) RemoveTimer(timerID int64)                                    {}

type fakeRecorder struct{}

func (f *fakeRecorder) Record(p1, p2 int64, s1, s2 int) error { return nil }

func newTestSession(userID int64) *session.Session {
	return session.NewSession(fmt.Sprintf("sess-%d", userID), userID, &MockConnection{})
}

func newTestRegistry() *room.Registry {
	cfg := config.GameConfig{TickRate: 60, WinScore: 10, CountdownSeconds: 3, MaxSpeed: 3}
	return room.NewRegistry(cfg, &fakeScheduler{}, &fakeRecorder{})
}

func TestJoin_TargetNotPlaying(t *testing.T) {
	mgr := NewManager(newTestRegistry())

	_, err := mgr.Join(newTestSession(42), 7)
	if err != room.ErrRoomNotFound {
		t.Errorf("expected ErrRoomNotFound for an idle target, got %v", err)
	}
}

func TestJoin_TargetOnlyWaiting(t *testing.T) {
	reg := newTestRegistry()
	mgr := NewManager(reg)

	// Target is queued but the match has not started.
	reg.Create(newTestSession(7), false, 0)

	_, err := mgr.Join(newTestSession(42), 7)
	if err != room.ErrRoomNotFound {
		t.Errorf("expected ErrRoomNotFound for a forming room, got %v", err)
	}
}

func TestJoinAndLeave(t *testing.T) {
	reg := newTestRegistry()
	mgr := NewManager(reg)

	r := reg.Create(newTestSession(7), false, 0)
	if err := r.Join(newTestSession(8)); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	watcher := newTestSession(42)
	got, err := mgr.Join(watcher, 7)
	if err != nil {
		t.Fatalf("spectate join failed: %v", err)
	}
	if got != r {
		t.Fatal("watcher should be attached to the target's room")
	}
	if r.SpectatorCount() != 1 {
		t.Errorf("expected 1 spectator, got %d", r.SpectatorCount())
	}
	if watcher.GetWatching() != r.ID {
		t.Error("session should track the watched room")
	}

	if err := mgr.Leave(watcher, r.ID); err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	if r.SpectatorCount() != 0 {
		t.Errorf("expected 0 spectators, got %d", r.SpectatorCount())
	}

	if err := mgr.Leave(watcher, 9999); err != room.ErrRoomNotFound {
		t.Errorf("expected ErrRoomNotFound for unknown room, got %v", err)
	}
}
