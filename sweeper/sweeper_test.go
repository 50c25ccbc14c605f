package sweeper

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

func TestSweep(t *testing.T) {
	cfg := config.GameConfig{TickRate: 60, WinScore: 10, CountdownSeconds: 3, MaxSpeed: 3}
	reg := room.NewRegistry(cfg, &fakeScheduler{}, &fakeRecorder{})
	sessions := session.NewManager()

	// Live waiting player: session registered.
	liveSess := newTestSession(1)
	sessions.Add(liveSess)
	live := reg.Create(liveSess, false, 0)

	// Abandoned waiting room: the player's session is gone.
	dead := reg.Create(newTestSession(2), false, 0)

	// Custom invites are never reaped, however stale.
	pending := reg.Create(newTestSession(3), true, 4)

	s := New(reg, sessions, nil)
	s.sweep()

	if _, ok := reg.Get(live.ID); !ok {
		t.Error("room with a live player must survive the sweep")
	}
	if _, ok := reg.Get(dead.ID); ok {
		t.Error("abandoned quick-match room should be reaped")
	}
	if _, ok := reg.Get(pending.ID); !ok {
		t.Error("pending custom invite must be left alone")
	}
}
