package session

import (
	"net"
	"testing"
	"time"

	"github.com/ponghub/matchserver/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct{}

func (m *MockConnection) Send(msgID uint16, data []byte) error { return nil }
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil {
		t.Fatal("NewManager should initialize the sessions map")
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID, 100, &MockConnection{})

	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	retrievedSess, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrievedSess != sess {
		t.Fatal("Get should return the same session instance")
	}

	manager.Remove(sessionID)
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}

	_, exists = manager.Get(sessionID)
	if exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestManager_GetByUserID(t *testing.T) {
	manager := NewManager()

	manager.Add(NewSession("session1", 100, &MockConnection{}))
	manager.Add(NewSession("session2", 200, &MockConnection{}))
	manager.Add(NewSession("session3", 100, &MockConnection{}))

	if got := len(manager.GetByUserID(100)); got != 2 {
		t.Errorf("Expected 2 sessions for UserID 100, got %d", got)
	}
	if got := len(manager.GetByUserID(200)); got != 1 {
		t.Errorf("Expected 1 session for UserID 200, got %d", got)
	}
	if got := len(manager.GetByUserID(300)); got != 0 {
		t.Errorf("Expected 0 sessions for UserID 300, got %d", got)
	}
}

func TestSession_RoomTracking(t *testing.T) {
	sess := NewSession("test_session", 100, &MockConnection{})

	if sess.GetRoom() != 0 {
		t.Errorf("new session should be in no room, got %d", sess.GetRoom())
	}
	sess.SetRoom(7)
	if sess.GetRoom() != 7 {
		t.Errorf("expected room 7, got %d", sess.GetRoom())
	}

	sess.SetWatching(9)
	if sess.GetWatching() != 9 {
		t.Errorf("expected watching 9, got %d", sess.GetWatching())
	}
	sess.SetWatching(0)
	if sess.GetWatching() != 0 {
		t.Errorf("expected watching cleared, got %d", sess.GetWatching())
	}
}
