package session

import (
	"net"
	"testing"
	"time"

	"github.com/wfunc/flashfive/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	sent []uint16
}

func (m *MockConnection) Send(msgID uint16, data []byte) error {
	m.sent = append(m.sent, msgID)
	return nil
}
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
	sess := NewSession(sessionID, &MockConnection{})

	// Test Add
	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	// Test Get
	retrievedSess, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrievedSess != sess {
		t.Fatal("Get should return the same session instance")
	}

	// Test Remove
	manager.Remove(sessionID)
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}

	_, exists = manager.Get(sessionID)
	if exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestManager_All(t *testing.T) {
	manager := NewManager()
	manager.Add(NewSession("session1", &MockConnection{}))
	manager.Add(NewSession("session2", &MockConnection{}))

	all := manager.All()
	if len(all) != 2 {
		t.Fatalf("Expected 2 sessions, got %d", len(all))
	}

	// the snapshot is unaffected by later removals
	manager.Remove("session1")
	if len(all) != 2 || manager.Count() != 1 {
		t.Errorf("Expected snapshot of 2 and count of 1, got %d and %d", len(all), manager.Count())
	}
}

func TestSession_SendJSON(t *testing.T) {
	conn := &MockConnection{}
	sess := NewSession("test_session", conn)
	before := sess.LastActive()
	time.Sleep(time.Millisecond)

	if err := sess.SendJSON(network.MsgTypeTick, network.TickMessage{Remaining: 3}); err != nil {
		t.Fatalf("SendJSON failed: %v", err)
	}
	if len(conn.sent) != 1 || conn.sent[0] != network.MsgTypeTick {
		t.Errorf("Expected one tick message, got %v", conn.sent)
	}
	if !sess.LastActive().Equal(before) {
		t.Error("Outbound messages should not count as client activity")
	}

	sess.Touch()
	if !sess.LastActive().After(before) {
		t.Error("Touch should refresh LastActive")
	}
	if sess.GetID() != "test_session" {
		t.Errorf("Expected ID test_session, got %s", sess.GetID())
	}
}
