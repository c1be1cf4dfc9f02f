package server

import (
	"encoding/json"
	"net"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/flashfive/catalog"
	"github.com/wfunc/flashfive/config"
	"github.com/wfunc/flashfive/game"
	"github.com/wfunc/flashfive/models"
	"github.com/wfunc/flashfive/monitor"
	"github.com/wfunc/flashfive/network"
	"github.com/wfunc/flashfive/persistence"
	"github.com/wfunc/flashfive/session"
)

type manualTask struct {
	interval time.Duration
	callback func()
}

// manualScheduler fires timers only when the test asks. Safe for use from the
// websocket handler goroutine.
type manualScheduler struct {
	mutex  sync.Mutex
	nextId int64
	tasks  map[int64]manualTask
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{tasks: make(map[int64]manualTask)}
}

func (m *manualScheduler) AddTimer(delay, interval time.Duration, callback func()) int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.nextId++
	m.tasks[m.nextId] = manualTask{interval: interval, callback: callback}
	return m.nextId
}

func (m *manualScheduler) RemoveTimer(id int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.tasks, id)
}

func (m *manualScheduler) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.tasks)
}

// Fire runs every pending timer once per iteration; one-shot timers are dropped.
func (m *manualScheduler) Fire(times int) {
	for i := 0; i < times; i++ {
		m.mutex.Lock()
		var cbs []func()
		for id, task := range m.tasks {
			cbs = append(cbs, task.callback)
			if task.interval <= 0 {
				delete(m.tasks, id)
			}
		}
		m.mutex.Unlock()
		for _, cb := range cbs {
			cb()
		}
	}
}

type recordedPacket struct {
	msgID uint16
	data  []byte
}

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	mutex sync.Mutex
	sent  []recordedPacket
}

func (m *MockConnection) Send(msgID uint16, data []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sent = append(m.sent, recordedPacket{msgID: msgID, data: data})
	return nil
}
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func (m *MockConnection) Received(msgID uint16) []recordedPacket {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	var out []recordedPacket
	for _, p := range m.sent {
		if p.msgID == msgID {
			out = append(out, p)
		}
	}
	return out
}

type testServer struct {
	*GameServer
	sched *manualScheduler
	store *catalog.Store
	http  *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Config{
		Game: config.GameConfig{
			MemorizeSeconds: 10,
			GameOverDelay:   3 * time.Second,
			Lives:           3,
			DemoLives:       1,
			ImageDir:        t.TempDir(),
		},
	}
	store := catalog.NewStore(persistence.NewMemoryStorage(), "")
	store.Load()
	sched := newManualScheduler()

	s, err := NewGameServer(cfg, store, sched, monitor.NewMonitor("flashfive"))
	require.NoError(t, err)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &testServer{GameServer: s, sched: sched, store: store, http: srv}
}

// attach registers a session on a mock connection, bypassing the websocket.
func (ts *testServer) attach(id string) (*session.Session, *MockConnection) {
	conn := &MockConnection{}
	sess := session.NewSession(id, conn)
	sess.Game = ts.newGame(sess)
	ts.sessionManager.Add(sess)
	return sess, conn
}

func playPoorRound(t *testing.T, ts *testServer, g *game.Session) {
	t.Helper()
	ts.sched.Fire(10)
	require.Equal(t, game.PhaseTesting, g.Phase())
	cat, _ := g.CurrentCategory()
	for _, label := range append(cat.CorrectObjects[:2:2], cat.IncorrectObjects[:3]...) {
		_, err := g.ToggleSelect(label)
		require.NoError(t, err)
	}
	require.NoError(t, g.SubmitAnswers())
}

func TestGameOverIsDelayed(t *testing.T) {
	ts := newTestServer(t)
	sess, conn := ts.attach("s1")
	g := sess.Game

	require.NoError(t, g.StartSession(false))
	for round := 1; round <= 2; round++ {
		playPoorRound(t, ts, g)
		require.Equal(t, 0, ts.sched.Len(), "no delayed advance while lives remain")
		require.NoError(t, g.Advance())
	}
	playPoorRound(t, ts, g)

	assert.Equal(t, game.PhaseResults, g.Phase(), "results stay on screen until the delay passes")
	require.Equal(t, 1, ts.sched.Len())

	ts.sched.Fire(1)
	assert.Equal(t, game.PhaseGameOver, g.Phase())
	require.Len(t, conn.Received(network.MsgTypeGameOver), 1)

	var summary models.GameOverSummary
	require.NoError(t, json.Unmarshal(conn.Received(network.MsgTypeGameOver)[0].data, &summary))
	assert.Equal(t, 2, summary.RoundsCompleted)
	assert.Equal(t, 12, summary.FinalScore)
}

func TestDelayedGameOver_DroppedAfterRestart(t *testing.T) {
	ts := newTestServer(t)
	sess, _ := ts.attach("s1")
	g := sess.Game

	require.NoError(t, g.StartSession(false))
	for round := 1; round <= 3; round++ {
		playPoorRound(t, ts, g)
		if round < 3 {
			require.NoError(t, g.Advance())
		}
	}
	require.NoError(t, g.StartSession(true))

	ts.sched.Fire(1)
	assert.NotEqual(t, game.PhaseGameOver, g.Phase())
	assert.True(t, g.Snapshot().Demo)
}

func TestCatalogChangeIsBroadcast(t *testing.T) {
	ts := newTestServer(t)
	_, connA := ts.attach("a")
	_, connB := ts.attach("b")

	_, err := ts.admin.UpdateLabel(1, models.KindCorrect, 0, "Brand new")
	require.NoError(t, err)

	for _, conn := range []*MockConnection{connA, connB} {
		updates := conn.Received(network.MsgTypeCatalogUpdated)
		require.Len(t, updates, 1)
		assert.JSONEq(t, `{"game_categories":4}`, string(updates[0].data))
	}
}

// --- websocket end to end ---

type wsClient struct {
	t    *testing.T
	conn *network.WSConnection
}

func dial(t *testing.T, ts *testServer) *wsClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	c := &wsClient{t: t, conn: network.NewWSConnection(conn)}
	t.Cleanup(func() { c.conn.Close() })
	return c
}

func (c *wsClient) act(action game.Action) {
	data, err := json.Marshal(action)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.Send(network.MsgTypeAction, data))
}

// await reads packets until one with msgID arrives.
func (c *wsClient) await(msgID uint16) []byte {
	c.t.Helper()
	c.conn.SetHeartbeat(time.Second)
	for {
		packet, err := c.conn.ReadPacket()
		require.NoError(c.t, err, "waiting for message %d", msgID)
		if packet.MsgID == msgID {
			return packet.Data
		}
	}
}

func (c *wsClient) awaitPhase(phase game.Phase) game.Snapshot {
	c.t.Helper()
	for {
		var snap game.Snapshot
		require.NoError(c.t, json.Unmarshal(c.await(network.MsgTypePhase), &snap))
		if snap.Phase == phase {
			return snap
		}
	}
}

func TestWebSocket_PlayDemoRound(t *testing.T) {
	ts := newTestServer(t)
	c := dial(t, ts)

	c.awaitPhase(game.PhaseWelcome)

	c.act(game.Action{Type: game.ActionSubmit})
	var errMsg network.ErrorMessage
	require.NoError(t, json.Unmarshal(c.await(network.MsgTypeError), &errMsg))
	assert.Contains(t, errMsg.Message, game.ErrInvalidState.Error())

	c.act(game.Action{Type: game.ActionStartDemo})
	snap := c.awaitPhase(game.PhaseMemorization)
	assert.True(t, snap.Demo)

	// the image directory is empty, so the placeholder is used
	var img network.ImageMessage
	require.NoError(t, json.Unmarshal(c.await(network.MsgTypeImage), &img))
	assert.True(t, img.Fallback)

	require.Eventually(t, func() bool { return ts.sched.Len() == 1 }, time.Second, 5*time.Millisecond)
	ts.sched.Fire(10)
	snap = c.awaitPhase(game.PhaseTesting)
	require.Len(t, snap.Choices, 10)

	demo := ts.store.DemoCategory()
	for _, label := range demo.CorrectObjects {
		c.act(game.Action{Type: game.ActionToggleSelect, Label: label})
		c.await(network.MsgTypeSelection)
	}
	c.act(game.Action{Type: game.ActionToggleSelect, Label: demo.IncorrectObjects[0]})
	var limit network.SelectionLimitMessage
	require.NoError(t, json.Unmarshal(c.await(network.MsgTypeSelectionLimit), &limit))
	assert.Equal(t, 5, limit.Limit)

	c.act(game.Action{Type: game.ActionSubmit})
	var result models.RoundResult
	require.NoError(t, json.Unmarshal(c.await(network.MsgTypeResults), &result))
	assert.True(t, result.Demo)
	assert.Equal(t, "Demo Complete!", result.Title)
	assert.Equal(t, 10, result.RoundScore)
	assert.Equal(t, 0, result.Score)
}
