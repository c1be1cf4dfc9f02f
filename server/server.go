package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/wfunc/flashfive/broadcast"
	"github.com/wfunc/flashfive/catalog"
	"github.com/wfunc/flashfive/config"
	"github.com/wfunc/flashfive/game"
	"github.com/wfunc/flashfive/logger"
	"github.com/wfunc/flashfive/models"
	"github.com/wfunc/flashfive/monitor"
	"github.com/wfunc/flashfive/network"
	flashfive_rpc "github.com/wfunc/flashfive/rpc"
	"github.com/wfunc/flashfive/services"
	"github.com/wfunc/flashfive/session"
	"github.com/wfunc/flashfive/timer"
)

type GameServer struct {
	cfg            config.Config
	upgrader       websocket.Upgrader
	sessionManager *session.Manager
	store          *catalog.Store
	admin          *services.AdminService
	broadcaster    broadcast.Broadcaster
	timers         timer.Scheduler
	monitor        *monitor.Monitor
	images         game.ImageLoader
	rpcServer      *flashfive_rpc.Server
	httpServer     *http.Server
	shutdownChan   chan struct{}
	shutdownOnce   sync.Once
}

// NewGameServer wires the game endpoint, admin API and RPC service around store.
// An empty RPC address disables the RPC listener.
func NewGameServer(cfg config.Config, store *catalog.Store, timers timer.Scheduler, mon *monitor.Monitor) (*GameServer, error) {
	s := &GameServer{
		cfg:            cfg,
		sessionManager: session.NewManager(),
		store:          store,
		admin:          services.NewAdminService(store, mon),
		timers:         timers,
		monitor:        mon,
		images:         game.FileImageLoader{Dir: cfg.Game.ImageDir},
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化广播器
	s.broadcaster = broadcast.NewSessionBroadcaster(s.sessionManager)
	store.OnChange(s.onCatalogChanged)

	// 初始化RPC服务器
	if cfg.Server.RPCAddress != "" {
		rpcServer, err := flashfive_rpc.NewServer(cfg.Server.RPCAddress)
		if err != nil {
			return nil, err
		}
		// 注册RPC服务
		if err := rpcServer.Register(s.admin); err != nil {
			rpcServer.Stop()
			return nil, err
		}
		s.rpcServer = rpcServer
	}

	return s, nil
}

// Handler routes the websocket endpoint, the admin API and bundled images.
func (s *GameServer) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWebSocket)
	s.registerAdminRoutes(r.PathPrefix("/api").Subrouter())
	r.PathPrefix("/images/").Handler(http.StripPrefix("/images/", http.FileServer(http.Dir(s.cfg.Game.ImageDir))))
	return r
}

func (s *GameServer) Start() error {
	if s.rpcServer != nil {
		go s.rpcServer.Start()
	}

	s.httpServer = &http.Server{Addr: s.cfg.Server.HTTPAddress, Handler: s.Handler()}
	logger.Log.Infof("Game server listening on %s", s.cfg.Server.HTTPAddress)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *GameServer) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)
		if s.rpcServer != nil {
			s.rpcServer.Stop()
		}
		for _, sess := range s.sessionManager.All() {
			sess.Close()
		}
		if s.httpServer != nil {
			err = s.httpServer.Shutdown(ctx)
		}
	})
	return err
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) newGame(sess *session.Session) *game.Session {
	listener := &gameListener{
		Notifier: broadcast.NewNotifier(s.broadcaster, sess.ID),
		server:   s,
	}
	g := game.NewSession(sess.ID, s.store, s.timers, game.Options{
		MemorizeSeconds: s.cfg.Game.MemorizeSeconds,
		Lives:           s.cfg.Game.Lives,
		DemoLives:       s.cfg.Game.DemoLives,
		Images:          s.images,
		Listener:        listener,
	})
	listener.game = g
	return g
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	if s.cfg.Server.HeartbeatInterval > 0 {
		wsConn.SetHeartbeat(s.cfg.Server.HeartbeatInterval)
	}
	sess := session.NewSession(uuid.New().String(), wsConn)
	sess.Game = s.newGame(sess)
	s.sessionManager.Add(sess)
	s.monitor.IncActiveSessions()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecActiveSessions()
		sess.Close()
	}()

	// 首次连接推送欢迎界面
	sess.SendJSON(network.MsgTypePhase, sess.Game.Snapshot())

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
	s.monitor.IncMessagesReceived()
	start := time.Now()
	defer func() { s.monitor.ObserveMessageLatency(time.Since(start)) }()

	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Touch()
	case network.MsgTypeAction:
		s.handleGameAction(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

func (s *GameServer) handleGameAction(sess *session.Session, packet *network.Packet) {
	err := sess.Game.HandleAction(sess, packet.Data)
	switch {
	case err == nil:
	case errors.Is(err, game.ErrSelectionLimitReached):
		sess.SendJSON(network.MsgTypeSelectionLimit, network.SelectionLimitMessage{Limit: game.MaxSelections})
	default:
		logger.Log.Debugf("Session %s action rejected: %v", sess.GetID(), err)
		sess.SendJSON(network.MsgTypeError, network.ErrorMessage{Message: err.Error()})
	}
}

// scheduleGameOver ends g after the configured delay unless it moved on meanwhile.
func (s *GameServer) scheduleGameOver(g *game.Session) {
	token := g.Token()
	s.timers.AddTimer(s.cfg.Game.GameOverDelay, 0, func() {
		if err := g.AdvanceIfCurrent(token); err != nil {
			logger.Log.Errorf("Session %s failed to end game: %v", g.ID, err)
		}
	})
}

func (s *GameServer) onCatalogChanged(c models.Catalog) {
	msg := network.CatalogUpdatedMessage{GameCategories: len(c.GameImages)}
	if err := broadcast.BroadcastJSON(s.broadcaster, network.MsgTypeCatalogUpdated, msg); err != nil {
		logger.Log.Warnf("Catalog update broadcast incomplete: %v", err)
	}
}

// gameListener forwards game events to the connection and adds the
// server-side reactions: metrics and the delayed game over.
type gameListener struct {
	*broadcast.Notifier
	server *GameServer
	game   *game.Session
}

func (l *gameListener) OnResults(result models.RoundResult) {
	l.Notifier.OnResults(result)
	l.server.monitor.ObserveRound(result)
	if !result.Demo && result.Lives <= 0 {
		l.server.scheduleGameOver(l.game)
	}
}

func (l *gameListener) OnGameOver(summary models.GameOverSummary) {
	l.Notifier.OnGameOver(summary)
	l.server.monitor.IncGamesOver()
}
