package server

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

type WSTransport struct {
	Addr         string
	server       *http.Server
	listener     net.Listener
	onFrame      FrameHandler
	onConnect    func(*Session) error
	onDisconnect func(*Session)

	name        string
	description string
	sessions    map[string]*Session
	cmu         sync.RWMutex

	maxClients int
	connected  bool
}

func NewWSTransport(addr string) *WSTransport {
	return &WSTransport{
		Addr:       addr,
		maxClients: 16,
		sessions:   make(map[string]*Session),
	}
}

func (t *WSTransport) Start() error {
	slog.Info("Starting WebSocket server", "addr", t.Addr)

	if t.onFrame == nil {
		return fmt.Errorf("The OnFrame handler is not defined. This transport is likely being started outside of the server.")
	}

	listener, err := net.Listen("tcp", t.Addr)
	if err != nil {
		return err
	}
	t.cmu.Lock()
	t.listener = listener
	t.connected = true
	t.cmu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc("/", t.handleWebSocket)

	t.server = &http.Server{Handler: mux}

	err = t.server.Serve(listener)
	if err != nil && err != http.ErrServerClosed {
		t.cmu.Lock()
		t.connected = false
		t.cmu.Unlock()
		return err
	}

	return nil
}

// ListenAddr reports the bound address, useful when Addr requested an
// ephemeral port.
func (t *WSTransport) ListenAddr() string {
	t.cmu.RLock()
	defer t.cmu.RUnlock()
	if t.listener == nil {
		return t.Addr
	}
	return t.listener.Addr().String()
}

func (t *WSTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection", "error", err)
		return
	}

	t.cmu.RLock()
	sessionCount := len(t.sessions)
	t.cmu.RUnlock()

	if t.maxClients > 0 && sessionCount >= t.maxClients {
		slog.Warn("Max clients reached, rejecting connection", "remote_addr", r.RemoteAddr)
		conn.Close()
		return
	}

	go t.handleConnection(conn, r.RemoteAddr)
}

func (t *WSTransport) handleConnection(conn *websocket.Conn, remoteAddr string) {
	slog.Info("Client connected", "addr", remoteAddr)

	sess := NewSession(generateSessionId("ws"), remoteAddr)

	defer func() {
		t.cmu.Lock()
		delete(t.sessions, sess.Id)
		t.cmu.Unlock()

		if t.onDisconnect != nil {
			t.onDisconnect(sess)
		}

		conn.Close()
		slog.Info("Client disconnected", "addr", remoteAddr, "id", sess.Id)
	}()

	if t.onConnect != nil {
		if err := t.onConnect(sess); err != nil {
			slog.Error("Failed to register session", "addr", remoteAddr, "error", err.Error())
			return
		}
	}

	t.cmu.Lock()
	t.sessions[sess.Id] = sess
	t.cmu.Unlock()

	// Strict request/reply: one reader, replies written in arrival
	// order before the next frame is read.
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Warn("WebSocket connection error", "addr", remoteAddr, "error", err)
			}
			break
		}

		if messageType != websocket.TextMessage {
			slog.Info("Ignoring non-text message", "addr", remoteAddr, "type", messageType, "size", len(data))
			continue
		}

		frame := string(data)
		slog.Debug("Frame received", "session", sess.Id, "size", len(frame))

		reply := t.onFrame(sess, frame)
		if err := conn.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
			slog.Error("Failed to send response", "session", sess.Id, "error", err.Error())
			break
		}
	}
}

func (t *WSTransport) Shutdown() error {
	slog.Info("Shutting down WebSocket server", "addr", t.Addr)
	t.cmu.Lock()
	t.connected = false
	t.cmu.Unlock()
	if t.server != nil {
		return t.server.Close()
	}
	return nil
}

func (t *WSTransport) OnFrame(fn FrameHandler) {
	t.onFrame = fn
}

func (t *WSTransport) OnConnect(fn func(*Session) error) {
	t.onConnect = fn
}

func (t *WSTransport) OnDisconnect(fn func(*Session)) {
	t.onDisconnect = fn
}

func (t *WSTransport) Meta() TransportMetadata {
	t.cmu.RLock()
	sessionCount := len(t.sessions)
	connected := t.connected
	t.cmu.RUnlock()
	return TransportMetadata{
		ID:          "ws-" + t.Addr,
		Name:        t.name,
		Description: t.description,
		Protocol:    "websocket",
		Address:     t.Addr,
		Sessions:    sessionCount,
		MaxClients:  t.maxClients,
		Connected:   connected,
	}
}

func (t *WSTransport) SetName(name string) {
	t.name = name
}

func (t *WSTransport) SetMaxClients(n int) {
	t.maxClients = n
}

func (t *WSTransport) SetDescription(description string) {
	t.description = description
}
