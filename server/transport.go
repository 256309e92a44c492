package server

import (
	"github.com/google/uuid"
)

// FrameHandler turns one inbound request frame into the reply frame
// sent back on the same connection. It is called once per text frame,
// in arrival order.
type FrameHandler func(sess *Session, frame string) string

type Transport interface {
	Start() error
	OnFrame(FrameHandler)
	OnConnect(func(*Session) error)
	OnDisconnect(func(*Session))
	Shutdown() error
	Meta() TransportMetadata
	SetName(name string)
	SetDescription(description string)
}

type TransportMetadata struct {
	ID          string // stable identifier, e.g. "ws-:9002"
	Name        string // human-friendly name
	Protocol    string // e.g. "websocket"
	Address     string // bind address
	Description string // optional, short purpose/use case

	Sessions   int  // current live sessions
	MaxClients int  // max allowed sessions (0 = unlimited)
	Connected  bool // whether the transport is currently bound
}

func generateSessionId(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
