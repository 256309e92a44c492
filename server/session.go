package server

import (
	"sync"
	"time"
)

// Session is the server-side state of one client connection. Attribute
// state written during the session is observable by later reads on the
// same connection; it is discarded on disconnect.
type Session struct {
	Id          string
	RemoteAddr  string
	ConnectedAt time.Time

	store *Store

	mu       sync.Mutex
	requests int64
}

func NewSession(id, remoteAddr string) *Session {
	return &Session{
		Id:          id,
		RemoteAddr:  remoteAddr,
		ConnectedAt: time.Now(),
		store:       NewStore(),
	}
}

func (s *Session) Store() *Store {
	return s.store
}

func (s *Session) CountRequest() {
	s.mu.Lock()
	s.requests++
	s.mu.Unlock()
}

func (s *Session) Requests() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// SessionInfo is the read-only view exposed by the status API.
type SessionInfo struct {
	Id          string    `json:"id"`
	RemoteAddr  string    `json:"remote_addr"`
	ConnectedAt time.Time `json:"connected_at"`
	Requests    int64     `json:"requests"`
	Attributes  int       `json:"attributes"`
}

func (s *Session) Info() SessionInfo {
	return SessionInfo{
		Id:          s.Id,
		RemoteAddr:  s.RemoteAddr,
		ConnectedAt: s.ConnectedAt,
		Requests:    s.Requests(),
		Attributes:  s.store.Len(),
	}
}
