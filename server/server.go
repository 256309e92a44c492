package server

import (
	"context"
	"log/slog"
)

type Options struct {
	Config     Config
	Registry   *SessionRegistry // Optional (defaults to new registry if nil)
	Dispatcher *Dispatcher      // Optional (defaults to the built-in clusters if nil)
}

// Server wires transports to the dispatcher and tracks live sessions.
type Server struct {
	options    Options
	transports []Transport
}

func New(opts Options) *Server {
	if opts.Registry == nil {
		opts.Registry = NewSessionRegistry()
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = NewDispatcher()
	}
	return &Server{options: opts}
}

func (s *Server) Registry() *SessionRegistry {
	return s.options.Registry
}

func (s *Server) Dispatcher() *Dispatcher {
	return s.options.Dispatcher
}

func (s *Server) RegisterTransport(t Transport) {
	t.OnFrame(s.options.Dispatcher.ServeFrame)
	t.OnConnect(s.registerSession)
	t.OnDisconnect(func(sess *Session) { s.options.Registry.Delete(sess.Id) })
	s.transports = append(s.transports, t)
}

func (s *Server) registerSession(sess *Session) error {
	for _, f := range s.options.Config.Fixtures {
		sess.Store().Set(f.Destination, f.Endpoint, attributeId(f.Attribute), parseAttributeValue(f.Value))
	}
	s.options.Registry.Store(sess)
	return nil
}

// Start runs all registered transports until ctx is cancelled, then
// shuts them down.
func (s *Server) Start(ctx context.Context) error {
	for _, t := range s.transports {
		go func(t Transport) {
			if err := t.Start(); err != nil {
				slog.Error("Transport exited with error", "transport", t.Meta().ID, "error", err.Error())
			}
		}(t)
	}

	<-ctx.Done()
	slog.Info("Shutting down transports and server")

	for _, t := range s.transports {
		if err := t.Shutdown(); err != nil {
			slog.Error("There was an error when shutting down transport", "transport", t.Meta().ID, "error", err.Error())
		}
	}
	return nil
}
