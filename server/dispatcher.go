package server

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/chipsock/chipsock/proto"
)

// logModule is the component label carried on every wire log entry.
const logModule = "chipTool"

// fallbackFrame is sent if serializing a response itself fails. The
// message decodes to "Failed to serialize response".
const fallbackFrame = `{"results":[{"error":"FAILURE"}],"logs":[{"module":"chipTool","category":"Error","message":"RmFpbGVkIHRvIHNlcmlhbGl6ZSByZXNwb25zZQ=="}]}`

type route struct {
	cluster string // lowercased
	command string
}

// HandlerFunc services one decoded command against a session.
type HandlerFunc func(sess *Session, cmd proto.Command) proto.Response

// Dispatcher routes request frames to cluster handlers. Malformed or
// unroutable frames produce error responses, never a dropped
// connection.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[route]HandlerFunc
}

// NewDispatcher returns a dispatcher with the built-in clusters
// registered (delay, onoff).
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{handlers: make(map[route]HandlerFunc)}
	d.Register("delay", "wait-for-commissionee", handleWaitForCommissionee)
	d.Register("onoff", "read", handleOnOffRead)
	d.Register("onoff", "write", handleOnOffWrite)
	return d
}

// Register binds a handler to a (cluster, command) pair. Cluster
// matching is case-insensitive.
func (d *Dispatcher) Register(cluster, command string, h HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[route{strings.ToLower(cluster), command}] = h
}

// ServeFrame implements FrameHandler.
func (d *Dispatcher) ServeFrame(sess *Session, frame string) string {
	sess.CountRequest()

	cmd, err := proto.DecodeCommand(frame)
	if err != nil {
		slog.Warn("Failed to parse command frame", "session", sess.Id, "error", err.Error())
		return encodeFrame(errorResponse("Invalid JSON format"))
	}

	slog.Info("Processing command",
		"session", sess.Id,
		"cluster", cmd.Cluster,
		"command", cmd.Command,
		"specifier", cmd.CommandSpecifier,
	)

	d.mu.RLock()
	handler, ok := d.handlers[route{strings.ToLower(cmd.Cluster), cmd.Command}]
	d.mu.RUnlock()

	if !ok {
		return encodeFrame(errorResponse(fmt.Sprintf("Unknown command: %s %s", cmd.Cluster, cmd.Command)))
	}

	return encodeFrame(handler(sess, cmd))
}

func encodeFrame(resp proto.Response) string {
	frame, err := proto.EncodeResponse(resp)
	if err != nil {
		slog.Error("Failed to serialize response", "error", err.Error())
		return fallbackFrame
	}
	return frame
}

// errorResponse builds the server's uniform failure shape: a single
// error result plus a decoded-detail log entry.
func errorResponse(detail string) proto.Response {
	return proto.Response{
		Results: []proto.Result{{"error": "FAILURE"}},
		Logs:    []proto.LogEntry{proto.NewLogEntry(logModule, "Error", detail)},
	}
}
