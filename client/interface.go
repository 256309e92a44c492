package client

import "time"

// Transport carries raw text frames. Frame decoding stays above this
// interface: a malformed reply is protocol data for the caller, not a
// transport fault.
type Transport interface {
	Connect(addr string) error
	Send(frame string) error
	Read(timeout time.Duration) (string, error) // zero timeout blocks indefinitely
	Close() error
}
