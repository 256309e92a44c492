package proto

import "fmt"

// EncodingError reports a caller-supplied value that could not be
// serialized into wire form. Raised locally, never sent.
type EncodingError struct {
	Op  string
	Err error
}

func (e *EncodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("encoding: %s: %v", e.Op, e.Err)
	}
	return "encoding: " + e.Op
}

func (e *EncodingError) Unwrap() error { return e.Err }

// ProtocolError reports a frame that is not valid JSON or lacks
// required structural fields. Recoverable per request; the connection
// stays usable.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol: %s: %v", e.Reason, e.Err)
	}
	return "protocol: " + e.Reason
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// DecodingError reports a base64 or UTF-8 decoding failure in an
// embedded payload (arguments or a single log message).
type DecodingError struct {
	Reason string
	Err    error
}

func (e *DecodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decoding: %s: %v", e.Reason, e.Err)
	}
	return "decoding: " + e.Reason
}

func (e *DecodingError) Unwrap() error { return e.Err }
