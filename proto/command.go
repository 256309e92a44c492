package proto

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"unicode/utf8"
)

const (
	// Base64Prefix marks an arguments string whose payload is
	// base64-encoded JSON rather than inline JSON text.
	Base64Prefix = "base64:"

	// FramePrefix is the optional envelope prefix the YAML test runner
	// puts in front of a serialized command. Servers must accept frames
	// with or without it.
	FramePrefix = "json:"
)

type Command struct {
	Cluster          string `json:"cluster"`           // functional domain (e.g. "onoff", "delay")
	Command          string `json:"command"`           // operation within the cluster
	Arguments        string `json:"arguments"`         // inline JSON object or "base64:<b64>"
	CommandSpecifier string `json:"command_specifier,omitempty"` // optional attribute/sub-field qualifier
}

// Arguments is the tagged union behind a Command's arguments field:
// either a structured value serialized at encode time, or text that is
// already in wire form (inline JSON object or a "base64:" payload).
type Arguments struct {
	value   any
	text    string
	hasText bool
}

// ArgumentsValue wraps a structured value. It is marshaled to JSON,
// base64 encoded and prefixed when the command is built.
func ArgumentsValue(v any) Arguments {
	return Arguments{value: v}
}

// ArgumentsText wraps text already in wire form.
func ArgumentsText(s string) Arguments {
	return Arguments{text: s, hasText: true}
}

// Wire returns the string placed in a Command's arguments field.
func (a Arguments) Wire() (string, error) {
	if a.hasText {
		return a.text, nil
	}
	data, err := json.Marshal(a.value)
	if err != nil {
		return "", &EncodingError{Op: "marshal arguments", Err: err}
	}
	return Base64Prefix + base64.StdEncoding.EncodeToString(data), nil
}

// NewCommand builds a Command with its arguments resolved to wire form.
func NewCommand(cluster, command, specifier string, args Arguments) (Command, error) {
	wire, err := args.Wire()
	if err != nil {
		return Command{}, err
	}
	return Command{
		Cluster:          cluster,
		Command:          command,
		Arguments:        wire,
		CommandSpecifier: specifier,
	}, nil
}

// Encode serializes cmd into the text sent on the wire. With usePrefix
// set, the "json:" framing variant is emitted.
func Encode(cmd Command, usePrefix bool) (string, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return "", &EncodingError{Op: "marshal command", Err: err}
	}
	if usePrefix {
		return FramePrefix + string(data), nil
	}
	return string(data), nil
}

// DecodeCommand parses a request frame, accepting both envelope
// variants. Frames that are not JSON or lack the cluster/command
// fields fail with a ProtocolError.
func DecodeCommand(frame string) (Command, error) {
	text := strings.TrimPrefix(frame, FramePrefix)
	var cmd Command
	if err := json.Unmarshal([]byte(text), &cmd); err != nil {
		return Command{}, &ProtocolError{Reason: "frame is not valid JSON", Err: err}
	}
	if cmd.Cluster == "" || cmd.Command == "" {
		return Command{}, &ProtocolError{Reason: "frame is missing cluster or command"}
	}
	return cmd, nil
}

// DecodeArguments resolves an arguments string to the JSON object text
// it carries, undoing the base64 convention when present. The decoded
// payload must parse as a JSON object.
func DecodeArguments(s string) (json.RawMessage, error) {
	text := s
	if encoded, ok := strings.CutPrefix(s, Base64Prefix); ok {
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, &DecodingError{Reason: "invalid base64 arguments", Err: err}
		}
		if !utf8.Valid(data) {
			return nil, &DecodingError{Reason: "arguments payload is not valid UTF-8"}
		}
		text = string(data)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, &DecodingError{Reason: "arguments payload is not a JSON object", Err: err}
	}
	return json.RawMessage(text), nil
}

// Argument payloads observed on the wire. Field names match the
// server's expected JSON keys exactly.

type WaitForCommissioneeArgs struct {
	NodeID string `json:"nodeId"`
}

type ReadArgs struct {
	DestinationID string `json:"destination-id"`
	EndpointIDs   string `json:"endpoint-ids"` // one id or comma-separated list
}

type WriteArgs struct {
	DestinationID   string `json:"destination-id"`
	EndpointID      string `json:"endpoint-id-ignored-for-group-commands"`
	AttributeValues string `json:"attribute-values"`
}
