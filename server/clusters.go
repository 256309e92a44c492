package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/chipsock/chipsock/proto"
)

const (
	onOffClusterId = 6

	onOffAttributeId       = 0
	onTimeAttributeId      = 16385 // 0x4001
	offWaitTimeAttributeId = 16386 // 0x4002
)

// attributeId maps a command specifier to its attribute id. Unknown
// names fall through to the on-off attribute.
func attributeId(specifier string) uint32 {
	switch specifier {
	case "on-time":
		return onTimeAttributeId
	case "off-wait-time":
		return offWaitTimeAttributeId
	default:
		return onOffAttributeId
	}
}

func defaultAttributeValue(attribute uint32) any {
	if attribute == onOffAttributeId {
		return true
	}
	return int64(0)
}

// decodeArgs decodes a command's arguments into target. Device
// commands require the base64 convention; each failure mode maps to
// its own error response so callers can tell them apart.
func decodeArgs(arguments string, target any) *proto.Response {
	encoded, ok := strings.CutPrefix(arguments, proto.Base64Prefix)
	if !ok {
		resp := errorResponse("Arguments must be base64 encoded")
		return &resp
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		resp := errorResponse("Invalid base64 format")
		return &resp
	}
	if !utf8.Valid(data) {
		resp := errorResponse("Invalid base64 encoding")
		return &resp
	}
	if err := json.Unmarshal(data, target); err != nil {
		resp := errorResponse("Invalid arguments format")
		return &resp
	}
	return nil
}

func handleWaitForCommissionee(sess *Session, cmd proto.Command) proto.Response {
	var args proto.WaitForCommissioneeArgs
	if resp := decodeArgs(cmd.Arguments, &args); resp != nil {
		return *resp
	}

	slog.Info("Waiting for commissionee", "session", sess.Id, "nodeId", args.NodeID)

	// No result payload on success; the log entry carries the detail.
	return proto.Response{
		Results: []proto.Result{},
		Logs: []proto.LogEntry{
			proto.NewLogEntry(logModule, "Info",
				fmt.Sprintf("Device %s connected successfully", args.NodeID)),
		},
	}
}

func handleOnOffRead(sess *Session, cmd proto.Command) proto.Response {
	var args proto.ReadArgs
	if resp := decodeArgs(cmd.Arguments, &args); resp != nil {
		return *resp
	}

	attribute := attributeId(cmd.CommandSpecifier)
	results := []proto.Result{}
	logs := []proto.LogEntry{}

	// endpoint-ids may list several endpoints; each produces its own
	// result entry so one bad endpoint never hides the others.
	for _, token := range strings.Split(args.EndpointIDs, ",") {
		token = strings.TrimSpace(token)
		endpoint, err := strconv.ParseUint(token, 10, 16)
		if err != nil {
			results = append(results, proto.Result{"error": "FAILURE"})
			logs = append(logs, proto.NewLogEntry(logModule, "Error",
				fmt.Sprintf("Invalid endpoint id: %s", token)))
			continue
		}

		value, ok := sess.Store().Get(args.DestinationID, uint16(endpoint), attribute)
		if !ok {
			value = defaultAttributeValue(attribute)
		}

		results = append(results, proto.Result{
			"clusterId":   onOffClusterId,
			"endpointId":  uint16(endpoint),
			"attributeId": attribute,
			"value":       value,
		})
		logs = append(logs, proto.NewLogEntry(logModule, "Info",
			fmt.Sprintf("Read OnOff attribute %d from endpoint %d: %v", attribute, endpoint, value)))
	}

	slog.Info("Read onoff attribute",
		"session", sess.Id,
		"destination", args.DestinationID,
		"endpoints", args.EndpointIDs,
		"attribute", attribute,
	)

	return proto.Response{Results: results, Logs: logs}
}

func handleOnOffWrite(sess *Session, cmd proto.Command) proto.Response {
	var args proto.WriteArgs
	if resp := decodeArgs(cmd.Arguments, &args); resp != nil {
		return *resp
	}

	endpoint, err := strconv.ParseUint(args.EndpointID, 10, 16)
	if err != nil {
		endpoint = 1
	}

	attributeName := cmd.CommandSpecifier
	if attributeName == "" {
		attributeName = "unknown"
	}
	attribute := attributeId(cmd.CommandSpecifier)
	value := parseAttributeValue(args.AttributeValues)

	sess.Store().Set(args.DestinationID, uint16(endpoint), attribute, value)

	slog.Info("Wrote onoff attribute",
		"session", sess.Id,
		"destination", args.DestinationID,
		"endpoint", endpoint,
		"attribute", attributeName,
		"value", args.AttributeValues,
	)

	// Successful writes carry no value and no error field.
	return proto.Response{
		Results: []proto.Result{{
			"clusterId":   onOffClusterId,
			"endpointId":  uint16(endpoint),
			"attributeId": attribute,
		}},
		Logs: []proto.LogEntry{
			proto.NewLogEntry(logModule, "Info",
				fmt.Sprintf("Write OnOff attribute '%s' to endpoint %d: value=%s",
					attributeName, endpoint, args.AttributeValues)),
		},
	}
}

// parseAttributeValue keeps the wire's loose typing: numbers stay
// numbers, booleans stay booleans, anything else stays a string.
func parseAttributeValue(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
