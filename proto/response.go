package proto

import (
	"encoding/base64"
	"encoding/json"
	"unicode/utf8"
)

// Response is the server's reply to one command. Exactly one response
// is produced per request frame, delivered in order.
type Response struct {
	Results []Result   `json:"results"`
	Logs    []LogEntry `json:"logs"`
}

// Result is the outcome of one sub-operation. A command may fan out
// into several (e.g. one per addressed endpoint). Presence of the
// "error" key is the sole success/failure discriminator.
type Result map[string]any

// Err returns the error detail and whether this entry is a failure.
func (r Result) Err() (any, bool) {
	detail, ok := r["error"]
	return detail, ok
}

// Value returns the read payload for read-type results.
func (r Result) Value() (any, bool) {
	v, ok := r["value"]
	return v, ok
}

// Int returns a numeric field as int64. JSON numbers arrive as
// float64; other types report false.
func (r Result) Int(key string) (int64, bool) {
	switch v := r[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}

type LogEntry struct {
	Module   string `json:"module,omitempty"` // emitting component, e.g. "chipTool"
	Category string `json:"category"`         // severity label: "Info", "Error", ...
	Message  string `json:"message"`          // base64-encoded UTF-8 text
}

// NewLogEntry builds a log entry, encoding text per the wire format.
func NewLogEntry(module, category, text string) LogEntry {
	return LogEntry{
		Module:   module,
		Category: category,
		Message:  base64.StdEncoding.EncodeToString([]byte(text)),
	}
}

// DecodeMessage decodes the base64 message field to readable text.
// Failure is isolated to this entry and must not abort processing of
// the rest of the response.
func (e LogEntry) DecodeMessage() (string, error) {
	data, err := base64.StdEncoding.DecodeString(e.Message)
	if err != nil {
		return "", &DecodingError{Reason: "invalid base64 log message", Err: err}
	}
	if !utf8.Valid(data) {
		return "", &DecodingError{Reason: "log message is not valid UTF-8"}
	}
	return string(data), nil
}

// Outcome classifies a response for success/failure checks.
type Outcome int

const (
	// EmptyResult means results is absent or empty. Not automatically an
	// error: some commands carry no result payload on success.
	EmptyResult Outcome = iota
	// Success means results is non-empty and no entry carries an error.
	Success
	// PartialFailure means at least one entry carries an error. The
	// remaining entries are still valid and independently inspectable.
	PartialFailure
)

func (o Outcome) String() string {
	switch o {
	case EmptyResult:
		return "empty"
	case Success:
		return "success"
	case PartialFailure:
		return "partial-failure"
	default:
		return "unknown"
	}
}

// Classify inspects a decoded response's results.
func Classify(resp Response) Outcome {
	if len(resp.Results) == 0 {
		return EmptyResult
	}
	for _, r := range resp.Results {
		if _, failed := r.Err(); failed {
			return PartialFailure
		}
	}
	return Success
}

// DecodeResponse parses a reply frame. A non-JSON frame is a
// ProtocolError: an expected outcome when the server rejects malformed
// input, and recoverable per request. Absent arrays decode to empty
// slices.
func DecodeResponse(frame string) (Response, error) {
	var resp Response
	if err := json.Unmarshal([]byte(frame), &resp); err != nil {
		return Response{}, &ProtocolError{Reason: "response is not valid JSON", Err: err}
	}
	if resp.Results == nil {
		resp.Results = []Result{}
	}
	if resp.Logs == nil {
		resp.Logs = []LogEntry{}
	}
	return resp, nil
}

// EncodeResponse serializes a response into a reply frame. Replies are
// always plain JSON, never prefixed.
func EncodeResponse(resp Response) (string, error) {
	if resp.Results == nil {
		resp.Results = []Result{}
	}
	if resp.Logs == nil {
		resp.Logs = []LogEntry{}
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return "", &EncodingError{Op: "marshal response", Err: err}
	}
	return string(data), nil
}
