package client

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chipsock/chipsock/proto"
)

// MockTransport scripts replies for testing client behavior without a
// network.
type MockTransport struct {
	mu      sync.Mutex
	sent    []string
	replies []string
	readErr error
	closed  bool
}

func NewMockTransport(replies ...string) *MockTransport {
	return &MockTransport{replies: replies}
}

func (m *MockTransport) Connect(addr string) error { return nil }

func (m *MockTransport) Send(frame string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, frame)
	return nil
}

func (m *MockTransport) Read(timeout time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return "", m.readErr
	}
	if len(m.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return reply, nil
}

func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockTransport) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, len(m.sent))
	copy(result, m.sent)
	return result
}

func TestClient_Do(t *testing.T) {
	transport := NewMockTransport(`{"results":[],"logs":[]}`)
	c := New(transport)

	cmd, err := proto.NewCommand("delay", "wait-for-commissionee", "",
		proto.ArgumentsValue(proto.WaitForCommissioneeArgs{NodeID: "1"}))
	if err != nil {
		t.Fatalf("NewCommand returned error: %v", err)
	}

	resp, err := c.Do(cmd)
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if proto.Classify(resp) != proto.EmptyResult {
		t.Errorf("Expected empty result, got %+v", resp)
	}

	sent := transport.Sent()
	if len(sent) != 1 {
		t.Fatalf("Expected 1 sent frame, got %d", len(sent))
	}
	if strings.HasPrefix(sent[0], proto.FramePrefix) {
		t.Errorf("Plain client must not emit the frame prefix: %q", sent[0])
	}
}

func TestClient_WithPrefix(t *testing.T) {
	transport := NewMockTransport(`{"results":[],"logs":[]}`)
	c := New(transport, WithPrefix())

	if _, err := c.WaitForCommissionee("305414945"); err != nil {
		t.Fatalf("WaitForCommissionee returned error: %v", err)
	}

	sent := transport.Sent()
	if len(sent) != 1 || !strings.HasPrefix(sent[0], proto.FramePrefix) {
		t.Errorf("Expected prefixed frame, got %v", sent)
	}
}

func TestClient_Do_MalformedReply(t *testing.T) {
	transport := NewMockTransport("not valid json")
	c := New(transport)

	_, err := c.WaitForCommissionee("1")
	if err == nil {
		t.Fatal("Expected error for malformed reply")
	}

	var protoErr *proto.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Errorf("Expected ProtocolError, got %T: %v", err, err)
	}
}

func TestClient_Do_TransportTimeout(t *testing.T) {
	transport := NewMockTransport()
	transport.readErr = &TransportError{Op: "read", Err: errors.New("deadline exceeded"), Timeout: true}
	c := New(transport, WithTimeout(10*time.Millisecond))

	_, err := c.WaitForCommissionee("1")
	if err == nil {
		t.Fatal("Expected timeout error")
	}

	var transErr *TransportError
	if !errors.As(err, &transErr) {
		t.Fatalf("Expected TransportError, got %T: %v", err, err)
	}
	if !transErr.Timeout {
		t.Error("Expected timeout kind to be preserved")
	}
}

func TestClient_Do_UnserializableArguments(t *testing.T) {
	c := New(NewMockTransport())

	_, err := proto.NewCommand("onoff", "write", "", proto.ArgumentsValue(func() {}))
	if err == nil {
		t.Fatal("Expected encoding error")
	}

	var encErr *proto.EncodingError
	if !errors.As(err, &encErr) {
		t.Errorf("Expected EncodingError, got %T: %v", err, err)
	}

	// Nothing must reach the wire on a local encoding failure.
	if sent := c.transport.(*MockTransport).Sent(); len(sent) != 0 {
		t.Errorf("Expected no frames sent, got %v", sent)
	}
}

func TestClient_ReadAttribute_JoinsEndpoints(t *testing.T) {
	transport := NewMockTransport(`{"results":[],"logs":[]}`)
	c := New(transport)

	if _, err := c.ReadAttribute("onoff", "on-time", "0x12344321", 1, 2, 3); err != nil {
		t.Fatalf("ReadAttribute returned error: %v", err)
	}

	sent := transport.Sent()
	cmd, err := proto.DecodeCommand(sent[0])
	if err != nil {
		t.Fatalf("Sent frame is not a valid command: %v", err)
	}

	raw, err := proto.DecodeArguments(cmd.Arguments)
	if err != nil {
		t.Fatalf("DecodeArguments returned error: %v", err)
	}
	if !strings.Contains(string(raw), `"endpoint-ids":"1,2,3"`) {
		t.Errorf("Expected joined endpoint ids in %s", raw)
	}
}

func TestClient_SequentialRequests(t *testing.T) {
	transport := NewMockTransport(
		`{"results":[{"clusterId":6}],"logs":[]}`,
		`{"results":[{"error":"FAILURE"}],"logs":[]}`,
	)
	c := New(transport)

	first, err := c.ReadAttribute("onoff", "", "0x1", 1)
	if err != nil {
		t.Fatalf("First request returned error: %v", err)
	}
	second, err := c.ReadAttribute("onoff", "", "0x1", 1)
	if err != nil {
		t.Fatalf("Second request returned error: %v", err)
	}

	if proto.Classify(first) != proto.Success {
		t.Errorf("Expected first reply to match first request, got %+v", first)
	}
	if proto.Classify(second) != proto.PartialFailure {
		t.Errorf("Expected second reply to match second request, got %+v", second)
	}
}

func TestExpect(t *testing.T) {
	empty := proto.Response{}
	if err := Expect(empty, proto.EmptyResult); err != nil {
		t.Errorf("Expected nil for matching outcome, got %v", err)
	}

	failure := proto.Response{
		Results: []proto.Result{{"error": "FAILURE"}},
		Logs:    []proto.LogEntry{proto.NewLogEntry("chipTool", "Error", "Unknown command: invalid test")},
	}
	err := Expect(failure, proto.Success)
	if err == nil {
		t.Fatal("Expected error for mismatched outcome")
	}
	if !strings.Contains(err.Error(), "Unknown command: invalid test") {
		t.Errorf("Expected decoded log detail in error, got %v", err)
	}
}

func TestExpect_BrokenLogEntryIsIsolated(t *testing.T) {
	resp := proto.Response{
		Results: []proto.Result{{"error": "FAILURE"}},
		Logs: []proto.LogEntry{
			{Category: "Error", Message: "not-base64!!!"},
			proto.NewLogEntry("chipTool", "Error", "readable detail"),
		},
	}

	err := Expect(resp, proto.Success)
	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.Contains(err.Error(), "readable detail") {
		t.Errorf("Expected the valid log entry to survive, got %v", err)
	}
}
