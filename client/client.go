package client

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chipsock/chipsock/proto"
)

const defaultTimeout = 5 * time.Second

type Option func(*Client)

// WithPrefix makes the client emit the "json:" framing variant, like
// the YAML test runner does.
func WithPrefix() Option {
	return func(c *Client) { c.usePrefix = true }
}

// WithTimeout sets the per-request read timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// Client issues commands strictly sequentially over one connection:
// send, block for exactly one reply, then the next command. The wire
// format has no correlation ids, so pipelining would be unsafe.
type Client struct {
	transport Transport
	usePrefix bool
	timeout   time.Duration

	mu sync.Mutex // one outstanding request
}

func New(t Transport, opts ...Option) *Client {
	c := &Client{
		transport: t,
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Connect(addr string) error {
	return c.transport.Connect(addr)
}

// Close releases the connection. Safe to call on every exit path.
func (c *Client) Close() error {
	return c.transport.Close()
}

// Do sends one command and waits for its reply. Encoding failures and
// transport failures come back as errors; server-reported command
// failures are data in the Response, inspected with proto.Classify.
func (c *Client) Do(cmd proto.Command) (proto.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	frame, err := proto.Encode(cmd, c.usePrefix)
	if err != nil {
		return proto.Response{}, err
	}

	if err := c.transport.Send(frame); err != nil {
		return proto.Response{}, err
	}

	reply, err := c.transport.Read(c.timeout)
	if err != nil {
		return proto.Response{}, err
	}

	return proto.DecodeResponse(reply)
}

// WaitForCommissionee issues the delay cluster's wait command. An
// empty result set is the success shape for this command.
func (c *Client) WaitForCommissionee(nodeID string) (proto.Response, error) {
	cmd, err := proto.NewCommand("delay", "wait-for-commissionee", "",
		proto.ArgumentsValue(proto.WaitForCommissioneeArgs{NodeID: nodeID}))
	if err != nil {
		return proto.Response{}, err
	}
	return c.Do(cmd)
}

// ReadAttribute reads one attribute from one or more endpoints. Each
// endpoint yields its own result entry.
func (c *Client) ReadAttribute(cluster, attribute, destination string, endpoints ...uint16) (proto.Response, error) {
	ids := make([]string, len(endpoints))
	for i, ep := range endpoints {
		ids[i] = strconv.FormatUint(uint64(ep), 10)
	}

	cmd, err := proto.NewCommand(cluster, "read", attribute,
		proto.ArgumentsValue(proto.ReadArgs{
			DestinationID: destination,
			EndpointIDs:   strings.Join(ids, ","),
		}))
	if err != nil {
		return proto.Response{}, err
	}
	return c.Do(cmd)
}

// WriteAttribute writes one attribute value on one endpoint.
func (c *Client) WriteAttribute(cluster, attribute, destination string, endpoint uint16, value string) (proto.Response, error) {
	cmd, err := proto.NewCommand(cluster, "write", attribute,
		proto.ArgumentsValue(proto.WriteArgs{
			DestinationID:   destination,
			EndpointID:      strconv.FormatUint(uint64(endpoint), 10),
			AttributeValues: value,
		}))
	if err != nil {
		return proto.Response{}, err
	}
	return c.Do(cmd)
}

// Expect checks a response against the outcome a command calls for.
// Whether an empty result set means success is command-specific, so
// the expectation comes from the caller.
func Expect(resp proto.Response, want proto.Outcome) error {
	got := proto.Classify(resp)
	if got == want {
		return nil
	}

	details := make([]string, 0, len(resp.Logs))
	for _, entry := range resp.Logs {
		text, err := entry.DecodeMessage()
		if err != nil {
			// A broken log entry must not hide the others.
			continue
		}
		details = append(details, text)
	}

	if len(details) > 0 {
		return fmt.Errorf("unexpected outcome %s (want %s): %s", got, want, strings.Join(details, "; "))
	}
	return fmt.Errorf("unexpected outcome %s (want %s)", got, want)
}
