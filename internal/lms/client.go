package lms

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mundschenk-at/squeezebox-ir-events/internal/apperrors"
)

const dialTimeout = 10 * time.Second

// Client speaks the LMS command-line interface over a single TCP connection.
// Replies to commands and unsolicited push notifications share the stream, so
// all use is strictly sequential: one send, one reply, or one event read at a
// time. The client never retries; any I/O failure is surfaced as a
// connection-lost error and retry is the supervisor's job.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
	logger *log.Logger

	// partial holds line data consumed from the reader before a poll
	// deadline fired mid-line.
	partial string
}

// Dial opens a connection to the LMS CLI endpoint.
func Dial(host string, port int, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Default()
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, apperrors.NewConnectError("connect to "+addr, err)
	}

	logger.Printf("LMS: connected to %s", addr)
	return NewClient(conn, logger), nil
}

// NewClient wraps an already-open connection. Used by Dial and by tests that
// drive the client over a pipe.
func NewClient(conn net.Conn, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		conn:   conn,
		reader: bufio.NewReader(conn),
		logger: logger,
	}
}

// Close releases the connection. Safe to call after a failure.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Send writes one newline-terminated command line and reads exactly one reply
// line.
func (c *Client) Send(line string) (string, error) {
	// Clear any event-read deadline left by a previous poll.
	if err := c.conn.SetReadDeadline(time.Time{}); err != nil {
		return "", apperrors.NewConnectionLostError("reset read deadline", err)
	}

	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		return "", apperrors.NewConnectionLostError("write command", err)
	}

	reply, err := c.reader.ReadString('\n')
	if err != nil {
		return "", apperrors.NewConnectionLostError("read reply", err)
	}

	reply = strings.TrimRight(reply, "\r\n")
	if reply == "" {
		return "", apperrors.NewConnectionLostError("empty reply", nil)
	}
	return reply, nil
}

// SendCommand percent-encodes args, substitutes them into template and sends
// the result. Templates contain only literal text and %s verbs; encoded
// values such as player ids must not travel through them.
func (c *Client) SendCommand(template string, args ...string) (string, error) {
	encoded := make([]any, len(args))
	for i, arg := range args {
		encoded[i] = Quote(arg)
	}
	return c.Send(fmt.Sprintf(template, encoded...))
}

// Query sends `command args... ?` and returns the reply remainder after the
// echoed command prefix. A reply that is not anchored on the sent prefix is a
// protocol parse error; the session aborts rather than guess.
func (c *Client) Query(command string, args ...string) (string, error) {
	prefix := command
	for _, arg := range args {
		prefix += " " + Quote(arg)
	}

	reply, err := c.Send(prefix + " ?")
	if err != nil {
		return "", err
	}

	if !strings.HasPrefix(reply, prefix+" ") {
		return "", apperrors.NewProtocolParseError(
			fmt.Sprintf("reply %q does not match query %q", reply, prefix))
	}
	return reply[len(prefix)+1:], nil
}

// QueryInt is Query with the captured remainder parsed as an integer.
func (c *Client) QueryInt(command string, args ...string) (int, error) {
	value, err := c.Query(command, args...)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(Unquote(value)))
	if err != nil {
		return 0, apperrors.NewProtocolParseError(
			fmt.Sprintf("expected integer reply to %q, got %q", command, value))
	}
	return n, nil
}

// ReadEventLine waits up to timeout for one push line. It returns "" with a
// nil error when the deadline passes without data, so the caller stays
// responsive to shutdown. Hang-up and read errors surface as connection-lost.
func (c *Client) ReadEventLine(timeout time.Duration) (string, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return "", apperrors.NewConnectionLostError("set read deadline", err)
	}

	line, err := c.reader.ReadString('\n')
	if err != nil {
		if os.IsTimeout(err) {
			c.partial += line
			return "", nil
		}
		return "", apperrors.NewConnectionLostError("read event", err)
	}

	line = c.partial + line
	c.partial = ""
	return strings.TrimRight(line, "\r\n"), nil
}
