package deviceclient

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

// FrameDecoder turns raw bytes read off a terminal's TCP stream into
// RawEvents. The real ZKTeco binary protocol is deliberately not
// implemented here (spec §1) — FrameDecoder is the seam a concrete
// protocol library plugs into; TCPTerminal only owns the connection
// lifecycle and dial timeout.
type FrameDecoder interface {
	// Decode reads one frame from r and returns the event it encodes. It
	// returns io.EOF (or a wrapped form of it) when the stream ends.
	Decode(r *bufio.Reader) (RawEvent, error)
}

// TCPTerminal is a concrete Terminal that dials a ZKTeco-family device over
// TCP with a bounded connect timeout and decodes frames through a
// pluggable FrameDecoder.
type TCPTerminal struct {
	addr    string
	decoder FrameDecoder

	mu   sync.Mutex
	conn net.Conn
	err  error
}

// NewTCPTerminal builds a TCPTerminal for addr ("ip:port") using decoder to
// interpret the wire frames.
func NewTCPTerminal(addr string, decoder FrameDecoder) *TCPTerminal {
	return &TCPTerminal{addr: addr, decoder: decoder}
}

// Connect dials the terminal with a 10s timeout, per spec §5.
func (t *TCPTerminal) Connect(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", t.addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", t.addr, err)
	}

	t.mu.Lock()
	t.conn = conn
	t.err = nil
	t.mu.Unlock()
	return nil
}

// Events reads frames off the connection until it closes or ctx is done.
func (t *TCPTerminal) Events(ctx context.Context) <-chan RawEvent {
	out := make(chan RawEvent)

	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	go func() {
		defer close(out)
		if conn == nil {
			return
		}
		r := bufio.NewReader(conn)
		for {
			select {
			case <-ctx.Done():
				t.setErr(ctx.Err())
				return
			default:
			}

			ev, err := t.decoder.Decode(r)
			if err != nil {
				t.setErr(err)
				return
			}

			select {
			case out <- ev:
			case <-ctx.Done():
				t.setErr(ctx.Err())
				return
			}
		}
	}()

	return out
}

func (t *TCPTerminal) setErr(err error) {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
}

// Err returns the error that ended the last Events call, if any.
func (t *TCPTerminal) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Close closes the underlying TCP connection.
func (t *TCPTerminal) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}
