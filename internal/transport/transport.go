// Package transport owns the single outbound secure connection the network
// tasks share, plus the minimal HTTP/1.0 plumbing they speak over it. The
// engine needs per-read deadlines to time-box its bursts, which is why this
// sits on raw TLS conns instead of an HTTP client.
package transport

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Conn is one outbound secure connection with caller-controlled read deadlines.
type Conn interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// Dialer opens the outbound secure connection to a remote host.
type Dialer interface {
	Dial(host string, timeout time.Duration) (Conn, error)
}

// TLSDialer dials TCP+TLS on port 443.
type TLSDialer struct{}

func (TLSDialer) Dial(host string, timeout time.Duration) (Conn, error) {
	nd := &net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(nd, "tcp", net.JoinHostPort(host, "443"), &tls.Config{
		ServerName: host,
	})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", host, err)
	}
	return conn, nil
}

// WriteGet writes a plain HTTP/1.0 GET request. Connection: close makes the
// peer signal end-of-body by closing, so no chunked decoding is needed.
func WriteGet(c Conn, host, path string) error {
	_, err := fmt.Fprintf(c, "GET %s HTTP/1.0\r\nHost: %s\r\nUser-Agent: statusboard\r\nConnection: close\r\n\r\n", path, host)
	return err
}

// ParseResponse splits a buffered HTTP response into status code and body.
func ParseResponse(raw []byte) (status int, body []byte, err error) {
	head, rest, found := bytes.Cut(raw, []byte("\r\n\r\n"))
	if !found {
		return 0, nil, fmt.Errorf("response has no header terminator")
	}
	line, _, _ := bytes.Cut(head, []byte("\r\n"))
	parts := bytes.SplitN(line, []byte(" "), 3)
	if len(parts) < 2 || !bytes.HasPrefix(parts[0], []byte("HTTP/")) {
		return 0, nil, fmt.Errorf("malformed status line %q", line)
	}
	status, err = strconv.Atoi(string(parts[1]))
	if err != nil {
		return 0, nil, fmt.Errorf("malformed status code %q", parts[1])
	}
	return status, rest, nil
}

// StallConn wraps a net.Conn so every Read re-arms a stall deadline; a peer
// that stops sending for longer than the timeout fails the read instead of
// hanging a firmware download forever.
type StallConn struct {
	net.Conn
	Timeout time.Duration
}

func (c *StallConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.Timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}
