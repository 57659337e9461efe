package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"statusboard/internal/models"
	"statusboard/internal/transport"
)

// fakeConfigRepo is an in-memory repository.ConfigRepo.
type fakeConfigRepo struct {
	mu    sync.Mutex
	rec   models.ConfigRecord
	saves int
}

func (f *fakeConfigRepo) Load() models.ConfigRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rec
}

func (f *fakeConfigRepo) Save(c models.ConfigRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ValidSignature = true
	f.rec = c
	f.saves++
	return nil
}

// fakeEvents satisfies EventLog and records appended entries.
type fakeEvents struct {
	mu      sync.Mutex
	entries []models.DeviceEvent
}

func (f *fakeEvents) Record(_ context.Context, typ, desc string, meta any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, models.DeviceEvent{Type: typ, Description: desc, Metadata: meta})
}

func (f *fakeEvents) List(context.Context, LogFilter) ([]models.DeviceEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.DeviceEvent(nil), f.entries...), nil
}

func (f *fakeEvents) byType(typ string) []models.DeviceEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.DeviceEvent
	for _, e := range f.entries {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// timeoutErr mimics a net.Error deadline hit.
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

// scriptConn serves a canned response and records the request.
type scriptConn struct {
	data   []byte
	pos    int
	closed bool
	wrote  bytes.Buffer
}

func (c *scriptConn) Read(p []byte) (int, error) {
	if c.pos >= len(c.data) {
		return 0, io.EOF
	}
	n := copy(p, c.data[c.pos:])
	c.pos += n
	return n, nil
}

func (c *scriptConn) Write(p []byte) (int, error) { return c.wrote.Write(p) }

func (c *scriptConn) SetReadDeadline(time.Time) error { return nil }

func (c *scriptConn) Close() error { c.closed = true; return nil }

// stallingConn never produces data; every read times out.
type stallingConn struct {
	wrote  bytes.Buffer
	closed bool
}

func (c *stallingConn) Read([]byte) (int, error) { return 0, timeoutErr{} }

func (c *stallingConn) Write(p []byte) (int, error) { return c.wrote.Write(p) }

func (c *stallingConn) SetReadDeadline(time.Time) error { return nil }

func (c *stallingConn) Close() error { c.closed = true; return nil }

// fakeDialer hands out queued conns, then fails.
type fakeDialer struct {
	conns []transport.Conn
	dials int
}

func (d *fakeDialer) Dial(string, time.Duration) (transport.Conn, error) {
	d.dials++
	if len(d.conns) == 0 {
		return nil, fmt.Errorf("no route to host")
	}
	c := d.conns[0]
	d.conns = d.conns[1:]
	return c, nil
}

func httpOK(body string) []byte {
	return []byte("HTTP/1.0 200 OK\r\nContent-Type: text/plain\r\n\r\n" + body)
}
