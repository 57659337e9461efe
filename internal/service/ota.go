package service

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"statusboard/internal/logger"
	"statusboard/internal/models"
	"statusboard/internal/platform"
	"statusboard/internal/repository"
	"statusboard/internal/transport"
)

const (
	updateAttempts = 3
	otaJoinTimeout = 15 * time.Second
	stallTimeout   = 10 * time.Second
	otaChunk       = 4 << 10
	progressEvery  = 64 << 10
)

// Each retry gets a larger transport buffer; the exact sizes are tuning, the
// contract is a bounded retry count with an increasing resource allowance.
var attemptBufSizes = [updateAttempts]int{4 << 10, 8 << 10, 16 << 10}

// UpdateService implements the two firmware-update contracts: a lightweight
// ETag check decoupled from the download, and the download/flash/commit
// routine that always ends in a reboot.
type UpdateService struct {
	cfg     repository.ConfigRepo
	image   platform.ImageTarget
	radio   platform.Radio
	power   platform.Power
	release func() // frees the network engine's buffers before a download
	events  EventLog
	log     *logger.Logger

	clientFor func(bufSize int) *http.Client

	mu      sync.Mutex
	pending string
}

func NewUpdateService(cfg repository.ConfigRepo, image platform.ImageTarget, radio platform.Radio, power platform.Power, release func(), events EventLog, log *logger.Logger) *UpdateService {
	return &UpdateService{
		cfg:       cfg,
		image:     image,
		radio:     radio,
		power:     power,
		release:   release,
		events:    events,
		log:       log,
		clientFor: defaultClientFor,
	}
}

func defaultClientFor(bufSize int) *http.Client {
	dialer := &net.Dialer{Timeout: 15 * time.Second}
	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				c, err := dialer.DialContext(ctx, network, addr)
				if err != nil {
					return nil, err
				}
				return &transport.StallConn{Conn: c, Timeout: stallTimeout}, nil
			},
			ReadBufferSize:      bufSize,
			WriteBufferSize:     bufSize,
			TLSHandshakeTimeout: 10 * time.Second,
			DisableKeepAlives:   true,
		},
	}
}

// CheckForUpdate issues a metadata-only request to the configured firmware
// URL and compares the entity tag against the persisted one. The first
// observation just records a baseline; a differing tag schedules a pending
// update to be executed from the main loop with a clean memory state.
func (s *UpdateService) CheckForUpdate(ctx context.Context) error {
	c := s.cfg.Load()
	if c.FirmwareURL == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.FirmwareURL, nil)
	if err != nil {
		return fmt.Errorf("build update check: %w", err)
	}
	resp, err := s.clientFor(attemptBufSizes[0]).Do(req)
	if err != nil {
		return fmt.Errorf("update check: %w", err)
	}
	defer resp.Body.Close()

	etag := resp.Header.Get("ETag")
	if etag == "" {
		return nil
	}

	if c.FirmwareETag == "" {
		c.FirmwareETag = etag
		if err := s.cfg.Save(c); err != nil {
			return fmt.Errorf("record baseline etag: %w", err)
		}
		s.record(ctx, models.EventOTACheck, "recorded baseline firmware etag", map[string]any{"etag": etag})
		return nil
	}

	if etag != c.FirmwareETag {
		s.mu.Lock()
		s.pending = etag
		s.mu.Unlock()
		s.record(ctx, models.EventOTACheck, "firmware update available", map[string]any{"etag": etag})
	}
	return nil
}

// PendingTarget reports a scheduled update's target entity tag.
func (s *UpdateService) PendingTarget() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending, s.pending != ""
}

// PerformUpdate downloads and applies the image. Every exit path reboots:
// on success after persisting the entity tag, on fatal errors without
// committing, and after the bounded retry budget is spent. A reboot from a
// known-clean state beats resuming with a possibly half-applied image.
func (s *UpdateService) PerformUpdate(targetETag string) {
	s.release()

	c := s.cfg.Load()
	jctx, cancel := context.WithTimeout(context.Background(), otaJoinTimeout)
	err := s.radio.Join(jctx, c.SSID, c.Password)
	cancel()
	if err != nil {
		s.fatal("network join failed", err)
		return
	}

	for attempt := 0; attempt < updateAttempts; attempt++ {
		ok, fatalErr := s.attempt(c.FirmwareURL, attemptBufSizes[attempt])
		if fatalErr != nil {
			s.fatal("download aborted", fatalErr)
			return
		}
		if !ok {
			if s.log != nil {
				s.log.Warnw("download attempt failed", "attempt", attempt+1, "of", updateAttempts)
			}
			continue
		}

		c = s.cfg.Load()
		c.FirmwareETag = targetETag
		if err := s.cfg.Save(c); err != nil {
			s.fatal("persist firmware etag", err)
			return
		}
		s.record(context.Background(), models.EventOTAResult, "firmware update applied", map[string]any{"etag": targetETag})
		s.power.Reboot("firmware update applied")
		return
	}
	s.fatal("all download attempts failed", nil)
}

// attempt performs one GET/stream/verify cycle. ok means committed; a
// non-nil error is fatal and must end in a reboot; (false, nil) is a
// retryable connection or status failure.
func (s *UpdateService) attempt(url string, bufSize int) (ok bool, fatal error) {
	resp, err := s.clientFor(bufSize).Get(url)
	if err != nil {
		if s.log != nil {
			s.log.Warnw("firmware GET failed", "err", err)
		}
		return false, nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		if s.log != nil {
			s.log.Warnw("firmware GET status", "status", resp.StatusCode)
		}
		return false, nil
	}

	declared := resp.ContentLength // -1 when the server does not declare one
	if err := s.image.Begin(declared); err != nil {
		return false, fmt.Errorf("reserve image space: %w", err)
	}

	var received, lastReport int64
	buf := make([]byte, otaChunk)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := s.image.Write(buf[:n]); werr != nil {
				s.image.Abort()
				return false, fmt.Errorf("image write: %w", werr)
			}
			received += int64(n)
			if received-lastReport >= progressEvery {
				lastReport = received
				if s.log != nil {
					s.log.Infow("download progress", "received", received, "declared", declared)
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			s.image.Abort()
			return false, fmt.Errorf("download stalled or broken: %w", rerr)
		}
	}

	if declared >= 0 && received != declared {
		s.image.Abort()
		return false, fmt.Errorf("integrity failure: received %d of %d bytes", received, declared)
	}
	if err := s.image.Commit(); err != nil {
		return false, fmt.Errorf("commit image: %w", err)
	}
	return true, nil
}

func (s *UpdateService) fatal(msg string, err error) {
	if s.log != nil {
		s.log.Errorw("firmware update failed", "reason", msg, "err", err)
	}
	meta := map[string]any{"reason": msg}
	if err != nil {
		meta["err"] = err.Error()
	}
	s.record(context.Background(), models.EventOTAResult, "firmware update failed: "+msg, meta)
	s.power.Reboot("firmware update failed: " + msg)
}

func (s *UpdateService) record(ctx context.Context, typ, desc string, meta any) {
	if s.events != nil {
		s.events.Record(ctx, typ, desc, meta)
	}
}
