package progress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hiinaspace/animutools/internal/logging"
)

const (
	defaultAcceptTick  = 1 * time.Second
	defaultReadTimeout = 5 * time.Second
	defaultJoinTimeout = 2 * time.Second
)

// ListenerOption configures a Listener.
type ListenerOption func(*Listener)

// WithReadTimeout overrides the per-connection idle timeout. A timed-out read
// is retried, not treated as an error, since ffmpeg may pause between updates.
func WithReadTimeout(d time.Duration) ListenerOption {
	return func(l *Listener) {
		if d > 0 {
			l.readTimeout = d
		}
	}
}

// WithJoinTimeout overrides how long Stop waits for background goroutines.
func WithJoinTimeout(d time.Duration) ListenerOption {
	return func(l *Listener) {
		if d > 0 {
			l.joinTimeout = d
		}
	}
}

// Listener accepts one ffmpeg progress connection on a loopback TCP port and
// feeds parsed events to its handler.
type Listener struct {
	handler Handler
	logger  *slog.Logger

	acceptTick  time.Duration
	readTimeout time.Duration
	joinTimeout time.Duration

	mu      sync.Mutex
	ln      net.Listener
	url     string
	started bool

	running  atomic.Bool
	busy     atomic.Bool
	acceptWG sync.WaitGroup
	connWG   sync.WaitGroup
	stopOnce sync.Once
}

// NewListener constructs a Listener delivering events to handler.
func NewListener(handler Handler, logger *slog.Logger, opts ...ListenerOption) *Listener {
	l := &Listener{
		handler:     handler,
		logger:      logging.NewComponentLogger(logger, "progress"),
		acceptTick:  defaultAcceptTick,
		readTimeout: defaultReadTimeout,
		joinTimeout: defaultJoinTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start binds an ephemeral loopback port and begins accepting in the
// background. It returns the address in the form ffmpeg's -progress flag
// expects (tcp://127.0.0.1:<port>).
func (l *Listener) Start() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return "", errors.New("progress: listener already started")
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("progress: bind listener: %w", err)
	}

	l.ln = ln
	l.url = "tcp://" + ln.Addr().String()
	l.started = true
	l.running.Store(true)
	l.logger.Debug("progress listener ready", logging.String("url", l.url))

	l.acceptWG.Add(1)
	go l.acceptLoop(ln)
	return l.url, nil
}

// URL returns the listener address, or the empty string before Start.
func (l *Listener) URL() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.url
}

// Stop shuts the listener down: no new connections are accepted, the socket is
// closed, and background goroutines are joined with a bounded wait. Stop is
// idempotent and safe to call even if Start never ran or no client connected.
func (l *Listener) Stop() {
	l.stopOnce.Do(func() {
		l.running.Store(false)

		l.mu.Lock()
		ln := l.ln
		l.mu.Unlock()
		if ln != nil {
			_ = ln.Close()
		}

		if !waitTimeout(&l.acceptWG, l.joinTimeout) {
			l.logger.Warn("accept loop did not stop within timeout")
		}
		if !waitTimeout(&l.connWG, l.joinTimeout) {
			l.logger.Warn("connection handler did not stop within timeout")
		}
		l.logger.Debug("progress listener stopped")
	})
}

func (l *Listener) acceptLoop(ln net.Listener) {
	defer l.acceptWG.Done()

	tcpLn, _ := ln.(*net.TCPListener)
	for l.running.Load() {
		if tcpLn != nil {
			// Short deadline so Stop is observed promptly.
			_ = tcpLn.SetDeadline(time.Now().Add(l.acceptTick))
		}
		conn, err := ln.Accept()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if l.running.Load() {
				l.logger.Error("accept failed", logging.Error(err))
			}
			return
		}

		// Only one encoder is expected per listener lifetime; anything else
		// is dropped without reading so it cannot disturb the live session.
		if !l.busy.CompareAndSwap(false, true) {
			l.logger.Warn("already handling a progress connection; rejecting",
				logging.String("remote", conn.RemoteAddr().String()))
			_ = conn.Close()
			continue
		}

		l.logger.Debug("progress connection accepted",
			logging.String("remote", conn.RemoteAddr().String()))
		l.connWG.Add(1)
		go l.handleConn(conn)
	}
}

func (l *Listener) handleConn(conn net.Conn) {
	defer func() {
		_ = conn.Close()
		l.busy.Store(false)
		l.connWG.Done()
	}()

	l.handler.HandleEvent(Event{Key: "start", Value: "connected", HasValue: true})

	var buffer []byte
	chunk := make([]byte, 1024)
	for l.running.Load() {
		_ = conn.SetReadDeadline(time.Now().Add(l.readTimeout))
		n, err := conn.Read(chunk)
		if n > 0 {
			buffer = append(buffer, chunk[:n]...)
			buffer = l.emitCompleteLines(buffer)
		}
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if !errors.Is(err, io.EOF) && l.running.Load() {
				l.logger.Debug("progress connection read failed", logging.Error(err))
			}
			break
		}
	}

	// A final line without a trailing newline still counts.
	l.emitLine(buffer)
}

func (l *Listener) emitCompleteLines(buffer []byte) []byte {
	for {
		idx := bytes.IndexByte(buffer, '\n')
		if idx < 0 {
			return buffer
		}
		l.emitLine(buffer[:idx])
		buffer = buffer[idx+1:]
	}
}

func (l *Listener) emitLine(line []byte) {
	// Tolerate undecodable byte sequences instead of failing the session.
	text := strings.TrimSpace(strings.ToValidUTF8(string(line), ""))
	if text == "" {
		return
	}
	key, value, hasValue := strings.Cut(text, "=")
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	if hasValue {
		l.handler.HandleEvent(Event{Key: key, Value: strings.TrimSpace(value), HasValue: true})
		return
	}
	l.handler.HandleEvent(Event{Key: key})
}

func waitTimeout(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
