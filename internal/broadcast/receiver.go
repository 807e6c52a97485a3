package broadcast

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/yndnr/snapmesh-go/internal/telemetry/logger"
	"github.com/yndnr/snapmesh-go/internal/telemetry/metric"
)

// maxLineSize bounds one message; whole groups are sent per line.
const maxLineSize = 16 << 20

// Handler is called for every decoded message. Calls may be concurrent
// when several senders are connected.
type Handler func(Received)

// Receiver accepts broadcast connections.
type Receiver struct {
	network string
	addr    string
	handler Handler
	logger  logger.Logger
	metrics *metric.Registry

	listener net.Listener
	running  atomic.Bool
	wg       sync.WaitGroup

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// NewReceiver creates a receiver for network/addr.
func NewReceiver(network, addr string, handler Handler, l logger.Logger, m *metric.Registry) *Receiver {
	if l == nil {
		l = logger.Default()
	}
	return &Receiver{
		network: network,
		addr:    addr,
		handler: handler,
		logger:  l,
		metrics: m,
		conns:   make(map[net.Conn]struct{}),
	}
}

// Listen binds the address without accepting yet.
func (r *Receiver) Listen() error {
	ln, err := net.Listen(r.network, r.addr)
	if err != nil {
		return err
	}
	r.listener = ln
	r.running.Store(true)
	r.logger.Info("broadcast receiver listening", "network", r.network, "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (r *Receiver) Addr() net.Addr {
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

// ListenAndServe binds and serves until Shutdown.
func (r *Receiver) ListenAndServe() error {
	if err := r.Listen(); err != nil {
		return err
	}
	return r.Serve()
}

// Serve accepts connections on a listener set up by Listen.
func (r *Receiver) Serve() error {
	for {
		conn, err := r.listener.Accept()
		if err != nil {
			if !r.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		if !r.track(conn) {
			return nil
		}
		go func() {
			defer r.wg.Done()
			defer r.untrack(conn)
			r.handleConnection(conn)
		}()
	}
}

// Shutdown stops accepting, closes open connections and waits for their
// handlers to return or ctx to expire.
func (r *Receiver) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.running.Store(false)
	r.mu.Unlock()

	var closeErr error
	if r.listener != nil {
		closeErr = r.listener.Close()
	}

	r.mu.Lock()
	for conn := range r.conns {
		conn.Close()
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return closeErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// track registers conn and its handler with the wait group. A conn
// accepted after Shutdown began is closed and rejected.
func (r *Receiver) track(conn net.Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running.Load() {
		conn.Close()
		return false
	}
	r.conns[conn] = struct{}{}
	r.wg.Add(1)
	return true
}

func (r *Receiver) untrack(conn net.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, conn)
}

func (r *Receiver) handleConnection(conn net.Conn) {
	defer conn.Close()

	ctx := logger.WithLogger(context.Background(), r.logger)
	log := logger.L(logger.WithPeer(ctx, conn.RemoteAddr().String()))
	log.Debug("broadcast sender connected")

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg Received
		if err := json.Unmarshal(line, &msg); err != nil {
			log.Warn("discarding malformed broadcast line", "error", err)
			continue
		}
		r.metrics.ObserveReceived()
		if r.handler != nil {
			r.handler(msg)
		}
	}
	if err := scanner.Err(); err != nil && r.running.Load() && !errors.Is(err, net.ErrClosed) {
		log.Warn("broadcast connection ended", "error", err)
	}
}
