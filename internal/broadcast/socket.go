package broadcast

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/snapmesh-go/internal/telemetry/logger"
	"github.com/yndnr/snapmesh-go/internal/telemetry/metric"
)

// SocketConfig configures a SocketChannel.
type SocketConfig struct {
	// Network is "unix" or "tcp".
	Network string
	// Addr is the socket path or host:port.
	Addr string

	// Rate is messages per second; 0 disables limiting.
	Rate float64
	// Burst is the limiter bucket size.
	Burst int

	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultSocketConfig returns a tcp configuration for addr.
func DefaultSocketConfig(addr string) SocketConfig {
	return SocketConfig{
		Network:      "tcp",
		Addr:         addr,
		Rate:         200,
		Burst:        50,
		DialTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
}

// SocketChannel writes messages as JSON lines to a socket. The connection is
// dialed on first use and redialed after a write failure.
type SocketChannel struct {
	cfg     SocketConfig
	limiter *rate.Limiter
	logger  logger.Logger
	metrics *metric.Registry

	mu     sync.Mutex
	conn   net.Conn
	closed bool
}

// SocketOption configures a SocketChannel.
type SocketOption func(*SocketChannel)

// WithLogger sets the channel logger.
func WithLogger(l logger.Logger) SocketOption {
	return func(c *SocketChannel) {
		c.logger = l
	}
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metric.Registry) SocketOption {
	return func(c *SocketChannel) {
		c.metrics = m
	}
}

// NewSocketChannel creates a channel. It does not dial.
func NewSocketChannel(cfg SocketConfig, opts ...SocketOption) *SocketChannel {
	if cfg.Network == "" {
		cfg.Network = "tcp"
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = time.Second
	}

	c := &SocketChannel{
		cfg:    cfg,
		logger: logger.Default(),
	}
	if cfg.Rate > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), burst)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendMessage encodes msg as one JSON line and writes it.
func (c *SocketChannel) SendMessage(msg Message) error {
	if c.limiter != nil && !c.limiter.Allow() {
		c.metrics.ObserveBroadcast(metric.BroadcastDropped)
		c.logger.Warn("broadcast rate exceeded, dropping message", "file", msg.File)
		return ErrDropped
	}

	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	line, err := json.Marshal(msg)
	if err != nil {
		c.metrics.ObserveBroadcast(metric.BroadcastFailed)
		return fmt.Errorf("broadcast: encode %s: %w", msg.File, err)
	}
	line = append(line, '\n')

	if err := c.write(line); err != nil {
		c.metrics.ObserveBroadcast(metric.BroadcastFailed)
		return err
	}

	c.metrics.ObserveBroadcast(metric.BroadcastSent)
	c.logger.Debug("broadcast sent", "id", msg.ID, "file", msg.File, "bytes", len(line))
	return nil
}

func (c *SocketChannel) write(line []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.conn == nil {
		conn, err := net.DialTimeout(c.cfg.Network, c.cfg.Addr, c.cfg.DialTimeout)
		if err != nil {
			return fmt.Errorf("broadcast: dial %s %s: %w", c.cfg.Network, c.cfg.Addr, err)
		}
		c.conn = conn
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if _, err := c.conn.Write(line); err != nil {
		c.conn.Close()
		c.conn = nil
		return fmt.Errorf("broadcast: write: %w", err)
	}
	return nil
}

// Close closes the connection. Later sends fail with ErrClosed.
func (c *SocketChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
