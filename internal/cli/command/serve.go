package command

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/snapmesh-go/internal/broadcast"
	"github.com/yndnr/snapmesh-go/internal/cli/output"
	"github.com/yndnr/snapmesh-go/internal/infra/shutdown"
	"github.com/yndnr/snapmesh-go/internal/server/httpserver"
	"github.com/yndnr/snapmesh-go/internal/telemetry/metric"
)

const shutdownTimeout = 5 * time.Second

// ServeCommand returns the serve command.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Receive broadcast snapshots and print them as they arrive",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides broadcast.addr)",
			},
			&cli.StringFlag{
				Name:  "network",
				Usage: "Listen network: tcp or unix (overrides broadcast.network)",
			},
			&cli.StringFlag{
				Name:    "http-addr",
				Aliases: []string{"metrics-addr"},
				Usage:   "Serve /health, /metrics and /messages on this address",
			},
			&cli.StringSliceFlag{
				Name:  "cors-origin",
				Usage: "Allow a browser viewer on this origin to read /messages",
			},
			&cli.IntFlag{
				Name:  "keep",
				Usage: "Number of recent messages kept for /messages",
				Value: httpserver.DefaultFeedSize,
			},
		},
		Action: serve,
	}
}

// messagePrinter serializes handler output from concurrent connections.
type messagePrinter struct {
	mu     sync.Mutex
	w      io.Writer
	format output.Format
}

func (p *messagePrinter) print(msg broadcast.Received) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.format != output.FormatTable {
		// One message per line so the stream can be piped.
		line, err := json.Marshal(msg)
		if err != nil {
			return
		}
		p.w.Write(append(line, '\n'))
		return
	}
	fmt.Fprintf(p.w, "%s\t%s\t%s\n", msg.ID, msg.File, summarize(msg.Content))
}

// summarize describes message content without dumping it.
func summarize(raw json.RawMessage) string {
	var styles broadcast.Styles
	if err := json.Unmarshal(raw, &styles); err == nil && styles.Styles != "" {
		return fmt.Sprintf("styles (%d bytes)", len(styles.Styles))
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err == nil {
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		return fmt.Sprintf("%d snapshots", snapshotCount(keys))
	}
	return fmt.Sprintf("%d bytes", len(bytes.TrimSpace(raw)))
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log, err := newLogger(c, cfg)
	if err != nil {
		return err
	}
	flags := ParseGlobalFlags(c)
	format, err := output.ParseFormat(flags.Output)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	network, addr := cfg.Broadcast.Network, cfg.Broadcast.Addr
	if v := c.String("network"); v != "" {
		network = v
	}
	if v := c.String("addr"); v != "" {
		addr = v
	}

	metrics := metric.NewRegistry()
	printer := &messagePrinter{w: c.App.Writer, format: format}
	feed := httpserver.NewFeed(c.Int("keep"))
	handler := func(msg broadcast.Received) {
		feed.Add(msg)
		printer.print(msg)
	}
	recv := broadcast.NewReceiver(network, addr, handler, log, metrics)
	if err := recv.Listen(); err != nil {
		return fmt.Errorf("listen %s %s: %w", network, addr, err)
	}
	fmt.Fprintf(c.App.ErrWriter, "listening on %s %s\n", network, recv.Addr())

	h := shutdown.NewHandler(shutdownTimeout)
	h.OnShutdown(recv.Shutdown)

	serveErr := make(chan error, 2)
	go func() { serveErr <- recv.Serve() }()

	if httpAddr := c.String("http-addr"); httpAddr != "" {
		ln, err := net.Listen("tcp", httpAddr)
		if err != nil {
			h.Shutdown()
			return fmt.Errorf("listen http %s: %w", httpAddr, err)
		}
		srv := httpserver.New(httpAddr, httpserver.NewRouter(&httpserver.RouterConfig{
			Feed:               feed,
			Metrics:            metrics,
			Logger:             log,
			CORSAllowedOrigins: c.StringSlice("cors-origin"),
		}))
		h.OnShutdown(srv.Shutdown)
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}()
		log.Info("http endpoint listening", "addr", ln.Addr().String())
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	failed := make(chan error, 1)
	go func() {
		// A failing listener ends the command like a signal would.
		select {
		case err := <-serveErr:
			if err != nil {
				failed <- err
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := h.Wait(ctx); err != nil {
		return err
	}
	select {
	case err := <-failed:
		return fmt.Errorf("serve: %w", err)
	default:
		return nil
	}
}
