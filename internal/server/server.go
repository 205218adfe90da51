// Package server exposes configuration channels over a stream socket.
// Each accepted connection is one request/response exchange: the client
// sends its request bytes and half-closes, the server runs the
// channel's transform and streams the response back.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/errgroup"

	"github.com/mejarrett/netmap/internal/confchan"
	"github.com/mejarrett/netmap/internal/config"
	"github.com/mejarrett/netmap/internal/jsonscan"
)

// historySize bounds the completed-session stats kept for debugging.
const historySize = 128

// Server accepts connections and runs one configuration exchange per
// connection, each against its own channel.
type Server struct {
	log       *slog.Logger
	cfg       *config.Config
	transform confchan.Transform
	ln        net.Listener
	history   *lru.Cache[string, SessionStats]
}

// New builds a server from the loaded configuration.
func New(cfg *config.Config, log *slog.Logger) (*Server, error) {
	transform, err := transformByName(cfg.GetTransform())
	if err != nil {
		return nil, err
	}
	history, err := lru.New[string, SessionStats](historySize)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		log:       log.With("component", "confserver"),
		cfg:       cfg,
		transform: transform,
		history:   history,
	}, nil
}

func transformByName(name string) (confchan.Transform, error) {
	switch name {
	case "compact":
		return jsonscan.Compact, nil
	case "echo":
		return confchan.Echo, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("server: unknown transform %q", name)
	}
}

// Listen binds the configured socket. Serve calls it implicitly; tests
// call it directly to learn the bound address before serving.
func (s *Server) Listen() error {
	if s.cfg.Listen.Network == "unix" {
		// An unclean shutdown may have left the socket file behind.
		_ = os.Remove(s.cfg.Listen.Address)
	}
	ln, err := net.Listen(s.cfg.Listen.Network, s.cfg.Listen.Address)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	s.ln = ln
	s.log.Info("listening", "network", s.cfg.Listen.Network, "address", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts connections until ctx is cancelled, bounding concurrent
// sessions to the configured maximum and waiting for in-flight
// exchanges to finish before returning.
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	defer func() {
		if s.cfg.Listen.Network == "unix" {
			_ = os.Remove(s.cfg.Listen.Address)
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		return s.ln.Close()
	})
	g.Go(func() error {
		sessions := pool.New().WithMaxGoroutines(s.cfg.GetMaxSessions())
		defer sessions.Wait()
		for {
			conn, err := s.ln.Accept()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return nil
				}
				return fmt.Errorf("server: accept: %w", err)
			}
			sessions.Go(func() {
				s.handle(conn)
			})
		}
	})
	return g.Wait()
}

// RecentSessions returns stats for recently completed exchanges,
// oldest first.
func (s *Server) RecentSessions() []SessionStats {
	return s.history.Values()
}
