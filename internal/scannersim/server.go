package scannersim

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophprint/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// Server exposes a Simulator over HTTP, or HTTPS when a certificate is
// configured, like the real service.
type Server struct {
	addr     string
	certFile string
	keyFile  string
	sim      *Simulator
	logger   logging.Logger
}

func NewServer(addr string, sim *Simulator, logger logging.Logger) *Server {
	return &Server{addr: addr, sim: sim, logger: logger}
}

// WithTLS makes the server terminate TLS with the given key pair.
func (s *Server) WithTLS(certFile, keyFile string) *Server {
	s.certFile, s.keyFile = certFile, keyFile
	return s
}

// Run listens on the configured address and serves until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.sim.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if s.certFile != "" {
			errCh <- srv.ServeTLS(ln, s.certFile, s.keyFile)
			return
		}
		errCh <- srv.Serve(ln)
	}()

	s.logger.Info(ctx, "scanner simulator listening", "addr", ln.Addr().String(), "base_path", s.sim.options().BasePath)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info(ctx, "scanner simulator stopped")
	return nil
}
