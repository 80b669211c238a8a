// Package server owns the HTTP listener lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	defaultReadHeaderTimeout = 10 * time.Second
	defaultWriteTimeout      = 10 * time.Second
	keepAliveTimeout         = 60 * time.Second
	headerLimit              = 1 << 20
)

// Timeouts tunes the listener. Non-positive values take the defaults.
type Timeouts struct {
	ReadHeader time.Duration
	Write      time.Duration
}

// Server binds eagerly in Start, so a busy port fails fast instead of
// surfacing later from a goroutine.
type Server struct {
	http *http.Server
	ln   net.Listener
	done chan error
}

// New prepares a server for port ("8080" or ":8080"); nothing listens until Start.
func New(port string, handler http.Handler, t Timeouts) *Server {
	return &Server{
		http: &http.Server{
			Addr:              listenAddr(port),
			Handler:           handler,
			MaxHeaderBytes:    headerLimit,
			ReadHeaderTimeout: positiveOr(t.ReadHeader, defaultReadHeaderTimeout),
			WriteTimeout:      positiveOr(t.Write, defaultWriteTimeout),
			IdleTimeout:       keepAliveTimeout,
		},
		done: make(chan error, 1),
	}
}

// Start opens the listener and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.http.Addr, err)
	}
	s.ln = ln
	go func() {
		err := s.http.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.done <- err
	}()
	return nil
}

// Done yields once when serving stops: nil after Shutdown, the cause otherwise.
func (s *Server) Done() <-chan error { return s.done }

// Addr is the bound address, useful when port is "0".
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.http.Addr
	}
	return s.ln.Addr().String()
}

// Shutdown drains in-flight requests. Calling it before Start is a no-op.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func positiveOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

func listenAddr(port string) string {
	if port == "" || strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}
