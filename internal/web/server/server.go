// Package server exposes filter translation over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Config describes one listener and the handler behind it
type Config struct {
	// Address to bind, host:port. Port 0 picks a free port.
	Address string
	Handler http.Handler

	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	// WriteTimeout of zero lets responses stream indefinitely
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MaxHeaderBytes int
}

// DefaultConfig returns timeouts suited to short translation requests
func DefaultConfig(handler http.Handler) *Config {
	return &Config{
		Address:           "localhost:3000",
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       time.Minute,
		MaxHeaderBytes:    1 << 20,
	}
}

// Server serves one handler on one listener
type Server struct {
	address  string
	http     *http.Server
	listener net.Listener
}

// New validates config and prepares a server without binding it
func New(config *Config) (*Server, error) {
	switch {
	case config == nil:
		return nil, errors.New("server config cannot be nil")
	case config.Handler == nil:
		return nil, errors.New("handler cannot be nil")
	}

	return &Server{
		address: config.Address,
		http: &http.Server{
			Handler:           config.Handler,
			ReadTimeout:       config.ReadTimeout,
			ReadHeaderTimeout: config.ReadHeaderTimeout,
			WriteTimeout:      config.WriteTimeout,
			IdleTimeout:       config.IdleTimeout,
			MaxHeaderBytes:    config.MaxHeaderBytes,
		},
	}, nil
}

// Listen binds the address without serving, so Addr can report the port
// picked for ":0" before the first request. Calling it twice is a no-op.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	l, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	s.listener = l
	return nil
}

// Start binds if needed and serves until shutdown, which returns
// http.ErrServerClosed
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.http.Serve(s.listener)
}

// Shutdown stops accepting connections and waits for active requests.
// Hijacked connections are not tracked.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Close drops every connection at once
func (s *Server) Close() error {
	return s.http.Close()
}

// Addr is the bound address once listening, the configured one before
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.address
	}
	return s.listener.Addr().String()
}
