// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statusserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/bureau-foundation/iometer/lib/telemetry"
)

const (
	writeTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// StreamSource lists and looks up running streams. *telemetry.Registry
// implements it.
type StreamSource interface {
	Names() []string
	Lookup(name string) (*telemetry.Telemetry, bool)
}

// Server is the status HTTP server.
type Server struct {
	source   StreamSource
	hub      *Hub
	logger   *slog.Logger
	router   *mux.Router
	upgrader websocket.Upgrader
}

// New creates a Server over source. hub must also be configured as a
// sink of the streams in source.
func New(source StreamSource, hub *Hub, logger *slog.Logger) *Server {
	s := &Server{
		source: source,
		hub:    hub,
		logger: logger,
		router: mux.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/streams", s.handleStreams).Methods(http.MethodGet)
	api.HandleFunc("/streams/{stream}/report", s.handleReport).Methods(http.MethodGet)
	api.HandleFunc("/streams/{stream}/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/streams/{stream}/watch", s.handleWatch).Methods(http.MethodGet)
	return s
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve serves on listener until ctx is cancelled, then shuts down.
// Open watch connections are closed through their request contexts.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()
	s.logger.Info("status server listening", "addr", listener.Addr().String())

	select {
	case err := <-serveErr:
		return fmt.Errorf("status server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("status server shutdown: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("status server: %w", err)
	}
	return nil
}

// StreamList is the response of GET /api/v1/streams.
type StreamList struct {
	Streams []string `json:"streams"`
}

func (s *Server) handleStreams(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, StreamList{Streams: s.source.Names()})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	stream, ok := s.lookup(w, r)
	if !ok {
		return
	}
	latest := stream.Latest()
	if latest == nil {
		s.writeError(w, http.StatusNotFound, "stream %q has not published a report yet", stream.Name())
		return
	}
	s.writeJSON(w, http.StatusOK, latest)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	stream, ok := s.lookup(w, r)
	if !ok {
		return
	}
	summary, ok := s.hub.Latest(stream.Name())
	if !ok {
		s.writeError(w, http.StatusNotFound, "stream %q has no summary yet", stream.Name())
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	stream, ok := s.lookup(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Warn("websocket upgrade failed", "stream", stream.Name(), "error", err)
		return
	}
	defer conn.Close()

	updates, unsubscribe := s.hub.Subscribe(stream.Name())
	defer unsubscribe()

	// Watchers send nothing; reading only detects the close.
	peerClosed := make(chan struct{})
	go func() {
		defer close(peerClosed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			deadline := time.Now().Add(writeTimeout)
			message := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, message, deadline)
			return
		case <-peerClosed:
			return
		case summary := <-updates:
			if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := conn.WriteJSON(summary); err != nil {
				if isExpectedCloseError(err) {
					s.logger.Debug("watcher went away", "stream", stream.Name(), "error", err)
				} else {
					s.logger.Warn("watch write failed", "stream", stream.Name(), "error", err)
				}
				return
			}
		}
	}
}

// lookup resolves the {stream} route variable, writing a 404 if there
// is no such stream.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*telemetry.Telemetry, bool) {
	name := mux.Vars(r)["stream"]
	stream, ok := s.source.Lookup(name)
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown stream %q", name)
		return nil, false
	}
	return stream, true
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, format string, args ...any) {
	s.writeJSON(w, status, ErrorResponse{Error: fmt.Sprintf(format, args...)})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Debug("writing response failed", "status", status, "error", err)
	}
}

// isExpectedCloseError reports whether err is a watcher disconnecting:
// EOF, a closed connection, a broken pipe, or a reset.
func isExpectedCloseError(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}
