// Package server exposes sessions over HTTP and streams their motion events
// over websockets.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lgbarn/escort-chess-go/internal/config"
	"github.com/lgbarn/escort-chess-go/internal/session"
)

const maxJSONBodyBytes = 1 << 20

// SnapshotStore persists settled sessions.
type SnapshotStore interface {
	Save(snap session.Snapshot) error
	Load(id uuid.UUID) (session.Snapshot, error)
	List() ([]uuid.UUID, error)
}

type entry struct {
	sess *session.Session
	hub  *hub
}

// Server holds the live sessions and serves them.
type Server struct {
	cfg   *config.Config
	log   zerolog.Logger
	store SnapshotStore

	mu       sync.RWMutex
	sessions map[uuid.UUID]*entry

	upgrader websocket.Upgrader

	srvMu sync.Mutex
	srv   *http.Server
}

// New creates a server. store may be nil, which disables save and load.
func New(cfg *config.Config, store SnapshotStore, log zerolog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		log:      log.With().Str("component", "server").Logger(),
		store:    store,
		sessions: make(map[uuid.UUID]*entry),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Handler returns the routed API wrapped in CORS, request logging and panic
// recovery.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/snapshots", s.withJSON(s.handleListSnapshots)).Methods(http.MethodGet)
	api.HandleFunc("/sessions", s.withJSON(s.handleCreate)).Methods(http.MethodPost)
	api.HandleFunc("/sessions", s.withJSON(s.handleList)).Methods(http.MethodGet)
	api.HandleFunc("/sessions/load/{id}", s.withJSON(s.handleLoad)).Methods(http.MethodPost)

	api.HandleFunc("/sessions/{id}", s.withJSON(s.handleGet)).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", s.withJSON(s.handleDelete)).Methods(http.MethodDelete)

	sess := api.PathPrefix("/sessions/{id}").Subrouter()
	sess.HandleFunc("/tiles/{x}/{y}", s.withJSON(s.handleTile)).Methods(http.MethodGet)
	sess.HandleFunc("/select", s.withJSON(s.handleSelect)).Methods(http.MethodPost)
	sess.HandleFunc("/click", s.withJSON(s.handleClick)).Methods(http.MethodPost)
	sess.HandleFunc("/pieces", s.withJSON(s.handleAddPiece)).Methods(http.MethodPost)
	sess.HandleFunc("/pieces/{pid}", s.withJSON(s.handleRemovePiece)).Methods(http.MethodDelete)
	sess.HandleFunc("/pieces/{pid}/moves", s.withJSON(s.handleMoves)).Methods(http.MethodGet)
	sess.HandleFunc("/pieces/{pid}/move", s.withJSON(s.handleMove)).Methods(http.MethodPost)
	sess.HandleFunc("/pieces/{pid}/mode", s.withJSON(s.handleMode)).Methods(http.MethodPost)
	sess.HandleFunc("/pieces/{pid}/defend", s.withJSON(s.handleDefend)).Methods(http.MethodPost)
	sess.HandleFunc("/save", s.withJSON(s.handleSave)).Methods(http.MethodPost)
	sess.HandleFunc("/board", s.handleBoard).Methods(http.MethodGet)
	sess.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedOrigins(s.cfg.Server.AllowedOrigins),
	)
	logged := handlers.CustomLoggingHandler(io.Discard, cors(r), s.logRequest)
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.log}),
		handlers.PrintRecoveryStack(true),
	)(logged)
}

// Listen serves until Close is called.
func (s *Server) Listen(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	s.srvMu.Lock()
	s.srv = srv
	s.srvMu.Unlock()

	s.log.Info().Str("addr", addr).Msg("listening")
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close shuts the HTTP server down and disconnects every subscriber.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	for id, e := range s.sessions {
		e.hub.closeAll()
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	s.srvMu.Lock()
	srv := s.srv
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Run advances every live session once per tick interval and fans the
// resulting events out to subscribers. It returns when ctx is done.
func (s *Server) Run(ctx context.Context) {
	interval := s.cfg.Motion.TickInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Step(now.Sub(last).Seconds())
			last = now
		}
	}
}

// Step advances every live session by dt seconds.
func (s *Server) Step(dt float64) {
	for _, e := range s.entries() {
		if events := e.sess.Tick(dt); len(events) > 0 {
			e.hub.broadcast(eventsMessage(events))
		}
	}
}

func (s *Server) add(sess *session.Session) *entry {
	e := &entry{sess: sess, hub: newHub(s.log.With().Str("session", sess.ID().String()).Logger())}
	s.mu.Lock()
	if old, ok := s.sessions[sess.ID()]; ok {
		old.hub.closeAll()
	}
	s.sessions[sess.ID()] = e
	s.mu.Unlock()
	return e
}

func (s *Server) lookup(id uuid.UUID) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	return e, ok
}

func (s *Server) remove(id uuid.UUID) bool {
	s.mu.Lock()
	e, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		e.hub.closeAll()
	}
	return ok
}

func (s *Server) entries() []*entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entry, 0, len(s.sessions))
	for _, e := range s.sessions {
		out = append(out, e)
	}
	return out
}

func (s *Server) sessionOptions() []session.Option {
	return []session.Option{
		session.WithSpeed(s.cfg.Motion.Speed),
		session.WithLogger(s.log),
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.cfg.Server.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

func (s *Server) logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	s.log.Debug().
		Str("method", p.Request.Method).
		Str("path", p.URL.Path).
		Int("status", p.StatusCode).
		Int("size", p.Size).
		Dur("took", time.Since(p.TimeStamp)).
		Msg("request")
}

type recoveryLogger struct {
	log zerolog.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.log.Error().Msg(fmt.Sprint(v...))
}
