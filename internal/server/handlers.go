package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/lgbarn/escort-chess-go/internal/board"
	escerr "github.com/lgbarn/escort-chess-go/internal/errors"
	"github.com/lgbarn/escort-chess-go/internal/output"
	"github.com/lgbarn/escort-chess-go/internal/session"
)

// ---- JSON helpers ----

func (s *Server) withJSON(h func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeStatus(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	writeJSON(w, v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	writeJSON(w, map[string]string{"error": msg})
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// decodeBody reads a JSON body into dst. An empty body leaves dst as is.
// On failure the error response has been written and false is returned.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return true
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		if isBodyTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "request too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// statusFor maps a domain error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, escerr.ErrUnknownPiece), errors.Is(err, escerr.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, escerr.ErrPathBlocked),
		errors.Is(err, escerr.ErrMotionInFlight),
		errors.Is(err, escerr.ErrNoSelection),
		errors.Is(err, escerr.ErrTileOccupied):
		return http.StatusConflict
	case errors.Is(err, escerr.ErrNoPath),
		errors.Is(err, escerr.ErrOutOfBounds),
		errors.Is(err, escerr.ErrSelfDefence),
		errors.Is(err, escerr.ErrNotAlly):
		return http.StatusUnprocessableEntity
	case errors.Is(err, escerr.ErrInvalidLayout), errors.Is(err, escerr.ErrInvalidConfig):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

// ---- path parameters ----

func (s *Server) entryFor(w http.ResponseWriter, r *http.Request) (*entry, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return nil, false
	}
	e, ok := s.lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return e, true
}

func intVar(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return n, true
}

func pieceVar(w http.ResponseWriter, r *http.Request) (board.PieceID, bool) {
	n, ok := intVar(w, r, "pid")
	return board.PieceID(n), ok
}

// ---- API: sessions ----

type createBody struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Layout string `json:"layout"`
}

type sessionResponse struct {
	ID    uuid.UUID     `json:"id"`
	State session.State `json:"state"`
}

type sessionSummary struct {
	ID      uuid.UUID `json:"id"`
	Created time.Time `json:"created"`
	Width   int       `json:"width"`
	Height  int       `json:"height"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body createBody
	if !decodeBody(w, r, &body) {
		return
	}

	var (
		sess *session.Session
		err  error
	)
	switch {
	case body.Layout != "":
		sess, err = session.NewFromLayout(body.Layout, s.sessionOptions()...)
		if err == nil && (body.Width != 0 || body.Height != 0) {
			if w0, h0 := sess.Size(); w0 != body.Width || h0 != body.Height {
				writeError(w, http.StatusBadRequest, "layout does not match width and height")
				return
			}
		}
	case body.Width != 0 || body.Height != 0:
		sess, err = session.NewEmpty(body.Width, body.Height, s.sessionOptions()...)
	case s.cfg.Board.Layout != "":
		sess, err = session.NewFromLayout(s.cfg.Board.Layout, s.sessionOptions()...)
	default:
		sess, err = session.NewEmpty(s.cfg.Board.Width, s.cfg.Board.Height, s.sessionOptions()...)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.add(sess)
	s.log.Info().Str("session", sess.ID().String()).Msg("session created")
	writeStatus(w, http.StatusCreated, sessionResponse{ID: sess.ID(), State: sess.State()})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	out := make([]sessionSummary, 0)
	for _, e := range s.entries() {
		width, height := e.sess.Size()
		out = append(out, sessionSummary{ID: e.sess.ID(), Created: e.sess.Created(), Width: width, Height: height})
	}
	writeJSON(w, map[string]any{"sessions": out})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, e.sess.State())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	s.remove(e.sess.ID())
	s.log.Info().Str("session", e.sess.ID().String()).Msg("session deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	x, ok := intVar(w, r, "x")
	if !ok {
		return
	}
	y, ok := intVar(w, r, "y")
	if !ok {
		return
	}
	tile, ok := e.sess.GetTile(x, y)
	if !ok {
		writeError(w, http.StatusNotFound, "no such tile")
		return
	}
	writeJSON(w, tile)
}

// ---- API: selection ----

type selectBody struct {
	Piece board.PieceID `json:"piece"`
	Kind  string        `json:"kind"`
}

type pointBody struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

func (b pointBody) valid() bool { return b.X != nil && b.Y != nil }

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	var body selectBody
	if !decodeBody(w, r, &body) {
		return
	}

	var (
		outcome session.SelectOutcome
		err     error
	)
	switch {
	case body.Piece != board.NoPiece:
		outcome, err = e.sess.SelectPiece(body.Piece)
	case body.Kind != "":
		kind, ok := board.ParseKind(body.Kind)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown kind")
			return
		}
		outcome, err = e.sess.SelectPieceByKind(kind)
	default:
		writeError(w, http.StatusBadRequest, "piece or kind required")
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, map[string]any{"outcome": outcome.String(), "state": e.sess.State()})
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	var body pointBody
	if !decodeBody(w, r, &body) {
		return
	}
	if !body.valid() {
		writeError(w, http.StatusBadRequest, "x and y required")
		return
	}
	res, err := e.sess.Click(*body.X, *body.Y)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, res)
}

// ---- API: pieces ----

type addPieceBody struct {
	Kind string `json:"kind"`
	Team string `json:"team"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleAddPiece(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	var body addPieceBody
	if !decodeBody(w, r, &body) {
		return
	}
	kind, ok := board.ParseKind(body.Kind)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown kind")
		return
	}
	team, ok := board.ParseTeam(body.Team)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown team")
		return
	}
	info, err := e.sess.AddPiece(kind, team, body.X, body.Y)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeStatus(w, http.StatusCreated, info)
}

func (s *Server) handleRemovePiece(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	id, ok := pieceVar(w, r)
	if !ok {
		return
	}
	if err := e.sess.RemovePiece(id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoves(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	id, ok := pieceVar(w, r)
	if !ok {
		return
	}
	moves, err := e.sess.GetLegalMoves(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if moves == nil {
		moves = []board.Coord{}
	}
	writeJSON(w, map[string]any{"piece": id, "moves": moves})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	id, ok := pieceVar(w, r)
	if !ok {
		return
	}
	var body pointBody
	if !decodeBody(w, r, &body) {
		return
	}
	if !body.valid() {
		writeError(w, http.StatusBadRequest, "x and y required")
		return
	}
	path, err := e.sess.RequestMove(id, *body.X, *body.Y)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeStatus(w, http.StatusAccepted, map[string]any{"piece": id, "path": path})
}

type modeBody struct {
	Mode string `json:"mode"`
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	id, ok := pieceVar(w, r)
	if !ok {
		return
	}
	var body modeBody
	if !decodeBody(w, r, &body) {
		return
	}

	var (
		mode board.Mode
		err  error
	)
	if body.Mode == "" {
		mode, err = e.sess.ToggleMode(id)
	} else {
		m, ok := board.ParseMode(body.Mode)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown mode")
			return
		}
		mode, err = m, e.sess.SetMode(id, m)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, map[string]any{"piece": id, "mode": mode.String()})
}

type defendBody struct {
	Ally board.PieceID `json:"ally"`
}

func (s *Server) handleDefend(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	id, ok := pieceVar(w, r)
	if !ok {
		return
	}
	var body defendBody
	if !decodeBody(w, r, &body) {
		return
	}
	if err := e.sess.SetDefendTarget(id, body.Ally); err != nil {
		writeDomainError(w, err)
		return
	}
	info, err := e.sess.Piece(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, info)
}

// ---- API: snapshots ----

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "storage disabled")
		return
	}
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	snap, err := e.sess.Snapshot()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.store.Save(snap); err != nil {
		s.log.Error().Err(err).Str("session", snap.ID.String()).Msg("save snapshot")
		writeDomainError(w, err)
		return
	}
	writeJSON(w, map[string]any{"id": snap.ID, "savedAt": snap.SavedAt})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "storage disabled")
		return
	}
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	snap, err := s.store.Load(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	sess, err := session.Restore(snap, s.sessionOptions()...)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.add(sess)
	s.log.Info().Str("session", sess.ID().String()).Msg("session loaded")
	writeJSON(w, sessionResponse{ID: sess.ID(), State: sess.State()})
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "storage disabled")
		return
	}
	ids, err := s.store.List()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	writeJSON(w, map[string]any{"snapshots": ids})
}

// ---- board view and event stream ----

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	opts := output.BoardOptions{
		Color:        r.URL.Query().Get("color") != "",
		Highlights:   e.sess.Highlights(),
		Reservations: true,
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	var err error
	e.sess.Inspect(func(b *board.Board) { err = output.RenderBoard(w, b, opts) })
	if err != nil {
		s.log.Debug().Err(err).Msg("render board")
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entryFor(w, r)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		s.log.Debug().Err(err).Msg("websocket upgrade")
		return
	}
	if !e.hub.attach(conn, stateMessage(e.sess.State())) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
			time.Now().Add(writeWait))
		conn.Close()
	}
}
