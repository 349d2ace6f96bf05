package handlers

import (
	"net/http"
	"time"

	"kgview/application/session"
	"kgview/domain/core/valueobjects"
	"kgview/domain/interaction"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SessionHandler handles session lifecycle and interaction requests
type SessionHandler struct {
	sessions *session.Manager
	clock    func() time.Time
	logger   *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *session.Manager, clock func() time.Time, logger *zap.Logger) *SessionHandler {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{sessions: sessions, clock: clock, logger: logger}
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, h.logger, err)
		return nil, false
	}
	return s, true
}

// CreateSession handles POST /sessions. A session whose first load fails is
// still created and reported with its error state.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	s, err := h.sessions.Create(r.Context(), session.Options{
		Mode:   parseMode(req.Mode),
		Params: req.Params,
		Query:  req.Query,
	})
	if s == nil {
		respondError(w, h.logger, err)
		return
	}
	if err != nil {
		h.logger.Warn("Session created without a graph", zap.String("sessionID", s.ID()), zap.Error(err))
	}
	respondJSON(w, h.logger, http.StatusCreated, s.Info())
}

// ListSessions handles GET /sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessions.List()
	infos := make([]session.Info, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}
	respondJSON(w, h.logger, http.StatusOK, SessionListResponse{Sessions: infos, Count: len(infos)})
}

// GetSession handles GET /sessions/{sessionID}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, h.logger, http.StatusOK, s.Info())
}

// DeleteSession handles DELETE /sessions/{sessionID}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(chi.URLParam(r, "sessionID")); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Refresh handles POST /sessions/{sessionID}/refresh
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.reload(w, r, func(s *session.Session) error { return s.Refresh(r.Context()) })
}

// Retry handles POST /sessions/{sessionID}/retry
func (h *SessionHandler) Retry(w http.ResponseWriter, r *http.Request) {
	h.reload(w, r, func(s *session.Session) error { return s.Retry(r.Context()) })
}

// Query handles POST /sessions/{sessionID}/query
func (h *SessionHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.reload(w, r, func(s *session.Session) error { return s.Query(r.Context(), req.Text) })
}

func (h *SessionHandler) reload(w http.ResponseWriter, r *http.Request, fn func(*session.Session) error) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := fn(s); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, s.Info())
}

// GetFrame handles GET /sessions/{sessionID}/frame
func (h *SessionHandler) GetFrame(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, h.logger, http.StatusOK, s.Frame())
}

// Tick handles POST /sessions/{sessionID}/tick
func (h *SessionHandler) Tick(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	frame, err := s.Tick(r.Context(), h.clock())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, frame)
}

// UpdateParams handles PUT /sessions/{sessionID}/params. The change is
// applied by a later tick once the burst settles.
func (h *SessionHandler) UpdateParams(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req ParamsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	err := s.Reconfigure(session.ReconfigureRequest{Mode: parseMode(req.Mode), Params: req.Params}, h.clock())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

// Select handles POST /sessions/{sessionID}/select
func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req NodeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	id := valueobjects.NodeID(req.NodeID)
	stats, err := s.Select(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, SelectResponse{Selected: id, Statistics: stats})
}

// Hover handles POST /sessions/{sessionID}/hover
func (h *SessionHandler) Hover(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req NodeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := s.Hover(r.Context(), valueobjects.NodeID(req.NodeID)); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DragStart handles POST /sessions/{sessionID}/drag/start
func (h *SessionHandler) DragStart(w http.ResponseWriter, r *http.Request) {
	h.drag(w, r, func(s *session.Session, req DragRequest) error {
		return s.DragStart(r.Context(), valueobjects.NodeID(req.NodeID), req.position())
	})
}

// DragMove handles POST /sessions/{sessionID}/drag/move
func (h *SessionHandler) DragMove(w http.ResponseWriter, r *http.Request) {
	h.drag(w, r, func(s *session.Session, req DragRequest) error {
		return s.DragMove(r.Context(), valueobjects.NodeID(req.NodeID), req.position())
	})
}

// DragEnd handles POST /sessions/{sessionID}/drag/end
func (h *SessionHandler) DragEnd(w http.ResponseWriter, r *http.Request) {
	h.drag(w, r, func(s *session.Session, req DragRequest) error {
		return s.DragEnd(r.Context(), valueobjects.NodeID(req.NodeID))
	})
}

func (h *SessionHandler) drag(w http.ResponseWriter, r *http.Request, fn func(*session.Session, DragRequest) error) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req DragRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := fn(s, req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// NodeStatistics handles GET /sessions/{sessionID}/nodes/{nodeID}/stats
func (h *SessionHandler) NodeStatistics(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	stats, err := s.Statistics(valueobjects.NodeID(chi.URLParam(r, "nodeID")))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, stats)
}

// Highlight handles POST /sessions/{sessionID}/highlight
func (h *SessionHandler) Highlight(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req HighlightRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	kind, err := interaction.ParseStatisticKind(req.Statistic)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var relType valueobjects.RelationshipType
	if req.RelationshipType != "" {
		relType = valueobjects.NewRelationshipType(req.RelationshipType)
	}
	highlight, err := s.ClickStatistic(r.Context(), kind, relType)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, highlight)
}

// ClearHighlight handles DELETE /sessions/{sessionID}/highlight
func (h *SessionHandler) ClearHighlight(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.ClearHighlight(r.Context()); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
