// Package gateway serves the draft engine as a plain JSON REST API for
// polling clients.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mcdev12/snakedraft/go/internal/draft/drafterr"
	"github.com/mcdev12/snakedraft/go/internal/draft/pick"
	"github.com/mcdev12/snakedraft/go/internal/draft/state"
	"github.com/mcdev12/snakedraft/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Starter starts drafts
type Starter interface {
	StartDraft(ctx context.Context, leagueID uuid.UUID) (*models.DraftProgress, error)
}

// Picker makes picks
type Picker interface {
	MakePick(ctx context.Context, req pick.MakePickRequest) (*pick.MakePickResult, error)
}

// StateProvider returns draft snapshots
type StateProvider interface {
	GetDraftState(ctx context.Context, leagueID uuid.UUID, userID *uuid.UUID) (*state.DraftState, error)
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Kind        drafterr.Kind  `json:"kind"`
	Message     string         `json:"message"`
	Recoverable bool           `json:"recoverable"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// PickRequest is the body of POST .../draft/picks
type PickRequest struct {
	TeamID   uuid.UUID `json:"team_id"`
	PlayerID uuid.UUID `json:"player_id"`
}

// StateResponse wraps a snapshot with the polling hint
type StateResponse struct {
	*state.DraftState
	ShouldPoll bool `json:"should_poll"`
}

// StateHandler handles HTTP requests for draft state and actions
type StateHandler struct {
	starter Starter
	picker  Picker
	state   StateProvider
}

// NewStateHandler creates a new state handler
func NewStateHandler(starter Starter, picker Picker, provider StateProvider) *StateHandler {
	return &StateHandler{
		starter: starter,
		picker:  picker,
		state:   provider,
	}
}

// Routes returns the draft routes mounted under /api
func (h *StateHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/leagues/{leagueID}/draft", func(r chi.Router) {
		r.Get("/state", h.HandleGetDraftState)
		r.Post("/start", h.HandleStartDraft)
		r.Post("/picks", h.HandleMakePick)
	})
	return r
}

// HandleGetDraftState handles GET /api/leagues/{leagueID}/draft/state?user_id=
func (h *StateHandler) HandleGetDraftState(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := leagueParam(w, r)
	if !ok {
		return
	}

	var userID *uuid.UUID
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, drafterr.InvalidArgumentf("invalid user_id format"))
			return
		}
		userID = &id
	}

	st, err := h.state.GetDraftState(r.Context(), leagueID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StateResponse{DraftState: st, ShouldPoll: st.ShouldPoll()})
}

// HandleStartDraft handles POST /api/leagues/{leagueID}/draft/start
func (h *StateHandler) HandleStartDraft(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := leagueParam(w, r)
	if !ok {
		return
	}

	progress, err := h.starter.StartDraft(r.Context(), leagueID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, progress)
}

// HandleMakePick handles POST /api/leagues/{leagueID}/draft/picks
func (h *StateHandler) HandleMakePick(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := leagueParam(w, r)
	if !ok {
		return
	}

	var body PickRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, drafterr.InvalidArgumentf("invalid request body"))
		return
	}

	result, err := h.picker.MakePick(r.Context(), pick.MakePickRequest{
		LeagueID: leagueID,
		TeamID:   body.TeamID,
		PlayerID: body.PlayerID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func leagueParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "leagueID"))
	if err != nil {
		writeError(w, drafterr.InvalidArgumentf("invalid league ID format"))
		return uuid.Nil, false
	}
	return id, true
}

// StatusFor maps a draft error kind to an HTTP status
func StatusFor(kind drafterr.Kind) int {
	switch kind {
	case drafterr.KindNotFound, drafterr.KindPlayerNotFound:
		return http.StatusNotFound
	case drafterr.KindInvalidState, drafterr.KindNotYourTurn,
		drafterr.KindPlayerAlreadyDrafted, drafterr.KindDraftAlreadyComplete:
		return http.StatusConflict
	case drafterr.KindInvalidArgument:
		return http.StatusBadRequest
	case drafterr.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	var de *drafterr.Error
	if !errors.As(err, &de) {
		log.Error().Err(err).Msg("draft request failed")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Kind:    drafterr.KindInternal,
			Message: "internal error",
		})
		return
	}

	w.Header().Set("Draft-Error-Kind", string(de.Kind))
	writeJSON(w, StatusFor(de.Kind), ErrorResponse{
		Kind:        de.Kind,
		Message:     de.Error(),
		Recoverable: de.Recoverable(),
		Meta:        de.Meta,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
