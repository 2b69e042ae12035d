// Package draft exposes the draft engine over connect RPC.
package draft

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/snakedraft/go/internal/draft/drafterr"
	"github.com/mcdev12/snakedraft/go/internal/draft/pick"
	"github.com/mcdev12/snakedraft/go/internal/draft/state"
	"github.com/mcdev12/snakedraft/go/internal/models"
)

// ErrorKindHeader carries the drafterr.Kind of a failed call
const ErrorKindHeader = "Draft-Error-Kind"

// LifecycleApp defines what the service needs to start drafts
type LifecycleApp interface {
	StartDraft(ctx context.Context, leagueID uuid.UUID) (*models.DraftProgress, error)
}

// PickApp defines what the service needs to make picks
type PickApp interface {
	MakePick(ctx context.Context, req pick.MakePickRequest) (*pick.MakePickResult, error)
}

// StateApp defines what the service needs to project state
type StateApp interface {
	GetDraftState(ctx context.Context, leagueID uuid.UUID, userID *uuid.UUID) (*state.DraftState, error)
}

type StartDraftRequest struct {
	LeagueID string `json:"league_id"`
}

type StartDraftResponse struct {
	Progress *models.DraftProgress `json:"progress"`
}

type MakePickRequest struct {
	LeagueID string `json:"league_id"`
	TeamID   string `json:"team_id"`
	PlayerID string `json:"player_id"`
}

type MakePickResponse struct {
	Pick     models.PickSlot      `json:"pick"`
	Progress models.DraftProgress `json:"progress"`
}

type GetDraftStateRequest struct {
	LeagueID string `json:"league_id"`
	UserID   string `json:"user_id,omitempty"`
}

type GetDraftStateResponse struct {
	State *state.DraftState `json:"state"`
}

// Service implements the DraftService connect interface
type Service struct {
	lifecycle LifecycleApp
	picks     PickApp
	state     StateApp
}

// NewService creates a new draft connect service
func NewService(lifecycle LifecycleApp, picks PickApp, state StateApp) *Service {
	return &Service{
		lifecycle: lifecycle,
		picks:     picks,
		state:     state,
	}
}

var _ DraftServiceHandler = (*Service)(nil)

// StartDraft fixes the order and opens the first pick
func (s *Service) StartDraft(ctx context.Context, req *connect.Request[StartDraftRequest]) (*connect.Response[StartDraftResponse], error) {
	leagueID, err := parseID("league_id", req.Msg.LeagueID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	progress, err := s.lifecycle.StartDraft(ctx, leagueID)
	if err != nil {
		return nil, ToConnectError(err)
	}

	return connect.NewResponse(&StartDraftResponse{Progress: progress}), nil
}

// MakePick commits a pick for the team on the clock
func (s *Service) MakePick(ctx context.Context, req *connect.Request[MakePickRequest]) (*connect.Response[MakePickResponse], error) {
	appReq, err := toPickRequest(req.Msg)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	result, err := s.picks.MakePick(ctx, appReq)
	if err != nil {
		return nil, ToConnectError(err)
	}

	return connect.NewResponse(&MakePickResponse{
		Pick:     result.Pick,
		Progress: result.Progress,
	}), nil
}

// GetDraftState returns the polling snapshot
func (s *Service) GetDraftState(ctx context.Context, req *connect.Request[GetDraftStateRequest]) (*connect.Response[GetDraftStateResponse], error) {
	leagueID, err := parseID("league_id", req.Msg.LeagueID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	var userID *uuid.UUID
	if req.Msg.UserID != "" {
		id, err := parseID("user_id", req.Msg.UserID)
		if err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		userID = &id
	}

	st, err := s.state.GetDraftState(ctx, leagueID, userID)
	if err != nil {
		return nil, ToConnectError(err)
	}

	return connect.NewResponse(&GetDraftStateResponse{State: st}), nil
}

func toPickRequest(msg *MakePickRequest) (pick.MakePickRequest, error) {
	leagueID, err := parseID("league_id", msg.LeagueID)
	if err != nil {
		return pick.MakePickRequest{}, err
	}
	teamID, err := parseID("team_id", msg.TeamID)
	if err != nil {
		return pick.MakePickRequest{}, err
	}
	playerID, err := parseID("player_id", msg.PlayerID)
	if err != nil {
		return pick.MakePickRequest{}, err
	}
	return pick.MakePickRequest{LeagueID: leagueID, TeamID: teamID, PlayerID: playerID}, nil
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", field, err)
	}
	return id, nil
}

// ConnectCode maps a draft error kind to a connect code
func ConnectCode(kind drafterr.Kind) connect.Code {
	switch kind {
	case drafterr.KindNotFound, drafterr.KindPlayerNotFound:
		return connect.CodeNotFound
	case drafterr.KindInvalidState, drafterr.KindDraftAlreadyComplete:
		return connect.CodeFailedPrecondition
	case drafterr.KindNotYourTurn:
		return connect.CodePermissionDenied
	case drafterr.KindPlayerAlreadyDrafted:
		return connect.CodeAlreadyExists
	case drafterr.KindInvalidArgument:
		return connect.CodeInvalidArgument
	case drafterr.KindUnavailable:
		return connect.CodeUnavailable
	default:
		return connect.CodeInternal
	}
}

// ToConnectError wraps err with the code for its kind. The kind and any
// error metadata travel as response metadata.
func ToConnectError(err error) *connect.Error {
	kind := drafterr.KindOf(err)
	cerr := connect.NewError(ConnectCode(kind), err)
	cerr.Meta().Set(ErrorKindHeader, string(kind))

	var de *drafterr.Error
	if errors.As(err, &de) {
		for k, v := range de.Meta {
			cerr.Meta().Set(metaHeader(k), fmt.Sprint(v))
		}
	}
	return cerr
}

// metaHeader turns current_team_id into Draft-Current-Team-Id
func metaHeader(key string) string {
	parts := strings.Split(key, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return "Draft-" + strings.Join(parts, "-")
}
