package pool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mcdev12/poolnhl/go/clients/pool_client"
	"github.com/mcdev12/poolnhl/go/internal/draft"
	"github.com/mcdev12/poolnhl/go/internal/gamenight"
	"github.com/mcdev12/poolnhl/go/internal/models"
	"github.com/mcdev12/poolnhl/go/internal/session"
	"github.com/mcdev12/poolnhl/go/internal/trade"
)

const (
	PoolServiceName = "poolnhl.v1.PoolService"

	GetPoolProcedure          = "/poolnhl.v1.PoolService/GetPool"
	GetDraftStateProcedure    = "/poolnhl.v1.PoolService/GetDraftState"
	GetGamesNightProcedure    = "/poolnhl.v1.PoolService/GetGamesNight"
	SubmitTradeProcedure      = "/poolnhl.v1.PoolService/SubmitTrade"
	RespondTradeProcedure     = "/poolnhl.v1.PoolService/RespondTrade"
	SubmitDraftPickProcedure  = "/poolnhl.v1.PoolService/SubmitDraftPick"
	BuildDraftOrderProcedure  = "/poolnhl.v1.PoolService/BuildDraftOrder"
	ListTradeHistoryProcedure = "/poolnhl.v1.PoolService/ListTradeHistory"

	// UserHeader carries the acting participant id.
	UserHeader = "X-User-ID"
)

// PoolApp defines what the service layer needs from the pool application
type PoolApp interface {
	GetPool(ctx context.Context, name string) (*models.Pool, Mounts, error)
	DraftState(ctx context.Context, poolName, user string) (DraftState, error)
	GamesNight(ctx context.Context, sess session.Context, poolName string) (GamesNight, error)
	SubmitTrade(ctx context.Context, poolName, user string, req TradeRequest) (*models.Trade, error)
	RespondTrade(ctx context.Context, poolName, user string, tradeID uuid.UUID, status models.TradeStatus) (*models.Trade, error)
	SubmitDraftPick(ctx context.Context, poolName, user string, playerID models.PlayerID) (draft.Turn, error)
	BuildDraftOrder(ctx context.Context, poolName, user string, positions []string) ([]string, error)
	TradeHistory(ctx context.Context, poolName string, limit int32) ([]models.Trade, error)
}

type GetPoolRequest struct {
	PoolName string `json:"pool_name"`
}

type GetPoolResponse struct {
	Pool   *models.Pool `json:"pool"`
	Mounts Mounts       `json:"mounts"`
}

type GetDraftStateRequest struct {
	PoolName string `json:"pool_name"`
}

type GetGamesNightRequest struct {
	PoolName string `json:"pool_name,omitempty"`
	Date     string `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
}

type SubmitTradeRequest struct {
	PoolName  string            `json:"pool_name"`
	AskTo     string            `json:"ask_to"`
	FromItems models.TradeItems `json:"from_items"`
	ToItems   models.TradeItems `json:"to_items"`
}

type RespondTradeRequest struct {
	PoolName string             `json:"pool_name"`
	TradeID  uuid.UUID          `json:"trade_id"`
	Status   models.TradeStatus `json:"status"`
}

type TradeResponse struct {
	Trade *models.Trade `json:"trade"`
}

type SubmitDraftPickRequest struct {
	PoolName string          `json:"pool_name"`
	PlayerID models.PlayerID `json:"player_id"`
}

type SubmitDraftPickResponse struct {
	Turn draft.Turn `json:"turn"`
}

type BuildDraftOrderRequest struct {
	PoolName  string   `json:"pool_name"`
	Positions []string `json:"positions,omitempty"`
}

type BuildDraftOrderResponse struct {
	Order []string `json:"order"`
}

type ListTradeHistoryRequest struct {
	PoolName string `json:"pool_name"`
	Limit    int32  `json:"limit,omitempty"`
}

type ListTradeHistoryResponse struct {
	Trades []models.Trade `json:"trades"`
}

// Service exposes the pool app over connect. Messages are JSON objects
// carried as google.protobuf.Struct.
type Service struct {
	app   PoolApp
	clock clockwork.Clock
	loc   *time.Location
}

// NewService creates a new pool connect service
func NewService(app PoolApp, clock clockwork.Clock, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{app: app, clock: clock, loc: loc}
}

// Handler returns the path prefix and handler serving every procedure.
func (s *Service) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(GetPoolProcedure, connect.NewUnaryHandler(GetPoolProcedure, s.GetPool, opts...))
	mux.Handle(GetDraftStateProcedure, connect.NewUnaryHandler(GetDraftStateProcedure, s.GetDraftState, opts...))
	mux.Handle(GetGamesNightProcedure, connect.NewUnaryHandler(GetGamesNightProcedure, s.GetGamesNight, opts...))
	mux.Handle(SubmitTradeProcedure, connect.NewUnaryHandler(SubmitTradeProcedure, s.SubmitTrade, opts...))
	mux.Handle(RespondTradeProcedure, connect.NewUnaryHandler(RespondTradeProcedure, s.RespondTrade, opts...))
	mux.Handle(SubmitDraftPickProcedure, connect.NewUnaryHandler(SubmitDraftPickProcedure, s.SubmitDraftPick, opts...))
	mux.Handle(BuildDraftOrderProcedure, connect.NewUnaryHandler(BuildDraftOrderProcedure, s.BuildDraftOrder, opts...))
	mux.Handle(ListTradeHistoryProcedure, connect.NewUnaryHandler(ListTradeHistoryProcedure, s.ListTradeHistory, opts...))
	return "/" + PoolServiceName + "/", mux
}

// GetPool returns the pool snapshot and the components its status mounts
func (s *Service) GetPool(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	var in GetPoolRequest
	if err := decode(req.Msg, &in); err != nil {
		return nil, err
	}
	if in.PoolName == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("pool_name is required"))
	}

	p, mounts, err := s.app.GetPool(ctx, in.PoolName)
	if err != nil {
		return nil, toConnectError(err)
	}
	return encode(GetPoolResponse{Pool: p, Mounts: mounts})
}

// GetDraftState returns whose turn it is for the calling user
func (s *Service) GetDraftState(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	var in GetDraftStateRequest
	if err := decode(req.Msg, &in); err != nil {
		return nil, err
	}

	state, err := s.app.DraftState(ctx, in.PoolName, req.Header().Get(UserHeader))
	if err != nil {
		return nil, toConnectError(err)
	}
	return encode(state)
}

// GetGamesNight classifies a day's games, today by default
func (s *Service) GetGamesNight(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	var in GetGamesNightRequest
	if err := decode(req.Msg, &in); err != nil {
		return nil, err
	}

	sess := session.New(req.Header().Get(UserHeader), s.clock, s.loc)
	if in.Date != "" {
		var err error
		if sess, err = sess.SelectDate(in.Date); err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
	}

	night, err := s.app.GamesNight(ctx, sess, in.PoolName)
	if err != nil {
		return nil, toConnectError(err)
	}
	return encode(night)
}

// SubmitTrade proposes a trade from the calling user
func (s *Service) SubmitTrade(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	user, err := requireUser(req.Header())
	if err != nil {
		return nil, err
	}
	var in SubmitTradeRequest
	if err := decode(req.Msg, &in); err != nil {
		return nil, err
	}

	t, err := s.app.SubmitTrade(ctx, in.PoolName, user, TradeRequest{
		AskTo:     in.AskTo,
		FromItems: in.FromItems,
		ToItems:   in.ToItems,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return encode(TradeResponse{Trade: t})
}

// RespondTrade accepts, rejects or cancels a trade
func (s *Service) RespondTrade(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	user, err := requireUser(req.Header())
	if err != nil {
		return nil, err
	}
	var in RespondTradeRequest
	if err := decode(req.Msg, &in); err != nil {
		return nil, err
	}

	t, err := s.app.RespondTrade(ctx, in.PoolName, user, in.TradeID, in.Status)
	if err != nil {
		return nil, toConnectError(err)
	}
	return encode(TradeResponse{Trade: t})
}

// SubmitDraftPick makes the calling user's pick
func (s *Service) SubmitDraftPick(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	user, err := requireUser(req.Header())
	if err != nil {
		return nil, err
	}
	var in SubmitDraftPickRequest
	if err := decode(req.Msg, &in); err != nil {
		return nil, err
	}

	turn, err := s.app.SubmitDraftPick(ctx, in.PoolName, user, in.PlayerID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return encode(SubmitDraftPickResponse{Turn: turn})
}

// BuildDraftOrder previews a manual or shuffled draft order
func (s *Service) BuildDraftOrder(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	user, err := requireUser(req.Header())
	if err != nil {
		return nil, err
	}
	var in BuildDraftOrderRequest
	if err := decode(req.Msg, &in); err != nil {
		return nil, err
	}

	order, err := s.app.BuildDraftOrder(ctx, in.PoolName, user, in.Positions)
	if err != nil {
		return nil, toConnectError(err)
	}
	return encode(BuildDraftOrderResponse{Order: order})
}

// ListTradeHistory returns the recorded trades of a pool, newest first
func (s *Service) ListTradeHistory(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	var in ListTradeHistoryRequest
	if err := decode(req.Msg, &in); err != nil {
		return nil, err
	}
	if in.PoolName == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("pool_name is required"))
	}

	trades, err := s.app.TradeHistory(ctx, in.PoolName, in.Limit)
	if err != nil {
		return nil, toConnectError(err)
	}
	if trades == nil {
		trades = []models.Trade{}
	}
	return encode(ListTradeHistoryResponse{Trades: trades})
}

func requireUser(h http.Header) (string, error) {
	user := h.Get(UserHeader)
	if user == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("%s header is required", UserHeader))
	}
	return user, nil
}

func decode(msg *structpb.Struct, into any) error {
	raw, err := msg.MarshalJSON()
	if err != nil {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid request: %w", err))
	}
	return nil
}

func encode(v any) (*connect.Response[structpb.Struct], error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	msg := &structpb.Struct{}
	if err := msg.UnmarshalJSON(raw); err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

// toConnectError maps the error taxonomy onto connect codes. Rejections from
// the pool service keep their message verbatim.
func toConnectError(err error) error {
	var rejected *pool_client.RejectedError
	switch {
	case errors.As(err, &rejected):
		return connect.NewError(connect.CodeAborted, errors.New(rejected.Message))
	case errors.Is(err, ErrPoolUnavailable), errors.Is(err, gamenight.ErrGamesUnavailable):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, ErrTradeNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, ErrNotAllowed):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, ErrNotInDraft), errors.Is(err, ErrDraftComplete), errors.Is(err, ErrTradesClosed),
		errors.Is(err, ErrNotYourTurn), errors.Is(err, ErrPlayerTaken), errors.Is(err, trade.ErrInvalidTransition):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, trade.ErrSelfTrade), errors.Is(err, trade.ErrEmptyTrade),
		errors.Is(err, trade.ErrUnknownParticipant), errors.Is(err, trade.ErrAssetNotOwned),
		errors.Is(err, trade.ErrTooManyItems), errors.Is(err, trade.ErrDuplicateItem),
		errors.Is(err, draft.ErrDuplicateAssignment), errors.Is(err, draft.ErrUnknownParticipant),
		errors.Is(err, draft.ErrInvalidPosition), errors.Is(err, draft.ErrIncompleteOrder),
		errors.Is(err, draft.ErrEmptyOrder):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
