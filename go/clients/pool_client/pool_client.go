package pool_client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/mcdev12/poolnhl/go/clients"
	"github.com/mcdev12/poolnhl/go/internal/models"
)

// RejectedError is an authoritative refusal from the pool service. Message is
// the service's own wording and is meant to be shown to the user as is.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return e.Message
}

type PoolClient struct {
	*clients.BaseClient
}

func NewPoolClient(baseURL, token string) *PoolClient {
	client := &PoolClient{
		BaseClient: clients.NewBaseClient(strings.TrimRight(baseURL, "/")),
	}
	if token != "" {
		client.SetHeader(AuthorizationHeader, "Bearer "+token)
	}
	return client
}

type CreateTradeRequest struct {
	PoolName string       `json:"pool_name"`
	Trade    models.Trade `json:"trade"`
}

type RespondTradeRequest struct {
	PoolName string             `json:"pool_name"`
	TradeID  uuid.UUID          `json:"trade_id"`
	UserID   string             `json:"user_id"`
	Status   models.TradeStatus `json:"status"`
}

type SelectPlayerRequest struct {
	PoolName  string          `json:"pool_name"`
	UserID    string          `json:"user_id"`
	PlayerID  models.PlayerID `json:"player_id"`
	PickIndex int             `json:"pick_index"`
}

// GetPool fetches the authoritative snapshot of a pool.
func (c *PoolClient) GetPool(ctx context.Context, name string) (*models.Pool, error) {
	body, err := c.Get(ctx, fmt.Sprintf(PoolEndpoint, url.PathEscape(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to get pool %s: %w", name, err)
	}

	var pool models.Pool
	if err := json.Unmarshal(body, &pool); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pool: %w", err)
	}
	if pool.Name == "" {
		return nil, fmt.Errorf("pool %s: response has no name", name)
	}
	return &pool, nil
}

// CreateTrade submits a NEW trade and returns the service's copy of it.
func (c *PoolClient) CreateTrade(ctx context.Context, poolName string, trade models.Trade) (*models.Trade, error) {
	return c.postTrade(ctx, CreateTradeEndpoint, CreateTradeRequest{PoolName: poolName, Trade: trade})
}

// RespondTrade asks the service to move a trade to status on behalf of userID.
func (c *PoolClient) RespondTrade(ctx context.Context, poolName string, tradeID uuid.UUID, userID string, status models.TradeStatus) (*models.Trade, error) {
	return c.postTrade(ctx, RespondTradeEndpoint, RespondTradeRequest{
		PoolName: poolName,
		TradeID:  tradeID,
		UserID:   userID,
		Status:   status,
	})
}

// SelectPlayer submits a draft pick. The service advances the pick counter;
// callers re-read the pool afterwards.
func (c *PoolClient) SelectPlayer(ctx context.Context, req SelectPlayerRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	if _, err := c.Post(ctx, SelectPlayerEndpoint, bytes.NewReader(payload)); err != nil {
		return asRejection(err)
	}
	return nil
}

func (c *PoolClient) postTrade(ctx context.Context, endpoint string, req any) (*models.Trade, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	body, err := c.Post(ctx, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, asRejection(err)
	}

	var trade models.Trade
	if err := json.Unmarshal(body, &trade); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trade: %w", err)
	}
	return &trade, nil
}

// asRejection turns 4xx answers into RejectedError. Anything else is a
// transport or server failure and is returned wrapped.
func asRejection(err error) error {
	var statusErr *clients.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode < 400 || statusErr.StatusCode >= 500 {
		return fmt.Errorf("pool service request failed: %w", err)
	}

	msg := strings.TrimSpace(string(statusErr.Body))
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(statusErr.Body, &body) == nil {
		switch {
		case body.Error != "":
			msg = body.Error
		case body.Message != "":
			msg = body.Message
		}
	}
	if msg == "" {
		msg = http.StatusText(statusErr.StatusCode)
	}
	return &RejectedError{StatusCode: statusErr.StatusCode, Message: msg}
}
