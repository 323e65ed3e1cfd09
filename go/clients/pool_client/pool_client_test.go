package pool_client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/poolnhl/go/internal/models"
)

func TestGetPool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pool/office pool", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get(AuthorizationHeader))
		_, _ = w.Write([]byte(`{
			"name": "office pool",
			"owner": "alice",
			"status": "IN_PROGRESS",
			"participants": [{"id": "alice", "players": [97], "picks": [{"from": "alice", "round": 0, "season": 2025}]}],
			"players": {"97": {"id": 97, "name": "Connor McDavid", "team_id": 22}}
		}`))
	}))
	defer srv.Close()

	pool, err := NewPoolClient(srv.URL+"/", "secret").GetPool(context.Background(), "office pool")
	require.NoError(t, err)

	assert.Equal(t, models.PoolStatusInProgress, pool.Status)
	assert.Equal(t, "Connor McDavid", pool.Players[97].Name)
	assert.Equal(t, []models.DraftPick{{From: "alice", Round: 0, Season: 2025}}, pool.Participants[0].Picks)
}

func TestGetPool_FailuresAreErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) }},
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"unknown status", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"name":"p","status":"ARCHIVED"}`))
		}},
		{"empty body", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{}`)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			pool, err := NewPoolClient(srv.URL, "").GetPool(context.Background(), "p")
			assert.Error(t, err)
			assert.Nil(t, pool)
		})
	}
}

func TestCreateTrade(t *testing.T) {
	trade := models.Trade{
		ID:          uuid.New(),
		ProposedBy:  "alice",
		AskTo:       "bob",
		FromItems:   models.TradeItems{Players: []models.PlayerID{97}},
		Status:      models.TradeStatusNew,
		DateCreated: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, CreateTradeEndpoint, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req CreateTradeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "office", req.PoolName)
		assert.Equal(t, trade.ID, req.Trade.ID)
		_ = json.NewEncoder(w).Encode(req.Trade)
	}))
	defer srv.Close()

	echo, err := NewPoolClient(srv.URL, "").CreateTrade(context.Background(), "office", trade)
	require.NoError(t, err)
	assert.Equal(t, trade.ID, echo.ID)
	assert.Equal(t, models.TradeStatusNew, echo.Status)
}

func TestCreateTrade_RejectionIsVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"Bob already has a pending trade with you."}`))
	}))
	defer srv.Close()

	_, err := NewPoolClient(srv.URL, "").CreateTrade(context.Background(), "office", models.Trade{})

	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, http.StatusConflict, rejected.StatusCode)
	assert.Equal(t, "Bob already has a pending trade with you.", rejected.Error())
}

func TestSelectPlayer(t *testing.T) {
	var got SelectPlayerRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, SelectPlayerEndpoint, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewPoolClient(srv.URL, "").SelectPlayer(context.Background(), SelectPlayerRequest{
		PoolName: "office", UserID: "alice", PlayerID: 97, PickIndex: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, got.PickIndex)
	assert.Equal(t, models.PlayerID(97), got.PlayerID)
}

func TestSelectPlayer_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		rejected bool
		message  string
	}{
		{"plain text rejection", http.StatusBadRequest, "not your turn", true, "not your turn"},
		{"message field", http.StatusForbidden, `{"message":"draft is over"}`, true, "draft is over"},
		{"empty rejection", http.StatusUnprocessableEntity, "", true, "Unprocessable Entity"},
		{"server failure", http.StatusBadGateway, "upstream down", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := NewPoolClient(srv.URL, "").SelectPlayer(context.Background(), SelectPlayerRequest{PoolName: "office"})
			require.Error(t, err)

			var rejected *RejectedError
			assert.Equal(t, tt.rejected, errors.As(err, &rejected))
			if tt.rejected {
				assert.Equal(t, tt.message, rejected.Message)
			}
		})
	}
}
