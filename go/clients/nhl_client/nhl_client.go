package nhl_client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcdev12/poolnhl/go/clients"
	"github.com/mcdev12/poolnhl/go/internal/models"
)

type NHLClient struct {
	*clients.BaseClient
}

func NewNHLClient(baseURL string) *NHLClient {
	if baseURL == "" {
		baseURL = BaseURL
	}
	client := &NHLClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}
	client.SetHeader("Accept", "application/json")
	client.SetTimeout(10 * time.Second)
	return client
}

type scoreTeam struct {
	ID     int    `json:"id"`
	Abbrev string `json:"abbrev"`
	Score  *int   `json:"score"`
}

type scoreGame struct {
	ID           int       `json:"id"`
	GameState    string    `json:"gameState"`
	StartTimeUTC time.Time `json:"startTimeUTC"`
	HomeTeam     scoreTeam `json:"homeTeam"`
	AwayTeam     scoreTeam `json:"awayTeam"`
}

type ScoreResponse struct {
	CurrentDate string      `json:"currentDate"`
	Games       []scoreGame `json:"games"`
}

// GamesByDate returns the games scheduled on date (YYYY-MM-DD). A successful
// call with no games returns an empty slice and a nil error.
func (c *NHLClient) GamesByDate(ctx context.Context, date string) ([]models.Game, error) {
	body, err := c.Get(ctx, fmt.Sprintf(ScoreEndpoint, date))
	if err != nil {
		return nil, fmt.Errorf("failed to get games for %s: %w", date, err)
	}

	var response ScoreResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}

	games := make([]models.Game, 0, len(response.Games))
	for _, g := range response.Games {
		state, err := models.ParseGameState(g.GameState)
		if err != nil {
			return nil, fmt.Errorf("game %d: %w", g.ID, err)
		}
		games = append(games, models.Game{
			ID:           g.ID,
			State:        state,
			HomeTeam:     models.GameTeam{ID: g.HomeTeam.ID, Abbrev: g.HomeTeam.Abbrev, Score: g.HomeTeam.Score},
			AwayTeam:     models.GameTeam{ID: g.AwayTeam.ID, Abbrev: g.AwayTeam.Abbrev, Score: g.AwayTeam.Score},
			StartTimeUTC: g.StartTimeUTC,
		})
	}
	return games, nil
}
