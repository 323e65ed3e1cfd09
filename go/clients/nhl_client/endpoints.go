package nhl_client

const (
	// Base URL
	BaseURL = "https://api-web.nhle.com"

	// API Endpoints
	ScoreEndpoint = "/v1/score/%s" // YYYY-MM-DD
)
