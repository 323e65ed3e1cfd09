package pool_client

const (
	PoolEndpoint         = "/pool/%s"
	CreateTradeEndpoint  = "/create-trade"
	RespondTradeEndpoint = "/respond-trade"
	SelectPlayerEndpoint = "/select-player"

	AuthorizationHeader = "Authorization"
)
