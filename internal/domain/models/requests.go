package models

// Requests for the read API.

type PredictionsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,ticker"`
	Stage  string `query:"stage" json:"stage" default:"predict" validate:"oneof=test predict"`
}

type MetricsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,ticker"`
	Kind   string `query:"kind" json:"kind" default:"predict" validate:"oneof=train predict evaluation"`
}

type ForecastRequest struct {
	Symbol  string `query:"symbol" json:"symbol" validate:"required,ticker"`
	Horizon int    `query:"horizon" json:"horizon" default:"3" validate:"gte=1,lte=30"`
}
