package models

// Requests for the forecast HTTP endpoints. Defined in domain for consistency and reuse.

type ForecastRequest struct {
	Commodity string `query:"commodity" json:"commodity" validate:"required"`
	Horizon   int    `query:"horizon" json:"horizon" default:"3" validate:"gte=1,lte=12"`
	Lookback  int    `query:"lookback" json:"lookback" default:"24" validate:"gte=12,lte=24"`
	// Pointer so an explicit persist=false survives default filling; nil
	// means the client did not send the parameter and persistence is on.
	Persist *bool `query:"persist" json:"persist"`
}

type FeedbackRequest struct {
	PredictionID string  `json:"prediction_id" validate:"required,uuid4"`
	ActualValue  float64 `json:"actual_value" validate:"gte=0"`
}

type LearningRequest struct {
	Commodity string `query:"commodity" json:"commodity" validate:"required"`
	Limit     int    `query:"limit" json:"limit" default:"200" validate:"gte=1,lte=2000"`
}

type HistoryRequest struct {
	Commodity string `query:"commodity" json:"commodity" validate:"required"`
	Lookback  int    `query:"lookback" json:"lookback" default:"24" validate:"gte=1,lte=60"`
}
