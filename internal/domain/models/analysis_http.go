package models

// Requests for the analysis HTTP endpoints. Defined in domain for reuse.

type CorrelationRequest struct {
	Ticker   string `query:"ticker" json:"ticker" validate:"required,ticker"`
	Days     int    `query:"days" json:"days" default:"30" validate:"gte=1,lte=365"`
	Interval string `query:"interval" json:"interval" default:"1d" validate:"oneof=1h 4h 1d"`
}

type SummaryRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required,ticker"`
	Days   int    `query:"days" json:"days" default:"7" validate:"gte=1,lte=90"`
}

type PostsRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required,ticker"`
	Limit  int    `query:"limit" json:"limit" default:"5" validate:"gte=1,lte=50"`
}

type OverviewRequest struct {
	Ticker   string `query:"ticker" json:"ticker" validate:"required,ticker"`
	Days     int    `query:"days" json:"days" default:"30" validate:"gte=1,lte=365"`
	Interval string `query:"interval" json:"interval" default:"1d" validate:"oneof=1h 4h 1d"`
}

type LiveRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required,ticker"`
}
