package models

// Requests for the market data HTTP endpoints. Defined in domain for consistency and reuse.

type CandlesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	Class  string `query:"class" json:"class" default:"stock" validate:"oneof=stock index commodity"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"1000" validate:"gte=1,lte=50000"`
}

type IndicatorsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"200" validate:"gte=1,lte=5000"`
}

type BreadthRequest struct {
	Date string `query:"date" json:"date" validate:"required,datetime=2006-01-02"`
}

type YieldsRequest struct {
	From string `query:"from" json:"from"`
	To   string `query:"to" json:"to"`
}

type QualityRequest struct {
	Date string `query:"date" json:"date" validate:"required,datetime=2006-01-02"`
}

type ReportRequest struct {
	AsOf string `query:"as_of" json:"as_of" validate:"omitempty,datetime=2006-01-02"`
}
