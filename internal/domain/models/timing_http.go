package models

// Requests for the timing/risk/portfolio/batch HTTP endpoints. Defined in
// domain for consistency and reuse.

type TimingRequest struct {
	Code  string `query:"code" json:"code" validate:"required"`
	Month int    `query:"month" json:"month" default:"0" validate:"gte=0,lte=12"`
}

type RiskRequest struct {
	Code  string `query:"code" json:"code" validate:"required"`
	Month int    `query:"month" json:"month" default:"0" validate:"gte=0,lte=12"`
}

type PortfolioMetricsRequest struct {
	Codes   []string  `json:"codes" validate:"required,min=1,dive,required"`
	Weights []float64 `json:"weights" validate:"required,min=1"`
	Month   int       `json:"month" default:"0" validate:"gte=0,lte=12"`
}

type PortfolioOptimizeRequest struct {
	Codes     []string `json:"codes" validate:"required,min=2,dive,required"`
	Objective string   `json:"objective" default:"sharpe" validate:"oneof=sharpe return risk"`
	Month     int      `json:"month" default:"0" validate:"gte=0,lte=12"`
}

type FrontierRequest struct {
	Codes  []string `query:"codes" json:"codes" validate:"required,min=2,dive,required"`
	Points int      `query:"points" json:"points" default:"1000" validate:"gte=10,lte=20000"`
	Month  int      `query:"month" json:"month" default:"0" validate:"gte=0,lte=12"`
}

type SuggestRequest struct {
	Codes         []string `json:"codes" validate:"required,min=2,dive,required"`
	TotalAmount   string   `json:"total_amount" validate:"required"`
	RiskTolerance string   `json:"risk_tolerance" default:"medium" validate:"oneof=low medium high"`
	Month         int      `json:"month" default:"0" validate:"gte=0,lte=12"`
}

type BatchRunRequest struct {
	Month   int `json:"month" default:"0" validate:"gte=0,lte=12"`
	Workers int `json:"workers" default:"0" validate:"gte=0,lte=32"`
}
