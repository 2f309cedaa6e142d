package entities

import "time"

type Stock struct {
	Ticker     string      `json:"ticker"`
	Company    string      `json:"company"`
	TargetFrom PriceTarget `json:"target_from"`
	TargetTo   PriceTarget `json:"target_to"`
	Action     string      `json:"action"`
	Brokerage  string      `json:"brokerage"`
	RatingFrom string      `json:"rating_from"`
	RatingTo   string      `json:"rating_to"`
	Time       string      `json:"time"`
}

// ParsedTime returns the zero time when Time is not RFC 3339.
func (s Stock) ParsedTime() time.Time {
	return parseTime(s.Time)
}

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}

	return t
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// Consistent reports whether the page count matches the item count and the
// current page lies inside it.
func (p Pagination) Consistent() bool {
	if p.PageSize <= 0 {
		return p.TotalItems == 0 && p.TotalPages == 0
	}

	if p.TotalPages != (p.TotalItems+p.PageSize-1)/p.PageSize {
		return false
	}

	if p.TotalItems > 0 && (p.Page < 1 || p.Page > p.TotalPages) {
		return false
	}

	return true
}

type StocksPage struct {
	Items      []Stock    `json:"items"`
	Pagination Pagination `json:"pagination"`
}

func EmptyStocksPage(page, pageSize int) StocksPage {
	return StocksPage{
		Items: []Stock{},
		Pagination: Pagination{
			Page:     page,
			PageSize: pageSize,
		},
	}
}

type Recommendation struct {
	Ticker     string  `json:"ticker"`
	Company    string  `json:"company"`
	Score      float64 `json:"score"`
	Reason     string  `json:"reason"`
	LastUpdate string  `json:"last_update"`
}

// ParsedLastUpdate returns the zero time when LastUpdate is not RFC 3339.
func (r Recommendation) ParsedLastUpdate() time.Time {
	return parseTime(r.LastUpdate)
}
