package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/glbter/stock-ratings/entities"
)

var (
	ErrEmptyQuery        = errors.New("empty search query")
	ErrInvalidPriceRange = errors.New("invalid price range")
)

// Kind names a search type. KindAll is the unfiltered listing; no Query carries it.
type Kind string

const (
	KindAll        Kind = "all"
	KindTicker     Kind = "ticker"
	KindAction     Kind = "action"
	KindRatingTo   Kind = "rating-to"
	KindRatingFrom Kind = "rating-from"
	KindBrokerage  Kind = "brokerage"
	KindCompany    Kind = "company"
	KindPriceRange Kind = "price"
	KindSortBy     Kind = "sort"
	KindGeneral    Kind = "general"
)

// Query is one of Ticker, Action, RatingTo, RatingFrom, Brokerage, Company,
// PriceRange, SortBy or General.
type Query interface {
	Kind() Kind
	// Text is the query as the user typed it.
	Text() string
	segments() []string
}

type (
	Ticker     string
	Action     string
	RatingTo   string
	RatingFrom string
	Brokerage  string
	Company    string
	General    string
)

func (q Ticker) Kind() Kind         { return KindTicker }
func (q Ticker) Text() string       { return string(q) }
func (q Ticker) segments() []string { return []string{"ticker", string(q)} }

func (q Action) Kind() Kind         { return KindAction }
func (q Action) Text() string       { return string(q) }
func (q Action) segments() []string { return []string{"action", string(q)} }

func (q RatingTo) Kind() Kind         { return KindRatingTo }
func (q RatingTo) Text() string       { return string(q) }
func (q RatingTo) segments() []string { return []string{"ratingto", string(q)} }

func (q RatingFrom) Kind() Kind         { return KindRatingFrom }
func (q RatingFrom) Text() string       { return string(q) }
func (q RatingFrom) segments() []string { return []string{"ratingfrom", string(q)} }

func (q Brokerage) Kind() Kind         { return KindBrokerage }
func (q Brokerage) Text() string       { return string(q) }
func (q Brokerage) segments() []string { return []string{"brokerage", string(q)} }

func (q Company) Kind() Kind         { return KindCompany }
func (q Company) Text() string       { return string(q) }
func (q Company) segments() []string { return []string{"company", string(q)} }

func (q General) Kind() Kind         { return KindGeneral }
func (q General) Text() string       { return string(q) }
func (q General) segments() []string { return []string{"search", string(q)} }

type PriceRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

func (q PriceRange) Kind() Kind   { return KindPriceRange }
func (q PriceRange) Text() string { return q.Min.String() + "-" + q.Max.String() }
func (q PriceRange) segments() []string {
	return []string{"price-range", q.Min.String(), q.Max.String()}
}

// SortBy lists records ordered by Field. A non-empty Within restricts the
// listing to the results of that query.
type SortBy struct {
	Field  string
	Within string
}

func (q SortBy) Kind() Kind         { return KindSortBy }
func (q SortBy) Text() string       { return q.Field }
func (q SortBy) segments() []string { return []string{"sorted", q.Field} }

// ParseQuery turns a search type name and raw text into a Query. Unknown or
// empty type names fall back to a general search.
func ParseQuery(kind, text string) (Query, error) {
	text = strings.TrimSpace(text)

	switch Kind(strings.ToLower(strings.TrimSpace(kind))) {
	case KindTicker:
		return Ticker(text), nil
	case KindAction:
		return Action(text), nil
	case KindRatingTo:
		return RatingTo(text), nil
	case KindRatingFrom:
		return RatingFrom(text), nil
	case KindBrokerage:
		return Brokerage(text), nil
	case KindCompany:
		return Company(text), nil
	case KindPriceRange:
		r, err := ParsePriceRange(text)
		if err != nil {
			return nil, err
		}
		return r, nil
	case KindSortBy:
		return SortBy{Field: text}, nil
	default:
		return General(text), nil
	}
}

// ParsePriceRange parses "min-max", e.g. "10-50", "$12.5-$40" or "$1,000-$2,000".
func ParsePriceRange(text string) (PriceRange, error) {
	lo, hi, ok := strings.Cut(text, "-")
	if !ok {
		return PriceRange{}, fmt.Errorf("%w: %q is not min-max", ErrInvalidPriceRange, text)
	}

	minPrice, err := parseBound(lo)
	if err != nil {
		return PriceRange{}, fmt.Errorf("%w: min: %v", ErrInvalidPriceRange, err)
	}

	maxPrice, err := parseBound(hi)
	if err != nil {
		return PriceRange{}, fmt.Errorf("%w: max: %v", ErrInvalidPriceRange, err)
	}

	return PriceRange{Min: minPrice, Max: maxPrice}, nil
}

// parseBound accepts the same currency text as a price target, e.g. "$1,000".
func parseBound(s string) (decimal.Decimal, error) {
	p := entities.NewPriceTarget(s)
	if !p.Valid {
		return decimal.Decimal{}, fmt.Errorf("can't convert %q to decimal", s)
	}

	return p.Value, nil
}

func validate(q Query) error {
	if q == nil {
		return ErrEmptyQuery
	}

	for _, s := range q.segments() {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: %s", ErrEmptyQuery, q.Kind())
		}
	}

	return nil
}
