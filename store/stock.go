package store

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/glbter/stock-ratings/entities"
	ratingsHttp "github.com/glbter/stock-ratings/ratings/client/http"
)

const DefaultPageSize = 10

type StocksFetcher interface {
	FetchStocks(ctx context.Context, page, pageSize int) (entities.StocksPage, error)
	SearchStocks(ctx context.Context, q ratingsHttp.Query, page, pageSize int) (entities.StocksPage, error)
}

// StockState is what a presentation layer renders. Mode, Query, SortField and
// SortWithin remember the active action so paging can replay it.
type StockState struct {
	Stocks     []entities.Stock    `json:"stocks"`
	Pagination entities.Pagination `json:"pagination"`
	Loading    bool                `json:"loading"`
	Error      *string             `json:"error"`
	Mode       ratingsHttp.Kind    `json:"mode"`
	Query      string              `json:"query"`
	SortField  string              `json:"sortField"`
	SortWithin string              `json:"sortWithin,omitempty"`
}

type StockStoreOption func(*StockStore)

func WithNotifier(n Notifier) StockStoreOption {
	return func(s *StockStore) {
		s.notifier = n
	}
}

func WithPageSize(pageSize int) StockStoreOption {
	return func(s *StockStore) {
		if pageSize > 0 {
			s.state.Pagination.PageSize = pageSize
		}
	}
}

// StockStore holds the current page of rating records. Actions may be called
// concurrently; only the response of the most recently issued action is
// applied.
type StockStore struct {
	fetcher  StocksFetcher
	logger   *zap.Logger
	notifier Notifier

	mu     sync.Mutex
	state  StockState
	active ratingsHttp.Query
	gen    uint64
}

func NewStockStore(fetcher StocksFetcher, logger *zap.Logger, opts ...StockStoreOption) *StockStore {
	s := &StockStore{
		fetcher:  fetcher,
		logger:   logger.With(zap.String("caller", "StockStore")),
		notifier: NopNotifier{},
		state: StockState{
			Stocks:     []entities.Stock{},
			Pagination: entities.Pagination{Page: 1, PageSize: DefaultPageSize},
			Mode:       ratingsHttp.KindAll,
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *StockStore) Snapshot() StockState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

// LoadStocks lists all records. Zero page or pageSize keep the current values.
func (s *StockStore) LoadStocks(ctx context.Context, page, pageSize int) error {
	s.mu.Lock()
	page, pageSize = s.pageOrCurrent(page, pageSize)
	s.state.Mode = ratingsHttp.KindAll
	s.state.Query = ""
	s.state.SortField = ""
	s.state.SortWithin = ""
	s.active = nil
	gen, snap := s.beginLocked()
	s.mu.Unlock()

	s.notify(ctx, snap)

	res, err := s.fetcher.FetchStocks(ctx, page, pageSize)
	return s.apply(ctx, "LoadStocks", gen, page, pageSize, res, err)
}

// Search runs q starting at page 1 unless page is given. A zero pageSize keeps
// the current one.
func (s *StockStore) Search(ctx context.Context, q ratingsHttp.Query, page, pageSize int) error {
	s.mu.Lock()
	if page < 1 {
		page = 1
	}
	_, pageSize = s.pageOrCurrent(page, pageSize)
	s.activateLocked(q)
	gen, snap := s.beginLocked()
	s.mu.Unlock()

	s.notify(ctx, snap)

	res, err := s.fetcher.SearchStocks(ctx, q, page, pageSize)
	return s.apply(ctx, "Search", gen, page, pageSize, res, err)
}

// LoadSorted orders records by field from page 1. An active filter or
// free-text search is kept as the scope of the sort.
func (s *StockStore) LoadSorted(ctx context.Context, field string) error {
	s.mu.Lock()
	var within string
	if s.state.Mode != ratingsHttp.KindSortBy && s.state.Mode != ratingsHttp.KindAll {
		within = s.state.Query
	}
	q := ratingsHttp.SortBy{Field: field, Within: within}
	pageSize := s.state.Pagination.PageSize
	s.activateLocked(q)
	gen, snap := s.beginLocked()
	s.mu.Unlock()

	s.notify(ctx, snap)

	res, err := s.fetcher.SearchStocks(ctx, q, 1, pageSize)
	return s.apply(ctx, "LoadSorted", gen, 1, pageSize, res, err)
}

// GoToPage replays the active action for page. It does nothing and reports
// false when page is outside [1, totalPages] or already current.
func (s *StockStore) GoToPage(ctx context.Context, page int) (bool, error) {
	s.mu.Lock()
	p := s.state.Pagination
	if page < 1 || page > p.TotalPages || page == p.Page {
		s.mu.Unlock()
		return false, nil
	}
	active := s.active
	gen, snap := s.beginLocked()
	s.mu.Unlock()

	s.notify(ctx, snap)

	var (
		res entities.StocksPage
		err error
	)
	if active == nil {
		res, err = s.fetcher.FetchStocks(ctx, page, p.PageSize)
	} else {
		res, err = s.fetcher.SearchStocks(ctx, active, page, p.PageSize)
	}

	return true, s.apply(ctx, "GoToPage", gen, page, p.PageSize, res, err)
}

func (s *StockStore) Reset(ctx context.Context) error {
	return s.LoadStocks(ctx, 1, 0)
}

func (s *StockStore) activateLocked(q ratingsHttp.Query) {
	s.active = q
	s.state.Mode = q.Kind()
	s.state.Query = q.Text()
	s.state.SortField = ""
	s.state.SortWithin = ""

	if sort, ok := q.(ratingsHttp.SortBy); ok {
		s.state.SortField = sort.Field
		s.state.SortWithin = sort.Within
	}
}

func (s *StockStore) pageOrCurrent(page, pageSize int) (int, int) {
	if page < 1 {
		page = s.state.Pagination.Page
	}
	if page < 1 {
		page = 1
	}

	if pageSize < 1 {
		pageSize = s.state.Pagination.PageSize
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	return page, pageSize
}

func (s *StockStore) beginLocked() (uint64, StockState) {
	s.gen++
	s.state.Loading = true
	s.state.Error = nil

	return s.gen, s.snapshotLocked()
}

func (s *StockStore) apply(ctx context.Context, method string, gen uint64, page, pageSize int, res entities.StocksPage, err error) error {
	logger := s.logger.With(zap.String("method", method))

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		logger.Debug("drop superseded response", zap.Uint64("generation", gen))
		return ErrSuperseded
	}

	s.state.Loading = false
	if err != nil {
		msg := fmt.Sprintf("failed to load stocks: %v", err)
		s.state.Error = &msg
		s.state.Stocks = []entities.Stock{}
		s.state.Pagination = entities.Pagination{Page: page, PageSize: pageSize}
	} else {
		s.state.Stocks = res.Items
		if s.state.Stocks == nil {
			s.state.Stocks = []entities.Stock{}
		}
		s.state.Pagination = res.Pagination
		if s.state.Pagination.Page < 1 {
			s.state.Pagination.Page = page
		}
		if s.state.Pagination.PageSize < 1 {
			s.state.Pagination.PageSize = pageSize
		}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		logger.Error(fmt.Errorf("load stocks: %w", err).Error())
	}

	s.notify(ctx, snap)

	return err
}

func (s *StockStore) notify(ctx context.Context, snap StockState) {
	if err := s.notifier.Notify(ctx, StockStoreName, snap); err != nil {
		s.logger.Warn(fmt.Errorf("notify state change: %w", err).Error())
	}
}

func (s *StockStore) snapshotLocked() StockState {
	snap := s.state
	snap.Stocks = append([]entities.Stock(nil), s.state.Stocks...)
	if snap.Stocks == nil {
		snap.Stocks = []entities.Stock{}
	}
	if s.state.Error != nil {
		msg := *s.state.Error
		snap.Error = &msg
	}

	return snap
}
