package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/glbter/stock-ratings/entities"
	ratingsHttp "github.com/glbter/stock-ratings/ratings/client/http"
)

type fetchCall struct {
	method   string
	query    ratingsHttp.Query
	page     int
	pageSize int
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls []fetchCall
	page  entities.StocksPage
	err   error
}

func (f *fakeFetcher) FetchStocks(_ context.Context, page, pageSize int) (entities.StocksPage, error) {
	return f.record(fetchCall{method: "FetchStocks", page: page, pageSize: pageSize})
}

func (f *fakeFetcher) SearchStocks(_ context.Context, q ratingsHttp.Query, page, pageSize int) (entities.StocksPage, error) {
	return f.record(fetchCall{method: "SearchStocks", query: q, page: page, pageSize: pageSize})
}

func (f *fakeFetcher) record(c fetchCall) (entities.StocksPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, c)
	if f.err != nil {
		return entities.EmptyStocksPage(c.page, c.pageSize), f.err
	}

	p := f.page
	p.Pagination.Page = c.page
	p.Pagination.PageSize = c.pageSize
	return p, nil
}

func (f *fakeFetcher) lastCall(t *testing.T) fetchCall {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.calls)
}

func pageOf(totalItems, totalPages int, tickers ...string) entities.StocksPage {
	items := make([]entities.Stock, 0, len(tickers))
	for _, t := range tickers {
		items = append(items, entities.Stock{Ticker: t, RatingTo: "Buy"})
	}

	return entities.StocksPage{
		Items:      items,
		Pagination: entities.Pagination{TotalItems: totalItems, TotalPages: totalPages},
	}
}

func TestLoadStocks(t *testing.T) {
	f := &fakeFetcher{page: pageOf(25, 3, "AAPL", "MSFT")}
	s := NewStockStore(f, zap.NewNop())

	require.NoError(t, s.LoadStocks(context.Background(), 0, 0))

	assert.Equal(t, fetchCall{method: "FetchStocks", page: 1, pageSize: DefaultPageSize}, f.lastCall(t))

	snap := s.Snapshot()
	assert.Len(t, snap.Stocks, 2)
	assert.Equal(t, 25, snap.Pagination.TotalItems)
	assert.Equal(t, 3, snap.Pagination.TotalPages)
	assert.Equal(t, ratingsHttp.KindAll, snap.Mode)
	assert.Empty(t, snap.Query)
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.Error)
}

func TestLoadStocksFailure(t *testing.T) {
	f := &fakeFetcher{page: pageOf(25, 3, "AAPL")}
	s := NewStockStore(f, zap.NewNop())
	require.NoError(t, s.LoadStocks(context.Background(), 1, 10))

	f.err = errors.New("connection refused")
	err := s.LoadStocks(context.Background(), 2, 10)
	require.Error(t, err)

	snap := s.Snapshot()
	assert.NotNil(t, snap.Stocks)
	assert.Empty(t, snap.Stocks)
	assert.Equal(t, 0, snap.Pagination.TotalItems)
	assert.Equal(t, 0, snap.Pagination.TotalPages)
	require.NotNil(t, snap.Error)
	assert.Contains(t, *snap.Error, "connection refused")
	assert.False(t, snap.Loading)
}

func TestSearchRecordsActiveQuery(t *testing.T) {
	f := &fakeFetcher{page: pageOf(40, 4, "AAPL")}
	s := NewStockStore(f, zap.NewNop(), WithPageSize(10))

	require.NoError(t, s.LoadStocks(context.Background(), 3, 0))
	require.NoError(t, s.Search(context.Background(), ratingsHttp.Company("Apple"), 0, 0))

	assert.Equal(t, fetchCall{method: "SearchStocks", query: ratingsHttp.Company("Apple"), page: 1, pageSize: 10}, f.lastCall(t))

	snap := s.Snapshot()
	assert.Equal(t, ratingsHttp.KindCompany, snap.Mode)
	assert.Equal(t, "Apple", snap.Query)
	assert.Equal(t, 1, snap.Pagination.Page)

	require.NoError(t, s.Search(context.Background(), ratingsHttp.Ticker("AAPL"), 2, 20))
	assert.Equal(t, fetchCall{method: "SearchStocks", query: ratingsHttp.Ticker("AAPL"), page: 2, pageSize: 20}, f.lastCall(t))
}

func TestLoadSortedKeepsActiveSearch(t *testing.T) {
	f := &fakeFetcher{page: pageOf(40, 4, "AAPL")}
	s := NewStockStore(f, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Search(ctx, ratingsHttp.General("apple"), 2, 0))
	require.NoError(t, s.LoadSorted(ctx, "score"))

	call := f.lastCall(t)
	assert.Equal(t, ratingsHttp.SortBy{Field: "score", Within: "apple"}, call.query)
	assert.Equal(t, 1, call.page)

	snap := s.Snapshot()
	assert.Equal(t, ratingsHttp.KindSortBy, snap.Mode)
	assert.Equal(t, "score", snap.SortField)
	assert.Equal(t, "apple", snap.SortWithin)

	require.NoError(t, s.LoadSorted(ctx, "time"))
	assert.Equal(t, ratingsHttp.SortBy{Field: "time"}, f.lastCall(t).query)
}

func TestLoadSortedAfterLoadAll(t *testing.T) {
	f := &fakeFetcher{page: pageOf(40, 4, "AAPL")}
	s := NewStockStore(f, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Search(ctx, ratingsHttp.General("apple"), 0, 0))
	require.NoError(t, s.LoadStocks(ctx, 1, 0))
	require.NoError(t, s.LoadSorted(ctx, "score"))

	assert.Equal(t, ratingsHttp.SortBy{Field: "score"}, f.lastCall(t).query)
}

func TestGoToPageNoop(t *testing.T) {
	f := &fakeFetcher{page: pageOf(30, 3, "AAPL")}
	s := NewStockStore(f, zap.NewNop())
	require.NoError(t, s.LoadStocks(context.Background(), 2, 10))

	before := s.Snapshot()
	calls := f.callCount()

	for _, page := range []int{0, -1, 2, 4} {
		moved, err := s.GoToPage(context.Background(), page)
		require.NoError(t, err)
		assert.False(t, moved, "page %d", page)
	}

	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, calls, f.callCount())
}

func TestGoToPageReplaysActiveAction(t *testing.T) {
	ctx := context.Background()

	t.Run("load all", func(t *testing.T) {
		f := &fakeFetcher{page: pageOf(30, 3, "AAPL")}
		s := NewStockStore(f, zap.NewNop())
		require.NoError(t, s.LoadStocks(ctx, 1, 10))

		moved, err := s.GoToPage(ctx, 3)
		require.NoError(t, err)
		assert.True(t, moved)
		assert.Equal(t, fetchCall{method: "FetchStocks", page: 3, pageSize: 10}, f.lastCall(t))
		assert.Equal(t, 3, s.Snapshot().Pagination.Page)
	})

	t.Run("search", func(t *testing.T) {
		f := &fakeFetcher{page: pageOf(30, 3, "AAPL")}
		s := NewStockStore(f, zap.NewNop())
		require.NoError(t, s.Search(ctx, ratingsHttp.Brokerage("Jefferies"), 0, 10))

		moved, err := s.GoToPage(ctx, 2)
		require.NoError(t, err)
		assert.True(t, moved)
		assert.Equal(t, fetchCall{method: "SearchStocks", query: ratingsHttp.Brokerage("Jefferies"), page: 2, pageSize: 10}, f.lastCall(t))
	})

	t.Run("sort within search", func(t *testing.T) {
		f := &fakeFetcher{page: pageOf(30, 3, "AAPL")}
		s := NewStockStore(f, zap.NewNop())
		require.NoError(t, s.Search(ctx, ratingsHttp.General("apple"), 0, 10))
		require.NoError(t, s.LoadSorted(ctx, "score"))

		moved, err := s.GoToPage(ctx, 2)
		require.NoError(t, err)
		assert.True(t, moved)

		call := f.lastCall(t)
		assert.Equal(t, ratingsHttp.SortBy{Field: "score", Within: "apple"}, call.query)
		assert.Equal(t, 2, call.page)
	})
}

func TestReset(t *testing.T) {
	f := &fakeFetcher{page: pageOf(30, 3, "AAPL")}
	s := NewStockStore(f, zap.NewNop(), WithPageSize(15))
	ctx := context.Background()

	require.NoError(t, s.Search(ctx, ratingsHttp.Ticker("AAPL"), 3, 0))
	require.NoError(t, s.Reset(ctx))

	assert.Equal(t, fetchCall{method: "FetchStocks", page: 1, pageSize: 15}, f.lastCall(t))
	assert.Equal(t, ratingsHttp.KindAll, s.Snapshot().Mode)
}

func TestStockStoreNotifies(t *testing.T) {
	var (
		mu    sync.Mutex
		snaps []StockState
	)
	n := NotifierFunc(func(_ context.Context, store string, snapshot any) error {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, StockStoreName, store)
		snaps = append(snaps, snapshot.(StockState))
		return errors.New("broker down")
	})

	f := &fakeFetcher{page: pageOf(1, 1, "AAPL")}
	s := NewStockStore(f, zap.NewNop(), WithNotifier(n))

	require.NoError(t, s.LoadStocks(context.Background(), 1, 10))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, snaps, 2)
	assert.True(t, snaps[0].Loading)
	assert.False(t, snaps[1].Loading)
	assert.Len(t, snaps[1].Stocks, 1)
}

type blockedCall struct {
	query ratingsHttp.Query
	resp  chan entities.StocksPage
}

type blockingFetcher struct {
	calls chan blockedCall
}

func (f *blockingFetcher) FetchStocks(ctx context.Context, page, pageSize int) (entities.StocksPage, error) {
	return f.SearchStocks(ctx, nil, page, pageSize)
}

func (f *blockingFetcher) SearchStocks(_ context.Context, q ratingsHttp.Query, _, _ int) (entities.StocksPage, error) {
	c := blockedCall{query: q, resp: make(chan entities.StocksPage)}
	f.calls <- c
	return <-c.resp, nil
}

func TestLatestIssuedActionWins(t *testing.T) {
	f := &blockingFetcher{calls: make(chan blockedCall)}
	s := NewStockStore(f, zap.NewNop())
	ctx := context.Background()

	errApple := make(chan error, 1)
	go func() { errApple <- s.Search(ctx, ratingsHttp.General("apple"), 0, 0) }()
	apple := <-f.calls

	errBanana := make(chan error, 1)
	go func() { errBanana <- s.Search(ctx, ratingsHttp.General("banana"), 0, 0) }()
	banana := <-f.calls

	banana.resp <- pageOf(1, 1, "BANANA")
	require.NoError(t, <-errBanana)

	apple.resp <- pageOf(1, 1, "APPLE")
	assert.ErrorIs(t, <-errApple, ErrSuperseded)

	snap := s.Snapshot()
	require.Len(t, snap.Stocks, 1)
	assert.Equal(t, "BANANA", snap.Stocks[0].Ticker)
	assert.Equal(t, "banana", snap.Query)
	assert.False(t, snap.Loading)
}
