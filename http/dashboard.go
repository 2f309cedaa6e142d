package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	ratingsHttp "github.com/glbter/stock-ratings/ratings/client/http"
	"github.com/glbter/stock-ratings/ratings/score"
	"github.com/glbter/stock-ratings/store"
)

// DashboardHandler exposes the stores to a presentation layer. Every action
// answers with the resulting snapshot; failures of the remote API show up in
// its error field.
type DashboardHandler struct {
	Logger          *zap.Logger
	Stocks          *store.StockStore
	Recommendations *store.RecommendationStore
}

func NewRouter(h DashboardHandler, timeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Get("/stocks", h.GetStocks)
	r.Post("/stocks/load", h.LoadStocks)
	r.Post("/stocks/search", h.SearchStocks)
	r.Post("/stocks/sort/{field}", h.SortStocks)
	r.Post("/stocks/page/{page}", h.GoToPage)
	r.Post("/stocks/reset", h.ResetStocks)

	r.Get("/recommendations", h.GetRecommendations)
	r.Post("/recommendations/fetch", h.FetchRecommendations)
	r.Get("/recommendations/top", h.TopRecommendations)

	return r
}

func (h DashboardHandler) GetStocks(w http.ResponseWriter, _ *http.Request) {
	h.respond(w, "GetStocks", h.Stocks.Snapshot())
}

func (h DashboardHandler) LoadStocks(w http.ResponseWriter, r *http.Request) {
	logger := h.Logger.With(zap.String("method", "LoadStocks"))

	page, pageSize, err := paginationParams(r)
	if err != nil {
		logger.Error(err.Error())
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.logActionError(logger, h.Stocks.LoadStocks(r.Context(), page, pageSize))
	h.respond(w, "LoadStocks", h.Stocks.Snapshot())
}

func (h DashboardHandler) SearchStocks(w http.ResponseWriter, r *http.Request) {
	logger := h.Logger.With(zap.String("method", "SearchStocks"))

	page, pageSize, err := paginationParams(r)
	if err != nil {
		logger.Error(err.Error())
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	q, err := ratingsHttp.ParseQuery(r.URL.Query().Get("type"), r.URL.Query().Get("query"))
	if err != nil {
		logger.Error(fmt.Errorf("parse query: %w", err).Error())
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.logActionError(logger, h.Stocks.Search(r.Context(), q, page, pageSize))
	h.respond(w, "SearchStocks", h.Stocks.Snapshot())
}

func (h DashboardHandler) SortStocks(w http.ResponseWriter, r *http.Request) {
	logger := h.Logger.With(zap.String("method", "SortStocks"))

	h.logActionError(logger, h.Stocks.LoadSorted(r.Context(), chi.URLParam(r, "field")))
	h.respond(w, "SortStocks", h.Stocks.Snapshot())
}

func (h DashboardHandler) GoToPage(w http.ResponseWriter, r *http.Request) {
	logger := h.Logger.With(zap.String("method", "GoToPage"))

	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil {
		logger.Error(fmt.Errorf("parse page: %w", err).Error())
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	moved, err := h.Stocks.GoToPage(r.Context(), page)
	if !moved {
		logger.Debug("page unchanged", zap.Int("page", page))
	}
	h.logActionError(logger, err)
	h.respond(w, "GoToPage", h.Stocks.Snapshot())
}

func (h DashboardHandler) ResetStocks(w http.ResponseWriter, r *http.Request) {
	logger := h.Logger.With(zap.String("method", "ResetStocks"))

	h.logActionError(logger, h.Stocks.Reset(r.Context()))
	h.respond(w, "ResetStocks", h.Stocks.Snapshot())
}

func (h DashboardHandler) GetRecommendations(w http.ResponseWriter, _ *http.Request) {
	h.respond(w, "GetRecommendations", h.Recommendations.Snapshot())
}

func (h DashboardHandler) FetchRecommendations(w http.ResponseWriter, r *http.Request) {
	logger := h.Logger.With(zap.String("method", "FetchRecommendations"))

	limit, err := intParam(r, "limit")
	if err != nil {
		logger.Error(err.Error())
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.logActionError(logger, h.Recommendations.Fetch(r.Context(), limit))
	h.respond(w, "FetchRecommendations", h.Recommendations.Snapshot())
}

// TopRecommendations ranks the records on the current page by their rating.
// It is independent of the server-side recommendations.
func (h DashboardHandler) TopRecommendations(w http.ResponseWriter, r *http.Request) {
	logger := h.Logger.With(zap.String("method", "TopRecommendations"))

	n, err := intParam(r, "n")
	if err != nil {
		logger.Error(err.Error())
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.respond(w, "TopRecommendations", score.TopRecommendations(h.Stocks.Snapshot().Stocks, n))
}

func (h DashboardHandler) respond(w http.ResponseWriter, method string, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error(fmt.Errorf("encode response: %w", err).Error(), zap.String("method", method))
	}
}

func (h DashboardHandler) logActionError(logger *zap.Logger, err error) {
	switch {
	case err == nil:
	case errors.Is(err, store.ErrSuperseded):
		logger.Info("action superseded by a newer one")
	default:
		logger.Warn(fmt.Errorf("store action: %w", err).Error())
	}
}

func paginationParams(r *http.Request) (int, int, error) {
	page, err := intParam(r, "page")
	if err != nil {
		return 0, 0, err
	}

	pageSize, err := intParam(r, "pageSize")
	if err != nil {
		return 0, 0, err
	}

	return page, pageSize, nil
}

// intParam returns 0 when the parameter is absent.
func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}

	return n, nil
}
