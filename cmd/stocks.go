package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	ratingsHttp "github.com/glbter/stock-ratings/ratings/client/http"
	"github.com/glbter/stock-ratings/ratings/export/csv"
	"github.com/glbter/stock-ratings/store"
)

var stocksFlags struct {
	page      int
	pageSize  int
	queryType string
	query     string
	sortBy    string
	format    string
}

var stocksCmd = &cobra.Command{
	Use:   "stocks",
	Short: "Load, search or sort rating records and print the resulting page",
	Example: `  stock-ratings stocks --page 2
  stock-ratings stocks --type brokerage --query "Goldman Sachs"
  stock-ratings stocks --type price --query 10-50
  stock-ratings stocks --query apple --sort score`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if stocksFlags.format != "json" && stocksFlags.format != "csv" {
			return fmt.Errorf("unknown format %q", stocksFlags.format)
		}

		pageSize := stocksFlags.pageSize
		if pageSize < 1 {
			pageSize = cfg.PageSize
		}

		s := store.NewStockStore(newRatingsClient(), logger, store.WithPageSize(pageSize))
		if err := runStocks(cmd, s); err != nil {
			return err
		}

		snap := s.Snapshot()
		if err := printStocks(cmd.OutOrStdout(), snap); err != nil {
			return err
		}

		// the state is printed either way; a failed load still exits non-zero
		if snap.Error != nil {
			return errors.New(*snap.Error)
		}

		return nil
	},
}

func printStocks(w io.Writer, snap store.StockState) error {
	if stocksFlags.format == "csv" {
		return csv.WriteStocks(w, snap.Stocks)
	}

	return printJSON(w, snap)
}

func init() {
	stocksCmd.Flags().IntVar(&stocksFlags.page, "page", 1, "page to show")
	stocksCmd.Flags().IntVar(&stocksFlags.pageSize, "page-size", 0, "records per page (default PAGE_SIZE)")
	stocksCmd.Flags().StringVar(&stocksFlags.queryType, "type", "general", "search type: ticker, action, rating-to, rating-from, brokerage, company, price, general")
	stocksCmd.Flags().StringVar(&stocksFlags.query, "query", "", "search text; price takes min-max")
	stocksCmd.Flags().StringVar(&stocksFlags.sortBy, "sort", "", "sort field, applied within the search when one is given")
	stocksCmd.Flags().StringVar(&stocksFlags.format, "format", "json", "output format: json (whole store state) or csv (records only)")
}

// runStocks drives the store the way a user would: search or load first,
// then sort, then page. Remote failures end up in the snapshot's error and
// are reported by the caller after printing.
func runStocks(cmd *cobra.Command, s *store.StockStore) error {
	ctx := cmd.Context()

	switch {
	case stocksFlags.query != "":
		q, err := ratingsHttp.ParseQuery(stocksFlags.queryType, stocksFlags.query)
		if err != nil {
			return err
		}
		_ = s.Search(ctx, q, 1, 0)
	default:
		_ = s.LoadStocks(ctx, 1, 0)
	}

	if stocksFlags.sortBy != "" {
		_ = s.LoadSorted(ctx, stocksFlags.sortBy)
	}

	if stocksFlags.page > 1 {
		snap := s.Snapshot()
		if snap.Error != nil {
			return nil
		}

		if moved, _ := s.GoToPage(ctx, stocksFlags.page); !moved {
			return fmt.Errorf("page %d is out of range [1, %d]", stocksFlags.page, snap.Pagination.TotalPages)
		}
	}

	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
