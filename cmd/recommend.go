package cmd

import (
	"github.com/spf13/cobra"

	"github.com/glbter/stock-ratings/ratings/score"
	"github.com/glbter/stock-ratings/store"
)

var recommendFlags struct {
	limit int
	top   bool
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Print server-ranked recommendations, or --top to rank the first page locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newRatingsClient()

		if recommendFlags.top {
			s := store.NewStockStore(client, logger, store.WithPageSize(cfg.PageSize))
			if err := s.LoadStocks(cmd.Context(), 1, 0); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), score.TopRecommendations(s.Snapshot().Stocks, recommendFlags.limit))
		}

		limit := recommendFlags.limit
		if limit < 1 {
			limit = cfg.RecommendationLimit
		}

		s := store.NewRecommendationStore(client, logger, nil)
		if err := s.Fetch(cmd.Context(), limit); err != nil {
			return err
		}

		return printJSON(cmd.OutOrStdout(), s.Snapshot())
	},
}

func init() {
	recommendCmd.Flags().IntVar(&recommendFlags.limit, "limit", 0, "number of recommendations (default RECOMMENDATION_LIMIT)")
	recommendCmd.Flags().BoolVar(&recommendFlags.top, "top", false, "rank the first page of records by rating instead of asking the server")
}
