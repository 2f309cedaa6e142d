package cmd

import (
	"net/http"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	ratingsHttp "github.com/glbter/stock-ratings/ratings/client/http"
)

var (
	verbose bool

	logger = zap.NewNop()
	cfg    Config
)

var rootCmd = &cobra.Command{
	Use:   "stock-ratings",
	Short: "Browse and rank analyst rating changes",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = InitLogger(verbose)

		if err := godotenv.Load(); err != nil {
			logger.Debug(".env file not found, using environment variables")
		}

		var err error
		cfg, err = LoadConfig()
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stocksCmd)
	rootCmd.AddCommand(recommendCmd)
}

func newRatingsClient() ratingsHttp.StockRatingsClient {
	client := &http.Client{Timeout: cfg.ClientTimeout}
	return ratingsHttp.NewClient(client, cfg.StockAPIURL, logger)
}
