package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	dashboardHttp "github.com/glbter/stock-ratings/http"
	"github.com/glbter/stock-ratings/ratings/client/rabbit"
	"github.com/glbter/stock-ratings/store"
)

const requestTimeout = 60 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API backed by the stock and recommendation stores",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return ExecuteServe(ctx, logger, cfg)
	},
}

func ExecuteServe(ctx context.Context, logger *zap.Logger, cfg Config) (err error) {
	var notifier store.Notifier = store.NopNotifier{}
	if cfg.RabbitURL != "" {
		conn, ch, dialErr := dialRabbit(cfg.RabbitURL)
		if dialErr != nil {
			return dialErr
		}
		defer func() {
			err = multierr.Combine(err, ch.Close(), conn.Close())
		}()

		notifier = rabbit.NewStateChangePublisher(ch)
		logger.Info("publishing state changes", zap.String("queue", rabbit.STATE_CHANGED_QUEUE))
	}

	client := newRatingsClient()
	handler := dashboardHttp.DashboardHandler{
		Logger:          logger,
		Stocks:          store.NewStockStore(client, logger, store.WithPageSize(cfg.PageSize), store.WithNotifier(notifier)),
		Recommendations: store.NewRecommendationStore(client, logger, notifier),
	}

	if err := handler.Stocks.Reset(ctx); err != nil {
		logger.Warn(fmt.Errorf("initial load: %w", err).Error())
	}
	if err := handler.Recommendations.Fetch(ctx, cfg.RecommendationLimit); err != nil {
		logger.Warn(fmt.Errorf("initial recommendations: %w", err).Error())
	}

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: dashboardHttp.NewRouter(handler, requestTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server is starting", zap.String("addr", cfg.HTTPAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("server is shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

func dialRabbit(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, multierr.Append(fmt.Errorf("open a channel: %w", err), conn.Close())
	}

	if err := rabbit.DeclareQueue(ch); err != nil {
		return nil, nil, multierr.Combine(err, ch.Close(), conn.Close())
	}

	return conn, ch, nil
}
