// Live event tail: subscribes to the pool event fan-out and prints
// every committed operation. Handy for watching a pool during testing.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/equilibrium-amm/internal/cache"
	"github.com/aman-zulfiqar/equilibrium-amm/internal/config"
	"github.com/aman-zulfiqar/equilibrium-amm/internal/models"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}
	defer client.Close()

	publisher := cache.NewPublisher(client, logger)

	logger.Info("Starting pool event subscriber")

	go func() {
		_ = publisher.Subscribe(ctx, "pools:events", func(event *models.PoolEvent) {
			entry := logger.WithFields(logrus.Fields{
				"pool":  event.Pool,
				"kind":  event.Kind,
				"actor": event.Actor,
			})
			switch event.Kind {
			case models.EventSwap:
				entry.WithFields(logrus.Fields{
					"amount_in":  event.AmountIn,
					"amount_out": event.AmountOut,
					"fee_paid":   event.FeePaid,
				}).Info("Swap")
			case models.EventDeposit, models.EventWithdraw:
				entry.WithFields(logrus.Fields{
					"amounts":   event.Amounts,
					"lp_amount": event.LPAmount,
				}).Info("Liquidity change")
			default:
				entry.Info("Pool event")
			}
		})
	}()

	<-sigCh
	logger.Info("Shutting down subscriber")
}
