package main

import (
	"context"
	"fmt"
	"time"

	"github.com/WishfulLabs/SellerBox/config"
	"github.com/WishfulLabs/SellerBox/internal/broker/kafka"
	"github.com/WishfulLabs/SellerBox/internal/cache/rediscache"
	"github.com/WishfulLabs/SellerBox/internal/gateway/fake"
	"github.com/WishfulLabs/SellerBox/internal/gateway/graphql"
	"github.com/WishfulLabs/SellerBox/internal/gateway/ordersapi"
	"github.com/WishfulLabs/SellerBox/internal/services/ordersync"
)

type workerFactories struct {
	newGateway     func(cfg *config.Config) ordersync.Gateway
	newState       func(cfg *config.Config) ordersync.State
	newProducer    func(cfg *config.Config) ordersync.Producer
	newRateLimiter func(cfg *config.Config) ordersync.RateLimiter
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newGateway: func(cfg *config.Config) ordersync.Gateway {
			if cfg.Gateways.Mode == "fake" {
				return fake.New()
			}
			return ordersapi.New(graphql.New(cfg.Gateways.OrdersAPI.URL, cfg.Gateways.OrdersAPI.APIKey))
		},
		newState: func(cfg *config.Config) ordersync.State {
			redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
			return rediscache.NewSyncState(redisAddr)
		},
		newProducer: func(cfg *config.Config) ordersync.Producer {
			brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
			return kafka.NewProducer(brokers)
		},
		newRateLimiter: func(cfg *config.Config) ordersync.RateLimiter {
			redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
			return rediscache.NewRateLimiter(redisAddr)
		},
	}
}

func buildSyncer(cfg *config.Config, f workerFactories) *ordersync.Syncer {
	topic := cfg.Kafka.OrderItemUpdatedTopicName
	if topic == "" {
		topic = "order-item.updated"
	}

	syncInterval := time.Duration(cfg.SellerBox.WorkerSyncIntervalSeconds) * time.Second
	if syncInterval <= 0 {
		syncInterval = 5 * time.Second
	}
	concurrency := cfg.SellerBox.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	rlPerMin := int64(cfg.SellerBox.WorkerRateLimitPerMinute)
	if rlPerMin <= 0 {
		rlPerMin = 60
	}

	return ordersync.New(f.newGateway(cfg), f.newState(cfg), f.newProducer(cfg), f.newRateLimiter(cfg), topic).
		WithSettings(syncInterval, concurrency, rlPerMin).
		WithScheduler(ordersync.SchedulerConfig{
			SyncDelay: time.Duration(cfg.SellerBox.WorkerUserSyncDelaySeconds) * time.Second,
			Backoff1:  time.Duration(cfg.SellerBox.WorkerBackoff1Seconds) * time.Second,
			Backoff2:  time.Duration(cfg.SellerBox.WorkerBackoff2Seconds) * time.Second,
			Backoff3:  time.Duration(cfg.SellerBox.WorkerBackoff3Seconds) * time.Second,
			Backoff4:  time.Duration(cfg.SellerBox.WorkerBackoff4Seconds) * time.Second,
		})
}

func RunSyncWorker(ctx context.Context, cfg *config.Config, f workerFactories) error {
	return buildSyncer(cfg, f).Run(ctx)
}
