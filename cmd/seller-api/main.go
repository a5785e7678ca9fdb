package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WishfulLabs/SellerBox/config"
	"github.com/WishfulLabs/SellerBox/internal/api/sellerapi"
	"github.com/WishfulLabs/SellerBox/internal/broker/kafka"
	"github.com/WishfulLabs/SellerBox/internal/cache/rediscache"
	"github.com/WishfulLabs/SellerBox/internal/orders"
	"github.com/WishfulLabs/SellerBox/internal/packages"
	"github.com/WishfulLabs/SellerBox/internal/pickups"
	"github.com/WishfulLabs/SellerBox/internal/storage/pgcommands"
	"github.com/WishfulLabs/SellerBox/internal/storefront"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	httpAddr := cfg.SellerBox.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	consumerGroup := cfg.SellerBox.KafkaConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "seller-api"
	}
	topic := cfg.Kafka.OrderItemUpdatedTopicName
	if topic == "" {
		topic = "order-item.updated"
	}
	detailTTL := time.Duration(cfg.SellerBox.PackageDetailTTLSeconds) * time.Second
	if detailTTL <= 0 {
		detailTTL = 5 * time.Minute
	}

	sslMode := cfg.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
	st := mustOpenPostgresWithRetry(connString, 60*time.Second)
	defer st.Close()

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	detailCache := rediscache.New(redisAddr)
	limiter := rediscache.NewRateLimiter(redisAddr)
	syncState := rediscache.NewSyncState(redisAddr)

	gws := buildGateways(cfg)

	ordersSvc := orders.New(gws.orders, syncState)
	packagesSvc := packages.New(gws.packagesGW, gws.shipper, detailCache, limiter, st, packages.Options{
		DetailTTL:          detailTTL,
		DefaultPageSize:    cfg.SellerBox.PackagePageSize,
		ShipLimitPerMinute: int64(cfg.SellerBox.ShipRateLimitPerMinute),
	})
	pickupsSvc := pickups.New(gws.pickupsGW, gws.scheduler, st)
	storefrontSvc := storefront.New(gws.storefrontGW, gws.exchanger, st)

	api := sellerapi.New(ordersSvc, packagesSvc, pickupsSvc, storefrontSvc, st)

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	consumer := kafka.NewConsumer(brokers, topic, consumerGroup)
	defer func() { _ = consumer.Close() }()

	swaggerPath := os.Getenv("swaggerPath")
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := runSellerAPI(ctx, sellerAPIOpts{
		httpAddr:      httpAddr,
		swaggerPath:   swaggerPath,
		topic:         topic,
		consumerGroup: consumerGroup,
	}, api, ordersSvc, consumer); err != nil && err != context.Canceled {
		panic(err)
	}
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgcommands.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgcommands.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}
