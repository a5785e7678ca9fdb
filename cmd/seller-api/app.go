package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/WishfulLabs/SellerBox/config"
	"github.com/WishfulLabs/SellerBox/internal/api/sellerapi"
	"github.com/WishfulLabs/SellerBox/internal/broker/messages"
	"github.com/WishfulLabs/SellerBox/internal/gateway/fake"
	"github.com/WishfulLabs/SellerBox/internal/gateway/graphql"
	"github.com/WishfulLabs/SellerBox/internal/gateway/ordersapi"
	"github.com/WishfulLabs/SellerBox/internal/gateway/packagesapi"
	"github.com/WishfulLabs/SellerBox/internal/gateway/pickuphttp"
	"github.com/WishfulLabs/SellerBox/internal/gateway/pickupsapi"
	"github.com/WishfulLabs/SellerBox/internal/gateway/shiphttp"
	"github.com/WishfulLabs/SellerBox/internal/gateway/storefrontapi"
	"github.com/WishfulLabs/SellerBox/internal/gateway/storefronthttp"
	"github.com/WishfulLabs/SellerBox/internal/orders"
	"github.com/WishfulLabs/SellerBox/internal/packages"
	"github.com/WishfulLabs/SellerBox/internal/pickups"
	"github.com/WishfulLabs/SellerBox/internal/storefront"
)

type sellerAPIOpts struct {
	httpAddr    string
	swaggerPath string

	topic         string
	consumerGroup string

	onListen func(httpAddr string)
}

type kafkaConsumer interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
}

// gatewaySet — все внешние зависимости сервисов одной связкой, чтобы
// режим "fake" подменял их разом.
type gatewaySet struct {
	orders       orders.Gateway
	packagesGW   packages.Gateway
	shipper      packages.Shipper
	pickupsGW    pickups.Gateway
	scheduler    pickups.Scheduler
	storefrontGW storefront.Gateway
	exchanger    storefront.AuthExchanger
}

func buildGateways(cfg *config.Config) gatewaySet {
	if cfg.Gateways.Mode == "fake" {
		g := fake.New()
		return gatewaySet{
			orders:       g,
			packagesGW:   g,
			shipper:      g,
			pickupsGW:    g,
			scheduler:    g,
			storefrontGW: g,
			exchanger:    g,
		}
	}

	return gatewaySet{
		orders:       ordersapi.New(graphql.New(cfg.Gateways.OrdersAPI.URL, cfg.Gateways.OrdersAPI.APIKey)),
		packagesGW:   packagesapi.New(graphql.New(cfg.Gateways.PackagesAPI.URL, cfg.Gateways.PackagesAPI.APIKey)),
		shipper:      shiphttp.New(cfg.Gateways.ShipPackageURL),
		pickupsGW:    pickupsapi.New(graphql.New(cfg.Gateways.PickupsAPI.URL, cfg.Gateways.PickupsAPI.APIKey)),
		scheduler:    pickuphttp.New(cfg.Gateways.SchedulePickupURL),
		storefrontGW: storefrontapi.New(graphql.New(cfg.Gateways.StorefrontAPI.URL, cfg.Gateways.StorefrontAPI.APIKey)),
		exchanger:    storefronthttp.New(cfg.Gateways.StorefrontAuthURL, cfg.Gateways.ShippingProviderURL),
	}
}

func runSellerAPI(ctx context.Context, opts sellerAPIOpts, api *sellerapi.API, ordersSvc *orders.Service, consumer kafkaConsumer) error {
	if opts.httpAddr == "" {
		opts.httpAddr = ":8080"
	}
	if opts.swaggerPath == "" {
		return fmt.Errorf("swaggerPath env var is required")
	}
	if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
		return fmt.Errorf("swagger file not found: %s", opts.swaggerPath)
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, opts.swaggerPath)
	})
	swaggerURL := "/swagger.json"
	if fi, err := os.Stat(opts.swaggerPath); err == nil {
		swaggerURL = fmt.Sprintf("/swagger.json?v=%d", fi.ModTime().Unix())
	}
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))

	r.Mount("/", api.Router())

	go func() {
		slog.Info("kafka consumer started", "topic", opts.topic, "group", opts.consumerGroup)
		_ = consumer.Consume(ctx, func(_key, value []byte) error {
			var m messages.OrderItemUpdated
			if err := json.Unmarshal(value, &m); err != nil {
				return err
			}
			return ordersSvc.ApplyKafkaUpdate(ctx, m)
		})
	}()

	srv := &http.Server{Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	slog.Info("HTTP server listening", "addr", lis.Addr().String())
	if err := srv.Serve(lis); err != http.ErrServerClosed {
		return err
	}
	return ctx.Err()
}
