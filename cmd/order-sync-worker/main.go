package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/WishfulLabs/SellerBox/config"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	f := defaultWorkerFactories()
	syncer := buildSyncer(cfg, f)

	// Служебный HTTP (/stats, /trigger) живёт рядом с циклом синхронизации.
	go func() {
		err := runWorkerHTTPServer(ctx, workerHTTPOpts{
			httpAddr:    cfg.SellerBox.WorkerHTTPAddr,
			swaggerPath: os.Getenv("swaggerPath"),
			syncer:      syncer,
			cfg:         cfg,
		})
		if err != nil && err != context.Canceled {
			slog.Error("worker http server", "error", err.Error())
		}
	}()

	if err := syncer.Run(ctx); err != nil && err != context.Canceled {
		panic(err)
	}
}
