package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/mgmu/hortus-tracker/internal/config"
	"github.com/mgmu/hortus-tracker/internal/logging"
	"github.com/mgmu/hortus-tracker/web/client"
	"github.com/mgmu/hortus-tracker/web/handlers"
	"github.com/mgmu/hortus-tracker/web/services"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadWeb()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	api, err := client.New(cfg.APIURL, client.WithLogger(logger))
	if err != nil {
		logger.Fatal("creating API client", zap.Error(err))
	}
	events := services.NewEventsService(api, logger)
	env, err := handlers.New(
		services.NewUsersService(api, logger),
		services.NewPlantsService(api, events, logger),
		events,
		logger,
	)
	if err != nil {
		logger.Fatal("parsing templates", zap.Error(err))
	}

	handler := logging.Middleware(logger)(env.Handler())

	logger.Info("hortus web listening",
		zap.String("addr", cfg.Addr),
		zap.String("api_url", api.BaseURL()),
	)
	err = http.ListenAndServe(cfg.Addr, handler)
	logger.Error("ListenAndServe", zap.Error(err))
	os.Exit(1)
}
