package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/mgmu/hortus-tracker/api/database"
	"github.com/mgmu/hortus-tracker/api/handlers"
	"github.com/mgmu/hortus-tracker/internal/config"
	"github.com/mgmu/hortus-tracker/internal/logging"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadAPI()
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

	// Connection to database
	db, err := database.Open(context.Background(), cfg.DBDriver, cfg.DBURL)
	if err != nil {
		logger.Fatal("opening database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer db.Close()

	env := handlers.New(db, logger)
	handler := logging.Middleware(logger)(env.Handler())

	logger.Info("hortus API listening",
		zap.String("addr", cfg.Addr),
		zap.String("driver", cfg.DBDriver),
	)
	err = http.ListenAndServe(cfg.Addr, handler)
	logger.Error("ListenAndServe", zap.Error(err))
	os.Exit(1)
}
