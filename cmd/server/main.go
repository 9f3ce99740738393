package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv" // optional .env loading for local development
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/churn-prediction-api/internal/config"
	"github.com/iliyamo/churn-prediction-api/internal/database"
	"github.com/iliyamo/churn-prediction-api/internal/handler"
	"github.com/iliyamo/churn-prediction-api/internal/oracle"
	"github.com/iliyamo/churn-prediction-api/internal/queue"
	"github.com/iliyamo/churn-prediction-api/internal/repository"
	"github.com/iliyamo/churn-prediction-api/internal/router"
	queue_publisher "github.com/iliyamo/churn-prediction-api/internal/service"
)

func main() {
	_ = godotenv.Load() // absent .env is fine; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	accounts := repository.NewAccountRepo(db)
	datasets := repository.NewDatasetRepo(db)
	scorer := oracle.NewClient(cfg.OracleURL, cfg.OracleTimeout)

	authHandler := handler.NewAuthHandler(cfg, accounts, datasets)
	datasetHandler := handler.NewDatasetHandler(cfg, datasets, scorer)
	datasetHandler.Publish = queue_publisher.PublishDatasetScored

	// Redis is optional: nil disables caching and rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; response cache and rate limiting disabled")
	}

	// Background consumer logs scored datasets; it reconnects on its own
	// and never takes the API down.
	go func() {
		if err := queue.StartDatasetConsumer(); err != nil {
			log.Printf("dataset consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAPI(e, authHandler, datasetHandler, cfg.JWTSecret, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, oracle=%s)", addr, cfg.Env, cfg.OracleURL)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
