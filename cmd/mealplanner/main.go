package main

import (
	"context"
	"log"
	"os"

	"meal-planner/internal/cli"
	"meal-planner/internal/config"
	"meal-planner/internal/repository"
	"meal-planner/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	level, err := repository.ParseLogLevel(cfg.DBLogLevel)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL, level)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	planRepo := repository.NewPlanRepository(db)
	catalog := service.NewCatalogService(repository.NewMealRepository(db))
	plans := service.NewPlanService(planRepo, catalog)
	shopping := service.NewShoppingService(planRepo, catalog)

	// Interrupts keep their default behaviour: the prompt blocks on stdin and
	// every write is a single transaction.
	console := cli.New(os.Stdin, os.Stdout, catalog, plans, shopping)
	if err := console.Run(context.Background()); err != nil {
		log.Fatalf("meal planner: %v", err)
	}
}
