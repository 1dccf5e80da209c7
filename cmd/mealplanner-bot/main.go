package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meal-planner/internal/bot"
	"meal-planner/internal/config"
	"meal-planner/internal/repository"
	"meal-planner/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.RequireBot(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.ReminderEnabled() {
		if err := service.ValidateDailyTime(cfg.DailyMenuTime); err != nil {
			log.Fatalf("config: DAILY_MENU_TIME: %v", err)
		}
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
	menu := service.NewMenuService(planRepo, catalog)

	telegramBot, err := bot.New(cfg.TelegramToken, catalog, plans, shopping, menu, cfg)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	scheduler := service.NewSchedulerService(time.Local)
	if cfg.ReminderEnabled() {
		id, err := scheduler.ScheduleDaily(cfg.DailyMenuTime, func() {
			jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := telegramBot.SendDailyMenu(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("daily menu: %v", err)
			}
		})
		if err != nil {
			log.Fatalf("schedule daily menu: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
		log.Printf("[info] daily menu scheduled, next run at %s", scheduler.Next(id).Format(time.RFC3339))
	} else {
		log.Println("[info] daily menu reminder disabled")
	}

	log.Println("Meal planner bot started.")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
