package service

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/gorm/logger"

	"meal-planner/internal/model"
	"meal-planner/internal/repository"
)

type testEnv struct {
	planRepo *repository.PlanRepository
	catalog  *CatalogService
	plans    *PlanService
	shopping *ShoppingService
	menu     *MenuService
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "meals.db"), logger.Silent)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	planRepo := repository.NewPlanRepository(db)
	catalog := NewCatalogService(repository.NewMealRepository(db))
	return testEnv{
		planRepo: planRepo,
		catalog:  catalog,
		plans:    NewPlanService(planRepo, catalog),
		shopping: NewShoppingService(planRepo, catalog),
		menu:     NewMenuService(planRepo, catalog),
	}
}

func (e testEnv) add(t *testing.T, category model.Category, name string, ingredients ...string) *model.Meal {
	t.Helper()
	meal, err := e.catalog.Add(context.Background(), MealInput{
		Category:    string(category),
		Name:        name,
		Ingredients: ingredients,
	})
	if err != nil {
		t.Fatalf("add %s: %v", name, err)
	}
	return meal
}

// firstCandidate always picks the first offered meal.
var firstCandidate = SelectorFunc(func(_ context.Context, req SelectionRequest) (string, error) {
	return req.Candidates[0].Name, nil
})
