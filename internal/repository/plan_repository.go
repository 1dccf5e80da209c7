package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"meal-planner/internal/model"
)

// ErrCategoryMismatch is returned when a plan entry points at a meal of another category.
var ErrCategoryMismatch = errors.New("meal category does not match slot")

// PlanRepository persists the single current weekly plan.
type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Replace drops the current plan and inserts entries in one transaction.
// Every entry must reference an existing meal of the slot's category.
func (r *PlanRepository) Replace(ctx context.Context, entries []model.PlanEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearPlan(tx); err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}

		for _, entry := range entries {
			var meal model.Meal
			if err := tx.Select("id", "category").Where("id = ?", entry.MealID).First(&meal).Error; err != nil {
				return fmt.Errorf("check meal %d: %w", entry.MealID, err)
			}
			if meal.Category != entry.Category {
				return fmt.Errorf("%s %s -> meal %d (%s): %w",
					entry.Day, entry.Category, meal.ID, meal.Category, ErrCategoryMismatch)
			}
		}

		if err := tx.Omit(clause.Associations).Create(&entries).Error; err != nil {
			return fmt.Errorf("create plan entries: %w", err)
		}
		return nil
	})
}

// Clear removes every plan entry.
func (r *PlanRepository) Clear(ctx context.Context) error {
	return clearPlan(r.db.WithContext(ctx))
}

// List returns the plan ordered by weekday, then by category within the day.
func (r *PlanRepository) List(ctx context.Context) ([]model.PlanEntry, error) {
	var entries []model.PlanEntry
	if err := r.db.WithContext(ctx).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list plan: %w", err)
	}
	slices.SortStableFunc(entries, comparePlanEntries)
	return entries, nil
}

// ListByDay returns the entries of one day in category order.
func (r *PlanRepository) ListByDay(ctx context.Context, day model.Day) ([]model.PlanEntry, error) {
	var entries []model.PlanEntry
	if err := r.db.WithContext(ctx).Where("day = ?", day).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list plan for %s: %w", day, err)
	}
	slices.SortStableFunc(entries, comparePlanEntries)
	return entries, nil
}

func clearPlan(db *gorm.DB) error {
	if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.PlanEntry{}).Error; err != nil {
		return fmt.Errorf("clear plan: %w", err)
	}
	return nil
}

func comparePlanEntries(a, b model.PlanEntry) int {
	if d := a.Day.Index() - b.Day.Index(); d != 0 {
		return d
	}
	return a.Category.Index() - b.Category.Index()
}
