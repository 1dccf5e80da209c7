package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"meal-planner/internal/model"
)

// MealRepository stores catalogued meals and their ingredients.
type MealRepository struct {
	db *gorm.DB
}

func NewMealRepository(db *gorm.DB) *MealRepository {
	return &MealRepository{db: db}
}

// Create allocates the next meal ID (max + 1, starting at 0) and inserts the meal
// and its ingredient rows in one transaction. meal.ID is set on success.
func (r *MealRepository) Create(ctx context.Context, meal *model.Meal) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next int64
		if err := tx.Model(&model.Meal{}).Select("COALESCE(MAX(id), -1) + 1").Scan(&next).Error; err != nil {
			return fmt.Errorf("allocate meal id: %w", err)
		}

		meal.ID = next
		if err := tx.Omit(clause.Associations).Create(meal).Error; err != nil {
			return fmt.Errorf("create meal: %w", err)
		}

		if len(meal.Ingredients) == 0 {
			return nil
		}
		for i := range meal.Ingredients {
			meal.Ingredients[i].ID = 0
			meal.Ingredients[i].MealID = meal.ID
		}
		if err := tx.Create(&meal.Ingredients).Error; err != nil {
			return fmt.Errorf("create ingredients: %w", err)
		}
		return nil
	})
}

// ListByCategory returns the meals of a category in insertion order with ingredients loaded.
func (r *MealRepository) ListByCategory(ctx context.Context, category model.Category) ([]model.Meal, error) {
	db := r.db.WithContext(ctx)
	var meals []model.Meal
	if err := db.Where("category = ?", category).Order("id ASC").Find(&meals).Error; err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	if err := attachIngredients(db, meals); err != nil {
		return nil, err
	}
	return meals, nil
}

// FindByID loads one meal with its ingredients. Missing meals yield gorm.ErrRecordNotFound.
func (r *MealRepository) FindByID(ctx context.Context, id int64) (*model.Meal, error) {
	db := r.db.WithContext(ctx)
	var meal model.Meal
	if err := db.Where("id = ?", id).First(&meal).Error; err != nil {
		return nil, err
	}
	meals := []model.Meal{meal}
	if err := attachIngredients(db, meals); err != nil {
		return nil, err
	}
	return &meals[0], nil
}

// attachIngredients fills in the ingredient rows of meals in row order.
// gorm's Preload skips parents whose key is the zero value, and meal 0 is a real meal.
func attachIngredients(db *gorm.DB, meals []model.Meal) error {
	if len(meals) == 0 {
		return nil
	}
	ids := make([]int64, len(meals))
	for i, meal := range meals {
		ids[i] = meal.ID
	}

	var rows []model.Ingredient
	if err := db.Where("meal_id IN ?", ids).Order("id ASC").Find(&rows).Error; err != nil {
		return fmt.Errorf("load ingredients: %w", err)
	}

	byMeal := make(map[int64][]model.Ingredient, len(meals))
	for _, row := range rows {
		byMeal[row.MealID] = append(byMeal[row.MealID], row)
	}
	for i := range meals {
		meals[i].Ingredients = byMeal[meals[i].ID]
	}
	return nil
}
