package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"meal-planner/internal/model"
	"meal-planner/internal/repository"
)

// CatalogService validates and stores meals and resolves meal IDs.
type CatalogService struct {
	repo      *repository.MealRepository
	validator *mealValidator
}

func NewCatalogService(repo *repository.MealRepository) *CatalogService {
	return &CatalogService{repo: repo, validator: defaultValidator}
}

// Add validates input and stores the meal, returning it with its new ID.
func (s *CatalogService) Add(ctx context.Context, input MealInput) (*model.Meal, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}

	meal := model.Meal{
		Category: model.Category(input.Category),
		Name:     input.Name,
	}
	for _, name := range input.Ingredients {
		meal.Ingredients = append(meal.Ingredients, model.Ingredient{Name: name})
	}

	if err := s.repo.Create(ctx, &meal); err != nil {
		return nil, err
	}
	return &meal, nil
}

// ListByCategory returns the meals of a category in insertion order.
func (s *CatalogService) ListByCategory(ctx context.Context, category model.Category) ([]model.Meal, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%q: %w", category, ErrInvalidCategory)
	}
	return s.repo.ListByCategory(ctx, category)
}

// Candidates returns the meals of a category sorted by name, as offered while planning.
func (s *CatalogService) Candidates(ctx context.Context, category model.Category) ([]model.Meal, error) {
	meals, err := s.ListByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(meals, func(i, j int) bool {
		return meals[i].Name < meals[j].Name
	})
	return meals, nil
}

func (s *CatalogService) MealName(ctx context.Context, id int64) (string, error) {
	meal, err := s.find(ctx, id)
	if err != nil {
		return "", err
	}
	return meal.Name, nil
}

func (s *CatalogService) Ingredients(ctx context.Context, id int64) ([]string, error) {
	meal, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return meal.IngredientNames(), nil
}

func (s *CatalogService) find(ctx context.Context, id int64) (*model.Meal, error) {
	meal, err := s.repo.FindByID(ctx, id)
	switch {
	case err == nil:
		return meal, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("meal %d: %w", id, ErrNotFound)
	default:
		return nil, fmt.Errorf("find meal %d: %w", id, err)
	}
}
