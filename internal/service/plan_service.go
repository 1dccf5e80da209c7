package service

import (
	"context"
	"fmt"
	"iter"

	"meal-planner/internal/model"
	"meal-planner/internal/repository"
)

// SelectionRequest describes one slot the selector has to fill.
type SelectionRequest struct {
	Day        model.Day
	Category   model.Category
	Candidates []model.Meal // sorted by name
	Attempt    int          // 0 on the first ask for this slot
	Err        error        // why the previous answer was rejected; nil on the first ask
}

// Selector picks a meal name for a slot. It is asked again for the same slot
// until it returns a name from the candidate list.
type Selector interface {
	Select(ctx context.Context, req SelectionRequest) (string, error)
}

// SelectorFunc adapts a function to the Selector interface.
type SelectorFunc func(ctx context.Context, req SelectionRequest) (string, error)

func (f SelectorFunc) Select(ctx context.Context, req SelectionRequest) (string, error) {
	return f(ctx, req)
}

// DayObserver is optionally implemented by selectors to follow day boundaries.
type DayObserver interface {
	DayStarted(ctx context.Context, day model.Day) error
	DayPlanned(ctx context.Context, day model.Day) error
}

// PlanService builds and renders the weekly plan.
type PlanService struct {
	planRepo *repository.PlanRepository
	catalog  *CatalogService
}

func NewPlanService(planRepo *repository.PlanRepository, catalog *CatalogService) *PlanService {
	return &PlanService{planRepo: planRepo, catalog: catalog}
}

// Build asks sel for every (day, category) slot of the week and replaces the
// current plan with the answers in a single transaction. When a category has no
// meals the current plan is cleared and ErrEmptyCategory is returned. A selector
// error abandons the build without touching the stored plan.
func (s *PlanService) Build(ctx context.Context, sel Selector) ([]model.PlanEntry, error) {
	observer, _ := sel.(DayObserver)
	entries := make([]model.PlanEntry, 0, model.SlotsPerWeek)

	for _, day := range model.Days() {
		if observer != nil {
			if err := observer.DayStarted(ctx, day); err != nil {
				return nil, err
			}
		}

		for _, category := range model.Categories() {
			candidates, err := s.catalog.Candidates(ctx, category)
			if err != nil {
				return nil, err
			}
			if len(candidates) == 0 {
				if err := s.planRepo.Clear(ctx); err != nil {
					return nil, err
				}
				return nil, &EmptyCategoryError{Category: category}
			}

			meal, err := s.selectMeal(ctx, sel, day, category, candidates)
			if err != nil {
				return nil, err
			}
			entries = append(entries, model.PlanEntry{Day: day, Category: category, MealID: meal.ID})
		}

		if observer != nil {
			if err := observer.DayPlanned(ctx, day); err != nil {
				return nil, err
			}
		}
	}

	if err := s.planRepo.Replace(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *PlanService) selectMeal(ctx context.Context, sel Selector, day model.Day, category model.Category, candidates []model.Meal) (model.Meal, error) {
	req := SelectionRequest{Day: day, Category: category, Candidates: candidates}
	for {
		if err := ctx.Err(); err != nil {
			return model.Meal{}, err
		}
		name, err := sel.Select(ctx, req)
		if err != nil {
			return model.Meal{}, err
		}
		if meal, ok := findByName(candidates, name); ok {
			return meal, nil
		}
		req.Attempt++
		req.Err = fmt.Errorf("%q: %w", name, ErrMealNotFound)
	}
}

func findByName(meals []model.Meal, name string) (model.Meal, bool) {
	for _, meal := range meals {
		if meal.Name == name {
			return meal, true
		}
	}
	return model.Meal{}, false
}

// Current returns the stored plan ordered by day, then category.
func (s *PlanService) Current(ctx context.Context) ([]model.PlanEntry, error) {
	return s.planRepo.List(ctx)
}

// NoPlanLine is produced by Lines when nothing is planned.
const NoPlanLine = "No meals found"

// Lines renders the plan lazily: a blank line and the day name before each
// day, then "Category: meal" per slot. Meal names are resolved while iterating.
func (s *PlanService) Lines(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		entries, err := s.planRepo.List(ctx)
		if err != nil {
			yield("", err)
			return
		}
		if len(entries) == 0 {
			yield(NoPlanLine, nil)
			return
		}

		var current model.Day
		for _, entry := range entries {
			if entry.Day != current {
				current = entry.Day
				if !yield("", nil) || !yield(entry.Day.String(), nil) {
					return
				}
			}
			name, err := s.catalog.MealName(ctx, entry.MealID)
			if err != nil {
				yield("", err)
				return
			}
			if !yield(fmt.Sprintf("%s: %s", entry.Category.Title(), name), nil) {
				return
			}
		}
	}
}
