package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"meal-planner/internal/model"
	"meal-planner/internal/repository"
)

// MenuService builds human-readable summaries of the day's planned meals.
type MenuService struct {
	planRepo *repository.PlanRepository
	catalog  *CatalogService
}

func NewMenuService(planRepo *repository.PlanRepository, catalog *CatalogService) *MenuService {
	return &MenuService{planRepo: planRepo, catalog: catalog}
}

// DailyMenu returns an HTML summary of the meals planned for the weekday of now.
func (s *MenuService) DailyMenu(ctx context.Context, now time.Time) (string, error) {
	day := model.DayOf(now.Weekday())
	entries, err := s.planRepo.ListByDay(ctx, day)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🍽 <b>Menu for %s</b>\n", day))
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("02.01.2006")))

	if len(entries) == 0 {
		builder.WriteString("— nothing planned yet, send /plan to build the week\n")
		return strings.TrimSpace(builder.String()), nil
	}

	for _, entry := range entries {
		meal, err := s.catalog.find(ctx, entry.MealID)
		if err != nil {
			return "", err
		}
		builder.WriteString(formatMenuEntry(entry.Category, *meal))
	}

	return strings.TrimSpace(builder.String()), nil
}

func formatMenuEntry(category model.Category, meal model.Meal) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s <b>%s:</b> %s", categoryIcon(category), category.Title(), html.EscapeString(meal.Name)))
	if ingredients := meal.IngredientNames(); len(ingredients) > 0 {
		sb.WriteString(fmt.Sprintf("\n   🧺 %s", html.EscapeString(strings.Join(ingredients, ", "))))
	}
	sb.WriteByte('\n')
	return sb.String()
}

func categoryIcon(category model.Category) string {
	switch category {
	case model.Breakfast:
		return "🥣"
	case model.Lunch:
		return "🥗"
	case model.Dinner:
		return "🍲"
	default:
		return "🍴"
	}
}
