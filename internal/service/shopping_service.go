package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"meal-planner/internal/repository"
)

// ShoppingItem is one line of the shopping list.
type ShoppingItem struct {
	Ingredient string
	Count      int
}

func (i ShoppingItem) String() string {
	if i.Count == 1 {
		return i.Ingredient
	}
	return fmt.Sprintf("%s x%d", i.Ingredient, i.Count)
}

// ShoppingList holds the aggregated ingredients sorted by name.
type ShoppingList struct {
	Items []ShoppingItem
}

func (l ShoppingList) Empty() bool {
	return len(l.Items) == 0
}

func (l ShoppingList) Lines() []string {
	lines := make([]string, 0, len(l.Items))
	for _, item := range l.Items {
		lines = append(lines, item.String())
	}
	return lines
}

// WriteTo writes one item per line.
func (l ShoppingList) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	for _, line := range l.Lines() {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// ShoppingService derives the shopping list from the current plan.
type ShoppingService struct {
	planRepo *repository.PlanRepository
	catalog  *CatalogService
}

func NewShoppingService(planRepo *repository.PlanRepository, catalog *CatalogService) *ShoppingService {
	return &ShoppingService{planRepo: planRepo, catalog: catalog}
}

// Aggregate counts every ingredient occurrence across the planned slots, keyed
// by the exact stored string. An empty plan yields an empty map.
func (s *ShoppingService) Aggregate(ctx context.Context) (map[string]int, error) {
	entries, err := s.planRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	resolved := make(map[int64][]string)
	for _, entry := range entries {
		ingredients, ok := resolved[entry.MealID]
		if !ok {
			ingredients, err = s.catalog.Ingredients(ctx, entry.MealID)
			if err != nil {
				return nil, err
			}
			resolved[entry.MealID] = ingredients
		}
		for _, ing := range ingredients {
			counts[ing]++
		}
	}
	return counts, nil
}

// List returns the aggregated ingredients sorted by name.
func (s *ShoppingService) List(ctx context.Context) (ShoppingList, error) {
	counts, err := s.Aggregate(ctx)
	if err != nil {
		return ShoppingList{}, err
	}
	list := ShoppingList{Items: make([]ShoppingItem, 0, len(counts))}
	for ing, n := range counts {
		list.Items = append(list.Items, ShoppingItem{Ingredient: ing, Count: n})
	}
	sort.Slice(list.Items, func(i, j int) bool {
		return list.Items[i].Ingredient < list.Items[j].Ingredient
	})
	return list, nil
}

// Export writes the shopping list to path. ErrNoPlan is returned, and no file
// is created, when nothing is planned.
func (s *ShoppingService) Export(ctx context.Context, path string) error {
	list, err := s.List(ctx)
	if err != nil {
		return err
	}
	if list.Empty() {
		return ErrNoPlan
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := list.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
