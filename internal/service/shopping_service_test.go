package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"meal-planner/internal/model"
)

func TestAggregateEmptyPlan(t *testing.T) {
	env := newTestEnv(t)
	counts, err := env.shopping.Aggregate(context.Background())
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(counts) != 0 {
		t.Fatalf("expected empty map, got %v", counts)
	}
}

func TestAggregateCountsOccurrences(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.add(t, model.Breakfast, "Oatmeal", "oats", "milk")
	env.add(t, model.Lunch, "Sandwich", "bread", "Eggs")
	env.add(t, model.Lunch, "Egg salad", "eggs", "mayo")
	env.add(t, model.Dinner, "Rice", "rice")
	env.add(t, model.Dinner, "Shakshuka", "eggs", "tomato")

	// Egg salad on Monday and Tuesday lunch, Shakshuka on Wednesday dinner.
	sel := SelectorFunc(func(_ context.Context, req SelectionRequest) (string, error) {
		switch {
		case req.Category == model.Breakfast:
			return "Oatmeal", nil
		case req.Category == model.Lunch && (req.Day == model.Monday || req.Day == model.Tuesday):
			return "Egg salad", nil
		case req.Category == model.Lunch:
			return "Sandwich", nil
		case req.Day == model.Wednesday:
			return "Shakshuka", nil
		default:
			return "Rice", nil
		}
	})
	if _, err := env.plans.Build(ctx, sel); err != nil {
		t.Fatalf("build: %v", err)
	}

	counts, err := env.shopping.Aggregate(ctx)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	want := map[string]int{
		"oats":   7,
		"milk":   7,
		"eggs":   3,
		"Eggs":   5,
		"mayo":   2,
		"bread":  5,
		"tomato": 1,
		"rice":   6,
	}
	if len(counts) != len(want) {
		t.Fatalf("expected %v, got %v", want, counts)
	}
	for k, v := range want {
		if counts[k] != v {
			t.Fatalf("%s: expected %d, got %d (all: %v)", k, v, counts[k], counts)
		}
	}
}

func TestAggregateCountsDuplicatesWithinMeal(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.add(t, model.Breakfast, "Double eggs", "eggs", "eggs")
	env.add(t, model.Lunch, "Soup", "water")
	env.add(t, model.Dinner, "Stew", "water", "beef")

	if _, err := env.plans.Build(ctx, firstCandidate); err != nil {
		t.Fatalf("build: %v", err)
	}
	counts, err := env.shopping.Aggregate(ctx)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if counts["eggs"] != 14 || counts["water"] != 14 || counts["beef"] != 7 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestShoppingListLinesAndExport(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.add(t, model.Breakfast, "Oatmeal", "oats", "milk")
	env.add(t, model.Lunch, "Soup", "water")
	env.add(t, model.Dinner, "Pasta", "pasta", "basil")

	path := filepath.Join(t.TempDir(), "list.txt")
	if err := env.shopping.Export(ctx, path); !errors.Is(err, ErrNoPlan) {
		t.Fatalf("expected ErrNoPlan, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("export without a plan must not create the file")
	}

	if _, err := env.plans.Build(ctx, firstCandidate); err != nil {
		t.Fatalf("build: %v", err)
	}
	list, err := env.shopping.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"basil x7", "milk x7", "oats x7", "pasta x7", "water x7"}
	if !slices.Equal(list.Lines(), want) {
		t.Fatalf("expected %v, got %v", want, list.Lines())
	}

	if err := env.shopping.Export(ctx, path); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(data) != "basil x7\nmilk x7\noats x7\npasta x7\nwater x7\n" {
		t.Fatalf("unexpected export %q", data)
	}
}

func TestShoppingItemString(t *testing.T) {
	list := ShoppingList{Items: []ShoppingItem{{"salt", 1}, {"eggs", 3}}}
	var buf bytes.Buffer
	n, err := list.WriteTo(&buf)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "salt\neggs x3\n" || n != int64(buf.Len()) {
		t.Fatalf("unexpected output %q (%d bytes)", buf.String(), n)
	}
}
