package service

import (
	"context"
	"errors"
	"slices"
	"testing"

	"meal-planner/internal/model"
)

func seedWeek(t *testing.T, env testEnv) {
	t.Helper()
	env.add(t, model.Breakfast, "Oatmeal", "oats", "milk")
	env.add(t, model.Breakfast, "Eggs", "eggs")
	env.add(t, model.Lunch, "Soup", "water", "carrots")
	env.add(t, model.Lunch, "Omelette", "eggs", "cheese")
	env.add(t, model.Dinner, "Pasta", "pasta", "tomato")
	env.add(t, model.Dinner, "Frittata", "eggs", "potatoes")
}

func TestBuildFillsEverySlot(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	seedWeek(t, env)

	entries, err := env.plans.Build(ctx, firstCandidate)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(entries) != model.SlotsPerWeek {
		t.Fatalf("expected %d slots, got %d", model.SlotsPerWeek, len(entries))
	}

	stored, err := env.plans.Current(ctx)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if len(stored) != model.SlotsPerWeek {
		t.Fatalf("expected %d stored slots, got %d", model.SlotsPerWeek, len(stored))
	}

	seen := make(map[[2]string]bool)
	for _, entry := range stored {
		key := [2]string{string(entry.Day), string(entry.Category)}
		if seen[key] {
			t.Fatalf("duplicate slot %v", key)
		}
		seen[key] = true

		meals, err := env.catalog.ListByCategory(ctx, entry.Category)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if !slices.ContainsFunc(meals, func(m model.Meal) bool { return m.ID == entry.MealID }) {
			t.Fatalf("slot %v holds meal %d from another category", key, entry.MealID)
		}
	}
}

func TestBuildOffersSortedCandidatesInOrder(t *testing.T) {
	env := newTestEnv(t)
	seedWeek(t, env)

	var asked []string
	sel := SelectorFunc(func(_ context.Context, req SelectionRequest) (string, error) {
		asked = append(asked, string(req.Day)+"/"+string(req.Category))
		if req.Category == model.Breakfast && req.Candidates[0].Name != "Eggs" {
			t.Fatalf("expected name-sorted candidates, got %q first", req.Candidates[0].Name)
		}
		return req.Candidates[0].Name, nil
	})

	if _, err := env.plans.Build(context.Background(), sel); err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(asked) != model.SlotsPerWeek {
		t.Fatalf("expected %d prompts, got %d", model.SlotsPerWeek, len(asked))
	}
	want := []string{"Monday/breakfast", "Monday/lunch", "Monday/dinner", "Tuesday/breakfast"}
	if !slices.Equal(asked[:4], want) {
		t.Fatalf("expected order %v, got %v", want, asked[:4])
	}
	if asked[len(asked)-1] != "Sunday/dinner" {
		t.Fatalf("expected Sunday dinner last, got %s", asked[len(asked)-1])
	}
}

func TestBuildReasksOnUnknownMeal(t *testing.T) {
	env := newTestEnv(t)
	seedWeek(t, env)

	var mondayBreakfast []SelectionRequest
	sel := SelectorFunc(func(_ context.Context, req SelectionRequest) (string, error) {
		if req.Day == model.Monday && req.Category == model.Breakfast {
			mondayBreakfast = append(mondayBreakfast, req)
			switch req.Attempt {
			case 0:
				return "Pizza", nil
			case 1:
				return "oatmeal", nil
			}
			return "Oatmeal", nil
		}
		return req.Candidates[0].Name, nil
	})

	entries, err := env.plans.Build(context.Background(), sel)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(mondayBreakfast) != 3 {
		t.Fatalf("expected 3 asks for Monday breakfast, got %d", len(mondayBreakfast))
	}
	if mondayBreakfast[0].Err != nil {
		t.Fatalf("first ask must carry no error, got %v", mondayBreakfast[0].Err)
	}
	for _, req := range mondayBreakfast[1:] {
		if !errors.Is(req.Err, ErrMealNotFound) {
			t.Fatalf("expected ErrMealNotFound on re-ask, got %v", req.Err)
		}
	}
	if entries[0].Day != model.Monday || entries[0].Category != model.Breakfast || entries[0].MealID != 0 {
		t.Fatalf("expected Oatmeal (id 0) on Monday breakfast, got %+v", entries[0])
	}
}

func TestBuildReplacesPreviousPlan(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	seedWeek(t, env)

	if _, err := env.plans.Build(ctx, firstCandidate); err != nil {
		t.Fatalf("first build: %v", err)
	}
	last := SelectorFunc(func(_ context.Context, req SelectionRequest) (string, error) {
		return req.Candidates[len(req.Candidates)-1].Name, nil
	})
	if _, err := env.plans.Build(ctx, last); err != nil {
		t.Fatalf("second build: %v", err)
	}

	lines := collectLines(t, env.plans)
	want := []string{"", "Monday", "Breakfast: Oatmeal", "Lunch: Soup", "Dinner: Pasta"}
	if !slices.Equal(lines[:5], want) {
		t.Fatalf("expected %v, got %v", want, lines[:5])
	}
}

func TestBuildEmptyCategoryClearsPlan(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	oatmeal := env.add(t, model.Breakfast, "Oatmeal", "oats")
	env.add(t, model.Lunch, "Soup", "water")
	previous := []model.PlanEntry{{Day: model.Monday, Category: model.Breakfast, MealID: oatmeal.ID}}
	if err := env.planRepo.Replace(ctx, previous); err != nil {
		t.Fatalf("seed plan: %v", err)
	}

	asked := 0
	sel := SelectorFunc(func(_ context.Context, req SelectionRequest) (string, error) {
		asked++
		return req.Candidates[0].Name, nil
	})
	_, err := env.plans.Build(ctx, sel)
	if !errors.Is(err, ErrEmptyCategory) {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
	if asked != 2 {
		t.Fatalf("expected breakfast and lunch to be asked before failing, got %d asks", asked)
	}
	entries, err := env.plans.Current(ctx)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected plan to be cleared, got %d entries", len(entries))
	}
}

func TestBuildSelectorErrorKeepsPreviousPlan(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	seedWeek(t, env)
	if _, err := env.plans.Build(ctx, firstCandidate); err != nil {
		t.Fatalf("build: %v", err)
	}

	errClosed := errors.New("input closed")
	calls := 0
	sel := SelectorFunc(func(_ context.Context, req SelectionRequest) (string, error) {
		calls++
		if calls > 5 {
			return "", errClosed
		}
		return req.Candidates[len(req.Candidates)-1].Name, nil
	})
	if _, err := env.plans.Build(ctx, sel); !errors.Is(err, errClosed) {
		t.Fatalf("expected selector error, got %v", err)
	}

	entries, err := env.plans.Current(ctx)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if len(entries) != model.SlotsPerWeek {
		t.Fatalf("expected previous plan intact, got %d entries", len(entries))
	}
	name, err := env.catalog.MealName(ctx, entries[0].MealID)
	if err != nil {
		t.Fatalf("name: %v", err)
	}
	if name != "Eggs" {
		t.Fatalf("expected the first plan's Eggs, got %q", name)
	}
}

type recordingSelector struct {
	events []string
}

func (r *recordingSelector) Select(_ context.Context, req SelectionRequest) (string, error) {
	return req.Candidates[0].Name, nil
}

func (r *recordingSelector) DayStarted(_ context.Context, day model.Day) error {
	r.events = append(r.events, "start "+string(day))
	return nil
}

func (r *recordingSelector) DayPlanned(_ context.Context, day model.Day) error {
	r.events = append(r.events, "done "+string(day))
	return nil
}

func TestBuildNotifiesDayObserver(t *testing.T) {
	env := newTestEnv(t)
	seedWeek(t, env)

	rec := &recordingSelector{}
	if _, err := env.plans.Build(context.Background(), rec); err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(rec.events) != 14 {
		t.Fatalf("expected 14 day events, got %d", len(rec.events))
	}
	if rec.events[0] != "start Monday" || rec.events[1] != "done Monday" || rec.events[13] != "done Sunday" {
		t.Fatalf("unexpected events %v", rec.events)
	}
}

func TestLinesWithoutPlan(t *testing.T) {
	env := newTestEnv(t)
	lines := collectLines(t, env.plans)
	if !slices.Equal(lines, []string{NoPlanLine}) {
		t.Fatalf("expected single no-plan line, got %v", lines)
	}
}

func TestLinesGroupsByDay(t *testing.T) {
	env := newTestEnv(t)
	seedWeek(t, env)
	if _, err := env.plans.Build(context.Background(), firstCandidate); err != nil {
		t.Fatalf("build: %v", err)
	}

	lines := collectLines(t, env.plans)
	if len(lines) != 7*5 {
		t.Fatalf("expected 35 lines, got %d", len(lines))
	}
	want := []string{"", "Sunday", "Breakfast: Eggs", "Lunch: Omelette", "Dinner: Frittata"}
	if !slices.Equal(lines[30:], want) {
		t.Fatalf("expected %v, got %v", want, lines[30:])
	}
}

func TestLinesStopsEarly(t *testing.T) {
	env := newTestEnv(t)
	seedWeek(t, env)
	if _, err := env.plans.Build(context.Background(), firstCandidate); err != nil {
		t.Fatalf("build: %v", err)
	}

	n := 0
	for _, err := range env.plans.Lines(context.Background()) {
		if err != nil {
			t.Fatalf("lines: %v", err)
		}
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Fatalf("expected to stop after 3 lines, got %d", n)
	}
}

func collectLines(t *testing.T, plans *PlanService) []string {
	t.Helper()
	var lines []string
	for line, err := range plans.Lines(context.Background()) {
		if err != nil {
			t.Fatalf("lines: %v", err)
		}
		lines = append(lines, line)
	}
	return lines
}
