// Package cli implements the line-oriented prompt loop of the meal planner.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"meal-planner/internal/model"
	"meal-planner/internal/service"
)

const (
	menuPrompt       = "What would you like to do (add, show, plan, list plan, save, exit)?"
	msgWrongCategory = "Wrong meal category! Choose from: breakfast, lunch, dinner."
	msgWrongFormat   = "Wrong format. Use letters only!"
	msgMealNotFound  = "This meal doesn’t exist. Choose a meal from the list above."
)

// Console reads commands line by line and writes plain text answers.
type Console struct {
	in       *bufio.Scanner
	out      io.Writer
	catalog  *service.CatalogService
	plans    *service.PlanService
	shopping *service.ShoppingService
}

func New(in io.Reader, out io.Writer, catalog *service.CatalogService, plans *service.PlanService, shopping *service.ShoppingService) *Console {
	return &Console{
		in:       bufio.NewScanner(in),
		out:      out,
		catalog:  catalog,
		plans:    plans,
		shopping: shopping,
	}
}

// Run serves commands until "exit" or end of input. Unknown commands are ignored.
// Storage failures end the loop with the error.
func (c *Console) Run(ctx context.Context) error {
	for {
		c.println(menuPrompt)
		cmd, err := c.readLine()
		if err != nil {
			return ignoreEOF(err)
		}

		switch cmd {
		case "add":
			err = c.addMeal(ctx)
		case "show":
			err = c.showMeals(ctx)
		case "plan":
			err = c.planWeek(ctx)
		case "list plan":
			err = c.listPlan(ctx)
		case "save":
			err = c.saveShoppingList(ctx)
		case "exit":
			c.println("Bye!")
			return nil
		default:
			continue
		}

		if err != nil {
			return ignoreEOF(err)
		}
	}
}

func (c *Console) addMeal(ctx context.Context) error {
	c.println("Which meal do you want to add (breakfast, lunch, dinner)?")
	category, err := c.readCategory()
	if err != nil {
		return err
	}

	c.println("Input the meal's name:")
	name, err := c.readValid(service.ValidateName)
	if err != nil {
		return err
	}

	c.println("Input the ingredients:")
	var ingredients []string
	if _, err := c.readValid(func(line string) error {
		parsed, perr := service.SplitIngredients(line)
		ingredients = parsed
		return perr
	}); err != nil {
		return err
	}

	if _, err := c.catalog.Add(ctx, service.MealInput{
		Category:    category.String(),
		Name:        name,
		Ingredients: ingredients,
	}); err != nil {
		return err
	}
	c.println("The meal has been added!")
	return nil
}

func (c *Console) showMeals(ctx context.Context) error {
	c.println("Which category do you want to print (breakfast, lunch, dinner)?")
	category, err := c.readCategory()
	if err != nil {
		return err
	}

	meals, err := c.catalog.ListByCategory(ctx, category)
	if err != nil {
		return err
	}
	if len(meals) == 0 {
		c.println("No meals found.")
		return nil
	}

	c.printf("Category: %s\n\n", category)
	for _, meal := range meals {
		c.println()
		c.printf("Name: %s\n", meal.Name)
		c.println("Ingredients: ")
		for _, ing := range meal.IngredientNames() {
			c.println(ing)
		}
		c.println()
	}
	return nil
}

func (c *Console) planWeek(ctx context.Context) error {
	_, err := c.plans.Build(ctx, &consoleSelector{console: c})
	var empty *service.EmptyCategoryError
	if errors.As(err, &empty) {
		c.printf("No meals found for %s. Add one first.\n", empty.Category)
		return nil
	}
	if err != nil {
		return err
	}
	return c.listPlan(ctx)
}

func (c *Console) listPlan(ctx context.Context) error {
	for line, err := range c.plans.Lines(ctx) {
		if err != nil {
			return err
		}
		c.println(line)
	}
	return nil
}

func (c *Console) saveShoppingList(ctx context.Context) error {
	list, err := c.shopping.List(ctx)
	if err != nil {
		return err
	}
	if list.Empty() {
		c.println("Unable to save. Plan your meals first.")
		return nil
	}

	c.println("Input a filename:")
	filename, err := c.readLine()
	if err != nil {
		return err
	}
	if err := c.shopping.Export(ctx, filename); err != nil {
		if errors.Is(err, service.ErrNoPlan) {
			c.println("Unable to save. Plan your meals first.")
			return nil
		}
		c.printf("Error: %v\n", err)
		return nil
	}
	c.println("Saved!")
	return nil
}

func (c *Console) readCategory() (model.Category, error) {
	var category model.Category
	_, err := c.readValidWith(msgWrongCategory, func(line string) error {
		var perr error
		category, perr = service.ParseCategory(line)
		return perr
	})
	return category, err
}

// readValid re-reads lines until check accepts one, printing the format message otherwise.
func (c *Console) readValid(check func(string) error) (string, error) {
	return c.readValidWith(msgWrongFormat, check)
}

func (c *Console) readValidWith(message string, check func(string) error) (string, error) {
	for {
		line, err := c.readLine()
		if err != nil {
			return "", err
		}
		if err := check(line); err != nil {
			c.println(message)
			continue
		}
		return line, nil
	}
}

func (c *Console) readLine() (string, error) {
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", io.EOF
	}
	return c.in.Text(), nil
}

func (c *Console) println(a ...any) {
	fmt.Fprintln(c.out, a...)
}

func (c *Console) printf(format string, a ...any) {
	fmt.Fprintf(c.out, format, a...)
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// consoleSelector asks for each slot on the console.
type consoleSelector struct {
	console *Console
}

func (s *consoleSelector) DayStarted(_ context.Context, day model.Day) error {
	s.console.println(day)
	return nil
}

func (s *consoleSelector) DayPlanned(_ context.Context, day model.Day) error {
	s.console.printf("Yeah! We planned the meals for %s.\n\n", day)
	return nil
}

func (s *consoleSelector) Select(_ context.Context, req service.SelectionRequest) (string, error) {
	if req.Err != nil {
		s.console.println(msgMealNotFound)
	} else {
		for _, meal := range req.Candidates {
			s.console.println(meal.Name)
		}
		s.console.printf("Choose the %s for %s from the list above:\n", req.Category, req.Day)
	}
	return s.console.readLine()
}
