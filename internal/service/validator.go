package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"meal-planner/internal/model"
)

// mealNamePattern: starts with a letter, then letters and spaces only.
var mealNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z ]*$`)

// MealInput is the raw data needed to catalog a meal.
type MealInput struct {
	Category    string   `validate:"required,oneof=breakfast lunch dinner"`
	Name        string   `validate:"mealname"`
	Ingredients []string `validate:"min=1,dive,mealname"`
}

type mealValidator struct {
	validate *validator.Validate
}

func newMealValidator() *mealValidator {
	v := validator.New()
	if err := v.RegisterValidation("mealname", func(fl validator.FieldLevel) bool {
		return mealNamePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register mealname validation: %v", err))
	}
	return &mealValidator{validate: v}
}

var defaultValidator = newMealValidator()

// Struct validates a MealInput and maps failures onto ErrInvalidCategory or ErrInvalidFormat.
func (mv *mealValidator) Struct(input MealInput) error {
	err := mv.validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		if fe.StructField() == "Category" {
			return fmt.Errorf("%q: %w", input.Category, ErrInvalidCategory)
		}
	}
	fe := verrs[0]
	return fmt.Errorf("%s %q: %w", strings.ToLower(fe.StructField()), fmt.Sprint(fe.Value()), ErrInvalidFormat)
}

func (mv *mealValidator) name(value string) error {
	if err := mv.validate.Var(value, "mealname"); err != nil {
		return fmt.Errorf("%q: %w", value, ErrInvalidFormat)
	}
	return nil
}

// ParseCategory accepts exactly "breakfast", "lunch" or "dinner".
func ParseCategory(raw string) (model.Category, error) {
	if err := defaultValidator.validate.Var(raw, "required,oneof=breakfast lunch dinner"); err != nil {
		return "", fmt.Errorf("%q: %w", raw, ErrInvalidCategory)
	}
	return model.Category(raw), nil
}

// ValidateName checks a meal or ingredient name against the letters-and-spaces rule.
func ValidateName(name string) error {
	return defaultValidator.name(name)
}

// SplitIngredients splits a comma separated line, trimming each part, and
// validates every ingredient. Empty parts at the end of the line are dropped,
// so "oats, milk," reads as two ingredients; a line with nothing left is rejected.
func SplitIngredients(line string) ([]string, error) {
	parts := strings.Split(line, ",")
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%q: %w", line, ErrInvalidFormat)
	}

	ingredients := make([]string, 0, len(parts))
	for _, part := range parts {
		ing := strings.TrimSpace(part)
		if err := ValidateName(ing); err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ing)
	}
	return ingredients, nil
}
