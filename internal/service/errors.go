package service

import (
	"errors"
	"fmt"

	"meal-planner/internal/model"
)

var (
	ErrInvalidCategory = errors.New("invalid meal category")
	ErrInvalidFormat   = errors.New("invalid name format")
	ErrMealNotFound    = errors.New("meal is not in the offered list")
	ErrEmptyCategory   = errors.New("no meals in category")
	ErrNotFound        = errors.New("meal not found")
	ErrNoPlan          = errors.New("no meals planned")
)

// EmptyCategoryError names the category that stopped a plan build. It matches ErrEmptyCategory.
type EmptyCategoryError struct {
	Category model.Category
}

func (e *EmptyCategoryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Category, ErrEmptyCategory)
}

func (e *EmptyCategoryError) Unwrap() error {
	return ErrEmptyCategory
}
