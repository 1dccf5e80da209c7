package model

import "strings"

// Category is the meal slot a dish belongs to.
type Category string

const (
	Breakfast Category = "breakfast"
	Lunch     Category = "lunch"
	Dinner    Category = "dinner"
)

// Categories returns the categories in the order a day is planned.
func Categories() []Category {
	return []Category{Breakfast, Lunch, Dinner}
}

func (c Category) Valid() bool {
	switch c {
	case Breakfast, Lunch, Dinner:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// Title returns the category with its first letter upper-cased, e.g. "Breakfast".
func (c Category) Title() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// Index reports the position of c within a planned day, or -1.
func (c Category) Index() int {
	for i, cat := range Categories() {
		if cat == c {
			return i
		}
	}
	return -1
}
