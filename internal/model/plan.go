package model

// PlanEntry assigns one meal to a (day, category) slot of the weekly plan.
type PlanEntry struct {
	Day      Day      `gorm:"primaryKey"`
	Category Category `gorm:"primaryKey"`
	MealID   int64    `gorm:"index;not null"`
	Meal     Meal     `gorm:"foreignKey:MealID;references:ID;constraint:OnDelete:RESTRICT"`
}

func (PlanEntry) TableName() string {
	return "plan"
}

// SlotsPerWeek is the number of entries in a complete plan.
const SlotsPerWeek = 7 * 3
