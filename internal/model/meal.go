package model

// Meal is a catalogued dish. IDs are allocated by the catalog, never by the database.
type Meal struct {
	ID          int64        `gorm:"primaryKey;autoIncrement:false"`
	Category    Category     `gorm:"index;not null"`
	Name        string       `gorm:"not null"`
	Ingredients []Ingredient `gorm:"foreignKey:MealID;constraint:OnDelete:CASCADE"`
}

// Ingredient is one entry of a meal's ingredient list. Row order by ID is list order.
type Ingredient struct {
	ID     uint   `gorm:"primaryKey"`
	MealID int64  `gorm:"index;not null"`
	Name   string `gorm:"column:ingredient;not null"`
}

// IngredientNames flattens the ingredient rows into their names.
func (m Meal) IngredientNames() []string {
	names := make([]string, 0, len(m.Ingredients))
	for _, ing := range m.Ingredients {
		names = append(names, ing.Name)
	}
	return names
}
