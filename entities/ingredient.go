package entities

import (
	"github.com/google/uuid"
)

// Ingredient is reference data bulk-loaded from CSV. The same name with a
// different measurement unit is a distinct row, so uniqueness is on the pair.
type Ingredient struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name            string    `gorm:"size:200;uniqueIndex:idx_ingredient_name_unit" json:"name"`
	MeasurementUnit string    `gorm:"size:200;uniqueIndex:idx_ingredient_name_unit" json:"measurement_unit"`

	Timestamp
}
