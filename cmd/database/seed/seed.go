package seed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"recipeshare/entities"
)

// SeedIngredients loads the ingredient catalog from a two-column CSV of
// name,measurement_unit. Rows that collide with an existing (name, unit)
// pair are skipped, so re-running the seed is safe.
func SeedIngredients(db *gorm.DB, csvPath string) error {
	file, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("open ingredient csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 2

	var ingredients []*entities.Ingredient
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read ingredient csv: %w", err)
		}
		ingredients = append(ingredients, &entities.Ingredient{
			ID:              uuid.New(),
			Name:            record[0],
			MeasurementUnit: record[1],
		})
	}

	if len(ingredients) == 0 {
		return nil
	}

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(ingredients, 500).Error; err != nil {
		return fmt.Errorf("seed ingredients: %w", err)
	}

	fmt.Printf("Seeded %d ingredients\n", len(ingredients))
	return nil
}
