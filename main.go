package main

import (
	"log"
	"os"

	"recipeshare/cmd/config"
	migration "recipeshare/cmd/database/migrate"
	"recipeshare/cmd/database/seed"
	"recipeshare/internal/utils"
)

func main() {
	utils.LoadConfig()

	db, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := migration.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	if len(os.Args) > 1 && os.Args[1] == "seed" {
		csvPath := utils.GetConfig("INGREDIENT_CSV")
		if csvPath == "" {
			csvPath = "data/ingredients.csv"
		}
		if err := seed.SeedIngredients(db, csvPath); err != nil {
			log.Fatalf("failed to seed ingredients: %v", err)
		}
		return
	}

	app, err := config.NewApp(db)
	if err != nil {
		log.Fatalf("failed to set up app: %v", err)
	}

	port := utils.GetConfig("APP_PORT")
	if port == "" {
		port = "8080"
	}
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
