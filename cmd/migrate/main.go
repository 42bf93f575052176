package main

import (
	"context"
	"log"

	"github.com/workforce-hub/attendance-backend-go/internal/config"
	"github.com/workforce-hub/attendance-backend-go/internal/pkg/database"
	"github.com/workforce-hub/attendance-backend-go/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer db.Close()

	files, err := migrations.All()
	if err != nil {
		log.Fatalf("Error reading migrations: %v", err)
	}

	for _, m := range files {
		if _, err := db.Exec(ctx, m.SQL); err != nil {
			log.Fatalf("Error executing migration %s: %v", m.Name, err)
		}
		log.Printf("Applied %s", m.Name)
	}

	log.Println("Migration completed successfully")
}
