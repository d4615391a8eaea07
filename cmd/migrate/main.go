package main

import (
	"context"
	"log"

	"photojury/internal/app/bootstrap"
)

// Migration process entrypoint. Applies the embedded goose migrations against
// POSTGRES_DSN and exits.
func main() {
	log.Println("photojury migrate starting")
	app, err := bootstrap.BuildMigrator()
	if err != nil {
		log.Fatalf("bootstrap migrator failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("migrate shutdown close failed: %v", err)
		}
	}()

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("photojury migrate failed: %v", err)
	}
	log.Println("photojury migrate finished")
}
