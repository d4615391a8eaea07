package db

import (
	"fmt"

	"photojury/internal/platform/db/migrations"

	"github.com/pressly/goose/v3"
)

// Migrate applies the embedded goose migrations against the connected
// database. Safe to run repeatedly; goose tracks applied versions.
func Migrate(p *Postgres) error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return fmt.Errorf("resolve postgres sql db handle: %w", err)
	}
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(sqlDB, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
