package gorm

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// runMigrations applies all pending schema migrations.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			// Base schema. The pgvector extension must exist before the
			// embedding column type can be created.
			ID: "001_initial_schema",
			Migrate: func(tx *gorm.DB) error {
				if tx.Dialector.Name() == "postgres" {
					if err := tx.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
						return fmt.Errorf("create vector extension: %w", err)
					}
				}
				return tx.AutoMigrate(
					&User{},
					&Post{},
					&Vault{},
					&VaultPost{},
					&Comment{},
					&Reaction{},
					&Search{},
					&MetricSnapshot{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(
					&MetricSnapshot{},
					&Search{},
					&Reaction{},
					&Comment{},
					&VaultPost{},
					&Vault{},
					&Post{},
					&User{},
				)
			},
		},
		{
			// ANN index for cosine similarity over post embeddings.
			ID: "002_post_embedding_index",
			Migrate: func(tx *gorm.DB) error {
				if tx.Dialector.Name() != "postgres" {
					return nil
				}
				return tx.Exec(
					"CREATE INDEX IF NOT EXISTS ix_post_embedding ON post USING hnsw (embedding vector_cosine_ops)",
				).Error
			},
			Rollback: func(tx *gorm.DB) error {
				if tx.Dialector.Name() != "postgres" {
					return nil
				}
				return tx.Exec("DROP INDEX IF EXISTS ix_post_embedding").Error
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return err
	}

	log.Debug().Msg("Database migrations applied")
	return nil
}
