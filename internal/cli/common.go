package cli

import (
	"fmt"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
)

// loadConfig returns cfg, reading the environment when it is nil.
func loadConfig(cfg *config.Config) *config.Config {
	if cfg != nil {
		return cfg
	}
	return config.NewConfig()
}

// openDatabase opens the application database, overriding the SQLite path
// when dbPath is set. Opening migrates the schema and seeds the genres.
func openDatabase(cfg *config.Config, dbPath string) (*database.Database, error) {
	dbCfg := cfg.Database
	if dbPath != "" {
		dbCfg.Path = dbPath
	}
	db, err := database.NewDatabase(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
