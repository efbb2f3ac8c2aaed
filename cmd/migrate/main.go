// Command migrate creates or updates the schema, loads the restaurant
// catalog and optionally provisions an admin account.
package main

import (
	"flag"

	"github.com/iliyamo/table-reservation/internal/config"
	"github.com/iliyamo/table-reservation/internal/database"
	"github.com/iliyamo/table-reservation/internal/logger"
	"github.com/iliyamo/table-reservation/internal/utils"
)

func main() {
	skipSeed := flag.Bool("skip-seed", false, "only migrate the schema")
	seedPath := flag.String("seed", "", "catalog file (defaults to SEED_FILE)")
	verbose := flag.Bool("v", false, "log every SQL statement")
	flag.Parse()

	cfg, err := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	db, err := database.OpenGorm(cfg.DB, *verbose)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate schema")
	}
	log.Info().Int("tables", len(database.Tables())).Msg("schema up to date")

	if !*skipSeed {
		path := cfg.SeedFile
		if *seedPath != "" {
			path = *seedPath
		}
		f, err := database.LoadSeedFile(path)
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("load catalog")
		}
		n, err := database.SeedRestaurants(db, f)
		if err != nil {
			log.Fatal().Err(err).Msg("seed restaurants")
		}
		log.Info().Int("restaurants", n).Str("file", path).Msg("catalog seeded")
	}

	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return
	}
	hash, err := utils.HashPassword(cfg.AdminPassword, cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("hash admin password")
	}
	created, err := database.EnsureAdmin(db, cfg.AdminName, cfg.AdminEmail, hash)
	if err != nil {
		log.Fatal().Err(err).Msg("provision admin")
	}
	log.Info().Str("email", cfg.AdminEmail).Bool("created", created).Msg("admin account ready")
}
