package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/hotspot/internal/config"
	"github.com/robalobadob/hotspot/internal/db"
	"github.com/robalobadob/hotspot/internal/httpserver"
	"github.com/robalobadob/hotspot/internal/places"
	"github.com/robalobadob/hotspot/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := places.Init(cfg.Places.File); err != nil {
		log.Fatal().Err(err).Msg("failed to load place catalog")
	}
	log.Info().Int("places", places.Count()).Msg("place catalog loaded")

	sqlDB, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer sqlDB.Close()
	if err := db.Migrate(sqlDB, cfg.Database.MigrationsDir); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	mem := store.NewMemoryStore()
	srv := httpserver.New(cfg, mem, sqlDB)
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("starting hotspot server")
	if err := srv.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
