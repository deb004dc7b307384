package main

import (
	"fmt"

	"foodgram-api/cmd/config"
	migration "foodgram-api/cmd/database/migrate"
	"foodgram-api/internal/utils"
	"foodgram-api/pkg/logger"
)

func main() {
	utils.LoadConfig()
	logger.Init("foodgram-api", utils.GetConfig("APP_ENV") != "production")

	db, err := config.ConnectDB()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}

	if err := migration.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	app, err := config.NewApp(db)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build application")
	}

	addr := fmt.Sprintf(":%s", utils.GetConfig("APP_PORT"))
	logger.Info().Str("addr", addr).Msg("starting server")
	if err := app.Listen(addr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
