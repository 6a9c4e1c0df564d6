package main

import (
	cfg "recipeserv/src/configuration"
	"recipeserv/src/logging"
	server "recipeserv/src/server"
)

func main() {
	config := cfg.ReadProperties()
	logging.Init(logging.Config{Level: config.LogLevel, Format: config.LogFormat})
	if err := server.RunServer(config); err != nil {
		logging.Fatal().Err(err).Msg("server stopped")
	}
}
