package main

import (
	"github.com/waste3d/cfproxyhub/internal/config"
	"github.com/waste3d/cfproxyhub/internal/interfaces/cli"
	"github.com/waste3d/cfproxyhub/internal/logger"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logger.Logger.WithError(err).Warn("could not load .env")
	}
	cli.Execute()
}
