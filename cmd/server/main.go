package main

import (
	"github.com/lantern-kg/lantern/internal/server"
	"github.com/lantern-kg/lantern/internal/util"
	"github.com/lantern-kg/lantern/pkg/logger"
	"github.com/lantern-kg/lantern/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.New(console.Params{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
