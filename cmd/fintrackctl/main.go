package main

import (
	"fintrack/internal/cli"
	applog "fintrack/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentCLI)
	cfg := cli.LoadAndValidateConfig(logger)
	cli.Execute(cli.NewEnv(cfg, logger))
}
