package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/charlerive/bsiv/cli"
	"github.com/charlerive/bsiv/config"
	"github.com/charlerive/bsiv/logger"
)

func main() {
	log, err := logger.New(config.BootstrapLogLevel(), os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitInvalid)
	}
	config.LoadEnv(log)
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	if err := cli.NewCommand(cfg, time.Now).Execute(); err != nil {
		log.Errorf("%v", err)
		os.Exit(cli.ExitCode(err))
	}
}
