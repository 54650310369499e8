package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"StockPulse/internal/di"
	"StockPulse/internal/usecase"
	"StockPulse/pkg/config"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/server"

	"github.com/rs/zerolog"
)

var commands = []string{
	usecase.StageIngest, server.CommandConsume, usecase.StageTrain, usecase.StagePredict,
	usecase.StageEvaluate, usecase.StageRun, server.CommandServe,
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config path] <command> [SYMBOL...]\ncommands: %v\n", os.Args[0], commands)
		flag.PrintDefaults()
	}
	flag.Parse()

	command := flag.Arg(0)
	if !slices.Contains(commands, command) {
		flag.Usage()
		os.Exit(2)
	}

	// used until the configured logger exists
	boot := applogger.NewWriter(os.Stderr, zerolog.InfoLevel)

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		boot.Error("config load failed", applogger.String("path", *configPath), applogger.Error(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := di.InitializeApp(cfg)
	if err != nil {
		boot.Error("app initialization failed", applogger.String("command", command), applogger.Error(err))
		os.Exit(1)
	}
	os.Exit(run(ctx, app, command, flag.Args()[1:]))
}

func run(ctx context.Context, app *server.App, command string, symbols []string) int {
	defer app.Close()

	res, err := app.Run(ctx, command, symbols)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", command, err)
		return 1
	}
	if res != nil && res.HasFailures() {
		fmt.Fprintf(os.Stderr, "%s: %d of %d symbols failed (run %s)\n",
			command, len(res.Failed), len(res.Failed)+len(res.Succeeded), res.RunID)
		for sym, ferr := range res.Failed {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", sym, ferr)
		}
		return 1
	}
	return 0
}

