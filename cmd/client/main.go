package main

import (
	"context"
	"log"
	"os"

	"golang.org/x/term"

	"github.com/dmitrijs2005/researcher/internal/buildinfo"
	"github.com/dmitrijs2005/researcher/internal/client/cli"
	"github.com/dmitrijs2005/researcher/internal/client/config"
	"github.com/dmitrijs2005/researcher/internal/client/repositories"
	"github.com/dmitrijs2005/researcher/internal/filex"
	"github.com/dmitrijs2005/researcher/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	dir, err := filex.EnsureDir(cfg.DataDir)
	if err != nil {
		log.Fatalf("data dir: %v", err)
	}
	cfg.DataDir = dir

	logFile, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		log.Fatalf("open log: %v", err)
	}
	defer logFile.Close()

	logger, err := logging.New(cfg.LogBackend, cfg.LogLevel, logFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	if s, ok := logger.(interface{ Sync() error }); ok {
		defer s.Sync()
	}

	repos, err := repositories.InitDatabase(ctx, cfg.DatabasePath())
	if err != nil {
		log.Fatalf("error initializing database: %v", err)
	}
	defer repos.Close()

	plain := !term.IsTerminal(int(os.Stdout.Fd()))
	app := cli.NewApp(cfg, repos.Credentials, os.Stdin, os.Stdout,
		cli.WithLogger(logger),
		cli.WithPlainOutput(plain),
	)

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "client stopped", "error", err)
	}
}
