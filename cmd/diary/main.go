package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/diarykeeper/internal/diary/cli"
	"github.com/dmitrijs2005/diarykeeper/internal/diary/config"
	"github.com/dmitrijs2005/diarykeeper/internal/logging"
)

// set with -ldflags "-X main.buildVersion=..."
var (
	buildVersion = "N/A"
	buildDate    = "N/A"
)

func main() {

	fmt.Fprintf(os.Stdout, "Build version: %s\nBuild date: %s\n", buildVersion, buildDate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)

	app, err := cli.NewApp(ctx, cfg, logger, os.Stdin, os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}
	defer app.Close()

	app.Run(ctx)

}
