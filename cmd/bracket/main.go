package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/justinjudd/bracket/config"
	"github.com/justinjudd/bracket/console"
	"github.com/justinjudd/bracket/models/memory"
	"github.com/justinjudd/bracket/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	app := &cli.App{
		Name:  "bracket",
		Usage: "run a single-elimination tournament",
		Commands: []*cli.Command{
			serveCommand(cfg),
			playCommand(cfg),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func serveCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve the bracket page over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen address",
				Value: cfg.Addr,
			},
		},
		Action: func(c *cli.Context) error {
			logger, err := newLogger(cfg.Debug)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			engine := memory.NewStorageEngine(memory.WithTTL(cfg.SessionTTL))
			go engine.RunSweeper(ctx, cfg.SweepInterval, func(removed int) {
				logger.Info("idle sessions removed", zap.Int("removed", removed), zap.Int("remaining", engine.Len()))
			})
			srv := web.NewServer(engine, logger, web.WithCookieName(cfg.CookieName))
			return srv.Run(ctx, c.String("addr"), cfg.ShutdownTimeout)
		},
	}
}

func playCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "run a tournament in the terminal",
		Action: func(c *cli.Context) error {
			logger := zap.NewNop()
			if cfg.Debug {
				l, err := zap.NewDevelopment()
				if err != nil {
					return fmt.Errorf("create logger: %w", err)
				}
				logger = l
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			con, err := console.New(c.App.Writer, nil, logger)
			if err != nil {
				return err
			}
			return con.Run(ctx, os.Stdin)
		},
	}
}
