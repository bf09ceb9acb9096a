// Command statedb runs the StateDB server: a RESP2-compatible in-memory
// key-value store listening on a TCP socket.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	"os/signal"

	"github.com/eternalApril/statedb/internal/config"
	"github.com/eternalApril/statedb/internal/engine"
	"github.com/eternalApril/statedb/internal/logger"
	"github.com/eternalApril/statedb/internal/server"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "statedb",
		Usage: "an in-memory RESP2-compatible key-value store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "address",
				Aliases: []string{"a"},
				Usage:   "listen address",
			},
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "listen port",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "directory to search for config.{yaml,json,toml,...}",
				Value: ".",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "statedb: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// CLI flags take precedence over the config file/env, per spec.md §6.
	if v := c.String("address"); v != "" {
		cfg.Server.Host = v
	}
	if v := c.String("port"); v != "" {
		cfg.Server.Port = v
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	log.Info("statedb starting",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
	)

	e := engine.New(log)

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	ln, err := server.Listen(addr, e, log)
	if err != nil {
		return err
	}
	log.Info("listening", zap.String("address", ln.Addr().String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- ln.Serve(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			log.Error("serve error", zap.Error(err))
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Warn("serve exited with error during shutdown", zap.Error(err))
		}
		log.Info("all connections closed gracefully")
	case <-shutdownCtx.Done():
		log.Warn("shutdown timed out, forcing exit", zap.Duration("timeout", 5*time.Second))
	}

	log.Info("statedb stopped")
	return nil
}
