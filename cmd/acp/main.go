package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/auditstack/acp/internal/config"
	"github.com/auditstack/acp/internal/engine"
	acpinit "github.com/auditstack/acp/internal/init"
	"github.com/auditstack/acp/internal/server"
)

func main() {
	// Subcommand dispatch. Anything written to stdout would corrupt the MCP
	// channel, so all human output goes to stderr.
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "init":
			if err := acpinit.Run("."); err != nil {
				log.Fatalf("init: %v", err)
			}
			return
		case "version":
			printVersion()
			return
		case "serve":
			// fallthrough to server mode
		default:
			log.Fatalf("unknown command %q (expected serve, init, or version)", os.Args[1])
		}
	}

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func printVersion() {
	fmt.Fprintf(os.Stdout, "acp %s (%s, %s)\n", server.Version, server.Commit, server.Built)
}

func run() error {
	log.SetOutput(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	client := engine.NewHTTPClient(cfg.Engine.BaseURL, cfg.Engine.APIKey, cfg.Engine.Timeout())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("acp %s: engine %s, model %s", server.Version, cfg.Engine.BaseURL, cfg.Engine.Model)

	srv := server.New(client, *cfg)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server: %w", err)
	}

	return nil
}
