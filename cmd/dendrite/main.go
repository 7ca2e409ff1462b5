package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/dendrite/dendrite/internal/config"
	"github.com/dendrite/dendrite/internal/engine"
)

func run(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if err := engine.Run(ctx, engine.WithConfig(cfg)); err != nil {
		return fmt.Errorf("engine run error: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "dendrite",
		Usage:  "Headless semantic engine for Markdown vaults, exposed as a language server",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "dendrite.yaml",
				Value:       "dendrite.yaml",
				Sources:     cli.EnvVars("DENDRITE_CONFIG_FILE"),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
