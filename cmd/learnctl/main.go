package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/wayfare/learnctl/internal/app"
	pkgconfig "github.com/wayfare/learnctl/pkg/config"
)

func loadConfig(cmd *cli.Command) (*app.Config, error) {
	cfg := app.NewDefaultConfig()
	path := cmd.String("config")
	if _, err := os.Stat(path); err == nil {
		if err := pkgconfig.Load(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := app.Run(ctx, app.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := app.RunMCP(ctx, app.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

func orchestrateOnce(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	query := cmd.Args().First()
	if query == "" {
		return fmt.Errorf("usage: learnctl orchestrate <query>")
	}

	session, err := app.RunOnce(ctx, cfg, query, os.Stdout)
	if err != nil {
		return fmt.Errorf("orchestrate: %w", err)
	}
	fmt.Printf("session %s: %s\n", session.ID, session.Status)
	return nil
}

func rebuildIndex(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	notes, dangling, err := app.RebuildIndex(cfg)
	if err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	fmt.Printf("indexed %d notes\n", notes)
	for slug, targets := range dangling {
		fmt.Printf("dangling: %s -> %v\n", slug, targets)
	}
	return nil
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("LEARNCTL_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:  "learnctl",
		Usage: "Learning orchestration engine: five-agent pipeline over an Obsidian-style vault",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP host (orchestration API, session events, health checks)",
				Action: serve,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP tool host on stdio",
				Action: serveMCP,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:      "orchestrate",
				Usage:     "Run all five agents once against a query, printing each completed stage and the final session status",
				ArgsUsage: "<query>",
				Action:    orchestrateOnce,
				Flags:     []cli.Flag{configFlag},
			},
			{
				Name:   "rebuild-index",
				Usage:  "Rescan the vault and rebuild the Link Engine, reporting dangling links",
				Action: rebuildIndex,
				Flags:  []cli.Flag{configFlag},
			},
		},
		Flags:  []cli.Flag{configFlag},
		Action: serve,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
