package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/dagaz/internal"
	"github.com/starford/dagaz/internal/models"
	pkgconfig "github.com/starford/dagaz/pkg/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.RunMCP(ctx,
		internal.WithConfig(cfg),
		internal.WithVersion(version),
		internal.WithLogOutput(os.Stderr),
	); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

func runExport(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	from, err := models.ParseDay(cmd.String("from"))
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	to, err := models.ParseDay(cmd.String("to"))
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}

	res, err := internal.RunExport(ctx, from, to,
		internal.WithConfig(cfg),
		internal.WithLogOutput(os.Stderr),
	)
	if err != nil {
		return fmt.Errorf("export error: %w", err)
	}
	fmt.Println(res.Path)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "dagaz",
		Usage:   "Personal daily journal with moods, tags, streaks and analytics",
		Version: version,
		Action:  run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "mcp",
				Usage:  "Serve the journal to an MCP client over stdio",
				Action: runMCP,
			},
			{
				Name:   "export",
				Usage:  "Write the entries of a date range to a Markdown document",
				Action: runExport,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "from",
						Usage:    "First day (YYYY-MM-DD)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "to",
						Usage:    "Last day (YYYY-MM-DD)",
						Required: true,
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
