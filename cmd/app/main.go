package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/frontdate/internal"
	pkgconfig "github.com/starford/frontdate/pkg/config"
)

const defaultConfigFile = "frontdate.yaml"

// loadConfig reads the config file and applies flag overrides. An explicit
// --config must exist; the default file is optional.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()

	configPath := cmd.String("config")
	if cmd.IsSet("config") {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if _, err := pkgconfig.LoadIfExists(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cmd.IsSet("check") {
		cfg.Processing.Check = cmd.Bool("check")
	}
	if cmd.IsSet("workers") {
		cfg.Processing.Workers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("git-backend") {
		cfg.Git.Backend = cmd.String("git-backend")
	}
	if cmd.IsSet("ledger") {
		cfg.Ledger.Path = cmd.String("ledger")
	}
	if cmd.IsSet("log-level") {
		if err := cfg.App.LogLevel.UnmarshalText([]byte(cmd.String("log-level"))); err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
	}
	if cmd.IsSet("log-format") {
		cfg.App.LogFormat = cmd.String("log-format")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
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
		internal.WithRoots(cmd.Args().Slice()...),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func history(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Bool("last") {
		if cmd.Args().Len() != 0 {
			return fmt.Errorf("history: --last takes no file path")
		}
		return internal.LastRun(cfg, os.Stdout)
	}
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("history: expected exactly one file path")
	}
	return internal.History(cfg, cmd.Args().First(), os.Stdout)
}

func main() {
	cmd := &cli.Command{
		Name:      "frontdate",
		Usage:     "Keep the date and updated fields of TOML front matter in sync with git history",
		ArgsUsage: "[PATH...]",
		Action:    run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: defaultConfigFile,
				Value:       defaultConfigFile,
				Sources:     cli.EnvVars("FRONTDATE_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "check",
				Usage: "Report files that need updates without writing them; fail if any do",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of files processed concurrently",
			},
			&cli.StringFlag{
				Name:  "git-backend",
				Usage: "History backend: gogit or exec",
			},
			&cli.StringFlag{
				Name:  "ledger",
				Usage: "Path to the SQLite run ledger; empty disables it",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error (DEBUG-4 shows skipped files)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: text or json",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "history",
				Usage:     "Show recorded outcomes for a file, or the last run, from the run ledger",
				ArgsUsage: "[PATH]",
				Action:    history,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "last",
						Usage: "Show every outcome of the most recent run",
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
