package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/bedrock/internal"
	"github.com/starford/bedrock/internal/format"
	"github.com/starford/bedrock/internal/metadata"
	"github.com/starford/bedrock/internal/storage"
	pkgconfig "github.com/starford/bedrock/pkg/config"
)

// loadConfig reads the config file; a missing file leaves the defaults.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	loaded, err := pkgconfig.LoadOptional(cmd.String("config"), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !loaded {
		slog.Warn("config file not found, using defaults", slog.String("path", cmd.String("config")))
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
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

// runFormat prints the live-preview markup of a file, or stdin for "-".
func runFormat(_ context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("usage: bedrock format <file|->")
	}
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	var opts []format.Option
	if caret := int(cmd.Int("caret")); caret >= 0 {
		opts = append(opts, format.WithCaret(caret))
	}
	_, err = io.WriteString(os.Stdout, format.Format(string(data), opts...))
	return err
}

// runIndex prints the vault metadata as JSON without touching the database.
func runIndex(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return err
	}
	metas, err := store.List("")
	if err != nil {
		return err
	}
	texts := make(map[string]string, len(metas))
	paths := make([]string, 0, len(metas))
	for _, m := range metas {
		data, err := store.Read(m.Path)
		if err != nil {
			return err
		}
		texts[m.Path] = string(data)
		paths = append(paths, m.Path)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(metadata.Build(texts, paths))
}

func main() {
	cmd := &cli.Command{
		Name:   "bedrock",
		Usage:  "Markdown vault with a live-preview editor engine, wiki-link graph and full-text search",
		Action: run,
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
				Name:   "serve",
				Usage:  "Run the HTTP API, vault watcher and event stream (default)",
				Action: run,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: runMCP,
			},
			{
				Name:      "format",
				Usage:     "Print the live-preview markup of a Markdown file",
				ArgsUsage: "<file|->",
				Action:    runFormat,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "caret",
						Usage: "Caret offset; the line holding it keeps its markers visible",
						Value: -1,
					},
				},
			},
			{
				Name:   "index",
				Usage:  "Print the vault link and tag metadata as JSON",
				Action: runIndex,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
