package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"discord-digest/internal/digest"
	"discord-digest/internal/discord"
	"discord-digest/internal/llm"
	"discord-digest/internal/security"
	"discord-digest/internal/setup/config"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "discord-digest",
		Usage: "Generate LLM digests of recent Discord server activity",
		Commands: []*cli.Command{
			digestCommand(),
			activityCommand(),
			versionCommand(),
		},
	}

	return app.Run(context.Background(), os.Args)
}

// appDeps bundles the initialized dependencies shared by the subcommands.
type appDeps struct {
	cfg     *config.Config
	logger  *zap.Logger
	fetcher *discord.Fetcher
}

// initApp loads configuration, builds the loggers, and constructs the
// fetcher. The returned cleanup flushes buffered log entries.
func initApp(configPath string) (*appDeps, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	auditZap, err := newAuditLogger(cfg.AuditLogPath())
	if err != nil {
		logger.Sync() //nolint:errcheck // best effort on error path
		return nil, nil, fmt.Errorf("failed to create audit logger: %w", err)
	}

	audit := security.NewLogger(auditZap)

	fetcher, err := discord.NewFetcher(cfg.BotToken(), config.LoadFetch(), audit, logger)
	if err != nil {
		logger.Sync()   //nolint:errcheck // best effort on error path
		auditZap.Sync() //nolint:errcheck // best effort on error path

		return nil, nil, err
	}

	cleanup := func() {
		logger.Sync()   //nolint:errcheck // nothing to do with a flush failure at exit
		auditZap.Sync() //nolint:errcheck // nothing to do with a flush failure at exit
	}

	return &appDeps{cfg: cfg, logger: logger, fetcher: fetcher}, cleanup, nil
}

// newLogger builds the console logger for diagnostics at the given level.
func newLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		parsed = zapcore.InfoLevel
	}

	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(parsed)
	zapCfg.OutputPaths = []string{"stderr"}

	return zapCfg.Build()
}

// newAuditLogger builds the JSON-lines logger backing the security audit
// trail.
func newAuditLogger(path string) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.OutputPaths = []string{path}
	zapCfg.ErrorOutputPaths = []string{"stderr"}
	zapCfg.Sampling = nil

	return zapCfg.Build()
}

func digestCommand() *cli.Command {
	return &cli.Command{
		Name:      "digest",
		Usage:     "Fetch recent messages from a server and generate a digest",
		ArgsUsage: "<server name>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "hours",
				Aliases: []string{"H"},
				Value:   6,
				Usage:   "How many hours of history to fetch",
			},
			&cli.StringFlag{
				Name:    "llm",
				Aliases: []string{"l"},
				Usage:   "LLM provider to use (openai or gemini)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   ".",
				Usage:   "Directory to write the digest file into",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "digest.toml",
				Usage:   "Path to the config file",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			serverName := c.Args().First()
			if serverName == "" {
				return cli.Exit("server name is required", 1)
			}

			hours := int(c.Int("hours"))
			if hours < 1 {
				return cli.Exit("hours must be at least 1", 1)
			}

			deps, cleanup, err := initApp(c.String("config"))
			if err != nil {
				return err
			}
			defer cleanup()

			data, err := deps.fetcher.FetchServerMessages(ctx, serverName, hours)
			if err != nil {
				return err
			}

			if data.TotalMessages == 0 {
				fmt.Printf("No messages found in %q over the last %d hours.\n", data.ServerName, hours)
				return nil
			}

			providerName := c.String("llm")
			if providerName == "" {
				providerName = deps.cfg.LLM.Provider
			}

			provider, err := llm.Select(providerName, llm.DefaultProviders(deps.cfg.LLM, deps.logger))
			if err != nil {
				return err
			}

			req := llm.Request{
				MessagesText: digest.FormatMessages(data),
				ServerName:   data.ServerName,
				ChannelCount: len(data.Channels),
				MessageCount: data.TotalMessages,
				TimeRange:    digest.FormatTimeRange(data.StartTime, data.EndTime),
			}

			deps.logger.Info("Generating digest",
				zap.String("provider", provider.Name()),
				zap.Int("messages", data.TotalMessages))

			body, err := provider.GenerateDigest(ctx, req)
			if err != nil {
				return err
			}

			document := digest.CreateDocument(data, body, provider.Name())

			outPath, err := digest.WriteDocument(
				c.String("output"), digest.DefaultFilename(data.ServerName, time.Now()), document)
			if err != nil {
				return err
			}

			fmt.Println(document)
			fmt.Printf("Digest written to %s\n", outPath)

			return nil
		},
	}
}

func activityCommand() *cli.Command {
	return &cli.Command{
		Name:      "activity",
		Usage:     "Show per-channel message counts without generating a digest",
		ArgsUsage: "<server name>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "hours",
				Aliases: []string{"H"},
				Value:   24,
				Usage:   "How many hours of history to inspect",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "digest.toml",
				Usage:   "Path to the config file",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			serverName := c.Args().First()
			if serverName == "" {
				return cli.Exit("server name is required", 1)
			}

			hours := int(c.Int("hours"))
			if hours < 1 {
				return cli.Exit("hours must be at least 1", 1)
			}

			deps, cleanup, err := initApp(c.String("config"))
			if err != nil {
				return err
			}
			defer cleanup()

			data, err := deps.fetcher.FetchServerMessages(ctx, serverName, hours)
			if err != nil {
				return err
			}

			fmt.Printf("Activity in %q over %s:\n\n", data.ServerName,
				digest.FormatTimeRange(data.StartTime, data.EndTime))

			if data.TotalMessages == 0 {
				fmt.Println("No messages found.")
				return nil
			}

			channels := make([]discord.ChannelMessages, len(data.Channels))
			copy(channels, data.Channels)
			sort.SliceStable(channels, func(i, j int) bool {
				return len(channels[i].Messages) > len(channels[j].Messages)
			})

			for _, ch := range channels {
				fmt.Printf("  #%-30s %6d\n", ch.ChannelName, len(ch.Messages))
			}

			fmt.Printf("\n  %-31s %6d\n", "total", data.TotalMessages)

			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the version",
		Action: func(_ context.Context, _ *cli.Command) error {
			fmt.Println("discord-digest " + version)
			return nil
		},
	}
}
