package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/demidbot/demidbot/pkg/agent"
	"github.com/demidbot/demidbot/pkg/bus"
	"github.com/demidbot/demidbot/pkg/channels"
	"github.com/demidbot/demidbot/pkg/config"
	"github.com/demidbot/demidbot/pkg/logger"
	"github.com/demidbot/demidbot/pkg/memory"
	"github.com/demidbot/demidbot/pkg/persona"
	"github.com/demidbot/demidbot/pkg/providers"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
)

const appName = "demidbot"

func main() {
	if err := buildRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(home, ".demidbot", "config.json")
}

func buildRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           appName,
		Short:         "Persona chat bot with bounded per-chat memory and LLM replies",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("a subcommand is required")
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "Path to config file")

	root.AddCommand(newRunCommand(&configPath))
	root.AddCommand(newConsoleCommand(&configPath))
	root.AddCommand(newConfigCommand(&configPath))
	root.AddCommand(newStatusCommand(&configPath))
	root.AddCommand(newVersionCommand())

	return root
}

func newRunCommand(configPath *string) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run the bot daemon against the configured channels",
		Example: "  demidbot run --debug",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(*configPath, debug, false)
		},
	}
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func newConsoleCommand(configPath *string) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:     "console",
		Short:   "Chat with the persona locally, no platform token needed",
		Example: "  demidbot console",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(*configPath, debug, true)
		},
	}
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func newConfigCommand(configPath *string) *cobra.Command {
	configRoot := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	configRoot.AddCommand(&cobra.Command{
		Use:     "init",
		Short:   "Write a default config file",
		Example: "  demidbot config init",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := *configPath
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config already exists at %s", path)
			}
			if err := config.SaveConfig(path, config.DefaultConfig()); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Printf("Config written to %s\n", path)
			return nil
		},
	})

	return configRoot
}

func newStatusCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   "Show configuration and provider readiness",
		Example: "  demidbot status",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			fmt.Printf("Config:    %s\n", *configPath)
			fmt.Printf("Persona:   %s (@%s)\n", cfg.Persona.Name, cfg.Persona.BotUsername)
			fmt.Printf("Provider:  %s (model %s)\n", providers.ActiveProviderName(cfg), cfg.Generation.Model)
			if err := providers.ValidateProviderConfig(cfg); err != nil {
				fmt.Printf("Credentials: MISSING (%v)\n", err)
			} else {
				fmt.Println("Credentials: ok")
			}
			fmt.Printf("Memory:    %s (cap %d/chat, window %d)\n",
				cfg.MemoryDBPath(), cfg.Memory.MaxMessagesPerChat, cfg.Memory.ContextWindow)
			if cfg.Channels.Discord.Token != "" {
				fmt.Println("Discord:   configured")
			} else {
				fmt.Println("Discord:   no token")
			}
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show build metadata",
		Run: func(cmd *cobra.Command, args []string) {
			v := version
			if gitCommit != "" {
				v += " (" + gitCommit + ")"
			}
			fmt.Printf("%s %s", appName, v)
			if buildTime != "" {
				fmt.Printf(" built %s", buildTime)
			}
			fmt.Println()
		},
	}
}

func runDaemon(configPath string, debug, consoleOnly bool) error {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if consoleOnly {
		cfg.Channels.Console.Enabled = true
		cfg.Channels.Discord.Token = ""
	}

	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	logger.Setup(level, cfg.Log.Format)

	if err := providers.ValidateProviderConfig(cfg); err != nil {
		return fmt.Errorf("provider not ready: %w", err)
	}
	provider, err := providers.CreateProvider(cfg)
	if err != nil {
		return fmt.Errorf("create provider: %w", err)
	}

	store, err := memory.NewSQLiteStore(cfg.MemoryDBPath(), cfg.Memory.MaxMessagesPerChat)
	if err != nil {
		return fmt.Errorf("open memory store: %w", err)
	}
	defer store.Close()

	msgBus := bus.NewMessageBus()
	defer msgBus.Close()

	manager, err := channels.NewManager(cfg, msgBus)
	if err != nil {
		return err
	}

	loop := agent.NewLoop(cfg, msgBus, store, persona.NewResponder(provider, cfg.Generation))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := manager.StartAll(ctx); err != nil {
		return fmt.Errorf("start channels: %w", err)
	}
	// The Discord identity is only known after connecting.
	loop.SetBotIdentity(manager.BotID("discord"))

	if cfg.Memory.RetentionDays > 0 && cfg.Memory.PruneSchedule != "" {
		retention := time.Duration(cfg.Memory.RetentionDays) * 24 * time.Hour
		janitor, err := memory.NewJanitor(store, cfg.Memory.PruneSchedule, retention)
		if err != nil {
			return fmt.Errorf("configure retention janitor: %w", err)
		}
		go janitor.Run(ctx)
		logger.InfoCF("main", "Retention janitor enabled", map[string]any{
			"schedule":       cfg.Memory.PruneSchedule,
			"retention_days": cfg.Memory.RetentionDays,
		})
	}

	logger.InfoCF("main", "Bot started", map[string]any{
		"version":  version,
		"persona":  cfg.Persona.Name,
		"provider": providers.ActiveProviderName(cfg),
	})

	runErr := loop.Run(ctx)

	logger.InfoC("main", "Shutting down")
	loop.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := manager.StopAll(shutdownCtx); err != nil {
		logger.WarnCF("main", "Channel shutdown reported errors", map[string]any{
			"error": err.Error(),
		})
	}
	return runErr
}
