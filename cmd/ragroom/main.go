package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ragroom/internal/bus"
	"ragroom/internal/chain"
	"ragroom/internal/config"
	"ragroom/internal/domain"
	"ragroom/internal/memory"
	"ragroom/internal/preprocess"
	"ragroom/internal/provider"
	"ragroom/internal/relay"
	"ragroom/internal/retrieval"
	"ragroom/internal/room"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "ragroom",
		Short: "ragroom: retrieval-augmented chat rooms",
		Long:  "ragroom serves multi-user chat rooms where an AI member answers questions with cited context from a search index.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.ragroom/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(askCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write default config and index profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := config.DefaultConfigDir()
			if err := os.MkdirAll(cfgDir, 0o755); err != nil {
				return err
			}
			cfg := config.Defaults()
			cfgPath := resolveConfigPath()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			if err := config.SaveProfiles(cfg.General.ProfilesPath, config.DefaultProfiles()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath, "profiles", cfg.General.ProfilesPath)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("ragroom " + version)
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the relays and the room pipeline",
		Long:  "Starts all enabled relays (WebSocket, Telegram) and the room orchestrator. Press Ctrl+C to stop.",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		cfg = config.Defaults()
		config.ExpandPaths(cfg)
	}
	if err := config.LoadSecrets(cfg); err != nil {
		return fmt.Errorf("load secrets: %w", err)
	}
	logger = newLogger(cfg.General.LogLevel)

	if err := os.MkdirAll(cfg.General.ScratchDir, 0o755); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	messageBus := bus.New(100, logger)
	defer messageBus.Close()

	profiles, err := config.LoadProfiles(cfg.General.ProfilesPath, logger)
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}

	synthesis, archive, err := buildChain(cfg)
	if err != nil {
		return err
	}
	if archive != nil {
		defer archive.Close()
	}

	captioner := provider.NewVisionCaptioner(provider.VisionConfig{
		APIKey:  cfg.Provider.APIKey,
		APIBase: cfg.Provider.APIBase,
		Model:   cfg.Vision.Model,
		Timeout: time.Duration(cfg.Vision.TimeoutSeconds) * time.Second,
		Logger:  logger,
	})
	pre := preprocess.New(preprocess.Config{
		Captioner:  captioner,
		ScratchDir: cfg.General.ScratchDir,
		Logger:     logger,
	})

	rooms := memory.NewRooms(cfg.Memory.WindowSize)
	orch := room.New(room.Config{
		Bus:         messageBus,
		Rooms:       rooms,
		Rewriter:    pre,
		Synthesizer: synthesis,
		Profiles:    profiles,
		Concurrency: cfg.General.MaxConcurrentMessages,
		Logger:      logger,
	})
	go orch.Run(ctx)

	var relays []domain.Relay
	if cfg.Relays.WebSocket.Enabled {
		relays = append(relays, relay.NewHub(relay.HubConfig{
			Host:        cfg.Relays.WebSocket.Host,
			Port:        cfg.Relays.WebSocket.Port,
			Path:        cfg.Relays.WebSocket.Path,
			OnRoomEmpty: orch.CloseRoom,
			Logger:      logger,
		}))
	}
	if cfg.Relays.Telegram.Enabled && cfg.Relays.Telegram.Token != "" {
		relays = append(relays, relay.NewTelegram(relay.TelegramConfig{
			Token:  cfg.Relays.Telegram.Token,
			Logger: logger,
		}))
	}
	if len(relays) == 0 {
		return fmt.Errorf("no relays enabled")
	}

	for _, r := range relays {
		go func(r domain.Relay) {
			if err := r.Start(ctx, messageBus); err != nil {
				logger.Error("relay error", "relay", r.Name(), "err", err)
			}
		}(r)
		logger.Info("relay enabled", "relay", r.Name())
	}

	logger.Info("ragroom started. Press Ctrl+C to stop.")
	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

func askCmd() *cobra.Command {
	var (
		roomID string
		reset  bool
	)
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a one-shot question through the answer pipeline",
		Long:  "Runs one question through retrieval and synthesis. Prior turns for the room are reloaded from the transcript archive unless --reset is given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
				cfg = config.Defaults()
				config.ExpandPaths(cfg)
			}
			if err := config.LoadSecrets(cfg); err != nil {
				return fmt.Errorf("load secrets: %w", err)
			}

			profiles, err := config.LoadProfiles(cfg.General.ProfilesPath, logger)
			if err != nil {
				return fmt.Errorf("load profiles: %w", err)
			}

			synthesis, archive, err := buildChain(cfg)
			if err != nil {
				return err
			}
			if archive != nil {
				defer archive.Close()
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			win := memory.NewWindow(cfg.Memory.WindowSize)
			if archive != nil && !reset {
				turns, err := archive.History(ctx, roomID, cfg.Memory.WindowSize)
				if err != nil {
					logger.Warn("could not reload history", "room", roomID, "err", err)
				}
				for _, turn := range turns {
					win.Append(turn)
				}
			}

			result, err := synthesis.Answer(ctx, roomID, win, args[0], profiles.For(roomID))
			if err != nil {
				return err
			}

			fmt.Println(result.Answer)
			if len(result.Sources) > 0 {
				fmt.Println("\nReferences:")
				for _, src := range result.Sources {
					fmt.Println("  - " + src)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&roomID, "room", "r", "cli", "room whose memory and index profile to use")
	cmd.Flags().BoolVar(&reset, "reset", false, "start from empty conversation memory")
	return cmd
}

// buildChain wires the retriever, generator, and optional transcript
// archive into the synthesis chain.
func buildChain(cfg *config.Config) (*chain.Chain, *memory.Archive, error) {
	searchTimeout := time.Duration(cfg.Search.TimeoutSeconds) * time.Second
	retriever := retrieval.NewRetriever(retrieval.RetrieverConfig{
		BaseURL: cfg.Search.BaseURL,
		Client:  provider.NewPooledClient(searchTimeout),
		Timeout: searchTimeout,
		Logger:  logger,
	})

	generator := provider.NewGenerator(provider.GeneratorConfig{
		APIKey:    cfg.Provider.APIKey,
		APIBase:   cfg.Provider.APIBase,
		Model:     cfg.Provider.Model,
		MaxTokens: cfg.Provider.MaxTokens,
		Timeout:   time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
		Logger:    logger,
	})

	chainCfg := chain.Config{
		Retriever: retriever,
		Generator: generator,
		Logger:    logger,
	}

	var archive *memory.Archive
	if cfg.Memory.ArchivePath != "" {
		var err error
		archive, err = memory.NewArchive(cfg.Memory.ArchivePath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("transcript archive: %w", err)
		}
		chainCfg.Archive = archive
	}

	return chain.New(chainCfg), archive, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
