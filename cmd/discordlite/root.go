package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/parsascontentcorner/discordlite/internal/app"
	"github.com/parsascontentcorner/discordlite/internal/config"
	"github.com/parsascontentcorner/discordlite/internal/discord"
	"github.com/parsascontentcorner/discordlite/internal/ratelimit"
	"github.com/parsascontentcorner/discordlite/internal/store"
	"github.com/parsascontentcorner/discordlite/internal/tui"
	"github.com/parsascontentcorner/discordlite/pkg/logger"
)

// NewRootCmd builds the discordlite command tree
func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "discordlite",
		Short:         "A lightweight terminal client for one Discord server",
		Long:          "discordlite connects to a Discord server with a bot token and lets you read, send, edit and delete messages in its text channels.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, runUI)
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate("discordlite version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().String("env-file", "", "load environment variables from this file")
	cmd.PersistentFlags().String("log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	cmd.AddCommand(newLogoutCmd())
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved bot token and server ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				if err := rt.credentials.Clear(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Saved credentials removed.")
				return nil
			})
		},
	}
}

// runtime holds everything built from the configuration
type runtime struct {
	cfg         *config.Config
	log         *zap.Logger
	kv          *store.Store
	credentials *store.CredentialStore
	settings    *store.SettingsStore
}

func withRuntime(cmd *cobra.Command, fn func(context.Context, *runtime) error) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	logLevel, _ := cmd.Flags().GetString("log-level")

	var envFiles []string
	if envFile != "" {
		envFiles = append(envFiles, envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// The terminal belongs to the UI, so logs go to a file
	log, err := logger.NewFileLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = log.Sync()
	}()

	key := cfg.Security.TokenEncryptionKey
	if len(key) == 0 {
		key, err = store.LoadOrCreateKey(cfg.Storage.KeyPath())
		if err != nil {
			return err
		}
	}
	cipher, err := store.NewCipher(key)
	if err != nil {
		return err
	}

	kv, err := store.Open(cfg.Storage.DatabasePath(), log)
	if err != nil {
		return err
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Error("failed to close local store", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := kv.Health(ctx); err != nil {
		return err
	}

	if n, err := kv.PurgeExpired(ctx); err != nil {
		log.Warn("failed to purge expired entries", zap.Error(err))
	} else if n > 0 {
		log.Info("purged expired entries", zap.Int64("count", n))
	}

	return fn(ctx, &runtime{
		cfg:         cfg,
		log:         log,
		kv:          kv,
		credentials: store.NewCredentialStore(kv, cipher, cfg.Storage.CredentialTTL(), log),
		settings:    store.NewSettingsStore(kv, log),
	})
}

func runUI(ctx context.Context, rt *runtime) error {
	rt.log.Info("starting discordlite",
		zap.String("api", rt.cfg.Discord.APIBaseURL),
		zap.Duration("poll_interval", rt.cfg.Polling.Interval),
		zap.String("data_dir", rt.cfg.Storage.DataDir),
	)

	limiter := ratelimit.NewRateLimiter(rt.cfg.Discord.RateLimitPerSecond, rt.log)
	client := discord.NewClient(rt.cfg, limiter, rt.log)
	ctrl := app.NewController(rt.cfg, client, rt.credentials, rt.settings, rt.log)
	defer ctrl.Close()

	// Appearance is applied before anything touches the network
	ctrl.LoadSettings(ctx)

	err := tui.Run(ctx, ctrl, tui.Options{RememberDays: rt.cfg.Storage.CredentialTTLDays})
	rt.log.Info("discordlite stopped")
	return err
}
