package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pauljones0/syncbot/internal/ai"
	"github.com/pauljones0/syncbot/internal/command"
	"github.com/pauljones0/syncbot/internal/commands"
	"github.com/pauljones0/syncbot/internal/config"
	"github.com/pauljones0/syncbot/internal/discord"
	"github.com/pauljones0/syncbot/internal/dispatch"
	"github.com/pauljones0/syncbot/internal/logger"
	"github.com/pauljones0/syncbot/internal/maintenance"
	"github.com/pauljones0/syncbot/internal/reconcile"
	"github.com/pauljones0/syncbot/internal/settings"
	"github.com/pauljones0/syncbot/internal/slash"
	"github.com/pauljones0/syncbot/internal/store"
)

const cooldownSweepInterval = time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Error(ctx, "Fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return err
	}

	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create discord session: %w", err)
	}
	if cfg.AppID == "" {
		me, err := dg.User("@me")
		if err != nil {
			return fmt.Errorf("failed to resolve application ID: %w", err)
		}
		cfg.AppID = me.ID
	}

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	var asker commands.Asker
	if cfg.GeminiAPIKey != "" {
		client, err := ai.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return err
		}
		defer client.Close()
		asker = client
	} else {
		logger.Warn(ctx, "GEMINI_API_KEY is not set, the ask command will be disabled")
	}

	cache := settings.NewCache(db, cfg.DefaultPrefix)
	reporter := logger.NewReporter(dg, cfg.ErrorChannelID)
	paginator := discord.NewPaginator(dg, cfg.PaginationTimeout)
	bot := discord.NewBot(dg, paginator)

	cmds := commands.New(commands.Deps{
		Pager:       paginator,
		Status:      bot,
		Usage:       db,
		Settings:    db,
		Prefixes:    cache,
		Permissions: dg,
		Asker:       asker,
	})
	catalog, err := command.NewLoader(cmds.Handlers(), slash.Build).Load(ctx, cfg.CommandsDir)
	if err != nil {
		return err
	}
	cmds.SetRegistry(catalog.Registry)
	logger.Info(ctx, "Loaded commands", "commands", catalog.Registry.Len(), "categories", len(catalog.Targets), "failures", len(catalog.Failures))

	reconciler := reconcile.New(dg, catalog.TargetList(), reconcile.Options{
		AppID:              cfg.AppID,
		Global:             cfg.GlobalCommands,
		MutationsPerSecond: cfg.MutationRate,
	})
	cooldowns := dispatch.NewCooldowns()
	router := dispatch.NewRouter(catalog.Registry, cache, db, reporter, cooldowns)

	bot.Bind(router, reconciler)
	bot.Attach(dg)
	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open gateway: %w", err)
	}
	logger.Info(ctx, "Bot is running", "app_id", cfg.AppID, "global_commands", cfg.GlobalCommands)

	backup := maintenance.NewBackup(db, cache, dg, reporter, maintenance.BackupOptions{
		ChannelID:   cfg.BackupChannelID,
		Dir:         cfg.BackupDir,
		SourceDir:   cfg.SourceDir,
		Collections: cfg.BackupCollections,
	})
	go maintenance.RunEvery(ctx, "backup", cfg.BackupInterval, backup.Run)
	if cfg.StatsChannelID != "" {
		stats := maintenance.NewStats(dg, bot, catalog.Registry, cfg.StatsChannelID)
		go maintenance.RunEvery(ctx, "stats", cfg.StatsInterval, stats.Run)
	}
	go maintenance.RunEvery(ctx, "cooldown-sweep", cooldownSweepInterval, func(ctx context.Context) error {
		if n := cooldowns.Sweep(); n > 0 {
			logger.Debug(ctx, "Swept expired cooldowns", "removed", n)
		}
		return nil
	})

	<-ctx.Done()
	logger.Info(context.Background(), "Shutting down")
	if err := dg.Close(); err != nil {
		logger.Warn(context.Background(), "Failed to close gateway", "error", err)
	}
	bot.Wait()
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		return store.NewSQLite(ctx, cfg.SQLitePath)
	default:
		return store.NewFirestore(ctx, cfg.GCPProjectID)
	}
}
