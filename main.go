package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jonboulle/clockwork"

	"github.com/cufee/botto-verify/config"
	"github.com/cufee/botto-verify/cooldown"
	"github.com/cufee/botto-verify/handlers"
	"github.com/cufee/botto-verify/logger"
	"github.com/cufee/botto-verify/metrics"
	"github.com/cufee/botto-verify/roster"
)

func main() {
	log := logger.Default()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil {
		log.Error(ctx, "bot stopped", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, log logger.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level, using info", logger.String("log_level", cfg.LogLevel))
	}

	src, err := rosterSource(ctx, cfg)
	if err != nil {
		return err
	}

	clock := clockwork.NewRealClock()
	limiter := cooldown.New(cfg.Cooldown, cfg.CooldownRetention)
	m := metrics.NewManager()

	bot := handlers.New(src, limiter,
		handlers.WithConfig(cfg),
		handlers.WithClock(clock),
		handlers.WithLogger(log.Named("handlers")),
		handlers.WithMetrics(m),
	)

	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent
	dg.LogLevel = discordgo.LogWarning
	discordLogs(log.Named("discordgo"))

	bot.Register(dg)
	if err := dg.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	// Scheduled reply deletions still pending at shutdown are dropped
	defer dg.Close()

	go limiter.Run(ctx, clock, cfg.SweepInterval, m.CooldownSwept)

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, log, cfg.MetricsAddr, m)
	}

	log.Info(ctx, "bot is running", logger.String("verify_channel", cfg.VerifyChannel))
	<-ctx.Done()
	log.Info(context.Background(), "shutting down")
	return nil
}

func rosterSource(ctx context.Context, cfg *config.Config) (roster.Source, error) {
	if cfg.RosterCSV != "" {
		return roster.NewCSVSource(cfg.RosterCSV), nil
	}
	return roster.NewSheetsSource(ctx, cfg.CredentialsFile, cfg.SpreadsheetID, cfg.RosterRange)
}

func serveMetrics(ctx context.Context, log logger.Logger, addr string, m *metrics.Manager) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info(ctx, "serving metrics", logger.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(ctx, "metrics server failed", logger.Error(err))
	}
}

// discordLogs - send discordgo's own messages through our logger
func discordLogs(log logger.Logger) {
	discordgo.Logger = func(msgL, caller int, format string, a ...interface{}) {
		ctx := context.Background()
		msg := fmt.Sprintf(format, a...)
		switch msgL {
		case discordgo.LogError:
			log.Error(ctx, msg)
		case discordgo.LogWarning:
			log.Warn(ctx, msg)
		case discordgo.LogInformational:
			log.Info(ctx, msg)
		default:
			log.Debug(ctx, msg)
		}
	}
}
