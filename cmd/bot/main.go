// Command bot starts the pickup-draft Discord bot.
//
// this binary:
//  1. loads config from environment variables (.env during dev)
//  2. opens the SQLite match history
//  3. creates a discord session and registers the app handlers
//  4. serves the status API, when enabled
//  5. waits for a signal from the OS to exit
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jose-valero/pug-draft-bot/internal/app"
	"github.com/jose-valero/pug-draft-bot/internal/httpapi"
	"github.com/jose-valero/pug-draft-bot/internal/storage/sqlite"
	"github.com/jose-valero/pug-draft-bot/pkg/config"
)

func setupLogger(level string) {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func main() {
	// read and validate the minimal config to work
	cfg, err := config.Load()
	if err != nil {
		setupLogger("info")
		log.Fatal().Err(err).Msg("config error")
	}
	setupLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("storage error")
	}
	defer store.Close()

	// the prefix "Bot " is required for bot tokens
	sess, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("discord session error")
	}
	sess.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates // voice policy for joins

	// this layer keeps wiring separate from domain
	b := app.NewBot(ctx, sess, cfg, store)
	if err := b.RegisterHandlers(); err != nil {
		log.Error().Err(err).Msg("register handlers")
	}
	defer b.Stop()

	// open websocket gateway
	if err := sess.Open(); err != nil {
		log.Fatal().Err(err).Msg("open gateway error")
	}
	defer sess.Close()

	var srv *http.Server
	if cfg.HTTPAddr != "" {
		srv = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           httpapi.SetupRoutes(b.Engine.Store(), store),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("status api stopped")
			}
		}()
		log.Info().Str("addr", cfg.HTTPAddr).Msg("status api listening")
	}

	log.Info().Msgf("🤖 bot ready - %s", cfg.Redacted())

	// block till SIGINT/SIGTERM for a clean shutdown
	<-ctx.Done()
	log.Info().Msg("shutting down")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
