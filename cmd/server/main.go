// Package main is the entry point for the game lobby server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"game-lobby-server/internal/config"
	"game-lobby-server/internal/game"
	"game-lobby-server/internal/game/milebymile"
	"game-lobby-server/internal/game/ninetynine"
	"game-lobby-server/internal/game/pirates"
	"game-lobby-server/internal/game/scopa"
	"game-lobby-server/internal/game/tradeoff"
	"game-lobby-server/internal/game/yahtzee"
	"game-lobby-server/internal/repository"
	"game-lobby-server/internal/server"
	"game-lobby-server/internal/table"
	"game-lobby-server/internal/tick"
	"game-lobby-server/internal/virtualbot"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Str("storage", cfg.Storage.Driver).
		Int("virtual_bots", len(cfg.VirtualBots.Names)).
		Dur("tick_interval", cfg.Server.TickInterval()).
		Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := repository.NewVirtualBotStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open virtual bot store")
	}
	defer store.Close()

	// Game types offered by the lobby, in menu order
	gameRegistry := game.NewRegistry()
	for _, d := range []game.Descriptor{
		scopa.Descriptor(),
		ninetynine.Descriptor(),
		yahtzee.Descriptor(),
		pirates.Descriptor(),
		milebymile.Descriptor(),
		tradeoff.Descriptor(),
	} {
		if err := gameRegistry.Register(d); err != nil {
			log.Fatal().Err(err).Str("game", d.Type()).Msg("Failed to register game")
		}
	}

	log.Info().
		Int("game_count", gameRegistry.Count()).
		Strs("games", gameRegistry.Types()).
		Msg("Games registered")

	lobby := server.New()
	tables := table.NewManager(gameRegistry)
	bots := virtualbot.NewManager(cfg.VirtualBots, lobby, tables, gameRegistry, store)

	restored, err := bots.LoadState(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load virtual bot state")
	}
	if cfg.Server.FillOnStart {
		added, online := bots.FillServer()
		log.Info().Int("restored", restored).Int("added", added).Int("online", online).Msg("Virtual bots ready")
	}

	scheduler := tick.New(cfg.Server.TickInterval())
	scheduler.Register("virtual_bots", bots.ProcessTick)
	scheduler.Start(ctx)

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	scheduler.Stop()

	saveCtx, saveCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer saveCancel()
	if err := bots.SaveState(saveCtx); err != nil {
		log.Error().Err(err).Msg("Failed to save virtual bot state")
	}

	log.Info().Interface("bots", bots.Stats()).Msg("Server stopped gracefully")
}
