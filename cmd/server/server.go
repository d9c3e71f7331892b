package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"riptide/internal/config"
	"riptide/internal/engine"
	"riptide/internal/feed"
	"riptide/internal/net"
)

func main() {
	configPath := flag.String("config", "config.yml", "Path to the engine configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load configuration")
	}
	zerolog.SetGlobalLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	// Setup the matching engine, the TCP command server and the event feed.
	eng := engine.New(cfg.TradingPairs()...)
	for _, pair := range eng.Pairs() {
		log.Info().Str("pair", pair.String()).Msg("order book ready")
	}

	srv := net.New(cfg.Server.Address, cfg.Server.Port, eng)
	feedSrv := feed.New(eng)

	go srv.Run(ctx)
	go func() {
		if err := feedSrv.Run(ctx, cfg.Feed.Address); err != nil {
			log.Error().Err(err).Msg("feed server stopped")
		}
	}()

	// Block on running the server.
	<-ctx.Done()
}
