package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/harshal-star/fragrance-chatbot/internal/config"
	"github.com/harshal-star/fragrance-chatbot/internal/handler"
	"github.com/harshal-star/fragrance-chatbot/internal/logger"
	aiservice "github.com/harshal-star/fragrance-chatbot/internal/service/ai"
	chatservice "github.com/harshal-star/fragrance-chatbot/internal/service/chat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("no .env file loaded, using system environment only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Setup(cfg.Log)

	if err := os.MkdirAll(cfg.Static.Dir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Static.Dir).Msg("failed to create static directory")
	}

	chatSvc := chatservice.NewService(aiservice.StylistSystemPrompt)

	aiSvc, err := aiservice.NewService(ctx, cfg.AI)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize upstream client")
	}
	log.Info().Str("model", cfg.AI.Model).Msg("upstream client initialized")

	router := handler.NewRouter(chatSvc, aiSvc, cfg.Static)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", serverCfg.Addr).Msg("fragrance chatbot listening")
	if err := runServer(ctx, srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
