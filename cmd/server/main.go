package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/galactic-conflict/internal/bot"
	"github.com/freeeve/galactic-conflict/internal/config"
	rediskv "github.com/freeeve/galactic-conflict/internal/kv/redis"
	"github.com/freeeve/galactic-conflict/internal/logger"
	"github.com/freeeve/galactic-conflict/internal/model"
	"github.com/freeeve/galactic-conflict/internal/notifier"
	"github.com/freeeve/galactic-conflict/internal/service"
	"github.com/freeeve/galactic-conflict/internal/store"
)

func main() {
	logger.Init()
	cfg := config.Load()

	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		log.Fatal().Err(err).Str("rulesFile", cfg.RulesFile).Msg("Rules load failed")
	}
	log.Info().Str("redisURL", cfg.RedisURL).Str("notifierURL", cfg.NotifierURL).
		Msg("Config loaded")

	// Redis
	kvClient, err := rediskv.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer kvClient.Close()

	// Services
	notify := notifier.NewClient(cfg.NotifierURL)
	gameStore := store.NewGameStore(kvClient, rules, notify)
	processor := service.NewEventProcessor(gameStore, rules, notify, bot.NewDriver())
	scheduler := service.NewScheduler(processor, 0)

	// Router
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("GET /api/v1/games/open", func(w http.ResponseWriter, r *http.Request) {
		games, err := gameStore.GetOpenGames(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("Open games listing failed")
			http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
			return
		}
		summaries := make([]model.OpenGameSummary, 0, len(games))
		for i := range games {
			summaries = append(summaries, model.SummaryOf(&games[i]))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"games": summaries})
	})

	// Manual tick for a single game, for ops and debugging.
	mux.HandleFunc("POST /api/v1/games/{id}/process", func(w http.ResponseWriter, r *http.Request) {
		gameID := r.PathValue("id")
		changed, err := processor.ProcessGameEvents(r.Context(), gameID)
		if err != nil {
			log.Error().Err(err).Str("gameId", gameID).Msg("Manual tick failed")
			http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"gameId": gameID, "changed": changed})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Scheduler
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go scheduler.Start(ctx)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}
