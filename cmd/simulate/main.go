// Command simulate runs an offline all-AI match on the in-memory store and
// prints the outcome. Useful for eyeballing AI balance and for checking
// that a fixed seed replays to the same result.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/galactic-conflict/internal/bot"
	"github.com/freeeve/galactic-conflict/internal/config"
	"github.com/freeeve/galactic-conflict/internal/kv/memory"
	"github.com/freeeve/galactic-conflict/internal/model"
	"github.com/freeeve/galactic-conflict/internal/store"
	"github.com/freeeve/galactic-conflict/pkg/galaxy"
)

var botColors = []string{"#e74c3c", "#3498db", "#2ecc71", "#f1c40f"}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		bots      string
		seed      uint64
		stepMs    int64
		rulesFile string
		jsonOut   bool
	)
	flag.StringVar(&bots, "bots", "hard,medium", "Comma-separated bot difficulties (2-4)")
	flag.Uint64Var(&seed, "seed", 0, "RNG seed (0 = random)")
	flag.Int64Var(&stepMs, "step", 1000, "Simulated milliseconds per tick")
	flag.StringVar(&rulesFile, "rules", "", "Optional TOML rules file")
	flag.BoolVar(&jsonOut, "json", false, "Output result as JSON")
	flag.Parse()

	rules, err := config.LoadRules(rulesFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Rules load failed")
	}

	difficulties := strings.Split(bots, ",")
	if len(difficulties) < 2 || len(difficulties) > rules.MaxSlots {
		log.Fatal().Int("count", len(difficulties)).Msg("Need between 2 and MaxSlots bots")
	}

	cfg := &model.PendingConfiguration{}
	for i, d := range difficulties {
		cfg.PlayerSlots = append(cfg.PlayerSlots, model.PlayerSlot{
			Index:      i,
			Type:       model.SlotAI,
			Name:       fmt.Sprintf("bot-%d-%s", i, d),
			Difficulty: strings.TrimSpace(d),
			Color:      botColors[i%len(botColors)],
		})
	}

	ctx := context.Background()
	gameStore := store.NewGameStore(memory.New(), rules, nil)

	rec, err := gameStore.CreateGame(ctx, model.GameTypeAI, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Create game failed")
	}
	// The seed goes into game start so map generation replays too.
	rec, rejection, err := gameStore.StartGameWithSeed(ctx, rec.GameID, false, seed)
	if err != nil {
		log.Fatal().Err(err).Msg("Start game failed")
	}
	if rejection != nil {
		log.Fatal().Str("reason", rejection.Reason).Msg("Start game refused")
	}

	state := rec.GameState

	// Tick with a simulated clock so the match runs instantly and a fixed
	// seed always replays the same way.
	driver := bot.NewDriver()
	ticks := 0
	clock := state.LastUpdateTime
	maxTicks := int64(state.DurationMinutes)*60*1000/stepMs + 10
	for state.Status == galaxy.StatusActive && int64(ticks) < maxTicks {
		clock += stepMs
		galaxy.ProcessGameState(state, rules, clock, driver)
		state.ClearRecentEvents()
		ticks++
	}

	rec.Status = state.Status
	expected := rec.LastUpdateAt
	if err := gameStore.SaveGame(ctx, rec, &expected); err != nil {
		log.Fatal().Err(err).Msg("Save final state failed")
	}

	if jsonOut {
		out, _ := json.Marshal(map[string]any{
			"gameId":    rec.GameID,
			"seed":      state.RngSeed,
			"ticks":     ticks,
			"endResult": state.EndResult,
		})
		fmt.Println(string(out))
		return
	}

	fmt.Printf("game %s finished after %d ticks (seed %d)\n", rec.GameID, ticks, state.RngSeed)
	switch {
	case state.EndResult == nil:
		fmt.Println("result: game did not finish")
	case state.EndResult.Draw:
		fmt.Println("result: draw")
	default:
		fmt.Printf("result: winner slot %d (%s)\n", *state.EndResult.WinnerSlot, state.EndResult.WinnerName)
	}
}
