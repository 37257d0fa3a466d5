package main

import (
	"fmt"
	"math/rand"
	"os"

	"briscola/internal/bot"
	"briscola/internal/domain"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// briscola-sim deals complete games with bot players at every seat and checks
// the bookkeeping each step. Handy for eyeballing rule changes and for soak
// runs against the engine without a Nakama deployment.

type simConfig struct {
	Mode    string
	Players int
	Games   int
	Seed    int64
	Debug   bool
}

func loadConfig() simConfig {
	v := viper.New()
	v.SetDefault("mode", string(domain.ModeDuel))
	v.SetDefault("players", 2)
	v.SetDefault("games", 10)
	v.SetDefault("seed", 1)
	v.SetDefault("debug", false)
	v.SetEnvPrefix("BRISCOLA_SIM")
	v.AutomaticEnv()

	return simConfig{
		Mode:    v.GetString("mode"),
		Players: v.GetInt("players"),
		Games:   v.GetInt("games"),
		Seed:    v.GetInt64("seed"),
		Debug:   v.GetBool("debug"),
	}
}

func initLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	cfg := loadConfig()

	logger, err := initLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	mode := domain.Mode(cfg.Mode)
	if !mode.Valid() {
		logger.Fatal("unknown mode", zap.String("mode", cfg.Mode))
	}

	logger.Info("starting simulation",
		zap.String("mode", cfg.Mode),
		zap.Int("players", cfg.Players),
		zap.Int("games", cfg.Games),
		zap.Int64("seed", cfg.Seed),
	)

	for i := 0; i < cfg.Games; i++ {
		if err := runGame(logger, mode, cfg.Players, cfg.Seed+int64(i)); err != nil {
			logger.Fatal("simulation failed", zap.Int("game", i), zap.Error(err))
		}
	}

	logger.Info("simulation complete", zap.Int("games", cfg.Games))
}

func runGame(logger *zap.Logger, mode domain.Mode, players int, seed int64) error {
	rng := rand.New(rand.NewSource(seed))

	ids := make([]string, players)
	agents := make([]*bot.Agent, players)
	for i := range ids {
		identity := bot.GetBotIdentity(i)
		ids[i] = identity.UserID
		agents[i] = bot.NewAgent(identity)
	}

	game, err := domain.NewGame(fmt.Sprintf("sim-%d", seed), mode, ids, int(seed)%players, rng, nil)
	if err != nil {
		return err
	}
	if game.Phase == domain.PhaseRevealing {
		if err := game.BeginPlay(); err != nil {
			return err
		}
	}

	for steps := 0; game.Phase != domain.PhaseEnded; steps++ {
		if steps > 1000 {
			return fmt.Errorf("game %s did not terminate", game.ID)
		}

		switch game.Phase {
		case domain.PhasePlaying:
			seat := game.CurrentTurn
			move, err := agents[seat].PlayAtSeat(game, seat)
			if err != nil {
				return err
			}
			if move.SwapCardID != "" {
				if err := game.SwapTrump(seat, move.SwapCardID); err != nil {
					return fmt.Errorf("seat %d swap %s: %w", seat, move.SwapCardID, err)
				}
				logger.Debug("trump swapped", zap.Int("seat", seat), zap.String("card", move.SwapCardID))
			}
			if err := game.PlayCard(seat, move.CardID); err != nil {
				return fmt.Errorf("seat %d play %s: %w", seat, move.CardID, err)
			}
		case domain.PhaseRoundComplete:
			if err := game.ResolveRound(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unexpected phase %s", game.Phase)
		}

		if got := game.CardsAccounted() + game.Discarded; got != domain.DeckSize {
			return fmt.Errorf("card conservation broken: %d accounted after step %d", got, steps)
		}
	}

	result := game.Result
	total := 0
	for _, s := range result.Scores {
		total += s
	}
	if mode != domain.ModeFreeForAll && total != domain.TotalPoints {
		return fmt.Errorf("points total %d, want %d", total, domain.TotalPoints)
	}

	logger.Info("game finished",
		zap.String("id", game.ID),
		zap.Int("rounds", len(game.History)),
		zap.Ints("scores", result.Scores),
		zap.Bool("tie", result.Tie),
		zap.Ints("top_seats", result.TopSeats),
	)
	return nil
}
