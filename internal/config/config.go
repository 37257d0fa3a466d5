package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

type GameConfig struct {
	DefaultMode string `json:"default_mode"`
	// RoundResolveDelaySeconds is how long a completed trick stays on the
	// table before being awarded.
	RoundResolveDelaySeconds int `json:"round_resolve_delay_seconds"`
	// RevealDelaySeconds is how long teammates see each other's hands before
	// play opens in the teams mode.
	RevealDelaySeconds int `json:"reveal_delay_seconds"`
	// BotAutoFillDelaySeconds configures how many seconds to wait before adding a bot to a solo human lobby.
	BotAutoFillDelaySeconds int `json:"bot_auto_fill_delay_seconds"`
	BotMinDelaySeconds      int `json:"bot_min_delay_seconds"`
	BotMaxDelaySeconds      int `json:"bot_max_delay_seconds"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		var c GameConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration.
func GetGameConfig() *GameConfig {
	return cfg
}

// GetDefaultMode returns the configured default mode, or the duel if the
// config never loaded.
func GetDefaultMode() string {
	if cfg == nil || cfg.DefaultMode == "" {
		return "duel"
	}
	return cfg.DefaultMode
}

// GetRoundResolveDelaySeconds returns the trick dwell, with a safe default.
func GetRoundResolveDelaySeconds() int {
	if cfg == nil || cfg.RoundResolveDelaySeconds <= 0 {
		return 2
	}
	return cfg.RoundResolveDelaySeconds
}

// GetRevealDelaySeconds returns the teammate reveal dwell, with a safe default.
func GetRevealDelaySeconds() int {
	if cfg == nil || cfg.RevealDelaySeconds <= 0 {
		return 5
	}
	return cfg.RevealDelaySeconds
}

// GetBotAutoFillDelaySeconds returns the solo-lobby bot delay, with a safe default.
func GetBotAutoFillDelaySeconds() int {
	if cfg == nil || cfg.BotAutoFillDelaySeconds <= 0 {
		return 10
	}
	return cfg.BotAutoFillDelaySeconds
}

// GetBotDelayBoundsSeconds returns the min and max thinking delay for bot
// moves, with safe defaults.
func GetBotDelayBoundsSeconds() (int, int) {
	min, max := 1, 3
	if cfg != nil && cfg.BotMinDelaySeconds > 0 {
		min = cfg.BotMinDelaySeconds
	}
	if cfg != nil && cfg.BotMaxDelaySeconds >= min {
		max = cfg.BotMaxDelaySeconds
	}
	if max < min {
		max = min
	}
	return min, max
}
