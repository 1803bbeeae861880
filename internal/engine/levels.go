package engine

import (
	"os"
	"strconv"
)

// Config holds the engine tunables. Levels are inclusive integer tiers;
// the defaults reproduce the production calibration (three tiers, ten
// items per practice session).
type Config struct {
	MinLevel      int
	MaxLevel      int
	DefaultQuota  int
	BurnoutWindow int // consecutive wrong answers at MinLevel before aborting
	XPPerLevel    int
	HintPenalty   int
	PassingScore  int
	PassBonusXP   int
	FailBonusXP   int
}

func DefaultConfig() Config {
	return Config{
		MinLevel:      1,
		MaxLevel:      3,
		DefaultQuota:  10,
		BurnoutWindow: 3,
		XPPerLevel:    10,
		HintPenalty:   5,
		PassingScore:  60,
		PassBonusXP:   50,
		FailBonusXP:   20,
	}
}

// ConfigFromEnv returns the default config with ENGINE_* overrides applied.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.MinLevel = intEnv("ENGINE_MIN_LEVEL", cfg.MinLevel)
	cfg.MaxLevel = intEnv("ENGINE_MAX_LEVEL", cfg.MaxLevel)
	cfg.DefaultQuota = intEnv("ENGINE_DEFAULT_QUOTA", cfg.DefaultQuota)
	cfg.BurnoutWindow = intEnv("ENGINE_BURNOUT_WINDOW", cfg.BurnoutWindow)
	return cfg
}

func intEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// ClampLevel forces a level into [MinLevel, MaxLevel].
func (c Config) ClampLevel(level int) int {
	if level < c.MinLevel {
		return c.MinLevel
	}
	if level > c.MaxLevel {
		return c.MaxLevel
	}
	return level
}

// NextLevel computes the level after an answer: one step up on correct,
// one step down on incorrect, never leaving the configured bounds.
func (c Config) NextLevel(current int, correct bool) int {
	if correct {
		return c.ClampLevel(current + 1)
	}
	return c.ClampLevel(current - 1)
}

// AnswerXP returns the XP earned by one answer. Incorrect answers earn
// nothing; correct answers earn XPPerLevel times the level the question was
// presented at, minus the hint penalty, never below zero.
func (c Config) AnswerXP(levelBefore int, correct, usedHint bool) int {
	if !correct {
		return 0
	}
	xp := c.XPPerLevel * levelBefore
	if usedHint {
		xp -= c.HintPenalty
	}
	if xp < 0 {
		xp = 0
	}
	return xp
}

// CompletionBonusXP returns the XP bonus applied when a session finalizes.
func (c Config) CompletionBonusXP(score int) int {
	if score >= c.PassingScore {
		return c.PassBonusXP
	}
	return c.FailBonusXP
}
