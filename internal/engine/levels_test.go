package engine

import "testing"

func TestNextLevel(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		current int
		correct bool
		want    int
	}{
		{1, true, 2},
		{2, true, 3},
		{3, true, 3}, // already at ceiling
		{3, false, 2},
		{2, false, 1},
		{1, false, 1}, // already at floor
	}

	for _, tt := range tests {
		got := cfg.NextLevel(tt.current, tt.correct)
		if got != tt.want {
			t.Errorf("NextLevel(%d, %v) = %d, want %d", tt.current, tt.correct, got, tt.want)
		}
	}
}

func TestNextLevelStaysInBounds(t *testing.T) {
	cfg := DefaultConfig()

	// Any answer sequence must keep the level inside [MinLevel, MaxLevel].
	level := cfg.MinLevel
	outcomes := []bool{true, true, true, true, true, false, false, false, false, false, true, false, true}
	for i, correct := range outcomes {
		level = cfg.NextLevel(level, correct)
		if level < cfg.MinLevel || level > cfg.MaxLevel {
			t.Fatalf("after answer %d level = %d, want within [%d, %d]", i, level, cfg.MinLevel, cfg.MaxLevel)
		}
	}
}

func TestAnswerXP(t *testing.T) {
	cfg := DefaultConfig()

	// Incorrect answers earn nothing, hint or not
	if got := cfg.AnswerXP(3, false, false); got != 0 {
		t.Errorf("AnswerXP(3, false, false) = %d, want 0", got)
	}
	if got := cfg.AnswerXP(3, false, true); got != 0 {
		t.Errorf("AnswerXP(3, false, true) = %d, want 0", got)
	}

	// Correct answers scale with the presented level
	if got := cfg.AnswerXP(1, true, false); got != 10 {
		t.Errorf("AnswerXP(1, true, false) = %d, want 10", got)
	}
	if got := cfg.AnswerXP(3, true, false); got != 30 {
		t.Errorf("AnswerXP(3, true, false) = %d, want 30", got)
	}

	// Hint penalty comes off the top
	if got := cfg.AnswerXP(2, true, true); got != 15 {
		t.Errorf("AnswerXP(2, true, true) = %d, want 15", got)
	}

	// Never below zero even if the penalty exceeds the award
	small := cfg
	small.XPPerLevel = 2
	small.HintPenalty = 5
	if got := small.AnswerXP(1, true, true); got != 0 {
		t.Errorf("AnswerXP with oversized penalty = %d, want 0", got)
	}
}

func TestCompletionBonusXP(t *testing.T) {
	cfg := DefaultConfig()

	if got := cfg.CompletionBonusXP(60); got != cfg.PassBonusXP {
		t.Errorf("CompletionBonusXP(60) = %d, want %d", got, cfg.PassBonusXP)
	}
	if got := cfg.CompletionBonusXP(100); got != cfg.PassBonusXP {
		t.Errorf("CompletionBonusXP(100) = %d, want %d", got, cfg.PassBonusXP)
	}
	if got := cfg.CompletionBonusXP(59); got != cfg.FailBonusXP {
		t.Errorf("CompletionBonusXP(59) = %d, want %d", got, cfg.FailBonusXP)
	}
	if got := cfg.CompletionBonusXP(0); got != cfg.FailBonusXP {
		t.Errorf("CompletionBonusXP(0) = %d, want %d", got, cfg.FailBonusXP)
	}
}
