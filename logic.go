package main

import (
	"errors"
	"strings"
)

var difficultyPoints = map[string]int{
	"easy":   50,
	"medium": 100,
	"hard":   150,
}

// normalizeDifficulty lowercases the label and maps anything unknown to easy.
func normalizeDifficulty(difficulty string) string {
	d := strings.ToLower(strings.TrimSpace(difficulty))
	if _, ok := difficultyPoints[d]; !ok {
		return "easy"
	}
	return d
}

func pointsForDifficulty(difficulty string) int {
	return difficultyPoints[normalizeDifficulty(difficulty)]
}

// mergeSession applies the reconciliation rule to an existing record and an
// incoming (score, streak, maxStreak) triple:
//
//   - score keeps the larger value (all-time high score)
//   - streak is overwritten (live value, allowed to decrease)
//   - maxStreak keeps max(existing, streak, maxStreak)
//
// A nil existing record means first write; the incoming triple becomes the
// initial state. The merge is commutative and idempotent for score and
// maxStreak, which is the only safety net against concurrent writers.
func mergeSession(existing *GameSession, userID string, score, streak, maxStreak int) GameSession {
	merged := GameSession{
		UserID:    userID,
		Score:     score,
		Streak:    streak,
		MaxStreak: maxOf(maxStreak, streak),
	}
	if existing == nil {
		return merged
	}
	merged.ID = existing.ID
	merged.CreatedAt = existing.CreatedAt
	merged.Score = maxOf(existing.Score, score)
	merged.MaxStreak = maxOf(existing.MaxStreak, streak, maxStreak)
	return merged
}

func maxOf(first int, rest ...int) int {
	m := first
	for _, v := range rest {
		if v > m {
			m = v
		}
	}
	return m
}

// validateGenerated rejects generator output the game cannot render:
// empty prompt, fewer than 4 or more than 5 options, or an answer index
// outside the option range.
func validateGenerated(g GeneratedQuestion) error {
	if strings.TrimSpace(g.QuestionText) == "" {
		return errors.New("empty question text")
	}
	if len(g.Options) < 4 || len(g.Options) > 5 {
		return errors.New("question must have 4-5 options")
	}
	if g.CorrectAnswerIndex < 0 || g.CorrectAnswerIndex >= len(g.Options) {
		return errors.New("correct answer index out of range")
	}
	return nil
}
