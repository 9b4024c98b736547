package main

import "testing"

func TestPointsForDifficulty(t *testing.T) {
	tests := []struct {
		name       string
		difficulty string
		want       int
	}{
		{name: "easy", difficulty: "easy", want: 50},
		{name: "medium", difficulty: "medium", want: 100},
		{name: "hard", difficulty: "hard", want: 150},
		{name: "mixed case", difficulty: "HARD", want: 150},
		{name: "unknown falls back to easy", difficulty: "nightmare", want: 50},
		{name: "empty falls back to easy", difficulty: "", want: 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pointsForDifficulty(tt.difficulty); got != tt.want {
				t.Errorf("pointsForDifficulty(%q) = %v, want %v", tt.difficulty, got, tt.want)
			}
		})
	}
}

func TestMergeSession(t *testing.T) {
	tests := []struct {
		name      string
		existing  *GameSession
		score     int
		streak    int
		maxStreak int
		want      GameSession
	}{
		{
			name:      "first write creates initial state",
			existing:  nil,
			score:     100, streak: 3, maxStreak: 3,
			want: GameSession{UserID: "u1", Score: 100, Streak: 3, MaxStreak: 3},
		},
		{
			name:      "first write lifts max streak to streak",
			existing:  nil,
			score:     0, streak: 4, maxStreak: 0,
			want: GameSession{UserID: "u1", Score: 0, Streak: 4, MaxStreak: 4},
		},
		{
			name:      "lower score keeps existing high score",
			existing:  &GameSession{UserID: "u1", Score: 500, Streak: 2, MaxStreak: 6},
			score:     100, streak: 1, maxStreak: 1,
			want: GameSession{UserID: "u1", Score: 500, Streak: 1, MaxStreak: 6},
		},
		{
			name:      "higher score replaces high score",
			existing:  &GameSession{UserID: "u1", Score: 500, Streak: 2, MaxStreak: 6},
			score:     750, streak: 3, maxStreak: 3,
			want: GameSession{UserID: "u1", Score: 750, Streak: 3, MaxStreak: 6},
		},
		{
			name:      "streak is overwritten even when lower",
			existing:  &GameSession{UserID: "u1", Score: 100, Streak: 9, MaxStreak: 9},
			score:     100, streak: 0, maxStreak: 9,
			want: GameSession{UserID: "u1", Score: 100, Streak: 0, MaxStreak: 9},
		},
		{
			name:      "incoming streak can lift max streak",
			existing:  &GameSession{UserID: "u1", Score: 100, Streak: 2, MaxStreak: 4},
			score:     100, streak: 7, maxStreak: 0,
			want: GameSession{UserID: "u1", Score: 100, Streak: 7, MaxStreak: 7},
		},
		{
			name:      "zero triple on empty record still creates",
			existing:  nil,
			score:     0, streak: 0, maxStreak: 0,
			want: GameSession{UserID: "u1", Score: 0, Streak: 0, MaxStreak: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergeSession(tt.existing, "u1", tt.score, tt.streak, tt.maxStreak)
			if got.Score != tt.want.Score || got.Streak != tt.want.Streak || got.MaxStreak != tt.want.MaxStreak {
				t.Errorf("mergeSession() = {score:%d streak:%d max:%d}, want {score:%d streak:%d max:%d}",
					got.Score, got.Streak, got.MaxStreak, tt.want.Score, tt.want.Streak, tt.want.MaxStreak)
			}
			if got.UserID != tt.want.UserID {
				t.Errorf("mergeSession() user = %q, want %q", got.UserID, tt.want.UserID)
			}
		})
	}
}

func TestValidateGenerated(t *testing.T) {
	expl := "because"
	tests := []struct {
		name    string
		q       GeneratedQuestion
		wantErr bool
	}{
		{
			name: "valid four options",
			q:    GeneratedQuestion{QuestionText: "Q?", Options: []string{"a", "b", "c", "d"}, CorrectAnswerIndex: 1, Explanation: &expl},
		},
		{
			name: "valid five options",
			q:    GeneratedQuestion{QuestionText: "Q?", Options: []string{"a", "b", "c", "d", "e"}, CorrectAnswerIndex: 4},
		},
		{
			name:    "empty text",
			q:       GeneratedQuestion{QuestionText: "  ", Options: []string{"a", "b", "c", "d"}, CorrectAnswerIndex: 0},
			wantErr: true,
		},
		{
			name:    "too few options",
			q:       GeneratedQuestion{QuestionText: "Q?", Options: []string{"a", "b", "c"}, CorrectAnswerIndex: 0},
			wantErr: true,
		},
		{
			name:    "too many options",
			q:       GeneratedQuestion{QuestionText: "Q?", Options: []string{"a", "b", "c", "d", "e", "f"}, CorrectAnswerIndex: 0},
			wantErr: true,
		},
		{
			name:    "index out of range",
			q:       GeneratedQuestion{QuestionText: "Q?", Options: []string{"a", "b", "c", "d"}, CorrectAnswerIndex: 4},
			wantErr: true,
		},
		{
			name:    "negative index",
			q:       GeneratedQuestion{QuestionText: "Q?", Options: []string{"a", "b", "c", "d"}, CorrectAnswerIndex: -1},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateGenerated(tt.q)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateGenerated() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
