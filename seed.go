package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ==== JSON input structures ====

type QInput struct {
	ID                 string   `json:"id"`
	QuestionText       string   `json:"question_text"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correct_answer_index"`
	Explanation        string   `json:"explanation"`
	Difficulty         string   `json:"difficulty"`
}

// ==== Seeder ====

// SeedFromJSON loads starter questions into an empty database so the game
// is playable before any generator runs.
func SeedFromJSON(db *gorm.DB, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Accept either: [ ... ] or { "questions": [ ... ] }
	var wrapper struct {
		Questions []QInput `json:"questions"`
	}
	var arr []QInput

	if err := json.Unmarshal(raw, &wrapper); err == nil && len(wrapper.Questions) > 0 {
		arr = wrapper.Questions
	} else if err := json.Unmarshal(raw, &arr); err != nil {
		return fmt.Errorf("json parse: %w", err)
	}

	// Basic validation: unique question texts
	seen := map[string]bool{}
	dups := []string{}
	for _, q := range arr {
		text := strings.TrimSpace(q.QuestionText)
		if seen[text] {
			dups = append(dups, text)
		}
		seen[text] = true
	}
	if len(dups) > 0 {
		return fmt.Errorf("duplicate question texts in JSON: %v", dups)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, in := range arr {
			if len(in.Options) < 4 || len(in.Options) > 5 {
				return fmt.Errorf("question %q must have 4-5 options", in.QuestionText)
			}
			if in.CorrectAnswerIndex < 0 || in.CorrectAnswerIndex >= len(in.Options) {
				return fmt.Errorf("question %q has answer index out of range", in.QuestionText)
			}
			q := Question{
				ID:                 in.ID,
				QuestionText:       strings.TrimSpace(in.QuestionText),
				CorrectAnswerIndex: in.CorrectAnswerIndex,
				Difficulty:         normalizeDifficulty(in.Difficulty),
			}
			if q.ID == "" {
				q.ID = uuid.New().String()
			}
			if expl := strings.TrimSpace(in.Explanation); expl != "" {
				q.Explanation = &expl
			}
			q.SetOptions(in.Options)
			if err := tx.Create(&q).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
