package main

import (
	"encoding/json"
	"time"
)

// --- User ---

type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Username  string    `gorm:"size:40;not null" json:"username"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// --- Game session ---

// GameSession is the durable score record, one row per user.
// Score is the all-time high score and never decreases. Streak is the live
// value and follows the latest write. MaxStreak never decreases.
type GameSession struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"uniqueIndex;size:36;not null" json:"user_id"`
	Score     int       `gorm:"not null;default:0" json:"score"`
	Streak    int       `gorm:"not null;default:0" json:"streak"`
	MaxStreak int       `gorm:"not null;default:0" json:"max_streak"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// --- Questions ---

// Question rows are append-only; the generation pipeline creates them and
// nothing updates or deletes them afterwards.
type Question struct {
	ID                 string    `gorm:"primaryKey;size:36" json:"id"`
	QuestionText       string    `gorm:"not null" json:"question_text"`
	OptionsRaw         string    `gorm:"column:options;not null" json:"-"` // JSON array of 4-5 strings
	CorrectAnswerIndex int       `gorm:"not null" json:"correct_answer_index"`
	Explanation        *string   `json:"explanation,omitempty"`
	Difficulty         string    `gorm:"size:16;not null;default:easy" json:"difficulty"`
	CreatedAt          time.Time `json:"-"`
}

func (q *Question) Options() []string {
	var opts []string
	_ = json.Unmarshal([]byte(q.OptionsRaw), &opts)
	return opts
}

func (q *Question) SetOptions(opts []string) {
	b, _ := json.Marshal(opts)
	q.OptionsRaw = string(b)
}

// --- Settings ---

// UserSetting is a plain last-write-wins mirror of the client's preferences.
type UserSetting struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	UserID     string    `gorm:"uniqueIndex;size:36;not null" json:"user_id"`
	Difficulty string    `gorm:"size:16;not null;default:easy" json:"difficulty"`
	TTSEnabled bool      `gorm:"not null;default:false" json:"tts_enabled"`
	TTSVoice   string    `gorm:"size:64;not null;default:aura-asteria-en" json:"tts_voice"`
	UpdatedAt  time.Time `json:"-"`
}
