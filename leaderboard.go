package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type LeaderboardEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Streak    int    `json:"streak"`
	MaxStreak int    `json:"max_streak"`
}

// Leaderboard returns the top sessions joined with user display names.
// Query params: ?sort_by=score|streak&limit=10 (limit max 100).
func Leaderboard(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sortBy := c.DefaultQuery("sort_by", "score")
		order := "game_sessions.score DESC"
		if sortBy == "streak" {
			order = "game_sessions.max_streak DESC"
		} else if sortBy != "score" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sort_by must be score or streak"})
			return
		}

		limit := 10
		if l := c.Query("limit"); l != "" {
			if n, err := strconv.Atoi(l); err == nil && n > 0 {
				if n > 100 {
					n = 100
				}
				limit = n
			}
		}

		type row struct {
			UserID    string
			Score     int
			Streak    int
			MaxStreak int
			Username  *string
		}
		var rows []row
		if err := db.Table("game_sessions").
			Select("game_sessions.user_id, game_sessions.score, game_sessions.streak, game_sessions.max_streak, users.username").
			Joins("LEFT JOIN users ON users.id = game_sessions.user_id").
			Order(order).
			Limit(limit).
			Scan(&rows).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db"})
			return
		}

		entries := make([]LeaderboardEntry, 0, len(rows))
		for _, r := range rows {
			name := "Unknown"
			if r.Username != nil && *r.Username != "" {
				name = *r.Username
			}
			entries = append(entries, LeaderboardEntry{
				ID:        r.UserID,
				Name:      name,
				Score:     r.Score,
				Streak:    r.Streak,
				MaxStreak: r.MaxStreak,
			})
		}

		c.JSON(http.StatusOK, gin.H{"entries": entries})
	}
}
