package main

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

/*** DTOs shared across handlers ***/

type QuestionDTO struct {
	ID                 string   `json:"id"`
	QuestionText       string   `json:"question_text"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correct_answer_index"`
	Explanation        *string  `json:"explanation,omitempty"`
}

func questionDTO(q *Question) QuestionDTO {
	return QuestionDTO{
		ID:                 q.ID,
		QuestionText:       q.QuestionText,
		Options:            q.Options(),
		CorrectAnswerIndex: q.CorrectAnswerIndex,
		Explanation:        q.Explanation,
	}
}

/*** Session endpoints ***/

// GetSession returns the reconciled session view, zero-valued when no
// record exists yet.
func GetSession(rec *Reconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("user_id")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing required parameter: user_id"})
			return
		}
		view, err := rec.Fetch(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch game session"})
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

type StartSessionReq struct {
	UserID string `json:"user_id"`
}

// StartSession returns the existing session unchanged when present,
// otherwise creates a zero-valued one.
func StartSession(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req StartSessionReq
		if err := c.BindJSON(&req); err != nil || req.UserID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing required field: user_id"})
			return
		}

		var sess GameSession
		err := db.First(&sess, "user_id = ?", req.UserID).Error
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"session": sess, "isNew": false})
			return
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db"})
			return
		}

		sess = GameSession{UserID: req.UserID}
		if err := db.Create(&sess).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start game session"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"session": sess, "isNew": true})
	}
}

type SyncSessionReq struct {
	UserID    string `json:"user_id"`
	Score     int    `json:"score"`
	Streak    int    `json:"streak"`
	MaxStreak int    `json:"max_streak"`
}

// SyncSession hands the reported triple to the reconciler. The write is
// debounced and retried in the background, so the response is 202 and
// failures surface through the reconciler's error handler, never here.
func SyncSession(rec *Reconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SyncSessionReq
		if err := c.BindJSON(&req); err != nil || req.UserID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing required field: user_id"})
			return
		}
		if req.Score < 0 || req.Streak < 0 || req.MaxStreak < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "score and streak values must be non-negative"})
			return
		}
		rec.Report(req.UserID, req.Score, req.Streak, req.MaxStreak)
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	}
}

/*** Question endpoints ***/

type GenerateQuestionReq struct {
	Difficulty         string   `json:"difficulty"`
	ExcludeQuestionIDs []string `json:"exclude_question_ids"`
}

func GenerateQuestion(dedup *Deduplicator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// An empty body is allowed and means default difficulty, no exclusions.
		var req GenerateQuestionReq
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if dedup == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "question generation is not configured"})
			return
		}

		q, err := dedup.GenerateUnique(c.Request.Context(), req.Difficulty, req.ExcludeQuestionIDs)
		if err != nil {
			var exhausted *GenerationExhaustedError
			var genErr *GenerationError
			if errors.As(err, &exhausted) || errors.As(err, &genErr) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate question"})
			return
		}
		c.JSON(http.StatusOK, questionDTO(q))
	}
}

type SubmitAnswerReq struct {
	UserID        string `json:"user_id"`
	QuestionID    string `json:"question_id"`
	SelectedIndex *int   `json:"selected_index"`
}

// SubmitAnswer grades the answer against the stored question, awards
// difficulty points on a correct answer, resets the streak on a wrong one,
// and persists the result through the same merge rule the reconciler uses.
// The reconciler's cache is refreshed afterwards so a later fetch sees the
// graded score, not a stale synced one.
func SubmitAnswer(db *gorm.DB, store sessionStore, rec *Reconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SubmitAnswerReq
		if err := c.BindJSON(&req); err != nil || req.UserID == "" || req.QuestionID == "" || req.SelectedIndex == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id, question_id and selected_index are required"})
			return
		}

		var q Question
		if err := db.First(&q, "id = ?", req.QuestionID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "question not found"})
			return
		}

		correct := *req.SelectedIndex == q.CorrectAnswerIndex

		existing, err := store.Get(c.Request.Context(), req.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db"})
			return
		}
		base := GameSession{UserID: req.UserID}
		if existing != nil {
			base = *existing
		}

		newStreak := 0
		newScore := base.Score
		if correct {
			newStreak = base.Streak + 1
			newScore = base.Score + pointsForDifficulty(q.Difficulty)
		}

		merged := mergeSession(existing, req.UserID, newScore, newStreak, base.MaxStreak)
		if err := store.Put(c.Request.Context(), &merged); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db"})
			return
		}
		rec.Observe(merged)

		explanation := "Great work!"
		if q.Explanation != nil {
			explanation = *q.Explanation
		}
		c.JSON(http.StatusOK, gin.H{
			"correct":              correct,
			"correct_answer_index": q.CorrectAnswerIndex,
			"explanation":          explanation,
			"new_score":            merged.Score,
			"streak":               merged.Streak,
		})
	}
}

/*** User & settings passthrough ***/

type CreateUserReq struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

func CreateUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateUserReq
		if err := c.BindJSON(&req); err != nil || strings.TrimSpace(req.Username) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields: username"})
			return
		}
		if req.ID == "" {
			req.ID = uuid.New().String()
		}

		var u User
		err := db.First(&u, "id = ?", req.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			u = User{ID: req.ID, Username: strings.TrimSpace(req.Username), AvatarURL: req.AvatarURL}
			if err := db.Create(&u).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
				return
			}
			c.JSON(http.StatusOK, u)
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db"})
			return
		}

		u.Username = strings.TrimSpace(req.Username)
		if req.AvatarURL != nil {
			u.AvatarURL = req.AvatarURL
		}
		if err := db.Save(&u).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db"})
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

func GetSettings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("user_id")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
			return
		}
		var s UserSetting
		err := db.First(&s, "user_id = ?", userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{
				"user_id":     userID,
				"difficulty":  "easy",
				"tts_enabled": false,
				"tts_voice":   defaultVoice,
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch settings"})
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

type UpdateSettingsReq struct {
	UserID     string  `json:"user_id"`
	Difficulty *string `json:"difficulty"`
	TTSEnabled *bool   `json:"tts_enabled"`
	TTSVoice   *string `json:"tts_voice"`
}

// UpdateSettings is a last-write-wins field mirror; absent fields keep
// their stored values.
func UpdateSettings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateSettingsReq
		if err := c.BindJSON(&req); err != nil || req.UserID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
			return
		}

		var s UserSetting
		err := db.First(&s, "user_id = ?", req.UserID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s = UserSetting{UserID: req.UserID, Difficulty: "easy", TTSVoice: defaultVoice}
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db"})
			return
		}

		if req.Difficulty != nil {
			s.Difficulty = normalizeDifficulty(*req.Difficulty)
		}
		if req.TTSEnabled != nil {
			s.TTSEnabled = *req.TTSEnabled
		}
		if req.TTSVoice != nil && *req.TTSVoice != "" {
			s.TTSVoice = *req.TTSVoice
		}

		if err := db.Save(&s).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update settings"})
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

/*** Speech endpoints ***/

type GenerateSpeechReq struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

func GenerateSpeech(svc *SpeechService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GenerateSpeechReq
		if err := c.BindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
			return
		}
		res, err := svc.Generate(c.Request.Context(), req.Text, req.Voice)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "speech synthesis failed"})
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// VoicePreview serves a cached sample clip so the settings UI can audition
// a voice without burning synthesis quota on every click.
func VoicePreview(svc *SpeechService) gin.HandlerFunc {
	return func(c *gin.Context) {
		voice := c.DefaultQuery("voice_id", defaultVoice)
		if !validVoiceID(voice) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid voice_id"})
			return
		}
		res, cached, err := svc.Preview(c.Request.Context(), voice)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "voice preview failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": res.URL, "cached": cached})
	}
}

func ListVoices(deepgramConfigured bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"voices": availableVoices(deepgramConfigured)})
	}
}
