package main

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func main() {
	cfg := LoadConfig()

	logger, err := NewLogger(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// 1) DB
	db, err := OpenDB(cfg.DBPath)
	if err != nil {
		logger.Fatalw("open db", "error", err)
	}
	if err := AutoMigrate(db); err != nil {
		logger.Fatalw("migrate", "error", err)
	}

	// 2) Seed (if empty)
	if isEmpty, _ := IsQuestionTableEmpty(db); isEmpty {
		path := "data/questions.json"
		if _, err := os.Stat(path); err == nil {
			if err := SeedFromJSON(db, path); err != nil {
				logger.Fatalw("seed", "error", err)
			}
			logger.Infow("seeded starter questions", "path", path)
		} else {
			logger.Infow("no seed file, running with empty question table", "path", path)
		}
	}

	// 3) Core components
	store := newSessionStore(db)
	rec := NewReconciler(store, logger, WithSyncWindow(cfg.SyncWindow))
	defer rec.Flush()

	var dedup *Deduplicator
	gen, err := selectGenerator(cfg.QuestionProvider, logger,
		newOpenRouterGenerator(cfg, logger),
		newOpenAIGenerator(cfg, logger),
	)
	if err != nil {
		logger.Warnw("question generation disabled", "error", err)
	} else {
		logger.Infow("question provider selected", "provider", gen.Name())
		dedup = NewDeduplicator(db, gen, logger)
	}

	speech := NewSpeechService(cfg, logger)

	// 4) Router
	if strings.EqualFold(cfg.AppEnv, "prod") || strings.EqualFold(cfg.AppEnv, "production") {
		gin.SetMode(gin.ReleaseMode)
	}
	r := newRouter(cfg, db, rec, store, dedup, speech)

	// 5) Server
	logger.Infow("listening", "port", cfg.Port, "secure_cookies", cfg.SecureCookies)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatalw("run", "error", err)
	}
}

func newRouter(cfg Config, db *gorm.DB, rec *Reconciler, store sessionStore, dedup *Deduplicator, speech *SpeechService) *gin.Engine {
	r := gin.Default()

	// --- CORS: allow the configured app origin + any localhost:port ---
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			if cfg.AppURL != "" && origin == cfg.AppURL {
				return true
			}
			return strings.HasPrefix(origin, "http://localhost:")
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-User-Id"},
		ExposeHeaders:    []string{"X-User-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) { c.String(200, "ok") })
	r.Static("/media", cfg.MediaDir)

	// --- API routes ---
	// User provisioning applies to the API only; health probes and media
	// fetches must not create user rows.
	api := r.Group("/api/v1")
	api.Use(EnsureUser(db, cfg.SecureCookies))
	{
		// Sessions
		api.GET("/session", GetSession(rec))
		api.POST("/session/start", StartSession(db))
		api.POST("/session/sync", SyncSession(rec))

		// Questions
		api.POST("/generate-question", GenerateQuestion(dedup))
		api.POST("/submit-answer", SubmitAnswer(db, store, rec))

		// Users & settings
		api.POST("/users", CreateUser(db))
		api.GET("/settings", GetSettings(db))
		api.POST("/settings", UpdateSettings(db))

		// Leaderboard
		api.GET("/leaderboard", Leaderboard(db))

		// Speech
		api.POST("/generate-speech", GenerateSpeech(speech))
		api.GET("/voice-preview", VoicePreview(speech))
		api.GET("/voices", ListVoices(cfg.DeepgramKey != ""))
	}

	return r
}
