package main

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is assembled from environment variables once at startup.
type Config struct {
	Port          string
	DBPath        string
	MediaDir      string
	AppURL        string
	AppEnv        string
	SecureCookies bool

	// Session reconciler
	SyncWindow time.Duration

	// Question generation
	QuestionProvider  string // "openrouter" | "openai"
	OpenAIKey         string
	OpenAIBaseURL     string
	OpenAIModel       string
	OpenRouterKey     string
	OpenRouterBaseURL string
	OpenRouterModel   string

	// Text-to-speech
	DeepgramKey string
}

func LoadConfig() Config {
	return Config{
		Port:          envString("PORT", "8080"),
		DBPath:        envString("DB_PATH", "trivia.db"),
		MediaDir:      envString("MEDIA_DIR", "media"),
		AppURL:        envString("APP_URL", ""),
		AppEnv:        envString("APP_ENV", "dev"),
		SecureCookies: envBool("SECURE_COOKIES", false),

		SyncWindow: time.Duration(envInt("SYNC_WINDOW_MS", 1000)) * time.Millisecond,

		QuestionProvider:  strings.ToLower(envString("QUESTION_PROVIDER", "openrouter")),
		OpenAIKey:         envString("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     envString("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:       envString("OPENAI_MODEL", "gpt-4o-mini"),
		OpenRouterKey:     envString("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL: envString("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterModel:   envString("OPENROUTER_MODEL", "openai/gpt-4o-mini"),

		DeepgramKey: envString("DEEPGRAM_API_KEY", ""),
	}
}

func envString(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func envInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func envBool(name string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
