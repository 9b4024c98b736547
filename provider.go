package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const questionPrompt = "Generate a multiple choice trivia question with 4-5 plausible options. " +
	"Return JSON with question, options array (4-5 items), correct_answer_index (0-based), " +
	"and explanation (2-3 sentence concise rationale for the correct answer). " +
	"Make all options plausible to increase difficulty."

// GeneratedQuestion is a provider candidate before persistence. ID is
// normally empty and assigned on save; a provider may supply one when it
// serves pre-existing content.
type GeneratedQuestion struct {
	ID                 string
	QuestionText       string
	Options            []string
	CorrectAnswerIndex int
	Explanation        *string
}

// QuestionGenerator is one of the interchangeable upstream providers.
type QuestionGenerator interface {
	Name() string
	Available() bool
	Generate(ctx context.Context, difficulty string) (GeneratedQuestion, error)
}

// chatGenerator speaks the chat-completions wire format shared by OpenAI
// and OpenRouter.
type chatGenerator struct {
	name       string
	baseURL    string
	apiKey     string
	model      string
	referer    string // OpenRouter attribution headers, empty otherwise
	title      string
	httpClient *http.Client
	log        *Logger
}

func newOpenAIGenerator(cfg Config, log *Logger) *chatGenerator {
	return &chatGenerator{
		name:       "openai",
		baseURL:    strings.TrimRight(cfg.OpenAIBaseURL, "/"),
		apiKey:     cfg.OpenAIKey,
		model:      cfg.OpenAIModel,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.With("provider", "openai"),
	}
}

func newOpenRouterGenerator(cfg Config, log *Logger) *chatGenerator {
	return &chatGenerator{
		name:       "openrouter",
		baseURL:    strings.TrimRight(cfg.OpenRouterBaseURL, "/"),
		apiKey:     cfg.OpenRouterKey,
		model:      cfg.OpenRouterModel,
		referer:    cfg.AppURL,
		title:      "AI Trivia Arena",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.With("provider", "openrouter"),
	}
}

func (g *chatGenerator) Name() string    { return g.name }
func (g *chatGenerator) Available() bool { return g.apiKey != "" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (g *chatGenerator) Generate(ctx context.Context, difficulty string) (GeneratedQuestion, error) {
	if !g.Available() {
		return GeneratedQuestion{}, &GenerationError{Provider: g.name, Err: errors.New("missing api key")}
	}

	reqBody := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: questionPrompt},
			{Role: "user", Content: "Difficulty: " + normalizeDifficulty(difficulty)},
		},
	}
	reqBody.ResponseFormat.Type = "json_object"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return GeneratedQuestion{}, &GenerationError{Provider: g.name, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return GeneratedQuestion{}, &GenerationError{Provider: g.name, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	if g.referer != "" {
		req.Header.Set("HTTP-Referer", g.referer)
	}
	if g.title != "" {
		req.Header.Set("X-Title", g.title)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return GeneratedQuestion{}, &GenerationError{Provider: g.name, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return GeneratedQuestion{}, &GenerationError{Provider: g.name, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return GeneratedQuestion{}, &GenerationError{
			Provider: g.name,
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200)),
		}
	}

	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return GeneratedQuestion{}, &GenerationError{Provider: g.name, Err: err}
	}
	if len(cr.Choices) == 0 {
		return GeneratedQuestion{}, &GenerationError{Provider: g.name, Err: errors.New("empty completion")}
	}
	return parseQuestionContent(g.name, cr.Choices[0].Message.Content)
}

func parseQuestionContent(provider, content string) (GeneratedQuestion, error) {
	var parsed struct {
		Question           string            `json:"question"`
		Options            []json.RawMessage `json:"options"`
		CorrectAnswerIndex int               `json:"correct_answer_index"`
		Explanation        string            `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return GeneratedQuestion{}, &GenerationError{Provider: provider, Err: fmt.Errorf("unparseable content: %w", err)}
	}

	out := GeneratedQuestion{
		QuestionText:       strings.TrimSpace(parsed.Question),
		Options:            normalizeOptions(parsed.Options),
		CorrectAnswerIndex: parsed.CorrectAnswerIndex,
	}
	if expl := strings.TrimSpace(parsed.Explanation); expl != "" {
		out.Explanation = &expl
	}
	return out, nil
}

// normalizeOptions accepts options as plain strings or as objects carrying
// a "text"/"option" field, which models return interchangeably.
func normalizeOptions(raw []json.RawMessage) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			out = append(out, s)
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(r, &obj); err == nil {
			if t, ok := obj["text"].(string); ok {
				out = append(out, t)
				continue
			}
			if t, ok := obj["option"].(string); ok {
				out = append(out, t)
				continue
			}
		}
		out = append(out, strings.Trim(string(r), `"`))
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// selectGenerator returns the configured provider when it has a key, falls
// back to the other one otherwise, and errors when neither is usable.
func selectGenerator(preferred string, log *Logger, candidates ...QuestionGenerator) (QuestionGenerator, error) {
	var configured, fallback QuestionGenerator
	for _, c := range candidates {
		if c.Name() == preferred {
			configured = c
		} else if fallback == nil {
			fallback = c
		}
	}
	if configured != nil && configured.Available() {
		return configured, nil
	}
	if fallback != nil && fallback.Available() {
		log.Warnw("configured question provider unavailable, falling back",
			"configured", preferred, "fallback", fallback.Name())
		return fallback, nil
	}
	return nil, errors.New("no question provider is configured")
}
