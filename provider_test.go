package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeOptions(t *testing.T) {
	raw := func(parts ...string) []json.RawMessage {
		out := make([]json.RawMessage, len(parts))
		for i, p := range parts {
			out[i] = json.RawMessage(p)
		}
		return out
	}

	tests := []struct {
		name string
		in   []json.RawMessage
		want []string
	}{
		{
			name: "plain strings",
			in:   raw(`"Paris"`, `"London"`),
			want: []string{"Paris", "London"},
		},
		{
			name: "text objects",
			in:   raw(`{"text":"Paris"}`, `{"text":"London"}`),
			want: []string{"Paris", "London"},
		},
		{
			name: "option objects",
			in:   raw(`{"option":"Paris"}`),
			want: []string{"Paris"},
		},
		{
			name: "mixed",
			in:   raw(`"Paris"`, `{"text":"London"}`),
			want: []string{"Paris", "London"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeOptions(tt.in))
		})
	}
}

func TestParseQuestionContent(t *testing.T) {
	content := `{"question":"Capital of France?","options":["London","Berlin","Paris","Madrid"],"correct_answer_index":2,"explanation":"Paris is the capital."}`
	q, err := parseQuestionContent("openai", content)
	require.NoError(t, err)
	assert.Equal(t, "Capital of France?", q.QuestionText)
	assert.Len(t, q.Options, 4)
	assert.Equal(t, 2, q.CorrectAnswerIndex)
	require.NotNil(t, q.Explanation)
	assert.Equal(t, "Paris is the capital.", *q.Explanation)
}

func TestParseQuestionContentUnparseable(t *testing.T) {
	_, err := parseQuestionContent("openai", "sorry, I cannot do that")
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "openai", genErr.Provider)
}

func chatCompletionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(b)
}

func TestChatGeneratorGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "Difficulty: hard", req.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletionBody(
			`{"question":"Q?","options":["a","b","c","d"],"correct_answer_index":1,"explanation":"because"}`)))
	}))
	defer srv.Close()

	g := &chatGenerator{
		name:       "openai",
		baseURL:    srv.URL,
		apiKey:     "test-key",
		model:      "test-model",
		httpClient: srv.Client(),
		log:        NewNopLogger(),
	}
	q, err := g.Generate(context.Background(), "hard")
	require.NoError(t, err)
	assert.Equal(t, "Q?", q.QuestionText)
	assert.Equal(t, 1, q.CorrectAnswerIndex)
	assert.Empty(t, q.ID, "wire providers never supply ids")
}

func TestChatGeneratorAttributionHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://trivia.example", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "AI Trivia Arena", r.Header.Get("X-Title"))
		_, _ = w.Write([]byte(chatCompletionBody(
			`{"question":"Q?","options":["a","b","c","d"],"correct_answer_index":0}`)))
	}))
	defer srv.Close()

	g := &chatGenerator{
		name:       "openrouter",
		baseURL:    srv.URL,
		apiKey:     "k",
		model:      "m",
		referer:    "https://trivia.example",
		title:      "AI Trivia Arena",
		httpClient: srv.Client(),
		log:        NewNopLogger(),
	}
	_, err := g.Generate(context.Background(), "easy")
	require.NoError(t, err)
}

func TestChatGeneratorUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := &chatGenerator{
		name:       "openai",
		baseURL:    srv.URL,
		apiKey:     "k",
		model:      "m",
		httpClient: srv.Client(),
		log:        NewNopLogger(),
	}
	_, err := g.Generate(context.Background(), "easy")
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
}

func TestChatGeneratorMissingKey(t *testing.T) {
	g := &chatGenerator{name: "openai", httpClient: &http.Client{Timeout: time.Second}, log: NewNopLogger()}
	_, err := g.Generate(context.Background(), "easy")
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
}

func TestSelectGenerator(t *testing.T) {
	log := NewNopLogger()
	cfgBoth := Config{OpenAIKey: "a", OpenRouterKey: "b"}
	cfgOpenAIOnly := Config{OpenAIKey: "a"}
	cfgNone := Config{}

	t.Run("configured provider wins when available", func(t *testing.T) {
		gen, err := selectGenerator("openrouter", log,
			newOpenRouterGenerator(cfgBoth, log), newOpenAIGenerator(cfgBoth, log))
		require.NoError(t, err)
		assert.Equal(t, "openrouter", gen.Name())
	})

	t.Run("falls back when configured provider has no key", func(t *testing.T) {
		gen, err := selectGenerator("openrouter", log,
			newOpenRouterGenerator(cfgOpenAIOnly, log), newOpenAIGenerator(cfgOpenAIOnly, log))
		require.NoError(t, err)
		assert.Equal(t, "openai", gen.Name())
	})

	t.Run("errors when nothing is configured", func(t *testing.T) {
		_, err := selectGenerator("openrouter", log,
			newOpenRouterGenerator(cfgNone, log), newOpenAIGenerator(cfgNone, log))
		require.Error(t, err)
	})
}
