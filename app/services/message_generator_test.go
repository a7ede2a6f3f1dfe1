package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amirphl/partyline/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCompletionGenerator_Generate(t *testing.T) {
	t.Parallel()

	var got chatCompletionRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Pizza at mine Friday 7pm! 🍕  "}}]}`))
	}))
	defer srv.Close()

	g := NewMessageGenerator(config.AIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/", Model: "gpt-3.5-turbo", MaxTokens: 120, Temperature: 0.7})
	msg, err := g.Generate(context.Background(), "Pizza night, Friday 7pm", "")
	require.NoError(t, err)
	assert.Equal(t, "Pizza at mine Friday 7pm! 🍕", msg)

	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "gpt-3.5-turbo", got.Model)
	assert.Equal(t, 120, got.MaxTokens)
	assert.InDelta(t, 0.7, got.Temperature, 0.0001)
	require.Len(t, got.Messages, 1)
	assert.Contains(t, got.Messages[0].Content, "short, casual text messages")
	assert.Contains(t, got.Messages[0].Content, "Pizza night, Friday 7pm")
}

func TestChatCompletionGenerator_Errors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer empty":
			_, _ = w.Write([]byte(`{"choices":[]}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
		}
	}))
	defer srv.Close()

	_, err := NewChatCompletionGenerator(config.AIConfig{APIKey: "bad", BaseURL: srv.URL}).Generate(context.Background(), "x", "casual")
	assert.ErrorContains(t, err, "Incorrect API key provided")

	_, err = NewChatCompletionGenerator(config.AIConfig{APIKey: "empty", BaseURL: srv.URL}).Generate(context.Background(), "x", "casual")
	assert.ErrorIs(t, err, ErrEmptyGeneration)
}

func TestTemplateGenerator(t *testing.T) {
	t.Parallel()

	g := NewMessageGenerator(config.AIConfig{})
	_, ok := g.(TemplateGenerator)
	require.True(t, ok)

	msg, err := g.Generate(context.Background(), "  BBQ   at the park\nSaturday 2pm ", "casual")
	require.NoError(t, err)
	assert.Equal(t, "Hey [Name]! Quick heads up: BBQ at the park Saturday 2pm. Hope you can make it 🙂", msg)

	_, err = g.Generate(context.Background(), "   ", "casual")
	assert.ErrorIs(t, err, ErrEmptyGeneration)
}
