package services

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

	"github.com/amirphl/partyline/config"
	"github.com/amirphl/partyline/utils"
)

// ErrEmptyGeneration is returned when the model answers without any text
var ErrEmptyGeneration = errors.New("generator returned an empty message")

// MessageGenerator drafts an event message from free-text event details
type MessageGenerator interface {
	Generate(ctx context.Context, input, tone string) (string, error)
}

// NewMessageGenerator returns the chat completion client when an API key is configured,
// otherwise the template generator
func NewMessageGenerator(cfg config.AIConfig) MessageGenerator {
	if cfg.APIKey == "" {
		return TemplateGenerator{}
	}
	return NewChatCompletionGenerator(cfg)
}

// ChatCompletionGenerator talks to an OpenAI compatible /chat/completions endpoint
type ChatCompletionGenerator struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
}

func NewChatCompletionGenerator(cfg config.AIConfig) *ChatCompletionGenerator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 120
	}
	return &ChatCompletionGenerator{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func buildPrompt(input, tone string) string {
	return fmt.Sprintf(`You are a helpful assistant that writes short, %s text messages for someone who needs to notify their friends about an event or a change in plans.

Write a single text message based on the structured event details below. It should sound natural like a real SMS (not like an email or formal invite). Use contractions, emojis, and a light tone. The message should either be addressed to "friends" or left generic, with no formal greetings or signatures.

Event Details:
%s

Text Message:`, tone, input)
}

func (g *ChatCompletionGenerator) Generate(ctx context.Context, input, tone string) (string, error) {
	if strings.TrimSpace(tone) == "" {
		tone = utils.DefaultMessageTone
	}

	payload, err := json.Marshal(chatCompletionRequest{
		Model:       g.model,
		Messages:    []chatMessage{{Role: "user", Content: buildPrompt(input, tone)}},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call completion endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	var cr chatCompletionResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return "", fmt.Errorf("failed to decode json: %w body=%q", err, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		if cr.Error != nil && cr.Error.Message != "" {
			return "", fmt.Errorf("unexpected status code: %d: %s", resp.StatusCode, cr.Error.Message)
		}
		return "", fmt.Errorf("unexpected status code: %d body=%q", resp.StatusCode, string(body))
	}
	if len(cr.Choices) == 0 {
		return "", ErrEmptyGeneration
	}

	msg := strings.TrimSpace(cr.Choices[0].Message.Content)
	if msg == "" {
		return "", ErrEmptyGeneration
	}
	return msg, nil
}

// TemplateGenerator drafts a message without calling a model
type TemplateGenerator struct{}

func (TemplateGenerator) Generate(_ context.Context, input, tone string) (string, error) {
	details := strings.Join(strings.Fields(input), " ")
	if details == "" {
		return "", ErrEmptyGeneration
	}

	switch strings.ToLower(strings.TrimSpace(tone)) {
	case "formal":
		return fmt.Sprintf("Hello %s, you are invited: %s", utils.NamePlaceholder, details), nil
	case "excited":
		return fmt.Sprintf("Hey %s!! 🎉 %s. Can't wait to see you there!", utils.NamePlaceholder, details), nil
	default:
		return fmt.Sprintf("Hey %s! Quick heads up: %s. Hope you can make it 🙂", utils.NamePlaceholder, details), nil
	}
}
