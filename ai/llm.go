// Package ai provides the LLM-backed routing advisor.
package ai

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// LLMService is the minimal chat surface the advisor consumes.
type LLMService interface {
	// Chat performs synchronous chat and returns the response content.
	Chat(ctx context.Context, messages []Message) (string, error)
}

// LLMConfig represents LLM service configuration.
type LLMConfig struct {
	Provider    string // zai, deepseek, openai, siliconflow, dashscope, openrouter, ollama
	Model       string // glm-4.7, deepseek-chat, gpt-4o, etc.
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 1024
	Temperature float32 // default: 0.2
	Timeout     int     // Request timeout in seconds (default: 30)
}

type llmService struct {
	client      *openai.Client
	model       string
	provider    string
	maxTokens   int
	temperature float32
	timeout     int // Request timeout in seconds
}

// newHTTPClient creates an HTTP client with connection pooling tuned for
// short advisory calls.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

// NewLLMService creates a new LLM service for any OpenAI-compatible provider.
func NewLLMService(cfg *LLMConfig) (LLMService, error) {
	httpClient := newHTTPClient()

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	} else if cfg.Provider != "openai" {
		slog.Info("no base URL for non-openai provider, using OpenAI default", "provider", cfg.Provider)
	}
	clientConfig.HTTPClient = httpClient

	client := openai.NewClientWithConfig(clientConfig)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		// Advisory calls want near-deterministic output.
		temperature = 0.2
	}

	return &llmService{
		client:      client,
		model:       cfg.Model,
		provider:    cfg.Provider,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     timeout,
	}, nil
}

func (s *llmService) Chat(ctx context.Context, messages []Message) (string, error) {
	// The timeout here is the advisor's own bound; callers never wait longer.
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    chatMessages,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyResponse
	}

	slog.Debug("llm chat completed",
		"provider", s.provider,
		"model", s.model,
		"total_tokens", resp.Usage.TotalTokens,
		"latency_ms", time.Since(start).Milliseconds())

	return resp.Choices[0].Message.Content, nil
}

// SystemPrompt creates a system message.
func SystemPrompt(content string) Message {
	return Message{Role: openai.ChatMessageRoleSystem, Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: openai.ChatMessageRoleUser, Content: content}
}
