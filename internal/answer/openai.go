package answer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"infobot/internal/domain"
)

const systemPrompt = `You are a helpful assistant for KCT. Follow these rules:
1. Only use information from the provided sources
2. Be conversational and friendly
3. Do NOT include any source citations, references, or links
4. Make your response engaging and informative
5. Break down information into clear sections`

// OpenAIGenerator answers through an OpenAI-compatible chat endpoint
// (Groq by default).
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	threshold   float64
}

// OpenAIConfig configures the chat generator. The API key is read from the
// environment variable named by APIKeyEnv.
type OpenAIConfig struct {
	BaseURL     string
	APIKeyEnv   string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	Threshold   float64
}

// NewOpenAIGenerator creates the chat-completion answer generator.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	cc := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = DefaultRelevanceThreshold
	}
	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(cc),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     timeout,
		threshold:   threshold,
	}, nil
}

// Generate builds the prompt from the filtered context and asks the model.
func (g *OpenAIGenerator) Generate(ctx context.Context, query string, results []domain.SearchResult) (string, error) {
	contextChunks := FilterContext(results, g.threshold)
	prompt := BuildPrompt(query, contextChunks)

	reqCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	resp, err := g.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	text := ScrubCitations(strings.TrimSpace(resp.Choices[0].Message.Content))
	if text == "" {
		return "", errors.New("chat completion returned empty text")
	}
	return text, nil
}

var (
	sourcesBlockRe = regexp.MustCompile(`(?s)\*\*Sources.*?\*\*.*?(\n\n|\z)`)
	sourcesUsedRe  = regexp.MustCompile(`(?s)Sources Used:.*?(\n\n|\z)`)
	markdownLinkRe = regexp.MustCompile(`\[.*?\]\(.*?\)`)
	sourceLineRe   = regexp.MustCompile(`Source:.*?\n`)
)

// ScrubCitations strips source blocks, citation lines and markdown links the
// model may emit despite instructions.
func ScrubCitations(text string) string {
	text = sourcesBlockRe.ReplaceAllString(text, "")
	text = sourcesUsedRe.ReplaceAllString(text, "")
	text = markdownLinkRe.ReplaceAllString(text, "")
	text = sourceLineRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
