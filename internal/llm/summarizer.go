// Package llm implements the suggestion summarizer on top of the
// OpenAI chat completions API.
//
// The call is best-effort by contract: one attempt, bounded by a
// timeout, and every failure surfaces as an error the caller absorbs.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"finsight/internal/suggest"
)

const (
	summarySystemPrompt = "You are a finance assistant. Provide concise, practical advice only."
	summaryMaxTokens    = 220
	summaryTemperature  = 0.2
)

// Summarizer generates short executive summaries of suggestion payloads.
type Summarizer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewSummarizer builds a summarizer, or returns nil when no API key is
// configured so callers can skip summary generation entirely.
func NewSummarizer(apiKey, model string, timeout time.Duration) *Summarizer {
	if apiKey == "" {
		return nil
	}
	return &Summarizer{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
	}
}

// Summarize asks for a <=120-word executive summary of the payload.
// Single attempt, no retry.
func (s *Summarizer) Summarize(ctx context.Context, payload suggest.SummaryPayload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal summary payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	slog.DebugContext(ctx, "Requesting summary", "model", s.model, "payload_bytes", len(body))

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   summaryMaxTokens,
		Temperature: summaryTemperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: summarySystemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				Content: "Create a short executive summary (max 120 words) from this JSON. " +
					"Focus on top savings actions and risk signals:\n" + string(body),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", errors.New("blank completion text")
	}
	return summary, nil
}
