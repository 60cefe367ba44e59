package retrieval

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const synthesisSystemPrompt = `You are a knowledge assistant for a merchant services company. You help sales agents answer questions about payment processors, POS hardware, processing rates, and fees.
Answer the user's question using ONLY the provided context passages.
If the passages do not contain the answer, say you don't have that information.
Be concise and direct. Do not mention the passages or that you were given context.`

// OpenAISynthesizer composes answers with a chat-completion model.
// Works against the OpenAI API or any compatible endpoint (vLLM,
// LM Studio, Ollama's OpenAI shim) via a custom base URL.
type OpenAISynthesizer struct {
	client *openai.Client
	model  string
}

// NewOpenAISynthesizer creates a synthesizer against api.openai.com
func NewOpenAISynthesizer(apiKey, model string) *OpenAISynthesizer {
	return &OpenAISynthesizer{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// NewOpenAISynthesizerWithBaseURL creates a synthesizer against a
// compatible local or proxied endpoint
func NewOpenAISynthesizerWithBaseURL(apiKey, baseURL, model string) *OpenAISynthesizer {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &OpenAISynthesizer{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Synthesize grounds an answer in the retrieved passages
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, question string, passages []string) (string, error) {
	if len(passages) == 0 {
		return "", fmt.Errorf("no passages to synthesize from")
	}

	var b strings.Builder
	b.WriteString("Context passages:\n\n")
	for i, p := range passages {
		fmt.Fprintf(&b, "[%d] %s\n\n", i+1, p)
	}
	fmt.Fprintf(&b, "Question: %s", question)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: synthesisSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: b.String()},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", fmt.Errorf("model returned empty answer")
	}

	return answer, nil
}
