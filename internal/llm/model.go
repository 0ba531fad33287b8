// Package llm answers chat messages with a language model through langchaingo.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/raphaelgruber/knowbot/internal/config"
	"github.com/raphaelgruber/knowbot/internal/models"
	"github.com/raphaelgruber/knowbot/internal/service"
)

// ErrFatalAPI marks provider errors that retrying will not fix, such as bad
// credentials or an exhausted quota.
var ErrFatalAPI = errors.New("fatal LLM API error")

// MaxHistory is how many transcript messages are sent with each request.
const MaxHistory = 20

const systemPrompt = `You are the Knowledge Bot, an internal assistant for employees.
Answer questions about company policies, benefits, finance and IT procedures.
Be concise. If you do not know the answer, say so and suggest who to contact.`

// Responder implements service.Responder with a chat model.
type Responder struct {
	llm       llms.Model
	modelName string
}

// NewResponder creates a responder for the configured provider.
func NewResponder(cfg config.Config) (*Responder, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Responder{llm: model, modelName: cfg.LLMModel}, nil
}

// Model returns the LLM model name.
func (r *Responder) Model() string {
	return r.modelName
}

// Respond implements service.Responder. The request history already ends
// with the user's message.
func (r *Responder) Respond(ctx context.Context, req service.ReplyRequest) (string, error) {
	response, err := r.llm.GenerateContent(ctx, buildMessages(req))
	if err != nil {
		return "", wrapFatalError(fmt.Errorf("generate reply: %w", err))
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	answer := strings.TrimSpace(response.Choices[0].Content)
	if answer == "" {
		return "", fmt.Errorf("empty response")
	}
	return answer, nil
}

func buildMessages(req service.ReplyRequest) []llms.MessageContent {
	history := req.History
	if len(history) == 0 {
		history = []models.Message{{Sender: models.SenderUser, Text: req.Text}}
	}
	if len(history) > MaxHistory {
		history = history[len(history)-MaxHistory:]
	}

	messages := make([]llms.MessageContent, 0, len(history)+1)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	for _, m := range history {
		role := llms.ChatMessageTypeHuman
		if m.Sender == models.SenderBot {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, m.Text))
	}
	return messages
}

var fatalMarkers = []string{
	"credit balance",
	"rate limit",
	"quota",
	"billing",
	"invalid api key",
	"authentication",
	"unauthorized",
	"401",
	"403",
}

// isFatalAPIError reports whether err looks like a provider error that will
// not go away on retry.
func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range fatalMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// wrapFatalError marks fatal errors with ErrFatalAPI and passes others
// through unchanged.
func wrapFatalError(err error) error {
	if !isFatalAPIError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrFatalAPI, err)
}
