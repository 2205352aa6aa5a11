package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/conorfennell/snapcard/internal/domain"
	"github.com/conorfennell/snapcard/internal/parser"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-3.5-turbo"

const (
	maxTokens   = 1000
	temperature = 0.7
)

const systemPrompt = `You are a helpful assistant that creates educational flashcards.
Generate 5-10 high-quality flashcards from the provided text.
Format each flashcard as "Q: [question]? A: [answer]" on separate lines.
Make questions clear and answers concise but complete.
Focus on key concepts, definitions, facts, and important details.`

var (
	// ErrEmptyInput is returned when there is no text to generate cards from.
	ErrEmptyInput = errors.New("no text to generate flashcards from")
	// ErrNoFlashcards is returned when the reply holds no usable Q/A pair.
	ErrNoFlashcards = errors.New("reply contained no flashcards")
)

// Generator turns free text into question/answer pairs.
type Generator interface {
	Generate(ctx context.Context, text string) ([]domain.Pair, error)
}

// OpenAI generates pairs with an OpenAI-compatible chat completions API.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI creates a generator. An empty baseURL uses the OpenAI API and an
// empty model uses DefaultModel.
func NewOpenAI(apiKey, baseURL, model string, opts ...option.RequestOption) *OpenAI {
	if model == "" {
		model = DefaultModel
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)
	return &OpenAI{
		client: openai.NewClient(reqOpts...),
		model:  model,
	}
}

// Generate asks the model for flashcards about text and parses its reply.
func (g *OpenAI) Generate(ctx context.Context, text string) ([]domain.Pair, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage("Create flashcards from this text: " + text),
		},
		MaxCompletionTokens: openai.Int(maxTokens),
		Temperature:         openai.Float(temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate flashcards: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("failed to generate flashcards: %w", ErrNoFlashcards)
	}

	pairs := parser.ParseString(resp.Choices[0].Message.Content)
	if len(pairs) == 0 {
		return nil, ErrNoFlashcards
	}
	return pairs, nil
}
