// Package assist turns failed run records into plain-language explanations
// using an OpenAI-compatible chat API.
package assist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/cruciblehq/crucible/internal/history"
)

const systemPrompt = `You explain errors from an interactive snippet console.
The console evaluates small expression snippets with capabilities imported by name.
Given the snippet source and the failure trace, explain in two or three plain
sentences what went wrong and how to fix it. Do not restate the trace.`

// Explainer sends failed records to an LLM for explanation.
type Explainer struct {
	client *openai.Client
	model  string
}

// New creates an Explainer against any OpenAI-compatible API (Ollama, Claude, Gemini).
func New(baseURL, apiKey, model string) *Explainer {
	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)
	return &Explainer{
		client: &client,
		model:  model,
	}
}

// Explain asks the model to explain why the record failed.
func (e *Explainer) Explain(ctx context.Context, rec history.Record) (string, error) {
	if rec.Success {
		return "", fmt.Errorf("record %d succeeded, nothing to explain", rec.Seq)
	}

	var prompt strings.Builder
	prompt.WriteString("Snippet:\n")
	prompt.WriteString(rec.Source)
	prompt.WriteString("\n\nFailure trace:\n")
	prompt.WriteString(rec.Trace)

	params := openai.ChatCompletionNewParams{
		Model: e.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt.String()),
		},
	}

	var completion *openai.ChatCompletion
	var err error
	for attempt := range 3 {
		completion, err = e.client.Chat.Completions.New(ctx, params)
		if err == nil {
			break
		}
		if !strings.Contains(err.Error(), "429") || attempt == 2 {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		wait := time.Duration(2<<attempt) * time.Second
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return "", fmt.Errorf("chat completion: %w", ctx.Err())
		}
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
