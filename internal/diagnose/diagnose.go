// Package diagnose asks a local LLM to explain a failed pipeline run. The
// run record is serialized, trimmed to a token budget, and sent to an ollama
// model together with the failing step and error.
package diagnose

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/avezina/shiplift/internal/logging"
	"github.com/avezina/shiplift/internal/pipeline"
)

const defaultTokenBudget = 4096

const diagnosePrompt = `You are a deployment engineer reviewing a failed deployment pipeline run.
The pipeline builds a container image, pushes it to a registry, rolls an ECS service
onto it, runs database migrations, and publishes DNS.

Failed step: {{.Step}}
Error: {{.Error}}

Run record (JSON):
{{.Record}}

State the most likely root cause in one or two sentences, then list the concrete
checks or commands to run next. Be specific to the failed step.`

type Config struct {
	OllamaURL   string
	ModelName   string
	CallTimeout time.Duration
	TokenBudget int
}

// contentGenerator is the slice of the LLM client we use, mockable in tests.
type contentGenerator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, opts ...llms.CallOption) (*llms.ContentResponse, error)
}

type Diagnoser struct {
	llm    contentGenerator
	log    logging.Logger
	to     time.Duration
	budget int
}

func New(cfg Config, log logging.Logger) (*Diagnoser, error) {
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("llm model name is required")
	}

	opts := []ollama.Option{
		ollama.WithModel(cfg.ModelName),
		ollama.WithServerURL(cfg.OllamaURL),
		ollama.WithKeepAlive("5m"),
	}
	client, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}

	budget := cfg.TokenBudget
	if budget <= 0 {
		budget = defaultTokenBudget
	}
	return &Diagnoser{llm: client, log: log.WithName("diagnose"), to: cfg.CallTimeout, budget: budget}, nil
}

// Explain produces a diagnosis for the run's failure.
func (d *Diagnoser) Explain(ctx context.Context, run *pipeline.Run) (string, error) {
	if run == nil {
		return "", errors.New("no run record to diagnose")
	}
	if run.Status != pipeline.RunFailed {
		return "", fmt.Errorf("last run %s, nothing to diagnose", run.Status)
	}

	prompt, err := d.renderPrompt(run)
	if err != nil {
		return "", err
	}

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}
	resp, err := d.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", d.annotateError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty diagnosis response")
	}
	return resp.Choices[0].Content, nil
}

func (d *Diagnoser) renderPrompt(run *pipeline.Run) (string, error) {
	record, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal run record: %w", err)
	}

	prompt := strings.ReplaceAll(diagnosePrompt, "{{.Step}}", run.FailedStep)
	prompt = strings.ReplaceAll(prompt, "{{.Error}}", run.Error)

	overhead := estimateTokens(prompt)
	recordBudget := maxInt(256, d.budget-overhead)
	prompt = strings.ReplaceAll(prompt, "{{.Record}}", truncateToBudget(string(record), recordBudget))
	return prompt, nil
}

func (d *Diagnoser) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.to <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.to)
}

func (d *Diagnoser) annotateError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("llm call timed out after %s: %w", d.to, err)
	}
	return err
}
