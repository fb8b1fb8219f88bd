package advice

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"

	"github.com/breachlens/breachlens-api/internal/models"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second
)

const systemPrompt = "You are a password-security coach. You receive derived " +
	"metrics about a password, never the password itself. Give two or three " +
	"short, concrete suggestions for making it stronger. Plain text, no lists."

// OpenAIProvider implements the Provider interface using OpenAI's API
type OpenAIProvider struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey, baseURL, model string, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIProvider{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// HardeningAdvice asks the model for guidance based on derived metrics only
func (p *OpenAIProvider) HardeningAdvice(ctx context.Context, report models.StrengthReport) (string, error) {
	prompt := buildPrompt(report)

	if p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "hardening_advice"),
			zap.String("model", p.model),
			zap.Int("score", report.Score),
		)
	}

	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", fmt.Errorf("advice request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	if p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "hardening_advice"),
			zap.Duration("latency", time.Since(start)),
		)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// buildPrompt serializes the derived metrics. Nothing here may contain
// password material.
func buildPrompt(report models.StrengthReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Password metrics: length %d, entropy %.0f bits, score %d/4.\n", report.Length, report.EntropyBits, report.Score)
	fmt.Fprintf(&b, "Character classes: lower=%t upper=%t digit=%t symbol=%t.\n", report.HasLower, report.HasUpper, report.HasDigit, report.HasSymbol)
	if report.Pwned != nil {
		fmt.Fprintf(&b, "Seen in breach corpora %d times.\n", *report.Pwned)
	}
	if len(report.Warnings) > 0 {
		fmt.Fprintf(&b, "Weaknesses: %s.\n", strings.Join(report.Warnings, "; "))
	}
	return b.String()
}
