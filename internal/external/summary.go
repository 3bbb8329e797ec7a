package external

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"skycast/internal/types"
)

const (
	// defaultSummaryBaseURL is Gemini's OpenAI-compatible endpoint.
	defaultSummaryBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	defaultSummaryModel   = "gemini-2.5-flash"
)

// ErrSummaryDisabled is wrapped by Summarize when no credential was configured.
var ErrSummaryDisabled = errors.New("summary client has no API key")

// SummaryClientConfig holds the configuration for a SummaryClient.
type SummaryClientConfig struct {
	APIKey    types.SecretString
	BaseURL   string // defaults to defaultSummaryBaseURL
	Model     string // defaults to defaultSummaryModel
	MaxTokens int
	Logger    *slog.Logger
}

// SummaryClient implements Summarizer with a chat completion against any
// OpenAI-compatible endpoint. Without an API key it is constructed disabled
// and every call fails with types.ErrCodeUpstreamSummary.
type SummaryClient struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    *slog.Logger
}

// NewSummaryClient creates a SummaryClient. When base is non-nil, requests go
// through it (breaker, trace header, user agent).
func NewSummaryClient(base *BaseClient, cfg SummaryClientConfig) *SummaryClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	model := cfg.Model
	if model == "" {
		model = defaultSummaryModel
	}

	s := &SummaryClient{
		model:     model,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}

	if cfg.APIKey.IsZero() {
		logger.Warn("summary API key not configured; AI summaries disabled")
		return s
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultSummaryBaseURL
	}

	oc := openai.DefaultConfig(cfg.APIKey.Unmask())
	oc.BaseURL = strings.TrimSuffix(baseURL, "/")
	if base != nil {
		oc.HTTPClient = base
	}
	s.client = openai.NewClientWithConfig(oc)
	return s
}

// Enabled reports whether the client holds a credential.
func (s *SummaryClient) Enabled() bool {
	return s.client != nil
}

// Summarize asks the model for a short description of vm's current reading.
func (s *SummaryClient) Summarize(ctx context.Context, vm *types.WeatherViewModel) (string, error) {
	if s.client == nil {
		return "", summaryError(ErrSummaryDisabled)
	}
	if vm == nil || vm.Current == nil {
		return "", summaryError(errors.New("summary requires a current reading"))
	}

	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: SummaryPrompt(vm)},
		},
	}
	if s.maxTokens > 0 {
		req.MaxTokens = s.maxTokens
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", summaryError(err)
	}
	if len(resp.Choices) == 0 {
		return "", summaryError(errors.New("no choices returned"))
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", summaryError(errors.New("empty completion"))
	}
	return text, nil
}

// SummaryPrompt renders the prompt sent for vm.
func SummaryPrompt(vm *types.WeatherViewModel) string {
	label := "Unknown"
	if vm.Theme != nil {
		label = vm.Theme.Label
	}

	var b strings.Builder
	b.WriteString("You are a friendly weather assistant. Based on the following data, ")
	b.WriteString("describe the weather briefly and naturally in one sentence.\n")
	fmt.Fprintf(&b, "City: %s\n", vm.City)
	fmt.Fprintf(&b, "Country: %s\n", vm.Country)
	fmt.Fprintf(&b, "Current temperature: %.1f°C\n", vm.Current.TemperatureCelsius)
	fmt.Fprintf(&b, "Conditions: %s\n", label)
	fmt.Fprintf(&b, "Humidity: %d%%\n", vm.Current.HumidityPercent)
	b.WriteString("Example: \"It's 29°C and cloudy in Delhi, a bit humid today!\"")
	return b.String()
}

func summaryError(err error) *types.AppError {
	return types.NewAppError(types.ErrCodeUpstreamSummary, types.MsgSummaryUnavailable, err)
}
