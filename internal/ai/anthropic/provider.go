package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/DukeRupert/drapery/internal/ai"
)

const (
	// APIBaseURL is the base URL for the Anthropic API
	APIBaseURL = "https://api.anthropic.com/v1/messages"

	// APIVersion is the Anthropic API version
	APIVersion = "2023-06-01"

	// DefaultModel is the default Claude model to use
	DefaultModel = "claude-3-5-sonnet-20241022"

	// Pricing in cents per 1M tokens for claude-3-5-sonnet
	PricingInputCents  = 300  // $3 per 1M input tokens
	PricingOutputCents = 1500 // $15 per 1M output tokens

	adviceMaxTokens = 1024
)

// Config contains configuration for the Anthropic provider
type Config struct {
	APIKey         string
	Model          string
	BaseURL        string // Defaults to APIBaseURL
	ProviderConfig ai.ProviderConfig
}

// Provider implements ai.AdviceProvider using Anthropic's Claude API
type Provider struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

var _ ai.AdviceProvider = (*Provider)(nil)

// New creates a new Anthropic AI provider
func New(config Config, logger *slog.Logger) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	// Set defaults
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.BaseURL == "" {
		config.BaseURL = APIBaseURL
	}
	if config.ProviderConfig.MaxRetries == 0 {
		config.ProviderConfig.MaxRetries = 3
	}
	if config.ProviderConfig.RetryBaseDelay == 0 {
		config.ProviderConfig.RetryBaseDelay = 1 * time.Second
	}
	if config.ProviderConfig.RequestTimeout == 0 {
		config.ProviderConfig.RequestTimeout = 60 * time.Second
	}

	return &Provider{
		config: config,
		client: &http.Client{
			Timeout: config.ProviderConfig.RequestTimeout,
		},
		logger: logger,
	}, nil
}

// GenerateDesignAdvice asks Claude for curtain recommendations
func (p *Provider) GenerateDesignAdvice(ctx context.Context, params ai.AdviceParams) (*ai.DesignAdvice, error) {
	startTime := time.Now()

	body, err := json.Marshal(apiRequest{
		Model:     p.config.Model,
		MaxTokens: adviceMaxTokens,
		Messages: []apiMessage{
			{
				Role: "user",
				Content: []apiContent{
					{Type: "text", Text: buildAdvicePrompt(params)},
				},
			},
		},
	})
	if err != nil {
		return nil, ai.WrapError("design advice", fmt.Errorf("marshal request: %w", err))
	}

	resp, err := p.executeWithRetry(ctx, body)
	if err != nil {
		return nil, ai.WrapError("design advice", err)
	}

	advice, err := parseAdviceResponse(resp)
	if err != nil {
		return nil, ai.WrapError("design advice", err)
	}

	advice.Usage = ai.UsageInfo{
		Model:        p.config.Model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		CostCents:    calculateCost(resp.Usage.InputTokens, resp.Usage.OutputTokens),
		Duration:     time.Since(startTime),
	}

	p.logger.Debug("design advice generated",
		"model", advice.Usage.Model,
		"input_tokens", advice.Usage.InputTokens,
		"output_tokens", advice.Usage.OutputTokens,
		"duration", advice.Usage.Duration,
	)

	return advice, nil
}

// newRequest builds a request with a fresh body; retries cannot reuse a consumed one.
func (p *Provider) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.config.APIKey)
	req.Header.Set("anthropic-version", APIVersion)

	return req, nil
}

// executeWithRetry executes an HTTP request with exponential backoff retry
func (p *Provider) executeWithRetry(ctx context.Context, body []byte) (*apiResponse, error) {
	var lastErr error

	for attempt := 1; attempt <= p.config.ProviderConfig.MaxRetries; attempt++ {
		req, err := p.newRequest(ctx, body)
		if err != nil {
			return nil, err
		}

		resp, err := p.executeRequest(req)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		// Only retry on retryable errors
		if !ai.IsRetryable(err) {
			return nil, err
		}

		if attempt >= p.config.ProviderConfig.MaxRetries {
			break
		}

		// Exponential: base * 2^(attempt-1)
		delay := p.config.ProviderConfig.RetryBaseDelay * time.Duration(1<<(attempt-1))
		p.logger.Info("Retrying AI request", "attempt", attempt, "delay", delay, "error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// executeRequest executes a single HTTP request
func (p *Provider) executeRequest(req *http.Request) (*apiResponse, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ai.EAITimeout
		}
		// Network errors are typically retryable
		return nil, ai.EAIUnavailable
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, mapHTTPError(resp.StatusCode, bodyBytes)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("%w: unmarshal response: %v", ai.EAIInvalidResponse, err)
	}

	return &apiResp, nil
}

// mapHTTPError maps HTTP status codes to provider errors
func mapHTTPError(statusCode int, body []byte) error {
	var errResp apiErrorResponse
	_ = json.Unmarshal(body, &errResp)

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ai.EAIUnauthorized
	case http.StatusTooManyRequests:
		return ai.EAIRateLimit
	case http.StatusRequestTimeout:
		return ai.EAITimeout
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout, 529:
		return ai.EAIUnavailable
	default:
		return fmt.Errorf("API error (status %d): %s", statusCode, errResp.Error.Message)
	}
}

// parseAdviceResponse extracts the JSON advice from the first text block
func parseAdviceResponse(resp *apiResponse) (*ai.DesignAdvice, error) {
	var textContent string
	for _, content := range resp.Content {
		if content.Type == "text" {
			textContent = content.Text
			break
		}
	}
	if textContent == "" {
		return nil, fmt.Errorf("%w: no text content in response", ai.EAIInvalidResponse)
	}

	var output adviceOutput
	if err := json.Unmarshal([]byte(extractJSON(textContent)), &output); err != nil {
		return nil, fmt.Errorf("%w: parse advice output: %v", ai.EAIInvalidResponse, err)
	}

	advice := &ai.DesignAdvice{
		Summary:         strings.TrimSpace(output.Summary),
		Recommendations: make([]ai.Recommendation, 0, len(output.Recommendations)),
		CareTips:        output.CareTips,
	}
	for _, r := range output.Recommendations {
		advice.Recommendations = append(advice.Recommendations, ai.Recommendation{
			Category:    strings.ToLower(r.Category),
			Color:       strings.ToLower(r.Color),
			ProductSlug: r.ProductSlug,
			Reason:      r.Reason,
		})
	}

	return advice, nil
}

// extractJSON trims a markdown code fence or leading prose around the object.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

// calculateCost calculates the cost in cents for the given token usage
func calculateCost(inputTokens, outputTokens int) int {
	inputCost := (inputTokens * PricingInputCents) / 1_000_000
	outputCost := (outputTokens * PricingOutputCents) / 1_000_000
	return inputCost + outputCost
}

// API request/response types

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string       `json:"role"`
	Content []apiContent `json:"content"`
}

type apiContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type apiResponse struct {
	ID      string             `json:"id"`
	Type    string             `json:"type"`
	Role    string             `json:"role"`
	Content []apiContentOutput `json:"content"`
	Model   string             `json:"model"`
	Usage   apiUsage           `json:"usage"`
}

type apiContentOutput struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type apiErrorResponse struct {
	Type  string   `json:"type"`
	Error apiError `json:"error"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// adviceOutput represents the JSON structure returned by Claude
type adviceOutput struct {
	Summary         string                 `json:"summary"`
	Recommendations []outputRecommendation `json:"recommendations"`
	CareTips        []string               `json:"care_tips"`
}

type outputRecommendation struct {
	Category    string `json:"category"`
	Color       string `json:"color"`
	ProductSlug string `json:"product_slug"`
	Reason      string `json:"reason"`
}
