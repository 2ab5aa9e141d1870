package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AdviceProvider generates curtain recommendations for a described room.
type AdviceProvider interface {
	GenerateDesignAdvice(ctx context.Context, params AdviceParams) (*DesignAdvice, error)
}

// MockupProvider renders curtains into a photo of the customer's room.
type MockupProvider interface {
	GenerateMockup(ctx context.Context, params MockupParams) (*MockupResult, error)
}

// AdviceParams describes the room and the catalog the advice may draw from.
type AdviceParams struct {
	RoomType      string        // e.g. "bedroom", "living room"
	Style         string        // e.g. "scandinavian"
	Colors        []string      // Preferred colours
	LightExposure LightExposure // How much daylight the window gets
	Notes         string        // Free text from the customer
	Catalog       []CatalogEntry
}

// CatalogEntry is the slice of a product the model needs to recommend it.
type CatalogEntry struct {
	Slug     string
	Name     string
	Category string
	Colors   []string
}

// DesignAdvice is the structured result of an advice request.
type DesignAdvice struct {
	Summary         string
	Recommendations []Recommendation
	CareTips        []string
	Usage           UsageInfo
}

// Recommendation is a single suggested curtain.
type Recommendation struct {
	Category    string
	Color       string
	ProductSlug string // Empty when the suggestion does not match a catalog product
	Reason      string
}

// MockupParams contains the inputs for a virtual mockup.
type MockupParams struct {
	RoomImage       []byte // Raw room photo bytes
	RoomContentType string // MIME type of the room photo
	FabricImage     []byte // Swatch of the chosen product
	Color           string // Colour name the panels are tinted toward
}

// MockupResult is an encoded image of the room with curtains applied.
type MockupResult struct {
	Image       []byte
	ContentType string
	Width       int
	Height      int
	Duration    time.Duration
}

// UsageInfo tracks API usage for monitoring
type UsageInfo struct {
	Model        string        // AI model used
	InputTokens  int           // Tokens in the request
	OutputTokens int           // Tokens in the response
	CostCents    int           // Estimated cost in cents
	Duration     time.Duration // Request duration
}

// LightExposure describes how much daylight reaches the window.
type LightExposure string

const (
	LightLow    LightExposure = "low"
	LightMedium LightExposure = "medium"
	LightHigh   LightExposure = "high"
)

// Valid checks if the light exposure is a known value
func (l LightExposure) Valid() bool {
	switch l {
	case LightLow, LightMedium, LightHigh:
		return true
	default:
		return false
	}
}

// ParseLightExposure normalizes input, defaulting unknown values to medium.
func ParseLightExposure(s string) LightExposure {
	l := LightExposure(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return LightMedium
	}
	return l
}

// ProviderConfig contains common configuration for AI providers
type ProviderConfig struct {
	MaxRetries     int           // Maximum retry attempts for transient errors
	RetryBaseDelay time.Duration // Base delay for exponential backoff
	RequestTimeout time.Duration // Timeout for individual requests
}

// Error codes for AI provider operations
var (
	// EAIRateLimit indicates the API rate limit has been exceeded
	EAIRateLimit = errors.New("ai provider rate limit exceeded")

	// EAIInvalidImage indicates the image format or content is invalid
	EAIInvalidImage = errors.New("invalid image format or content")

	// EAIInvalidResponse indicates the provider returned output we could not parse
	EAIInvalidResponse = errors.New("ai provider returned an invalid response")

	// EAITimeout indicates the request timed out
	EAITimeout = errors.New("ai request timed out")

	// EAIUnavailable indicates the AI service is temporarily unavailable
	EAIUnavailable = errors.New("ai service temporarily unavailable")

	// EAIUnauthorized indicates invalid API credentials
	EAIUnauthorized = errors.New("ai provider authentication failed")
)

// IsRetryable returns true if the error is a transient error that can be retried
func IsRetryable(err error) bool {
	return errors.Is(err, EAIRateLimit) ||
		errors.Is(err, EAITimeout) ||
		errors.Is(err, EAIUnavailable)
}

// WrapError wraps an error with context about the AI operation
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("ai %s: %w", operation, err)
}
