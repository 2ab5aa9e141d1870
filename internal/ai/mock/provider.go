package mock

import (
	"context"
	"log/slog"
	"sync"

	"github.com/DukeRupert/drapery/internal/ai"
)

// Provider is a mock AI provider for testing and development
type Provider struct {
	logger *slog.Logger

	// Configurable responses for testing
	AdviceResponse *ai.DesignAdvice
	AdviceError    error
	MockupResponse *ai.MockupResult
	MockupError    error

	mu          sync.Mutex
	adviceCalls int
	mockupCalls int
	lastAdvice  ai.AdviceParams
}

var (
	_ ai.AdviceProvider = (*Provider)(nil)
	_ ai.MockupProvider = (*Provider)(nil)
)

// New creates a new mock AI provider
func New(logger *slog.Logger) *Provider {
	return &Provider{
		logger: logger,
	}
}

// GenerateDesignAdvice returns a canned recommendation built from the catalog
func (p *Provider) GenerateDesignAdvice(ctx context.Context, params ai.AdviceParams) (*ai.DesignAdvice, error) {
	p.mu.Lock()
	p.adviceCalls++
	p.lastAdvice = params
	p.mu.Unlock()

	if p.AdviceError != nil {
		return nil, p.AdviceError
	}
	if p.AdviceResponse != nil {
		return p.AdviceResponse, nil
	}

	want := "sheer"
	switch params.LightExposure {
	case ai.LightHigh:
		want = "blackout"
	case ai.LightMedium:
		want = "linen"
	}

	advice := &ai.DesignAdvice{
		Summary: "Layer a light-filtering panel behind a heavier one so the room works both day and night.",
		CareTips: []string{
			"Hang panels at least 10 cm above the window frame to make the window look taller.",
			"Vacuum with a brush attachment monthly and steam out creases on low heat.",
		},
		Usage: ai.UsageInfo{Model: "mock"},
	}

	for _, entry := range params.Catalog {
		if entry.Category != want {
			continue
		}
		color := ""
		if len(entry.Colors) > 0 {
			color = entry.Colors[0]
		}
		advice.Recommendations = append(advice.Recommendations, ai.Recommendation{
			Category:    entry.Category,
			Color:       color,
			ProductSlug: entry.Slug,
			Reason:      "Suits a room with " + string(params.LightExposure) + " light exposure.",
		})
		break
	}
	if len(advice.Recommendations) == 0 {
		advice.Recommendations = append(advice.Recommendations, ai.Recommendation{
			Category: want,
			Color:    "ivory",
			Reason:   "A neutral tone keeps the room bright.",
		})
	}

	if p.logger != nil {
		p.logger.Debug("mock design advice", "room_type", params.RoomType, "category", want)
	}

	return advice, nil
}

// GenerateMockup returns MockupResponse, or the room photo unchanged
func (p *Provider) GenerateMockup(ctx context.Context, params ai.MockupParams) (*ai.MockupResult, error) {
	p.mu.Lock()
	p.mockupCalls++
	p.mu.Unlock()

	if p.MockupError != nil {
		return nil, p.MockupError
	}
	if p.MockupResponse != nil {
		return p.MockupResponse, nil
	}
	return &ai.MockupResult{
		Image:       params.RoomImage,
		ContentType: params.RoomContentType,
	}, nil
}

// AdviceCalls returns how many times GenerateDesignAdvice was called
func (p *Provider) AdviceCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.adviceCalls
}

// MockupCalls returns how many times GenerateMockup was called
func (p *Provider) MockupCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mockupCalls
}

// LastAdviceParams returns the parameters of the most recent advice call
func (p *Provider) LastAdviceParams() ai.AdviceParams {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastAdvice
}
