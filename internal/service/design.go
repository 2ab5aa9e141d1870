// Package service contains the business logic layer.
//
// This file implements the design assistant: text advice from an AI
// provider and a virtual mockup of curtains in the customer's room.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/DukeRupert/drapery/internal/ai"
	"github.com/DukeRupert/drapery/internal/domain"
	"github.com/DukeRupert/drapery/internal/metrics"
	"github.com/DukeRupert/drapery/internal/storage"
)

const (
	// MaxRoomPhotoSize is the largest accepted room photo (10MB).
	MaxRoomPhotoSize = 10 * 1024 * 1024

	// MockupURLExpiry is how long a mockup link stays valid.
	MockupURLExpiry = time.Hour

	maxFabricSize = 5 * 1024 * 1024
)

// AdviceRequest is the customer's description of the room.
type AdviceRequest struct {
	RoomType      string
	Style         string
	Colors        []string
	LightExposure ai.LightExposure
	Notes         string
}

// MockupRequest asks for a product rendered into a room photo.
type MockupRequest struct {
	ProductSlug     string
	Color           string
	RoomImage       []byte
	RoomContentType string
}

// MockupOutput points at a stored mockup.
type MockupOutput struct {
	Key     string
	URL     string
	Product *domain.Product
	Color   string
	Width   int
	Height  int
}

// =============================================================================
// Interface Definition
// =============================================================================

// DesignService defines the design assistant operations.
type DesignService interface {
	// Advice returns curtain recommendations drawn from the active catalog.
	// Returns domain.EUNAVAILABLE when the provider is down or rate limited.
	Advice(ctx context.Context, req AdviceRequest) (*ai.DesignAdvice, error)

	// Mockup renders a product into a room photo and stores the result.
	// Returns domain.EINVALID for missing or unsupported photos and
	// domain.ENOTFOUND for unknown products.
	Mockup(ctx context.Context, req MockupRequest) (*MockupOutput, error)
}

// =============================================================================
// Implementation
// =============================================================================

type designService struct {
	catalog CatalogService
	advisor ai.AdviceProvider
	mockups ai.MockupProvider
	storage storage.Storage
	logger  *slog.Logger
}

// NewDesignService creates a new DesignService.
func NewDesignService(
	catalog CatalogService,
	advisor ai.AdviceProvider,
	mockups ai.MockupProvider,
	store storage.Storage,
	logger *slog.Logger,
) DesignService {
	return &designService{
		catalog: catalog,
		advisor: advisor,
		mockups: mockups,
		storage: store,
		logger:  logger,
	}
}

// =============================================================================
// Advice
// =============================================================================

// Advice implements DesignService.
func (s *designService) Advice(ctx context.Context, req AdviceRequest) (*ai.DesignAdvice, error) {
	const op = "design.advice"

	req.RoomType = strings.TrimSpace(req.RoomType)
	req.Style = strings.TrimSpace(req.Style)
	req.Notes = strings.TrimSpace(req.Notes)
	if req.RoomType == "" {
		return nil, domain.Invalid(op, "room type is required")
	}
	if utf8.RuneCountInString(req.Notes) > domain.MaxNotesLength {
		return nil, domain.Invalid(op, fmt.Sprintf("notes must be %d characters or less", domain.MaxNotesLength))
	}
	if !req.LightExposure.Valid() {
		req.LightExposure = ai.LightMedium
	}

	products, err := s.catalog.List(ctx, "")
	if err != nil {
		return nil, err
	}

	entries := make([]ai.CatalogEntry, len(products))
	known := make(map[string]bool, len(products))
	for i, p := range products {
		entries[i] = ai.CatalogEntry{
			Slug:     p.Slug,
			Name:     p.Name,
			Category: p.Category.String(),
			Colors:   p.Colors,
		}
		known[p.Slug] = true
	}

	advice, err := s.advisor.GenerateDesignAdvice(ctx, ai.AdviceParams{
		RoomType:      req.RoomType,
		Style:         req.Style,
		Colors:        normalizeColors(req.Colors),
		LightExposure: req.LightExposure,
		Notes:         req.Notes,
		Catalog:       entries,
	})
	if err != nil {
		metrics.AIRequest("advice", "error", nil)
		return nil, mapAIError(err, op)
	}

	for i := range advice.Recommendations {
		if slug := advice.Recommendations[i].ProductSlug; slug != "" && !known[slug] {
			s.logger.Warn("advice referenced unknown product", "slug", slug)
			advice.Recommendations[i].ProductSlug = ""
		}
	}

	metrics.AIRequest("advice", "success", &advice.Usage)

	s.logger.Info("design advice generated",
		"room_type", req.RoomType,
		"light", req.LightExposure,
		"recommendations", len(advice.Recommendations),
		"input_tokens", advice.Usage.InputTokens,
		"output_tokens", advice.Usage.OutputTokens,
	)

	return advice, nil
}

func normalizeColors(colors []string) []string {
	out := make([]string, 0, len(colors))
	for _, c := range colors {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// Mockup
// =============================================================================

// Mockup implements DesignService.
func (s *designService) Mockup(ctx context.Context, req MockupRequest) (*MockupOutput, error) {
	const op = "design.mockup"

	if len(req.RoomImage) == 0 {
		return nil, domain.Invalid(op, "room photo is required")
	}
	if len(req.RoomImage) > MaxRoomPhotoSize {
		return nil, domain.TooLarge(op, "room photo must be 10MB or smaller")
	}
	contentType := storage.SniffImageType(req.RoomImage)
	if !storage.IsAllowedImageType(contentType) {
		return nil, domain.Invalid(op, "room photo must be a JPEG, PNG or GIF image")
	}

	product, err := s.catalog.Get(ctx, req.ProductSlug)
	if err != nil {
		return nil, err
	}

	color := strings.ToLower(strings.TrimSpace(req.Color))
	if color == "" {
		color = product.DefaultColor()
	} else if !product.HasColor(color) {
		return nil, domain.Invalid(op, fmt.Sprintf("%s is not available in %s", product.Name, color))
	}

	fabric := s.loadFabric(ctx, product)

	result, err := s.mockups.GenerateMockup(ctx, ai.MockupParams{
		RoomImage:       req.RoomImage,
		RoomContentType: contentType,
		FabricImage:     fabric,
		Color:           color,
	})
	if err != nil {
		metrics.AIRequest("mockup", "error", nil)
		return nil, mapAIError(err, op)
	}

	key := storage.MockupKey()
	if err := s.storage.Put(ctx, key, bytes.NewReader(result.Image), storage.PutOptions{
		ContentType:  result.ContentType,
		CacheControl: "private, max-age=3600",
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to store mockup")
	}

	url, err := s.storage.URL(ctx, key, MockupURLExpiry)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create mockup URL")
	}

	metrics.AIRequest("mockup", "success", nil)

	s.logger.Info("mockup generated",
		"product", product.Slug,
		"color", color,
		"key", key,
		"width", result.Width,
		"height", result.Height,
		"duration_ms", result.Duration.Milliseconds(),
	)

	return &MockupOutput{
		Key:     key,
		URL:     url,
		Product: product,
		Color:   color,
		Width:   result.Width,
		Height:  result.Height,
	}, nil
}

// loadFabric reads the product swatch. A missing swatch is not fatal; the
// mockup falls back to a flat panel in the chosen colour.
func (s *designService) loadFabric(ctx context.Context, product *domain.Product) []byte {
	key := product.ImageKey
	if key == "" {
		key = storage.FabricKey(product.Slug)
	}

	rc, _, err := s.storage.Get(ctx, key)
	if err != nil {
		if !storage.IsNotFound(err) {
			s.logger.Warn("failed to load fabric swatch", "key", key, "error", err)
		}
		return nil
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxFabricSize+1))
	if err != nil {
		s.logger.Warn("failed to read fabric swatch", "key", key, "error", err)
		return nil
	}
	if len(data) > maxFabricSize {
		s.logger.Warn("fabric swatch too large, using flat colour",
			"key", key,
			"limit_bytes", maxFabricSize,
		)
		return nil
	}
	return data
}

// mapAIError converts provider errors into domain errors.
func mapAIError(err error, op string) error {
	switch {
	case errors.Is(err, ai.EAIInvalidImage):
		return domain.Invalid(op, "the photo could not be processed, try a different image")
	case errors.Is(err, ai.EAIRateLimit), errors.Is(err, ai.EAIUnavailable), errors.Is(err, ai.EAITimeout):
		return domain.Unavailable(err, op, "the design assistant is busy, please try again in a minute")
	case errors.Is(err, ai.EAIUnauthorized):
		return domain.Wrap(err, domain.EMISCONFIGURED, op, "design assistant is not configured")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domain.Unavailable(err, op, "the design assistant took too long, please try again")
	default:
		return domain.Internal(err, op, "failed to generate design")
	}
}
