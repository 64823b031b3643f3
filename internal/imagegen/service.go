package imagegen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"dreamscape/internal/domain"
	"dreamscape/internal/matcher"
	"dreamscape/internal/metrics"
)

// Options configures a Service. Zero values fall back to sensible defaults.
type Options struct {
	BaseURL string
	// Latency is how long every uncached generation pretends to take.
	Latency time.Duration
	Cache   Cache
	Metrics metrics.Recorder
	Logger  zerolog.Logger
	// Seeds draws the per-image seed. It must be safe for concurrent use.
	Seeds matcher.Source
}

// Service simulates an image generation backend by matching prompts to
// curated stock images.
type Service struct {
	matcher *matcher.Matcher
	baseURL string
	latency time.Duration
	cache   Cache
	metrics metrics.Recorder
	logger  zerolog.Logger
	seeds   matcher.Source
}

// NewService wires a Service around m.
func NewService(m *matcher.Matcher, opts Options) *Service {
	s := &Service{
		matcher: m,
		baseURL: opts.BaseURL,
		latency: opts.Latency,
		cache:   opts.Cache,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		seeds:   opts.Seeds,
	}
	if s.baseURL == "" {
		s.baseURL = "https://picsum.photos"
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop{}
	}
	if s.seeds == nil {
		s.seeds = matcher.Global()
	}
	return s
}

// Matcher returns the prompt matcher used by the service.
func (s *Service) Matcher() *matcher.Matcher {
	return s.matcher
}

// Generate validates req, waits out the simulated latency and returns one
// placeholder image per requested image. Identical requests are served from
// the cache when one is configured.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*Generation, error) {
	start := time.Now()
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		s.metrics.ObserveGeneration("invalid", 0, time.Since(start))
		return nil, err
	}
	width, height, err := ParseSize(req.Size)
	if err != nil {
		s.metrics.ObserveGeneration("invalid", 0, time.Since(start))
		return nil, err
	}

	key := req.Key()
	if s.cache != nil {
		gen, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn().Err(err).Msg("generation cache lookup failed")
		}
		s.metrics.ObserveCache(ok)
		if ok {
			gen.Cached = true
			s.metrics.ObserveGeneration("cached", len(gen.Images), time.Since(start))
			return gen, nil
		}
	}

	if err := s.simulateLatency(ctx); err != nil {
		s.metrics.ObserveGeneration("canceled", 0, time.Since(start))
		return nil, err
	}

	// Images are composed in index order so a seeded source yields the same
	// batch every time.
	images := make([]GeneratedImage, req.NumImages)
	for i := range images {
		if err := ctx.Err(); err != nil {
			s.metrics.ObserveGeneration("canceled", 0, time.Since(start))
			return nil, err
		}
		images[i] = s.composeImage(req.Prompt, width, height)
	}

	gen := &Generation{
		ID:        uuid.NewString(),
		Request:   req,
		Images:    images,
		CreatedAt: time.Now().UTC(),
	}
	if s.cache != nil {
		if err := s.cache.Put(ctx, key, gen); err != nil {
			s.logger.Warn().Err(err).Str("generation_id", gen.ID).Msg("generation cache store failed")
		}
	}

	s.metrics.ObserveGeneration("success", len(images), time.Since(start))
	s.logger.Info().
		Str("generation_id", gen.ID).
		Int("images", len(images)).
		Str("model", req.Model).
		Str("size", req.Size).
		Dur("elapsed", time.Since(start)).
		Msg("generation completed")
	return gen, nil
}

// Lookup returns a previously produced generation by its ID.
func (s *Service) Lookup(ctx context.Context, id string) (*Generation, error) {
	if s.cache == nil {
		return nil, fmt.Errorf("generation %s: %w", id, domain.ErrNotFound)
	}
	gen, ok, err := s.cache.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup generation %s: %w", id, err)
	}
	if !ok {
		return nil, fmt.Errorf("generation %s: %w", id, domain.ErrNotFound)
	}
	return gen, nil
}

// Explain runs the matcher on prompt and reports the diagnostics.
func (s *Service) Explain(prompt string) matcher.Result {
	res := s.matcher.Match(prompt)
	s.metrics.ObserveMatch(res.Category, res.Fallback)
	return res
}

func (s *Service) composeImage(prompt string, width, height int) GeneratedImage {
	res := s.matcher.Match(prompt)
	s.metrics.ObserveMatch(res.Category, res.Fallback)
	s.logger.Debug().
		Int("image_id", res.ImageID).
		Str("category", res.Category).
		Bool("fallback", res.Fallback).
		Interface("top", res.Top(3)).
		Msg("prompt matched")

	seed := s.seeds.IntN(maxSeed)
	return GeneratedImage{
		ID:       uuid.NewString(),
		URL:      BuildURL(s.baseURL, res.ImageID, width, height, seed),
		Prompt:   prompt,
		Seed:     seed,
		ImageID:  res.ImageID,
		Category: res.Category,
		Fallback: res.Fallback,
		Width:    width,
		Height:   height,
	}
}

func (s *Service) simulateLatency(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsClientError reports whether err stems from an invalid request.
func IsClientError(err error) bool {
	return errors.Is(err, domain.ErrInvalidPrompt) ||
		errors.Is(err, domain.ErrInvalidSize) ||
		errors.Is(err, domain.ErrUnsupportedModel) ||
		errors.Is(err, domain.ErrInvalidRequest)
}
