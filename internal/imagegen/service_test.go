package imagegen

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dreamscape/internal/catalog"
	"dreamscape/internal/domain"
	"dreamscape/internal/matcher"
)

type memoryCache struct {
	mu    sync.Mutex
	byKey map[string]string
	byID  map[string]Generation
	fail  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{byKey: map[string]string{}, byID: map[string]Generation{}}
}

func (c *memoryCache) Get(_ context.Context, key string) (*Generation, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return nil, false, c.fail
	}
	id, ok := c.byKey[key]
	if !ok {
		return nil, false, nil
	}
	gen := c.byID[id]
	return &gen, true, nil
}

func (c *memoryCache) GetByID(_ context.Context, id string) (*Generation, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen, ok := c.byID[id]
	if !ok {
		return nil, false, nil
	}
	return &gen, true, nil
}

func (c *memoryCache) Put(_ context.Context, key string, gen *Generation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey[key] = gen.ID
	c.byID[gen.ID] = *gen
	return nil
}

type countingRecorder struct {
	mu          sync.Mutex
	matches     map[string]int
	generations map[string]int
	cacheHits   int
	cacheMisses int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{matches: map[string]int{}, generations: map[string]int{}}
}

func (r *countingRecorder) ObserveMatch(category string, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches[category]++
}

func (r *countingRecorder) ObserveGeneration(status string, _ int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generations[status]++
}

func (r *countingRecorder) ObserveCache(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.cacheHits++
	} else {
		r.cacheMisses++
	}
}

func (r *countingRecorder) ObserveDownload(string, int) {}

func newTestService(t *testing.T, opts Options) *Service {
	t.Helper()
	m, err := matcher.New(catalog.Default())
	require.NoError(t, err)
	if opts.BaseURL == "" {
		opts.BaseURL = "https://img.test/"
	}
	if opts.Seeds == nil {
		opts.Seeds = matcher.Locked(rand.New(rand.NewPCG(1, 2)))
	}
	opts.Logger = zerolog.Nop()
	return NewService(m, opts)
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in     string
		w, h   int
		wantOK bool
	}{
		{in: "512x512", w: 512, h: 512, wantOK: true},
		{in: " 1024X576 ", w: 1024, h: 576, wantOK: true},
		{in: "576x1024", w: 576, h: 1024, wantOK: true},
		{in: "512", wantOK: false},
		{in: "0x512", wantOK: false},
		{in: "ax512", wantOK: false},
		{in: "512x-1", wantOK: false},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			w, h, err := ParseSize(tc.in)
			if !tc.wantOK {
				assert.ErrorIs(t, err, domain.ErrInvalidSize)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.w, w)
			assert.Equal(t, tc.h, h)
		})
	}
}

func TestEverySizeOptionParses(t *testing.T) {
	for _, s := range Sizes {
		_, _, err := ParseSize(s.Value)
		assert.NoError(t, err, s.Value)
	}
}

func TestBuildURL(t *testing.T) {
	assert.Equal(t, "https://picsum.photos/id/29/512/768?random=123",
		BuildURL("https://picsum.photos/", 29, 512, 768, 123))
}

func TestNormalizeAppliesDefaults(t *testing.T) {
	req := GenerateRequest{Prompt: "  forest  ", Size: " 768X768 "}.Normalize()
	assert.Equal(t, "forest", req.Prompt)
	assert.Equal(t, Models[0].Value, req.Model)
	assert.Equal(t, "768x768", req.Size)
	assert.Equal(t, 1, req.NumImages)
}

func TestValidateMapsToDomainErrors(t *testing.T) {
	valid := GenerateRequest{Prompt: "forest"}.Normalize()
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(r *GenerateRequest)
		want   error
	}{
		{name: "blank prompt", mutate: func(r *GenerateRequest) { r.Prompt = "" }, want: domain.ErrInvalidPrompt},
		{name: "huge prompt", mutate: func(r *GenerateRequest) { r.Prompt = strings.Repeat("a", 2001) }, want: domain.ErrInvalidPrompt},
		{name: "unknown model", mutate: func(r *GenerateRequest) { r.Model = "dall-e" }, want: domain.ErrUnsupportedModel},
		{name: "unknown size", mutate: func(r *GenerateRequest) { r.Size = "640x480" }, want: domain.ErrInvalidSize},
		{name: "too many images", mutate: func(r *GenerateRequest) { r.NumImages = MaxImages + 1 }, want: domain.ErrInvalidRequest},
		{name: "negative images", mutate: func(r *GenerateRequest) { r.NumImages = -1 }, want: domain.ErrInvalidRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			err := req.Validate()
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, IsClientError(err))
		})
	}
}

func TestKeyDependsOnEveryParameter(t *testing.T) {
	base := GenerateRequest{Prompt: "forest", NegativePrompt: "blurry", Model: Models[0].Value, Size: Sizes[0].Value, NumImages: 2}
	assert.Equal(t, base.Key(), base.Key())

	variants := []GenerateRequest{base, base, base, base, base}
	variants[0].Prompt = "forests"
	variants[1].NegativePrompt = ""
	variants[2].Model = Models[1].Value
	variants[3].Size = Sizes[1].Value
	variants[4].NumImages = 3
	for i, v := range variants {
		assert.NotEqual(t, base.Key(), v.Key(), "variant %d", i)
	}
}

func TestGenerateComposesImages(t *testing.T) {
	rec := newCountingRecorder()
	svc := newTestService(t, Options{Metrics: rec})

	gen, err := svc.Generate(context.Background(), GenerateRequest{
		Prompt:    "a serene mountain landscape",
		Size:      "768x768",
		NumImages: 3,
	})
	require.NoError(t, err)
	require.Len(t, gen.Images, 3)
	assert.NotEmpty(t, gen.ID)
	assert.False(t, gen.Cached)

	seenIDs := map[string]bool{}
	for _, img := range gen.Images {
		assert.Equal(t, 29, img.ImageID)
		assert.Equal(t, "nature", img.Category)
		assert.False(t, img.Fallback)
		assert.Equal(t, 768, img.Width)
		assert.Equal(t, 768, img.Height)
		assert.Equal(t, "a serene mountain landscape", img.Prompt)
		assert.GreaterOrEqual(t, img.Seed, 0)
		assert.Less(t, img.Seed, maxSeed)
		assert.Equal(t, BuildURL("https://img.test", 29, 768, 768, img.Seed), img.URL)
		assert.True(t, strings.HasPrefix(img.URL, "https://img.test/id/29/768/768?random="))
		assert.False(t, seenIDs[img.ID])
		seenIDs[img.ID] = true
	}
	assert.Equal(t, 3, rec.matches["nature"])
	assert.Equal(t, 1, rec.generations["success"])
}

func TestGenerateFallbackStaysInCatalog(t *testing.T) {
	svc := newTestService(t, Options{})
	gen, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "12345 !!!", NumImages: 4})
	require.NoError(t, err)
	for _, img := range gen.Images {
		assert.True(t, img.Fallback)
		assert.True(t, svc.Matcher().Catalog().Contains(img.ImageID))
	}
}

func TestGenerateSeededBatchIsReproducible(t *testing.T) {
	urls := func() []string {
		src := matcher.Locked(rand.New(rand.NewPCG(42, 42)))
		m, err := matcher.New(catalog.Default(), matcher.WithRand(src))
		require.NoError(t, err)
		svc := NewService(m, Options{BaseURL: "https://img.test", Seeds: src, Logger: zerolog.Nop()})
		gen, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "12345 ###", NumImages: 4})
		require.NoError(t, err)
		out := make([]string, 0, len(gen.Images))
		for _, img := range gen.Images {
			require.True(t, img.Fallback)
			out = append(out, img.URL)
		}
		return out
	}
	first := urls()
	for i := 0; i < 50; i++ {
		require.Equal(t, first, urls(), "run %d", i)
	}
}

func TestGenerateRejectsInvalidRequest(t *testing.T) {
	rec := newCountingRecorder()
	svc := newTestService(t, Options{Metrics: rec})
	_, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidPrompt)
	assert.Equal(t, 1, rec.generations["invalid"])
}

func TestGenerateHonorsCancellation(t *testing.T) {
	svc := newTestService(t, Options{Latency: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := svc.Generate(ctx, GenerateRequest{Prompt: "forest"})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestGenerateWaitsSimulatedLatency(t *testing.T) {
	svc := newTestService(t, Options{Latency: 30 * time.Millisecond})
	start := time.Now()
	_, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "forest"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestGenerateUsesCache(t *testing.T) {
	cache := newMemoryCache()
	rec := newCountingRecorder()
	svc := newTestService(t, Options{Cache: cache, Metrics: rec})
	ctx := context.Background()
	req := GenerateRequest{Prompt: "futuristic robot city", NumImages: 2}

	first, err := svc.Generate(ctx, req)
	require.NoError(t, err)
	second, err := svc.Generate(ctx, GenerateRequest{Prompt: "  futuristic robot city ", NumImages: 2})
	require.NoError(t, err)

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Images, second.Images)
	assert.Equal(t, 1, rec.cacheHits)
	assert.Equal(t, 1, rec.cacheMisses)

	found, err := svc.Lookup(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Images, found.Images)

	_, err = svc.Lookup(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGenerateSurvivesCacheErrors(t *testing.T) {
	cache := newMemoryCache()
	cache.fail = errors.New("boom")
	svc := newTestService(t, Options{Cache: cache})

	gen, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "forest"})
	require.NoError(t, err)
	assert.Len(t, gen.Images, 1)
}

func TestLookupWithoutCache(t *testing.T) {
	svc := newTestService(t, Options{})
	_, err := svc.Lookup(context.Background(), "anything")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExplain(t *testing.T) {
	rec := newCountingRecorder()
	svc := newTestService(t, Options{Metrics: rec})
	res := svc.Explain("futuristic robot city")
	assert.Equal(t, "technology", res.Category)
	assert.Equal(t, 1, rec.matches["technology"])
}

func TestGeneratedImageFilename(t *testing.T) {
	assert.Equal(t, "image-4711.jpg", GeneratedImage{Seed: 4711}.Filename())
}
