package infra

import (
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"dreamscape/internal/matcher"
	"dreamscape/internal/middleware"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv               string
	Port                 string
	ImageBaseURL         string
	CatalogPath          string
	SimulatedLatency     time.Duration
	CacheTTL             time.Duration
	DownloadMaxBytes     int64
	DownloadTimeout      time.Duration
	ImageSourceAllowlist []string
	CORSAllowedOrigins   []string
	MatchWeights         matcher.Weights
	HTTPReadTimeout      time.Duration
	HTTPWriteTimeout     time.Duration
	HTTPIdleTimeout      time.Duration
	RateLimitPerMin      int
	// TrustedProxies lists the peers whose forwarding headers are honored.
	TrustedProxies []netip.Prefix
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	defaults := matcher.DefaultWeights()
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		ImageBaseURL:       strings.TrimRight(getEnv("IMAGE_BASE_URL", "https://picsum.photos"), "/"),
		CatalogPath:        os.Getenv("CATALOG_PATH"),
		SimulatedLatency:   time.Millisecond * time.Duration(getEnvInt("SIMULATED_LATENCY_MS", 3000)),
		CacheTTL:           time.Second * time.Duration(getEnvInt("CACHE_TTL_SECONDS", 900)),
		DownloadMaxBytes:   int64(getEnvInt("DOWNLOAD_MAX_BYTES", 20<<20)),
		DownloadTimeout:    time.Second * time.Duration(getEnvInt("DOWNLOAD_TIMEOUT_SECONDS", 30)),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:8080")),
		MatchWeights: matcher.Weights{
			ExactPrompt:   getEnvFloat("MATCH_WEIGHT_EXACT_PROMPT", defaults.ExactPrompt),
			PhraseBase:    getEnvFloat("MATCH_WEIGHT_PHRASE_BASE", defaults.PhraseBase),
			PhraseScale:   getEnvFloat("MATCH_WEIGHT_PHRASE_SCALE", defaults.PhraseScale),
			Word:          getEnvFloat("MATCH_WEIGHT_WORD", defaults.Word),
			Partial:       getEnvFloat("MATCH_WEIGHT_PARTIAL", defaults.Partial),
			Density:       getEnvFloat("MATCH_WEIGHT_DENSITY", defaults.Density),
			MinWordLen:    getEnvInt("MATCH_MIN_WORD_LEN", defaults.MinWordLen),
			PartialMinLen: getEnvInt("MATCH_PARTIAL_MIN_LEN", defaults.PartialMinLen),
		},
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	base, err := url.Parse(cfg.ImageBaseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("IMAGE_BASE_URL must be an absolute URL")
	}
	cfg.ImageSourceAllowlist = mergeHosts(base.Hostname(), splitList(os.Getenv("IMAGE_SOURCE_HOST_ALLOWLIST")))

	cfg.TrustedProxies, err = middleware.ParseTrustedProxies(splitList(os.Getenv("TRUSTED_PROXIES")))
	if err != nil {
		return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}

	if err := cfg.MatchWeights.Validate(); err != nil {
		return nil, err
	}
	if cfg.SimulatedLatency < 0 {
		return nil, fmt.Errorf("SIMULATED_LATENCY_MS must not be negative")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func mergeHosts(primary string, extra []string) []string {
	set := map[string]struct{}{strings.ToLower(primary): {}}
	for _, h := range extra {
		set[strings.ToLower(h)] = struct{}{}
	}
	hosts := make([]string, 0, len(set))
	for h := range set {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}
