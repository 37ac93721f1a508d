package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nexconsult/nfe-regime/internal/config"
	"github.com/nexconsult/nfe-regime/internal/logger"
	"github.com/nexconsult/nfe-regime/internal/models"
	"github.com/nexconsult/nfe-regime/internal/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// CacheKeyPrefix namespaces regime entries in the cache
const CacheKeyPrefix = "regime:"

// CacheKey returns the cache key of a CNPJ
func CacheKey(cnpj string) string {
	return CacheKeyPrefix + cnpj
}

// unhealthyAfter is the number of consecutive failed lookups that marks the registry unhealthy
const unhealthyAfter = 3

// Cache stores regime labels by key
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
}

// Client resolves the tax regime of a CNPJ through the registry API
type Client struct {
	baseURL       string
	userAgent     string
	maxRetries    int
	retryDelay    time.Duration
	maxRetryDelay time.Duration

	httpClient *http.Client
	cache      Cache
	sleep      utils.SleepFunc
	logger     *logrus.Logger

	// slot admits one lookup at a time, limiter spaces the requests it sends
	slot    chan struct{}
	limiter *rate.Limiter

	requests      atomic.Int64
	throttled     atomic.Int64
	cacheHits     atomic.Int64
	failures      atomic.Int64
	lastThrottled atomic.Bool
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCache enables caching of definitive results
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithSleep replaces the function used to wait between throttled attempts
func WithSleep(sleep utils.SleepFunc) Option {
	return func(c *Client) { c.sleep = sleep }
}

// WithPacing spaces registry requests at least interval apart, process-wide
func WithPacing(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.limiter = rate.NewLimiter(rate.Every(interval), 1)
		}
	}
}

// NewClient creates a registry client
func NewClient(cfg config.RegistryConfig, logger *logrus.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:     cfg.UserAgent,
		maxRetries:    cfg.MaxRetries,
		retryDelay:    cfg.RetryDelay,
		maxRetryDelay: cfg.MaxRetryDelay,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		sleep:         utils.Sleep,
		logger:        logger,
		slot:          make(chan struct{}, 1),
		limiter:       rate.NewLimiter(rate.Inf, 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.maxRetryDelay < c.retryDelay {
		c.maxRetryDelay = c.retryDelay
	}

	return c
}

type officeResponse struct {
	Company struct {
		Simei   optState `json:"simei"`
		Simples optState `json:"simples"`
	} `json:"company"`
}

type optState struct {
	Optant bool `json:"optant"`
}

// Resolve classifies the tax regime of a normalized 14-digit CNPJ.
// Failures are returned as classifications, never as errors.
func (c *Client) Resolve(ctx context.Context, cnpj string) models.Regime {
	if !utils.IsWellFormedCNPJ(cnpj) {
		return models.InvalidCNPJ()
	}

	log := logger.WithComponent(c.logger, "registry").WithField("cnpj", cnpj)

	if regime, ok := c.cached(ctx, cnpj); ok {
		c.cacheHits.Add(1)
		log.WithField("regime", regime.String()).Debug("Regime found in cache")
		return regime
	}

	start := time.Now()
	regime := c.lookup(ctx, cnpj, log)
	if ctx.Err() == nil {
		c.record(regime)
	}

	log.WithFields(logrus.Fields{
		"regime":   regime.String(),
		"duration": time.Since(start),
	}).Debug("Regime lookup completed")

	if regime.Definitive() && c.cache != nil {
		if err := c.cache.Set(ctx, CacheKey(cnpj), regime.String()); err != nil {
			log.WithError(err).Warn("Failed to cache regime")
		}
	}

	return regime
}

func (c *Client) cached(ctx context.Context, cnpj string) (models.Regime, bool) {
	if c.cache == nil {
		return models.Regime{}, false
	}

	label, err := c.cache.Get(ctx, CacheKey(cnpj))
	if err != nil {
		return models.Regime{}, false
	}

	regime, err := models.ParseRegime(label)
	if err != nil || !regime.Definitive() {
		return models.Regime{}, false
	}
	return regime, true
}

func (c *Client) lookup(ctx context.Context, cnpj string, log *logrus.Entry) models.Regime {
	select {
	case c.slot <- struct{}{}:
	case <-ctx.Done():
		return classifyError(ctx.Err())
	}
	defer func() { <-c.slot }()

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return classifyError(ctxErr)
			}
			// the next slot is past the deadline
			return models.Timeout()
		}

		resp, err := c.do(ctx, cnpj)
		if err != nil {
			log.WithError(err).Warn("Registry request failed")
			return classifyError(err)
		}

		switch resp.StatusCode {
		case http.StatusOK:
			defer resp.Body.Close()
			return decodeRegime(resp.Body)

		case http.StatusTooManyRequests:
			retryAfter := resp.Header.Get("Retry-After")
			drain(resp.Body)
			c.throttled.Add(1)

			if attempt >= c.maxRetries {
				log.WithField("attempts", attempt+1).Error("Registry still throttling, giving up")
				return models.Throttled()
			}

			wait := c.backoff(attempt, retryAfter)
			log.WithFields(logrus.Fields{
				"attempt": attempt + 1,
				"wait":    wait,
			}).Warn("Registry rate limit hit, retrying")

			if err := c.sleep(ctx, wait); err != nil {
				return classifyError(err)
			}

		case http.StatusNotFound:
			drain(resp.Body)
			return models.NotFound()

		default:
			drain(resp.Body)
			log.WithField("status", resp.StatusCode).Warn("Unexpected registry status")
			return models.APIError(resp.StatusCode)
		}
	}
}

func (c *Client) do(ctx context.Context, cnpj string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+cnpj, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.requests.Add(1)
	return c.httpClient.Do(req)
}

// backoff doubles the retry delay per attempt, capped at maxRetryDelay.
// A larger Retry-After (in seconds) from the server wins, even above the cap.
func (c *Client) backoff(attempt int, retryAfter string) time.Duration {
	wait := c.retryDelay
	for i := 0; i < attempt && wait < c.maxRetryDelay; i++ {
		wait *= 2
	}
	if wait > c.maxRetryDelay {
		wait = c.maxRetryDelay
	}

	if secs, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil {
		if d := time.Duration(secs) * time.Second; d > wait {
			wait = d
		}
	}
	return wait
}

// record tracks the outcome of a registry lookup for Health
func (c *Client) record(regime models.Regime) {
	switch regime.Kind {
	case models.RegimeTimeout, models.RegimeConnectionError, models.RegimeAPIError, models.RegimeUnexpectedError:
		c.failures.Add(1)
		c.lastThrottled.Store(false)
	case models.RegimeThrottled:
		c.lastThrottled.Store(true)
	default:
		c.failures.Store(0)
		c.lastThrottled.Store(false)
	}
}

// decodeRegime applies SIMEI > Simples Nacional > Regime Normal
func decodeRegime(body io.Reader) models.Regime {
	var data officeResponse
	if err := json.NewDecoder(body).Decode(&data); err != nil {
		return models.UnexpectedError(fmt.Sprintf("resposta inválida da API: %v", err))
	}

	switch {
	case data.Company.Simei.Optant:
		return models.SIMEI()
	case data.Company.Simples.Optant:
		return models.SimplesNacional()
	default:
		return models.RegimeNormalOutros()
	}
}

func classifyError(err error) models.Regime {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.Timeout()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.Timeout()
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return models.ConnectionError()
	}

	return models.UnexpectedError(err.Error())
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	body.Close()
}

// Health reports the registry unhealthy after repeated failed lookups
// and degraded while it is throttling
func (c *Client) Health() map[string]interface{} {
	failures := c.failures.Load()

	status := "healthy"
	switch {
	case failures >= unhealthyAfter:
		status = "unhealthy"
	case c.lastThrottled.Load():
		status = "degraded"
	}

	return map[string]interface{}{
		"status":               status,
		"consecutive_failures": failures,
		"base_url":        c.baseURL,
		"request_count":   c.requests.Load(),
		"throttled_count": c.throttled.Load(),
		"cache_hits":      c.cacheHits.Load(),
		"cache_enabled":   c.cache != nil,
		"max_retries":     c.maxRetries,
	}
}
