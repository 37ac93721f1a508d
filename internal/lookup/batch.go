package lookup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nexconsult/nfe-regime/internal/config"
	"github.com/nexconsult/nfe-regime/internal/models"
	"github.com/nexconsult/nfe-regime/internal/nfe"
	"github.com/nexconsult/nfe-regime/internal/utils"
	"github.com/sirupsen/logrus"
)

// RegimeResolver classifies the tax regime of a CNPJ
type RegimeResolver interface {
	Resolve(ctx context.Context, cnpj string) models.Regime
}

// BatchTooLargeError is returned when the input has more keys than allowed
type BatchTooLargeError struct {
	Count int
	Max   int
}

func (e *BatchTooLargeError) Error() string {
	return fmt.Sprintf("batch too large: %d keys, maximum is %d", e.Count, e.Max)
}

// Progress describes the state of a running batch after item Index
type Progress struct {
	Index   int
	Total   int
	Elapsed time.Duration
}

// Processed returns how many keys are done
func (p Progress) Processed() int {
	return p.Index + 1
}

// Remaining projects the time left from the average time per processed key
func (p Progress) Remaining() time.Duration {
	done := p.Processed()
	if done <= 0 || done >= p.Total {
		return 0
	}
	return p.Elapsed / time.Duration(done) * time.Duration(p.Total-done)
}

// ProgressFunc is called after every processed key
type ProgressFunc func(Progress)

// BatchResolver resolves the regime of every key of a batch, one at a time.
// Concurrent runs share one slot and one pacing schedule, so keys of all runs
// are processed one at a time and at least interval apart.
type BatchResolver struct {
	resolver RegimeResolver
	maxKeys  int
	interval time.Duration
	logger   *logrus.Logger

	slot chan struct{}
	// next is the earliest start of the next key, guarded by slot
	next time.Time

	now   func() time.Time
	sleep utils.SleepFunc
}

// Option configures a BatchResolver
type Option func(*BatchResolver)

// WithClock replaces time.Now and the pacing sleep
func WithClock(now func() time.Time, sleep utils.SleepFunc) Option {
	return func(b *BatchResolver) {
		b.now = now
		b.sleep = sleep
	}
}

// NewBatchResolver creates a batch resolver
func NewBatchResolver(resolver RegimeResolver, cfg config.BatchConfig, logger *logrus.Logger, opts ...Option) *BatchResolver {
	b := &BatchResolver{
		resolver: resolver,
		maxKeys:  cfg.MaxKeys,
		interval: cfg.RateLimitInterval,
		logger:   logger,
		slot:     make(chan struct{}, 1),
		now:      time.Now,
		sleep:    utils.Sleep,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// MaxKeys returns the batch size limit
func (b *BatchResolver) MaxKeys() int {
	return b.maxKeys
}

// SplitKeys splits newline-separated text into trimmed, non-empty keys
func SplitKeys(text string) []string {
	lines := strings.Split(text, "\n")
	keys := make([]string, 0, len(lines))
	for _, line := range lines {
		if key := strings.TrimSpace(line); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// Run produces one row per key, in input order.
// Each key starts no earlier than interval after the previous key of any run,
// so key i of a run starts no earlier than i*interval after the run start.
// A batch over the limit is rejected with *BatchTooLargeError before any lookup.
func (b *BatchResolver) Run(ctx context.Context, keys []string, progress ProgressFunc) (*models.BatchResult, error) {
	cleaned := make([]string, 0, len(keys))
	for _, key := range keys {
		if key = strings.TrimSpace(key); key != "" {
			cleaned = append(cleaned, key)
		}
	}

	if len(cleaned) > b.maxKeys {
		return nil, &BatchTooLargeError{Count: len(cleaned), Max: b.maxKeys}
	}

	total := len(cleaned)
	start := b.now()
	result := &models.BatchResult{
		Rows:      make([]models.ResultRow, 0, total),
		StartedAt: start,
	}

	b.logger.WithFields(logrus.Fields{
		"total":    total,
		"interval": b.interval,
	}).Info("Starting batch regime lookup")

	for i, key := range cleaned {
		row, err := b.processKey(ctx, key)
		if err != nil {
			return nil, err
		}
		result.Append(row)

		b.logger.WithFields(logrus.Fields{
			"index":  i,
			"total":  total,
			"valid":  row.Valid(),
			"regime": row.Regime.String(),
		}).Debug("Key processed")

		if progress != nil {
			progress(Progress{Index: i, Total: total, Elapsed: b.now().Sub(start)})
		}
	}

	result.FinishedAt = b.now()
	result.DurationMs = result.FinishedAt.Sub(start).Milliseconds()

	b.logger.WithFields(logrus.Fields{
		"total":    result.Total,
		"valid":    result.Valid,
		"invalid":  result.Invalid,
		"duration": result.FinishedAt.Sub(start),
	}).Info("Batch regime lookup completed")

	return result, nil
}

// processKey waits for the slot and the pacing schedule, then resolves one key
func (b *BatchResolver) processKey(ctx context.Context, key string) (models.ResultRow, error) {
	select {
	case b.slot <- struct{}{}:
	case <-ctx.Done():
		return models.ResultRow{}, ctx.Err()
	}
	defer func() { <-b.slot }()

	if wait := b.next.Sub(b.now()); wait > 0 {
		if err := b.sleep(ctx, wait); err != nil {
			return models.ResultRow{}, err
		}
	}
	if err := ctx.Err(); err != nil {
		return models.ResultRow{}, err
	}

	b.next = b.now().Add(b.interval)
	row := b.resolveKey(ctx, key)
	if err := ctx.Err(); err != nil {
		return models.ResultRow{}, err
	}
	return row, nil
}

func (b *BatchResolver) resolveKey(ctx context.Context, key string) models.ResultRow {
	if !nfe.IsValidKey(key) {
		return models.NewInvalidRow(key)
	}

	parsed := nfe.Parse(key)
	regime := b.resolver.Resolve(ctx, utils.CleanCNPJ(parsed.CNPJ))
	return models.NewResultRow(key, parsed, regime)
}
