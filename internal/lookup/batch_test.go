package lookup

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nexconsult/nfe-regime/internal/config"
	"github.com/nexconsult/nfe-regime/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const sampleKey = "51250501624149000538550010001098421003295263"

type MockRegimeResolver struct {
	mock.Mock
}

func (m *MockRegimeResolver) Resolve(ctx context.Context, cnpj string) models.Regime {
	args := m.Called(ctx, cnpj)
	return args.Get(0).(models.Regime)
}

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 5, 10, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.Advance(d)
	return ctx.Err()
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestBatch(resolver RegimeResolver, clock *fakeClock, maxKeys int) *BatchResolver {
	cfg := config.BatchConfig{MaxKeys: maxKeys, RateLimitInterval: 4 * time.Second}
	return NewBatchResolver(resolver, cfg, testLogger(), WithClock(clock.Now, clock.Sleep))
}

func keyWithCNPJ(cnpj string) string {
	return sampleKey[:6] + cnpj + sampleKey[20:]
}

func TestBatchResolver_Run(t *testing.T) {
	t.Run("should reject a batch over the limit without any lookup", func(t *testing.T) {
		resolver := new(MockRegimeResolver)
		batch := newTestBatch(resolver, newFakeClock(), 400)

		keys := make([]string, 401)
		for i := range keys {
			keys[i] = sampleKey
		}

		result, err := batch.Run(context.Background(), keys, nil)

		assert.Nil(t, result)
		var tooLarge *BatchTooLargeError
		require.ErrorAs(t, err, &tooLarge)
		assert.Equal(t, 401, tooLarge.Count)
		assert.Equal(t, 400, tooLarge.Max)
		resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
	})

	t.Run("should not count blank lines against the limit", func(t *testing.T) {
		resolver := new(MockRegimeResolver)
		resolver.On("Resolve", mock.Anything, "01624149000538").Return(models.SIMEI())
		batch := newTestBatch(resolver, newFakeClock(), 2)

		result, err := batch.Run(context.Background(), []string{sampleKey, "", "  ", sampleKey}, nil)

		require.NoError(t, err)
		assert.Equal(t, 2, result.Total)
	})

	t.Run("should resolve a valid key end to end", func(t *testing.T) {
		resolver := new(MockRegimeResolver)
		resolver.On("Resolve", mock.Anything, "01624149000538").Return(models.RegimeNormalOutros()).Once()
		batch := newTestBatch(resolver, newFakeClock(), 400)

		result, err := batch.Run(context.Background(), []string{sampleKey}, nil)

		require.NoError(t, err)
		require.Len(t, result.Rows, 1)
		row := result.Rows[0]
		assert.Equal(t, sampleKey, row.ChaveAcesso)
		assert.Equal(t, "01624149000538", row.CNPJ)
		assert.Equal(t, "Regime Normal / Outros", row.Regime.String())
		assert.Equal(t, 1, result.Valid)
		resolver.AssertExpectations(t)
	})

	t.Run("should emit sentinel rows for invalid keys without calling the resolver", func(t *testing.T) {
		resolver := new(MockRegimeResolver)
		batch := newTestBatch(resolver, newFakeClock(), 400)

		invalid := []string{
			"123",
			sampleKey + "0",
			sampleKey[:43] + "X",
			"5125 0501624149000538550010001098421003295263",
		}
		result, err := batch.Run(context.Background(), invalid, nil)

		require.NoError(t, err)
		require.Len(t, result.Rows, len(invalid))
		for i, row := range result.Rows {
			assert.Equal(t, strings.TrimSpace(invalid[i]), row.ChaveAcesso)
			assert.Equal(t, models.LabelInvalidKey, row.UF)
			assert.Equal(t, models.LabelInvalidKey, row.Regime.String())
		}
		assert.Equal(t, 4, result.Invalid)
		resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
	})

	t.Run("should keep input order across valid and invalid keys", func(t *testing.T) {
		resolver := new(MockRegimeResolver)
		resolver.On("Resolve", mock.Anything, "11111111000111").Return(models.SIMEI()).Once()
		resolver.On("Resolve", mock.Anything, "22222222000122").Return(models.NotFound()).Once()
		batch := newTestBatch(resolver, newFakeClock(), 400)

		result, err := batch.Run(context.Background(), []string{
			keyWithCNPJ("11111111000111"),
			"bad",
			keyWithCNPJ("22222222000122"),
		}, nil)

		require.NoError(t, err)
		require.Len(t, result.Rows, 3)
		assert.Equal(t, models.SIMEI(), result.Rows[0].Regime)
		assert.Equal(t, models.InvalidKey(), result.Rows[1].Regime)
		assert.Equal(t, models.NotFound(), result.Rows[2].Regime)
	})

	t.Run("should sleep only the shortfall against the pacing schedule", func(t *testing.T) {
		clock := newFakeClock()
		lookups := []time.Duration{1 * time.Second, 6 * time.Second, 1 * time.Second}
		call := 0

		resolver := new(MockRegimeResolver)
		resolver.On("Resolve", mock.Anything, mock.Anything).Return(models.SIMEI()).Run(func(mock.Arguments) {
			clock.Advance(lookups[call])
			call++
		})
		batch := newTestBatch(resolver, clock, 400)

		_, err := batch.Run(context.Background(), []string{sampleKey, sampleKey, sampleKey}, nil)

		require.NoError(t, err)
		// key 1 is due at 4s (now 1s), key 2 at 8s (now 10s)
		assert.Equal(t, []time.Duration{3 * time.Second}, clock.sleeps)
	})

	t.Run("should pace invalid keys too", func(t *testing.T) {
		clock := newFakeClock()
		batch := newTestBatch(new(MockRegimeResolver), clock, 400)

		_, err := batch.Run(context.Background(), []string{"a", "b", "c"}, nil)

		require.NoError(t, err)
		assert.Equal(t, []time.Duration{4 * time.Second, 4 * time.Second}, clock.sleeps)
	})

	t.Run("should report progress after every key", func(t *testing.T) {
		clock := newFakeClock()
		batch := newTestBatch(new(MockRegimeResolver), clock, 400)

		var got []Progress
		_, err := batch.Run(context.Background(), []string{"a", "b", "c"}, func(p Progress) {
			got = append(got, p)
		})

		require.NoError(t, err)
		require.Len(t, got, 3)
		for i, p := range got {
			assert.Equal(t, i, p.Index)
			assert.Equal(t, 3, p.Total)
			assert.Equal(t, time.Duration(i)*4*time.Second, p.Elapsed)
		}
	})

	t.Run("should stop when the context is cancelled", func(t *testing.T) {
		clock := newFakeClock()
		ctx, cancel := context.WithCancel(context.Background())

		resolver := new(MockRegimeResolver)
		resolver.On("Resolve", mock.Anything, mock.Anything).Return(models.SIMEI()).Run(func(mock.Arguments) {
			cancel()
		})
		batch := newTestBatch(resolver, clock, 400)

		result, err := batch.Run(ctx, []string{sampleKey, sampleKey}, nil)

		assert.Nil(t, result)
		assert.True(t, errors.Is(err, context.Canceled))
		resolver.AssertNumberOfCalls(t, "Resolve", 1)
	})
}

// recordingResolver tracks how many lookups overlap and when each one starts
type recordingResolver struct {
	mu       sync.Mutex
	starts   []time.Time
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (r *recordingResolver) Resolve(ctx context.Context, cnpj string) models.Regime {
	n := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		seen := r.maxSeen.Load()
		if n <= seen || r.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	r.mu.Lock()
	r.starts = append(r.starts, time.Now())
	r.mu.Unlock()

	time.Sleep(5 * time.Millisecond)
	return models.SIMEI()
}

func TestBatchResolver_ConcurrentRuns(t *testing.T) {
	t.Run("should keep one lookup in flight and the interval across runs", func(t *testing.T) {
		const interval = 40 * time.Millisecond
		resolver := &recordingResolver{}
		cfg := config.BatchConfig{MaxKeys: 400, RateLimitInterval: interval}
		batch := NewBatchResolver(resolver, cfg, testLogger())

		var wg sync.WaitGroup
		errs := make(chan error, 3)
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				result, err := batch.Run(context.Background(), []string{sampleKey, sampleKey}, nil)
				if err == nil && result.Total != 2 {
					err = errors.New("unexpected row count")
				}
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}
		assert.Equal(t, int32(1), resolver.maxSeen.Load())
		require.Len(t, resolver.starts, 6)
		for i := 1; i < len(resolver.starts); i++ {
			gap := resolver.starts[i].Sub(resolver.starts[i-1])
			assert.GreaterOrEqual(t, gap, interval-time.Millisecond, "gap before lookup %d", i)
		}
	})

	t.Run("should give up waiting for the slot when the context ends", func(t *testing.T) {
		clock := newFakeClock()
		batch := newTestBatch(new(MockRegimeResolver), clock, 400)
		batch.slot <- struct{}{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := batch.Run(ctx, []string{"a"}, nil)

		assert.Nil(t, result)
		assert.True(t, errors.Is(err, context.Canceled))
	})

	t.Run("should pace a run against the previous one", func(t *testing.T) {
		clock := newFakeClock()
		batch := newTestBatch(new(MockRegimeResolver), clock, 400)

		_, err := batch.Run(context.Background(), []string{"a"}, nil)
		require.NoError(t, err)
		clock.Advance(time.Second)
		_, err = batch.Run(context.Background(), []string{"b"}, nil)

		require.NoError(t, err)
		assert.Equal(t, []time.Duration{3 * time.Second}, clock.sleeps)
	})
}

func TestSplitKeys(t *testing.T) {
	text := "  " + sampleKey + "  \r\n\n\t\n123\n"
	assert.Equal(t, []string{sampleKey, "123"}, SplitKeys(text))
	assert.Empty(t, SplitKeys("\n \n"))
}

func TestProgress_Remaining(t *testing.T) {
	p := Progress{Index: 1, Total: 5, Elapsed: 8 * time.Second}
	assert.Equal(t, 2, p.Processed())
	assert.Equal(t, 12*time.Second, p.Remaining())

	last := Progress{Index: 4, Total: 5, Elapsed: 20 * time.Second}
	assert.Equal(t, time.Duration(0), last.Remaining())
}

func TestBatchTooLargeError(t *testing.T) {
	err := &BatchTooLargeError{Count: 401, Max: 400}
	assert.Equal(t, "batch too large: 401 keys, maximum is 400", err.Error())
}
