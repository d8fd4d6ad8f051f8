package recommend

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recommendr/internal/similarity"
	"recommendr/internal/store"
)

// saveFailingStore rejects similarity writes for selected movies.
type saveFailingStore struct {
	*store.RedisStore
	fail map[int64]bool
}

func (f *saveFailingStore) SaveSimilarityScores(ctx context.Context, movieID int64, scores []store.Scored) error {
	if f.fail[movieID] {
		return errBoom
	}
	return f.RedisStore.SaveSimilarityScores(ctx, movieID, scores)
}

// stuckStore never answers movie comparisons until the caller gives up.
type stuckStore struct {
	*store.RedisStore
}

func (s *stuckStore) CommonRatingsForMovies(ctx context.Context, _, _ int64) ([]similarity.Pair, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func catalogRatings() ([]int64, []rating) {
	movies := []int64{1, 2, 3, 4, 5}
	ratings := []rating{
		{10, 1, 5}, {10, 2, 4}, {10, 3, 1}, {10, 4, 2}, {10, 5, 3},
		{11, 1, 4}, {11, 2, 5}, {11, 3, 2}, {11, 4, 1},
		{12, 1, 1}, {12, 3, 5}, {12, 5, 4},
	}
	return movies, ratings
}

func TestCalculateSimilarMovies(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"FewerMoviesThanN", 10, 4},
		{"TruncatedToN", 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newTestStore(t)
			movies, ratings := catalogRatings()
			seed(t, st, movies, ratings)

			p := NewPrecomputer(st, NewSimilarityService(st), quietLogger())
			report, err := p.CalculateSimilarMovies(context.Background(), BatchOptions{N: tt.n, Workers: 3})
			require.NoError(t, err)

			assert.Equal(t, len(movies), report.Movies)
			assert.Equal(t, len(movies), report.Saved)
			assert.Zero(t, report.Skipped)
			assert.Empty(t, report.Failed)
			assert.NotEmpty(t, report.RunID)

			for _, movieID := range movies {
				got, err := st.SimilarMovies(context.Background(), movieID, 0)
				require.NoError(t, err)
				assert.Len(t, got, tt.want, "movie %d", movieID)
				for i := 1; i < len(got); i++ {
					assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
				}
				for _, s := range got {
					assert.NotEqual(t, movieID, s.ID)
				}
			}
		})
	}
}

func TestCalculateSimilarMoviesMatchesClosestMovies(t *testing.T) {
	st := newTestStore(t)
	movies, ratings := catalogRatings()
	seed(t, st, movies, ratings)
	sims := NewSimilarityService(st)
	ctx := context.Background()

	_, err := NewPrecomputer(st, sims, quietLogger()).CalculateSimilarMovies(ctx, BatchOptions{
		N:          3,
		Similarity: similarity.Pearson,
	})
	require.NoError(t, err)

	want, err := sims.ClosestMovies(ctx, 1, 3, similarity.Pearson)
	require.NoError(t, err)
	got, err := st.SimilarMovies(ctx, 1, 0)
	require.NoError(t, err)

	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i].Score, got[i].Score, 1e-12)
	}
}

func TestCalculateSimilarMoviesLogsAndContinuesOnFailure(t *testing.T) {
	st := newTestStore(t)
	movies, ratings := catalogRatings()
	seed(t, st, movies, ratings)
	failing := &saveFailingStore{RedisStore: st, fail: map[int64]bool{2: true, 4: true}}

	p := NewPrecomputer(failing, NewSimilarityService(failing), quietLogger())
	report, err := p.CalculateSimilarMovies(context.Background(), BatchOptions{Workers: 2})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBatchIncomplete)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, []int64{2, 4}, report.FailedIDs())
	assert.Equal(t, 3, report.Saved)
	assert.Zero(t, report.Skipped)

	for _, movieID := range []int64{1, 3, 5} {
		got, err := st.SimilarMovies(context.Background(), movieID, 0)
		require.NoError(t, err)
		assert.NotEmpty(t, got, "movie %d", movieID)
	}
}

func TestCalculateSimilarMoviesTimeout(t *testing.T) {
	st := newTestStore(t)
	movies, ratings := catalogRatings()
	seed(t, st, movies, ratings)
	stuck := &stuckStore{RedisStore: st}

	p := NewPrecomputer(stuck, NewSimilarityService(stuck), quietLogger())
	start := time.Now()
	report, err := p.CalculateSimilarMovies(context.Background(), BatchOptions{
		Workers: 2,
		Timeout: 50 * time.Millisecond,
	})

	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.ErrorIs(t, err, ErrBatchIncomplete)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, report.Saved)
	assert.Equal(t, len(movies), len(report.Failed)+report.Skipped)
}

func TestCalculateSimilarMoviesCancelledContext(t *testing.T) {
	st := newTestStore(t)
	movies, ratings := catalogRatings()
	seed(t, st, movies, ratings)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPrecomputer(st, NewSimilarityService(st), quietLogger())
	_, err := p.CalculateSimilarMovies(ctx, BatchOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	const workers = 4
	pool := NewWorkerPool(context.Background(), workers, quietLogger(), nil)
	pool.Start()

	var inFlight, peak, done atomic.Int64
	for i := 0; i < 25; i++ {
		require.NoError(t, pool.Submit(func(ctx context.Context) error {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			done.Add(1)
			return nil
		}))
	}
	pool.Wait()

	assert.Equal(t, int64(25), done.Load())
	assert.LessOrEqual(t, peak.Load(), int64(workers))
	assert.NoError(t, pool.Err())
}

func TestWorkerPoolReportsErrors(t *testing.T) {
	var mu sync.Mutex
	var seen []error
	pool := NewWorkerPool(context.Background(), 2, quietLogger(), func(err error) {
		mu.Lock()
		seen = append(seen, err)
		mu.Unlock()
	})
	pool.Start()

	for i := 0; i < 3; i++ {
		require.NoError(t, pool.Submit(func(context.Context) error { return errBoom }))
	}
	pool.Wait()

	assert.Len(t, seen, 3)
}

func TestWorkerPoolShutdownRejectsNewTasks(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1, quietLogger(), nil)
	pool.Start()
	pool.Shutdown()

	assert.ErrorIs(t, pool.Err(), context.Canceled)
}

func TestWorkerPoolSubmitAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewWorkerPool(ctx, 1, quietLogger(), nil)
	pool.Start()
	cancel()

	err := pool.Submit(func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	pool.Wait()
}
