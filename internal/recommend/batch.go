package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"recommendr/internal/metrics"
	"recommendr/internal/similarity"
)

const (
	DefaultSimilarMoviesN = 10
	DefaultBatchWorkers   = 30
)

// ErrBatchIncomplete is returned when at least one movie was not processed.
var ErrBatchIncomplete = errors.New("similarity batch incomplete")

// BatchOptions tunes one precomputation run. Zero values take the defaults:
// 10 neighbors, distance similarity, 30 workers, no timeout.
type BatchOptions struct {
	N          int
	Similarity similarity.Func
	Workers    int
	Timeout    time.Duration
}

// BatchReport summarizes a precomputation run.
type BatchReport struct {
	RunID    string          `json:"run_id"`
	Movies   int             `json:"movies"`
	Saved    int             `json:"saved"`
	Failed   map[int64]error `json:"-"`
	Skipped  int             `json:"skipped"`
	Duration time.Duration   `json:"duration"`
}

// FailedIDs lists the movies whose task returned an error, ascending.
func (r *BatchReport) FailedIDs() []int64 {
	ids := make([]int64, 0, len(r.Failed))
	for id := range r.Failed {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Precomputer fills the per-movie similarity cache for the whole catalog.
type Precomputer struct {
	store  Store
	sims   *SimilarityService
	logger *slog.Logger
}

func NewPrecomputer(st Store, sims *SimilarityService, logger *slog.Logger) *Precomputer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Precomputer{store: st, sims: sims, logger: logger}
}

// CalculateSimilarMovies computes and saves the top-N neighbors of every
// movie, one task per movie on a bounded worker pool, and returns once all
// tasks have finished.
//
// A failing movie does not stop the others: it is logged, recorded in the
// report, and the run returns ErrBatchIncomplete joined with every failure.
// When ctx ends (or opts.Timeout elapses) tasks not yet started are skipped
// and counted in the report.
func (p *Precomputer) CalculateSimilarMovies(ctx context.Context, opts BatchOptions) (*BatchReport, error) {
	opts = opts.withDefaults()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	report := &BatchReport{RunID: uuid.NewString(), Failed: make(map[int64]error)}
	start := time.Now()
	log := p.logger.With("run_id", report.RunID)

	movies, err := p.store.Movies(ctx)
	if err != nil {
		metrics.RecordBatch("error", 0, 0, 0, time.Since(start))
		return report, fmt.Errorf("list movies: %w", err)
	}
	report.Movies = len(movies)
	log.Info("similarity_batch_started",
		"movies", len(movies),
		"n", opts.N,
		"workers", opts.Workers,
	)

	var (
		mu        sync.Mutex
		processed atomic.Int64
	)
	pool := NewWorkerPool(ctx, opts.Workers, log, nil)
	pool.Start()

	for _, movieID := range movies {
		err := pool.Submit(func(ctx context.Context) error {
			processed.Add(1)
			if err := p.processMovie(ctx, movieID, opts); err != nil {
				mu.Lock()
				report.Failed[movieID] = err
				mu.Unlock()
				return err
			}
			mu.Lock()
			report.Saved++
			mu.Unlock()
			return nil
		})
		if err != nil {
			break
		}
	}
	pool.Wait()

	report.Skipped = report.Movies - int(processed.Load())
	report.Duration = time.Since(start)

	var errs []error
	if err := pool.Err(); err != nil && report.Skipped > 0 {
		errs = append(errs, fmt.Errorf("%d movies skipped: %w", report.Skipped, err))
	}
	for _, id := range report.FailedIDs() {
		errs = append(errs, report.Failed[id])
	}

	log.Info("similarity_batch_finished",
		"saved", report.Saved,
		"failed", len(report.Failed),
		"skipped", report.Skipped,
		"duration", report.Duration,
	)
	if len(errs) > 0 {
		metrics.RecordBatch("incomplete", report.Saved, len(report.Failed), report.Skipped, report.Duration)
		return report, fmt.Errorf("%w: %w", ErrBatchIncomplete, errors.Join(errs...))
	}
	metrics.RecordBatch("complete", report.Saved, 0, 0, report.Duration)
	return report, nil
}

func (p *Precomputer) processMovie(ctx context.Context, movieID int64, opts BatchOptions) error {
	scores, err := p.sims.ClosestMovies(ctx, movieID, opts.N, opts.Similarity)
	if err != nil {
		return fmt.Errorf("movie %d: %w", movieID, err)
	}
	if err := p.store.SaveSimilarityScores(ctx, movieID, scores); err != nil {
		return fmt.Errorf("movie %d: %w", movieID, err)
	}
	p.logger.Debug("movie_similarities_saved", "movie_id", movieID, "neighbors", len(scores))
	return nil
}

func (o BatchOptions) withDefaults() BatchOptions {
	if o.N <= 0 {
		o.N = DefaultSimilarMoviesN
	}
	if o.Similarity == nil {
		o.Similarity = similarity.Distance
	}
	if o.Workers <= 0 {
		o.Workers = DefaultBatchWorkers
	}
	return o
}
