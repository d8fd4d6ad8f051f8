package command

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"recommendr/internal/recommend"
	"recommendr/internal/similarity"
)

var (
	precomputeN          int
	precomputeWorkers    int
	precomputeSimilarity string
	precomputeTimeout    time.Duration
)

var precomputeCmd = &cobra.Command{
	Use:   "precompute",
	Short: "Compute and store the similar-movie list of every movie",
	Long: `Compute the N most similar movies of every movie in the store and save
them. This compares every pair of movies and takes a long time on the full
dataset. Interrupting the run stops movies not yet started; lists already
saved are kept.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := batchOptions()
		if err != nil {
			return err
		}

		engine, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer engine.Close()

		report, err := engine.CalculateSimilarMovies(cmd.Context(), opts)
		out := cmd.OutOrStdout()
		if report != nil {
			fmt.Fprintf(out, "Run %s: %d movies, %d saved, %d failed, %d skipped in %s\n",
				report.RunID, report.Movies, report.Saved, len(report.Failed), report.Skipped, report.Duration.Round(time.Millisecond))
			if failed := report.FailedIDs(); len(failed) > 0 {
				fmt.Fprintf(out, "Failed movies: %v\n", failed)
			}
		}
		if errors.Is(err, recommend.ErrBatchIncomplete) {
			return errors.New("similarity batch incomplete, rerun to retry the failed movies")
		}
		return err
	},
}

// batchOptions merges the command flags over the configured batch settings.
func batchOptions() (recommend.BatchOptions, error) {
	name := cfg.SimilarMoviesSimilarity
	if precomputeSimilarity != "" {
		name = precomputeSimilarity
	}
	fn, err := similarity.ByName(name)
	if err != nil {
		return recommend.BatchOptions{}, err
	}
	opts := recommend.BatchOptions{
		N:          cfg.SimilarMoviesN,
		Similarity: fn,
		Workers:    cfg.BatchWorkers,
		Timeout:    cfg.BatchTimeout,
	}
	if precomputeN > 0 {
		opts.N = precomputeN
	}
	if precomputeWorkers > 0 {
		opts.Workers = precomputeWorkers
	}
	if precomputeTimeout > 0 {
		opts.Timeout = precomputeTimeout
	}
	return opts, nil
}

func init() {
	rootCmd.AddCommand(precomputeCmd)

	precomputeCmd.Flags().IntVarP(&precomputeN, "neighbors", "n", 0, "neighbors kept per movie; defaults to SIMILAR_MOVIES_N")
	precomputeCmd.Flags().IntVar(&precomputeWorkers, "workers", 0, "concurrent movies; defaults to BATCH_WORKERS")
	precomputeCmd.Flags().StringVar(&precomputeSimilarity, "similarity", "", "distance or pearson; defaults to SIMILAR_MOVIES_SIMILARITY")
	precomputeCmd.Flags().DurationVar(&precomputeTimeout, "timeout", 0, "stop starting new movies after this long; defaults to BATCH_TIMEOUT")
}
