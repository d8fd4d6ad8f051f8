package command

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"recommendr/internal/similarity"
	"recommendr/internal/store"
)

var (
	similarN          int
	similarSimilarity string
	similarLive       bool
)

var similarCmd = &cobra.Command{
	Use:   "similar",
	Short: "Show similar reviewers or movies",
}

var similarReviewersCmd = &cobra.Command{
	Use:   "reviewers [reviewer-id]",
	Short: "Rank the reviewers closest in taste to a reviewer",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var reviewer int64
		if len(args) == 1 {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid reviewer ID: %w", err)
			}
			reviewer = id
		}
		reviewer = reviewerOrDefault(reviewer)

		fn, err := similarityFlag(cfg.RecommendSimilarity)
		if err != nil {
			return err
		}
		n := similarN
		if n <= 0 {
			n = 5
		}

		engine, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer engine.Close()

		closest, err := engine.ClosestReviewers(cmd.Context(), reviewer, n, fn)
		if err != nil {
			return fmt.Errorf("failed to rank reviewers: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Reviewers closest to %d:\n", reviewer)
		fmt.Fprintln(out, "Score\tReviewer")
		for _, s := range closest {
			fmt.Fprintf(out, "%0.4f\t%d\n", s.Score, s.ID)
		}
		return nil
	},
}

var similarMoviesCmd = &cobra.Command{
	Use:   "movies [movie-id]",
	Short: "Show the movies most similar to a movie",
	Long: `Show the precomputed similar-movie list of a movie (see "precompute").
With --live the list is computed now over all movies instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		movieID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid movie ID: %w", err)
		}
		n := similarN
		if n <= 0 {
			n = cfg.SimilarMoviesN
		}

		engine, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer engine.Close()

		ctx := cmd.Context()
		name, found, err := engine.MovieName(ctx, movieID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("movie %d not found", movieID)
		}

		var neighbors []store.Scored
		if similarLive {
			fn, err := similarityFlag(cfg.SimilarMoviesSimilarity)
			if err != nil {
				return err
			}
			neighbors, err = engine.ClosestMovies(ctx, movieID, n, fn)
			if err != nil {
				return fmt.Errorf("failed to rank movies: %w", err)
			}
		} else {
			neighbors, err = engine.SimilarMovies(ctx, movieID, n)
			if err != nil {
				return fmt.Errorf("failed to read similar movies: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		if len(neighbors) == 0 {
			fmt.Fprintf(out, "No similar movies stored for %s. Run \"recommendr precompute\" or use --live.\n", name)
			return nil
		}
		fmt.Fprintf(out, "Movies similar to %s:\n", name)
		fmt.Fprintln(out, "Score\tID\tMovie")
		for _, s := range neighbors {
			other, _, err := engine.MovieName(ctx, s.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%0.4f\t%d\t%s\n", s.Score, s.ID, other)
		}
		return nil
	},
}

func similarityFlag(fallback string) (similarity.Func, error) {
	if similarSimilarity != "" {
		return similarity.ByName(similarSimilarity)
	}
	return similarity.ByName(fallback)
}

func init() {
	rootCmd.AddCommand(similarCmd)
	similarCmd.AddCommand(similarReviewersCmd)
	similarCmd.AddCommand(similarMoviesCmd)

	similarCmd.PersistentFlags().IntVarP(&similarN, "limit", "n", 0, "number of results")
	similarCmd.PersistentFlags().StringVar(&similarSimilarity, "similarity", "", "distance or pearson")
	similarMoviesCmd.Flags().BoolVar(&similarLive, "live", false, "compute the list now instead of reading the stored one")
}
