package command

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"recommendr/internal/recommend"
	"recommendr/internal/similarity"
)

var (
	recommendReviewer   int64
	recommendLimit      int
	recommendSimilarity string
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Print movie recommendations for a reviewer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := recommendSimilarity
		if name == "" {
			name = cfg.RecommendSimilarity
		}
		fn, err := similarity.ByName(name)
		if err != nil {
			return err
		}

		engine, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer engine.Close()

		return printRecommendations(cmd.Context(), engine, cmd.OutOrStdout(), reviewerOrDefault(recommendReviewer), recommendLimit, fn)
	},
}

func printRecommendations(ctx context.Context, engine *recommend.Engine, out io.Writer, reviewer int64, limit int, fn similarity.Func) error {
	recs, err := engine.RecommendFor(ctx, reviewer, limit, fn)
	if err != nil {
		return fmt.Errorf("failed to get recommendations: %w", err)
	}
	if len(recs) == 0 {
		fmt.Fprintf(out, "No recommendations for reviewer %d yet. Rate a few movies first.\n", reviewer)
		return nil
	}

	fmt.Fprintln(out, "Based on your ratings, I recommend the following movies:")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Guess\tID\tMovie")
	for _, rec := range recs {
		name, _, err := engine.MovieName(ctx, rec.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%0.2f\t%d\t%s\n", rec.Score, rec.ID, name)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().Int64VarP(&recommendReviewer, "user", "u", 0, "reviewer id; defaults to DEFAULT_REVIEWER_ID")
	recommendCmd.Flags().IntVarP(&recommendLimit, "limit", "n", 0, "number of recommendations; defaults to RECOMMEND_LIMIT")
	recommendCmd.Flags().StringVar(&recommendSimilarity, "similarity", "", "distance or pearson; defaults to RECOMMEND_SIMILARITY")
}
