package command

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"recommendr/internal/importer"
)

var (
	splitDataDir string
	splitOutDir  string
	splitDevSize int
	splitSeed    uint64
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split ratings.dat into training, test and dev files",
	Long: `Hold out a fifth of every reviewer's ratings as test data and write the rest
as training data, then sample movies for a small dev set.

Reads movies.dat and ratings.dat from --data-dir and writes
ratings_training.dat, ratings_test.dat, movies_dev.dat and ratings_dev.dat to
--out (defaults to --data-dir). Does not touch Redis.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := splitOutDir
		if out == "" {
			out = splitDataDir
		}
		seed := splitSeed
		if !cmd.Flags().Changed("seed") {
			seed = uint64(time.Now().UnixNano())
		}

		summary, err := importer.Split(importer.SplitOptions{
			RatingsPath:   filepath.Join(splitDataDir, "ratings.dat"),
			MoviesPath:    filepath.Join(splitDataDir, "movies.dat"),
			OutputDir:     out,
			DevSampleSize: splitDevSize,
			Seed:          seed,
		})
		if err != nil {
			return fmt.Errorf("split failed: %w", err)
		}
		log.Info("split_completed", "seed", seed, "out", out)

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Training ratings: %d\n", summary.Training)
		fmt.Fprintf(w, "Test ratings:     %d\n", summary.Test)
		fmt.Fprintf(w, "Dev movies:       %d\n", summary.DevMovies)
		fmt.Fprintf(w, "Dev ratings:      %d\n", summary.Dev)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(splitCmd)

	splitCmd.Flags().StringVar(&splitDataDir, "data-dir", "data", "directory holding movies.dat and ratings.dat")
	splitCmd.Flags().StringVar(&splitOutDir, "out", "", "output directory (defaults to --data-dir)")
	splitCmd.Flags().IntVar(&splitDevSize, "dev-size", importer.DefaultDevSampleSize, "number of movies in the dev sample")
	splitCmd.Flags().Uint64Var(&splitSeed, "seed", 0, "random seed; random when unset")
}
