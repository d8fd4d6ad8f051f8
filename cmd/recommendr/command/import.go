package command

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"recommendr/internal/importer"
)

var (
	dataDir     string
	importFull  bool
	importClear bool
	moviesFile  string
	ratingsFile string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load movies and ratings into the store",
	Long: `Load a movies file and a ratings file into Redis. By default the store is
cleared first and the dev sample (movies_dev.dat, ratings_dev.dat) is loaded;
--full loads movies.dat and ratings_training.dat instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		movies, ratings := "movies_dev.dat", "ratings_dev.dat"
		if importFull {
			movies, ratings = "movies.dat", "ratings_training.dat"
		}
		if moviesFile != "" {
			movies = moviesFile
		} else {
			movies = filepath.Join(dataDir, movies)
		}
		if ratingsFile != "" {
			ratings = ratingsFile
		} else {
			ratings = filepath.Join(dataDir, ratings)
		}

		engine, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer engine.Close()

		summary, err := importer.New(engine, log).ImportFiles(cmd.Context(), movies, ratings, importClear)
		if err != nil {
			return fmt.Errorf("import failed after %d movies and %d ratings: %w", summary.Movies, summary.Ratings, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d movies and %d ratings\n", summary.Movies, summary.Ratings)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&dataDir, "data-dir", "data", "directory holding the dataset files")
	importCmd.Flags().BoolVar(&importFull, "full", false, "load the full training set instead of the dev sample")
	importCmd.Flags().BoolVar(&importClear, "clear", true, "remove everything in the store before loading")
	importCmd.Flags().StringVar(&moviesFile, "movies", "", "movies file (overrides --data-dir and --full)")
	importCmd.Flags().StringVar(&ratingsFile, "ratings", "", "ratings file (overrides --data-dir and --full)")
}
