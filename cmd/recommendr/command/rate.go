package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"recommendr/internal/recommend"
	"recommendr/internal/similarity"
)

const demoRecommendations = 10

var errInputClosed = errors.New("input closed")

var (
	rateReviewer    int64
	rateMovie       int64
	rateCount       int
	rateNoRecommend bool
)

var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Rate movies interactively, then get recommendations",
	Long: `Ask about randomly chosen movies you have not rated until you have rated
--count of them, then print recommendations. With --movie only that movie is
offered.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		reviewer := reviewerOrDefault(rateReviewer)

		engine, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer engine.Close()

		in := bufio.NewScanner(cmd.InOrStdin())
		out := cmd.OutOrStdout()

		if rateMovie > 0 {
			if _, found, err := engine.MovieName(ctx, rateMovie); err != nil {
				return err
			} else if !found {
				return fmt.Errorf("movie %d not found", rateMovie)
			}
			_, err := rateOne(ctx, engine, in, out, reviewer, rateMovie)
			return err
		}

		if err := rateRandom(ctx, engine, in, out, reviewer, rateCount); err != nil {
			return err
		}
		if rateNoRecommend {
			return nil
		}

		fmt.Fprintln(out, "OK, let me think...")
		return printRecommendations(ctx, engine, out, reviewer, demoRecommendations, similarity.Distance)
	},
}

// rateRandom offers unrated movies in random order until count are rated or
// none are left.
func rateRandom(ctx context.Context, engine *recommend.Engine, in *bufio.Scanner, out io.Writer, reviewer int64, count int) error {
	unrated, err := engine.UnratedMoviesFor(ctx, reviewer)
	if err != nil {
		return err
	}
	rand.Shuffle(len(unrated), func(i, j int) { unrated[i], unrated[j] = unrated[j], unrated[i] })

	rated := 0
	for _, movieID := range unrated {
		if rated >= count {
			break
		}
		seen, err := rateOne(ctx, engine, in, out, reviewer, movieID)
		if err != nil {
			return err
		}
		if seen {
			rated++
		}
	}
	if rated < count {
		fmt.Fprintf(out, "Only %d movies rated, no more unrated movies to offer.\n", rated)
	}
	return nil
}

// rateOne asks whether the reviewer has seen the movie and, if so, for a
// score from 1 to 5. It reports whether a rating was saved.
func rateOne(ctx context.Context, engine *recommend.Engine, in *bufio.Scanner, out io.Writer, reviewer, movieID int64) (bool, error) {
	name, _, err := engine.MovieName(ctx, movieID)
	if err != nil {
		return false, err
	}
	fmt.Fprintf(out, "Have you seen %s?\n'y' for yes: ", name)
	answer, err := readLine(in)
	if err != nil {
		return false, err
	}
	if !strings.EqualFold(answer, "y") {
		return false, nil
	}

	fmt.Fprintln(out, "How would you rate it (1-5)?")
	for {
		line, err := readLine(in)
		if err != nil {
			return false, err
		}
		score, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintln(out, "Please enter a whole number between 1 and 5")
			continue
		}
		if score < 1 || score > 5 {
			fmt.Fprintln(out, "Please enter a number between 1 and 5")
			continue
		}
		if err := engine.AddRating(ctx, reviewer, movieID, score); err != nil {
			return false, err
		}
		return true, nil
	}
}

func readLine(in *bufio.Scanner) (string, error) {
	if !in.Scan() {
		if err := in.Err(); err != nil {
			return "", err
		}
		return "", errInputClosed
	}
	return strings.TrimSpace(in.Text()), nil
}

func init() {
	rootCmd.AddCommand(rateCmd)

	rateCmd.Flags().Int64VarP(&rateReviewer, "user", "u", 0, "reviewer id; defaults to DEFAULT_REVIEWER_ID")
	rateCmd.Flags().Int64VarP(&rateMovie, "movie", "m", 0, "rate this movie only")
	rateCmd.Flags().IntVar(&rateCount, "count", 5, "number of movies to rate")
	rateCmd.Flags().BoolVar(&rateNoRecommend, "no-recommend", false, "skip the recommendations after rating")
}
