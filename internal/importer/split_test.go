package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

// writeDataset creates reviewers 1..3 with 10, 7 and 4 ratings over movies 1..10.
func writeDataset(t *testing.T, dir string) (ratingsPath, moviesPath string) {
	t.Helper()
	var ratings, movies strings.Builder
	for movie := 1; movie <= 10; movie++ {
		fmt.Fprintf(&movies, "%d::Movie %d::Drama\n", movie, movie)
	}
	for reviewer, count := range []int{1: 10, 2: 7, 3: 4} {
		if count == 0 {
			continue
		}
		for movie := 1; movie <= count; movie++ {
			fmt.Fprintf(&ratings, "%d::%d::%d::97830076%d\n", reviewer, movie, movie%5+1, movie%10)
		}
	}
	ratingsPath = filepath.Join(dir, "ratings.dat")
	moviesPath = filepath.Join(dir, "movies.dat")
	require.NoError(t, os.WriteFile(ratingsPath, []byte(ratings.String()), 0o644))
	require.NoError(t, os.WriteFile(moviesPath, []byte(movies.String()), 0o644))
	return ratingsPath, moviesPath
}

func TestSplitPartitionsRatings(t *testing.T) {
	dir := t.TempDir()
	ratingsPath, moviesPath := writeDataset(t, dir)

	summary, err := Split(SplitOptions{
		RatingsPath:   ratingsPath,
		MoviesPath:    moviesPath,
		OutputDir:     dir,
		DevSampleSize: 4,
		Seed:          42,
	})
	require.NoError(t, err)

	all := readLines(t, ratingsPath)
	training := readLines(t, filepath.Join(dir, "ratings_training.dat"))
	test := readLines(t, filepath.Join(dir, "ratings_test.dat"))

	assert.Equal(t, len(all), summary.Training+summary.Test)
	assert.Len(t, training, summary.Training)
	assert.Len(t, test, summary.Test)
	assert.ElementsMatch(t, all, append(append([]string{}, training...), test...))

	// a fifth of each reviewer's ratings, rounded down: 2 + 1 + 0
	perReviewer := map[string]int{}
	for _, line := range test {
		perReviewer[strings.SplitN(line, "::", 2)[0]]++
	}
	assert.Equal(t, map[string]int{"1": 2, "2": 1}, perReviewer)

	devMovies := readLines(t, filepath.Join(dir, "movies_dev.dat"))
	assert.Len(t, devMovies, 4)
	assert.Equal(t, 4, summary.DevMovies)

	sampled := map[string]bool{}
	for _, line := range devMovies {
		sampled[strings.SplitN(line, "::", 2)[0]] = true
	}
	testSet := map[string]bool{}
	for _, line := range test {
		testSet[line] = true
	}
	dev := readLines(t, filepath.Join(dir, "ratings_dev.dat"))
	assert.Len(t, dev, summary.Dev)
	for _, line := range dev {
		assert.True(t, sampled[strings.SplitN(line, "::", 3)[1]], "dev rating %q for unsampled movie", line)
		assert.False(t, testSet[line], "test rating %q leaked into dev", line)
	}
}

func TestSplitIsReproducible(t *testing.T) {
	run := func() []string {
		dir := t.TempDir()
		ratingsPath, moviesPath := writeDataset(t, dir)
		_, err := Split(SplitOptions{RatingsPath: ratingsPath, MoviesPath: moviesPath, OutputDir: dir, Seed: 7})
		require.NoError(t, err)
		return readLines(t, filepath.Join(dir, "ratings_test.dat"))
	}
	assert.ElementsMatch(t, run(), run())
}

func TestSplitMissingInput(t *testing.T) {
	_, err := Split(SplitOptions{RatingsPath: "/nonexistent", MoviesPath: "/nonexistent", OutputDir: t.TempDir()})
	assert.Error(t, err)
}
