package importer

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
)

const DefaultDevSampleSize = 200

// SplitOptions locates the full dataset and the output directory. Output
// files are ratings_training.dat, ratings_test.dat, movies_dev.dat and
// ratings_dev.dat.
type SplitOptions struct {
	RatingsPath   string
	MoviesPath    string
	OutputDir     string
	DevSampleSize int
	Seed          uint64
}

// SplitSummary counts the records written to each output file.
type SplitSummary struct {
	Training  int `json:"training"`
	Test      int `json:"test"`
	DevMovies int `json:"dev_movies"`
	Dev       int `json:"dev"`
}

// Split holds out a fifth (rounded down) of every reviewer's ratings, chosen
// at random, as test data and keeps the rest as training data. It then
// samples DevSampleSize movies and writes them with their training ratings
// as a small development set. Test ratings never appear in any other file.
func Split(opts SplitOptions) (SplitSummary, error) {
	var summary SplitSummary
	if opts.DevSampleSize <= 0 {
		opts.DevSampleSize = DefaultDevSampleSize
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	byReviewer, reviewerOrder, err := groupRatings(opts.RatingsPath)
	if err != nil {
		return summary, err
	}

	trainingByMovie := make(map[string][]string)
	training, err := newLineWriter(filepath.Join(opts.OutputDir, "ratings_training.dat"))
	if err != nil {
		return summary, err
	}
	defer training.Close()
	test, err := newLineWriter(filepath.Join(opts.OutputDir, "ratings_test.dat"))
	if err != nil {
		return summary, err
	}
	defer test.Close()

	for _, reviewer := range reviewerOrder {
		lines := byReviewer[reviewer]
		held := len(lines) / 5
		perm := rng.Perm(len(lines))
		isTest := make([]bool, len(lines))
		for _, i := range perm[:held] {
			isTest[i] = true
		}

		for i, line := range lines {
			if isTest[i] {
				if err := test.WriteLine(line); err != nil {
					return summary, err
				}
				summary.Test++
				continue
			}
			if err := training.WriteLine(line); err != nil {
				return summary, err
			}
			movieID := strings.SplitN(line, fieldSep, 3)[1]
			trainingByMovie[movieID] = append(trainingByMovie[movieID], line)
			summary.Training++
		}
	}

	movieIDs, movieLines, err := readMovies(opts.MoviesPath)
	if err != nil {
		return summary, err
	}
	sample := movieIDs
	if len(sample) > opts.DevSampleSize {
		rng.Shuffle(len(sample), func(i, j int) { sample[i], sample[j] = sample[j], sample[i] })
		sample = sample[:opts.DevSampleSize]
	}

	devMovies, err := newLineWriter(filepath.Join(opts.OutputDir, "movies_dev.dat"))
	if err != nil {
		return summary, err
	}
	defer devMovies.Close()
	devRatings, err := newLineWriter(filepath.Join(opts.OutputDir, "ratings_dev.dat"))
	if err != nil {
		return summary, err
	}
	defer devRatings.Close()

	for _, movieID := range sample {
		if err := devMovies.WriteLine(movieLines[movieID]); err != nil {
			return summary, err
		}
		summary.DevMovies++
		for _, line := range trainingByMovie[movieID] {
			if err := devRatings.WriteLine(line); err != nil {
				return summary, err
			}
			summary.Dev++
		}
	}

	for _, w := range []*lineWriter{training, test, devMovies, devRatings} {
		if err := w.Close(); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// groupRatings returns rating lines keyed by reviewer, plus reviewers in
// first-seen order.
func groupRatings(path string) (map[string][]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	byReviewer := make(map[string][]string)
	var order []string
	err = eachLine(f, func(lineNo int, line string) error {
		fields := strings.Split(strings.TrimSpace(line), fieldSep)
		if len(fields) != 4 {
			return fmt.Errorf("%s line %d: %w: %q", path, lineNo, ErrMalformedRecord, line)
		}
		reviewer := fields[0]
		if _, seen := byReviewer[reviewer]; !seen {
			order = append(order, reviewer)
		}
		byReviewer[reviewer] = append(byReviewer[reviewer], strings.TrimSpace(line))
		return nil
	})
	return byReviewer, order, err
}

func readMovies(path string) ([]string, map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	lines := make(map[string]string)
	var ids []string
	err = eachLine(f, func(lineNo int, line string) error {
		id := strings.SplitN(line, fieldSep, 2)[0]
		if _, dup := lines[id]; !dup {
			ids = append(ids, id)
		}
		lines[id] = strings.TrimRight(line, "\r\n")
		return nil
	})
	return ids, lines, err
}

type lineWriter struct {
	f      *os.File
	w      *bufio.Writer
	closed bool
}

func newLineWriter(path string) (*lineWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return &lineWriter{f: f, w: bufio.NewWriter(f)}, nil
}

func (lw *lineWriter) WriteLine(line string) error {
	if _, err := lw.w.WriteString(line); err != nil {
		return err
	}
	return lw.w.WriteByte('\n')
}

func (lw *lineWriter) Close() error {
	if lw.closed {
		return nil
	}
	lw.closed = true
	if err := lw.w.Flush(); err != nil {
		lw.f.Close()
		return err
	}
	return lw.f.Close()
}
