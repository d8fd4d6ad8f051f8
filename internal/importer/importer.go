// Package importer loads MovieLens-style "::"-delimited movie and rating
// files into the rating store.
package importer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrMalformedRecord = errors.New("malformed record")

const (
	fieldSep = "::"
	genreSep = "|"
)

// MovieRecord is one line of movies.dat: id::name::genre1|genre2|...
type MovieRecord struct {
	ID     int64
	Name   string
	Genres []string
}

// RatingRecord is one line of ratings.dat: user::movie::score::timestamp
type RatingRecord struct {
	ReviewerID int64
	MovieID    int64
	Score      int
	Timestamp  time.Time
}

// Loader is the store surface the importer writes through.
type Loader interface {
	AddOrGetGenre(ctx context.Context, name string) (int64, error)
	AddMovie(ctx context.Context, movieID int64, name string, genreIDs ...int64) error
	AddRating(ctx context.Context, reviewerID, movieID int64, score int) error
	Clear(ctx context.Context) error
}

// Summary counts what an import wrote.
type Summary struct {
	Movies  int `json:"movies"`
	Ratings int `json:"ratings"`
}

type Importer struct {
	store  Loader
	logger *slog.Logger
}

func New(store Loader, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: store, logger: logger}
}

// ParseMovieRecord parses id::name::genres. Blank genre entries are dropped.
func ParseMovieRecord(line string) (MovieRecord, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), fieldSep)
	if len(fields) != 3 {
		return MovieRecord{}, fmt.Errorf("%w: movie %q: want 3 fields, got %d", ErrMalformedRecord, line, len(fields))
	}
	id, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return MovieRecord{}, fmt.Errorf("%w: movie id %q: %v", ErrMalformedRecord, fields[0], err)
	}

	rec := MovieRecord{ID: id, Name: fields[1]}
	for _, genre := range strings.Split(fields[2], genreSep) {
		if genre = strings.TrimSpace(genre); genre != "" {
			rec.Genres = append(rec.Genres, genre)
		}
	}
	return rec, nil
}

// ParseRatingRecord parses user::movie::score::timestamp. The score must be
// an integer; its range is not checked here.
func ParseRatingRecord(line string) (RatingRecord, error) {
	fields := strings.Split(strings.TrimSpace(line), fieldSep)
	if len(fields) != 4 {
		return RatingRecord{}, fmt.Errorf("%w: rating %q: want 4 fields, got %d", ErrMalformedRecord, line, len(fields))
	}
	nums := make([]int64, 4)
	for i, f := range fields {
		n, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return RatingRecord{}, fmt.Errorf("%w: rating %q field %d: %v", ErrMalformedRecord, line, i+1, err)
		}
		nums[i] = n
	}
	return RatingRecord{
		ReviewerID: nums[0],
		MovieID:    nums[1],
		Score:      int(nums[2]),
		Timestamp:  time.Unix(nums[3], 0).UTC(),
	}, nil
}

// ImportMovies reads movie records from r and registers each movie with its
// genres. It stops at the first malformed line or store error.
func (im *Importer) ImportMovies(ctx context.Context, r io.Reader) (int, error) {
	count := 0
	err := eachLine(r, func(lineNo int, line string) error {
		rec, err := ParseMovieRecord(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		genreIDs := make([]int64, 0, len(rec.Genres))
		for _, genre := range rec.Genres {
			id, err := im.store.AddOrGetGenre(ctx, genre)
			if err != nil {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}
			genreIDs = append(genreIDs, id)
		}
		if err := im.store.AddMovie(ctx, rec.ID, rec.Name, genreIDs...); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		count++
		return nil
	})
	return count, err
}

// ImportRatings reads rating records from r. The timestamp is parsed but
// not stored.
func (im *Importer) ImportRatings(ctx context.Context, r io.Reader) (int, error) {
	count := 0
	err := eachLine(r, func(lineNo int, line string) error {
		rec, err := ParseRatingRecord(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if err := im.store.AddRating(ctx, rec.ReviewerID, rec.MovieID, rec.Score); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		count++
		if count%100000 == 0 {
			im.logger.Info("import_ratings_progress", "ratings", count)
		}
		return nil
	})
	return count, err
}

// ImportFiles optionally clears the store, then loads the movies file and
// the ratings file in that order.
func (im *Importer) ImportFiles(ctx context.Context, moviesPath, ratingsPath string, clear bool) (Summary, error) {
	var summary Summary

	if clear {
		im.logger.Info("clearing_store")
		if err := im.store.Clear(ctx); err != nil {
			return summary, err
		}
	}

	im.logger.Info("importing_movies", "path", moviesPath)
	n, err := importFile(moviesPath, func(r io.Reader) (int, error) { return im.ImportMovies(ctx, r) })
	summary.Movies = n
	if err != nil {
		return summary, err
	}

	im.logger.Info("importing_ratings", "path", ratingsPath)
	n, err = importFile(ratingsPath, func(r io.Reader) (int, error) { return im.ImportRatings(ctx, r) })
	summary.Ratings = n
	if err != nil {
		return summary, err
	}

	im.logger.Info("import_completed", "movies", summary.Movies, "ratings", summary.Ratings)
	return summary, nil
}

func importFile(path string, load func(io.Reader) (int, error)) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	n, err := load(f)
	if err != nil {
		return n, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// eachLine calls fn for every non-blank line, numbering from 1.
func eachLine(r io.Reader, fn func(lineNo int, line string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := fn(lineNo, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}
