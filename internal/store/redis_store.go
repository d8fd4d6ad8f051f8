package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"recommendr/internal/similarity"
)

// Options selects the backing Redis server and logical database.
type Options struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// RedisStore implements RatingStore on Redis sets, sorted sets and hashes.
// It is safe for concurrent use.
type RedisStore struct {
	client *redis.Client
}

var _ RatingStore = (*RedisStore)(nil)

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, opts Options) (*RedisStore, error) {
	dialTimeout := opts.DialTimeout
	if dialTimeout == 0 {
		dialTimeout = 5 * time.Second
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}
	return &RedisStore{client: rdb}, nil
}

// NewRedisStoreWithClient wraps an existing client. The store takes
// ownership: Close closes the client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

const (
	keyMovies      = "movies"
	keyReviewers   = "users"
	keyGenres      = "genres"
	keyNextGenreID = "global:nextGenreId"
)

func movieKey(movieID int64) string             { return fmt.Sprintf("movie_id:%d", movieID) }
func movieGenresKey(movieID int64) string       { return fmt.Sprintf("movie:%d:genres", movieID) }
func movieReviewersKey(movieID int64) string    { return fmt.Sprintf("movie:%d:reviewers", movieID) }
func movieReviewsKey(movieID int64) string      { return fmt.Sprintf("movie:%d:reviews", movieID) }
func movieSimilaritiesKey(movieID int64) string { return fmt.Sprintf("movie:%d:similarities", movieID) }
func genreMoviesKey(genreID int64) string       { return fmt.Sprintf("genre:%d:movies", genreID) }
func genreNameKey(genreID int64) string         { return fmt.Sprintf("genre:%d:name", genreID) }
func genreIDKey(name string) string             { return fmt.Sprintf("genre:%s:id", name) }
func reviewedKey(reviewerID int64) string       { return fmt.Sprintf("uid:%d:reviewed", reviewerID) }
func reviewsKey(reviewerID int64) string        { return fmt.Sprintf("uid:%d:reviews", reviewerID) }

func member(id int64) string { return strconv.FormatInt(id, 10) }

// NormalizeGenre is the canonical form genre names are stored under.
func NormalizeGenre(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// AddOrGetGenre returns the id registered for name, allocating one on first
// use. Names differing only by case or surrounding whitespace share an id.
func (s *RedisStore) AddOrGetGenre(ctx context.Context, name string) (int64, error) {
	name = NormalizeGenre(name)
	if name == "" {
		return 0, ErrInvalidGenreName
	}

	id, ok, err := s.genreIDByNormalizedName(ctx, name)
	if err != nil {
		return 0, err
	}
	if ok {
		return id, nil
	}

	newID, err := s.client.Incr(ctx, keyNextGenreID).Result()
	if err != nil {
		return 0, fmt.Errorf("allocate genre id: %w", err)
	}

	// SETNX on the name key decides concurrent creators; the loser adopts the
	// winner's id and its own allocation is left unused.
	claimed, err := s.client.SetNX(ctx, genreIDKey(name), newID, 0).Result()
	if err != nil {
		return 0, fmt.Errorf("claim genre %q: %w", name, err)
	}
	if !claimed {
		id, ok, err := s.genreIDByNormalizedName(ctx, name)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, fmt.Errorf("genre %q vanished after claim", name)
		}
		return id, nil
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, genreNameKey(newID), name, 0)
		pipe.SAdd(ctx, keyGenres, newID)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("add genre %q: %w", name, err)
	}
	return newID, nil
}

// GenreIDByName looks up a genre without creating it.
func (s *RedisStore) GenreIDByName(ctx context.Context, name string) (int64, bool, error) {
	return s.genreIDByNormalizedName(ctx, NormalizeGenre(name))
}

func (s *RedisStore) genreIDByNormalizedName(ctx context.Context, name string) (int64, bool, error) {
	id, err := s.client.Get(ctx, genreIDKey(name)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get genre id for %q: %w", name, err)
	}
	return id, true, nil
}

func (s *RedisStore) GenreName(ctx context.Context, genreID int64) (string, bool, error) {
	name, err := s.client.Get(ctx, genreNameKey(genreID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get genre %d name: %w", genreID, err)
	}
	return name, true, nil
}

func (s *RedisStore) GenresForMovie(ctx context.Context, movieID int64) ([]int64, error) {
	return s.members(ctx, movieGenresKey(movieID))
}

func (s *RedisStore) MoviesForGenre(ctx context.Context, genreID int64) ([]int64, error) {
	return s.members(ctx, genreMoviesKey(genreID))
}

// AddMovie registers a movie under a caller-supplied id. Re-adding an id
// replaces its name and adds to its genre set.
func (s *RedisStore) AddMovie(ctx context.Context, movieID int64, name string, genreIDs ...int64) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, keyMovies, movieID)
		pipe.HSet(ctx, movieKey(movieID), "name", name)
		for _, genreID := range genreIDs {
			pipe.SAdd(ctx, genreMoviesKey(genreID), movieID)
			pipe.SAdd(ctx, movieGenresKey(movieID), genreID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("add movie %d: %w", movieID, err)
	}
	return nil
}

func (s *RedisStore) Movies(ctx context.Context) ([]int64, error) {
	return s.members(ctx, keyMovies)
}

func (s *RedisStore) MovieName(ctx context.Context, movieID int64) (string, bool, error) {
	name, err := s.client.HGet(ctx, movieKey(movieID), "name").Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get movie %d name: %w", movieID, err)
	}
	return name, true, nil
}

// MovieDetails returns the movie with genre names, or nil if it is unknown.
func (s *RedisStore) MovieDetails(ctx context.Context, movieID int64) (*Movie, error) {
	name, ok, err := s.MovieName(ctx, movieID)
	if err != nil || !ok {
		return nil, err
	}
	genreIDs, err := s.GenresForMovie(ctx, movieID)
	if err != nil {
		return nil, err
	}

	movie := &Movie{ID: movieID, Name: name, Genres: []string{}}
	if len(genreIDs) == 0 {
		return movie, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(genreIDs))
	for i, genreID := range genreIDs {
		cmds[i] = pipe.Get(ctx, genreNameKey(genreID))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get genres of movie %d: %w", movieID, err)
	}
	for _, cmd := range cmds {
		if genre, err := cmd.Result(); err == nil {
			movie.Genres = append(movie.Genres, genre)
		}
	}
	slices.Sort(movie.Genres)
	return movie, nil
}

// AddRating records score for the pair in all four rating indices inside one
// MULTI/EXEC, so readers see either none or all of them. Re-rating overwrites.
func (s *RedisStore) AddRating(ctx context.Context, reviewerID, movieID int64, score int) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, keyReviewers, reviewerID)
		pipe.SAdd(ctx, reviewedKey(reviewerID), movieID)
		pipe.ZAdd(ctx, reviewsKey(reviewerID), redis.Z{Score: float64(score), Member: member(movieID)})
		pipe.SAdd(ctx, movieReviewersKey(movieID), reviewerID)
		pipe.ZAdd(ctx, movieReviewsKey(movieID), redis.Z{Score: float64(score), Member: member(reviewerID)})
		return nil
	})
	if err != nil {
		return fmt.Errorf("add rating reviewer=%d movie=%d: %w", reviewerID, movieID, err)
	}
	return nil
}

func (s *RedisStore) Reviewers(ctx context.Context) ([]int64, error) {
	return s.members(ctx, keyReviewers)
}

// UnratedMoviesFor returns every movie the reviewer has not rated; the whole
// catalog for an unknown reviewer.
func (s *RedisStore) UnratedMoviesFor(ctx context.Context, reviewerID int64) ([]int64, error) {
	values, err := s.client.SDiff(ctx, keyMovies, reviewedKey(reviewerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("unrated movies for reviewer %d: %w", reviewerID, err)
	}
	return toIDs(values)
}

func (s *RedisStore) ReviewersForMovie(ctx context.Context, movieID int64) ([]int64, error) {
	return s.members(ctx, movieReviewersKey(movieID))
}

// ReviewerRatingForMovie reports ok == false when no rating exists.
func (s *RedisStore) ReviewerRatingForMovie(ctx context.Context, reviewerID, movieID int64) (float64, bool, error) {
	score, err := s.client.ZScore(ctx, reviewsKey(reviewerID), member(movieID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("rating reviewer=%d movie=%d: %w", reviewerID, movieID, err)
	}
	return score, true, nil
}

// CommonRatingsForReviewers pairs both reviewers' scores for every movie
// they have both rated.
func (s *RedisStore) CommonRatingsForReviewers(ctx context.Context, reviewerA, reviewerB int64) ([]similarity.Pair, error) {
	return s.commonRatings(ctx,
		reviewedKey(reviewerA), reviewedKey(reviewerB),
		reviewsKey(reviewerA), reviewsKey(reviewerB))
}

// CommonRatingsForMovies pairs both movies' scores for every reviewer who
// has rated both.
func (s *RedisStore) CommonRatingsForMovies(ctx context.Context, movieA, movieB int64) ([]similarity.Pair, error) {
	return s.commonRatings(ctx,
		movieReviewersKey(movieA), movieReviewersKey(movieB),
		movieReviewsKey(movieA), movieReviewsKey(movieB))
}

// commonRatings intersects two membership sets and reads both scores for each
// shared member in a single pipeline. Pairs missing either score are dropped.
func (s *RedisStore) commonRatings(ctx context.Context, setA, setB, scoresA, scoresB string) ([]similarity.Pair, error) {
	common, err := s.client.SInter(ctx, setA, setB).Result()
	if err != nil {
		return nil, fmt.Errorf("intersect %s %s: %w", setA, setB, err)
	}
	if len(common) == 0 {
		return []similarity.Pair{}, nil
	}
	slices.Sort(common)

	pipe := s.client.Pipeline()
	cmdsA := make([]*redis.FloatCmd, len(common))
	cmdsB := make([]*redis.FloatCmd, len(common))
	for i, m := range common {
		cmdsA[i] = pipe.ZScore(ctx, scoresA, m)
		cmdsB[i] = pipe.ZScore(ctx, scoresB, m)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read scores %s %s: %w", scoresA, scoresB, err)
	}

	pairs := make([]similarity.Pair, 0, len(common))
	for i := range common {
		a, errA := cmdsA[i].Result()
		b, errB := cmdsB[i].Result()
		if errA != nil || errB != nil {
			continue
		}
		pairs = append(pairs, similarity.Pair{A: a, B: b})
	}
	return pairs, nil
}

// SaveSimilarityScores replaces the stored neighbor list of movieID.
func (s *RedisStore) SaveSimilarityScores(ctx context.Context, movieID int64, scores []Scored) error {
	key := movieSimilaritiesKey(movieID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(scores) == 0 {
			return nil
		}
		members := make([]redis.Z, len(scores))
		for i, sc := range scores {
			members[i] = redis.Z{Score: sc.Score, Member: member(sc.ID)}
		}
		pipe.ZAdd(ctx, key, members...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save similarity scores for movie %d: %w", movieID, err)
	}
	return nil
}

// SimilarMovies reads up to n precomputed neighbors, best first. n <= 0
// returns them all. Empty until the batch job has processed movieID.
func (s *RedisStore) SimilarMovies(ctx context.Context, movieID int64, n int) ([]Scored, error) {
	stop := int64(n) - 1
	if n <= 0 {
		stop = -1
	}
	zs, err := s.client.ZRevRangeWithScores(ctx, movieSimilaritiesKey(movieID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("similar movies for %d: %w", movieID, err)
	}
	out := make([]Scored, 0, len(zs))
	for _, z := range zs {
		raw, _ := z.Member.(string)
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("similar movies for %d: bad member %q: %w", movieID, raw, err)
		}
		out = append(out, Scored{Score: z.Score, ID: id})
	}
	return out, nil
}

// Clear removes everything in the selected logical database.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.FlushDB(ctx).Err(); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *RedisStore) members(ctx context.Context, key string) ([]int64, error) {
	values, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("members of %s: %w", key, err)
	}
	return toIDs(values)
}

// toIDs parses Redis set members into ascending ids.
func toIDs(values []string) ([]int64, error) {
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", v, err)
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
