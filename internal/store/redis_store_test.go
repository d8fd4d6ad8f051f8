package store

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"recommendr/internal/similarity"
)

// RedisStoreTestSuite runs every test against a fresh in-process Redis.
type RedisStoreTestSuite struct {
	suite.Suite
	mr    *miniredis.Miniredis
	store *RedisStore
	ctx   context.Context
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreTestSuite))
}

func (s *RedisStoreTestSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	s.ctx = context.Background()

	st, err := NewRedisStore(s.ctx, Options{Addr: s.mr.Addr()})
	s.Require().NoError(err)
	s.store = st
}

func (s *RedisStoreTestSuite) TearDownTest() {
	s.store.Close()
}

// seedHorror loads two movies and two reviewers who rated Cujo.
func (s *RedisStoreTestSuite) seedHorror() {
	s.Require().NoError(s.store.AddMovie(s.ctx, 1, "Cujo"))
	s.Require().NoError(s.store.AddMovie(s.ctx, 2, "The Shining"))
	s.Require().NoError(s.store.AddRating(s.ctx, 10, 1, 3))
	s.Require().NoError(s.store.AddRating(s.ctx, 11, 1, 4))
}

func (s *RedisStoreTestSuite) TestAddOrGetGenre() {
	id, err := s.store.AddOrGetGenre(s.ctx, "Comedy")
	s.Require().NoError(err)

	got, ok, err := s.store.GenreIDByName(s.ctx, "comedy")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(id, got)

	name, ok, err := s.store.GenreName(s.ctx, id)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("comedy", name)
}

func (s *RedisStoreTestSuite) TestAddOrGetGenreNormalizesName() {
	first, err := s.store.AddOrGetGenre(s.ctx, " Comedy ")
	s.Require().NoError(err)
	second, err := s.store.AddOrGetGenre(s.ctx, "comedy")
	s.Require().NoError(err)
	third, err := s.store.AddOrGetGenre(s.ctx, "COMEDY\n")
	s.Require().NoError(err)

	s.Equal(first, second)
	s.Equal(first, third)

	drama, err := s.store.AddOrGetGenre(s.ctx, "Drama")
	s.Require().NoError(err)
	s.NotEqual(first, drama)
}

func (s *RedisStoreTestSuite) TestAddOrGetGenreRejectsBlankName() {
	_, err := s.store.AddOrGetGenre(s.ctx, "   ")
	s.ErrorIs(err, ErrInvalidGenreName)
}

func (s *RedisStoreTestSuite) TestAddOrGetGenreConcurrentCallersShareID() {
	variants := []string{"Sci-Fi", " sci-fi", "SCI-FI ", "sci-fi"}

	var wg sync.WaitGroup
	ids := make([]int64, 40)
	errs := make([]error, 40)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = s.store.AddOrGetGenre(s.ctx, variants[i%len(variants)])
		}(i)
	}
	wg.Wait()

	for i := range ids {
		s.Require().NoError(errs[i])
		s.Equal(ids[0], ids[i])
	}
}

func (s *RedisStoreTestSuite) TestRetrieveMissingGenre() {
	_, ok, err := s.store.GenreIDByName(s.ctx, "Missing")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisStoreTestSuite) TestAddMovieWithNoGenres() {
	s.Require().NoError(s.store.AddMovie(s.ctx, 1, "Shawshank Redemption"))

	movies, err := s.store.Movies(s.ctx)
	s.Require().NoError(err)
	s.Equal([]int64{1}, movies)
}

func (s *RedisStoreTestSuite) TestAddMovieTwiceReplacesNameAndUnionsGenres() {
	horror, err := s.store.AddOrGetGenre(s.ctx, "Horror")
	s.Require().NoError(err)
	thriller, err := s.store.AddOrGetGenre(s.ctx, "Thriller")
	s.Require().NoError(err)

	s.Require().NoError(s.store.AddMovie(s.ctx, 1, "Cujo (draft)", horror))
	s.Require().NoError(s.store.AddMovie(s.ctx, 1, "Cujo", thriller))

	name, ok, err := s.store.MovieName(s.ctx, 1)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("Cujo", name)

	genres, err := s.store.GenresForMovie(s.ctx, 1)
	s.Require().NoError(err)
	s.ElementsMatch([]int64{horror, thriller}, genres)

	movies, err := s.store.MoviesForGenre(s.ctx, horror)
	s.Require().NoError(err)
	s.Equal([]int64{1}, movies)

	all, err := s.store.Movies(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *RedisStoreTestSuite) TestMovieName() {
	s.Require().NoError(s.store.AddMovie(s.ctx, 1, "Cujo"))

	name, ok, err := s.store.MovieName(s.ctx, 1)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("Cujo", name)

	_, ok, err = s.store.MovieName(s.ctx, 99)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisStoreTestSuite) TestMovieDetails() {
	horror, err := s.store.AddOrGetGenre(s.ctx, "Horror")
	s.Require().NoError(err)
	drama, err := s.store.AddOrGetGenre(s.ctx, "Drama")
	s.Require().NoError(err)
	s.Require().NoError(s.store.AddMovie(s.ctx, 2, "The Shining", horror, drama))

	movie, err := s.store.MovieDetails(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().NotNil(movie)
	s.Equal(int64(2), movie.ID)
	s.Equal("The Shining", movie.Name)
	s.Equal([]string{"drama", "horror"}, movie.Genres)

	missing, err := s.store.MovieDetails(s.ctx, 404)
	s.Require().NoError(err)
	s.Nil(missing)
}

func (s *RedisStoreTestSuite) TestAddRatingUpdatesAllIndices() {
	s.Require().NoError(s.store.AddMovie(s.ctx, 1, "Cujo"))
	s.Require().NoError(s.store.AddRating(s.ctx, 10, 1, 3))

	reviewers, err := s.store.Reviewers(s.ctx)
	s.Require().NoError(err)
	s.Contains(reviewers, int64(10))

	forMovie, err := s.store.ReviewersForMovie(s.ctx, 1)
	s.Require().NoError(err)
	s.Contains(forMovie, int64(10))

	score, ok, err := s.store.ReviewerRatingForMovie(s.ctx, 10, 1)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(3.0, score)

	unrated, err := s.store.UnratedMoviesFor(s.ctx, 10)
	s.Require().NoError(err)
	s.NotContains(unrated, int64(1))
}

func (s *RedisStoreTestSuite) TestIgnoreDuplicateRatings() {
	s.Require().NoError(s.store.AddMovie(s.ctx, 1, "Cujo"))
	s.Require().NoError(s.store.AddRating(s.ctx, 10, 1, 3))
	s.Require().NoError(s.store.AddRating(s.ctx, 10, 1, 5))

	score, ok, err := s.store.ReviewerRatingForMovie(s.ctx, 10, 1)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(5.0, score)

	forMovie, err := s.store.ReviewersForMovie(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal([]int64{10}, forMovie)

	pairs, err := s.store.CommonRatingsForMovies(s.ctx, 1, 1)
	s.Require().NoError(err)
	s.Equal([]similarity.Pair{{A: 5, B: 5}}, pairs)
}

func (s *RedisStoreTestSuite) TestReviewerRatingForMovieAbsent() {
	s.seedHorror()

	_, ok, err := s.store.ReviewerRatingForMovie(s.ctx, 10, 2)
	s.Require().NoError(err)
	s.False(ok)

	_, ok, err = s.store.ReviewerRatingForMovie(s.ctx, 999, 1)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisStoreTestSuite) TestGetUnratedMoviesFor() {
	s.Require().NoError(s.store.AddMovie(s.ctx, 1, "Cujo"))
	s.Require().NoError(s.store.AddMovie(s.ctx, 2, "The Shining"))
	s.Require().NoError(s.store.AddRating(s.ctx, 10, 1, 3))

	unrated, err := s.store.UnratedMoviesFor(s.ctx, 10)
	s.Require().NoError(err)
	s.Equal([]int64{2}, unrated)
}

func (s *RedisStoreTestSuite) TestUnratedMoviesForUnknownReviewerIsCatalog() {
	s.seedHorror()

	unrated, err := s.store.UnratedMoviesFor(s.ctx, 12345)
	s.Require().NoError(err)
	s.Equal([]int64{1, 2}, unrated)
}

func (s *RedisStoreTestSuite) TestUnratedMoviesForCompleteReviewerIsEmpty() {
	s.seedHorror()
	s.Require().NoError(s.store.AddRating(s.ctx, 10, 2, 5))

	unrated, err := s.store.UnratedMoviesFor(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(unrated)
}

func (s *RedisStoreTestSuite) TestGetCommonRatingsForReviewers() {
	s.seedHorror()
	// only reviewer 10 rates The Shining
	s.Require().NoError(s.store.AddRating(s.ctx, 10, 2, 5))

	pairs, err := s.store.CommonRatingsForReviewers(s.ctx, 10, 11)
	s.Require().NoError(err)
	s.Equal([]similarity.Pair{{A: 3, B: 4}}, pairs)

	none, err := s.store.CommonRatingsForReviewers(s.ctx, 10, 77)
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *RedisStoreTestSuite) TestGetCommonRatingsForMovies() {
	s.seedHorror()
	s.Require().NoError(s.store.AddRating(s.ctx, 10, 2, 5))
	s.Require().NoError(s.store.AddRating(s.ctx, 11, 2, 2))

	pairs, err := s.store.CommonRatingsForMovies(s.ctx, 1, 2)
	s.Require().NoError(err)
	s.ElementsMatch([]similarity.Pair{{A: 3, B: 5}, {A: 4, B: 2}}, pairs)
}

func (s *RedisStoreTestSuite) TestCommonRatingsSkipHalfWrittenPairs() {
	s.seedHorror()
	// a membership entry without its score, as a torn write would leave it
	s.mr.SAdd("uid:11:reviewed", "2")
	s.Require().NoError(s.store.AddRating(s.ctx, 10, 2, 5))

	pairs, err := s.store.CommonRatingsForReviewers(s.ctx, 10, 11)
	s.Require().NoError(err)
	s.Equal([]similarity.Pair{{A: 3, B: 4}}, pairs)
}

func (s *RedisStoreTestSuite) TestSaveSimilarityScoresOverwrites() {
	s.Require().NoError(s.store.SaveSimilarityScores(s.ctx, 1, []Scored{
		{Score: 0.9, ID: 2}, {Score: 0.5, ID: 3}, {Score: 0.1, ID: 4},
	}))
	s.Require().NoError(s.store.SaveSimilarityScores(s.ctx, 1, []Scored{
		{Score: 0.7, ID: 3}, {Score: 0.8, ID: 5},
	}))

	got, err := s.store.SimilarMovies(s.ctx, 1, 0)
	s.Require().NoError(err)
	s.Equal([]Scored{{Score: 0.8, ID: 5}, {Score: 0.7, ID: 3}}, got)

	top, err := s.store.SimilarMovies(s.ctx, 1, 1)
	s.Require().NoError(err)
	s.Equal([]Scored{{Score: 0.8, ID: 5}}, top)

	s.Require().NoError(s.store.SaveSimilarityScores(s.ctx, 1, nil))
	empty, err := s.store.SimilarMovies(s.ctx, 1, 0)
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *RedisStoreTestSuite) TestClear() {
	s.seedHorror()
	s.Require().NoError(s.store.Clear(s.ctx))

	movies, err := s.store.Movies(s.ctx)
	s.Require().NoError(err)
	s.Empty(movies)

	reviewers, err := s.store.Reviewers(s.ctx)
	s.Require().NoError(err)
	s.Empty(reviewers)
}

func (s *RedisStoreTestSuite) TestBackendUnavailablePropagates() {
	s.mr.Close()

	_, err := s.store.Movies(s.ctx)
	s.Error(err)

	err = s.store.AddRating(s.ctx, 1, 1, 1)
	s.Error(err)
}

func TestNewRedisStoreFailsWithoutServer(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(context.Background(), Options{Addr: addr})
	assert.Error(t, err)
}

func TestNewRedisStoreWithClient(t *testing.T) {
	mr := miniredis.RunT(t)
	st := NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer st.Close()

	require.NoError(t, st.Ping(context.Background()))
}

func TestNormalizeGenre(t *testing.T) {
	assert.Equal(t, "film-noir", NormalizeGenre("  Film-Noir\n"))
	assert.Equal(t, "", NormalizeGenre(" \t"))
}
