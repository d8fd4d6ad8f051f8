// Package similarity holds the coefficients used to compare two reviewers
// (or two movies) over the items they have both rated.
package similarity

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Pair is one commonly rated item: A is the first subject's score, B the second's.
type Pair struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// Func computes a similarity coefficient over paired ratings.
// Higher means more alike.
type Func interface {
	Similarity(pairs []Pair) float64
}

// FuncOf adapts a plain function to Func.
type FuncOf func(pairs []Pair) float64

func (f FuncOf) Similarity(pairs []Pair) float64 { return f(pairs) }

var ErrUnknownFunc = errors.New("unknown similarity function")

const (
	NameDistance = "distance"
	NamePearson  = "pearson"
)

var (
	// Distance is the Euclidean distance score, in (0, 1].
	Distance Func = FuncOf(distance)
	// Pearson is the Pearson correlation coefficient, in [-1, 1].
	Pearson Func = FuncOf(pearson)
)

// ByName resolves a similarity function from its configured name.
func ByName(name string) (Func, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameDistance, "euclidean":
		return Distance, nil
	case NamePearson:
		return Pearson, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunc, name)
	}
}

func split(pairs []Pair) (a, b []float64) {
	a = make([]float64, len(pairs))
	b = make([]float64, len(pairs))
	for i, p := range pairs {
		a[i], b[i] = p.A, p.B
	}
	return a, b
}

// distance returns 1/(1+sqrt(sum of squared differences)).
// No common ratings means zero distance, so the result is 1.
func distance(pairs []Pair) float64 {
	a, b := split(pairs)
	return 1 / (1 + floats.Distance(a, b, 2))
}

// pearson returns 0 for empty input and when either side has no variance.
func pearson(pairs []Pair) float64 {
	n := float64(len(pairs))
	if n == 0 {
		return 0
	}
	a, b := split(pairs)

	sumA, sumB := floats.Sum(a), floats.Sum(b)
	sumSqA, sumSqB := floats.Dot(a, a), floats.Dot(b, b)
	sumProducts := floats.Dot(a, b)

	numerator := sumProducts - (sumA * sumB / n)
	variance := (sumSqA - sumA*sumA/n) * (sumSqB - sumB*sumB/n)
	// rounding can push a zero variance slightly negative
	if variance <= 0 {
		return 0
	}
	denominator := math.Sqrt(variance)
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
