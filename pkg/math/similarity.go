package math

import (
	"fmt"
	"math"
)

// CosineSimilarity calculates the cosine similarity between two vectors.
// A zero-magnitude vector is orthogonal to everything and scores 0.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have same length: %d != %d", len(a), len(b))
	}

	var dotProduct, magnitudeA, magnitudeB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		magnitudeA += a[i] * a[i]
		magnitudeB += b[i] * b[i]
	}

	magnitudeA = math.Sqrt(magnitudeA)
	magnitudeB = math.Sqrt(magnitudeB)

	if magnitudeA == 0 || magnitudeB == 0 {
		return 0, nil
	}

	similarity := dotProduct / (magnitudeA * magnitudeB)
	// Rounding can push identical vectors a hair past 1.
	return math.Max(-1, math.Min(1, similarity)), nil
}

// Mean returns the component-wise mean of the given vectors.
func Mean(vectors [][]float64) ([]float64, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("cannot average zero vectors")
	}

	dim := len(vectors[0])
	mean := make([]float64, dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has length %d, expected %d", i, len(v), dim)
		}
		for j, x := range v {
			mean[j] += x
		}
	}

	n := float64(len(vectors))
	for j := range mean {
		mean[j] /= n
	}
	return mean, nil
}

// Round rounds x to the given number of decimal places.
func Round(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(x*scale) / scale
}

// ToFloat64 widens a float32 vector as returned by most embedding APIs.
func ToFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
