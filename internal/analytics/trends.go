package analytics

import (
	"time"

	"github.com/jonathan/atlas-maximus/internal/types"
)

const (
	// minPredictionPoints is the history needed before a prediction is made.
	minPredictionPoints = 3
	// trendThreshold separates up/down from stable.
	trendThreshold = 0.05

	velocityConfidence = 0.75
	riskConfidence     = 0.70
)

// dayKey buckets a timestamp by its UTC calendar date.
func dayKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// bucketSeries sums values per key in first-seen key order. Keys with no
// records never appear, so the series is sparse.
func bucketSeries[T any](records []T, key func(T) string, value func(T) float64) []types.TrendPoint {
	index := make(map[string]int)
	points := make([]types.TrendPoint, 0)
	for _, r := range records {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(points)
			index[k] = i
			points = append(points, types.TrendPoint{Period: k})
		}
		points[i].Value += value(r)
	}
	return points
}

// dailyCounts counts records per UTC day.
func dailyCounts[T any](records []T, createdAt func(T) time.Time) []types.TrendPoint {
	return bucketSeries(records,
		func(r T) string { return dayKey(createdAt(r)) },
		func(T) float64 { return 1 })
}

// sprintMeans averages a value per sprint label in first-seen order.
func sprintMeans[T any](records []T, sprint func(T) string, value func(T) float64) []types.TrendPoint {
	sums := bucketSeries(records, sprint, value)
	counts := bucketSeries(records, sprint, func(T) float64 { return 1 })
	for i := range sums {
		sums[i].Value /= counts[i].Value
	}
	return sums
}

// CalculateTrend returns the mean relative change between successive values.
// Steps whose previous value is zero are skipped; fewer than two values, or
// no usable step, yields zero.
func CalculateTrend(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sum := 0.0
	steps := 0
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 {
			continue
		}
		sum += (values[i] - prev) / prev
		steps++
	}
	if steps == 0 {
		return 0
	}
	return sum / float64(steps)
}

// ClassifyTrend labels a relative trend as up, down or stable.
func ClassifyTrend(trend float64) types.TrendDirection {
	switch {
	case trend > trendThreshold:
		return types.TrendUp
	case trend < -trendThreshold:
		return types.TrendDown
	default:
		return types.TrendStable
	}
}

// Predict extrapolates the next value of a chronological series by one step
// of its mean relative change. It returns false when there is not enough history.
func Predict(metric string, values []float64, confidence float64) (types.Prediction, bool) {
	if len(values) < minPredictionPoints {
		return types.Prediction{}, false
	}
	trend := CalculateTrend(values)
	return types.Prediction{
		Metric:     metric,
		Prediction: values[len(values)-1] * (1 + trend),
		Confidence: confidence,
		Trend:      ClassifyTrend(trend),
	}, true
}

// predictions wraps Predict into the slice form stored on a snapshot.
func predictions(metric string, values []float64, confidence float64) []types.Prediction {
	out := make([]types.Prediction, 0, 1)
	if p, ok := Predict(metric, values, confidence); ok {
		out = append(out, p)
	}
	return out
}
