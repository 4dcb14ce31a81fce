package kll

import "math"

const (
	pmfCoef = 2.446
	pmfExp  = 0.9433
	cdfCoef = 2.296
	cdfExp  = 0.9723
)

// Rank returns the normalized rank (fraction of the stream) that
// falls at or below value under the given Criterion (spec §4.7).
func (s *Sketch[T]) Rank(value T, criterion Criterion) (float64, error) {
	if s.IsEmpty() {
		return 0, ErrEmptySketch
	}
	return s.ensureSortedView().rankOf(value, criterion), nil
}

// Quantile returns the smallest retained value whose cumulative weight
// is at least rank*N (Inclusive) or strictly greater than rank*N
// (Exclusive). rank must be in [0, 1]. rank == 0 and rank == 1 always return the
// exact tracked minItem/maxItem rather than a value drawn from the
// retained sample, since compaction can discard the sample's own
// extremes while minItem/maxItem stay exact (spec §4.7, §8 Boundary).
func (s *Sketch[T]) Quantile(rank float64, criterion Criterion) (T, error) {
	var zero T
	if s.IsEmpty() {
		return zero, ErrEmptySketch
	}
	if rank < 0 || rank > 1 {
		return zero, wrapf(ErrInvalidArgument, "rank %f not in [0,1]", rank)
	}
	if rank == 0 {
		return s.minItem, nil
	}
	if rank == 1 {
		return s.maxItem, nil
	}
	return s.ensureSortedView().quantileAt(rank, criterion), nil
}

// Ranks batches Rank over multiple values, sharing one sorted view
// across the whole call.
func (s *Sketch[T]) Ranks(values []T, criterion Criterion) ([]float64, error) {
	if s.IsEmpty() {
		return nil, ErrEmptySketch
	}
	sv := s.ensureSortedView()
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = sv.rankOf(v, criterion)
	}
	return out, nil
}

// Quantiles batches Quantile over multiple ranks, sharing one sorted
// view across the whole call.
func (s *Sketch[T]) Quantiles(ranks []float64, criterion Criterion) ([]T, error) {
	if s.IsEmpty() {
		return nil, ErrEmptySketch
	}
	sv := s.ensureSortedView()
	out := make([]T, len(ranks))
	for i, r := range ranks {
		if r < 0 || r > 1 {
			return nil, wrapf(ErrInvalidArgument, "rank %f not in [0,1]", r)
		}
		switch r {
		case 0:
			out[i] = s.minItem
		case 1:
			out[i] = s.maxItem
		default:
			out[i] = sv.quantileAt(r, criterion)
		}
	}
	return out, nil
}

// CDF returns, for each split point, the normalized rank at or below
// it, followed by a final 1.0 — one more entry than len(splitPoints),
// matching the PMF bucket-boundary convention.
func (s *Sketch[T]) CDF(splitPoints []T, criterion Criterion) ([]float64, error) {
	if s.IsEmpty() {
		return nil, ErrEmptySketch
	}
	if err := checkSplitPoints(splitPoints); err != nil {
		return nil, err
	}
	sv := s.ensureSortedView()
	out := make([]float64, len(splitPoints)+1)
	for i, v := range splitPoints {
		out[i] = sv.rankOf(v, criterion)
	}
	out[len(splitPoints)] = 1.0
	return out, nil
}

// PMF returns the probability mass in each bucket delimited by
// splitPoints: bucket i covers (splitPoints[i-1], splitPoints[i]]
// (or the symmetric open/closed form under Exclusive), with one more
// bucket than len(splitPoints).
func (s *Sketch[T]) PMF(splitPoints []T, criterion Criterion) ([]float64, error) {
	cdf, err := s.CDF(splitPoints, criterion)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(cdf))
	prev := 0.0
	for i, c := range cdf {
		out[i] = c - prev
		prev = c
	}
	return out, nil
}

func checkSplitPoints[T Float](points []T) error {
	for i, p := range points {
		if isNaNT(p) {
			return wrapf(ErrInvalidArgument, "split point %d is NaN", i)
		}
		if i > 0 && points[i-1] >= p {
			return wrapf(ErrInvalidArgument, "split points must be strictly increasing")
		}
	}
	return nil
}

// PartitionBoundaries returns numParts+1 split points (inclusive of
// the exact min and max) whose intervals each hold close to 1/numParts
// of the stream's mass, via Quantiles at evenly spaced ranks.
func (s *Sketch[T]) PartitionBoundaries(numParts int) ([]T, error) {
	if numParts < 1 {
		return nil, wrapf(ErrInvalidArgument, "numParts must be >= 1, got %d", numParts)
	}
	if s.IsEmpty() {
		return nil, ErrEmptySketch
	}
	ranks := make([]float64, numParts+1)
	for i := range ranks {
		ranks[i] = float64(i) / float64(numParts)
	}
	bounds, err := s.Quantiles(ranks, Inclusive)
	if err != nil {
		return nil, err
	}
	minItem, _ := s.MinItem()
	maxItem, _ := s.MaxItem()
	bounds[0] = minItem
	bounds[len(bounds)-1] = maxItem
	return bounds, nil
}

// GetNormalizedRankError returns this sketch's approximate bound on
// rank error at its current minK, either the PMF (two-sided) or CDF
// (one-sided) form (spec §4.8's closed-form error curve).
func (s *Sketch[T]) GetNormalizedRankError(pmf bool) float64 {
	return normalizedRankError(s.minK, pmf)
}

func normalizedRankError(k uint16, pmf bool) float64 {
	if pmf {
		return pmfCoef / math.Pow(float64(k), pmfExp)
	}
	return cdfCoef / math.Pow(float64(k), cdfExp)
}

// GetKFromEpsilon returns the smallest k whose GetNormalizedRankError
// is at most epsilon, by inverting the closed-form error curve.
func GetKFromEpsilon(epsilon float64, pmf bool) uint16 {
	coef, exp := cdfCoef, cdfExp
	if pmf {
		coef, exp = pmfCoef, pmfExp
	}
	k := math.Pow(coef/epsilon, 1/exp)
	ik := uint16(math.Ceil(k))
	if ik < 1 {
		ik = 1
	}
	if uint32(ik) > uint32(MaxK) {
		ik = MaxK
	}
	return ik
}
