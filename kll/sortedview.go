package kll

import (
	"math"
	"sort"
)

// sortedView is the lazily materialized (value, cumulative weight)
// projection every rank/quantile query runs against (spec §4.6). It
// is rebuilt from the current levels on first use after a mutation
// and cached until the next Update, Merge, or Reset invalidates it.
type sortedView[T Float] struct {
	values  []T
	weights []uint64 // weights[i] is the cumulative weight through values[i], inclusive
	total   uint64
}

// ensureSortedView returns the cached view, building one if needed.
func (s *Sketch[T]) ensureSortedView() *sortedView[T] {
	if s.sv != nil {
		return s.sv
	}
	s.sv = buildSortedView(s)
	return s.sv
}

func buildSortedView[T Float](s *Sketch[T]) *sortedView[T] {
	n := int(s.NumRetained())
	type entry struct {
		value  T
		weight uint64
	}
	entries := make([]entry, 0, n)
	for level := uint8(0); level < s.numLevels; level++ {
		weight := uint64(1) << level
		beg, end := s.levels[level], s.levels[level+1]
		for i := beg; i < end; i++ {
			entries = append(entries, entry{value: s.store.Get(i), weight: weight})
		}
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].value < entries[b].value })

	sv := &sortedView[T]{
		values:  make([]T, len(entries)),
		weights: make([]uint64, len(entries)),
	}
	var cum uint64
	for i, e := range entries {
		cum += e.weight
		sv.values[i] = e.value
		sv.weights[i] = cum
	}
	sv.total = cum
	return sv
}

// rankOf returns the normalized rank of value under the given
// Criterion: Inclusive yields the fraction of the stream <= value,
// Exclusive the fraction strictly < value.
func (sv *sortedView[T]) rankOf(value T, criterion Criterion) float64 {
	if len(sv.values) == 0 {
		return 0
	}
	var idx int
	if criterion == Inclusive {
		idx = sort.Search(len(sv.values), func(i int) bool { return sv.values[i] > value })
	} else {
		idx = sort.Search(len(sv.values), func(i int) bool { return sv.values[i] >= value })
	}
	if idx == 0 {
		return 0
	}
	return float64(sv.weights[idx-1]) / float64(sv.total)
}

// quantileAt returns the first value in sorted order whose cumulative
// weight is at least rank*total (Inclusive) or strictly greater than
// rank*total (Exclusive).
func (sv *sortedView[T]) quantileAt(rank float64, criterion Criterion) T {
	if len(sv.values) == 0 {
		var zero T
		return zero
	}
	targetWeight := uint64(math.Ceil(rank * float64(sv.total)))
	if targetWeight < 1 {
		targetWeight = 1
	}
	if targetWeight > sv.total {
		targetWeight = sv.total
	}
	idx := sort.Search(len(sv.weights), func(i int) bool { return sv.weights[i] >= targetWeight })
	if idx >= len(sv.values) {
		idx = len(sv.values) - 1
	}
	if criterion == Exclusive && idx+1 < len(sv.values) && sv.weights[idx] == targetWeight &&
		float64(targetWeight) == rank*float64(sv.total) && targetWeight < sv.total {
		// an exclusive query whose target equals this entry's
		// cumulative weight exactly belongs to the next entry.
		idx++
	}
	return sv.values[idx]
}
