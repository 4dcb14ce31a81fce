package kll

// Merge folds other into s in place (spec §4.5). Every level of self
// and other is merge-sorted into a freshly built items array (level 0
// is sorted first if either side left it dirty), minK becomes the
// smaller of the two — once a sketch has been merged against a
// lower-k source it inherits that source's weaker error bound — and
// the result is compacted until every level's schedule invariant
// holds again.
//
// Go's generics already forbid merging sketches of different T at
// compile time, so unlike loading a byte image there is no
// type-mismatch case to report here.
func (s *Sketch[T]) Merge(other *Sketch[T]) error {
	if s.store.IsReadOnly() {
		return ErrReadOnly
	}
	if other == nil || other.IsEmpty() {
		return nil
	}
	if other.m != s.m {
		return wrapf(ErrInvalidArgument, "cannot merge sketches with different m (%d vs %d)", s.m, other.m)
	}

	newMinK := s.minK
	if other.minK < newMinK {
		newMinK = other.minK
	}
	newMinItem, newMaxItem := s.minItem, s.maxItem
	if s.IsEmpty() {
		newMinItem, newMaxItem = other.minItem, other.maxItem
	} else {
		if other.minItem < newMinItem {
			newMinItem = other.minItem
		}
		if other.maxItem > newMaxItem {
			newMaxItem = other.maxItem
		}
	}
	finalN := s.n + other.n

	newNumLevels := s.numLevels
	if other.numLevels > newNumLevels {
		newNumLevels = other.numLevels
	}

	merged := make([][]T, newNumLevels)
	for level := uint8(0); level < newNumLevels; level++ {
		a := s.sortedLevelValues(level)
		b := other.sortedLevelValues(level)
		merged[level] = mergeSortedSlices(a, b)
	}

	lvl0Cap := levelCapacity(s.k, s.m, newNumLevels, 0)
	lvl0Pop := uint32(len(merged[0]))
	lvl0Region := lvl0Cap
	if lvl0Pop > lvl0Region {
		lvl0Region = lvl0Pop
	}

	totalSize := lvl0Region
	for level := uint8(1); level < newNumLevels; level++ {
		totalSize += uint32(len(merged[level]))
	}

	// Stage the merged result on a working copy: growStore and compact
	// can fail with ErrInsufficientSpace for a memory-backed sketch, and
	// spec §4.9/§7 require s to be left untouched when that happens.
	// growStore itself never mutates the pre-existing store in place
	// (it only ever returns a brand-new store or an error), so unlike
	// Update there is nothing here that needs a defensive Clone.
	work := *s
	newStore, err := work.growStore(totalSize)
	if err != nil {
		return err
	}

	newLevels := make([]uint32, newNumLevels+1)
	idx := lvl0Region - lvl0Pop
	newLevels[0] = idx
	for i, v := range merged[0] {
		newStore.Set(idx+uint32(i), v)
	}
	idx = lvl0Region
	newLevels[1] = idx
	for level := uint8(1); level < newNumLevels; level++ {
		for i, v := range merged[level] {
			newStore.Set(idx+uint32(i), v)
		}
		idx += uint32(len(merged[level]))
		newLevels[level+1] = idx
	}

	work.store = newStore
	work.levels = newLevels
	work.numLevels = newNumLevels
	work.n = finalN
	work.minK = newMinK
	work.minItem, work.maxItem = newMinItem, newMaxItem
	work.levelZeroSorted = true
	if err := work.compact(); err != nil {
		return err
	}

	*s = work
	s.invalidateSortedView()
	return nil
}

// sortedLevelValues returns level's items in ascending order, sorting
// a private copy if the sketch had not already sorted level 0. Levels
// above 0 are always kept sorted as an invariant of compaction.
func (s *Sketch[T]) sortedLevelValues(level uint8) []T {
	if level >= s.numLevels {
		return nil
	}
	beg, end := s.levels[level], s.levels[level+1]
	out := make([]T, end-beg)
	for i := range out {
		out[i] = s.store.Get(beg + uint32(i))
	}
	if level == 0 && !s.levelZeroSorted {
		insertionSort(out)
	}
	return out
}

func insertionSort[T Float](vals []T) {
	for i := 1; i < len(vals); i++ {
		for j := i; j > 0 && vals[j-1] > vals[j]; j-- {
			vals[j-1], vals[j] = vals[j], vals[j-1]
		}
	}
}

// mergeSortedSlices merges two ascending slices into one ascending slice.
func mergeSortedSlices[T Float](a, b []T) []T {
	out := make([]T, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
