package kll

import "sort"

// compact repeatedly compacts the lowest over-capacity level until
// none remains (spec §4.4: "if level 0 is still over capacity after
// growth shrank its capacity, repeat").
func (s *Sketch[T]) compact() error {
	for {
		level := findOverCapacityLevel(s.k, s.m, s.numLevels, s.levels)
		if level < 0 {
			return nil
		}
		if err := s.compactLevel(level); err != nil {
			return err
		}
	}
}

// compactLevel halves level (spec §4.4 "Compaction (halving)"),
// growing a new top level first if level is currently the top.
func (s *Sketch[T]) compactLevel(level int) error {
	if level == int(s.numLevels)-1 {
		if err := s.addTopLevel(); err != nil {
			return err
		}
	}
	levels := s.levels

	rawBeg := levels[level]
	rawEnd := levels[level+1]
	popAbove := levels[level+2] - rawEnd
	rawPop := rawEnd - rawBeg

	oddPop := rawPop%2 == 1
	adjBeg := rawBeg
	if oddPop {
		adjBeg++
	}
	adjPop := rawPop
	if oddPop {
		adjPop--
	}
	halfAdjPop := adjPop / 2

	if level == 0 && !s.levelZeroSorted {
		s.sortRange(adjBeg, adjPop)
	}

	if popAbove == 0 {
		s.halveUp(adjBeg, adjPop)
	} else {
		s.halveDown(adjBeg, adjPop)
		s.mergeSortedRanges(adjBeg, halfAdjPop, rawEnd, popAbove, adjBeg+halfAdjPop)
	}

	newTopOfLevel := levels[level+1] - halfAdjPop
	s.levels[level+1] = newTopOfLevel

	if oddPop {
		s.levels[level] = s.levels[level+1] - 1
		s.store.Set(s.levels[level], s.store.Get(rawBeg)) // the leftover item survives
	} else {
		s.levels[level] = s.levels[level+1]
	}

	// Below this level, shift retained items up to close the gap we
	// just opened at [rawBeg, rawBeg+halfAdjPop).
	if level > 0 {
		amount := rawBeg - levels[0]
		for i := amount; i > 0; i-- {
			tgt := levels[0] + halfAdjPop + i - 1
			src := levels[0] + i - 1
			s.store.Set(tgt, s.store.Get(src))
		}
	}
	for lvl := 0; lvl < level; lvl++ {
		s.levels[lvl] = levels[lvl] + halfAdjPop
	}
	return nil
}

// sortRange sorts the half-open store range [beg, beg+length) in
// place, ascending by T's natural order.
func (s *Sketch[T]) sortRange(beg, length uint32) {
	idx := make([]int, length)
	vals := make([]T, length)
	for i := uint32(0); i < length; i++ {
		vals[i] = s.store.Get(beg + i)
		idx[i] = int(i)
	}
	sort.Slice(idx, func(a, b int) bool { return vals[idx[a]] < vals[idx[b]] })
	sorted := make([]T, length)
	for i, j := range idx {
		sorted[i] = vals[j]
	}
	for i := uint32(0); i < length; i++ {
		s.store.Set(beg+i, sorted[i])
	}
}

// halveUp keeps every other item starting at a random parity,
// compacting [start, start+length) down to its top half in place;
// used when there is nothing above this level yet to merge into.
func (s *Sketch[T]) halveUp(start, length uint32) {
	half := length / 2
	offset := uint32(s.rand.NextBit())
	j := (start + length) - 1 - offset
	for i := (start + length) - 1; i >= start+half && i < start+length; i-- {
		s.store.Set(i, s.store.Get(j))
		j -= 2
	}
}

// halveDown is the mirror of halveUp, compacting into the bottom half
// so the result can be merge-sorted with the (already sorted) level
// above it.
func (s *Sketch[T]) halveDown(start, length uint32) {
	half := length / 2
	offset := uint32(s.rand.NextBit())
	j := start + offset
	for i := start; i < start+half; i++ {
		s.store.Set(i, s.store.Get(j))
		j += 2
	}
}

// mergeSortedRanges merge-sorts the sorted ranges
// [startA, startA+lenA) and [startB, startB+lenB) into [startC, ...),
// ascending. Used to fold a halved level into the (sorted) level
// above it.
func (s *Sketch[T]) mergeSortedRanges(startA, lenA, startB, lenB, startC uint32) {
	bufA := make([]T, lenA)
	bufB := make([]T, lenB)
	for i := uint32(0); i < lenA; i++ {
		bufA[i] = s.store.Get(startA + i)
	}
	for i := uint32(0); i < lenB; i++ {
		bufB[i] = s.store.Get(startB + i)
	}
	a, b := uint32(0), uint32(0)
	for c := uint32(0); c < lenA+lenB; c++ {
		switch {
		case a == lenA:
			s.store.Set(startC+c, bufB[b])
			b++
		case b == lenB:
			s.store.Set(startC+c, bufA[a])
			a++
		case bufA[a] < bufB[b]:
			s.store.Set(startC+c, bufA[a])
			a++
		default:
			s.store.Set(startC+c, bufB[b])
			b++
		}
	}
}

// addTopLevel grows the sketch by one level (spec §4.4 "Growth
// schedule"): the items array grows by the level-0 capacity under the
// new level count, every existing item shifts up by that amount so the
// new free space sits below level 0, and the new top level starts
// empty at the end of the array.
func (s *Sketch[T]) addTopLevel() error {
	curNumLevels := s.numLevels
	curLevels := s.levels
	curCapacity := curLevels[curNumLevels]

	deltaCap := levelCapacity(s.k, s.m, curNumLevels+1, 0)
	newCapacity := curCapacity + deltaCap

	growLevelsArr := uint8(len(curLevels)) < curNumLevels+2
	var newLevels []uint32
	newNumLevels := curNumLevels
	if growLevelsArr {
		newLevels = make([]uint32, curNumLevels+2)
		copy(newLevels, curLevels)
		newNumLevels = curNumLevels + 1
	} else {
		newLevels = curLevels
	}
	for level := uint8(0); level <= newNumLevels-1; level++ {
		newLevels[level] += deltaCap
	}
	newLevels[newNumLevels] = newCapacity

	newStore, err := s.growStore(newCapacity)
	if err != nil {
		return err
	}
	for i := uint32(0); i < curCapacity; i++ {
		newStore.Set(i+deltaCap, s.store.Get(i))
	}

	s.store = newStore
	s.numLevels = newNumLevels
	s.levels = newLevels
	return nil
}

// growStore allocates a new, larger backing store, routing through
// the MemoryProvider when the sketch is memory-backed (spec §6.2).
func (s *Sketch[T]) growStore(newCapacity uint32) (itemStore[T], error) {
	switch cur := s.store.(type) {
	case *heapStore[T]:
		return newHeapStore[T](newCapacity), nil
	case *memoryStore[T]:
		if cur.readOnly {
			return nil, ErrReadOnly
		}
		requiredBytes := cur.base + int(newCapacity)*sizeOfT[T]()
		if s.memoryProvider == nil {
			return nil, wrapf(ErrInsufficientSpace, "no memory provider configured")
		}
		newRegion, err := s.memoryProvider.Request(cur.mem, requiredBytes)
		if err != nil {
			return nil, wrapf(ErrInsufficientSpace, "%v", err)
		}
		return newMemoryStore[T](newRegion, cur.base, newCapacity, false), nil
	default:
		return nil, wrapf(ErrCorruptImage, "unknown store backend")
	}
}
