package kll

// Update ingests a single value (spec §4.2). NaN is rejected silently
// (it participates in no ordering and would corrupt every invariant
// that depends on one), matching floating-point quantile-sketch
// convention rather than returning an error for it.
func (s *Sketch[T]) Update(value T) error {
	if s.store.IsReadOnly() {
		return ErrReadOnly
	}
	if isNaNT(value) {
		return nil
	}

	nextPos := s.levels[0] - 1
	if nextPos != 0 {
		// Level 0 still has room for this item: this path can never
		// fail, so there is nothing to stage.
		s.updateMinMax(value)
		s.store.Set(nextPos, value)
		s.levels[0] = nextPos
		s.n++
		s.levelZeroSorted = false
		s.invalidateSortedView()
		return nil
	}

	// This insert fills level 0 and triggers compaction, which can
	// fail with ErrInsufficientSpace for a memory-backed sketch whose
	// MemoryProvider refuses to grow (compact.go's addTopLevel). Spec
	// §4.9/§7 require that the sketch's visible state is unchanged
	// when an error is raised, so the whole mutation is staged on a
	// cloned store and levels array and only folded back into s once
	// compact() fully succeeds.
	origMS, wasMemoryBacked := s.store.(*memoryStore[T])

	work := *s
	work.levels = append([]uint32(nil), s.levels...)
	work.store = s.store.Clone()
	work.updateMinMax(value)
	work.store.Set(nextPos, value)
	work.levels[0] = nextPos
	work.n++
	work.levelZeroSorted = false

	clonedMS, _ := work.store.(*memoryStore[T])

	if err := work.compact(); err != nil {
		return err
	}

	if wasMemoryBacked {
		// If compaction never needed to grow, work.store is still the
		// clone: fold its bytes back into the real external region
		// rather than silently detaching the sketch from it.
		if finalMS, ok := work.store.(*memoryStore[T]); ok && finalMS == clonedMS {
			copy(origMS.mem, finalMS.mem)
			finalMS.mem = origMS.mem
		}
	}

	*s = work
	s.invalidateSortedView()
	return nil
}

func (s *Sketch[T]) updateMinMax(value T) {
	if s.IsEmpty() {
		s.minItem, s.maxItem = value, value
		return
	}
	if value < s.minItem {
		s.minItem = value
	}
	if value > s.maxItem {
		s.maxItem = value
	}
}
