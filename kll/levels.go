package kll

// The levels array (spec §4.2) is the ordered sequence of offsets
// delimiting each level inside the items array: level i occupies
// positions [levels[i], levels[i+1]). levels[numLevels] is always the
// items-array capacity.

// levelSize returns the number of items currently retained at level.
func levelSize(levels []uint32, level int) uint32 {
	return levels[level+1] - levels[level]
}

// numRetained returns the total number of retained items across all
// levels (the space between level 0's current position and the top of
// the items array).
func numRetained(levels []uint32, numLevels int) uint32 {
	return levels[numLevels] - levels[0]
}
