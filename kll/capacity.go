package kll

// powersOfThree[i] == 3^i, used by levelCapacity to compute
// k*(2/3)^depth with exact integer arithmetic instead of
// floating-point rounding.
var powersOfThree = [...]uint64{
	1, 3, 9, 27, 81, 243, 729, 2187, 6561, 19683, 59049, 177147, 531441,
	1594323, 4782969, 14348907, 43046721, 129140163, 387420489, 1162261467,
	3486784401, 10460353203, 31381059609, 94143178827, 282429536481,
	847288609443, 2541865828329, 7625597484987, 22876792454961, 68630377364883,
	205891132094649,
}

// levelCapacity is cap(i) from spec §4.4:
//
//	cap(i) = max(m, ceil(k * (2/3)^(numLevels - i - 1)))
func levelCapacity(k uint16, m uint8, numLevels, level uint8) uint32 {
	depth := numLevels - level - 1
	return max(uint32(m), intCapAux(k, depth))
}

func intCapAux(k uint16, depth uint8) uint32 {
	if depth <= 30 {
		return intCapAuxAux(k, depth)
	}
	half := depth / 2
	rest := depth - half
	tmp := intCapAuxAux(k, half)
	return intCapAuxAux(uint16(tmp), rest)
}

func intCapAuxAux(k uint16, depth uint8) uint32 {
	num := uint64(k) << depth
	den := powersOfThree[depth]
	result := (num + den - 1) / den // round up: ceil(k * 2^depth / 3^depth).
	if result <= uint64(k) {
		return uint32(result)
	}
	return uint32(k)
}

// findOverCapacityLevel scans from level 0 upward and returns the
// first level whose population has reached its capacity, or -1 if
// none has.
func findOverCapacityLevel(k uint16, m uint8, numLevels uint8, levels []uint32) int {
	for level := uint8(0); level < numLevels; level++ {
		pop := levelSize(levels, int(level))
		if pop >= levelCapacity(k, m, numLevels, level) {
			return int(level)
		}
	}
	return -1
}
