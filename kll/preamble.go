package kll

import (
	"encoding/binary"
	"fmt"
)

// Byte offsets of the fixed preamble fields (spec §4.1). The codec
// only ever reads/writes at these offsets; it never allocates.
const (
	offPreambleInts = 0
	offSerVer       = 1
	offFamilyID     = 2
	offFlags        = 3
	offK            = 4 // 2 bytes
	offM            = 6
	// offset 7 is reserved, always 0.
	offN         = 8  // 8 bytes, only present when full
	offMinK      = 16 // 2 bytes, only present when full
	offNumLevels = 18 // 1 byte, only present when full
	// offset 19 is reserved, always 0.

	dataStartSingleItem = 8  // empty or single-item preamble length
	dataStartFull       = 20 // full preamble length (compact or updatable)
)

const (
	serVerSingleItem = 1
	serVerCompact    = 2
	serVerUpdatable  = 3

	preambleIntsEmptyOrSingle = 2
	preambleIntsFull          = 5
)

// flagEmpty etc. are the preamble flag bits (spec §4.1).
const (
	flagEmpty           = 1 << 0
	flagLevelZeroSorted = 1 << 1
	flagSingleItem      = 1 << 2
	flagDoublesSketch   = 1 << 3
	flagUpdatable       = 1 << 4
)

// familyID identifies this package's byte format, distinguishing it
// from unrelated sketch families that might share an address space.
const familyID = 21

func getPreambleInts(mem []byte) int { return int(mem[offPreambleInts]) }
func getSerVer(mem []byte) int       { return int(mem[offSerVer]) }
func getFamilyID(mem []byte) int     { return int(mem[offFamilyID]) }
func getFlags(mem []byte) int        { return int(mem[offFlags]) }

func getEmptyFlag(mem []byte) bool           { return getFlags(mem)&flagEmpty != 0 }
func getLevelZeroSortedFlag(mem []byte) bool { return getFlags(mem)&flagLevelZeroSorted != 0 }
func getSingleItemFlag(mem []byte) bool      { return getFlags(mem)&flagSingleItem != 0 }
func getDoublesFlag(mem []byte) bool         { return getFlags(mem)&flagDoublesSketch != 0 }
func getUpdatableFlag(mem []byte) bool       { return getFlags(mem)&flagUpdatable != 0 }

func getPreambleK(mem []byte) uint16 { return binary.LittleEndian.Uint16(mem[offK : offK+2]) }
func getPreambleM(mem []byte) uint8  { return mem[offM] }

func getPreambleN(mem []byte) uint64 { return binary.LittleEndian.Uint64(mem[offN : offN+8]) }
func getPreambleMinK(mem []byte) uint16 {
	return binary.LittleEndian.Uint16(mem[offMinK : offMinK+2])
}
func getPreambleNumLevels(mem []byte) uint8 { return mem[offNumLevels] }

func putPreambleInts(mem []byte, v int)  { mem[offPreambleInts] = byte(v) }
func putSerVer(mem []byte, v int)        { mem[offSerVer] = byte(v) }
func putFamilyID(mem []byte)             { mem[offFamilyID] = familyID }
func putFlags(mem []byte, v int)         { mem[offFlags] = byte(v) }
func putPreambleK(mem []byte, k uint16)  { binary.LittleEndian.PutUint16(mem[offK:offK+2], k) }
func putPreambleM(mem []byte, m uint8)   { mem[offM] = m }
func putPreambleN(mem []byte, n uint64)  { binary.LittleEndian.PutUint64(mem[offN:offN+8], n) }
func putPreambleMinK(mem []byte, minK uint16) {
	binary.LittleEndian.PutUint16(mem[offMinK:offMinK+2], minK)
}
func putPreambleNumLevels(mem []byte, n uint8) { mem[offNumLevels] = n }

// imageLayout classifies a preamble's (preambleInts, serVer) pair into
// one of the four structures spec §4.8/§6.1 defines.
type imageLayout int

const (
	layoutEmpty imageLayout = iota
	layoutSingleItem
	layoutCompact
	layoutUpdatable
)

// resolveLayout classifies a preamble's (preambleInts, serVer) pair,
// cross-checking it against the flag bits that are redundant with
// that classification (single-item, updatable) so a torn or
// hand-edited image is rejected rather than silently misread.
func resolveLayout(mem []byte) (imageLayout, error) {
	preambleInts, serVer, emptyFlag := getPreambleInts(mem), getSerVer(mem), getEmptyFlag(mem)
	singleItemFlag, updatableFlag := getSingleItemFlag(mem), getUpdatableFlag(mem)
	switch {
	case preambleInts == preambleIntsEmptyOrSingle && serVer == serVerCompact && emptyFlag && !singleItemFlag:
		return layoutEmpty, nil
	case preambleInts == preambleIntsEmptyOrSingle && serVer == serVerSingleItem && !emptyFlag && singleItemFlag:
		return layoutSingleItem, nil
	case preambleInts == preambleIntsFull && serVer == serVerCompact && !emptyFlag && !updatableFlag:
		return layoutCompact, nil
	case preambleInts == preambleIntsFull && serVer == serVerUpdatable && updatableFlag:
		return layoutUpdatable, nil
	default:
		return 0, fmt.Errorf("preambleInts=%d serVer=%d empty=%v: %w", preambleInts, serVer, emptyFlag, ErrCorruptImage)
	}
}

func checkK(k uint16, m uint8) error {
	if k < uint16(m) || k > MaxK {
		return wrapf(ErrInvalidArgument, "k must be in [%d, %d]: got %d", m, MaxK, k)
	}
	return nil
}

func checkM(m uint8) error {
	if m < MinM || m > MaxM || m%2 != 0 {
		return wrapf(ErrInvalidArgument, "m must be even and in [%d, %d]: got %d", MinM, MaxM, m)
	}
	return nil
}
