package kll

import (
	"encoding/binary"
	"math/rand"

	"github.com/twmb/murmur3"
)

// RandSource supplies the single bit of randomness the compactor
// needs per compaction: the drop parity. Production sketches may use
// any source (thread-local, crypto, or fast PRNG) — correctness of
// the rank-error bound only depends on the bit being unbiased in
// expectation. Tests seed a source for reproducibility.
type RandSource interface {
	// NextBit returns 0 or 1, chosen uniformly at random.
	NextBit() int
}

// mathRandSource is the default production RandSource, backed by
// math/rand.
type mathRandSource struct {
	r *rand.Rand
}

// NewSeededSource returns a deterministic RandSource derived from
// seed. The seed is mixed through murmur3 before seeding the
// underlying generator so that nearby seeds (0, 1, 2, ...) still
// produce well-decorrelated compaction decisions.
func NewSeededSource(seed int64) RandSource {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(seed))
	mixed := murmur3.SeedSum64(0, buf[:])
	return &mathRandSource{r: rand.New(rand.NewSource(int64(mixed)))}
}

func (s *mathRandSource) NextBit() int {
	return s.r.Intn(2)
}

// defaultRandSource is used whenever a Sketch is constructed without
// an explicit RandSource.
func defaultRandSource() RandSource {
	return &mathRandSource{r: rand.New(rand.NewSource(rand.Int63()))}
}

// AlternatingSource is a deterministic RandSource that yields 0, 1, 0,
// 1, ... It makes two independently updated sketches, fed the same
// sequence of values, produce byte-identical compact images — used by
// tests that need reproducible compaction.
type AlternatingSource struct {
	next int
}

// NewAlternatingSource returns an AlternatingSource starting at 0.
func NewAlternatingSource() *AlternatingSource {
	return &AlternatingSource{}
}

func (s *AlternatingSource) NextBit() int {
	b := s.next
	s.next = 1 - s.next
	return b
}
