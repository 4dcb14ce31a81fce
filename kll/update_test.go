package kll

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdate_ExactModeBelowK(t *testing.T) {
	s, err := NewHeap[float64](200, DefaultM)
	assert.NoError(t, err)
	for i := 0; i < 100; i++ {
		assert.NoError(t, s.Update(float64(i)))
	}
	assert.False(t, s.IsEstimationMode())
	assert.Equal(t, uint64(100), s.N())
	assert.Equal(t, uint32(100), s.NumRetained())

	mn, _ := s.MinItem()
	mx, _ := s.MaxItem()
	assert.Equal(t, 0.0, mn)
	assert.Equal(t, 99.0, mx)
}

func TestUpdate_TriggersCompactionAndKeepsInvariants(t *testing.T) {
	s, err := NewHeapWithSource[float64](200, DefaultM, NewAlternatingSource())
	assert.NoError(t, err)
	const n = 200000
	for i := 0; i < n; i++ {
		assert.NoError(t, s.Update(float64(i)))
	}
	assert.True(t, s.IsEstimationMode())
	assert.Equal(t, uint64(n), s.N())

	mn, _ := s.MinItem()
	mx, _ := s.MaxItem()
	assert.Equal(t, 0.0, mn)
	assert.Equal(t, float64(n-1), mx)

	// numRetained must stay far below n once estimation mode kicks in.
	assert.Less(t, s.NumRetained(), uint32(n/10))

	// the weighted sum over every retained item must equal n exactly.
	var total uint64
	it := s.Iterator()
	for it.Next() {
		total += it.Weight()
	}
	assert.Equal(t, uint64(n), total)
}

func TestUpdate_ReverseOrderIngest(t *testing.T) {
	s, err := NewHeap[float64](256, DefaultM)
	assert.NoError(t, err)
	const n = 50000
	for i := n - 1; i >= 0; i-- {
		assert.NoError(t, s.Update(float64(i)))
	}
	assert.Equal(t, uint64(n), s.N())
	mn, _ := s.MinItem()
	mx, _ := s.MaxItem()
	assert.Equal(t, 0.0, mn)
	assert.Equal(t, float64(n-1), mx)

	median, err := s.Quantile(0.5, Inclusive)
	assert.NoError(t, err)
	assert.InDelta(t, float64(n)/2, median, float64(n)*0.05)
}

func TestUpdate_ReadOnlyRejected(t *testing.T) {
	s, err := NewHeap[float64](200, DefaultM)
	assert.NoError(t, err)
	assert.NoError(t, s.Update(1))
	img := s.ToCompactSlice()
	ro, err := Wrap[float64](img, true, nil)
	assert.NoError(t, err)
	assert.ErrorIs(t, ro.Update(2), ErrReadOnly)
}
