package kll

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge_EmptyOtherIsNoOp(t *testing.T) {
	s, _ := NewHeap[float64](200, DefaultM)
	assert.NoError(t, s.Update(1))
	assert.NoError(t, s.Update(2))
	other, _ := NewHeap[float64](200, DefaultM)
	assert.NoError(t, s.Merge(other))
	assert.Equal(t, uint64(2), s.N())
}

func TestMerge_EmptySelfTakesOther(t *testing.T) {
	s, _ := NewHeap[float64](200, DefaultM)
	other, _ := NewHeap[float64](200, DefaultM)
	for i := 0; i < 10000; i++ {
		assert.NoError(t, other.Update(float64(i)))
	}
	assert.NoError(t, s.Merge(other))
	assert.Equal(t, other.N(), s.N())
	mn, _ := s.MinItem()
	mx, _ := s.MaxItem()
	assert.Equal(t, 0.0, mn)
	assert.Equal(t, 9999.0, mx)
}

func TestMerge_NMatchesSumAndMinMax(t *testing.T) {
	a, _ := NewHeap[float64](200, DefaultM)
	b, _ := NewHeap[float64](200, DefaultM)
	for i := 0; i < 50000; i++ {
		assert.NoError(t, a.Update(float64(i)))
	}
	for i := 50000; i < 120000; i++ {
		assert.NoError(t, b.Update(float64(i)))
	}
	wantN := a.N() + b.N()
	assert.NoError(t, a.Merge(b))
	assert.Equal(t, wantN, a.N())

	mn, _ := a.MinItem()
	mx, _ := a.MaxItem()
	assert.Equal(t, 0.0, mn)
	assert.Equal(t, 119999.0, mx)

	median, err := a.Quantile(0.5, Inclusive)
	assert.NoError(t, err)
	assert.InDelta(t, 60000, median, 6000)

	var total uint64
	it := a.Iterator()
	for it.Next() {
		total += it.Weight()
	}
	assert.Equal(t, wantN, total)
}

func TestMerge_LowerKContagion(t *testing.T) {
	a, _ := NewHeap[float64](200, DefaultM)
	b, _ := NewHeap[float64](80, DefaultM)
	for i := 0; i < 1000; i++ {
		assert.NoError(t, a.Update(float64(i)))
	}
	for i := 0; i < 1000; i++ {
		assert.NoError(t, b.Update(float64(i)))
	}
	assert.NoError(t, a.Merge(b))
	assert.Equal(t, uint16(80), a.MinK())
}

func TestMerge_DifferentMRejected(t *testing.T) {
	a, _ := NewHeap[float64](200, 8)
	b, _ := NewHeap[float64](200, 4)
	assert.NoError(t, a.Update(1))
	assert.NoError(t, b.Update(1))
	err := a.Merge(b)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
