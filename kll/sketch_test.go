package kll

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewHeap_KLimits(t *testing.T) {
	_, err := NewHeap[float64](MinM, DefaultM)
	assert.Error(t, err) // k < m

	_, err = NewHeap[float64](uint16(MaxM), DefaultM)
	assert.NoError(t, err)

	_, err = NewHeap[float64](MaxK, DefaultM)
	assert.NoError(t, err)
}

func TestNewHeap_MLimits(t *testing.T) {
	_, err := NewHeap[float64](DefaultK, 1)
	assert.Error(t, err) // below MinM

	_, err = NewHeap[float64](DefaultK, 9)
	assert.Error(t, err) // above MaxM

	_, err = NewHeap[float64](DefaultK, 3)
	assert.Error(t, err) // odd
}

func TestSketch_Empty(t *testing.T) {
	s, err := NewHeap[float64](200, DefaultM)
	assert.NoError(t, err)
	assert.True(t, s.IsEmpty())
	assert.False(t, s.IsEstimationMode())
	assert.Equal(t, uint64(0), s.N())
	assert.Equal(t, uint32(0), s.NumRetained())

	_, err = s.MinItem()
	assert.ErrorIs(t, err, ErrEmptySketch)
	_, err = s.MaxItem()
	assert.ErrorIs(t, err, ErrEmptySketch)

	_, err = s.Quantile(0.5, Inclusive)
	assert.ErrorIs(t, err, ErrEmptySketch)
	_, err = s.Rank(0, Inclusive)
	assert.ErrorIs(t, err, ErrEmptySketch)
}

func TestSketch_SingleUpdate(t *testing.T) {
	s, err := NewHeap[float64](200, DefaultM)
	assert.NoError(t, err)
	assert.NoError(t, s.Update(42))

	assert.False(t, s.IsEmpty())
	assert.Equal(t, uint64(1), s.N())
	assert.Equal(t, uint32(1), s.NumRetained())
	assert.False(t, s.IsEstimationMode())

	mn, err := s.MinItem()
	assert.NoError(t, err)
	assert.Equal(t, 42.0, mn)
	mx, err := s.MaxItem()
	assert.NoError(t, err)
	assert.Equal(t, 42.0, mx)
}

func TestSketch_NaNIsRejected(t *testing.T) {
	s, err := NewHeap[float64](200, DefaultM)
	assert.NoError(t, err)
	nan := 0.0
	nan = nan / nan
	assert.NoError(t, s.Update(nan))
	assert.True(t, s.IsEmpty())
	assert.Equal(t, uint64(0), s.N())
}

func TestSketch_Reset(t *testing.T) {
	s, err := NewHeap[float64](200, DefaultM)
	assert.NoError(t, err)
	for i := 0; i < 1000; i++ {
		assert.NoError(t, s.Update(float64(i)))
	}
	assert.True(t, s.N() > 0)

	assert.NoError(t, s.Reset())
	assert.True(t, s.IsEmpty())
	assert.Equal(t, uint64(0), s.N())
	assert.Equal(t, DefaultK, s.K())
}

func TestSketch_ReadOnlyRejectsMutation(t *testing.T) {
	s, err := NewHeap[float64](200, DefaultM)
	assert.NoError(t, err)
	for i := 0; i < 500; i++ {
		assert.NoError(t, s.Update(float64(i)))
	}
	img := s.ToCompactSlice()

	wrapped, err := Wrap[float64](img, true, nil)
	assert.NoError(t, err)
	assert.True(t, wrapped.IsReadOnly())
	assert.ErrorIs(t, wrapped.Update(1.0), ErrReadOnly)
	assert.ErrorIs(t, wrapped.Reset(), ErrReadOnly)
	assert.ErrorIs(t, wrapped.Merge(s), ErrReadOnly)
}
