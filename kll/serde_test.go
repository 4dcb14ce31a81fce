package kll

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSerde_EmptyRoundTrip(t *testing.T) {
	s, _ := NewHeap[float64](200, DefaultM)
	img := s.ToCompactSlice()
	assert.Equal(t, dataStartSingleItem, len(img))
	assert.Equal(t, s.SerializedSizeBytes(), len(img))

	back, err := Heapify[float64](img)
	assert.NoError(t, err)
	assert.True(t, back.IsEmpty())
	assert.Equal(t, s.K(), back.K())
	assert.Equal(t, s.M(), back.M())
}

func TestSerde_SingleItemRoundTrip(t *testing.T) {
	s, _ := NewHeap[float64](200, DefaultM)
	assert.NoError(t, s.Update(3.25))
	img := s.ToCompactSlice()
	assert.Equal(t, dataStartSingleItem+8, len(img))
	assert.Equal(t, s.SerializedSizeBytes(), len(img))

	back, err := Heapify[float64](img)
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), back.N())
	mn, _ := back.MinItem()
	assert.Equal(t, 3.25, mn)
}

func TestSerde_FullCompactRoundTrip(t *testing.T) {
	s, _ := NewHeapWithSource[float64](200, DefaultM, NewSeededSource(3))
	for i := 0; i < 50000; i++ {
		assert.NoError(t, s.Update(float64(i)))
	}
	img := s.ToCompactSlice()
	assert.Equal(t, s.SerializedSizeBytes(), len(img))

	back, err := Heapify[float64](img)
	assert.NoError(t, err)
	assert.Equal(t, s.N(), back.N())
	assert.Equal(t, s.NumRetained(), back.NumRetained())
	assert.Equal(t, s.MinK(), back.MinK())

	mn1, _ := s.MinItem()
	mn2, _ := back.MinItem()
	assert.Equal(t, mn1, mn2)
	mx1, _ := s.MaxItem()
	mx2, _ := back.MaxItem()
	assert.Equal(t, mx1, mx2)

	q1, _ := s.Quantile(0.5, Inclusive)
	q2, _ := back.Quantile(0.5, Inclusive)
	assert.Equal(t, q1, q2)
}

func TestSerde_WrapCompactIsReadOnly(t *testing.T) {
	s, _ := NewHeap[float64](200, DefaultM)
	for i := 0; i < 1000; i++ {
		assert.NoError(t, s.Update(float64(i)))
	}
	img := s.ToCompactSlice()
	wrapped, err := Wrap[float64](img, false, nil) // readOnly arg is ignored for compact images
	assert.NoError(t, err)
	assert.True(t, wrapped.IsReadOnly())
}

func TestSerde_Float32Image(t *testing.T) {
	s, _ := NewHeap[float32](200, DefaultM)
	for i := 0; i < 1000; i++ {
		assert.NoError(t, s.Update(float32(i)))
	}
	img := s.ToCompactSlice()
	back, err := Heapify[float32](img)
	assert.NoError(t, err)
	assert.Equal(t, s.N(), back.N())

	_, err = Heapify[float64](img)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestSerde_CorruptImageRejected(t *testing.T) {
	_, err := Heapify[float64]([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrCorruptImage)

	garbage := make([]byte, dataStartSingleItem)
	_, err = Heapify[float64](garbage)
	assert.ErrorIs(t, err, ErrCorruptImage)
}

type growAppendProvider struct{}

func (growAppendProvider) Request(current []byte, requiredBytes int) ([]byte, error) {
	next := make([]byte, requiredBytes)
	copy(next, current)
	return next, nil
}

func TestSerde_NewDirectGrowsThroughProvider(t *testing.T) {
	mem := make([]byte, 64)
	s, err := NewDirect[float64](20, DefaultM, mem, growAppendProvider{})
	assert.NoError(t, err)
	for i := 0; i < 20000; i++ {
		assert.NoError(t, s.Update(float64(i)))
	}
	assert.Equal(t, uint64(20000), s.N())
	assert.True(t, s.IsEstimationMode())

	q, err := s.Quantile(0.5, Inclusive)
	assert.NoError(t, err)
	assert.InDelta(t, 10000, q, 2000)
}

func TestSerde_NewDirectNoProviderFixedCapacity(t *testing.T) {
	mem := make([]byte, 8) // too small even for k=20's initial region
	_, err := NewDirect[float64](20, DefaultM, mem, nil)
	assert.ErrorIs(t, err, ErrInsufficientSpace)
}

func TestSerde_UpdatableRoundTrip(t *testing.T) {
	s, _ := NewHeap[float64](200, DefaultM)
	for i := 0; i < 5000; i++ {
		assert.NoError(t, s.Update(float64(i)))
	}
	img := s.ToUpdatableSlice()
	wrapped, err := Wrap[float64](img, false, nil)
	assert.NoError(t, err)
	assert.False(t, wrapped.IsReadOnly())
	assert.Equal(t, s.N(), wrapped.N())
	assert.NoError(t, wrapped.Update(99999))
	assert.Equal(t, s.N()+1, wrapped.N())
}
