package raster

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelsAccessors(t *testing.T) {
	l := NewLabels(3, 2)
	l.Set(2, 1, 7)
	l.Set(0, 0, 3)

	assert.Equal(t, 7, l.At(2, 1))
	assert.Equal(t, 7, l.Pix[5])
	assert.Equal(t, 7, l.Max())
	assert.Equal(t, 3, l.Distinct())
	assert.Equal(t, 6, l.Len())

	c := l.Clone()
	c.Set(0, 0, 9)
	assert.Equal(t, 3, l.At(0, 0), "clone must not share storage")
}

func TestEmptyRasters(t *testing.T) {
	assert.Equal(t, -1, NewLabels(0, 0).Max())
	assert.Equal(t, float32(0), NewChannel(0, 0).Max())
	assert.Equal(t, 0, NewChannel8(0, 5).Len())
}

func TestChannelMax(t *testing.T) {
	c := NewChannel(2, 2)
	copy(c.Pix, []float32{-3, 1.5, 0.25, 1})
	assert.Equal(t, float32(1.5), c.Max())
}

func TestCheckSize(t *testing.T) {
	require.NoError(t, CheckSize("mask", 4, 3, 4, 3))

	err := CheckSize("mask", 4, 3, 3, 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
	assert.Contains(t, err.Error(), "4x3")
}
