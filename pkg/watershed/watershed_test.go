package watershed

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/basin/pkg/raster"
)

func channel(w, h int, pix ...uint8) *raster.Channel8 {
	c := raster.NewChannel8(w, h)
	copy(c.Pix, pix)
	return c
}

func newSegmenter(t *testing.T, m Method, conn Connectivity) *Segmenter {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Method = m
	cfg.Connectivity = conn
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func TestNeighborhoodBorder(t *testing.T) {
	nb := NewNeighborhood(4, 3, Conn8)
	require.Equal(t, 8, nb.Len())
	assert.Equal(t, []int{1, -4, -1, 4, -3, -5, 3, 5}, nb.Offsets())

	for p := 0; p < 12; p++ {
		x, y := p%4, p/4
		want := x == 0 || x == 3 || y == 0 || y == 2
		assert.Equal(t, want, nb.IsBorder(p), "pixel %d", p)
	}

	count := func(p int) int {
		n := 0
		for k := 0; k < nb.Len(); k++ {
			if _, ok := nb.Neighbor(p, k); ok {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 3, count(0), "corner")
	assert.Equal(t, 5, count(4), "left edge")
	assert.Equal(t, 8, count(5), "interior")

	// (0,1) minus one would wrap to (3,0).
	_, ok := nb.Neighbor(4, 2)
	assert.False(t, ok)
	// (3,1) plus one would wrap to (0,2).
	_, ok = nb.Neighbor(7, 0)
	assert.False(t, ok)
}

func TestNeighborhoodSingleColumn(t *testing.T) {
	nb := NewNeighborhood(1, 3, Conn8)
	var got []int
	for k := 0; k < nb.Len(); k++ {
		if q, ok := nb.Neighbor(1, k); ok {
			got = append(got, q)
		}
	}
	assert.ElementsMatch(t, []int{0, 2}, got)
}

func TestFlatImageIsOneBasin(t *testing.T) {
	for _, m := range []Method{Rainfall, Immersion} {
		for _, conn := range []Connectivity{Conn4, Conn8} {
			t.Run(m.String()+"/"+conn.String(), func(t *testing.T) {
				src := raster.NewChannel8(5, 5)
				src.Fill(10)

				labels, err := newSegmenter(t, m, conn).Labels(src)
				require.NoError(t, err)
				for _, v := range labels.Pix {
					assert.Equal(t, 1, v)
				}

				lines := LinesFromLabels(labels, 255, 0)
				for _, v := range lines.Pix {
					assert.Equal(t, uint8(0), v)
				}
			})
		}
	}
}

func TestRampHasSingleMinimum(t *testing.T) {
	const n = 10
	src := raster.NewChannel8(n, 1)
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 20)
	}

	for _, m := range []Method{Rainfall, Immersion} {
		t.Run(m.String(), func(t *testing.T) {
			labels, err := newSegmenter(t, m, Conn4).Labels(src)
			require.NoError(t, err)
			assert.Equal(t, 1, labels.Distinct())
			assert.Equal(t, 1, labels.Pix[0])
		})
	}
}

func TestImmersionLineAtEqualDistance(t *testing.T) {
	tests := []struct {
		name string
		pix  []uint8
		want []int
	}{
		{"peak", []uint8{0, 1, 2, 3, 2, 1, 0}, []int{1, 1, 1, 0, 2, 2, 2}},
		{"odd plateau", []uint8{0, 5, 5, 5, 0}, []int{1, 1, 0, 2, 2}},
		{"even plateau", []uint8{0, 5, 5, 5, 5, 0}, []int{1, 1, 1, 2, 2, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := channel(len(tt.pix), 1, tt.pix...)
			labels, err := newSegmenter(t, Immersion, Conn4).Labels(src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, labels.Pix)
		})
	}
}

func TestImmersionRidgeColumn(t *testing.T) {
	src := raster.NewChannel8(5, 5)
	for y := 0; y < 5; y++ {
		src.Set(2, y, 9)
	}

	for _, conn := range []Connectivity{Conn4, Conn8} {
		t.Run(conn.String(), func(t *testing.T) {
			labels, err := newSegmenter(t, Immersion, conn).Labels(src)
			require.NoError(t, err)
			for y := 0; y < 5; y++ {
				assert.Equal(t, 1, labels.At(0, y))
				assert.Equal(t, 1, labels.At(1, y))
				assert.Equal(t, 0, labels.At(2, y), "ridge pixel (2,%d)", y)
				assert.Equal(t, 2, labels.At(3, y))
				assert.Equal(t, 2, labels.At(4, y))
			}
		})
	}
}

func TestRainfallPlateauDrainsToNearestExit(t *testing.T) {
	src := channel(5, 1, 0, 5, 5, 5, 0)
	labels, err := newSegmenter(t, Rainfall, Conn4).Labels(src)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2, 2, 2}, labels.Pix)

	src = channel(7, 1, 0, 5, 5, 5, 5, 5, 0)
	labels, err = newSegmenter(t, Rainfall, Conn4).Labels(src)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1, 1, 2, 2, 2}, labels.Pix)
}

func TestRainfallLabelsEveryPixel(t *testing.T) {
	// Two bowls with a shallow saddle and a flat shelf.
	src := channel(6, 4,
		9, 8, 7, 7, 8, 9,
		8, 1, 4, 4, 2, 8,
		8, 2, 4, 4, 1, 8,
		9, 8, 7, 7, 8, 9,
	)
	for _, conn := range []Connectivity{Conn4, Conn8} {
		t.Run(conn.String(), func(t *testing.T) {
			labels, err := newSegmenter(t, Rainfall, conn).Labels(src)
			require.NoError(t, err)
			for p, v := range labels.Pix {
				assert.Greater(t, v, 0, "pixel %d", p)
			}
			assert.NotEqual(t, labels.At(1, 1), labels.At(4, 2))
			assert.Equal(t, 2, labels.Distinct())
		})
	}
}

func TestBowlHasNoLine(t *testing.T) {
	src := raster.NewChannel8(7, 7)
	for y := 0; y < 7; y++ {
		for x := 0; x < 7; x++ {
			dx, dy := x-3, y-3
			src.Set(x, y, uint8(dx*dx+dy*dy))
		}
	}
	for _, m := range []Method{Rainfall, Immersion} {
		t.Run(m.String(), func(t *testing.T) {
			labels, err := newSegmenter(t, m, Conn8).Labels(src)
			require.NoError(t, err)
			assert.Equal(t, 1, labels.Distinct())
			assert.Equal(t, 1, labels.At(3, 3))
		})
	}
}

func TestThresholdMergesShallowValleys(t *testing.T) {
	src := channel(5, 1, 0, 3, 1, 3, 0)
	for _, m := range []Method{Rainfall, Immersion} {
		t.Run(m.String(), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Method = m
			cfg.Threshold = 5
			s, err := New(cfg)
			require.NoError(t, err)

			labels, err := s.Labels(src)
			require.NoError(t, err)
			assert.Equal(t, []int{1, 1, 1, 1, 1}, labels.Pix)
		})
	}
}

func TestRainfallThresholdRaisesBeforeDescent(t *testing.T) {
	// Below the threshold the pixels 0, 4 and 2 form one flat floor, so the
	// descent 4 -> 0 never splits them into separate minima.
	src := channel(5, 1, 0, 4, 2, 9, 9)

	labels, err := newSegmenter(t, Rainfall, Conn4).Labels(src)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2, 2, 2}, labels.Pix)

	cfg := DefaultConfig()
	cfg.Threshold = 5
	s, err := New(cfg)
	require.NoError(t, err)
	labels, err = s.Labels(src)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1, 1, 1}, labels.Pix)
}

func TestLinesInto(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Method = Immersion
	cfg.WatershedValue = 200
	cfg.BasinValue = 10
	s, err := New(cfg)
	require.NoError(t, err)

	src := channel(5, 1, 0, 5, 5, 5, 0)
	require.NoError(t, s.LinesInto(src, src))
	// Pixels beside the line differ from a neighbor and are drawn too.
	assert.Equal(t, []uint8{10, 200, 200, 200, 10}, src.Pix)
}

func TestDimensionMismatch(t *testing.T) {
	s := newSegmenter(t, Rainfall, Conn4)
	err := s.LabelsInto(raster.NewChannel8(3, 3), raster.NewLabels(3, 4))
	require.Error(t, err)
	assert.True(t, errors.Is(err, raster.ErrDimensionMismatch))

	err = s.LinesInto(raster.NewChannel8(3, 3), raster.NewChannel8(4, 3))
	assert.True(t, errors.Is(err, raster.ErrDimensionMismatch))
}

func TestEmptyImage(t *testing.T) {
	labels, err := newSegmenter(t, Immersion, Conn8).Labels(raster.NewChannel8(0, 0))
	require.NoError(t, err)
	assert.Empty(t, labels.Pix)
}

func TestSegmenterReuseAcrossSizes(t *testing.T) {
	s := newSegmenter(t, Immersion, Conn4)

	big := raster.NewChannel8(8, 8)
	big.Fill(3)
	_, err := s.Labels(big)
	require.NoError(t, err)

	small := channel(3, 1, 0, 9, 0)
	labels, err := s.Labels(small)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 2}, labels.Pix)
}

func TestConfigValidation(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Connectivity = 6
	_, err := New(cfg)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	cfg = DefaultConfig()
	cfg.Method = Method(7)
	assert.True(t, errors.Is(cfg.Validate(), ErrInvalidConfig))
}

func TestParseEnums(t *testing.T) {
	m, err := ParseMethod("Immersion")
	require.NoError(t, err)
	assert.Equal(t, Immersion, m)

	_, err = ParseMethod("drizzle")
	assert.True(t, errors.Is(err, ErrUnknownMethod))

	var c Connectivity
	require.NoError(t, c.Set("8"))
	assert.Equal(t, Conn8, c)
	assert.True(t, errors.Is(c.Set("6"), ErrUnknownConnectivity))
	assert.Equal(t, []string{"4", "8"}, ValidConnectivities())
}
