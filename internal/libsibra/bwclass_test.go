package libsibra_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/juagargi/sibratest/internal/libsibra"
)

func TestBwClsBps(t *testing.T) {
	tests := []struct {
		cls  libsibra.BwCls
		want float64
	}{
		{1, 16000},
		{3, 32000},
		{5, 64000},
		{14, 1448154.6878700494},
	}
	for _, test := range tests {
		assert.InDelta(t, test.want, test.cls.Bps(), 1e-6, "class %d", test.cls)
	}
}

func TestBwClsBpsTotal(t *testing.T) {
	// The formula is defined for any integer, including zero and
	// negative classes.
	assert.InDelta(t, 16000/1.4142135623730951, libsibra.BwCls(0).Bps(), 1e-6)
	assert.Greater(t, libsibra.BwCls(-5).Bps(), 0.0)
}

func TestSplitClsProp(t *testing.T) {
	assert.Equal(t, 1.0, libsibra.SplitCls(0).Prop())
	assert.InDelta(t, 0.5, libsibra.SplitCls(2).Prop(), 1e-12)

	// Non-increasing in s.
	prev := libsibra.SplitCls(-4).Prop()
	for s := libsibra.SplitCls(-3); s <= 20; s++ {
		p := s.Prop()
		assert.LessOrEqual(t, p, prev, "split %d", s)
		prev = p
	}
}

func TestExpectedBps(t *testing.T) {
	// Target of the reference scenario: class 14 with split 200 leaves
	// almost the whole reservation for data traffic.
	assert.Equal(t, int64(1448154), libsibra.ExpectedBps(14, 200))

	// Split 0 retains everything; nothing is left for data.
	assert.Equal(t, int64(0), libsibra.ExpectedBps(14, 0))
}

func TestExpectedBpsMonotonic(t *testing.T) {
	// Non-decreasing in the class for a fixed split, and non-negative
	// whenever the retained proportion is at most 1.
	for _, split := range []libsibra.SplitCls{0, 1, 10, 200} {
		prev := int64(-1)
		for c := libsibra.BwCls(1); c <= 40; c++ {
			bps := libsibra.ExpectedBps(c, split)
			if bps < 0 {
				t.Fatalf("ExpectedBps(%d, %d) = %d, negative", c, split, bps)
			}
			if bps < prev {
				t.Fatalf("ExpectedBps(%d, %d) = %d, smaller than class %d's %d",
					c, split, bps, c-1, prev)
			}
			prev = bps
		}
	}
}
