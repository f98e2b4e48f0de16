package ta

import (
	"math"
	"testing"
)

func TestSMA(t *testing.T) {
	c := NewCalculator()
	for _, p := range []float64{1, 2, 3, 4, 5} {
		c.Append(p)
	}

	if c.Len() != 5 {
		t.Errorf("Len = %d, want 5", c.Len())
	}
	if got := c.SMA(5); math.Abs(got-3.0) > 1e-9 {
		t.Errorf("SMA(5) = %v, want 3.0", got)
	}
	if got := c.SMA(3); math.Abs(got-4.0) > 1e-9 {
		t.Errorf("SMA(3) = %v, want 4.0 (last three samples)", got)
	}
}

func TestSMAInsufficientHistory(t *testing.T) {
	c := NewCalculator()
	c.Append(1)
	c.Append(2)

	if got := c.SMA(10); got != 0.0 {
		t.Errorf("SMA(10) = %v, want 0 with insufficient history", got)
	}
	if got := c.SMA(0); got != 0.0 {
		t.Errorf("SMA(0) = %v, want 0 for invalid period", got)
	}
}
