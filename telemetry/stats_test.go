package telemetry

import (
	"math"
	"testing"
)

func TestDistribution(t *testing.T) {
	values := []float64{10, 1, 3, 7, 5, 9, 2, 8, 4, 6}
	mean, std, p10, p50, p90 := Distribution(values)

	if math.Abs(mean-5.5) > 0.001 {
		t.Errorf("mean = %v, want 5.5", mean)
	}
	if std <= 0 {
		t.Errorf("std = %v, want > 0", std)
	}
	if p10 > p50 || p50 > p90 {
		t.Errorf("percentiles not ordered: p10=%v p50=%v p90=%v", p10, p50, p90)
	}
	if p10 < 1 || p90 > 10 {
		t.Errorf("percentiles outside sample range: p10=%v p90=%v", p10, p90)
	}
}

func TestDistributionEmpty(t *testing.T) {
	mean, std, p10, p50, p90 := Distribution(nil)
	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Errorf("empty sample should yield zeros, got %v %v %v %v %v", mean, std, p10, p50, p90)
	}
}

func TestDistributionSingle(t *testing.T) {
	mean, std, p10, p50, p90 := Distribution([]float64{4.2})
	if mean != 4.2 || p10 != 4.2 || p50 != 4.2 || p90 != 4.2 {
		t.Errorf("single sample: mean=%v p10=%v p50=%v p90=%v, want all 4.2", mean, p10, p50, p90)
	}
	if std != 0 {
		t.Errorf("std of one sample = %v, want 0", std)
	}
}
