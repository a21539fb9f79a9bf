package opt

import (
	"math"
	"testing"

	"github.com/astock/abot/biz"
)

func TestComputeMetricsBasic(t *testing.T) {
	trades := []*biz.Trade{
		{Profit: 100, Fee: 10},
		{Profit: -50, Fee: 8},
		{Profit: 30, Fee: 6},
		{Profit: 0, Fee: 5},
	}
	equity := []float64{110000, 99000, 104500}
	m := ComputeMetrics(100000, equity, trades)
	if m.TradeNum != 4 {
		t.Errorf("TradeNum got %v", m.TradeNum)
	}
	if math.Abs(m.WinRate-0.75) > 1e-9 {
		t.Errorf("WinRate got %v", m.WinRate)
	}
	if math.Abs(m.TotalFee-29) > 1e-9 {
		t.Errorf("TotalFee got %v", m.TotalFee)
	}
	if math.Abs(m.TotalReturn-0.045) > 1e-9 {
		t.Errorf("TotalReturn got %v", m.TotalReturn)
	}
	if math.Abs(m.MaxDrawDown-0.1) > 1e-9 {
		t.Errorf("MaxDrawDown got %v", m.MaxDrawDown)
	}
	if m.Volatility <= 0 {
		t.Errorf("Volatility got %v", m.Volatility)
	}
}

func TestComputeMetricsEmpty(t *testing.T) {
	m := ComputeMetrics(100000, nil, nil)
	if m.TradeNum != 0 || m.TotalReturn != 0 || m.Sharpe != 0 {
		t.Errorf("empty metrics got %+v", m)
	}
}

func TestComputeMetricsSinglePoint(t *testing.T) {
	m := ComputeMetrics(100000, []float64{101000}, nil)
	if math.Abs(m.TotalReturn-0.01) > 1e-9 {
		t.Errorf("TotalReturn got %v", m.TotalReturn)
	}
	if m.Volatility != 0 || m.Sharpe != 0 {
		t.Errorf("single point should skip risk metrics, got %+v", m)
	}
}

func TestMaxDrawDown(t *testing.T) {
	cases := []struct {
		vals []float64
		want float64
	}{
		{[]float64{100, 110, 120}, 0},
		{[]float64{100, 80, 90}, 0.2},
		{[]float64{100, 120, 60, 130}, 0.5},
	}
	for _, c := range cases {
		got := maxDrawDown(c.vals)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("maxDrawDown(%v) got %v, want %v", c.vals, got, c.want)
		}
	}
}
