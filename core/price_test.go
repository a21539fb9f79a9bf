package core

import (
	"math"
	"testing"
)

func TestRoundToTick(t *testing.T) {
	cases := []struct {
		price  float64
		tick   float64
		expect float64
	}{
		{10.004, 0.01, 10.00},
		{10.005, 0.01, 10.01},
		{10.996, 0.01, 11.00},
		{9.999, 0.01, 10.00},
		{10.0, 0.01, 10.0},
	}
	for _, c := range cases {
		res := RoundToTick(c.price, c.tick)
		if math.Abs(res-c.expect) > 1e-9 {
			t.Errorf("RoundToTick(%v) = %v, expect %v", c.price, res, c.expect)
		}
	}
}

func TestFloorCeilToTick(t *testing.T) {
	if v := FloorToTick(10.019, 0.01); math.Abs(v-10.01) > 1e-9 {
		t.Errorf("FloorToTick fail: %v", v)
	}
	if v := CeilToTick(10.011, 0.01); math.Abs(v-10.02) > 1e-9 {
		t.Errorf("CeilToTick fail: %v", v)
	}
	// 恰好落在tick上不应变化
	if v := FloorToTick(10.02, 0.01); math.Abs(v-10.02) > 1e-9 {
		t.Errorf("FloorToTick exact fail: %v", v)
	}
	if v := CeilToTick(10.02, 0.01); math.Abs(v-10.02) > 1e-9 {
		t.Errorf("CeilToTick exact fail: %v", v)
	}
}

func TestLimitPrices(t *testing.T) {
	up, down := LimitPrices(10.0, 1.10, 0.90, 0.01)
	if math.Abs(up-11.0) > 1e-9 || math.Abs(down-9.0) > 1e-9 {
		t.Errorf("LimitPrices(10) = %v/%v", up, down)
	}
	up, down = LimitPrices(9.87, 1.10, 0.90, 0.01)
	if math.Abs(up-10.86) > 1e-9 || math.Abs(down-8.88) > 1e-9 {
		t.Errorf("LimitPrices(9.87) = %v/%v", up, down)
	}
}
