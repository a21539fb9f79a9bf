package biz

import (
	"math"
	"testing"

	"github.com/astock/abot/btime"
	"github.com/astock/abot/core"
)

func dayMS(str string) int64 {
	ms, err := btime.ParseTimeMS(str)
	if err != nil {
		panic(err)
	}
	return ms
}

func TestPositionT1(t *testing.T) {
	pf := NewPortfolio(100000)
	day1 := dayMS("20230103")
	if err := pf.ApplyBuy("600000.XSHG", 1000, 10.0, 5.0, day1); err != nil {
		t.Fatal(err)
	}
	pos := pf.GetPos("600000.XSHG")
	if pos.Total != 1000 {
		t.Fatalf("total = %d", pos.Total)
	}
	// 当日买入不可卖
	if pos.Closeable(day1) != 0 {
		t.Errorf("closeable today = %d, expect 0", pos.Closeable(day1))
	}
	// 次日全部可卖
	day2 := day1 + btime.DayMSecs
	if pos.Closeable(day2) != 1000 {
		t.Errorf("closeable next day = %d", pos.Closeable(day2))
	}
	// 次日加仓后，旧仓可卖、新仓不可卖
	if err := pf.ApplyBuy("600000.XSHG", 500, 11.0, 5.0, day2); err != nil {
		t.Fatal(err)
	}
	if pos.Closeable(day2) != 1000 {
		t.Errorf("closeable after rebuy = %d", pos.Closeable(day2))
	}
}

func TestPositionAvgCost(t *testing.T) {
	pf := NewPortfolio(1000000)
	day1 := dayMS("20230103")
	_ = pf.ApplyBuy("000001.XSHE", 1000, 10.0, 5.0, day1)
	_ = pf.ApplyBuy("000001.XSHE", 1000, 12.0, 5.0, day1)
	pos := pf.GetPos("000001.XSHE")
	if math.Abs(pos.AvgCost-11.0) > 1e-9 {
		t.Errorf("avg cost = %v", pos.AvgCost)
	}
	day2 := day1 + btime.DayMSecs
	profit, err := pf.ApplySell("000001.XSHE", 2000, 13.0, 20.0, day2)
	if err != nil {
		t.Fatal(err)
	}
	// (13-11)*2000 - 20
	if math.Abs(profit-3980) > 1e-9 {
		t.Errorf("profit = %v", profit)
	}
	if pf.GetPos("000001.XSHE") != nil {
		t.Errorf("position should be removed after full exit")
	}
}

func TestCashNeverNegative(t *testing.T) {
	pf := NewPortfolio(1000)
	day1 := dayMS("20230103")
	err := pf.ApplyBuy("600000.XSHG", 200, 10.0, 5.0, day1)
	if err == nil || err.Code != core.ErrLowFunds {
		t.Errorf("unaffordable buy should fail with LowFunds, got %v", err)
	}
	if pf.Cash != 1000 {
		t.Errorf("cash changed on failed buy: %v", pf.Cash)
	}
}

func TestSellOverCloseable(t *testing.T) {
	pf := NewPortfolio(100000)
	day1 := dayMS("20230103")
	_ = pf.ApplyBuy("600000.XSHG", 1000, 10.0, 5.0, day1)
	_, err := pf.ApplySell("600000.XSHG", 1000, 10.0, 5.0, day1)
	if err == nil || err.Code != core.ErrLowCloseable {
		t.Errorf("same-day sell should fail, got %v", err)
	}
	_, err = pf.ApplySell("000002.XSHE", 100, 10.0, 5.0, day1)
	if err == nil {
		t.Errorf("sell without position should fail")
	}
}

func TestRollDayPrune(t *testing.T) {
	pf := NewPortfolio(1000000)
	day1 := dayMS("20230103")
	_ = pf.ApplyBuy("600000.XSHG", 100, 10.0, 5.0, day1)
	pos := pf.GetPos("600000.XSHG")
	if len(pos.boughtAt) != 1 {
		t.Fatalf("boughtAt len = %d", len(pos.boughtAt))
	}
	// 3天后记录应被清理
	pf.RollDay(day1 + 3*btime.DayMSecs)
	if len(pos.boughtAt) != 0 {
		t.Errorf("boughtAt not pruned: %v", pos.boughtAt)
	}
	if pos.Total != 100 {
		t.Errorf("total changed by prune: %d", pos.Total)
	}
}

func TestTotalValue(t *testing.T) {
	pf := NewPortfolio(100000)
	day1 := dayMS("20230103")
	_ = pf.ApplyBuy("600000.XSHG", 1000, 10.0, 0, day1)
	pos := pf.GetPos("600000.XSHG")
	pos.LastPrice = 12.0
	if math.Abs(pf.TotalValue()-(90000+12000)) > 1e-6 {
		t.Errorf("total value = %v", pf.TotalValue())
	}
}
