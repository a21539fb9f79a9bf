package biz

import (
	"math"
	"testing"

	"github.com/astock/abot/btime"
	"github.com/astock/abot/core"
)

func newTestMgr(cash float64) *OrderMgr {
	state := NewSimState("test", nil)
	state.SetTime(dayMS("2023-01-03 15:00"))
	return NewOrderMgr(state, NewPortfolio(cash))
}

func flatBar(price float64) *core.Bar {
	return &core.Bar{
		Open: price, High: price, Low: price, Close: price,
		Volume: 100000, Amount: price * 100000,
	}
}

func TestOrderValueBuy(t *testing.T) {
	o := newTestMgr(100000)
	o.SetBar("600000.XSHG", flatBar(10.0))
	od := o.OrderValue("600000.XSHG", 80000)
	if od == nil {
		t.Fatal("order dropped")
	}
	if od.Size != 8000 {
		t.Errorf("size = %d, expect 8000", od.Size)
	}
	if math.Abs(od.Fee-24.0) > 1e-9 {
		t.Errorf("fee = %v, expect 24.0", od.Fee)
	}
	if math.Abs(o.Port.Cash-(100000-80024)) > 1e-6 {
		t.Errorf("cash = %v", o.Port.Cash)
	}
	pos := o.Port.GetPos("600000.XSHG")
	if pos == nil || pos.Total != 8000 {
		t.Errorf("position wrong: %+v", pos)
	}
}

func TestOrderValueAffordShrink(t *testing.T) {
	// 2000股总价含佣金超出现金，应缩减一手
	o := newTestMgr(20004)
	o.SetBar("600000.XSHG", flatBar(10.0))
	od := o.OrderValue("600000.XSHG", 20004)
	if od == nil {
		t.Fatal("order dropped")
	}
	if od.Size != 1900 {
		t.Errorf("size = %d, expect 1900", od.Size)
	}
	if o.Port.Cash < 0 {
		t.Errorf("cash negative: %v", o.Port.Cash)
	}
}

func TestOrderValueBelowLot(t *testing.T) {
	o := newTestMgr(100000)
	o.SetBar("600000.XSHG", flatBar(10.0))
	// 不足一手，无订单事件
	od := o.OrderValue("600000.XSHG", 900)
	if od != nil {
		t.Errorf("below-lot buy should produce no order: %+v", od)
	}
	if len(o.Orders) != 0 || len(o.Blocked) != 0 {
		t.Errorf("no events expected: %d/%d", len(o.Orders), len(o.Blocked))
	}
}

func TestOrderLotRound(t *testing.T) {
	o := newTestMgr(100000)
	o.SetBar("600000.XSHG", flatBar(10.0))
	od := o.Order("600000.XSHG", 567)
	if od == nil || od.Size != 500 {
		t.Errorf("lot round fail: %+v", od)
	}
}

func TestSlippageAndTick(t *testing.T) {
	o := newTestMgr(1000000)
	if err := o.State.Options.Set("slippage_perc", 0.002); err != nil {
		t.Fatal(err)
	}
	o.SetBar("600000.XSHG", flatBar(10.0))
	od := o.Order("600000.XSHG", 100)
	if od == nil {
		t.Fatal("order dropped")
	}
	// 买入价向上偏移半个滑点并落在tick网格上
	if od.Price < 10.0-1e-9 || od.Price > 10.02 {
		t.Errorf("buy price = %v", od.Price)
	}
	if ticks := od.Price / 0.01; math.Abs(ticks-math.Round(ticks)) > 1e-6 {
		t.Errorf("buy price off tick grid: %v", od.Price)
	}
	// 次日卖出向下偏移半个滑点
	o.State.SetTime(o.State.TimeMS + btime.DayMSecs)
	o.RollPrevClose()
	o.SetBar("600000.XSHG", flatBar(10.0))
	od2 := o.Order("600000.XSHG", -100)
	if od2 == nil {
		t.Fatal("sell dropped")
	}
	if od2.Price > 10.0+1e-9 || od2.Price < 9.98 {
		t.Errorf("sell price = %v", od2.Price)
	}
	if od2.Price > od.Price-1e-9 {
		t.Errorf("sell price %v should be below buy price %v", od2.Price, od.Price)
	}
}

func TestLimitUpBlock(t *testing.T) {
	o := newTestMgr(100000)
	o.SetBar("600000.XSHG", flatBar(10.0))
	o.RollPrevClose()
	// 次日涨停价11.00，买入应被拦截
	o.State.SetTime(o.State.TimeMS + btime.DayMSecs)
	o.SetBar("600000.XSHG", flatBar(11.0))
	od := o.OrderValue("600000.XSHG", 50000)
	if od != nil {
		t.Errorf("limit-up buy should be blocked: %+v", od)
	}
	if len(o.Blocked) != 1 {
		t.Fatalf("blocked num = %d", len(o.Blocked))
	}
	bk := o.Blocked[0]
	if bk.Status != core.OdStatusBlockedUp || bk.Size != 0 {
		t.Errorf("blocked order: %+v", bk)
	}
	if o.Port.Cash != 100000 {
		t.Errorf("cash changed: %v", o.Port.Cash)
	}
}

func TestLimitDownBlock(t *testing.T) {
	o := newTestMgr(100000)
	o.SetBar("600000.XSHG", flatBar(10.0))
	_ = o.Order("600000.XSHG", 1000)
	o.RollPrevClose()
	o.State.SetTime(o.State.TimeMS + btime.DayMSecs)
	o.SetBar("600000.XSHG", flatBar(9.0))
	od := o.Order("600000.XSHG", -1000)
	if od != nil {
		t.Errorf("limit-down sell should be blocked: %+v", od)
	}
	if len(o.Blocked) != 1 || o.Blocked[0].Status != core.OdStatusBlockedDown {
		t.Errorf("blocked: %+v", o.Blocked)
	}
}

func TestLimitCheckDisabled(t *testing.T) {
	o := newTestMgr(100000)
	o.State.Options.EnableLimitCheck = false
	o.SetBar("600000.XSHG", flatBar(10.0))
	o.RollPrevClose()
	o.State.SetTime(o.State.TimeMS + btime.DayMSecs)
	o.SetBar("600000.XSHG", flatBar(11.0))
	od := o.OrderValue("600000.XSHG", 50000)
	if od == nil {
		t.Errorf("order should fill when limit check disabled")
	}
}

func TestChiNextLimit(t *testing.T) {
	// 创业板20%涨幅不触发10%档拦截
	o := newTestMgr(1000000)
	o.SetBar("300750.XSHE", flatBar(10.0))
	o.RollPrevClose()
	o.State.SetTime(o.State.TimeMS + btime.DayMSecs)
	o.SetBar("300750.XSHE", flatBar(11.0))
	od := o.OrderValue("300750.XSHE", 50000)
	if od == nil {
		t.Fatalf("11.0 is below 20pct limit for chinext, should fill")
	}
	// 触及12.00则拦截
	o.SetBar("300750.XSHE", flatBar(12.0))
	od2 := o.OrderValue("300750.XSHE", 50000)
	if od2 != nil || len(o.Blocked) != 1 {
		t.Errorf("chinext limit-up should block at 12.00")
	}
}

func TestSellClampAndStampDuty(t *testing.T) {
	o := newTestMgr(100000)
	o.SetBar("600000.XSHG", flatBar(10.0))
	_ = o.Order("600000.XSHG", 1000)
	o.RollPrevClose()
	o.State.SetTime(o.State.TimeMS + btime.DayMSecs)
	o.SetBar("600000.XSHG", flatBar(10.5))
	// 当日又买入500，随后超量卖出应钳制到1000
	_ = o.Order("600000.XSHG", 500)
	od := o.Order("600000.XSHG", -2000)
	if od == nil {
		t.Fatal("sell dropped")
	}
	if od.Size != 1000 || od.Tag != "t+1_clamp" {
		t.Errorf("clamp fail: %+v", od)
	}
	// 费用 = max(10500*0.0003, 5) + 10500*0.001，佣金触及最低5元
	expFee := 5.0 + 10500*0.001
	if math.Abs(od.Fee-expFee) > 1e-9 {
		t.Errorf("sell fee = %v, expect %v", od.Fee, expFee)
	}
	if len(o.Trades) != 1 {
		t.Fatalf("trades = %d", len(o.Trades))
	}
}

func TestOrderTargetFlow(t *testing.T) {
	o := newTestMgr(1000000)
	o.SetBar("600000.XSHG", flatBar(10.0))
	od := o.OrderTarget("600000.XSHG", 1000)
	if od == nil || od.Size != 1000 || od.Side != core.OdSideBuy {
		t.Fatalf("target buy: %+v", od)
	}
	// 已达目标，无动作
	if od2 := o.OrderTarget("600000.XSHG", 1000); od2 != nil {
		t.Errorf("no-op target produced order: %+v", od2)
	}
	// 次日减仓到400
	o.RollPrevClose()
	o.State.SetTime(o.State.TimeMS + btime.DayMSecs)
	o.SetBar("600000.XSHG", flatBar(10.0))
	od3 := o.OrderTarget("600000.XSHG", 400)
	if od3 == nil || od3.Side != core.OdSideSell || od3.Size != 600 {
		t.Errorf("target sell: %+v", od3)
	}
	// 负目标等价清仓
	od4 := o.OrderTarget("600000.XSHG", -100)
	if od4 == nil || od4.Size != 400 {
		t.Errorf("negative target: %+v", od4)
	}
}

func TestOrderTargetPercent(t *testing.T) {
	o := newTestMgr(100000)
	o.SetBar("600000.XSHG", flatBar(10.0))
	od := o.OrderTargetPercent("600000.XSHG", 0.5)
	if od == nil || od.Size != 5000 {
		t.Errorf("target percent: %+v", od)
	}
}

func TestSuspendedBar(t *testing.T) {
	o := newTestMgr(100000)
	bar := flatBar(10.0)
	bar.Volume = 0
	o.SetBar("600000.XSHG", bar)
	if od := o.OrderValue("600000.XSHG", 50000); od != nil {
		t.Errorf("suspended bar should not fill: %+v", od)
	}
}

func TestNoBarSkips(t *testing.T) {
	o := newTestMgr(100000)
	if od := o.OrderValue("600000.XSHG", 50000); od != nil {
		t.Errorf("missing bar should skip, not panic: %+v", od)
	}
	if len(o.State.Logs) == 0 {
		t.Errorf("skip should be logged")
	}
}

func TestFillPriceOpenMode(t *testing.T) {
	o := newTestMgr(100000)
	o.State.Options.FillPrice = "open"
	o.SetBar("600000.XSHG", &core.Bar{
		Open: 10.0, High: 10.6, Low: 9.9, Close: 10.5, Volume: 1000, Amount: 10000,
	})
	od := o.Order("600000.XSHG", 100)
	if od == nil || math.Abs(od.Price-10.0) > 1e-9 {
		t.Errorf("open fill price: %+v", od)
	}
}
