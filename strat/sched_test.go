package strat

import (
	"testing"

	"github.com/astock/abot/biz"
	"github.com/astock/abot/btime"
	"github.com/astock/abot/core"
)

func mustMS(t *testing.T, str string) int64 {
	ms, err := btime.ParseTimeMS(str)
	if err != nil {
		t.Fatalf("parse %s: %v", str, err)
	}
	return ms
}

func newTestCtx() *Context {
	state := biz.NewSimState("test", nil)
	port := biz.NewPortfolio(100000)
	return NewContext(state, port, biz.NewOrderMgr(state, port))
}

func TestSchedDailyOncePerStamp(t *testing.T) {
	ctx := newTestCtx()
	fired := 0
	if err := ctx.Sched.Register(core.FreqDaily, "09:30", "t1", func(ctx *Context) {
		fired += 1
	}); err != nil {
		t.Fatal(err)
	}
	ts := mustMS(t, "2023-05-08 09:30")
	ctx.Sched.Tick(ctx, ts)
	ctx.Sched.Tick(ctx, ts)
	if fired != 1 {
		t.Errorf("fired = %d, expect 1", fired)
	}
	// 时间不匹配不触发
	ctx.Sched.Tick(ctx, mustMS(t, "2023-05-08 09:31"))
	if fired != 1 {
		t.Errorf("fired = %d after non-match", fired)
	}
	// 次日同一时刻再次触发
	ctx.Sched.Tick(ctx, ts+btime.DayMSecs)
	if fired != 2 {
		t.Errorf("fired = %d, expect 2", fired)
	}
}

func TestSchedWeeklyMonthly(t *testing.T) {
	ctx := newTestCtx()
	weekly, monthly := 0, 0
	_ = ctx.Sched.Register(core.FreqWeekly, "09:30", "w", func(ctx *Context) { weekly += 1 })
	_ = ctx.Sched.Register(core.FreqMonthly, "09:30", "m", func(ctx *Context) { monthly += 1 })
	// 2023-05-08是周一但不是1日
	ctx.Sched.Tick(ctx, mustMS(t, "2023-05-08 09:30"))
	if weekly != 1 || monthly != 0 {
		t.Errorf("monday: weekly=%d monthly=%d", weekly, monthly)
	}
	// 2023-05-09周二
	ctx.Sched.Tick(ctx, mustMS(t, "2023-05-09 09:30"))
	if weekly != 1 {
		t.Errorf("tuesday fired weekly")
	}
	// 2023-05-01是周一且是1日
	ctx.Sched.Tick(ctx, mustMS(t, "2023-05-01 09:30"))
	if weekly != 2 || monthly != 1 {
		t.Errorf("may 1st: weekly=%d monthly=%d", weekly, monthly)
	}
}

func TestSchedTickDay(t *testing.T) {
	ctx := newTestCtx()
	daily, weekly := 0, 0
	// 日线驱动时注册的时分不参与匹配
	_ = ctx.Sched.Register(core.FreqDaily, "09:30", "d", func(ctx *Context) { daily += 1 })
	_ = ctx.Sched.Register(core.FreqWeekly, "10:00", "w", func(ctx *Context) { weekly += 1 })
	day := mustMS(t, "20230508")
	ctx.Sched.TickDay(ctx, day)
	ctx.Sched.TickDay(ctx, day)
	if daily != 1 {
		t.Errorf("daily fired %d, expect once per day", daily)
	}
	// 2023-05-08是周一
	if weekly != 1 {
		t.Errorf("weekly fired %d on monday", weekly)
	}
	ctx.Sched.TickDay(ctx, day+btime.DayMSecs)
	if daily != 2 || weekly != 1 {
		t.Errorf("tuesday: daily=%d weekly=%d", daily, weekly)
	}
}

func TestSchedPanicStillAdvances(t *testing.T) {
	ctx := newTestCtx()
	fired := 0
	_ = ctx.Sched.Register(core.FreqDaily, "09:30", "bad", func(ctx *Context) {
		fired += 1
		panic("boom")
	})
	ts := mustMS(t, "2023-05-08 09:30")
	ctx.Sched.Tick(ctx, ts)
	// 失败后同一时间戳不重放
	ctx.Sched.Tick(ctx, ts)
	if fired != 1 {
		t.Errorf("fired = %d, panic should not cause replay", fired)
	}
	if len(ctx.State.Logs) == 0 {
		t.Errorf("panic should be logged")
	}
}

func TestSchedBadArgs(t *testing.T) {
	ctx := newTestCtx()
	if err := ctx.Sched.Register(core.FreqDaily, "9:30:00", "", nil); err == nil {
		t.Errorf("bad time format should fail")
	}
	if err := ctx.Sched.Register(core.FreqDaily, "25:00", "", nil); err == nil {
		t.Errorf("bad hour should fail")
	}
	if err := ctx.Sched.Register("hourly", "09:30", "", nil); err == nil {
		t.Errorf("bad freq should fail")
	}
}

func TestHookOncePerDay(t *testing.T) {
	ctx := newTestCtx()
	fired := 0
	ctx.OnBeforeTrading(func(ctx *Context) { fired += 1 })
	day := mustMS(t, "20230508")
	ctx.Sched.FireHook(ctx, HookBeforeTrading, day)
	ctx.Sched.FireHook(ctx, HookBeforeTrading, day)
	if fired != 1 {
		t.Errorf("fired = %d, expect once per day", fired)
	}
	ctx.Sched.FireHook(ctx, HookBeforeTrading, day+btime.DayMSecs)
	if fired != 2 {
		t.Errorf("fired = %d, expect 2", fired)
	}
}

func TestWarmupBlocksOrders(t *testing.T) {
	ctx := newTestCtx()
	ctx.State.SetTime(mustMS(t, "2023-01-03 15:00"))
	ctx.Od.SetBar("600000.XSHG", &core.Bar{
		Open: 10, High: 10, Low: 10, Close: 10, Volume: 1000, Amount: 10000,
	})
	ctx.State.InWarmup = true
	if od := ctx.OrderValue("600000.XSHG", 50000); od != nil {
		t.Errorf("warmup order should be dropped: %+v", od)
	}
	ctx.State.InWarmup = false
	if od := ctx.OrderValue("600000.XSHG", 50000); od == nil {
		t.Errorf("order after warmup should fill")
	}
}

func TestSetOptionAndCommission(t *testing.T) {
	ctx := newTestCtx()
	ctx.SetOption("commission", 0.001)
	if ctx.State.Options.Commission != 0.001 {
		t.Errorf("commission = %v", ctx.State.Options.Commission)
	}
	ctx.SetCommission(map[string]interface{}{
		"commission": 0.0005, "tax": 0.002, "min_commission": 1.0,
	})
	opts := ctx.State.Options
	if opts.Commission != 0.0005 || opts.StampDuty != 0.002 || opts.MinCommission != 1.0 {
		t.Errorf("set_commission map fail: %+v", opts)
	}
	// 非法键不应中断
	ctx.SetOption("bogus", 1)
	if len(ctx.State.Logs) == 0 {
		t.Errorf("bad option should log")
	}
}

func TestStratRegistry(t *testing.T) {
	Register("unit_demo", func() *Strategy {
		return &Strategy{}
	})
	st, err := New("unit_demo")
	if err != nil {
		t.Fatal(err)
	}
	if st.Name != "unit_demo" {
		t.Errorf("name should default to registry key: %s", st.Name)
	}
	if _, err = New("missing"); err == nil {
		t.Errorf("missing strategy should fail")
	}
}
