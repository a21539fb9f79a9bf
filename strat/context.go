package strat

import (
	"github.com/astock/abot/biz"
	"github.com/astock/abot/core"
	"github.com/banbox/banexg/errs"
	"github.com/banbox/banexg/log"
	"go.uber.org/zap"
)

/*
Context
策略可见的全部运行环境。每个回测任务一个实例
*/
type Context struct {
	State *biz.SimState
	Port  *biz.Portfolio
	Od    *biz.OrderMgr
	Sched *Scheduler

	dailyHist func(code string) []*core.Bar
}

func NewContext(state *biz.SimState, port *biz.Portfolio, od *biz.OrderMgr) *Context {
	return &Context{State: state, Port: port, Od: od, Sched: NewScheduler()}
}

// 预热期屏蔽下单，只允许读取数据
func (c *Context) canTrade(intent string) bool {
	if c.State.InWarmup {
		log.Debug("skip order in warmup", zap.String("intent", intent))
		return false
	}
	return true
}

func (c *Context) Order(symbol string, shares int) *biz.Order {
	if !c.canTrade("order") {
		return nil
	}
	return c.Od.Order(symbol, shares)
}

func (c *Context) OrderValue(symbol string, value float64) *biz.Order {
	if !c.canTrade("order_value") {
		return nil
	}
	return c.Od.OrderValue(symbol, value)
}

func (c *Context) OrderTarget(symbol string, target int) *biz.Order {
	if !c.canTrade("order_target") {
		return nil
	}
	return c.Od.OrderTarget(symbol, target)
}

func (c *Context) OrderTargetValue(symbol string, value float64) *biz.Order {
	if !c.canTrade("order_target_value") {
		return nil
	}
	return c.Od.OrderTargetValue(symbol, value)
}

func (c *Context) OrderTargetPercent(symbol string, percent float64) *biz.Order {
	if !c.canTrade("order_target_percent") {
		return nil
	}
	return c.Od.OrderTargetPercent(symbol, percent)
}

func (c *Context) RunDaily(timeStr string, fn func(ctx *Context)) *errs.Error {
	return c.Sched.Register(core.FreqDaily, timeStr, "", fn)
}

func (c *Context) RunWeekly(timeStr string, fn func(ctx *Context)) *errs.Error {
	return c.Sched.Register(core.FreqWeekly, timeStr, "", fn)
}

func (c *Context) RunMonthly(timeStr string, fn func(ctx *Context)) *errs.Error {
	return c.Sched.Register(core.FreqMonthly, timeStr, "", fn)
}

func (c *Context) OnBeforeTrading(fn func(ctx *Context)) {
	c.Sched.RegisterHook(HookBeforeTrading, fn)
}

func (c *Context) OnAfterTrading(fn func(ctx *Context)) {
	c.Sched.RegisterHook(HookAfterTrading, fn)
}

// SetDailyHist 由运行方注入日线历史查询，策略侧只读
func (c *Context) SetDailyHist(fn func(code string) []*core.Bar) {
	c.dailyHist = fn
}

/*
HistoryDaily
返回截至上一交易日的日线序列，分钟频率下来自聚合缓存。
未注入数据源时返回空
*/
func (c *Context) HistoryDaily(symbol string) []*core.Bar {
	if c.dailyHist == nil {
		return nil
	}
	return c.dailyHist(core.NormCode(symbol))
}

func (c *Context) SetBenchmark(symbol string) {
	c.State.Benchmark = core.NormCode(symbol)
}

// SetOption 修改运行选项，非法键值记日志后忽略
func (c *Context) SetOption(key string, val interface{}) {
	if err := c.State.Options.Set(key, val); err != nil {
		log.Warn("set_option fail", zap.String("key", key), zap.String("err", err.Short()))
		c.State.AddLog("set_option %s fail: %v", key, err.Short())
		return
	}
	c.State.AddLog("set_option %s = %v", key, val)
}

/*
SetCommission
支持两种形式：数字视为佣金率；
map可含commission/min_commission/stamp_duty（及tax别名）
*/
func (c *Context) SetCommission(val interface{}) {
	switch v := val.(type) {
	case float64:
		c.SetOption("commission", v)
	case int:
		c.SetOption("commission", float64(v))
	case map[string]interface{}:
		for key, item := range v {
			switch key {
			case "tax":
				key = "stamp_duty"
			case "commission", "min_commission", "stamp_duty":
			default:
				c.State.AddLog("set_commission unknown field: %s", key)
				continue
			}
			c.SetOption(key, item)
		}
	default:
		c.State.AddLog("set_commission unsupported value: %v", val)
	}
}

func (c *Context) SetSlippage(perc float64) {
	c.SetOption("slippage_perc", perc)
}

func (c *Context) Record(fields map[string]float64) {
	c.State.Record(fields)
}

func (c *Context) Log(format string, args ...interface{}) {
	c.State.AddLog(format, args...)
}
