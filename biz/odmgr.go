package biz

import (
	"math"

	"github.com/astock/abot/config"
	"github.com/astock/abot/core"
	"github.com/banbox/banexg/errs"
	"github.com/banbox/banexg/log"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

/*
OrderMgr
订单引擎。接收策略下单意图，按当前bar模拟成交：
滑点各半加在买卖两侧并取整到tick，涨跌停拦截，
整手数量调整，费用=max(成交额*佣金率, 最低佣金)，卖出加印花税。
下单失败只记录日志，不中断回测
*/
type OrderMgr struct {
	State   *SimState
	Port    *Portfolio
	STCodes map[string]bool

	Orders  []*Order
	Blocked []*Order
	Trades  []*Trade

	bars      map[string]*core.Bar
	lastClose map[string]float64
	prevClose map[string]float64
	dayGross  float64
}

func NewOrderMgr(state *SimState, port *Portfolio) *OrderMgr {
	return &OrderMgr{
		State:     state,
		Port:      port,
		STCodes:   make(map[string]bool),
		bars:      make(map[string]*core.Bar),
		lastClose: make(map[string]float64),
		prevClose: make(map[string]float64),
	}
}

// SetBar 更新标的当前bar并按收盘价盯市
func (o *OrderMgr) SetBar(symbol string, bar *core.Bar) {
	code := core.NormCode(symbol)
	o.bars[code] = bar
	o.lastClose[code] = bar.Close
	if pos := o.Port.GetPos(code); pos != nil {
		pos.LastPrice = bar.Close
	}
}

/*
RollPrevClose
日切时调用，将昨日收盘价固化，供当日涨跌停计算
*/
func (o *OrderMgr) RollPrevClose() {
	for code, price := range o.lastClose {
		o.prevClose[code] = price
	}
}

// PopDayGross 取出并清零当日累计成交额，用于换手率序列
func (o *OrderMgr) PopDayGross() float64 {
	res := o.dayGross
	o.dayGross = 0
	return res
}

type priceCtx struct {
	bar       *core.Bar
	base      float64
	execBuy   float64
	execSell  float64
	prevClose float64
	upLim     float64
	downLim   float64
}

func (o *OrderMgr) priceContext(symbol string) (*priceCtx, *errs.Error) {
	code := core.NormCode(symbol)
	bar, ok := o.bars[code]
	if !ok {
		return nil, errs.NewMsg(core.ErrNoDataFound, "no bar for %s at current time", symbol)
	}
	opts := o.State.Options
	base := bar.Close
	if opts.FillPrice == config.FillPriceOpen {
		base = bar.Open
	}
	if base <= 0 {
		return nil, errs.NewMsg(core.ErrInvalidBars, "invalid base price for %s: %v", symbol, base)
	}
	half := opts.SlippagePerc / 2
	ctx := &priceCtx{
		bar:      bar,
		base:     base,
		execBuy:  core.FloorToTick(base*(1+half), opts.PriceTick),
		execSell: core.CeilToTick(base*(1-half), opts.PriceTick),
	}
	ctx.prevClose = o.prevClose[code]
	if ctx.prevClose > 0 {
		upFac, downFac := opts.LimitUpFactor, opts.LimitDownFactor
		if it, ok2 := core.ParseInstrument(code); ok2 {
			it.IsST = o.STCodes[it.Code]
			if it.Board != core.BoardMain || it.IsST {
				pct := it.LimitPct()
				upFac, downFac = 1+pct, 1-pct
			}
		}
		ctx.upLim, ctx.downLim = core.LimitPrices(ctx.prevClose, upFac, downFac, opts.PriceTick)
	}
	return ctx, nil
}

func (o *OrderMgr) commission(gross float64) float64 {
	opts := o.State.Options
	fee := gross * opts.Commission
	if fee < opts.MinCommission {
		fee = opts.MinCommission
	}
	return fee
}

func (o *OrderMgr) addBlocked(symbol, side, status string, price float64) {
	od := &Order{
		ID: uuid.NewString(), Time: o.State.TimeMS, Symbol: core.NormCode(symbol),
		Side: side, Size: 0, Price: price, Status: status,
	}
	o.Blocked = append(o.Blocked, od)
	o.State.AddLog("%s %s blocked: %s @ %.2f", symbol, side, status, price)
}

/*
fillBuy
买入成交。数量已整手，按可用资金逐手缩减直到费用含佣金后可负担
*/
func (o *OrderMgr) fillBuy(symbol string, shares int, ctx *priceCtx) (*Order, *errs.Error) {
	opts := o.State.Options
	if opts.EnableLimitCheck && ctx.prevClose > 0 && ctx.execBuy >= ctx.upLim-core.AmtDust {
		o.addBlocked(symbol, core.OdSideBuy, core.OdStatusBlockedUp, ctx.execBuy)
		return nil, nil
	}
	gross := float64(shares) * ctx.execBuy
	fee := o.commission(gross)
	for shares > 0 && gross+fee > o.Port.Cash+core.AmtDust {
		shares -= opts.Lot
		gross = float64(shares) * ctx.execBuy
		fee = o.commission(gross)
	}
	if shares <= 0 {
		o.State.AddLog("buy %s dropped: cash %.2f insufficient for one lot @ %.2f",
			symbol, o.Port.Cash, ctx.execBuy)
		return nil, nil
	}
	dayMS := o.State.DateMS
	if err := o.Port.ApplyBuy(symbol, shares, ctx.execBuy, fee, dayMS); err != nil {
		return nil, err
	}
	od := &Order{
		ID: uuid.NewString(), Time: o.State.TimeMS, Symbol: core.NormCode(symbol),
		Side: core.OdSideBuy, Size: shares, Price: ctx.execBuy,
		Value: gross, Fee: fee, Status: core.OdStatusFilled,
	}
	o.Orders = append(o.Orders, od)
	o.dayGross += gross
	return od, nil
}

/*
fillSell
卖出成交。数量超出可卖部分按T+1钳制，只记日志不报错
*/
func (o *OrderMgr) fillSell(symbol string, shares int, ctx *priceCtx) (*Order, *errs.Error) {
	opts := o.State.Options
	if opts.EnableLimitCheck && ctx.prevClose > 0 && ctx.execSell <= ctx.downLim+core.AmtDust {
		o.addBlocked(symbol, core.OdSideSell, core.OdStatusBlockedDown, ctx.execSell)
		return nil, nil
	}
	pos := o.Port.GetPos(symbol)
	dayMS := o.State.DateMS
	closeable := 0
	if pos != nil {
		closeable = pos.Closeable(dayMS)
	}
	if closeable <= 0 {
		o.State.AddLog("sell %s dropped: nothing closeable today", symbol)
		return nil, nil
	}
	tag := ""
	if shares > closeable {
		o.State.AddLog("sell %s clamped %d -> %d by T+1", symbol, shares, closeable)
		shares = closeable
		tag = "t+1_clamp"
	}
	gross := float64(shares) * ctx.execSell
	fee := o.commission(gross) + gross*opts.StampDuty
	profit, err := o.Port.ApplySell(symbol, shares, ctx.execSell, fee, dayMS)
	if err != nil {
		return nil, err
	}
	od := &Order{
		ID: uuid.NewString(), Time: o.State.TimeMS, Symbol: core.NormCode(symbol),
		Side: core.OdSideSell, Size: shares, Price: ctx.execSell,
		Value: gross, Fee: fee, Status: core.OdStatusFilled, Tag: tag,
	}
	o.Orders = append(o.Orders, od)
	o.Trades = append(o.Trades, &Trade{
		Time: od.Time, Symbol: od.Symbol, Size: shares,
		Price: ctx.execSell, Fee: fee, Profit: profit,
	})
	o.dayGross += gross
	return od, nil
}

// 下单意图统一失败边界：异常只记日志，返回空订单
func (o *OrderMgr) safeIntent(name, symbol string, fn func() (*Order, *errs.Error)) (res *Order) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("order intent panic", zap.String("intent", name),
				zap.String("symbol", symbol), zap.Any("panic", p))
			o.State.AddLog("%s %s panic: %v", name, symbol, p)
			res = nil
		}
	}()
	od, err := fn()
	if err != nil {
		o.State.AddLog("%s %s skipped: %v", name, symbol, err.Short())
		return nil
	}
	return od
}

/*
Order
按股数下单。正数买入（取整手），负数卖出（按可卖钳制）
*/
func (o *OrderMgr) Order(symbol string, shares int) *Order {
	return o.safeIntent("order", symbol, func() (*Order, *errs.Error) {
		if shares == 0 {
			return nil, nil
		}
		ctx, err := o.priceContext(symbol)
		if err != nil {
			return nil, err
		}
		if ctx.bar.Volume <= 0 {
			o.State.AddLog("%s suspended, order skipped", symbol)
			return nil, nil
		}
		if shares > 0 {
			lot := o.State.Options.Lot
			buyNum := shares / lot * lot
			if buyNum <= 0 {
				o.State.AddLog("buy %s dropped: %d below one lot", symbol, shares)
				return nil, nil
			}
			return o.fillBuy(symbol, buyNum, ctx)
		}
		return o.fillSell(symbol, -shares, ctx)
	})
}

/*
OrderValue
按金额下单。正数买入：股数=金额/定价基准向下取整手，
逐手缩减至含佣金可负担；负数卖出等值股数
*/
func (o *OrderMgr) OrderValue(symbol string, value float64) *Order {
	return o.safeIntent("order_value", symbol, func() (*Order, *errs.Error) {
		if value == 0 {
			return nil, nil
		}
		ctx, err := o.priceContext(symbol)
		if err != nil {
			return nil, err
		}
		if ctx.bar.Volume <= 0 {
			o.State.AddLog("%s suspended, order skipped", symbol)
			return nil, nil
		}
		opts := o.State.Options
		sizingPrice := ctx.base
		if value > 0 && opts.ConservativeSizing && ctx.prevClose > sizingPrice {
			sizingPrice = ctx.prevClose
		}
		rawShares := int(math.Floor(math.Abs(value) / sizingPrice))
		shares := rawShares / opts.Lot * opts.Lot
		if value > 0 {
			if shares <= 0 {
				o.State.AddLog("buy %s dropped: value %.2f below one lot", symbol, value)
				return nil, nil
			}
			return o.fillBuy(symbol, shares, ctx)
		}
		if shares <= 0 {
			if opts.StrictOrderMode {
				return nil, errs.NewMsg(core.ErrInvalidCost,
					"sell value %.2f below one lot", math.Abs(value))
			}
			// 非严格模式按全部可卖处理
			pos := o.Port.GetPos(symbol)
			if pos == nil {
				return nil, nil
			}
			shares = pos.Closeable(o.State.DateMS)
			if shares <= 0 {
				return nil, nil
			}
		}
		return o.fillSell(symbol, shares, ctx)
	})
}

/*
OrderTarget
调仓到目标股数。目标为负按0处理，差额为正买入、为负卖出
*/
func (o *OrderMgr) OrderTarget(symbol string, target int) *Order {
	return o.safeIntent("order_target", symbol, func() (*Order, *errs.Error) {
		return o.orderTarget(symbol, target)
	})
}

func (o *OrderMgr) orderTarget(symbol string, target int) (*Order, *errs.Error) {
	if target < 0 {
		o.State.AddLog("order_target %s negative target %d treated as 0", symbol, target)
		target = 0
	}
	cur := 0
	if pos := o.Port.GetPos(symbol); pos != nil {
		cur = pos.Total
	}
	delta := target - cur
	if delta == 0 {
		return nil, nil
	}
	ctx, err := o.priceContext(symbol)
	if err != nil {
		return nil, err
	}
	if ctx.bar.Volume <= 0 {
		o.State.AddLog("%s suspended, order skipped", symbol)
		return nil, nil
	}
	if delta > 0 {
		lot := o.State.Options.Lot
		buyNum := delta / lot * lot
		if buyNum <= 0 {
			o.State.AddLog("order_target %s delta %d below one lot", symbol, delta)
			return nil, nil
		}
		return o.fillBuy(symbol, buyNum, ctx)
	}
	return o.fillSell(symbol, -delta, ctx)
}

/*
OrderTargetValue
调仓到目标市值。目标股数=市值/定价基准向下取整手
*/
func (o *OrderMgr) OrderTargetValue(symbol string, value float64) *Order {
	return o.safeIntent("order_target_value", symbol, func() (*Order, *errs.Error) {
		return o.orderTargetValue(symbol, value)
	})
}

func (o *OrderMgr) orderTargetValue(symbol string, value float64) (*Order, *errs.Error) {
	if value <= 0 {
		return o.orderTarget(symbol, 0)
	}
	ctx, err := o.priceContext(symbol)
	if err != nil {
		return nil, err
	}
	opts := o.State.Options
	target := int(math.Floor(value/ctx.base)) / opts.Lot * opts.Lot
	return o.orderTarget(symbol, target)
}

/*
OrderTargetPercent
调仓到总资产的目标比例
*/
func (o *OrderMgr) OrderTargetPercent(symbol string, percent float64) *Order {
	return o.safeIntent("order_target_percent", symbol, func() (*Order, *errs.Error) {
		total := o.Port.TotalValue()
		return o.orderTargetValue(symbol, total*percent)
	})
}
