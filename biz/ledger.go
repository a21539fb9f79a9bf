package biz

import (
	"github.com/astock/abot/btime"
	"github.com/astock/abot/core"
	"github.com/banbox/banexg/errs"
)

/*
Position
单标的持仓。boughtAt记录每个交易日买入的数量，
用于T+1：当日买入部分不可卖出
*/
type Position struct {
	Symbol    string
	Total     int
	AvgCost   float64
	LastPrice float64

	boughtAt map[int64]int // 日0点毫秒 -> 当日买入股数
}

func newPosition(symbol string) *Position {
	return &Position{Symbol: symbol, boughtAt: make(map[int64]int)}
}

// Closeable 当前可卖数量 = 总持仓 - 当日买入，下限0
func (p *Position) Closeable(dayMS int64) int {
	res := p.Total - p.boughtAt[dayMS]
	if res < 0 {
		return 0
	}
	return res
}

func (p *Position) addShares(dayMS int64, shares int, price float64) {
	if shares <= 0 {
		return
	}
	newTotal := p.Total + shares
	p.AvgCost = (p.AvgCost*float64(p.Total) + price*float64(shares)) / float64(newTotal)
	p.Total = newTotal
	p.boughtAt[dayMS] += shares
}

func (p *Position) reduceShares(shares int) {
	p.Total -= shares
	if p.Total <= 0 {
		p.Total = 0
		p.AvgCost = 0
	}
}

// rollDay 清理2天前的买入记录，防止长回测内存增长
func (p *Position) rollDay(dayMS int64) {
	for day := range p.boughtAt {
		if day < dayMS-2*btime.DayMSecs {
			delete(p.boughtAt, day)
		}
	}
}

func (p *Position) Value() float64 {
	return float64(p.Total) * p.LastPrice
}

/*
Portfolio
账户资金与持仓。所有成交必须经ApplyBuy/ApplySell，
保证现金不为负、卖出不超过可卖数量
*/
type Portfolio struct {
	StartCash float64
	Cash      float64
	Positions map[string]*Position
}

func NewPortfolio(cash float64) *Portfolio {
	return &Portfolio{StartCash: cash, Cash: cash, Positions: make(map[string]*Position)}
}

// GetPos 查询持仓，无持仓返回nil
func (pf *Portfolio) GetPos(symbol string) *Position {
	return pf.Positions[core.NormCode(symbol)]
}

func (pf *Portfolio) getOrCreate(symbol string) *Position {
	code := core.NormCode(symbol)
	pos, ok := pf.Positions[code]
	if !ok {
		pos = newPosition(code)
		pf.Positions[code] = pos
	}
	return pos
}

func (pf *Portfolio) ApplyBuy(symbol string, shares int, price, fee float64, dayMS int64) *errs.Error {
	if shares <= 0 || price <= 0 {
		return errs.NewMsg(core.ErrInvalidCost, "invalid buy %s: %d @ %v", symbol, shares, price)
	}
	cost := float64(shares)*price + fee
	if cost > pf.Cash+core.AmtDust {
		return errs.NewMsg(core.ErrLowFunds, "buy %s need %.2f > cash %.2f", symbol, cost, pf.Cash)
	}
	pf.Cash -= cost
	pf.getOrCreate(symbol).addShares(dayMS, shares, price)
	return nil
}

/*
ApplySell
卖出成交，返回本次已实现盈亏（已扣费用）
*/
func (pf *Portfolio) ApplySell(symbol string, shares int, price, fee float64, dayMS int64) (float64, *errs.Error) {
	pos := pf.GetPos(symbol)
	if pos == nil {
		return 0, errs.NewMsg(core.ErrLowCloseable, "sell %s without position", symbol)
	}
	if shares <= 0 || shares > pos.Closeable(dayMS) {
		return 0, errs.NewMsg(core.ErrLowCloseable, "sell %s %d > closeable %d",
			symbol, shares, pos.Closeable(dayMS))
	}
	profit := (price-pos.AvgCost)*float64(shares) - fee
	pf.Cash += float64(shares)*price - fee
	pos.reduceShares(shares)
	if pos.Total == 0 {
		delete(pf.Positions, pos.Symbol)
	}
	return profit, nil
}

func (pf *Portfolio) RollDay(dayMS int64) {
	for _, pos := range pf.Positions {
		pos.rollDay(dayMS)
	}
}

// TotalValue 现金+持仓市值
func (pf *Portfolio) TotalValue() float64 {
	res := pf.Cash
	for _, pos := range pf.Positions {
		res += pos.Value()
	}
	return res
}
