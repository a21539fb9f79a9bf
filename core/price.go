package core

import (
	"github.com/shopspring/decimal"
)

/*
RoundToTick
按最小报价单位四舍五入。交易所涨跌停价按此规则生成
*/
func RoundToTick(price, tick float64) float64 {
	if tick <= 0 {
		tick = DefPriceTick
	}
	p := decimal.NewFromFloat(price)
	t := decimal.NewFromFloat(tick)
	v, _ := p.Div(t).Round(0).Mul(t).Float64()
	return v
}

// FloorToTick 向下取整到tick，买入成交价使用
func FloorToTick(price, tick float64) float64 {
	if tick <= 0 {
		tick = DefPriceTick
	}
	p := decimal.NewFromFloat(price)
	t := decimal.NewFromFloat(tick)
	v, _ := p.Div(t).Floor().Mul(t).Float64()
	return v
}

// CeilToTick 向上取整到tick，卖出成交价使用
func CeilToTick(price, tick float64) float64 {
	if tick <= 0 {
		tick = DefPriceTick
	}
	p := decimal.NewFromFloat(price)
	t := decimal.NewFromFloat(tick)
	v, _ := p.Div(t).Ceil().Mul(t).Float64()
	return v
}

/*
LimitPrices
由昨收价计算当日涨停/跌停价
*/
func LimitPrices(prevClose, upFactor, downFactor, tick float64) (float64, float64) {
	up := RoundToTick(prevClose*upFactor, tick)
	down := RoundToTick(prevClose*downFactor, tick)
	return up, down
}
