package opt

import (
	"math"

	"github.com/astock/abot/biz"
	"gonum.org/v1/gonum/stat"
)

// 年化交易日数
const tradingDaysPerYear = 252

type Metrics struct {
	TotalReturn  float64
	AnnualReturn float64
	Volatility   float64
	Sharpe       float64
	Sortino      float64
	Calmar       float64
	MaxDrawDown  float64
	WinRate      float64
	TotalFee     float64
	TradeNum     int
}

/*
ComputeMetrics
由每日净值序列和成交记录计算绩效指标。
净值不足2个点时只给出总收益
*/
func ComputeMetrics(startCash float64, equity []float64, trades []*biz.Trade) *Metrics {
	res := &Metrics{}
	for _, td := range trades {
		res.TotalFee += td.Fee
		if td.Profit >= 0 {
			res.WinRate += 1
		}
	}
	res.TradeNum = len(trades)
	if res.TradeNum > 0 {
		res.WinRate /= float64(res.TradeNum)
	}
	if len(equity) == 0 || startCash <= 0 {
		return res
	}
	res.TotalReturn = equity[len(equity)-1]/startCash - 1
	// 日收益率序列，首日相对初始资金
	rets := make([]float64, len(equity))
	prev := startCash
	for i, v := range equity {
		rets[i] = v/prev - 1
		prev = v
	}
	res.MaxDrawDown = maxDrawDown(equity)
	if len(rets) < 2 {
		return res
	}
	mean := stat.Mean(rets, nil)
	std := stat.StdDev(rets, nil)
	res.AnnualReturn = mean * tradingDaysPerYear
	res.Volatility = std * math.Sqrt(tradingDaysPerYear)
	if std > 0 {
		res.Sharpe = mean / std * math.Sqrt(tradingDaysPerYear)
	}
	var downside []float64
	for _, r := range rets {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) >= 2 {
		dstd := stat.StdDev(downside, nil)
		if dstd > 0 {
			res.Sortino = mean / dstd * math.Sqrt(tradingDaysPerYear)
		}
	}
	if res.MaxDrawDown > 0 {
		res.Calmar = res.AnnualReturn / res.MaxDrawDown
	}
	return res
}

func maxDrawDown(equity []float64) float64 {
	peak, maxDD := 0.0, 0.0
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := 1 - v/peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
