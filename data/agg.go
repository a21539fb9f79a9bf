package data

import (
	"sort"

	"github.com/astock/abot/btime"
	"github.com/astock/abot/core"
)

/*
AggregateDaily
将分钟K线按自然日聚合为日K线：
open取首根，close取末根，high/low取极值，volume/amount求和。
输入需按时间升序，输出bar时间为当日0点
*/
func AggregateDaily(bars []*core.Bar) []*core.Bar {
	if len(bars) == 0 {
		return nil
	}
	var res []*core.Bar
	var cur *core.Bar
	for _, b := range bars {
		day := btime.DateMS(b.Time)
		if cur == nil || cur.Time != day {
			cur = &core.Bar{
				Time: day, Open: b.Open, High: b.High, Low: b.Low,
				Close: b.Close, Volume: b.Volume, Amount: b.Amount,
			}
			res = append(res, cur)
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
		cur.Amount += b.Amount
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Time < res[j].Time })
	return res
}
