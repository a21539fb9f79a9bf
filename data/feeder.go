package data

import (
	"sort"

	"github.com/astock/abot/core"
	"github.com/banbox/banexg/errs"
	"github.com/schollz/progressbar/v3"
)

type FnBatch func(timeMS int64, bars map[string]*core.Bar) *errs.Error

/*
HistFeeder
多标的历史K线按时间戳对齐回放。
同一时间戳的所有标的bar合并为一批回调，停牌缺失的标的不在批内
*/
type HistFeeder struct {
	ShowBar bool

	items map[string][]*core.Bar
	times []int64
}

func NewHistFeeder(items map[string][]*core.Bar) *HistFeeder {
	timeSet := make(map[int64]bool)
	for _, bars := range items {
		for _, b := range bars {
			timeSet[b.Time] = true
		}
	}
	times := make([]int64, 0, len(timeSet))
	for t := range timeSet {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	return &HistFeeder{items: items, times: times}
}

func (f *HistFeeder) TotalNum() int {
	return len(f.times)
}

func (f *HistFeeder) LoopMain(cb FnBatch) *errs.Error {
	var pBar *progressbar.ProgressBar
	if f.ShowBar {
		pBar = progressbar.Default(int64(len(f.times)))
		defer pBar.Close()
	}
	idxs := make(map[string]int, len(f.items))
	for _, timeMS := range f.times {
		batch := make(map[string]*core.Bar)
		for symbol, bars := range f.items {
			i := idxs[symbol]
			if i < len(bars) && bars[i].Time == timeMS {
				batch[symbol] = bars[i]
				idxs[symbol] = i + 1
			}
		}
		if err := cb(timeMS, batch); err != nil {
			return err
		}
		if pBar != nil {
			_ = pBar.Add(1)
		}
	}
	return nil
}
