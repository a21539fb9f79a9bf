package data

import (
	"testing"

	"github.com/astock/abot/core"
	"github.com/banbox/banexg/errs"
)

func TestHistFeederAlign(t *testing.T) {
	items := map[string][]*core.Bar{
		"600000.XSHG": {
			{Time: 1000, Close: 10}, {Time: 2000, Close: 11}, {Time: 3000, Close: 12},
		},
		"000001.XSHE": {
			{Time: 2000, Close: 20}, {Time: 3000, Close: 21},
		},
	}
	fd := NewHistFeeder(items)
	if fd.TotalNum() != 3 {
		t.Fatalf("total = %v", fd.TotalNum())
	}
	var gotTimes []int64
	var batchSizes []int
	err := fd.LoopMain(func(timeMS int64, bars map[string]*core.Bar) *errs.Error {
		gotTimes = append(gotTimes, timeMS)
		batchSizes = append(batchSizes, len(bars))
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if gotTimes[0] != 1000 || gotTimes[1] != 2000 || gotTimes[2] != 3000 {
		t.Errorf("times = %v", gotTimes)
	}
	// 第一个时间戳只有一个标的有bar
	if batchSizes[0] != 1 || batchSizes[1] != 2 || batchSizes[2] != 2 {
		t.Errorf("batch sizes = %v", batchSizes)
	}
}

func TestMemProvider(t *testing.T) {
	p := NewMemProvider()
	p.SetBars("600000", core.FreqDaily, []*core.Bar{
		{Time: 1000, Close: 10}, {Time: 2000, Close: 11},
	})
	bars, err := p.LoadBars("600000.XSHG", core.FreqDaily, 0, 1500, core.AdjNone)
	if err != nil {
		t.Fatalf("load fail: %v", err)
	}
	if len(bars) != 1 || bars[0].Close != 10 {
		t.Errorf("bars = %+v", bars)
	}
	_, err = p.LoadBars("999999.XSHG", core.FreqDaily, 0, 1500, core.AdjNone)
	if err == nil || err.Code != core.ErrNoDataFound {
		t.Errorf("missing symbol should return ErrNoDataFound, got %v", err)
	}
}
