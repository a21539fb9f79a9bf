package orm

import (
	"path/filepath"
	"testing"

	"github.com/astock/abot/biz"
	"github.com/astock/abot/core"
	"github.com/astock/abot/opt"
)

func TestSaveAndLoadResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bt.db")
	res := &opt.BTResult{
		TaskID:     "task-1",
		Strategy:   "demo",
		Success:    true,
		StartMS:    1683504000000,
		EndMS:      1683936000000,
		BarNum:     8,
		StartCash:  100000,
		FinalValue: 101500,
		Metrics:    &opt.Metrics{TotalReturn: 0.015, MaxDrawDown: 0.02},
		Orders: []*biz.Order{
			{ID: "od-1", Time: 1683504000000, Symbol: "600000", Side: core.OdSideBuy,
				Size: 5000, Price: 10.0, Value: 50000, Fee: 15, Status: core.OdStatusFilled},
			{ID: "od-2", Time: 1683590400000, Symbol: "600000", Side: core.OdSideSell,
				Size: 5000, Price: 10.3, Value: 51500, Fee: 66.95, Status: core.OdStatusFilled},
		},
		Blocked: []*biz.Order{
			{ID: "od-3", Time: 1683676800000, Symbol: "600000", Side: core.OdSideBuy,
				Status: core.OdStatusBlockedUp},
		},
		Trades: []*biz.Trade{
			{Time: 1683590400000, Symbol: "600000", Size: 5000, Price: 10.3,
				Fee: 66.95, Profit: 1433.05},
		},
	}
	if err := SaveResult(path, res); err != nil {
		t.Fatalf("save fail: %v", err.Short())
	}
	task, err := GetTask(path, "task-1")
	if err != nil {
		t.Fatalf("get task fail: %v", err.Short())
	}
	if task.Strategy != "demo" || !task.Success || task.BarNum != 8 {
		t.Errorf("task got %+v", task)
	}
	if task.TotalReturn != 0.015 || task.FinalValue != 101500 {
		t.Errorf("metrics got %+v", task)
	}
	if task.CreateMS <= 0 {
		t.Errorf("CreateMS got %v", task.CreateMS)
	}
	orders, err := GetTaskOrders(path, "task-1")
	if err != nil {
		t.Fatalf("get orders fail: %v", err.Short())
	}
	if len(orders) != 3 {
		t.Fatalf("orders got %v, want 3", len(orders))
	}
	if orders[0].ID != "od-1" || orders[0].Size != 5000 {
		t.Errorf("first order got %+v", orders[0])
	}
	if orders[2].Status != core.OdStatusBlockedUp {
		t.Errorf("blocked status got %s", orders[2].Status)
	}
	if _, err = GetTask(path, "missing"); err == nil || err.Code != core.ErrNoDataFound {
		t.Errorf("expect ErrNoDataFound, got %v", err)
	}
}
