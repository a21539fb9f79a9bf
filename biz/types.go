package biz

import (
	"fmt"

	"github.com/astock/abot/btime"
	"github.com/astock/abot/config"
	"github.com/banbox/banexg/log"
)

type Order struct {
	ID     string
	Time   int64
	Symbol string
	Side   string
	Size   int
	Price  float64
	Value  float64
	Fee    float64
	Status string
	Tag    string
}

// Trade 卖出成交对应的已实现盈亏记录
type Trade struct {
	Time   int64
	Symbol string
	Size   int
	Price  float64
	Fee    float64
	Profit float64
}

type RecordRow struct {
	Time   int64
	Fields map[string]float64
}

/*
SimState
单次回测的运行状态。每个回测任务持有独立实例，互不共享
*/
type SimState struct {
	TaskID    string
	TimeMS    int64
	DateMS    int64
	InWarmup  bool
	Benchmark string
	Options   *config.Options
	Logs      []string
	Records   []*RecordRow
}

func NewSimState(taskID string, opts *config.Options) *SimState {
	if opts == nil {
		opts = config.DefaultOptions()
	}
	return &SimState{TaskID: taskID, Options: opts}
}

// SetTime 推进模拟时钟
func (s *SimState) SetTime(timeMS int64) {
	s.TimeMS = timeMS
	s.DateMS = btime.DateMS(timeMS)
}

func (s *SimState) AddLog(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	s.Logs = append(s.Logs, btime.ToDateStr(s.TimeMS, "")+" "+msg)
	log.Debug(msg)
}

func (s *SimState) Record(fields map[string]float64) {
	if len(fields) == 0 {
		return
	}
	cp := make(map[string]float64, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	s.Records = append(s.Records, &RecordRow{Time: s.TimeMS, Fields: cp})
}
