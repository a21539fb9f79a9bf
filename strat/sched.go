package strat

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/astock/abot/btime"
	"github.com/astock/abot/core"
	"github.com/banbox/banexg/errs"
	"github.com/banbox/banexg/log"
	"go.uber.org/zap"
)

const (
	HookBeforeTrading = "before_trading_start"
	HookAfterTrading  = "after_trading_end"
)

type SchedTask struct {
	Name string
	Freq string // daily/weekly/monthly
	Hour int
	Min  int
	Fn   func(ctx *Context)

	lastFireMS int64
}

/*
Scheduler
模拟时间驱动的任务调度。任务在时分匹配且频率谓词满足时触发，
同一时间戳至多触发一次；回调失败也推进触发标记，不会重放
*/
type Scheduler struct {
	Tasks []*SchedTask

	hooks        map[string][]func(ctx *Context)
	hookFireDate map[string]int64
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		hooks:        make(map[string][]func(ctx *Context)),
		hookFireDate: make(map[string]int64),
	}
}

/*
Register
注册定时任务。timeStr为"HH:MM"格式；
weekly在周一触发，monthly在每月1日触发
*/
func (s *Scheduler) Register(freq, timeStr, name string, fn func(ctx *Context)) *errs.Error {
	hour, minute, err := parseHourMinute(timeStr)
	if err != nil {
		return errs.New(core.ErrBadConfig, err)
	}
	switch freq {
	case core.FreqDaily, core.FreqWeekly, core.FreqMonthly:
	default:
		return errs.NewMsg(core.ErrInvalidFreq, "invalid task freq: %s", freq)
	}
	if name == "" {
		name = fmt.Sprintf("%s_%s_%d", freq, timeStr, len(s.Tasks))
	}
	s.Tasks = append(s.Tasks, &SchedTask{Name: name, Freq: freq, Hour: hour, Min: minute, Fn: fn})
	return nil
}

func parseHourMinute(timeStr string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(timeStr), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time format: %s, expect HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour: %s", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute: %s", timeStr)
	}
	return hour, minute, nil
}

func (t *SchedTask) match(timeMS int64) bool {
	hour, minute := btime.HourMinute(timeMS)
	if hour != t.Hour || minute != t.Min {
		return false
	}
	return t.matchDay(timeMS)
}

func (t *SchedTask) matchDay(dayMS int64) bool {
	switch t.Freq {
	case core.FreqWeekly:
		return btime.Weekday(dayMS) == time.Monday
	case core.FreqMonthly:
		return btime.DayOfMonth(dayMS) == 1
	}
	return true
}

/*
Tick
检查全部任务。匹配即触发并记录时间戳，
回调panic被捕获记录，同一时间戳不会二次触发
*/
func (s *Scheduler) Tick(ctx *Context, timeMS int64) {
	for _, task := range s.Tasks {
		if task.lastFireMS == timeMS || !task.match(timeMS) {
			continue
		}
		task.lastFireMS = timeMS
		s.safeCall(ctx, task.Name, task.Fn)
	}
}

/*
TickDay
日线频率下按交易日触发：日线bar打在零点，注册的时分不参与匹配，
每任务每个交易日至多触发一次
*/
func (s *Scheduler) TickDay(ctx *Context, dayMS int64) {
	for _, task := range s.Tasks {
		if task.lastFireMS == dayMS || !task.matchDay(dayMS) {
			continue
		}
		task.lastFireMS = dayMS
		s.safeCall(ctx, task.Name, task.Fn)
	}
}

func (s *Scheduler) RegisterHook(hook string, fn func(ctx *Context)) {
	s.hooks[hook] = append(s.hooks[hook], fn)
}

/*
FireHook
按日触发生命周期钩子，同一交易日同名钩子只触发一次
*/
func (s *Scheduler) FireHook(ctx *Context, hook string, dateMS int64) {
	if s.hookFireDate[hook] == dateMS {
		return
	}
	s.hookFireDate[hook] = dateMS
	for i, fn := range s.hooks[hook] {
		s.safeCall(ctx, fmt.Sprintf("%s_%d", hook, i), fn)
	}
}

func (s *Scheduler) safeCall(ctx *Context, name string, fn func(ctx *Context)) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("scheduled task panic", zap.String("task", name), zap.Any("panic", p))
			if ctx != nil && ctx.State != nil {
				ctx.State.AddLog("task %s panic: %v", name, p)
			}
		}
	}()
	fn(ctx)
}
