package strat

import (
	"github.com/astock/abot/core"
	"github.com/banbox/banexg/errs"
)

/*
Strategy
策略回调集合。所有回调均可为空；
Initialize在回测开始前执行一次，可注册定时任务、修改选项；
HandleData每根bar执行；BeforeTradingStart/AfterTradingEnd每个交易日各执行一次
*/
type Strategy struct {
	Name   string
	Params map[string]interface{}
	// 策略源码文本，仅用于预热期启发式扫描，可为空
	Source string

	Initialize         func(ctx *Context)
	HandleData         func(ctx *Context, data *Snapshot)
	BeforeTradingStart func(ctx *Context)
	AfterTradingEnd    func(ctx *Context)
}

type FuncMakeStrat = func() *Strategy

var StratMake = make(map[string]FuncMakeStrat)

func Register(name string, fn FuncMakeStrat) {
	StratMake[name] = fn
}

func New(name string) (*Strategy, *errs.Error) {
	fn, ok := StratMake[name]
	if !ok {
		return nil, errs.NewMsg(core.ErrBadConfig, "strategy `%s` not registered", name)
	}
	res := fn()
	if res.Name == "" {
		res.Name = name
	}
	return res, nil
}

/*
Snapshot
一批同时间戳的行情切片，只读。停牌标的不在其中
*/
type Snapshot struct {
	TimeMS int64
	bars   map[string]*core.Bar
}

func NewSnapshot(timeMS int64, bars map[string]*core.Bar) *Snapshot {
	return &Snapshot{TimeMS: timeMS, bars: bars}
}

func (s *Snapshot) Bar(symbol string) (*core.Bar, bool) {
	b, ok := s.bars[core.NormCode(symbol)]
	return b, ok
}

func (s *Snapshot) Symbols() []string {
	res := make([]string, 0, len(s.bars))
	for code := range s.bars {
		res = append(res, code)
	}
	return res
}
