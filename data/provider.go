package data

import (
	"sort"

	"github.com/astock/abot/core"
	"github.com/banbox/banexg/errs"
)

/*
Provider
K线数据源。回测引擎只通过此接口读取行情，
CSV/parquet等具体文件格式由外部实现
*/
type Provider interface {
	// LoadBars 返回[startMS, endMS)区间内按时间升序的K线；无数据时返回ErrNoDataFound
	LoadBars(symbol, freq string, startMS, endMS int64, adjust string) ([]*core.Bar, *errs.Error)
	// SourcePath 数据源文件路径，用于缓存失效判断；未知返回空串
	SourcePath(symbol, freq string) string
}

var providerMakes = make(map[string]func(dataDir string) (Provider, *errs.Error))

// RegisterProvider 注册数据源构造函数，供命令行入口按名称使用
func RegisterProvider(name string, fn func(dataDir string) (Provider, *errs.Error)) {
	providerMakes[name] = fn
}

func NewProvider(name, dataDir string) (Provider, *errs.Error) {
	fn, ok := providerMakes[name]
	if !ok {
		return nil, errs.NewMsg(core.ErrBadConfig, "data provider `%s` not registered", name)
	}
	return fn(dataDir)
}

/*
MemProvider
内存数据源，测试及嵌入场景使用
*/
type MemProvider struct {
	items map[string][]*core.Bar
	paths map[string]string
}

func NewMemProvider() *MemProvider {
	return &MemProvider{
		items: make(map[string][]*core.Bar),
		paths: make(map[string]string),
	}
}

func memKey(symbol, freq string) string {
	return core.NormCode(symbol) + "|" + freq
}

func (p *MemProvider) SetBars(symbol, freq string, bars []*core.Bar) {
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time < bars[j].Time })
	p.items[memKey(symbol, freq)] = bars
}

func (p *MemProvider) SetSourcePath(symbol, freq, path string) {
	p.paths[memKey(symbol, freq)] = path
}

func (p *MemProvider) LoadBars(symbol, freq string, startMS, endMS int64, adjust string) ([]*core.Bar, *errs.Error) {
	bars, ok := p.items[memKey(symbol, freq)]
	if !ok || len(bars) == 0 {
		return nil, errs.NewMsg(core.ErrNoDataFound, "no %s bars for %s", freq, symbol)
	}
	lo := sort.Search(len(bars), func(i int) bool { return bars[i].Time >= startMS })
	hi := sort.Search(len(bars), func(i int) bool { return bars[i].Time >= endMS })
	if lo >= hi {
		return nil, errs.NewMsg(core.ErrNoDataFound, "no %s bars for %s in range", freq, symbol)
	}
	return bars[lo:hi], nil
}

func (p *MemProvider) SourcePath(symbol, freq string) string {
	return p.paths[memKey(symbol, freq)]
}
