package opt

import (
	"path/filepath"

	"github.com/astock/abot/biz"
	"github.com/astock/abot/btime"
	"github.com/astock/abot/config"
	"github.com/astock/abot/core"
	"github.com/astock/abot/data"
	"github.com/astock/abot/strat"
	"github.com/banbox/banexg/errs"
	"github.com/banbox/banexg/log"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RunStage int

const (
	StageInit RunStage = iota
	StageLoadData
	StageConfigExec
	StageExecute
	StageCollect
	StageDone
	StageFailed
)

var stageNames = map[RunStage]string{
	StageInit:       "Init",
	StageLoadData:   "LoadData",
	StageConfigExec: "ConfigureExecution",
	StageExecute:    "Execute",
	StageCollect:    "CollectResults",
	StageDone:       "Done",
	StageFailed:     "Failed",
}

func (s RunStage) String() string {
	return stageNames[s]
}

/*
BackTest
回测任务。按 Init -> LoadData -> ConfigureExecution -> Execute
-> CollectResults -> Done 推进，任一阶段出错转Failed并保留已有产出。
每个实例持有独立状态，可并行运行多个任务
*/
type BackTest struct {
	Cfg      *config.Config
	Strat    *strat.Strategy
	Provider data.Provider
	Cache    *data.AggCache
	State    *biz.SimState
	Port     *biz.Portfolio
	Od       *biz.OrderMgr
	Ctx      *strat.Context
	Result   *BTResult

	ShowBar    bool
	ShowReport bool

	stage      RunStage
	items      map[string][]*core.Bar
	daily      map[string][]*core.Bar
	clockOffMS int64
	warmInit   bool
	lastDate   int64
	lastTime   int64
	prevEq     float64
}

// 日线频率下模拟时钟定格的盘中时刻，与成交时点一致
var sessionClockMS = map[string]int64{
	config.FillPriceOpen:  (9*60 + 30) * 60000,
	config.FillPriceClose: 15 * 60 * 60000,
}

func NewBackTest(cfg *config.Config, provider data.Provider) *BackTest {
	return &BackTest{Cfg: cfg, Provider: provider}
}

func (b *BackTest) Run() *BTResult {
	stages := []struct {
		stage RunStage
		fn    func() *errs.Error
	}{
		{StageInit, b.init},
		{StageLoadData, b.loadData},
		{StageConfigExec, b.configExec},
		{StageExecute, b.execute},
		{StageCollect, b.collect},
	}
	for _, item := range stages {
		b.setStage(item.stage)
		if err := b.runStage(item.stage, item.fn); err != nil {
			b.fail(err)
			return b.Result
		}
	}
	b.setStage(StageDone)
	b.Result.Success = true
	b.Result.Stage = StageDone.String()
	if b.ShowReport {
		b.Result.printBtResult()
	}
	return b.Result
}

// 阶段内panic视为该阶段失败，不向上扩散
func (b *BackTest) runStage(stage RunStage, fn func() *errs.Error) (err *errs.Error) {
	defer func() {
		if p := recover(); p != nil {
			err = errs.NewMsg(core.ErrRunTime, "stage %s panic: %v", stage, p)
		}
	}()
	return fn()
}

func (b *BackTest) setStage(stage RunStage) {
	b.stage = stage
	if b.Result != nil {
		b.Result.Stage = stage.String()
	}
	log.Info("backtest stage", zap.String("stage", stage.String()))
}

func (b *BackTest) fail(err *errs.Error) {
	b.stage = StageFailed
	if b.Result == nil {
		b.Result = &BTResult{}
	}
	b.Result.Success = false
	b.Result.Stage = StageFailed.String()
	b.Result.ErrMsg = err.Short()
	log.Error("backtest failed", zap.String("err", err.Short()))
}

func (b *BackTest) init() *errs.Error {
	cfg := b.Cfg
	if cfg == nil || cfg.TimeRange == nil {
		return errs.NewMsg(core.ErrBadConfig, "config with time range is required")
	}
	if b.Provider == nil {
		return errs.NewMsg(core.ErrBadConfig, "data provider is required")
	}
	if cfg.Options == nil {
		cfg.Options = config.DefaultOptions()
	}
	taskID := uuid.NewString()
	b.State = biz.NewSimState(taskID, cfg.Options.Clone())
	b.Port = biz.NewPortfolio(cfg.Cash)
	b.Od = biz.NewOrderMgr(b.State, b.Port)
	b.Ctx = strat.NewContext(b.State, b.Port, b.Od)
	if b.Strat == nil {
		st, err := strat.New(cfg.Strategy)
		if err != nil {
			return err
		}
		b.Strat = st
	}
	if len(cfg.StratParams) > 0 {
		if b.Strat.Params == nil {
			b.Strat.Params = make(map[string]interface{})
		}
		for k, v := range cfg.StratParams {
			b.Strat.Params[k] = v
		}
	}
	cacheDir := b.State.Options.MinuteCacheDir
	if cacheDir == "" && cfg.DataDir != "" {
		cacheDir = filepath.Join(cfg.DataDir, "agg_cache")
	}
	b.Cache = data.NewAggCache(cacheDir, b.State.Options.PersistMinuteAgg)
	b.items = make(map[string][]*core.Bar)
	b.daily = make(map[string][]*core.Bar)
	b.prevEq = cfg.Cash
	b.Result = &BTResult{
		TaskID:    taskID,
		Strategy:  b.Strat.Name,
		StartMS:   cfg.TimeRange.StartMS,
		EndMS:     cfg.TimeRange.EndMS,
		StartCash: cfg.Cash,
	}
	return nil
}

func (b *BackTest) loadData() *errs.Error {
	cfg := b.Cfg
	opts := b.State.Options
	days := LookbackDays(opts, cfg.Freq, b.Strat.Source)
	warmStart := cfg.TimeRange.StartMS - int64(days)*btime.DayMSecs
	log.Info("loading bars", zap.Int("lookback_days", days),
		zap.String("from", btime.ToDateStr(warmStart, "2006-01-02")))
	for _, code := range cfg.Codes {
		norm := core.NormCode(code)
		bars, err := b.Provider.LoadBars(norm, cfg.Freq, warmStart, cfg.TimeRange.EndMS, cfg.Adjust)
		if err != nil {
			return err
		}
		b.items[norm] = bars
		if cfg.Freq == core.FreqMinute {
			key := data.CacheKey(norm, cfg.Adjust, opts.FillPrice)
			srcPath := b.Provider.SourcePath(norm, core.FreqMinute)
			dbars, err2 := b.Cache.DailyBars(key, srcPath, func() ([]*core.Bar, *errs.Error) {
				return bars, nil
			})
			if err2 != nil {
				return err2
			}
			b.daily[norm] = dbars
		} else {
			b.daily[norm] = bars
		}
	}
	return nil
}

func (b *BackTest) configExec() *errs.Error {
	cfg := b.Cfg
	if cfg.Benchmark != "" {
		b.State.Benchmark = core.NormCode(cfg.Benchmark)
	}
	for _, code := range cfg.IsSTCodes {
		if it, ok := core.ParseInstrument(code); ok {
			b.Od.STCodes[it.Code] = true
		}
	}
	if b.Strat.BeforeTradingStart != nil {
		b.Ctx.Sched.RegisterHook(strat.HookBeforeTrading, b.Strat.BeforeTradingStart)
	}
	if b.Strat.AfterTradingEnd != nil {
		b.Ctx.Sched.RegisterHook(strat.HookAfterTrading, b.Strat.AfterTradingEnd)
	}
	b.Ctx.SetDailyHist(b.dailyHist)
	if b.Strat.Initialize != nil {
		b.Strat.Initialize(b.Ctx)
	}
	// 成交时点在此定格，之后不应再修改
	b.clockOffMS = sessionClockMS[b.State.Options.FillPrice]
	log.Info("execution configured", zap.String("fill_price", b.State.Options.FillPrice),
		zap.String("benchmark", b.State.Benchmark))
	return nil
}

func (b *BackTest) execute() *errs.Error {
	feeder := data.NewHistFeeder(b.items)
	feeder.ShowBar = b.ShowBar
	if feeder.TotalNum() == 0 {
		return errs.NewMsg(core.ErrNoDataFound, "no bars to run")
	}
	if err := feeder.LoopMain(b.onBatch); err != nil {
		return err
	}
	b.finishDay()
	return nil
}

func (b *BackTest) onBatch(timeMS int64, batch map[string]*core.Bar) *errs.Error {
	day := btime.DateMS(timeMS)
	if b.lastDate != 0 && day != b.lastDate {
		b.finishDay()
		b.Port.RollDay(day)
		b.Od.RollPrevClose()
	}
	if b.Cfg.Freq == core.FreqMinute {
		b.State.SetTime(timeMS)
	} else {
		// 日线bar打在零点，时钟折算到成交时点对应的盘中时刻
		b.State.SetTime(day + b.clockOffMS)
	}
	warm := timeMS < b.Cfg.TimeRange.StartMS
	if !b.warmInit {
		b.warmInit = true
		b.State.InWarmup = warm
		if warm {
			log.Info("warmup begin", zap.String("until",
				btime.ToDateStr(b.Cfg.TimeRange.StartMS, "2006-01-02")))
		}
	} else if warm != b.State.InWarmup {
		b.State.InWarmup = warm
		if !warm {
			log.Info("warmup finished", zap.String("at", btime.ToDateStr(timeMS, "")))
		}
	}
	for symbol, bar := range batch {
		b.Od.SetBar(symbol, bar)
	}
	if !warm {
		b.Ctx.Sched.FireHook(b.Ctx, strat.HookBeforeTrading, day)
		if b.Cfg.Freq == core.FreqMinute {
			b.Ctx.Sched.Tick(b.Ctx, timeMS)
		} else {
			b.Ctx.Sched.TickDay(b.Ctx, day)
		}
		if b.Strat.HandleData != nil {
			b.safeHandleData(b.State.TimeMS, batch)
		}
	}
	b.Result.BarNum += len(batch)
	b.lastDate = day
	b.lastTime = timeMS
	return nil
}

// 单根bar的策略异常不中断整个回测
func (b *BackTest) safeHandleData(timeMS int64, batch map[string]*core.Bar) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("handle_data panic", zap.Int64("time", timeMS), zap.Any("panic", p))
			b.State.AddLog("handle_data panic: %v", p)
		}
	}()
	b.Strat.HandleData(b.Ctx, strat.NewSnapshot(timeMS, batch))
}

/*
finishDay
日切收尾：触发盘后钩子，记录净值/收益/换手序列。
预热期的交易日只清理计数，不产出序列
*/
func (b *BackTest) finishDay() {
	if b.lastDate == 0 {
		return
	}
	if b.lastTime < b.Cfg.TimeRange.StartMS {
		b.Od.PopDayGross()
		return
	}
	b.Ctx.Sched.FireHook(b.Ctx, strat.HookAfterTrading, b.lastDate)
	eq := b.Port.TotalValue()
	dateStr := btime.ToDateStr(b.lastDate, "2006-01-02")
	b.Result.Equity = append(b.Result.Equity, TextFloat{Text: dateStr, Val: eq})
	b.Result.DailyPnl = append(b.Result.DailyPnl, TextFloat{Text: dateStr, Val: eq - b.prevEq})
	if b.prevEq > 0 {
		b.Result.DailyReturns = append(b.Result.DailyReturns,
			TextFloat{Text: dateStr, Val: eq/b.prevEq - 1})
	}
	gross := b.Od.PopDayGross()
	turnover := 0.0
	if eq > 0 {
		turnover = gross / eq
	}
	b.Result.Turnover = append(b.Result.Turnover, TextFloat{Text: dateStr, Val: turnover})
	b.prevEq = eq
}

func (b *BackTest) collect() *errs.Error {
	res := b.Result
	res.Benchmark = b.State.Benchmark
	res.FinalValue = b.Port.TotalValue()
	res.Orders = b.Od.Orders
	res.Blocked = b.Od.Blocked
	res.Trades = b.Od.Trades
	res.Records = b.State.Records
	res.Logs = b.State.Logs
	eqVals := make([]float64, len(res.Equity))
	for i, item := range res.Equity {
		eqVals[i] = item.Val
	}
	res.Metrics = ComputeMetrics(res.StartCash, eqVals, res.Trades)
	res.BenchReturns = b.benchReturns()
	res.Diagnostics = map[string]interface{}{
		"minute_cache": b.Cache.Metrics.Summary(),
	}
	if b.Cfg.OutDir != "" {
		if err := ExportResult(res, b.Cfg.OutDir); err != nil {
			log.Warn("export result fail", zap.String("err", err.Short()))
		}
	}
	return nil
}

// 策略查询日线历史，只暴露当前交易日之前的部分
func (b *BackTest) dailyHist(code string) []*core.Bar {
	bars := b.daily[code]
	day := btime.DateMS(b.State.TimeMS)
	n := len(bars)
	for n > 0 && bars[n-1].Time >= day {
		n--
	}
	return bars[:n]
}

// 基准日线收益序列，数据缺失时留空不报错
func (b *BackTest) benchReturns() []TextFloat {
	if b.State.Benchmark == "" {
		return nil
	}
	bars, err := b.Provider.LoadBars(b.State.Benchmark, core.FreqDaily,
		b.Cfg.TimeRange.StartMS, b.Cfg.TimeRange.EndMS, b.Cfg.Adjust)
	if err != nil {
		log.Warn("load benchmark fail", zap.String("code", b.State.Benchmark),
			zap.String("err", err.Short()))
		return nil
	}
	var res []TextFloat
	var base float64
	for _, bar := range bars {
		if base == 0 {
			base = bar.Close
		}
		res = append(res, TextFloat{
			Text: btime.ToDateStr(bar.Time, "2006-01-02"),
			Val:  bar.Close/base - 1,
		})
	}
	return res
}
