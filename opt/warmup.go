package opt

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/astock/abot/config"
	"github.com/astock/abot/core"
)

const (
	// 默认预热天数
	defDailyLookback  = 250
	defMinuteLookback = 10
	// 启发式扩展上限
	maxLookbackDays = 600
	// 指标周期至少为3才视为有效，过滤偶然出现的小数字
	minValidPeriod = 3
)

var (
	periodRe    = regexp.MustCompile(`period\s*=\s*(\d{1,4})`)
	indicatorRe = regexp.MustCompile(`\b(SMA|EMA|MA|ATR|RSI|WMA|TRIMA|KAMA|ADX|CCI)\s*\([^)\n]*?(\d{1,4})\s*\)`)
)

/*
LookbackDays
计算预热期天数。用户显式指定时原样使用；
否则取频率默认值，开启auto_history_preload时扫描策略源码中的
指标周期，按3倍最大周期扩展，上限600天
*/
func LookbackDays(opts *config.Options, freq, source string) int {
	if opts.HistoryLookbackDays != nil && *opts.HistoryLookbackDays >= 0 {
		return *opts.HistoryLookbackDays
	}
	def := defDailyLookback
	if freq == core.FreqMinute {
		def = defMinuteLookback
	}
	if !opts.AutoHistoryPreload || source == "" {
		return def
	}
	maxPeriod := scanMaxPeriod(source)
	if maxPeriod < minValidPeriod {
		return def
	}
	// 周期单位是运行频率的bar数，分钟级折算为天
	days := maxPeriod * 3
	if freq == core.FreqMinute {
		perDay := opts.MinuteBarsPerDay
		if perDay <= 0 {
			perDay = core.DefMinuteBarsPerDay
		}
		days = (days + perDay - 1) / perDay
	}
	// 周/月调仓策略的周期以调仓间隔为单位
	if strings.Contains(source, "RunMonthly") || strings.Contains(source, "run_monthly") {
		days = maxPeriod * 3 * 21
	} else if strings.Contains(source, "RunWeekly") || strings.Contains(source, "run_weekly") {
		days = maxPeriod * 3 * 5
	}
	if days > maxLookbackDays {
		days = maxLookbackDays
	}
	if days > def {
		return days
	}
	return def
}

func scanMaxPeriod(source string) int {
	maxPeriod := 0
	for _, m := range periodRe.FindAllStringSubmatch(source, -1) {
		if v, err := strconv.Atoi(m[1]); err == nil && v >= minValidPeriod && v > maxPeriod {
			maxPeriod = v
		}
	}
	for _, m := range indicatorRe.FindAllStringSubmatch(source, -1) {
		if v, err := strconv.Atoi(m[2]); err == nil && v >= minValidPeriod && v > maxPeriod {
			maxPeriod = v
		}
	}
	return maxPeriod
}
