package core

// Bar 单根K线，Time为13位毫秒时间戳（bar开始时间）
type Bar struct {
	Time   int64
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Amount float64
}

const (
	FreqDaily   = "daily"
	FreqWeekly  = "weekly"
	FreqMonthly = "monthly"
	FreqMinute  = "minute"
)

const (
	AdjNone = "none"
	AdjPre  = "pre"  // 前复权
	AdjPost = "post" // 后复权
)

const (
	OdSideBuy  = "buy"
	OdSideSell = "sell"
)

const (
	OdStatusFilled      = "Filled"
	OdStatusBlockedUp   = "BlockedLimitUp"
	OdStatusBlockedDown = "BlockedLimitDown"
	OdStatusSuspended   = "Suspended"
)

const (
	// A股默认交易单位：1手=100股
	DefLotSize = 100
	// 最小报价单位
	DefPriceTick = 0.01
	// 日内分钟bar数量（9:30-11:30, 13:00-15:00）
	DefMinuteBarsPerDay = 240
)

const AmtDust = 1e-9
