package core

const (
	ErrBadConfig = -1*iota - 100
	ErrInvalidPath
	ErrIOReadFail
	ErrIOWriteFail
	ErrDbConnFail
	ErrDbReadFail
	ErrDbExecFail
	ErrNoDataFound
	ErrLowFunds
	ErrLowCloseable
	ErrInvalidCost
	ErrInvalidSymbol
	ErrInvalidBars
	ErrInvalidFreq
	ErrCacheErr
	ErrRunTime
	ErrMarshalFail
	ErrBadTask
	ErrEOF
)

var ErrCodeNames = map[int]string{
	ErrBadConfig:     "BadConfig",
	ErrInvalidPath:   "InvalidPath",
	ErrIOReadFail:    "IOReadFail",
	ErrIOWriteFail:   "IOWriteFail",
	ErrDbConnFail:    "DbConnFail",
	ErrDbReadFail:    "DbReadFail",
	ErrDbExecFail:    "DbExecFail",
	ErrNoDataFound:   "NoDataFound",
	ErrLowFunds:      "LowFunds",
	ErrLowCloseable:  "LowCloseable",
	ErrInvalidCost:   "InvalidCost",
	ErrInvalidSymbol: "InvalidSymbol",
	ErrInvalidBars:   "InvalidBars",
	ErrInvalidFreq:   "InvalidFreq",
	ErrCacheErr:      "CacheErr",
	ErrRunTime:       "RunTime",
	ErrMarshalFail:   "MarshalFail",
	ErrBadTask:       "BadTask",
	ErrEOF:           "EOF",
}
