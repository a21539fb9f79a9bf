package config

import (
	"github.com/astock/abot/core"
	"github.com/banbox/banexg/errs"
	"github.com/go-viper/mapstructure/v2"
)

const (
	FillPriceOpen  = "open"
	FillPriceClose = "close"
)

func DefaultOptions() *Options {
	return &Options{
		Lot:                core.DefLotSize,
		Commission:         0.0003,
		MinCommission:      5.0,
		StampDuty:          0.001,
		SlippagePerc:       0.0,
		PriceTick:          core.DefPriceTick,
		LimitUpFactor:      1.10,
		LimitDownFactor:    0.90,
		FillPrice:          FillPriceOpen,
		EnableLimitCheck:   true,
		AutoHistoryPreload: true,
		MinuteBarsPerDay:   core.DefMinuteBarsPerDay,
		PersistMinuteAgg:   true,
	}
}

/*
Set
运行中修改单个选项，键名与yaml一致，值做弱类型转换。
未知键或非法值返回错误，调用方决定是否中断
*/
func (o *Options) Set(key string, val interface{}) *errs.Error {
	bak := *o
	if key == "limit_pct" {
		// 简写：一次设置对称的涨跌停系数
		pct, ok := toFloat(val)
		if !ok || pct <= 0 || pct >= 1 {
			return errs.NewMsg(core.ErrBadConfig, "invalid limit_pct: %v", val)
		}
		o.LimitUpFactor = 1 + pct
		o.LimitDownFactor = 1 - pct
		return nil
	}
	cfg := &mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           o,
	}
	dec, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return errs.New(core.ErrRunTime, err)
	}
	if err = dec.Decode(map[string]interface{}{key: val}); err != nil {
		*o = bak
		return errs.NewFull(core.ErrBadConfig, err, "set option `%s` fail", key)
	}
	if err2 := o.Validate(); err2 != nil {
		*o = bak
		return err2
	}
	return nil
}

func toFloat(val interface{}) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func (o *Options) Validate() *errs.Error {
	if err := valid.Struct(o); err != nil {
		return errs.New(core.ErrBadConfig, err)
	}
	return nil
}

// Clone 复制一份选项，回测任务之间互不影响
func (o *Options) Clone() *Options {
	res := *o
	if o.HistoryLookbackDays != nil {
		lb := *o.HistoryLookbackDays
		res.HistoryLookbackDays = &lb
	}
	return &res
}
