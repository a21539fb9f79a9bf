package config

// Config 是根配置结构体
type Config struct {
	Name         string                 `yaml:"name" mapstructure:"name"`
	Strategy     string                 `yaml:"strategy" mapstructure:"strategy" validate:"required"`
	Cash         float64                `yaml:"cash" mapstructure:"cash" validate:"gt=0"`
	Codes        []string               `yaml:"codes" mapstructure:"codes" validate:"min=1"`
	Benchmark    string                 `yaml:"benchmark" mapstructure:"benchmark"`
	Freq         string                 `yaml:"freq" mapstructure:"freq" validate:"oneof=daily minute"`
	Adjust       string                 `yaml:"adjust" mapstructure:"adjust" validate:"omitempty,oneof=none pre post"`
	IsSTCodes    []string               `yaml:"st_codes" mapstructure:"st_codes"`
	TimeRangeRaw string                 `yaml:"timerange" mapstructure:"timerange"`
	TimeStart    string                 `yaml:"time_start" mapstructure:"time_start"`
	TimeEnd      string                 `yaml:"time_end" mapstructure:"time_end"`
	TimeRange    *TimeTuple             `json:"-" mapstructure:"-"`
	DataDir      string                 `yaml:"data_dir" mapstructure:"data_dir"`
	OutDir       string                 `yaml:"out_dir" mapstructure:"out_dir"`
	Database     *DatabaseConfig        `yaml:"database" mapstructure:"database"`
	Options      *Options               `yaml:"options" mapstructure:"options"`
	StratParams  map[string]interface{} `yaml:"strat_params" mapstructure:"strat_params"`
}

type TimeTuple struct {
	StartMS int64
	EndMS   int64
}

type DatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

/*
Options
运行期选项，策略可通过set_option在initialize中修改
*/
type Options struct {
	Lot              int     `yaml:"lot" mapstructure:"lot" validate:"gt=0"`
	Commission       float64 `yaml:"commission" mapstructure:"commission" validate:"gte=0"`
	MinCommission    float64 `yaml:"min_commission" mapstructure:"min_commission" validate:"gte=0"`
	StampDuty        float64 `yaml:"stamp_duty" mapstructure:"stamp_duty" validate:"gte=0"`
	SlippagePerc     float64 `yaml:"slippage_perc" mapstructure:"slippage_perc" validate:"gte=0"`
	PriceTick        float64 `yaml:"price_tick" mapstructure:"price_tick" validate:"gt=0"`
	LimitUpFactor    float64 `yaml:"limit_up_factor" mapstructure:"limit_up_factor" validate:"gt=1"`
	LimitDownFactor  float64 `yaml:"limit_down_factor" mapstructure:"limit_down_factor" validate:"gt=0,lt=1"`
	FillPrice        string  `yaml:"fill_price" mapstructure:"fill_price" validate:"oneof=open close"`
	EnableLimitCheck bool    `yaml:"enable_limit_check" mapstructure:"enable_limit_check"`
	StrictOrderMode  bool    `yaml:"strict_order_mode" mapstructure:"strict_order_mode"`
	// 按昨收与开盘较高者估算可买数量，避免高开时超买
	ConservativeSizing bool `yaml:"order_value_conservative_prev_close" mapstructure:"order_value_conservative_prev_close"`
	// 用户显式指定时按原值使用，不做启发式扩展
	HistoryLookbackDays *int   `yaml:"history_lookback_days" mapstructure:"history_lookback_days"`
	AutoHistoryPreload  bool   `yaml:"auto_history_preload" mapstructure:"auto_history_preload"`
	MinuteBarsPerDay    int    `yaml:"minute_bars_per_day" mapstructure:"minute_bars_per_day" validate:"gt=0"`
	PersistMinuteAgg    bool   `yaml:"persist_minute_agg" mapstructure:"persist_minute_agg"`
	MinuteCacheDir      string `yaml:"minute_cache_dir" mapstructure:"minute_cache_dir"`
}
