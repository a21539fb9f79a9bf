package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/astock/abot/btime"
	"github.com/astock/abot/core"
	utils2 "github.com/astock/abot/utils"
	"github.com/banbox/banexg/errs"
	"github.com/banbox/banexg/log"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

var (
	valid = validator.New()
)

/*
LoadConfig
从yaml文件和命令行参数加载配置。
args.Configs指定的多个yaml文件按顺序合并，后面的覆盖前面的
*/
func LoadConfig(args *CmdArgs) (*Config, *errs.Error) {
	paths := make([]string, 0, len(args.Configs)+1)
	if !args.NoDefault && args.DataDir != "" {
		defPath := filepath.Join(args.DataDir, "config.yml")
		if _, err := os.Stat(defPath); err == nil {
			paths = append(paths, defPath)
		}
	}
	paths = append(paths, args.Configs...)
	res, err2 := ParseConfigs(paths, true)
	if err2 != nil {
		return nil, err2
	}
	if err := res.Apply(args); err != nil {
		return nil, errs.New(core.ErrBadConfig, err)
	}
	if err2 = res.Validate(); err2 != nil {
		return nil, err2
	}
	return res, nil
}

func ParseConfigs(paths []string, showLog bool) (*Config, *errs.Error) {
	var res Config
	res.Options = DefaultOptions()
	var merged = make(map[string]interface{})
	for _, path := range paths {
		if showLog {
			log.Info("Using " + path)
		}
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.NewFull(core.ErrIOReadFail, err, "Read %s Fail", path)
		}
		var unpak map[string]interface{}
		err = yaml.Unmarshal(fileData, &unpak)
		if err != nil {
			return nil, errs.NewFull(core.ErrMarshalFail, err, "Unmarshal %s Fail", path)
		}
		utils2.DeepCopyMap(merged, unpak)
	}
	err := mapstructure.Decode(merged, &res)
	if err != nil {
		return nil, errs.NewFull(core.ErrMarshalFail, err, "decode Config Fail")
	}
	return &res, nil
}

func (c *Config) Apply(args *CmdArgs) error {
	if args.TimeRange != "" {
		c.TimeRangeRaw = args.TimeRange
	}
	if args.RawCodes != "" {
		args.Codes = utils2.SplitSolid(args.RawCodes, ",")
	}
	if len(args.Codes) > 0 {
		c.Codes = args.Codes
	}
	if args.Strategy != "" {
		c.Strategy = args.Strategy
	}
	if args.Cash > 0 {
		c.Cash = args.Cash
	}
	if args.AdjType != "" {
		c.Adjust = args.AdjType
	}
	if args.Freq != "" {
		c.Freq = args.Freq
	}
	if args.DataDir != "" {
		c.DataDir = args.DataDir
	}
	if args.OutPath != "" {
		c.OutDir = args.OutPath
	}
	var start, stop = int64(0), int64(0)
	var err error
	if c.TimeStart != "" {
		start, err = btime.ParseTimeMS(c.TimeStart)
		if err != nil {
			return err
		}
		if c.TimeEnd != "" {
			stop, err = btime.ParseTimeMS(c.TimeEnd)
			if err != nil {
				return err
			}
		}
	} else if strings.TrimSpace(c.TimeRangeRaw) != "" {
		start, stop, err = ParseTimeRange(c.TimeRangeRaw)
		if err != nil {
			return err
		}
	} else {
		return fmt.Errorf("`time_start` or `timerange` is required")
	}
	if stop <= start {
		return fmt.Errorf("invalid time range: %v - %v", c.TimeStart, c.TimeEnd)
	}
	c.TimeRange = &TimeTuple{start, stop}
	return nil
}

func ParseTimeRange(timeRange string) (int64, int64, error) {
	parts := strings.Split(timeRange, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time range format: %s", timeRange)
	}
	startMS, err := btime.ParseTimeMS(parts[0])
	if err != nil {
		return 0, 0, err
	}
	stopMS, err := btime.ParseTimeMS(parts[1])
	return startMS, stopMS, err
}

func (c *Config) Validate() *errs.Error {
	if c.Freq == "" {
		c.Freq = core.FreqDaily
	}
	if c.Adjust == "" {
		c.Adjust = core.AdjNone
	}
	if c.Options == nil {
		c.Options = DefaultOptions()
	}
	for _, code := range c.Codes {
		if _, ok := core.ParseInstrument(code); !ok {
			return errs.NewMsg(core.ErrInvalidSymbol, "invalid code: %s", code)
		}
	}
	if err := valid.Struct(c); err != nil {
		return errs.New(core.ErrBadConfig, err)
	}
	return c.Options.Validate()
}
