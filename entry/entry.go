package entry

import (
	"github.com/astock/abot/config"
	"github.com/astock/abot/core"
	"github.com/astock/abot/data"
	"github.com/astock/abot/opt"
	"github.com/astock/abot/orm"
	"github.com/banbox/banexg/errs"
	"github.com/banbox/banexg/log"
	"go.uber.org/zap"
)

func RunBackTest(args *config.CmdArgs) *errs.Error {
	cfg, err := config.LoadConfig(args)
	if err != nil {
		return err
	}
	if args.DataSource == "" {
		return errs.NewMsg(core.ErrBadConfig, "-source is required, register a data provider first")
	}
	provider, err := data.NewProvider(args.DataSource, cfg.DataDir)
	if err != nil {
		return err
	}
	b := opt.NewBackTest(cfg, provider)
	b.ShowBar = true
	b.ShowReport = true
	res := b.Run()
	if !args.NoDb && cfg.Database != nil && cfg.Database.Path != "" {
		if err2 := orm.SaveResult(cfg.Database.Path, res); err2 != nil {
			log.Warn("save result fail", zap.String("err", err2.Short()))
		}
	}
	if !res.Success {
		return errs.NewMsg(core.ErrRunTime, "backtest failed at %s: %s", res.Stage, res.ErrMsg)
	}
	return nil
}

func RunShowTask(args *config.CmdArgs) *errs.Error {
	cfg, err := config.ParseConfigs(args.Configs, true)
	if err != nil {
		return err
	}
	if cfg.Database == nil || cfg.Database.Path == "" {
		return errs.NewMsg(core.ErrBadConfig, "database.path is required in config")
	}
	task, err := orm.GetTask(cfg.Database.Path, args.TaskID)
	if err != nil {
		return err
	}
	orders, err := orm.GetTaskOrders(cfg.Database.Path, args.TaskID)
	if err != nil {
		return err
	}
	log.Info("task loaded", zap.String("id", task.ID), zap.String("strategy", task.Strategy),
		zap.Float64("final_value", task.FinalValue), zap.Float64("total_return", task.TotalReturn),
		zap.Int("orders", len(orders)))
	return nil
}
