package entry

import (
	"flag"
	"fmt"
	"os"

	"github.com/astock/abot/config"
	"github.com/banbox/banexg/errs"
	"github.com/banbox/banexg/log"
	"go.uber.org/zap"
)

const VERSION = "0.1.0"

type FuncEntry = func(args *config.CmdArgs) *errs.Error
type FuncGetEntry = func(name string) (FuncEntry, []string)

func RunCmd() {
	if len(os.Args) < 2 {
		printAndExit()
	}
	args := os.Args[1:]
	runSubCmd(args, func(name string) (FuncEntry, []string) {
		var options []string
		var entry FuncEntry
		switch name {
		case "backtest":
			options = []string{"timerange", "codes", "strategy", "cash", "adj", "freq", "source", "out"}
			entry = RunBackTest
		case "task":
			options = []string{"task_id"}
			entry = RunShowTask
		}
		return entry, options
	}, printAndExit)
}

func printAndExit() {
	tpl := `
abot %v
please run with a subcommand:
	backtest:   backtest with strategies and data
	task:       show saved backtest task
`
	log.Warn(fmt.Sprintf(tpl, VERSION))
	os.Exit(1)
}

func runSubCmd(sysArgs []string, getEnt FuncGetEntry, printExit func()) {
	name, subArgs := sysArgs[0], sysArgs[1:]
	entry, options := getEnt(name)
	if entry == nil {
		printExit()
		return
	}
	var args config.CmdArgs
	var sub = flag.NewFlagSet(name, flag.ExitOnError)
	bindSubFlags(&args, sub, options...)
	err_ := sub.Parse(subArgs)
	if err_ != nil {
		log.Error("fail", zap.Error(err_))
		printExit()
		return
	}
	args.Init()
	log.Setup(args.LogLevel, args.Logfile)
	err := entry(&args)
	if err != nil {
		log.Error("run fail", zap.String("cmd", name), zap.String("err", err.Short()))
		os.Exit(1)
	}
	os.Exit(0)
}

func bindSubFlags(args *config.CmdArgs, cmd *flag.FlagSet, opts ...string) {
	cmd.Var(&args.Configs, "config", "config path to use, Multiple -config options may be used")
	cmd.StringVar(&args.Logfile, "logfile", "", "Log to the file specified")
	cmd.StringVar(&args.DataDir, "datadir", "", "Path to data dir.")
	cmd.StringVar(&args.LogLevel, "level", "info", "set logging level")
	cmd.BoolVar(&args.NoDb, "nodb", false, "dont save result to database")
	cmd.BoolVar(&args.NoDefault, "no-default", false, "ignore default: config.yml")

	for _, key := range opts {
		switch key {
		case "timerange":
			cmd.StringVar(&args.TimeRange, "timerange", "", "Specify what timerange of data to use")
		case "codes":
			cmd.StringVar(&args.RawCodes, "codes", "", "comma-separated stock codes")
		case "strategy":
			cmd.StringVar(&args.Strategy, "strategy", "", "Override `strategy` in config")
		case "cash":
			cmd.Float64Var(&args.Cash, "cash", 0.0, "Override `cash` in config")
		case "adj":
			cmd.StringVar(&args.AdjType, "adj", "", "pre/post/none for kline")
		case "freq":
			cmd.StringVar(&args.Freq, "freq", "", "daily/minute bar frequency")
		case "source":
			cmd.StringVar(&args.DataSource, "source", "", "registered data provider name")
		case "out":
			cmd.StringVar(&args.OutPath, "out", "", "output directory for reports")
		case "task_id":
			cmd.StringVar(&args.TaskID, "task-id", "", "task id to show")
		default:
			log.Warn(fmt.Sprintf("undefined argument: %s", key))
			os.Exit(1)
		}
	}
}
