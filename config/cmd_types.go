package config

import "github.com/astock/abot/utils"

type ArrString []string

func (i *ArrString) String() string {
	return "my string representation"
}

func (i *ArrString) Set(value string) error {
	*i = append(*i, value)
	return nil
}

type CmdArgs struct {
	Configs    ArrString
	Logfile    string
	DataDir    string
	OutPath    string
	NoDefault  bool
	LogLevel   string
	TimeRange  string
	RawCodes   string
	Codes      []string
	Strategy   string
	Cash       float64
	AdjType    string // 复权类型: pre,post,none
	Freq       string
	DataSource string
	TaskID     string
	NoDb       bool
}

func (a *CmdArgs) Init() {
	if a.RawCodes != "" {
		a.Codes = utils.SplitSolid(a.RawCodes, ",")
	}
	if a.LogLevel == "" {
		a.LogLevel = "info"
	}
}
