package core

import (
	"strings"
)

const (
	BoardMain    = "main"
	BoardChiNext = "chinext"
	BoardStar    = "star"
	BoardBeijing = "beijing"
)

const (
	VenueShanghai = "XSHG"
	VenueShenzhen = "XSHE"
	VenueBeijing  = "BJSE"
)

// 各板块涨跌幅比例
var boardLimitPcts = map[string]float64{
	BoardMain:    0.10,
	BoardChiNext: 0.20,
	BoardStar:    0.20,
	BoardBeijing: 0.30,
}

// ST股涨跌幅比例（主板）
const stLimitPct = 0.05

type Instrument struct {
	Code  string // 6位数字代码
	Venue string
	Board string
	IsST  bool
}

/*
ParseInstrument
解析标的代码，支持 000001.XSHE / 600000.XSHG / 纯6位数字 形式
*/
func ParseInstrument(symbol string) (*Instrument, bool) {
	code := symbol
	venue := ""
	if idx := strings.IndexByte(symbol, '.'); idx >= 0 {
		code = symbol[:idx]
		venue = strings.ToUpper(symbol[idx+1:])
	}
	if len(code) != 6 {
		return nil, false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return nil, false
		}
	}
	board := boardOfCode(code)
	if venue == "" {
		venue = venueOfCode(code, board)
	}
	return &Instrument{Code: code, Venue: venue, Board: board}, true
}

func boardOfCode(code string) string {
	switch {
	case strings.HasPrefix(code, "688") || strings.HasPrefix(code, "689"):
		return BoardStar
	case strings.HasPrefix(code, "300") || strings.HasPrefix(code, "301"):
		return BoardChiNext
	case strings.HasPrefix(code, "43") || strings.HasPrefix(code, "83") ||
		strings.HasPrefix(code, "87") || strings.HasPrefix(code, "92"):
		return BoardBeijing
	default:
		return BoardMain
	}
}

func venueOfCode(code, board string) string {
	if board == BoardBeijing {
		return VenueBeijing
	}
	if strings.HasPrefix(code, "6") {
		return VenueShanghai
	}
	return VenueShenzhen
}

/*
LimitPct
该标的的单日涨跌幅比例。ST股按5%处理（仅主板有效）
*/
func (it *Instrument) LimitPct() float64 {
	if it.IsST && it.Board == BoardMain {
		return stLimitPct
	}
	if pct, ok := boardLimitPcts[it.Board]; ok {
		return pct
	}
	return boardLimitPcts[BoardMain]
}

// NormCode 标准化为带交易所后缀的代码
func NormCode(symbol string) string {
	it, ok := ParseInstrument(symbol)
	if !ok {
		return symbol
	}
	return it.Code + "." + it.Venue
}
