package opt

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/astock/abot/biz"
	"github.com/astock/abot/btime"
	"github.com/astock/abot/utils"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/olekukonko/tablewriter"
)

type TextFloat struct {
	Text string
	Val  float64
}

/*
BTResult
单次回测的全部产出：事件、序列、指标、诊断
*/
type BTResult struct {
	TaskID    string
	Strategy  string
	Benchmark string
	Success   bool
	ErrMsg    string
	Stage     string
	StartMS   int64
	EndMS     int64
	BarNum    int

	StartCash  float64
	FinalValue float64
	Metrics    *Metrics

	Equity       []TextFloat
	DailyReturns []TextFloat
	DailyPnl     []TextFloat
	Turnover     []TextFloat
	BenchReturns []TextFloat

	Orders  []*biz.Order
	Blocked []*biz.Order
	Trades  []*biz.Trade
	Records []*biz.RecordRow
	Logs    []string

	Diagnostics map[string]interface{}
}

type RowPart struct {
	WinCount  int
	ProfitSum float64
	GrossSum  float64
	FeeSum    float64
	Trades    []*biz.Trade
}

type RowItem struct {
	Title string
	RowPart
}

func (r *BTResult) printBtResult() {
	trades := r.Trades
	if len(trades) > 0 {
		items := []struct {
			Title  string
			Handle func([]*biz.Trade) string
		}{
			{Title: " Code Profits ", Handle: textGroupCodes},
			{Title: " Day Profits ", Handle: textGroupDays},
			{Title: " Profit Ranges ", Handle: textGroupProfitRanges},
		}
		for _, item := range items {
			tblText := item.Handle(trades)
			if tblText != "" {
				width := strings.Index(tblText, "\n")
				head := utils.PadCenter(item.Title, width, "=")
				fmt.Println(head)
				fmt.Println(tblText)
			}
		}
	} else {
		fmt.Println("No Trades Found")
	}
	table := tablewriter.NewWriter(os.Stdout)
	heads := []string{"Metric", "Value"}
	table.SetHeader(heads)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.Append([]string{"Backtest From", btime.ToDateStr(r.StartMS, "")})
	table.Append([]string{"Backtest To", btime.ToDateStr(r.EndMS, "")})
	table.Append([]string{"Strategy", r.Strategy})
	table.Append([]string{"Orders/Blocked/BarNum", fmt.Sprintf("%v/%v/%v",
		len(r.Orders), len(r.Blocked), r.BarNum)})
	table.Append([]string{"Start Cash", strconv.FormatFloat(r.StartCash, 'f', 0, 64)})
	table.Append([]string{"Final Value", strconv.FormatFloat(r.FinalValue, 'f', 0, 64)})
	if m := r.Metrics; m != nil {
		table.Append([]string{"Total Return %", strconv.FormatFloat(m.TotalReturn*100, 'f', 2, 64) + "%"})
		table.Append([]string{"Annual Return %", strconv.FormatFloat(m.AnnualReturn*100, 'f', 2, 64) + "%"})
		table.Append([]string{"Volatility", strconv.FormatFloat(m.Volatility, 'f', 3, 64)})
		table.Append([]string{"Sharpe", strconv.FormatFloat(m.Sharpe, 'f', 2, 64)})
		table.Append([]string{"Sortino", strconv.FormatFloat(m.Sortino, 'f', 2, 64)})
		table.Append([]string{"Calmar", strconv.FormatFloat(m.Calmar, 'f', 2, 64)})
		table.Append([]string{"Max DrawDown %", strconv.FormatFloat(m.MaxDrawDown*100, 'f', 2, 64) + "%"})
		table.Append([]string{"Win Rate %", strconv.FormatFloat(m.WinRate*100, 'f', 1, 64) + "%"})
		table.Append([]string{"Total Fee", strconv.FormatFloat(m.TotalFee, 'f', 1, 64)})
	}
	table.Render()
}

func textGroupCodes(trades []*biz.Trade) string {
	groups := groupItems(trades, func(td *biz.Trade, i int) string {
		return td.Symbol
	})
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Title < groups[j].Title
	})
	return printGroups(groups, "Code")
}

func textGroupDays(trades []*biz.Trade) string {
	groups := groupItems(trades, func(td *biz.Trade, i int) string {
		return btime.ToDateStr(td.Time, "2006-01-02")
	})
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Title < groups[j].Title
	})
	return printGroups(groups, "Date")
}

func textGroupProfitRanges(trades []*biz.Trade) string {
	tdNum := len(trades)
	if tdNum == 0 {
		return ""
	}
	profits := make([]float64, 0, len(trades))
	for _, td := range trades {
		profits = append(profits, td.Profit)
	}
	var clsNum int
	if tdNum > 150 {
		clsNum = min(19, int(math.Round(math.Pow(float64(tdNum), 0.5))))
	} else {
		clsNum = int(math.Round(math.Pow(float64(tdNum), 0.6)))
	}
	res := kMeansVals(profits, clsNum)
	if res == nil {
		return ""
	}
	var grpTitles = make([]string, 0, len(res.Clusters))
	for _, gp := range res.Clusters {
		minVal := strconv.FormatFloat(slices.Min(gp.Items), 'f', 1, 64)
		maxVal := strconv.FormatFloat(slices.Max(gp.Items), 'f', 1, 64)
		grpTitles = append(grpTitles, fmt.Sprintf("%s ~ %s", minVal, maxVal))
	}
	groups := groupItems(trades, func(td *biz.Trade, i int) string {
		return grpTitles[res.RowGIds[i]]
	})
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Trades[0].Profit < groups[j].Trades[0].Profit
	})
	return printGroups(groups, "Profit Range")
}

func groupItems(trades []*biz.Trade, getTag func(td *biz.Trade, i int) string) []*RowItem {
	if len(trades) == 0 {
		return nil
	}
	groups := make(map[string]*RowItem)
	for i, td := range trades {
		tag := getTag(td, i)
		sta, ok := groups[tag]
		gross := float64(td.Size) * td.Price
		isWin := td.Profit >= 0
		if !ok {
			sta = &RowItem{
				Title: tag,
				RowPart: RowPart{
					ProfitSum: td.Profit,
					GrossSum:  gross,
					FeeSum:    td.Fee,
					Trades:    make([]*biz.Trade, 0, 8),
				},
			}
			sta.Trades = append(sta.Trades, td)
			if isWin {
				sta.WinCount = 1
			}
			groups[tag] = sta
		} else {
			if isWin {
				sta.WinCount += 1
			}
			sta.ProfitSum += td.Profit
			sta.GrossSum += gross
			sta.FeeSum += td.Fee
			sta.Trades = append(sta.Trades, td)
		}
	}
	return utils.ValsOfMap(groups)
}

func printGroups(groups []*RowItem, title string) string {
	var b bytes.Buffer
	table := tablewriter.NewWriter(&b)
	heads := []string{title, "Count", "Sum Profit", "Profit/Gross %", "Sum Fee", "Win Rate"}
	table.SetHeader(heads)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, sta := range groups {
		grpCount := len(sta.Trades)
		numText := strconv.Itoa(grpCount)
		sumProfit := strconv.FormatFloat(sta.ProfitSum, 'f', 2, 64)
		profitPct := "0.00"
		if sta.GrossSum > 0 {
			profitPct = strconv.FormatFloat(sta.ProfitSum*100/sta.GrossSum, 'f', 2, 64)
		}
		sumFee := strconv.FormatFloat(sta.FeeSum, 'f', 2, 64)
		winRate := strconv.FormatFloat(float64(sta.WinCount)*100/float64(grpCount), 'f', 1, 64) + "%"
		table.Append([]string{sta.Title, numText, sumProfit, profitPct, sumFee, winRate})
	}
	table.Render()
	return b.String()
}

type Cluster struct {
	Center float64
	Items  []float64
}

type ClusterRes struct {
	Clusters []Cluster
	RowGIds  []int
}

func kMeansVals(vals []float64, num int) *ClusterRes {
	if len(vals) == 0 || num <= 0 {
		return nil
	}
	if num > len(vals) {
		num = len(vals)
	}
	// 输入值域缩放到0~1之间
	minVal := slices.Min(vals)
	span := slices.Max(vals) - minVal
	scale := 1.0
	if span > 0 {
		scale = 1 / span
	} else if minVal != 0 {
		scale = 1 / minVal
	}
	offset := 0 - minVal*scale
	var d clusters.Observations
	for _, val := range vals {
		d = append(d, clusters.Coordinates{val*scale + offset})
	}
	km := kmeans.New()
	groups, err_ := km.Partition(d, num)
	if err_ != nil {
		return nil
	}
	slices.SortFunc(groups, func(a, b clusters.Cluster) int {
		return int((a.Center[0] - b.Center[0]) * 1000)
	})
	resList := make([]Cluster, 0, len(groups))
	seps := make([]float64, 0, len(groups))
	for i, group := range groups {
		var center = (group.Center[0] - offset) / scale
		var items = make([]float64, 0, len(group.Observations))
		for _, it := range group.Observations {
			coords := it.Coordinates()
			items = append(items, (coords[0]-offset)/scale)
		}
		resList = append(resList, Cluster{
			Center: center,
			Items:  items,
		})
		curMax := slices.Max(items)
		curMin := slices.Min(items)
		if len(seps) > 0 {
			seps[i-1] = (seps[i-1] + curMin) / 2
		}
		seps = append(seps, curMax)
	}
	rowGids := make([]int, 0, len(vals))
	for _, v := range vals {
		gid := len(groups) - 1
		for i, end := range seps {
			if v < end {
				gid = i
				break
			}
		}
		rowGids = append(rowGids, gid)
	}
	return &ClusterRes{
		Clusters: resList,
		RowGIds:  rowGids,
	}
}
