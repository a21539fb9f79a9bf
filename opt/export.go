package opt

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/astock/abot/biz"
	"github.com/astock/abot/btime"
	"github.com/astock/abot/core"
	"github.com/astock/abot/utils"
	"github.com/banbox/banexg/errs"
	"github.com/banbox/banexg/log"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

/*
ExportResult
将回测产出写入outDir：成交明细xlsx和净值曲线html
*/
func ExportResult(r *BTResult, outDir string) *errs.Error {
	if err := utils.EnsureDir(outDir, 0755); err != nil {
		return errs.New(core.ErrIOWriteFail, err)
	}
	prefix := r.Strategy
	if prefix == "" {
		prefix = "backtest"
	}
	xlsxPath := filepath.Join(outDir, prefix+"_detail.xlsx")
	if err := exportXlsx(r, xlsxPath); err != nil {
		return err
	}
	htmlPath := filepath.Join(outDir, prefix+"_equity.html")
	if err := exportEquityHTML(r, htmlPath); err != nil {
		return err
	}
	log.Info("result exported", zap.String("dir", outDir))
	return nil
}

func exportXlsx(r *BTResult, path string) *errs.Error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn("close xlsx fail", zap.Error(err))
		}
	}()
	if err := writeOrderSheet(f, "orders", r.Orders); err != nil {
		return err
	}
	if len(r.Blocked) > 0 {
		if err := writeOrderSheet(f, "blocked", r.Blocked); err != nil {
			return err
		}
	}
	if err := writeTradeSheet(f, r.Trades); err != nil {
		return err
	}
	if err := writeSeriesSheet(f, "equity", r.Equity, r.Turnover); err != nil {
		return err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		log.Warn("delete default sheet fail", zap.Error(err))
	}
	if err := f.SaveAs(path); err != nil {
		return errs.New(core.ErrIOWriteFail, err)
	}
	return nil
}

func writeOrderSheet(f *excelize.File, name string, orders []*biz.Order) *errs.Error {
	idx, err := f.NewSheet(name)
	if err != nil {
		return errs.New(core.ErrIOWriteFail, err)
	}
	f.SetActiveSheet(idx)
	heads := []string{"Time", "Symbol", "Side", "Size", "Price", "Value", "Fee", "Status", "Tag"}
	for i, head := range heads {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(name, cell, head)
	}
	for i, od := range orders {
		row := i + 2
		_ = f.SetCellValue(name, fmt.Sprintf("A%d", row), btime.ToDateStr(od.Time, ""))
		_ = f.SetCellValue(name, fmt.Sprintf("B%d", row), od.Symbol)
		_ = f.SetCellValue(name, fmt.Sprintf("C%d", row), od.Side)
		_ = f.SetCellValue(name, fmt.Sprintf("D%d", row), od.Size)
		_ = f.SetCellValue(name, fmt.Sprintf("E%d", row), od.Price)
		_ = f.SetCellValue(name, fmt.Sprintf("F%d", row), od.Value)
		_ = f.SetCellValue(name, fmt.Sprintf("G%d", row), od.Fee)
		_ = f.SetCellValue(name, fmt.Sprintf("H%d", row), od.Status)
		_ = f.SetCellValue(name, fmt.Sprintf("I%d", row), od.Tag)
	}
	return nil
}

func writeTradeSheet(f *excelize.File, trades []*biz.Trade) *errs.Error {
	name := "trades"
	if _, err := f.NewSheet(name); err != nil {
		return errs.New(core.ErrIOWriteFail, err)
	}
	heads := []string{"Time", "Symbol", "Size", "Price", "Fee", "Profit"}
	for i, head := range heads {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(name, cell, head)
	}
	for i, td := range trades {
		row := i + 2
		_ = f.SetCellValue(name, fmt.Sprintf("A%d", row), btime.ToDateStr(td.Time, ""))
		_ = f.SetCellValue(name, fmt.Sprintf("B%d", row), td.Symbol)
		_ = f.SetCellValue(name, fmt.Sprintf("C%d", row), td.Size)
		_ = f.SetCellValue(name, fmt.Sprintf("D%d", row), td.Price)
		_ = f.SetCellValue(name, fmt.Sprintf("E%d", row), td.Fee)
		_ = f.SetCellValue(name, fmt.Sprintf("F%d", row), td.Profit)
	}
	return nil
}

func writeSeriesSheet(f *excelize.File, name string, equity, turnover []TextFloat) *errs.Error {
	if _, err := f.NewSheet(name); err != nil {
		return errs.New(core.ErrIOWriteFail, err)
	}
	heads := []string{"Date", "Equity", "Turnover"}
	for i, head := range heads {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(name, cell, head)
	}
	for i, item := range equity {
		row := i + 2
		_ = f.SetCellValue(name, fmt.Sprintf("A%d", row), item.Text)
		_ = f.SetCellValue(name, fmt.Sprintf("B%d", row), item.Val)
		if i < len(turnover) {
			_ = f.SetCellValue(name, fmt.Sprintf("C%d", row), turnover[i].Val)
		}
	}
	return nil
}

func exportEquityHTML(r *BTResult, path string) *errs.Error {
	if len(r.Equity) == 0 {
		return nil
	}
	xAxis := make([]string, len(r.Equity))
	eqData := make([]opts.LineData, len(r.Equity))
	for i, item := range r.Equity {
		xAxis[i] = item.Text
		eqData[i] = opts.LineData{Value: item.Val / r.StartCash}
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Equity %s", r.Strategy)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	line.SetXAxis(xAxis)
	line.AddSeries("Strategy", eqData,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	if len(r.BenchReturns) > 0 {
		benchData := make([]opts.LineData, len(r.BenchReturns))
		for i, item := range r.BenchReturns {
			benchData[i] = opts.LineData{Value: item.Val + 1}
		}
		line.AddSeries("Benchmark", benchData,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	}
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(line)
	file, err := os.Create(path)
	if err != nil {
		return errs.New(core.ErrIOWriteFail, err)
	}
	defer file.Close()
	if err = page.Render(file); err != nil {
		return errs.New(core.ErrIOWriteFail, err)
	}
	return nil
}
