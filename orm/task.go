package orm

import (
	"database/sql"

	"github.com/astock/abot/biz"
	"github.com/astock/abot/btime"
	"github.com/astock/abot/core"
	"github.com/astock/abot/opt"
	"github.com/banbox/banexg/errs"
)

type TaskRow struct {
	ID          string
	Strategy    string
	StartMS     int64
	EndMS       int64
	StartCash   float64
	FinalValue  float64
	TotalReturn float64
	MaxDrawDown float64
	BarNum      int
	Success     bool
	ErrMsg      string
	CreateMS    int64
}

/*
SaveResult
将回测任务及订单、成交明细落库。整个写入在一个事务内，
失败时回滚不留半截数据
*/
func SaveResult(path string, res *opt.BTResult) *errs.Error {
	db, err := DbLite(path, true, 5000)
	if err != nil {
		return err
	}
	defer db.Close()
	tx, err_ := db.Begin()
	if err_ != nil {
		return errs.New(core.ErrDbConnFail, err_)
	}
	if err = saveResultTx(tx, res); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err_ = tx.Commit(); err_ != nil {
		return errs.New(core.ErrDbExecFail, err_)
	}
	return nil
}

func saveResultTx(tx *sql.Tx, res *opt.BTResult) *errs.Error {
	totalReturn, maxDD := 0.0, 0.0
	if res.Metrics != nil {
		totalReturn = res.Metrics.TotalReturn
		maxDD = res.Metrics.MaxDrawDown
	}
	success := 0
	if res.Success {
		success = 1
	}
	insTask := `insert into bttask (id, strategy, start_ms, end_ms, start_cash, final_value,
total_return, max_drawdown, bar_num, success, err_msg, create_ms)
values (?,?,?,?,?,?,?,?,?,?,?,?)`
	_, err_ := tx.Exec(insTask, res.TaskID, res.Strategy, res.StartMS, res.EndMS,
		res.StartCash, res.FinalValue, totalReturn, maxDD, res.BarNum, success,
		res.ErrMsg, btime.UTCStampMS())
	if err_ != nil {
		return errs.New(core.ErrDbExecFail, err_)
	}
	insOrder := `insert into btorder (id, task_id, time, symbol, side, size, price, value, fee, status, tag)
values (?,?,?,?,?,?,?,?,?,?,?)`
	stmt, err_ := tx.Prepare(insOrder)
	if err_ != nil {
		return errs.New(core.ErrDbExecFail, err_)
	}
	defer stmt.Close()
	writeOrder := func(od *biz.Order) *errs.Error {
		_, e := stmt.Exec(od.ID, res.TaskID, od.Time, od.Symbol, od.Side, od.Size,
			od.Price, od.Value, od.Fee, od.Status, od.Tag)
		if e != nil {
			return errs.New(core.ErrDbExecFail, e)
		}
		return nil
	}
	for _, od := range res.Orders {
		if err := writeOrder(od); err != nil {
			return err
		}
	}
	for _, od := range res.Blocked {
		if err := writeOrder(od); err != nil {
			return err
		}
	}
	insTrade := `insert into bttrade (task_id, time, symbol, size, price, fee, profit)
values (?,?,?,?,?,?,?)`
	tdStmt, err_ := tx.Prepare(insTrade)
	if err_ != nil {
		return errs.New(core.ErrDbExecFail, err_)
	}
	defer tdStmt.Close()
	for _, td := range res.Trades {
		if _, e := tdStmt.Exec(res.TaskID, td.Time, td.Symbol, td.Size, td.Price,
			td.Fee, td.Profit); e != nil {
			return errs.New(core.ErrDbExecFail, e)
		}
	}
	return nil
}

func GetTask(path, taskID string) (*TaskRow, *errs.Error) {
	db, err := DbLite(path, false, 5000)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	row := db.QueryRow(`select id, strategy, start_ms, end_ms, start_cash, final_value,
total_return, max_drawdown, bar_num, success, err_msg, create_ms from bttask where id = ?`, taskID)
	var res TaskRow
	var success int
	err_ := row.Scan(&res.ID, &res.Strategy, &res.StartMS, &res.EndMS, &res.StartCash,
		&res.FinalValue, &res.TotalReturn, &res.MaxDrawDown, &res.BarNum, &success,
		&res.ErrMsg, &res.CreateMS)
	if err_ != nil {
		if err_ == sql.ErrNoRows {
			return nil, errs.NewMsg(core.ErrNoDataFound, "task %s not found", taskID)
		}
		return nil, errs.New(core.ErrDbReadFail, err_)
	}
	res.Success = success > 0
	return &res, nil
}

func GetTaskOrders(path, taskID string) ([]*biz.Order, *errs.Error) {
	db, err := DbLite(path, false, 5000)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	rows, err_ := db.Query(`select id, time, symbol, side, size, price, value, fee, status, tag
from btorder where task_id = ? order by time`, taskID)
	if err_ != nil {
		return nil, errs.New(core.ErrDbReadFail, err_)
	}
	defer rows.Close()
	var res []*biz.Order
	for rows.Next() {
		var od biz.Order
		if e := rows.Scan(&od.ID, &od.Time, &od.Symbol, &od.Side, &od.Size, &od.Price,
			&od.Value, &od.Fee, &od.Status, &od.Tag); e != nil {
			return nil, errs.New(core.ErrDbReadFail, e)
		}
		res = append(res, &od)
	}
	if e := rows.Err(); e != nil {
		return nil, errs.New(core.ErrDbReadFail, e)
	}
	return res, nil
}
