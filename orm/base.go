package orm

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/astock/abot/core"
	"github.com/banbox/banexg/errs"
	"github.com/banbox/banexg/log"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

var (
	dbPathInit = make(map[string]bool)
	dbPathLock sync.Mutex
)

const ddlTask = `
create table bttask (
    id text primary key,
    strategy text not null default '',
    start_ms bigint not null default 0,
    end_ms bigint not null default 0,
    start_cash double precision not null default 0,
    final_value double precision not null default 0,
    total_return double precision not null default 0,
    max_drawdown double precision not null default 0,
    bar_num int not null default 0,
    success smallint not null default 0,
    err_msg text not null default '',
    create_ms bigint not null default 0
);
create table btorder (
    id text primary key,
    task_id text not null,
    time bigint not null default 0,
    symbol text not null default '',
    side text not null default '',
    size int not null default 0,
    price double precision not null default 0,
    value double precision not null default 0,
    fee double precision not null default 0,
    status text not null default '',
    tag text not null default ''
);
create index "idx_order_task" on btorder (task_id);
create table bttrade (
    task_id text not null,
    time bigint not null default 0,
    symbol text not null default '',
    size int not null default 0,
    price double precision not null default 0,
    fee double precision not null default 0,
    profit double precision not null default 0
);
create index "idx_trade_task" on bttrade (task_id);
`

/*
DbLite
打开sqlite数据库。首次写打开时若表不存在则自动建表
*/
func DbLite(path string, write bool, timeoutMs int64) (*sql.DB, *errs.Error) {
	dbPathLock.Lock()
	defer dbPathLock.Unlock()
	openFlag := ""
	if timeoutMs > 0 {
		openFlag += fmt.Sprintf("&_busy_timeout=%d", timeoutMs)
	}
	if write {
		openFlag += "&cache=shared&mode=rw"
	} else {
		openFlag += "&mode=ro"
	}
	var connStr = fmt.Sprintf("file:%s?%s", path, openFlag)
	db, err_ := sql.Open("sqlite", connStr)
	if err_ != nil {
		return nil, errs.New(core.ErrDbConnFail, err_)
	}
	if _, ok := dbPathInit[path]; !ok {
		checkSql := "SELECT COUNT(*) FROM sqlite_schema WHERE type='table' AND name=?;"
		var count int
		err_ = db.QueryRow(checkSql, "bttask").Scan(&count)
		if err_ != nil || count == 0 {
			if write {
				// 数据库不存在，创建表
				db, err_ = sql.Open("sqlite", connStr+"c")
				if err_ != nil {
					return nil, errs.New(core.ErrDbConnFail, err_)
				}
				log.Info("init sqlite structure", zap.String("path", path))
				if _, err_ = db.Exec(ddlTask); err_ != nil {
					return nil, errs.New(core.ErrDbExecFail, err_)
				}
			} else if err_ != nil {
				return nil, errs.New(core.ErrDbExecFail, err_)
			} else {
				return nil, errs.NewMsg(core.ErrDbExecFail, "db is empty: %v", path)
			}
		}
		dbPathInit[path] = true
	}
	return db, nil
}
