package data

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/astock/abot/core"
	utils2 "github.com/astock/abot/utils"
	"github.com/banbox/banexg/errs"
	"github.com/banbox/banexg/log"
	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

type CacheStatus string

const (
	CacheHit          CacheStatus = "hit"
	CacheMiss         CacheStatus = "miss"
	CacheMismatch     CacheStatus = "mismatch"
	CacheDisabled     CacheStatus = "disabled"
	CacheMetaError    CacheStatus = "meta_error"
	CacheLoadError    CacheStatus = "load_error"
	CacheSaved        CacheStatus = "saved"
	CachePersistError CacheStatus = "persist_error"
)

// 源文件mtime比较的容差，秒
const mtimeEpsilon = 1e-6

type cacheMeta struct {
	SourceMtime float64 `json:"source_mtime"`
	Rows        int     `json:"rows"`
}

// 列式载荷，gob编码落盘
type barCols struct {
	Time   []int64
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
	Amount []float64
}

/*
AggCache
分钟转日线聚合缓存。磁盘上每个key两份文件：
<key>.cols.gob 列式K线载荷，<key>.meta.json 记录源文件mtime和行数。
源mtime变化超过容差即失效重建。写入为最后写入者胜，无跨进程锁
*/
type AggCache struct {
	Dir     string
	Persist bool
	Metrics *CacheMetrics

	lock deadlock.Mutex
	mem  map[string][]*core.Bar
}

func NewAggCache(dir string, persist bool) *AggCache {
	if dir == "" {
		persist = false
	}
	return &AggCache{
		Dir:     dir,
		Persist: persist,
		Metrics: &CacheMetrics{},
		mem:     make(map[string][]*core.Bar),
	}
}

// CacheKey 缓存键：代码_复权_成交价模式
func CacheKey(symbol, adjust, fillPrice string) string {
	code := strings.ReplaceAll(core.NormCode(symbol), ".", "_")
	return fmt.Sprintf("%s_%s_%s", code, adjust, fillPrice)
}

/*
DailyBars
返回key对应的日K线。优先级：内存 > 磁盘缓存 > 调用build重新聚合。
build返回分钟K线，聚合结果会写回缓存
*/
func (c *AggCache) DailyBars(key, srcPath string, build func() ([]*core.Bar, *errs.Error)) ([]*core.Bar, *errs.Error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if bars, ok := c.mem[key]; ok {
		c.Metrics.Hits += 1
		return bars, nil
	}
	srcMtime := utils2.FileMTime(srcPath)
	bars, status := c.load(key, srcMtime)
	c.Metrics.countLoad(status)
	if status == CacheHit {
		c.mem[key] = bars
		return bars, nil
	}
	t0 := time.Now()
	minBars, err := build()
	if err != nil {
		return nil, err
	}
	bars = AggregateDaily(minBars)
	c.Metrics.Builds += 1
	c.Metrics.BuildMS = append(c.Metrics.BuildMS, float64(time.Since(t0).Microseconds())/1000)
	if c.Persist {
		saveStatus := c.save(key, bars, srcMtime)
		c.Metrics.countSave(saveStatus)
	}
	c.mem[key] = bars
	return bars, nil
}

func (c *AggCache) colsPath(key string) string {
	return filepath.Join(c.Dir, key+".cols.gob")
}

func (c *AggCache) metaPath(key string) string {
	return filepath.Join(c.Dir, key+".meta.json")
}

func (c *AggCache) load(key string, srcMtime float64) ([]*core.Bar, CacheStatus) {
	if !c.Persist {
		return nil, CacheDisabled
	}
	t0 := time.Now()
	metaData, err := os.ReadFile(c.metaPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, CacheMiss
		}
		log.Warn("read cache meta fail", zap.String("key", key), zap.Error(err))
		return nil, CacheMetaError
	}
	var meta cacheMeta
	if err = json.Unmarshal(metaData, &meta); err != nil {
		log.Warn("bad cache meta", zap.String("key", key), zap.Error(err))
		return nil, CacheMetaError
	}
	if math.Abs(meta.SourceMtime-srcMtime) > mtimeEpsilon {
		return nil, CacheMismatch
	}
	colsData, err := os.ReadFile(c.colsPath(key))
	if err != nil {
		log.Warn("read cache payload fail", zap.String("key", key), zap.Error(err))
		return nil, CacheLoadError
	}
	var cols barCols
	if err = gob.NewDecoder(bytes.NewReader(colsData)).Decode(&cols); err != nil {
		log.Warn("decode cache payload fail", zap.String("key", key), zap.Error(err))
		return nil, CacheLoadError
	}
	if len(cols.Time) != meta.Rows {
		log.Warn("cache rows mismatch", zap.String("key", key),
			zap.Int("meta", meta.Rows), zap.Int("payload", len(cols.Time)))
		return nil, CacheLoadError
	}
	bars := make([]*core.Bar, len(cols.Time))
	for i := range cols.Time {
		bars[i] = &core.Bar{
			Time: cols.Time[i], Open: cols.Open[i], High: cols.High[i],
			Low: cols.Low[i], Close: cols.Close[i],
			Volume: cols.Volume[i], Amount: cols.Amount[i],
		}
	}
	c.Metrics.LoadMS = append(c.Metrics.LoadMS, float64(time.Since(t0).Microseconds())/1000)
	return bars, CacheHit
}

func (c *AggCache) save(key string, bars []*core.Bar, srcMtime float64) CacheStatus {
	if !c.Persist {
		return CacheDisabled
	}
	cols := barCols{
		Time: make([]int64, len(bars)), Open: make([]float64, len(bars)),
		High: make([]float64, len(bars)), Low: make([]float64, len(bars)),
		Close: make([]float64, len(bars)), Volume: make([]float64, len(bars)),
		Amount: make([]float64, len(bars)),
	}
	for i, b := range bars {
		cols.Time[i] = b.Time
		cols.Open[i] = b.Open
		cols.High[i] = b.High
		cols.Low[i] = b.Low
		cols.Close[i] = b.Close
		cols.Volume[i] = b.Volume
		cols.Amount[i] = b.Amount
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&cols); err != nil {
		log.Warn("encode cache payload fail", zap.String("key", key), zap.Error(err))
		return CachePersistError
	}
	if err := utils2.WriteFile(c.colsPath(key), buf.Bytes()); err != nil {
		log.Warn("write cache payload fail", zap.String("key", key), zap.Error(err))
		return CachePersistError
	}
	metaData, err := json.Marshal(&cacheMeta{SourceMtime: srcMtime, Rows: len(bars)})
	if err != nil {
		return CachePersistError
	}
	if err = utils2.WriteFile(c.metaPath(key), metaData); err != nil {
		log.Warn("write cache meta fail", zap.String("key", key), zap.Error(err))
		return CachePersistError
	}
	return CacheSaved
}

/*
CacheMetrics
缓存诊断计数。读写发生在bar循环内，由AggCache锁保护
*/
type CacheMetrics struct {
	Hits       int
	Misses     int
	Mismatches int
	Builds     int
	Saves      int
	Errors     int
	LoadMS     []float64
	BuildMS    []float64
}

func (m *CacheMetrics) countLoad(status CacheStatus) {
	switch status {
	case CacheHit:
		m.Hits += 1
	case CacheMiss, CacheDisabled:
		m.Misses += 1
	case CacheMismatch:
		m.Mismatches += 1
	case CacheMetaError, CacheLoadError:
		m.Misses += 1
		m.Errors += 1
	}
}

func (m *CacheMetrics) countSave(status CacheStatus) {
	switch status {
	case CacheSaved:
		m.Saves += 1
	case CachePersistError:
		m.Errors += 1
	}
}

/*
Summary
汇总为可序列化的诊断信息，含命中率和延迟分位数
*/
func (m *CacheMetrics) Summary() map[string]interface{} {
	total := m.Hits + m.Misses + m.Mismatches
	res := map[string]interface{}{
		"hits":       m.Hits,
		"misses":     m.Misses,
		"mismatches": m.Mismatches,
		"builds":     m.Builds,
		"saves":      m.Saves,
		"errors":     m.Errors,
	}
	if total > 0 {
		res["hit_rate"] = float64(m.Hits) / float64(total)
		res["build_ratio"] = float64(m.Builds) / float64(total)
	}
	for name, arr := range map[string][]float64{"load_ms": m.LoadMS, "build_ms": m.BuildMS} {
		if len(arr) == 0 {
			continue
		}
		sorted := append([]float64(nil), arr...)
		sort.Float64s(sorted)
		res[name] = map[string]float64{
			"p50": stat.Quantile(0.5, stat.Empirical, sorted, nil),
			"p90": stat.Quantile(0.9, stat.Empirical, sorted, nil),
			"p99": stat.Quantile(0.99, stat.Empirical, sorted, nil),
		}
	}
	return res
}
