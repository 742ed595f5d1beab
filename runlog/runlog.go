package runlog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dianalab/diana-server-go/logging"
)

// Entry 一条任务执行日志。
type Entry struct {
	JobID   string
	Level   string
	Message string
	Time    time.Time
}

// Recorder 批量落盘的任务日志记录器。
// 设计：通道缓冲 + 定时/定量批量刷写，落点为 runs/<job_id>/run.log，
// 执行协程写日志不被磁盘 I/O 阻塞。
type Recorder struct {
	dir  string
	ch   chan Entry
	tick time.Duration
	max  int
}

// NewRecorder 创建记录器。
// 参数：runsDir runs 根目录；interval 刷写周期；batchMax 单批最大条数（<=0 取 256）。
func NewRecorder(runsDir string, interval time.Duration, batchMax int) *Recorder {
	if batchMax <= 0 {
		batchMax = 256
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Recorder{
		dir:  runsDir,
		ch:   make(chan Entry, batchMax*4),
		tick: interval,
		max:  batchMax,
	}
}

// Start 启动后台刷写协程；ctx 结束时冲刷残余后退出。
func (r *Recorder) Start(ctx context.Context) {
	ticker := time.NewTicker(r.tick)
	go func() {
		defer ticker.Stop()
		buf := make([]Entry, 0, r.max)
		flush := func() {
			if len(buf) == 0 {
				return
			}
			r.write(buf)
			buf = buf[:0]
		}
		for {
			select {
			case <-ctx.Done():
				flush()
				return
			case e := <-r.ch:
				buf = append(buf, e)
				if len(buf) >= r.max {
					flush()
				}
			case <-ticker.C:
				flush()
			}
		}
	}()
}

// Enqueue 推入一条日志（非阻塞，队列满时丢弃并告警）。
func (r *Recorder) Enqueue(e Entry) {
	if e.JobID == "" {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	select {
	case r.ch <- e:
	default:
		logging.L().Warnf(context.Background(), "run log queue full, drop: job=%s", e.JobID)
	}
}

// write 按任务分组追加写入 run.log。单个任务写失败只告警，不影响其余任务。
func (r *Recorder) write(entries []Entry) {
	groups := map[string]*strings.Builder{}
	for _, e := range entries {
		b, ok := groups[e.JobID]
		if !ok {
			b = &strings.Builder{}
			groups[e.JobID] = b
		}
		b.WriteString(e.Time.UTC().Format(time.RFC3339))
		b.WriteString(" ")
		b.WriteString(e.Level)
		b.WriteString(" ")
		b.WriteString(e.Message)
		b.WriteString("\n")
	}
	for jobID, b := range groups {
		dir := filepath.Join(r.dir, jobID)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logging.L().Warnf(context.Background(), "run log mkdir failed: job=%s err=%v", jobID, err)
			continue
		}
		f, err := os.OpenFile(filepath.Join(dir, "run.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			logging.L().Warnf(context.Background(), "run log open failed: job=%s err=%v", jobID, err)
			continue
		}
		if _, err := f.WriteString(b.String()); err != nil {
			logging.L().Warnf(context.Background(), "run log write failed: job=%s err=%v", jobID, err)
		}
		f.Close()
	}
}
