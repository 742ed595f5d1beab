package monitor

import (
	"context"
	"time"

	"github.com/dianalab/diana-server-go/logging"
)

// Running processing 状态任务的精简视图，避免与具体注册表实现强耦合。
type Running struct {
	JobID     string
	UpdatedAt time.Time
}

// JobLister 看门狗对任务注册表的最小依赖。
type JobLister interface {
	ListProcessing(ctx context.Context) ([]Running, error)
}

// FailFunc 把卡死任务置为 failed 的回调，由宿主提供；
// 实现必须只在任务仍处于 processing 时生效。
type FailFunc func(ctx context.Context, jobID, reason string)

// Watchdog 周期巡检：processing 停留超过 deadline 的任务判定为卡死并强制失败。
// 这是“每个 processing 任务最终到达终态”不变量的兜底执行者：
// 即使执行协程意外丢失，任务也不会永远停在 processing。
type Watchdog struct {
	repo     JobLister
	fail     FailFunc
	interval time.Duration
	deadline time.Duration
}

// NewWatchdog 构造。interval 巡检周期；deadline 卡死判定时长。
func NewWatchdog(repo JobLister, fail FailFunc, interval, deadline time.Duration) *Watchdog {
	return &Watchdog{repo: repo, fail: fail, interval: interval, deadline: deadline}
}

// Start 启动巡检协程，ctx 结束时退出。
func (w *Watchdog) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				list, err := w.repo.ListProcessing(ctx)
				if err != nil {
					logging.L().Warn(ctx, "list processing failed", "err", err)
					continue
				}
				for _, it := range list {
					if time.Since(it.UpdatedAt) < w.deadline {
						continue
					}
					logging.L().Warn(ctx, "job stuck, forcing failure",
						"job_id", it.JobID, "updated_at", it.UpdatedAt)
					w.fail(ctx, it.JobID, "processing deadline exceeded")
				}
			}
		}
	}()
}
