package monitor

import (
	"context"
	"time"

	"github.com/dianalab/diana-server-go/logging"
	"github.com/dianalab/diana-server-go/metrics"
)

// Heartbeat 周期性输出系统指标日志，便于本地长跑时观察资源占用。
type Heartbeat struct{ interval time.Duration }

// NewHeartbeat 构造。
func NewHeartbeat(interval time.Duration) *Heartbeat { return &Heartbeat{interval: interval} }

// Start 启动心跳协程，ctx 结束时退出。
func (h *Heartbeat) Start(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m := metrics.CollectSystemMetric(ctx)
				logging.L().Info(ctx, "heartbeat",
					"cpu_load", m.CPULoad,
					"disk_usage", m.DiskUsageRatio,
					"proc_mem_gb", m.ProcUsedMemGB,
					"score", m.Score,
				)
			}
		}
	}()
}
