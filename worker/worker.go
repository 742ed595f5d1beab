package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dianalab/diana-server-go/catalog"
	"github.com/dianalab/diana-server-go/engine"
	"github.com/dianalab/diana-server-go/engine/dummy"
	"github.com/dianalab/diana-server-go/logging"
	"github.com/dianalab/diana-server-go/monitor"
	"github.com/dianalab/diana-server-go/runlog"
	"github.com/dianalab/diana-server-go/runstore"
	"github.com/dianalab/diana-server-go/tracker"
)

// 模型版本标签：占位模式与真实模型各一。
const (
	dummyModelVersion = "dummy-v1.0"
	realModelVersion  = "diana-v1.0"
)

// Worker 服务主对象：内置 HTTP Server 与异步任务流水线。
// 说明：Worker 在 Start(ctx) 中启动 HTTP Server（监听 Options.ListenAddr），
// 并开启运行日志记录器、心跳与卡死任务看门狗；ctx.Done 时优雅关闭。
type Worker struct {
	opt   Options
	store Store
	cat   catalog.Catalog

	runs *runstore.Store
	rlog *runlog.Recorder
	trk  *tracker.Manager
	eng  engine.Engine
	sem  chan struct{}

	srv    *http.Server
	addrMu sync.RWMutex
	addr   string
}

// NewWorker 创建 Worker。
// 功能：按照 With... 可选项组合出一个可运行的 Worker；
// 未显式注入注册表时默认使用内置内存实现，未注入行为目录时从 LabelMapPath 加载。
// 异常：构造阶段不返回错误；目录加载失败记日志并以空目录继续（与目录缺失同义）。
func NewWorker(opts ...Option) *Worker {
	cfg := &workerConfig{}
	for _, fn := range opts {
		fn(cfg)
	}
	cfg.opt.withDefaults()
	if cfg.opt.LabelMapPath == "" {
		cfg.opt.LabelMapPath = filepath.Join(cfg.opt.DataDir, "assets", "label_map.json")
	}

	w := &Worker{
		opt: cfg.opt,
		trk: tracker.NewManager(),
		sem: make(chan struct{}, cfg.opt.MaxConcurrent),
	}
	if cfg.store != nil {
		w.store = cfg.store
	} else {
		w.store = newDefaultMemStore()
	}
	if cfg.catSet {
		w.cat = cfg.cat
	} else {
		cat, err := catalog.Load(cfg.opt.LabelMapPath)
		if err != nil {
			logging.L().Warnf(context.Background(), "load label map failed: path=%s err=%v", cfg.opt.LabelMapPath, err)
			cat = catalog.Catalog{}
		}
		w.cat = cat
	}

	runsDir := filepath.Join(w.opt.DataDir, "runs")
	w.runs = runstore.New(runsDir)
	w.rlog = runlog.NewRecorder(runsDir, w.opt.RunLogEvery, w.opt.RunLogBatch)

	// 引擎选择：显式指定优先；否则模型不可用时回退占位引擎。
	dummyEng := dummy.New(w.cat)
	name := w.opt.EngineName
	if name == "" || (name != engine.DummyName && !w.modelAvailable()) {
		name = engine.DummyName
	}
	if e, ok := engine.Get(name); ok {
		w.eng = e
	} else {
		logging.L().Warnf(context.Background(), "engine not registered, fallback to dummy: name=%s", name)
		w.eng = dummyEng
	}
	return w
}

// Start 启动 HTTP 服务与后台组件。
// 功能：
// 1) 建立数据目录并启动内置 HTTP Server，必要时取随机端口；
// 2) 启动运行日志记录器并挂接日志 Hook（携带任务ID的日志旁路写入 run.log）；
// 3) 启动心跳与卡死任务看门狗。
// 生命周期受 ctx 控制；监听失败返回错误，运行期问题记日志不中断进程。
func (w *Worker) Start(ctx context.Context) error {
	for _, d := range []string{"uploads", "skeletons", "runs", "models"} {
		if err := os.MkdirAll(filepath.Join(w.opt.DataDir, d), 0o755); err != nil {
			return err
		}
	}

	// 运行日志记录器与 Hook 先于 HTTP 服务就位，首个请求的日志即可旁路落盘
	w.rlog.Start(ctx)
	logging.SetHook(w.runLogHook)

	mux := http.NewServeMux()
	w.registerHandlers(mux)
	ln, err := net.Listen("tcp", w.opt.ListenAddr)
	if err != nil {
		logging.L().Errorf(ctx, "listen failed: addr=%s err=%v", w.opt.ListenAddr, err)
		return err
	}
	w.addrMu.Lock()
	w.addr = ln.Addr().String()
	w.addrMu.Unlock()
	w.srv = &http.Server{Addr: w.addr, Handler: withCORS(w.opt.CORSOrigins, mux)}
	go func() { <-ctx.Done(); _ = w.srv.Shutdown(context.Background()) }()
	go func() { _ = w.srv.Serve(ln) }()

	monitor.NewHeartbeat(w.opt.HeartbeatEvery).Start(ctx)
	monitor.NewWatchdog(listerAdapter{w.store}, w.failStuck, w.opt.WatchdogEvery, w.opt.StuckAfter).Start(ctx)

	logging.L().Info(ctx, "server started",
		"addr", w.addr,
		"dummy_mode", !w.modelAvailable(),
		"behaviors", len(w.cat),
		"max_concurrent", w.opt.MaxConcurrent,
	)
	return nil
}

// Addr 返回内置 HTTP Server 的实际监听地址（用于测试或 :0 随机端口场景）。
func (w *Worker) Addr() string { w.addrMu.RLock(); defer w.addrMu.RUnlock(); return w.addr }

// modelAvailable 真实模型是否可用：模型文件存在且未强制占位模式。
func (w *Worker) modelAvailable() bool {
	if w.opt.DummyMode || w.opt.ModelPath == "" {
		return false
	}
	_, err := os.Stat(w.opt.ModelPath)
	return err == nil
}

// modelVersion 当前生效的模型版本标签。
func (w *Worker) modelVersion() string {
	if w.modelAvailable() {
		return realModelVersion
	}
	return dummyModelVersion
}

// failStuck 看门狗回调：把卡死任务置为 failed（仅在仍 processing 时生效），
// 并顺手取消其执行上下文。
func (w *Worker) failStuck(ctx context.Context, jobID, reason string) {
	w.trk.Stop(jobID)
	_ = w.store.Update(ctx, jobID, func(j *Job) {
		if j.Status != StatusProcessing {
			return
		}
		j.Status = StatusFailed
		j.Error = reason
		j.Message = "Error: " + reason
	})
}

// listerAdapter 适配看门狗对注册表的精简依赖。
type listerAdapter struct{ Store }

// ListProcessing 将注册表记录映射为看门狗视图。
func (a listerAdapter) ListProcessing(ctx context.Context) ([]monitor.Running, error) {
	jobs, err := a.Store.ListProcessing(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]monitor.Running, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, monitor.Running{JobID: j.JobID, UpdatedAt: j.UpdatedAt})
	}
	return out, nil
}

// writeErr/writeJSON 公共返回工具。
func writeErr(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": err.Error()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// isoNow 当前 UTC 时间的 ISO-8601 文本。
func isoNow() string { return time.Now().UTC().Format(time.RFC3339) }

// ---- 任务上下文与运行日志 Hook ----

// ctxKey 在 Context 中存放任务ID，避免与外部键冲突。
type ctxKey string

var ctxKeyJobID ctxKey = "diana_job_id"

// withJobID 将任务ID写入 Context。
func withJobID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyJobID, id)
}

// jobIDFromContext 尝试从上下文中提取任务ID。
func jobIDFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(ctxKeyJobID)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// runLogHook 把携带任务ID的日志旁路写入该任务的 run.log。
// 注意：Hook 不得再调用 logging.L()，以避免递归。
func (w *Worker) runLogHook(ctx context.Context, level int, msg string, args ...any) {
	id, ok := jobIDFromContext(ctx)
	if !ok {
		return
	}
	content := msg
	if len(args) > 0 {
		// 简单扁平化 key-value
		content += " |"
		for i := 0; i+1 < len(args); i += 2 {
			k, ok := args[i].(string)
			if !ok {
				k = "arg"
			}
			content += " " + k + "=" + fmt.Sprint(args[i+1])
		}
	}
	w.rlog.Enqueue(runlog.Entry{JobID: id, Level: logging.LevelName(level), Message: content})
}
