package worker

import (
	"time"

	"github.com/dianalab/diana-server-go/catalog"
)

// Options 服务运行参数。
type Options struct {
	ListenAddr     string        // 监听地址，支持 "127.0.0.1:0"（0 表示随机端口）
	DataDir        string        // 数据根目录（uploads/skeletons/runs/models）
	LabelMapPath   string        // 行为目录路径；留空用 <DataDir>/assets/label_map.json
	ModelPath      string        // 真实模型文件路径；缺失即占位模式
	EngineName     string        // 指定推理引擎名；留空按模型可用性选择
	DummyMode      bool          // 强制占位模式（即使模型存在）
	StageDelay     time.Duration // 模拟处理阶段间隔
	MaxConcurrent  int           // 并发任务上限（信号量容量）
	HeartbeatEvery time.Duration // 心跳日志周期
	WatchdogEvery  time.Duration // 卡死巡检周期
	StuckAfter     time.Duration // processing 超过该时长判定卡死
	RunLogEvery    time.Duration // 运行日志刷写周期
	RunLogBatch    int           // 运行日志单批最大条数
	CORSOrigins    []string      // 允许的跨域来源
}

// withDefaults 填充默认值。
func (o *Options) withDefaults() {
	if o.ListenAddr == "" {
		o.ListenAddr = "127.0.0.1:8000"
	}
	if o.DataDir == "" {
		o.DataDir = "./data"
	}
	if o.StageDelay <= 0 {
		o.StageDelay = 400 * time.Millisecond
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 4
	}
	if o.HeartbeatEvery <= 0 {
		o.HeartbeatEvery = 30 * time.Second
	}
	if o.WatchdogEvery <= 0 {
		o.WatchdogEvery = time.Minute
	}
	if o.StuckAfter <= 0 {
		o.StuckAfter = 10 * time.Minute
	}
	if o.RunLogEvery <= 0 {
		o.RunLogEvery = 2 * time.Second
	}
	if len(o.CORSOrigins) == 0 {
		// 本地前端开发默认来源
		o.CORSOrigins = []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
			"http://localhost:3000",
			"http://127.0.0.1:3000",
		}
	}
}

// workerConfig NewWorker 的组装配置。
type workerConfig struct {
	opt    Options
	store  Store
	cat    catalog.Catalog
	catSet bool
}

// Option 可选项。
type Option func(*workerConfig)

// WithListenAddr 设置监听地址。
func WithListenAddr(addr string) Option { return func(c *workerConfig) { c.opt.ListenAddr = addr } }

// WithDataDir 设置数据根目录。
func WithDataDir(dir string) Option { return func(c *workerConfig) { c.opt.DataDir = dir } }

// WithLabelMapPath 设置行为目录路径。
func WithLabelMapPath(p string) Option { return func(c *workerConfig) { c.opt.LabelMapPath = p } }

// WithModelPath 设置真实模型路径。
func WithModelPath(p string) Option { return func(c *workerConfig) { c.opt.ModelPath = p } }

// WithEngineName 指定推理引擎。
func WithEngineName(name string) Option { return func(c *workerConfig) { c.opt.EngineName = name } }

// WithDummyMode 强制占位模式。
func WithDummyMode(v bool) Option { return func(c *workerConfig) { c.opt.DummyMode = v } }

// WithStageDelay 设置模拟阶段间隔。
func WithStageDelay(d time.Duration) Option { return func(c *workerConfig) { c.opt.StageDelay = d } }

// WithMaxConcurrent 设置并发任务上限。
func WithMaxConcurrent(n int) Option { return func(c *workerConfig) { c.opt.MaxConcurrent = n } }

// WithHeartbeatEvery 设置心跳日志周期。
func WithHeartbeatEvery(d time.Duration) Option {
	return func(c *workerConfig) { c.opt.HeartbeatEvery = d }
}

// WithWatchdogEvery 设置卡死巡检周期。
func WithWatchdogEvery(d time.Duration) Option {
	return func(c *workerConfig) { c.opt.WatchdogEvery = d }
}

// WithStuckAfter 设置卡死判定时长。
func WithStuckAfter(d time.Duration) Option { return func(c *workerConfig) { c.opt.StuckAfter = d } }

// WithCORSOrigins 设置允许的跨域来源。
func WithCORSOrigins(origins []string) Option {
	return func(c *workerConfig) { c.opt.CORSOrigins = origins }
}

// WithStore 注入任务注册表实现（如 gormstore）；缺省用内置内存注册表。
func WithStore(s Store) Option { return func(c *workerConfig) { c.store = s } }

// WithCatalog 直接注入行为目录，跳过文件加载（测试常用）。
func WithCatalog(cat catalog.Catalog) Option {
	return func(c *workerConfig) { c.cat = cat; c.catSet = true }
}
