package config

// Config dianad 的完整运行配置。
// 零值字段由 worker.Options 的默认值兜底，因此配置文件可以只写关心的项。
type Config struct {
	ListenAddr string `yaml:"listen_addr"` // 监听地址，例如 127.0.0.1:8000
	DataDir    string `yaml:"data_dir"`    // 数据根目录（uploads/skeletons/runs/models）
	LabelMap   string `yaml:"label_map"`   // 行为目录 label_map.json 路径

	Model struct {
		Path   string `yaml:"path"`   // 真实模型文件路径；缺失时回退占位引擎
		Engine string `yaml:"engine"` // 推理引擎名；留空按模型可用性选择
		Dummy  bool   `yaml:"dummy"`  // 强制占位模式（即使模型存在）
	} `yaml:"model"`

	Jobs struct {
		StageDelayMS      int `yaml:"stage_delay_ms"`      // 模拟处理阶段间隔（毫秒）
		MaxConcurrent     int `yaml:"max_concurrent"`      // 并发任务上限
		HeartbeatSeconds  int `yaml:"heartbeat_seconds"`   // 心跳日志周期
		WatchdogSeconds   int `yaml:"watchdog_seconds"`    // 卡死巡检周期
		StuckAfterSeconds int `yaml:"stuck_after_seconds"` // processing 卡死判定时长
	} `yaml:"jobs"`

	Storage struct {
		SQLitePath string `yaml:"sqlite_path"` // 设置后任务注册表落 sqlite（gormstore）
	} `yaml:"storage"`

	CORSOrigins []string `yaml:"cors_origins"` // 允许的跨域来源
}
