package worker

import (
	"context"
	"errors"
	"time"

	"github.com/dianalab/diana-server-go/runstore"
)

// Status 任务状态。对外 JSON 即为这些小写字符串。
// 状态机：pending -> processing -> {completed, failed}，单向不可回退；
// 失败任务不自动重试——重试等于携带新ID的新任务。
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal 是否终态。
func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusFailed }

// Job 任务记录。
// 创建后仅由对应的执行协程（以及看门狗的失败兜底）修改；
// Results 当且仅当 completed 时非空，Error 当且仅当 failed 时非空。
type Job struct {
	JobID      string            `json:"job_id"`
	InputID    string            `json:"input_id"`
	InputType  string            `json:"input_type"` // video | skeleton
	BehaviorID string            `json:"behavior_id"`
	Status     Status            `json:"status"`
	Progress   int               `json:"progress"`
	Message    string            `json:"message"`
	Error      string            `json:"error,omitempty"`
	Results    *runstore.Results `json:"results,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// ErrJobNotFound 任务不存在。
var ErrJobNotFound = errors.New("job not found")

// Store 任务注册表（可由宿主实现或使用内置 gormstore）。
// 实现要求：Get 返回快照而非活引用，避免锁外撕裂读；
// Update 在锁内原子地应用字段级变更，锁持有时间为 O(字段赋值)，
// 绝不跨越模拟处理延时，并发任务不会在彼此的进度更新上串行化。
type Store interface {
	// Create 插入新记录；job_id 已存在视为错误。
	Create(ctx context.Context, job *Job) error
	// Get 按 jobID 返回记录快照；不存在返回 ErrJobNotFound。
	Get(ctx context.Context, jobID string) (*Job, error)
	// Update 在锁内对记录应用 mutate 并刷新 UpdatedAt；不存在返回 ErrJobNotFound。
	Update(ctx context.Context, jobID string, mutate func(*Job)) error
	// ListProcessing 列出 processing 状态的记录（看门狗巡检用）。
	ListProcessing(ctx context.Context) ([]Job, error)
}
