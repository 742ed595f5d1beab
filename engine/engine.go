package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/dianalab/diana-server-go/predict"
)

// DummyName 内置占位引擎的注册名。
const DummyName = "dummy"

// Request 一次推理请求。Fingerprint 已由流水线预先计算。
type Request struct {
	BehaviorID  string
	Fingerprint string
	InputPath   string
	InputType   string
}

// Engine 推理引擎统一接口。
// 功能：Infer 对单个行为产出一次预测；Stop 用于释放模型资源。
type Engine interface {
	Init(ctx context.Context) error
	Infer(ctx context.Context, req Request) (predict.Prediction, error)
	Stop(ctx context.Context) error
}

var (
	regMu   sync.RWMutex
	engines = map[string]Engine{}
)

// Register 注册引擎（重复注册按名覆盖）。
func Register(name string, e Engine) {
	regMu.Lock()
	defer regMu.Unlock()
	engines[name] = e
}

// Get 按名获取引擎。
func Get(name string) (Engine, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	e, ok := engines[name]
	return e, ok
}

// ErrNotFound 引擎不存在错误。
var ErrNotFound = errors.New("engine not found")
