package dummy

import (
	"context"

	"github.com/dianalab/diana-server-go/catalog"
	"github.com/dianalab/diana-server-go/engine"
	"github.com/dianalab/diana-server-go/predict"
)

// Engine 占位引擎：没有真实模型时生成确定性伪预测。
type Engine struct{ cat catalog.Catalog }

// New 创建占位引擎并注册到引擎表（名为 engine.DummyName）。
func New(cat catalog.Catalog) *Engine {
	e := &Engine{cat: cat}
	engine.Register(engine.DummyName, e)
	return e
}

func (e *Engine) Init(ctx context.Context) error { return nil }

// Infer 生成确定性伪预测；从不失败。
func (e *Engine) Infer(ctx context.Context, req engine.Request) (predict.Prediction, error) {
	return predict.Generate(e.cat, req.BehaviorID, req.Fingerprint), nil
}

func (e *Engine) Stop(ctx context.Context) error { return nil }
