package predict

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"math/rand/v2"

	"github.com/dianalab/diana-server-go/catalog"
)

// Prediction 单次占位预测。字段名即对外 JSON，保持稳定。
type Prediction struct {
	BehaviorID   string  `json:"behavior_id"`
	Pred         int     `json:"pred"`
	Confidence   float64 `json:"confidence"`
	RubricText   string  `json:"rubric_text"`
	RubricTextES string  `json:"rubric_text_es"`
}

// Generate 生成确定性的占位预测（无真实模型时的替身）。
// 功能：以 sha256(behaviorID+"_"+fp) 为种子构造本次调用独享的 PRNG，
// 相同 (behavior, 指纹) 必然得到逐位一致的输出——确定性是可复现与可测试的根基。
// 档位从 {0,1,2} 按固定权重 0.20/0.35/0.45 抽取（偏向高分），
// 置信度取 [0.65, 0.95] 均匀分布并保留 4 位小数。
// 目录缺失该行为或档位文本时量表字段为空串。本函数从不失败；
// 行为ID合法性由上游校验，这里不重复校验。
func Generate(cat catalog.Catalog, behaviorID, fp string) Prediction {
	seed := sha256.Sum256([]byte(behaviorID + "_" + fp))
	r := rand.New(rand.NewPCG(
		binary.LittleEndian.Uint64(seed[0:8]),
		binary.LittleEndian.Uint64(seed[8:16]),
	))

	pred := 2
	switch x := r.Float64(); {
	case x < 0.20:
		pred = 0
	case x < 0.55:
		pred = 1
	}
	confidence := 0.65 + 0.30*r.Float64()
	confidence = math.Round(confidence*10000) / 10000

	en, es := cat.Rubric(behaviorID, pred)
	return Prediction{
		BehaviorID:   behaviorID,
		Pred:         pred,
		Confidence:   confidence,
		RubricText:   en,
		RubricTextES: es,
	}
}
