package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dianalab/diana-server-go/engine"
	"github.com/dianalab/diana-server-go/fingerprint"
	"github.com/dianalab/diana-server-go/logging"
	"github.com/dianalab/diana-server-go/runstore"
	"github.com/dianalab/diana-server-go/tracker"
)

// errCanceled 任务被取消时记录的失败原因。
var errCanceled = errors.New("canceled")

// stage 模拟流水线阶段：真实系统中对应实际计算，这里用可观测、
// 可抢占的延时代替。进度值严格递增，顺序固定。
type stage struct {
	progress int
	message  string
}

func stagesFor(behaviorID string) []stage {
	return []stage{
		{15, "Cargando datos..."},
		{35, "Preprocesando..."},
		{55, "Extrayendo características..."},
		{75, fmt.Sprintf("Evaluando %s...", behaviorID)},
		{90, "Generando predicción..."},
	}
}

// execute 执行单个任务的完整流水线。
// 流程：占用并发槽 -> processing(5) -> 输入指纹 -> 各模拟阶段 -> 推理 ->
// 结果落盘 -> completed(100)。任一步失败都把任务置为 failed 并原样记录
// 失败原因；绝不吞失败，绝不把任务留在 processing。
// 提交方在调度本协程前已经返回，这里的等待不会阻塞任何调用方。
func (w *Worker) execute(inputPath string, job Job, ins *tracker.Instance) {
	defer w.trk.Stop(job.JobID)
	ctx := ins.Ctx

	fail := func(err error) {
		logging.L().Error(ctx, "job failed", "job_id", job.JobID, "err", err)
		_ = w.store.Update(context.Background(), job.JobID, func(j *Job) {
			if j.Status.Terminal() {
				return
			}
			j.Status = StatusFailed
			j.Error = err.Error()
			j.Message = "Error: " + err.Error()
		})
	}

	// 并发槽（有界执行：提交无背压，执行有上限）
	select {
	case <-ctx.Done():
		fail(errCanceled)
		return
	case w.sem <- struct{}{}:
	}
	defer func() { <-w.sem }()

	w.progress(job.JobID, 5, "Iniciando procesamiento...")
	logging.L().Info(ctx, "job started",
		"job_id", job.JobID, "behavior_id", job.BehaviorID, "input_type", job.InputType)

	fp, err := w.fingerprintInput(inputPath, job.InputType)
	if err != nil {
		fail(err)
		return
	}

	for _, st := range stagesFor(job.BehaviorID) {
		w.progress(job.JobID, st.progress, st.message)
		logging.L().Debug(ctx, "stage reached", "job_id", job.JobID, "progress", st.progress)
		select {
		case <-ctx.Done():
			fail(errCanceled)
			return
		case <-time.After(w.opt.StageDelay):
		}
	}

	pred, err := w.eng.Infer(ctx, engine.Request{
		BehaviorID:  job.BehaviorID,
		Fingerprint: fp,
		InputPath:   inputPath,
		InputType:   job.InputType,
	})
	if err != nil {
		fail(err)
		return
	}
	// 推理期间可能被取消或被看门狗判死，落盘前再确认一次
	if ctx.Err() != nil {
		fail(errCanceled)
		return
	}

	completedAt := isoNow()
	modelVersion := w.modelVersion()
	results := &runstore.Results{
		JobID:      job.JobID,
		InputID:    job.InputID,
		InputType:  job.InputType,
		BehaviorID: job.BehaviorID,
		Prediction: pred,
		Metadata: runstore.Metadata{
			ModelVersion: modelVersion,
			InputHash:    fp,
			ProcessedAt:  completedAt,
		},
	}
	meta := &runstore.RunMetadata{
		JobID:        job.JobID,
		InputID:      job.InputID,
		InputType:    job.InputType,
		BehaviorID:   job.BehaviorID,
		InputPath:    inputPath,
		InputHash:    fp,
		ModelVersion: modelVersion,
		StartedAt:    job.CreatedAt.UTC().Format(time.RFC3339),
		CompletedAt:  completedAt,
		DummyMode:    !w.modelAvailable(),
	}
	if err := w.runs.Persist(job.JobID, results, meta); err != nil {
		fail(err)
		return
	}

	_ = w.store.Update(context.Background(), job.JobID, func(j *Job) {
		if j.Status.Terminal() {
			return
		}
		j.Status = StatusCompleted
		j.Progress = 100
		j.Message = "Análisis completado"
		j.Results = results
	})
	logging.L().Info(ctx, "job completed",
		"job_id", job.JobID, "pred", pred.Pred, "confidence", pred.Confidence)
}

// progress 进度更新：锁内只做字段赋值，更新立即对并发读者可见。
// 终态记录不回写——状态机单向，completed/failed 之后任何进度更新都作废。
func (w *Worker) progress(jobID string, progress int, msg string) {
	_ = w.store.Update(context.Background(), jobID, func(j *Job) {
		if j.Status.Terminal() {
			return
		}
		j.Status = StatusProcessing
		j.Progress = progress
		j.Message = msg
	})
}

// fingerprintInput 依输入类型选择指纹路径：视频走文件流式摘要，
// 骨架文档走规范化结构摘要。
func (w *Worker) fingerprintInput(path, inputType string) (string, error) {
	if inputType == "video" {
		return fingerprint.File(path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return fingerprint.Data(b)
}
