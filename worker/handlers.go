package worker

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dianalab/diana-server-go/logging"
	"github.com/dianalab/diana-server-go/metrics"
)

// 接受的视频扩展名（有序，解析输入时按序探测）。
var videoExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".webm"}

// registerHandlers 挂载全部 API 路由。
func (w *Worker) registerHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", w.handleHealth)
	mux.HandleFunc("POST /api/videos", w.handleUploadVideo)
	mux.HandleFunc("POST /api/skeletons", w.handleUploadSkeleton)
	mux.HandleFunc("POST /api/infer", w.handleInfer)
	mux.HandleFunc("GET /api/jobs/{id}", w.handleJobStatus)
	mux.HandleFunc("GET /api/jobs/{id}/results", w.handleJobResults)
	mux.HandleFunc("POST /api/jobs/{id}/cancel", w.handleJobCancel)
	mux.HandleFunc("GET /api/behaviors", w.handleBehaviors)
}

// handleHealth 健康检查：服务状态、模型可用性与系统指标。
func (w *Worker) handleHealth(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, map[string]any{
		"status":          "healthy",
		"timestamp":       isoNow(),
		"model_available": w.modelAvailable(),
		"dummy_mode":      !w.modelAvailable(),
		"behaviors_count": len(w.cat),
		"behaviors":       w.cat.IDs(),
		"system":          metrics.CollectSystemMetric(r.Context()),
	})
}

// handleUploadVideo 视频上传：校验扩展名，按 uuid 落盘，返回占位探针信息。
func (w *Worker) handleUploadVideo(rw http.ResponseWriter, r *http.Request) {
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeErr(rw, http.StatusBadRequest, errors.New("no file provided"))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(hdr.Filename))
	if !isVideoExtension(ext) {
		writeErr(rw, http.StatusBadRequest,
			fmt.Errorf("invalid file type, allowed: %s", strings.Join(videoExtensions, ", ")))
		return
	}

	videoID := uuid.NewString()
	dst := filepath.Join(w.opt.DataDir, "uploads", videoID+ext)
	out, err := os.Create(dst)
	if err != nil {
		writeErr(rw, http.StatusInternalServerError, fmt.Errorf("failed to save file: %w", err))
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(dst)
		writeErr(rw, http.StatusInternalServerError, fmt.Errorf("failed to save file: %w", err))
		return
	}
	if err := out.Close(); err != nil {
		writeErr(rw, http.StatusInternalServerError, fmt.Errorf("failed to save file: %w", err))
		return
	}

	// TODO: 用 ffprobe 获取真实时长与帧率
	duration, fps := 30.0, 30.0
	writeJSON(rw, map[string]any{
		"video_id":    videoID,
		"stored_path": dst,
		"duration":    duration,
		"fps":         fps,
	})
}

// skeletonUploadReq 骨架关键点上传请求。
type skeletonUploadReq struct {
	Filename string         `json:"filename"`
	Data     map[string]any `json:"data"`
}

// handleUploadSkeleton 骨架数据上传：包一层上传信息后整体落盘。
func (w *Worker) handleUploadSkeleton(rw http.ResponseWriter, r *http.Request) {
	var req skeletonUploadReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(rw, http.StatusBadRequest, err)
		return
	}

	skeletonID := uuid.NewString()
	dst := filepath.Join(w.opt.DataDir, "skeletons", skeletonID+".json")
	doc := map[string]any{
		"filename":    req.Filename,
		"data":        req.Data,
		"uploaded_at": isoNow(),
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err == nil {
		err = os.WriteFile(dst, b, 0o644)
	}
	if err != nil {
		writeErr(rw, http.StatusInternalServerError, fmt.Errorf("failed to save skeleton data: %w", err))
		return
	}

	writeJSON(rw, map[string]any{
		"skeleton_id": skeletonID,
		"stored_path": dst,
		"frame_count": countFrames(req.Data),
		"fps":         30.0,
	})
}

// countFrames 兼容多种骨架 JSON 形态提取帧数：
// OpenPose（data 为帧对象数组）以及 keypoints/frames/skeleton 列表变体。
func countFrames(data map[string]any) int {
	for _, key := range []string{"data", "keypoints", "frames", "skeleton"} {
		if v, ok := data[key].([]any); ok {
			return len(v)
		}
	}
	return 0
}

// inferReq 推理请求。
type inferReq struct {
	InputID    string `json:"input_id"`
	InputType  string `json:"input_type"` // video | skeleton
	BehaviorID string `json:"behavior_id"`
}

// handleInfer 任务提交入口：校验通过即分配 pending 记录并调度执行协程，
// 立即返回 job_id，不等待流水线。
func (w *Worker) handleInfer(rw http.ResponseWriter, r *http.Request) {
	var req inferReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(rw, http.StatusBadRequest, err)
		return
	}
	if req.InputType != "video" && req.InputType != "skeleton" {
		writeErr(rw, http.StatusBadRequest, errors.New("invalid input_type, valid options: video, skeleton"))
		return
	}
	if !w.cat.Has(req.BehaviorID) {
		writeErr(rw, http.StatusBadRequest,
			fmt.Errorf("invalid behavior_id, valid options: %s", strings.Join(w.cat.IDs(), ", ")))
		return
	}
	inputPath := w.resolveInput(req.InputID, req.InputType)
	if inputPath == "" {
		writeErr(rw, http.StatusNotFound, fmt.Errorf("%s not found", req.InputType))
		return
	}

	now := time.Now().UTC()
	job := &Job{
		JobID:      uuid.NewString(),
		InputID:    req.InputID,
		InputType:  req.InputType,
		BehaviorID: req.BehaviorID,
		Status:     StatusPending,
		Progress:   0,
		Message:    "En cola...",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := w.store.Create(r.Context(), job); err != nil {
		writeErr(rw, http.StatusInternalServerError, err)
		return
	}

	ins := w.trk.Start(job.JobID)
	ins.Ctx = withJobID(ins.Ctx, job.JobID)
	go w.execute(inputPath, *job, ins)

	writeJSON(rw, map[string]any{"job_id": job.JobID})
}

// resolveInput 按输入类型解析已上传产物的路径；找不到返回空串。
func (w *Worker) resolveInput(inputID, inputType string) string {
	if inputType == "video" {
		for _, ext := range videoExtensions {
			p := filepath.Join(w.opt.DataDir, "uploads", inputID+ext)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
		return ""
	}
	p := filepath.Join(w.opt.DataDir, "skeletons", inputID+".json")
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

// handleJobStatus 任务状态查询。
func (w *Worker) handleJobStatus(rw http.ResponseWriter, r *http.Request) {
	job, err := w.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(rw, http.StatusNotFound, ErrJobNotFound)
		return
	}
	resp := map[string]any{
		"status":   job.Status,
		"progress": job.Progress,
		"message":  job.Message,
	}
	if job.Error != "" {
		resp["error"] = job.Error
	}
	writeJSON(rw, resp)
}

// handleJobResults 任务结果查询：仅 completed 可取；
// 内存中的结果缺失时回退读取 runs/<job_id>/results.json。
func (w *Worker) handleJobResults(rw http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	job, err := w.store.Get(r.Context(), jobID)
	if err != nil {
		writeErr(rw, http.StatusNotFound, ErrJobNotFound)
		return
	}
	if job.Status != StatusCompleted {
		writeErr(rw, http.StatusBadRequest,
			fmt.Errorf("job not completed, current status: %s", job.Status))
		return
	}
	results := job.Results
	if results == nil {
		results, err = w.runs.Load(jobID)
		if err != nil {
			writeErr(rw, http.StatusInternalServerError, errors.New("results not found"))
			return
		}
	}
	writeJSON(rw, results)
}

// handleJobCancel 取消在跑任务：取消其执行上下文，由执行协程在下一个
// 阶段边界收敛为 failed("canceled")。终态任务与未在跑任务返回 400。
func (w *Worker) handleJobCancel(rw http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	job, err := w.store.Get(r.Context(), jobID)
	if err != nil {
		writeErr(rw, http.StatusNotFound, ErrJobNotFound)
		return
	}
	if job.Status.Terminal() {
		writeErr(rw, http.StatusBadRequest, fmt.Errorf("job already finished: %s", job.Status))
		return
	}
	if !w.trk.Stop(jobID) {
		writeErr(rw, http.StatusBadRequest, errors.New("job not running"))
		return
	}
	logging.L().Info(r.Context(), "job cancel requested", "job_id", jobID)
	writeJSON(rw, map[string]any{"success": true})
}

// handleBehaviors 行为目录查询。
func (w *Worker) handleBehaviors(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, map[string]any{
		"behaviors": w.cat,
		"count":     len(w.cat),
		"ids":       w.cat.IDs(),
	})
}

func isVideoExtension(ext string) bool {
	for _, e := range videoExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
