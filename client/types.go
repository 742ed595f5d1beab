package client

import "encoding/json"

// 以下类型与服务端各端点的 JSON 字段一一对应。

// VideoUpload 视频上传响应。
type VideoUpload struct {
	VideoID    string  `json:"video_id"`
	StoredPath string  `json:"stored_path"`
	Duration   float64 `json:"duration"`
	FPS        float64 `json:"fps"`
}

// SkeletonUpload 骨架数据上传响应。
type SkeletonUpload struct {
	SkeletonID string  `json:"skeleton_id"`
	StoredPath string  `json:"stored_path"`
	FrameCount int     `json:"frame_count"`
	FPS        float64 `json:"fps"`
}

// InferRequest 推理提交请求。
type InferRequest struct {
	InputID    string `json:"input_id"`
	InputType  string `json:"input_type"` // video | skeleton
	BehaviorID string `json:"behavior_id"`
}

// InferResponse 推理提交响应。
type InferResponse struct {
	JobID string `json:"job_id"`
}

// JobStatus 任务状态。
type JobStatus struct {
	Status   string `json:"status"` // pending | processing | completed | failed
	Progress int    `json:"progress"`
	Message  string `json:"message"`
	Error    string `json:"error,omitempty"`
}

// Terminal 是否终态。
func (s JobStatus) Terminal() bool { return s.Status == "completed" || s.Status == "failed" }

// Prediction 预测结果。
type Prediction struct {
	BehaviorID   string  `json:"behavior_id"`
	Pred         int     `json:"pred"`
	Confidence   float64 `json:"confidence"`
	RubricText   string  `json:"rubric_text"`
	RubricTextES string  `json:"rubric_text_es"`
}

// ResultMetadata 结果内嵌的推理元信息。
type ResultMetadata struct {
	ModelVersion string `json:"model_version"`
	InputHash    string `json:"input_hash"`
	ProcessedAt  string `json:"processed_at"`
}

// Results 完整结果载荷。
type Results struct {
	JobID      string         `json:"job_id"`
	InputID    string         `json:"input_id"`
	InputType  string         `json:"input_type"`
	BehaviorID string         `json:"behavior_id"`
	Prediction Prediction     `json:"prediction"`
	Metadata   ResultMetadata `json:"metadata"`
}

// Health 健康检查响应。System 字段结构由服务端版本决定，保持原始 JSON。
type Health struct {
	Status         string          `json:"status"`
	Timestamp      string          `json:"timestamp"`
	ModelAvailable bool            `json:"model_available"`
	DummyMode      bool            `json:"dummy_mode"`
	BehaviorsCount int             `json:"behaviors_count"`
	Behaviors      []string        `json:"behaviors"`
	System         json.RawMessage `json:"system"`
}

// errResp 服务端错误响应包装 {"success":false,"message":...}。
type errResp struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
