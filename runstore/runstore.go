package runstore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/dianalab/diana-server-go/predict"
)

// Results 任务结果文档（runs/<job_id>/results.json）。
// 成功完成时创建一次，此后不可变；字段名对外部消费者与测试夹具保持稳定。
type Results struct {
	JobID      string             `json:"job_id"`
	InputID    string             `json:"input_id"`
	InputType  string             `json:"input_type"`
	BehaviorID string             `json:"behavior_id"`
	Prediction predict.Prediction `json:"prediction"`
	Metadata   Metadata           `json:"metadata"`
}

// Metadata 结果内嵌的推理元信息。
type Metadata struct {
	ModelVersion string `json:"model_version"`
	InputHash    string `json:"input_hash"`
	ProcessedAt  string `json:"processed_at"`
}

// RunMetadata 运行元数据文档（runs/<job_id>/metadata.json）。
type RunMetadata struct {
	JobID        string `json:"job_id"`
	InputID      string `json:"input_id"`
	InputType    string `json:"input_type"`
	BehaviorID   string `json:"behavior_id"`
	InputPath    string `json:"input_path"`
	InputHash    string `json:"input_hash"`
	ModelVersion string `json:"model_version"`
	StartedAt    string `json:"started_at"`
	CompletedAt  string `json:"completed_at"`
	DummyMode    bool   `json:"dummy_mode"`
}

// Store 基于目录的结果持久化：每个任务一个子目录，内含结果与运行元数据两份文档。
type Store struct{ dir string }

// New 创建 Store。dir 为 runs 根目录，可尚不存在。
func New(dir string) *Store { return &Store{dir: dir} }

// Persist 写入 results.json 与 metadata.json，目录不存在时创建。
// 写入采用临时文件 + 同目录重命名，并发读者不会观察到半写文档；
// 任一步失败返回错误，由调用方把任务置为 failed，不留下可被当作完成的残片。
func (s *Store) Persist(jobID string, res *Results, meta *RunMetadata) error {
	dir := filepath.Join(s.dir, jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "results.json"), res); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, "metadata.json"), meta)
}

// Load 读回结果文档。
// 内存中的任务记录被淘汰后作为回退读取路径；文档不存在时返回 os.ErrNotExist。
func (s *Store) Load(jobID string) (*Results, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, jobID, "results.json"))
	if err != nil {
		return nil, err
	}
	var res Results
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
