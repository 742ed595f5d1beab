package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Client DIANA 服务的 HTTP 客户端，供 CLI、测试与外部集成使用。
type Client struct {
	base string
	hc   *http.Client
}

// New 创建客户端。base 形如 http://127.0.0.1:8000。
func New(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Health 健康检查。
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.get(ctx, "/api/health", &out)
	return out, err
}

// UploadVideo 以 multipart 上传视频文件。
func (c *Client) UploadVideo(ctx context.Context, path string) (VideoUpload, error) {
	var out VideoUpload
	f, err := os.Open(path)
	if err != nil {
		return out, err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return out, err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return out, err
	}
	if err := mw.Close(); err != nil {
		return out, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/videos", &body)
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	res, err := c.hc.Do(req)
	if err != nil {
		return out, err
	}
	defer res.Body.Close()
	if err := checkStatus(res); err != nil {
		return out, err
	}
	return out, json.NewDecoder(res.Body).Decode(&out)
}

// UploadSkeleton 上传骨架关键点文档。
func (c *Client) UploadSkeleton(ctx context.Context, filename string, data map[string]any) (SkeletonUpload, error) {
	var out SkeletonUpload
	err := c.post(ctx, "/api/skeletons", map[string]any{"filename": filename, "data": data}, &out)
	return out, err
}

// StartInference 提交推理任务，返回 job_id。
func (c *Client) StartInference(ctx context.Context, inputID, inputType, behaviorID string) (string, error) {
	var out InferResponse
	err := c.post(ctx, "/api/infer", InferRequest{InputID: inputID, InputType: inputType, BehaviorID: behaviorID}, &out)
	return out.JobID, err
}

// JobStatus 查询任务状态。
func (c *Client) JobStatus(ctx context.Context, jobID string) (JobStatus, error) {
	var out JobStatus
	err := c.get(ctx, "/api/jobs/"+jobID, &out)
	return out, err
}

// JobResults 获取已完成任务的完整结果。
func (c *Client) JobResults(ctx context.Context, jobID string) (Results, error) {
	var out Results
	err := c.get(ctx, "/api/jobs/"+jobID+"/results", &out)
	return out, err
}

// Cancel 取消在跑任务。
func (c *Client) Cancel(ctx context.Context, jobID string) error {
	return c.post(ctx, "/api/jobs/"+jobID+"/cancel", nil, nil)
}

// Behaviors 获取行为目录。
func (c *Client) Behaviors(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.get(ctx, "/api/behaviors", &out)
	return out, err
}

// WaitForJob 轮询直到任务进入终态（completed/failed）或 ctx 结束。
// 参数：every 轮询间隔，<=0 取 500ms。
func (c *Client) WaitForJob(ctx context.Context, jobID string, every time.Duration) (JobStatus, error) {
	if every <= 0 {
		every = 500 * time.Millisecond
	}
	for {
		st, err := c.JobStatus(ctx, jobID)
		if err != nil {
			return st, err
		}
		if st.Terminal() {
			return st, nil
		}
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-time.After(every):
		}
	}
}

// get 执行 GET 请求并解码 JSON。
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if err := checkStatus(res); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// post 执行 POST 请求并可选解码响应。
func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if err := checkStatus(res); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// checkStatus 非 2xx 时抽取服务端错误信息。
func checkStatus(res *http.Response) error {
	if res.StatusCode/100 == 2 {
		return nil
	}
	b, _ := io.ReadAll(res.Body)
	var e errResp
	if json.Unmarshal(b, &e) == nil && e.Message != "" {
		return fmt.Errorf("%s %s => %d: %s", res.Request.Method, res.Request.URL.Path, res.StatusCode, e.Message)
	}
	return fmt.Errorf("%s %s => %d: %s", res.Request.Method, res.Request.URL.Path, res.StatusCode, string(b))
}
