package worker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// inMemoryStore 包内置的并发安全内存注册表，默认与测试场景使用。
// 设计：为避免 import cycle 不依赖外部子包；注册表不做淘汰，
// 记录在进程生命周期内常驻（重启即清空）。
type inMemoryStore struct {
	mu sync.RWMutex
	m  map[string]*Job
}

// newDefaultMemStore 创建内置内存注册表。
func newDefaultMemStore() Store { return &inMemoryStore{m: map[string]*Job{}} }

// Create 插入新记录；job_id 已存在返回错误（ID 由 uuid 生成，冲突概率视为零）。
func (s *inMemoryStore) Create(ctx context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[job.JobID]; ok {
		return fmt.Errorf("job already exists: %s", job.JobID)
	}
	cp := *job
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = time.Now()
	}
	s.m[job.JobID] = &cp
	return nil
}

// Get 返回记录快照。
func (s *inMemoryStore) Get(ctx context.Context, jobID string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.m[jobID]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, ErrJobNotFound
}

// Update 在锁内应用变更并刷新 UpdatedAt。
func (s *inMemoryStore) Update(ctx context.Context, jobID string, mutate func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.m[jobID]
	if !ok {
		return ErrJobNotFound
	}
	mutate(r)
	r.UpdatedAt = time.Now()
	return nil
}

// ListProcessing 列出 processing 状态的记录快照。
func (s *inMemoryStore) ListProcessing(ctx context.Context) ([]Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Job, 0)
	for _, v := range s.m {
		if v.Status == StatusProcessing {
			out = append(out, *v)
		}
	}
	return out, nil
}
