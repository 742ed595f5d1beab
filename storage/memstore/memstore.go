package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dianalab/diana-server-go/worker"
)

// Store 线程安全的内存任务注册表，开发与轻量场景使用。
type Store struct {
	mu sync.RWMutex
	m  map[string]*worker.Job
}

// New 创建内存注册表。
func New() *Store { return &Store{m: map[string]*worker.Job{}} }

func (s *Store) Create(ctx context.Context, job *worker.Job) error {
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

func (s *Store) Get(ctx context.Context, jobID string) (*worker.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.m[jobID]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, worker.ErrJobNotFound
}

func (s *Store) Update(ctx context.Context, jobID string, mutate func(*worker.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.m[jobID]
	if !ok {
		return worker.ErrJobNotFound
	}
	mutate(r)
	r.UpdatedAt = time.Now()
	return nil
}

func (s *Store) ListProcessing(ctx context.Context) ([]worker.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]worker.Job, 0)
	for _, v := range s.m {
		if v.Status == worker.StatusProcessing {
			out = append(out, *v)
		}
	}
	return out, nil
}
