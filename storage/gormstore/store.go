package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/dianalab/diana-server-go/runstore"
	"github.com/dianalab/diana-server-go/worker"
)

// model 映射 diana_jobs 表。Results 以 JSON 文本列存放，读出时再解码。
type model struct {
	ID         uint      `gorm:"primaryKey"`
	JobID      string    `gorm:"uniqueIndex;size:64"`
	InputID    string    `gorm:"index;size:64"`
	InputType  string    `gorm:"size:16"`
	BehaviorID string    `gorm:"index;size:64"`
	Status     string    `gorm:"index;size:16"`
	Progress   int       `gorm:"default:0"`
	Message    string    `gorm:"type:text"`
	Error      string    `gorm:"type:text"`
	ResultsRaw string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"index"`
	UpdatedAt  time.Time
}

func (model) TableName() string { return "diana_jobs" }

// Store 基于 GORM 的任务注册表：任务记录随进程重启仍可查询。
type Store struct{ db *gorm.DB }

// New 创建 Store 并自动迁移表结构。
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&model{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Open 打开 sqlite 数据库（纯 Go 驱动，无 cgo）并创建 Store。
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return New(db)
}

// Create 实现 worker.Store.Create。
func (s *Store) Create(ctx context.Context, job *worker.Job) error {
	m, err := toModel(job)
	if err != nil {
		return err
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&model{}).Where("job_id = ?", job.JobID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("job already exists: %s", job.JobID)
	}
	return s.db.WithContext(ctx).Create(&m).Error
}

// Get 实现 worker.Store.Get。
func (s *Store) Get(ctx context.Context, jobID string) (*worker.Job, error) {
	var m model
	if err := s.db.WithContext(ctx).Where("job_id = ?", jobID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, worker.ErrJobNotFound
		}
		return nil, err
	}
	return fromModel(m)
}

// Update 实现 worker.Store.Update：事务内读-改-写，保证变更原子可见。
func (s *Store) Update(ctx context.Context, jobID string, mutate func(*worker.Job)) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m model
		if err := tx.Where("job_id = ?", jobID).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return worker.ErrJobNotFound
			}
			return err
		}
		job, err := fromModel(m)
		if err != nil {
			return err
		}
		mutate(job)
		job.UpdatedAt = time.Now()
		m2, err := toModel(job)
		if err != nil {
			return err
		}
		m2.ID = m.ID
		return tx.Save(&m2).Error
	})
}

// ListProcessing 实现 worker.Store.ListProcessing。
func (s *Store) ListProcessing(ctx context.Context) ([]worker.Job, error) {
	var list []model
	if err := s.db.WithContext(ctx).Where("status = ?", string(worker.StatusProcessing)).Find(&list).Error; err != nil {
		return nil, err
	}
	out := make([]worker.Job, 0, len(list))
	for _, m := range list {
		j, err := fromModel(m)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, nil
}

func toModel(j *worker.Job) (model, error) {
	var raw string
	if j.Results != nil {
		b, err := json.Marshal(j.Results)
		if err != nil {
			return model{}, err
		}
		raw = string(b)
	}
	return model{
		JobID:      j.JobID,
		InputID:    j.InputID,
		InputType:  j.InputType,
		BehaviorID: j.BehaviorID,
		Status:     string(j.Status),
		Progress:   j.Progress,
		Message:    j.Message,
		Error:      j.Error,
		ResultsRaw: raw,
		CreatedAt:  j.CreatedAt,
		UpdatedAt:  j.UpdatedAt,
	}, nil
}

func fromModel(m model) (*worker.Job, error) {
	j := &worker.Job{
		JobID:      m.JobID,
		InputID:    m.InputID,
		InputType:  m.InputType,
		BehaviorID: m.BehaviorID,
		Status:     worker.Status(m.Status),
		Progress:   m.Progress,
		Message:    m.Message,
		Error:      m.Error,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	if m.ResultsRaw != "" {
		var res runstore.Results
		if err := json.Unmarshal([]byte(m.ResultsRaw), &res); err != nil {
			return nil, err
		}
		j.Results = &res
	}
	return j, nil
}
