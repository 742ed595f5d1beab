package tracker

import (
	"context"
	"sync"
)

// Instance 在跑任务的上下文与取消句柄。
// Ctx 传给执行协程，模拟阶段的延时在其上可被抢占。
type Instance struct {
	Ctx    context.Context
	Cancel context.CancelFunc
}

// Manager 运行中任务跟踪器。任务进入终态或被取消后即从表中移除；
// 任务记录本身的生命周期由注册表负责，这里只管“在跑”的那一段。
type Manager struct {
	mu      sync.RWMutex
	running map[string]*Instance
}

// NewManager 构造。
func NewManager() *Manager { return &Manager{running: map[string]*Instance{}} }

// Start 注册任务并返回其可取消上下文。
func (m *Manager) Start(id string) *Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx, cancel := context.WithCancel(context.Background())
	ins := &Instance{Ctx: ctx, Cancel: cancel}
	m.running[id] = ins
	return ins
}

// Stop 取消并移除任务；任务不在表中返回 false。
func (m *Manager) Stop(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ins, ok := m.running[id]; ok {
		ins.Cancel()
		delete(m.running, id)
		return true
	}
	return false
}

// Get 查询任务。
func (m *Manager) Get(id string) (*Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ins, ok := m.running[id]
	return ins, ok
}

// ListIDs 返回当前在跑任务ID集合。
func (m *Manager) ListIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.running))
	for id := range m.running {
		ids = append(ids, id)
	}
	return ids
}
