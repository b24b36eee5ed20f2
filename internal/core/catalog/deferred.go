package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"recipe-catalog/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrSchedulerClosed 排程器關閉後不再接受延遲刪除
var ErrSchedulerClosed = errors.New("delete scheduler is closed")

type handleState int

const (
	statePending handleState = iota
	stateCancelled
	stateFired
)

// Handle 一筆排定的刪除；只能取消一次
type Handle struct {
	id       string
	deadline time.Time

	mu    sync.Mutex
	state handleState
	timer *time.Timer
}

// ID 食譜 id
func (h *Handle) ID() string {
	return h.id
}

// Deadline 實際刪除的時間
func (h *Handle) Deadline() time.Time {
	return h.deadline
}

// Pending 尚未取消也尚未執行
func (h *Handle) Pending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state == statePending
}

// transition 只允許從 pending 轉出
func (h *Handle) transition(to handleState) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != statePending {
		return false
	}
	h.state = to
	return true
}

// Scheduler 延遲刪除排程器
type Scheduler struct {
	grace time.Duration
	run   func(ctx context.Context, id string) error

	mu      sync.Mutex
	pending map[string]*Handle
	closed  bool
	wg      sync.WaitGroup
}

// NewScheduler 創建排程器；run 執行真正的刪除
func NewScheduler(grace time.Duration, run func(ctx context.Context, id string) error) *Scheduler {
	return &Scheduler{
		grace:   grace,
		run:     run,
		pending: make(map[string]*Handle),
	}
}

// Grace 寬限時間
func (s *Scheduler) Grace() time.Duration {
	return s.grace
}

// Schedule 排定刪除；同一 id 已在等待時回傳既有的 handle
func (s *Scheduler) Schedule(id string) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSchedulerClosed
	}
	if h, ok := s.pending[id]; ok {
		return h, nil
	}

	h := &Handle{id: id, deadline: time.Now().Add(s.grace)}
	s.pending[id] = h
	s.wg.Add(1)
	h.timer = time.AfterFunc(s.grace, func() { s.fire(h) })

	common.LogInfo("已排定延遲刪除",
		zap.String("id", id),
		zap.Duration("grace", s.grace),
	)
	return h, nil
}

// Cancel 取消等待中的刪除；不在等待中時回傳 false
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	h, ok := s.pending[id]
	s.mu.Unlock()
	if !ok || !h.transition(stateCancelled) {
		return false
	}

	h.timer.Stop()
	s.remove(h)
	s.wg.Done()

	common.LogInfo("已取消延遲刪除", zap.String("id", id))
	return true
}

// IsPending 檢查 id 是否在等待刪除
func (s *Scheduler) IsPending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[id]
	return ok
}

// PendingIDs 目前等待刪除的 id
func (s *Scheduler) PendingIDs() map[string]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]struct{}, len(s.pending))
	for id := range s.pending {
		out[id] = struct{}{}
	}
	return out
}

// Flush 立即執行所有等待中的刪除並等待進行中的刪除完成
// 之後不再接受新的排程
func (s *Scheduler) Flush() {
	s.mu.Lock()
	s.closed = true
	handles := make([]*Handle, 0, len(s.pending))
	for _, h := range s.pending {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	for _, h := range handles {
		h.timer.Stop()
		s.fire(h)
	}
	s.wg.Wait()
}

func (s *Scheduler) fire(h *Handle) {
	if !h.transition(stateFired) {
		return
	}
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.run(ctx, h.id); err != nil && !errors.Is(err, common.ErrRecipeNotFound) {
		common.LogError("延遲刪除失敗", zap.String("id", h.id), zap.Error(err))
	} else {
		common.LogInfo("延遲刪除已執行", zap.String("id", h.id))
	}
	s.remove(h)
}

func (s *Scheduler) remove(h *Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[h.id] == h {
		delete(s.pending, h.id)
	}
}
