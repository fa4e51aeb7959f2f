package refresh

import (
	"context"
	"sync"
	"time"
)

// Scheduler 周期任务调度：立即执行一次，然后按间隔执行，直到停止
type Scheduler interface {
	Start(ctx context.Context, interval time.Duration, fn func(context.Context))
	Stop()
}

// TickerScheduler 基于 time.Ticker 的调度器
type TickerScheduler struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTickerScheduler 创建调度器
func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{}
}

// Start 启动调度；重复调用会先停止上一次的循环
func (s *TickerScheduler) Start(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	if interval <= 0 {
		interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)
		fn(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
}

// Stop 停止调度并等待正在执行的任务结束
func (s *TickerScheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
