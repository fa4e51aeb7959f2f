package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Tuncayozalici/ONERI-sub000/internal/importer"
	"github.com/Tuncayozalici/ONERI-sub000/internal/refresh"
	"github.com/Tuncayozalici/ONERI-sub000/internal/store"
)

// Refresh 立即刷新快照，与定时刷新串行
// POST /api/refresh
func (h *Handler) Refresh(c *gin.Context) {
	// 客户端断开不应取消已开始的刷新
	res, err := h.refresher.RefreshNow(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "result": res})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res})
}

type refreshOutcome struct {
	result refresh.Result
	err    error
}

// RefreshStream 立即刷新（SSE 推送各数据源的导入进度）
// POST /api/refresh/stream
func (h *Handler) RefreshStream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}

	send := func(event importer.ProgressEvent) {
		b, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	id, events := h.progress.subscribe()
	defer h.progress.unsubscribe(id)

	done := make(chan refreshOutcome, 1)
	go func() {
		res, err := h.refresher.RefreshNow(context.WithoutCancel(c.Request.Context()))
		done <- refreshOutcome{result: res, err: err}
	}()

	for {
		select {
		case event := <-events:
			send(event)
		case out := <-done:
			for drained := false; !drained; {
				select {
				case event := <-events:
					send(event)
				default:
					drained = true
				}
			}
			final := importer.ProgressEvent{
				Type:      "result",
				Message:   out.result.Status,
				Data:      out.result,
				Timestamp: time.Now(),
			}
			if out.err != nil && out.result.Status != store.RefreshCancelled {
				final.Type = "error"
				final.Message = "刷新失败: " + out.err.Error()
			}
			send(final)
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}

// progressHub 把构建进度广播给所有 SSE 订阅者；订阅者跟不上时丢弃事件
type progressHub struct {
	mu   sync.Mutex
	subs map[string]chan importer.ProgressEvent
}

func newProgressHub() *progressHub {
	return &progressHub{
		subs: make(map[string]chan importer.ProgressEvent),
	}
}

func (p *progressHub) subscribe() (string, <-chan importer.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan importer.ProgressEvent, 64)
	p.subs[id] = ch
	return id, ch
}

func (p *progressHub) unsubscribe(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subs, id)
}

func (p *progressHub) publish(event importer.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, ch := range p.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (p *progressHub) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}
