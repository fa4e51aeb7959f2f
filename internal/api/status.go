package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Tuncayozalici/ONERI-sub000/internal/dashboard"
	"github.com/Tuncayozalici/ONERI-sub000/internal/refresh"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	dashboard.Status
	LastRefresh *refresh.Result `json:"lastRefresh,omitempty"` // 最近一次刷新周期
}

// GetStatus 获取快照状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	resp := StatusResponse{Status: h.dashboards.Status(c.Request.Context())}
	if h.refresher != nil {
		if last := h.refresher.LastResult(); last.CycleID != "" {
			resp.LastRefresh = &last
		}
	}
	c.JSON(http.StatusOK, resp)
}

// ListRefreshLogs 最近的刷新日志
// GET /api/refresh/logs?limit=20
func (h *Handler) ListRefreshLogs(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "未启用刷新日志"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "参数 limit 非法"})
			return
		}
		limit = v
	}

	logs, err := h.history.RecentRefreshLogs(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": logs})
}

// GetRefreshSources 某次刷新的各数据源导入结果
// GET /api/refresh/logs/:id/sources
func (h *Handler) GetRefreshSources(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "未启用刷新日志"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "非法的刷新日志 ID"})
		return
	}

	reports, err := h.history.SourceReports(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": reports})
}
