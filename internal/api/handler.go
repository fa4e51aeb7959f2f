package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/Tuncayozalici/ONERI-sub000/internal/dashboard"
	"github.com/Tuncayozalici/ONERI-sub000/internal/importer"
	"github.com/Tuncayozalici/ONERI-sub000/internal/model"
	"github.com/Tuncayozalici/ONERI-sub000/internal/refresh"
	"github.com/Tuncayozalici/ONERI-sub000/internal/store"
)

// Dashboards 看板查询（*dashboard.Service 实现）
type Dashboards interface {
	Query(ctx context.Context, domain string, req dashboard.Request) (any, dashboard.Aux, error)
	Status(ctx context.Context) dashboard.Status
}

// Refresher 手动刷新（*refresh.Driver 实现）
type Refresher interface {
	RefreshNow(ctx context.Context) (refresh.Result, error)
	LastResult() refresh.Result
}

// RefreshHistory 刷新日志查询（*store.Store 实现），可选
type RefreshHistory interface {
	RecentRefreshLogs(limit int) ([]store.RefreshLog, error)
	SourceReports(refreshLogID int64) ([]model.SourceReport, error)
}

// Handler API 处理器
type Handler struct {
	dashboards Dashboards
	refresher  Refresher
	history    RefreshHistory
	progress   *progressHub
}

// NewHandler 创建 API 处理器
func NewHandler(dashboards Dashboards, refresher Refresher, history RefreshHistory) *Handler {
	return &Handler{
		dashboards: dashboards,
		refresher:  refresher,
		history:    history,
		progress:   newProgressHub(),
	}
}

// PublishProgress 转发快照构建进度（传给 importer.Builder.OnProgress）
func (h *Handler) PublishProgress(event importer.ProgressEvent) {
	h.progress.publish(event)
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 快照状态
	router.GET("/status", h.GetStatus)

	// 看板查询
	router.GET("/dashboards", h.ListDashboards)
	router.GET("/dashboards/:domain", h.GetDashboard)

	// 刷新
	router.POST("/refresh", h.Refresh)
	router.POST("/refresh/stream", h.RefreshStream)
	router.GET("/refresh/logs", h.ListRefreshLogs)
	router.GET("/refresh/logs/:id/sources", h.GetRefreshSources)
}
